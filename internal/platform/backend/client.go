// Package backend is the HTTP client for the clinical backend's auth
// surface: credential exchange, principal description, and the permission
// tree fetch. The gateway never trusts locally cached identity; every session
// is validated through these endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cdss/cdss-web/internal/core/menu"
	"github.com/cdss/cdss-web/internal/core/role"
)

// Tokens is the credential pair issued by the backend on login.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Principal is the authenticated actor as described by the backend.
type Principal struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Role role.Role `json:"role"`
}

// ErrUnauthorized indicates the backend rejected the presented credential.
var ErrUnauthorized = fmt.Errorf("backend: unauthorized")

// Client talks to the clinical backend.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient returns a Client for the given base URL.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.With().Str("component", "backend").Logger(),
	}
}

// Login exchanges a user credential for a token pair.
func (c *Client) Login(ctx context.Context, userID, password string) (Tokens, error) {
	body, _ := json.Marshal(map[string]string{"id": userID, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return Tokens{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var tokens Tokens
	if err := c.do(req, &tokens); err != nil {
		return Tokens{}, err
	}
	if tokens.Access == "" {
		return Tokens{}, fmt.Errorf("backend: login response missing access token")
	}
	return tokens, nil
}

// DescribePrincipal validates the access token and returns the principal it
// identifies.
func (c *Client) DescribePrincipal(ctx context.Context, access string) (*Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+access)

	var wire struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := c.do(req, &wire); err != nil {
		return nil, err
	}

	r, err := role.Parse(wire.Role)
	if err != nil {
		return nil, fmt.Errorf("backend: principal has %w", err)
	}
	return &Principal{ID: wire.ID, Name: wire.Name, Role: r}, nil
}

// FetchPermissions returns the permission tree and the grant set for the
// principal the access token identifies.
func (c *Client) FetchPermissions(ctx context.Context, access string) (*menu.Tree, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/menu", nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+access)

	var wire struct {
		Menus   json.RawMessage `json:"menus"`
		Granted []string        `json:"granted"`
	}
	if err := c.do(req, &wire); err != nil {
		return nil, nil, err
	}

	tree := menu.DefaultTree()
	if len(wire.Menus) > 0 {
		tree, err = menu.DecodeTree(wire.Menus)
		if err != nil {
			return nil, nil, fmt.Errorf("backend: decoding menu tree: %w", err)
		}
	}
	return tree, wire.Granted, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}
