// Package session owns authentication state for the gateway. The Manager is
// the single source of truth for who the current principal is and what they
// can reach; every other component reads through it. It owns the session
// clock, the permission tree store, and the live authorization channel, and
// it is the only writer of all three.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cdss/cdss-web/internal/core/menu"
	"github.com/cdss/cdss-web/internal/core/role"
	"github.com/cdss/cdss-web/internal/core/sessionclock"
	"github.com/cdss/cdss-web/internal/platform/audit"
	"github.com/cdss/cdss-web/internal/platform/backend"
	"github.com/cdss/cdss-web/internal/platform/credstore"
)

// Backend is the slice of the clinical backend the manager consumes.
type Backend interface {
	Login(ctx context.Context, userID, password string) (backend.Tokens, error)
	DescribePrincipal(ctx context.Context, access string) (*backend.Principal, error)
	FetchPermissions(ctx context.Context, access string) (*menu.Tree, []string, error)
}

// AuthChannel is the slice of the live authorization channel the manager
// drives.
type AuthChannel interface {
	Connect(credential string)
	Teardown()
	Connected() bool
}

// ErrInvalidCredential is returned by Login when the backend rejects the
// supplied credential.
var ErrInvalidCredential = errors.New("session: invalid credential")

// Config holds the manager's timing parameters.
type Config struct {
	// SessionSeconds is the full idle lifetime granted on login and renewal.
	SessionSeconds int
	// WarnSeconds is the remaining-time threshold below which the expiry
	// warning fires.
	WarnSeconds int
	// FetchTimeout bounds each backend call made outside a request context.
	FetchTimeout time.Duration
}

// State is the externally visible session state. UI code observes state,
// never raw errors from this package.
type State struct {
	Authenticated    bool   `json:"authenticated"`
	AuthReady        bool   `json:"auth_ready"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Warned           bool   `json:"warned"`
	ChannelConnected bool   `json:"channel_connected"`
	Role             string `json:"role,omitempty"`
}

// Manager orchestrates login, logout, renewal, and permission refresh.
type Manager struct {
	cfg     Config
	backend Backend
	creds   credstore.Store
	store   *menu.Store
	clock   *sessionclock.Clock
	audit   *audit.Service
	logger  zerolog.Logger

	mu         sync.Mutex
	channel    AuthChannel
	principal  *backend.Principal
	access     string
	authReady  bool
	generation uint64

	// Lifecycle hooks, for the ws bridge and metrics. Optional; set before
	// Initialize. OnWarning and OnExpired run on the clock goroutine,
	// OnRefresh on the fetch goroutine.
	OnWarning     func(remaining int)
	OnExpired     func()
	OnLogin       func()
	OnLoginFailed func()
	OnLogout      func()
	OnRenewed     func()
	OnRefresh     func()
}

// NewManager builds a Manager. Attach the live authorization channel with
// AttachChannel before calling Initialize.
func NewManager(cfg Config, be Backend, creds credstore.Store, store *menu.Store, auditSvc *audit.Service, logger zerolog.Logger) *Manager {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	m := &Manager{
		cfg:     cfg,
		backend: be,
		creds:   creds,
		store:   store,
		audit:   auditSvc,
		logger:  logger.With().Str("component", "session").Logger(),
	}
	m.clock = sessionclock.New(cfg.WarnSeconds, sessionclock.Events{
		OnWarning: m.onWarning,
		OnExpired: m.onExpired,
	})
	return m
}

// AttachChannel wires the live authorization channel. The channel's change
// callback must point at RefreshPermissions.
func (m *Manager) AttachChannel(ch AuthChannel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channel = ch
}

// Initialize restores a persisted session at process start. Every failure
// path degrades to logged-out; the method never returns an error because the
// UI must come up either way. It always ends with the manager auth-ready.
func (m *Manager) Initialize(ctx context.Context) {
	defer m.setAuthReady()

	rec, ok, err := m.creds.Load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("credential load failed; starting logged out")
		return
	}
	if !ok {
		return
	}

	if claims, err := backend.ParseAccessClaims(rec.Access); err == nil && claims.Expired(time.Now()) {
		m.logger.Info().Msg("persisted credential expired; clearing")
		m.clearCredentials(ctx)
		return
	}

	if err := m.establish(ctx, rec.Access); err != nil {
		m.logger.Warn().Err(err).Msg("session restore failed; starting logged out")
		m.clearCredentials(ctx)
	}
}

// Login exchanges the credential, persists the token pair, and establishes
// the session.
func (m *Manager) Login(ctx context.Context, userID, password string) error {
	tokens, err := m.backend.Login(ctx, userID, password)
	if err != nil {
		m.recordAudit(ctx, audit.EventLoginFailed, &backend.Principal{ID: userID}, err.Error())
		if m.OnLoginFailed != nil {
			m.OnLoginFailed()
		}
		if errors.Is(err, backend.ErrUnauthorized) {
			return ErrInvalidCredential
		}
		return fmt.Errorf("session: login: %w", err)
	}

	if err := m.creds.Save(ctx, &credstore.Record{Access: tokens.Access, Refresh: tokens.Refresh}); err != nil {
		m.logger.Warn().Err(err).Msg("credential persist failed; session will not survive restart")
	}

	if err := m.establish(ctx, tokens.Access); err != nil {
		m.clearCredentials(ctx)
		return fmt.Errorf("session: establishing session: %w", err)
	}
	return nil
}

// establish validates the credential, publishes principal and permission
// tree, starts the clock, and opens the channel.
func (m *Manager) establish(ctx context.Context, access string) error {
	principal, err := m.backend.DescribePrincipal(ctx, access)
	if err != nil {
		return err
	}
	tree, granted, err := m.backend.FetchPermissions(ctx, access)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.generation++
	m.principal = principal
	m.access = access
	ch := m.channel
	m.mu.Unlock()

	m.store.Replace(tree, granted)
	m.clock.Start(m.cfg.SessionSeconds)
	if ch != nil {
		ch.Connect(access)
	}

	m.recordAudit(ctx, audit.EventLogin, principal, "")
	m.logger.Info().
		Str("principal", principal.ID).
		Str("role", principal.Role.String()).
		Msg("session established")
	if m.OnLogin != nil {
		m.OnLogin()
	}
	return nil
}

// Logout is the universal cancellation point: it synchronously stops the
// clock and tears down the channel before clearing state, so no late
// callback can resurrect the session. Idempotent.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	principal := m.principal
	ch := m.channel
	m.generation++
	m.principal = nil
	m.access = ""
	m.mu.Unlock()

	if ch != nil {
		ch.Teardown()
	}
	m.clock.Reset(m.cfg.SessionSeconds)
	m.store.Clear()
	m.clearCredentials(ctx)

	if principal != nil {
		m.recordAudit(ctx, audit.EventLogout, principal, "")
		m.logger.Info().Str("principal", principal.ID).Msg("logged out")
		if m.OnLogout != nil {
			m.OnLogout()
		}
	}
}

// RenewSession resets the idle countdown from a user-facing "extend session"
// action. It does not contact the backend: the idle lifetime is a
// client-side concept layered atop the credential's own lifetime.
func (m *Manager) RenewSession() {
	if !m.IsAuthenticated() {
		return
	}
	m.clock.Renew(m.cfg.SessionSeconds)
	m.mu.Lock()
	principal := m.principal
	m.mu.Unlock()
	m.recordAudit(context.Background(), audit.EventSessionRenewed, principal, "")
	if m.OnRenewed != nil {
		m.OnRenewed()
	}
}

// RefreshPermissions re-fetches the permission tree in response to a change
// notification. Fire-and-forget: overlapping refreshes are tolerated and the
// last response to complete wins, since store.Replace is total. A refresh
// that resolves after logout is discarded by the generation guard.
func (m *Manager) RefreshPermissions() {
	m.mu.Lock()
	if m.principal == nil {
		m.mu.Unlock()
		return
	}
	access := m.access
	principal := m.principal
	gen := m.generation
	m.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.FetchTimeout)
		defer cancel()

		tree, granted, err := m.backend.FetchPermissions(ctx, access)
		if err != nil {
			m.logger.Warn().Err(err).Msg("permission refresh failed; keeping last-known tree")
			return
		}

		m.mu.Lock()
		stale := m.principal == nil || m.generation != gen
		m.mu.Unlock()
		if stale {
			m.logger.Debug().Msg("discarding permission fetch for ended session")
			return
		}

		m.store.Replace(tree, granted)
		m.recordAudit(ctx, audit.EventPermissionRefresh, principal, "")
		m.logger.Info().Msg("permission tree refreshed")
		if m.OnRefresh != nil {
			m.OnRefresh()
		}
	}()
}

// HasPermission is the single authorization check the rest of the
// application uses. The system-manager role is universally authorized by an
// explicit short-circuit; the stored tree is never mutated to express that.
func (m *Manager) HasPermission(nodeID string) bool {
	m.mu.Lock()
	principal := m.principal
	m.mu.Unlock()

	if principal == nil {
		return false
	}
	if principal.Role == role.SystemManager {
		return true
	}
	return m.store.IsGranted(nodeID)
}

// IsAuthenticated reports whether a principal is currently set.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.principal != nil
}

// IsAuthReady reports whether Initialize has completed, successfully or not.
func (m *Manager) IsAuthReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authReady
}

// Principal returns the current principal, or nil when logged out. The
// returned value is read-only to callers.
func (m *Manager) Principal() *backend.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.principal
}

// AccessToken returns the current access credential for components that
// forward it (the ws bridge handshake). Empty when logged out.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

// Store exposes the permission tree store for read-side consumers.
func (m *Manager) Store() *menu.Store {
	return m.store
}

// SessionState snapshots everything the UI needs to render the session.
func (m *Manager) SessionState() State {
	cs := m.clock.State()

	m.mu.Lock()
	principal := m.principal
	ready := m.authReady
	ch := m.channel
	m.mu.Unlock()

	s := State{
		Authenticated:    principal != nil,
		AuthReady:        ready,
		RemainingSeconds: cs.Remaining,
		Warned:           cs.Warned,
	}
	if principal != nil {
		s.Role = principal.Role.String()
	}
	if ch != nil {
		s.ChannelConnected = ch.Connected()
	}
	return s
}

func (m *Manager) setAuthReady() {
	m.mu.Lock()
	m.authReady = true
	m.mu.Unlock()
}

func (m *Manager) onWarning(remaining int) {
	m.logger.Warn().Int("remaining_seconds", remaining).Msg("session expiring soon")
	if m.OnWarning != nil {
		m.OnWarning(remaining)
	}
}

// onExpired runs on the clock goroutine when remaining time hits zero.
// Expiry is a designed transition, not an error: it takes the same teardown
// path as an explicit logout, and it always wins over any in-flight
// permission fetch.
func (m *Manager) onExpired() {
	m.mu.Lock()
	principal := m.principal
	m.mu.Unlock()

	if principal != nil {
		m.recordAudit(context.Background(), audit.EventSessionExpired, principal, "")
	}
	m.logger.Info().Msg("session expired")
	if m.OnExpired != nil {
		m.OnExpired()
	}
	m.Logout(context.Background())
}

func (m *Manager) clearCredentials(ctx context.Context) {
	if err := m.creds.Clear(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("credential clear failed")
	}
}

func (m *Manager) recordAudit(ctx context.Context, typ audit.EventType, p *backend.Principal, detail string) {
	if m.audit == nil || p == nil {
		return
	}
	m.audit.Record(ctx, typ, p.ID, p.Name, p.Role, detail)
}
