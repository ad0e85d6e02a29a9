package backend

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims the backend embeds in its access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// ParseAccessClaims decodes an access token's claims without verifying the
// signature. The backend remains the authority on token validity; the gateway
// only peeks at the claims to short-circuit startup with an already expired
// credential and to tag log lines with the subject.
func ParseAccessClaims(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("backend: parsing access token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token's exp claim is in the past. Tokens
// without an exp claim are treated as live.
func (c *AccessClaims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Before(now)
}
