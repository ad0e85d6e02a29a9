// Package audit records session lifecycle events (logins, logouts, expiries,
// permission refreshes, channel failures) for the access audit log screen.
// Recording is best-effort: an audit failure is logged and never interrupts
// the auth flow it describes.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/cdss/cdss-web/internal/core/role"
)

// EventType classifies an audit event.
type EventType string

const (
	EventLogin             EventType = "login"
	EventLoginFailed       EventType = "login-failed"
	EventLogout            EventType = "logout"
	EventSessionExpired    EventType = "session-expired"
	EventSessionRenewed    EventType = "session-renewed"
	EventPermissionRefresh EventType = "permission-refresh"
	EventChannelExhausted  EventType = "channel-exhausted"
)

// Event is one recorded session lifecycle event.
type Event struct {
	ID            uuid.UUID `json:"id"`
	Type          EventType `json:"type"`
	PrincipalID   string    `json:"principal_id,omitempty"`
	PrincipalName string    `json:"principal_name,omitempty"`
	Role          role.Role `json:"role,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
