package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cdss/cdss-web/internal/core/role"
)

// Service records and reads audit events. Record failures are downgraded to
// log lines so auditing can never block a login or logout.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService returns a Service over the given repository.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Record stores one event, filling in id and timestamp.
func (s *Service) Record(ctx context.Context, typ EventType, principalID, principalName string, r role.Role, detail string) {
	e := &Event{
		ID:            uuid.New(),
		Type:          typ,
		PrincipalID:   principalID,
		PrincipalName: principalName,
		Role:          r,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Record(ctx, e); err != nil {
		s.logger.Error().Err(err).Str("event_type", string(typ)).Msg("failed to record audit event")
	}
}

// List returns events newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Event, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Prune deletes events older than the retention window and returns the count
// removed.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.Prune(ctx, time.Now().UTC().Add(-retention))
}
