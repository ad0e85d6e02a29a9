package audit

import (
	"context"
	"sync"
	"time"
)

// Repository persists audit events.
type Repository interface {
	Record(ctx context.Context, e *Event) error
	List(ctx context.Context, limit, offset int) ([]*Event, int, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// MemoryRepo is an in-process Repository used in tests and when no database
// is configured. Events are held newest-first.
type MemoryRepo struct {
	mu     sync.Mutex
	events []*Event
}

// NewMemoryRepo returns an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Record(_ context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append([]*Event{e}, r.events...)
	return nil
}

func (r *MemoryRepo) List(_ context.Context, limit, offset int) ([]*Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := len(r.events)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	out := make([]*Event, end-offset)
	copy(out, r.events[offset:end])
	return out, total, nil
}

func (r *MemoryRepo) Prune(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	var pruned int64
	for _, e := range r.events {
		if e.CreatedAt.Before(before) {
			pruned++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return pruned, nil
}
