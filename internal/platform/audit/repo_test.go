package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seedEvents(t *testing.T, r *MemoryRepo, n int) {
	t.Helper()
	base := time.Now().UTC()
	for i := 0; i < n; i++ {
		err := r.Record(context.Background(), &Event{
			ID:        uuid.New(),
			Type:      EventLogin,
			Detail:    fmt.Sprintf("event-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
}

func TestMemoryRepo_NewestFirst(t *testing.T) {
	r := NewMemoryRepo()
	seedEvents(t, r, 3)

	events, total, err := r.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(events) != 3 {
		t.Fatalf("total=%d len=%d", total, len(events))
	}
	if events[0].Detail != "event-2" || events[2].Detail != "event-0" {
		t.Errorf("order = %s..%s, want newest first", events[0].Detail, events[2].Detail)
	}
}

func TestMemoryRepo_Paging(t *testing.T) {
	r := NewMemoryRepo()
	seedEvents(t, r, 5)

	events, total, err := r.List(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 || len(events) != 2 {
		t.Fatalf("total=%d len=%d", total, len(events))
	}
	if events[0].Detail != "event-2" {
		t.Errorf("page start = %s, want event-2", events[0].Detail)
	}

	// Offset past the end yields an empty page, not an error.
	events, total, err = r.List(context.Background(), 2, 10)
	if err != nil || total != 5 || len(events) != 0 {
		t.Errorf("past-end page: events=%d total=%d err=%v", len(events), total, err)
	}
}

func TestMemoryRepo_Prune(t *testing.T) {
	r := NewMemoryRepo()
	now := time.Now().UTC()
	for i, age := range []time.Duration{48 * time.Hour, 12 * time.Hour, time.Hour} {
		r.Record(context.Background(), &Event{
			ID:        uuid.New(),
			Type:      EventLogin,
			Detail:    fmt.Sprintf("event-%d", i),
			CreatedAt: now.Add(-age),
		})
	}

	pruned, err := r.Prune(context.Background(), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
	if _, total, _ := r.List(context.Background(), 10, 0); total != 2 {
		t.Errorf("remaining = %d, want 2", total)
	}
}
