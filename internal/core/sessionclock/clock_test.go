package sessionclock

import (
	"sync/atomic"
	"testing"
	"time"
)

// drain ticks the clock n times, stopping early if it expires.
func drain(c *Clock, n int) {
	for i := 0; i < n; i++ {
		if !c.Tick() {
			return
		}
	}
}

func TestTick_Decrements(t *testing.T) {
	c := New(0, Events{})
	c.Start(10)
	defer c.Stop()

	c.Tick()
	c.Tick()

	if got := c.State().Remaining; got != 8 {
		t.Errorf("remaining = %d, want 8", got)
	}
}

func TestWarning_FiresOnceBelowThreshold(t *testing.T) {
	var warnings []int
	c := New(3, Events{
		OnWarning: func(remaining int) { warnings = append(warnings, remaining) },
	})
	c.Start(5)
	defer c.Stop()

	// 5 -> 4 -> 3: not yet below the threshold of 3.
	c.Tick()
	c.Tick()
	if len(warnings) != 0 {
		t.Fatalf("warning fired early at remaining=%v", warnings)
	}

	// 3 -> 2: first instant strictly below the threshold.
	c.Tick()
	if len(warnings) != 1 || warnings[0] != 2 {
		t.Fatalf("warnings = %v, want [2]", warnings)
	}

	// Further ticks must not warn again.
	c.Tick()
	if len(warnings) != 1 {
		t.Errorf("warning fired more than once: %v", warnings)
	}
}

func TestWarning_ThresholdAgainstFullLifetime(t *testing.T) {
	// A 1500s session with a 300s threshold warns exactly when remaining
	// first reaches 299.
	var warned int32
	var at int
	c := New(300, Events{
		OnWarning: func(remaining int) {
			atomic.AddInt32(&warned, 1)
			at = remaining
		},
	})
	c.Start(1500)
	defer c.Stop()

	drain(c, 1200)
	if atomic.LoadInt32(&warned) != 0 {
		t.Fatalf("warned before the threshold; remaining=%d", c.State().Remaining)
	}
	c.Tick()
	if atomic.LoadInt32(&warned) != 1 {
		t.Fatalf("expected warning at 299, remaining=%d", c.State().Remaining)
	}
	if at != 299 {
		t.Errorf("warning carried remaining=%d, want 299", at)
	}
}

func TestRenew_ClearsWarnedAndRewarns(t *testing.T) {
	var warnings int
	c := New(3, Events{
		OnWarning: func(int) { warnings++ },
	})
	c.Start(4)
	defer c.Stop()

	drain(c, 2) // 4 -> 2, warning fired
	if warnings != 1 {
		t.Fatalf("warnings = %d, want 1", warnings)
	}
	if !c.State().Warned {
		t.Fatal("expected warned state after warning")
	}

	c.Renew(4)
	s := c.State()
	if s.Remaining != 4 || s.Warned {
		t.Fatalf("after renew: remaining=%d warned=%v, want 4/false", s.Remaining, s.Warned)
	}

	// The next approach to zero warns again.
	drain(c, 2)
	if warnings != 2 {
		t.Errorf("warnings = %d, want 2 after renewal", warnings)
	}
}

func TestExpiry_StopsClockAndClampsAtZero(t *testing.T) {
	var expired int
	c := New(0, Events{
		OnExpired: func() { expired++ },
	})
	c.Start(2)

	if !c.Tick() {
		t.Fatal("clock reported expiry one tick early")
	}
	if c.Tick() {
		t.Fatal("Tick should report false on expiry")
	}
	if expired != 1 {
		t.Fatalf("expired fired %d times, want 1", expired)
	}

	s := c.State()
	if s.Remaining != 0 || s.Running {
		t.Errorf("after expiry: remaining=%d running=%v, want 0/false", s.Remaining, s.Running)
	}

	// Ticking a dead clock never goes negative or re-fires.
	c.Tick()
	c.Tick()
	if got := c.State().Remaining; got != 0 {
		t.Errorf("remaining = %d after extra ticks, want 0", got)
	}
	if expired != 1 {
		t.Errorf("expired re-fired: %d", expired)
	}
}

func TestStop_PreventsExpiry(t *testing.T) {
	var expired int
	c := New(0, Events{OnExpired: func() { expired++ }})
	c.Start(1)
	c.Stop()

	if c.Tick() {
		t.Error("Tick should be a no-op after Stop")
	}
	if expired != 0 {
		t.Errorf("expired fired on a stopped clock")
	}
}

func TestStart_RestartsCleanly(t *testing.T) {
	var warnings int
	c := New(3, Events{OnWarning: func(int) { warnings++ }})
	c.Start(4)
	drain(c, 2) // warned
	c.Start(10)
	defer c.Stop()

	s := c.State()
	if s.Remaining != 10 || s.Warned || !s.Running {
		t.Fatalf("after restart: %+v", s)
	}

	drain(c, 8) // 10 -> 2, crosses the threshold again
	if warnings != 2 {
		t.Errorf("warnings = %d, want 2", warnings)
	}
}

func TestReset_RestoresFullLifetime(t *testing.T) {
	c := New(3, Events{})
	c.Start(10)
	drain(c, 9)
	c.Reset(10)

	s := c.State()
	if s.Remaining != 10 || s.Warned || s.Running {
		t.Errorf("after reset: %+v", s)
	}
}

func TestCadence_DrivesTicksAndExpiry(t *testing.T) {
	done := make(chan struct{})
	c := New(0, Events{OnExpired: func() { close(done) }})
	c.setInterval(time.Millisecond)
	c.Start(3)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("clock cadence never expired")
	}
	if got := c.State().Remaining; got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}
