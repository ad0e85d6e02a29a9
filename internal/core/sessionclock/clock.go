// Package sessionclock models the idle lifetime of the browser session. The
// clock decrements once per second and raises exactly two transitions: a
// single Warning when remaining time first crosses the configured threshold,
// and Expired when it reaches zero. It performs no network or persistence
// work; the session manager supplies the callbacks.
package sessionclock

import (
	"sync"
	"time"
)

// Events carries the callbacks fired by the clock. Callbacks run on the
// clock's tick goroutine and must not block.
type Events struct {
	// OnWarning fires once per approach-to-zero cycle when remaining time
	// first drops below the warning threshold.
	OnWarning func(remaining int)
	// OnExpired fires when remaining time reaches zero. The clock stops
	// itself before invoking it.
	OnExpired func()
}

// State is a point-in-time snapshot of the clock.
type State struct {
	Remaining int  `json:"remaining_seconds"`
	Warned    bool `json:"warned"`
	Running   bool `json:"running"`
}

// Clock counts a session's remaining seconds.
type Clock struct {
	mu            sync.Mutex
	remaining     int
	warnThreshold int
	warned        bool
	running       bool
	stop          chan struct{}
	events        Events

	// interval is overridable in tests; one second in production.
	interval time.Duration
}

// New returns a stopped clock with the given warning threshold.
func New(warnThreshold int, events Events) *Clock {
	return &Clock{
		warnThreshold: warnThreshold,
		events:        events,
		interval:      time.Second,
	}
}

// Start begins a one-second cadence from initialSeconds. Any previously
// running cadence is cancelled first so at most one ticker exists per clock.
func (c *Clock) Start(initialSeconds int) {
	c.mu.Lock()
	c.stopLocked()
	c.remaining = initialSeconds
	c.warned = false
	c.running = true
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(stop)
}

func (c *Clock) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.Tick() {
				return
			}
		}
	}
}

// Tick decrements remaining time by one second, clamping at zero, and fires
// any due transition. It returns false once the clock has expired or been
// stopped. Exposed so tests can drive the cadence deterministically.
func (c *Clock) Tick() bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	remaining := c.remaining

	var fireWarning, fireExpired bool
	if remaining <= 0 {
		c.running = false
		c.stopChanLocked()
		fireExpired = true
	} else if remaining < c.warnThreshold && !c.warned {
		c.warned = true
		fireWarning = true
	}
	c.mu.Unlock()

	if fireWarning && c.events.OnWarning != nil {
		c.events.OnWarning(remaining)
	}
	if fireExpired {
		if c.events.OnExpired != nil {
			c.events.OnExpired()
		}
		return false
	}
	return true
}

// Renew resets remaining time and clears the warned flag so a future
// approach to zero warns again.
func (c *Clock) Renew(newSeconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = newSeconds
	c.warned = false
}

// Stop cancels the cadence without firing Expired. Used on logout.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Clock) stopLocked() {
	c.running = false
	c.stopChanLocked()
}

func (c *Clock) stopChanLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Reset stops the clock and restores remaining time to fullSeconds so the
// next login starts from a clean state.
func (c *Clock) Reset(fullSeconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining = fullSeconds
	c.warned = false
}

// State returns a snapshot of the clock.
func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Remaining: c.remaining, Warned: c.warned, Running: c.running}
}

// setInterval overrides the tick interval. Test hook.
func (c *Clock) setInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = d
}
