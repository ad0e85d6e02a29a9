// Package telemetry provides in-process counters and gauges for the session
// core with a Prometheus text exposition endpoint, using only standard
// library constructs.
package telemetry

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"
)

// Metric names tracked by the gateway.
const (
	CounterLogins             = "cdss_logins_total"
	CounterLoginFailures      = "cdss_login_failures_total"
	CounterLogouts            = "cdss_logouts_total"
	CounterSessionExpiries    = "cdss_session_expiries_total"
	CounterSessionWarnings    = "cdss_session_warnings_total"
	CounterSessionRenewals    = "cdss_session_renewals_total"
	CounterPermissionRefresh  = "cdss_permission_refreshes_total"
	CounterChannelReconnects  = "cdss_channel_reconnect_attempts_total"
	GaugeChannelConnected     = "cdss_channel_connected"
	GaugeBridgeClients        = "cdss_bridge_clients"
	GaugeSessionAuthenticated = "cdss_session_authenticated"
)

type counterStore struct {
	mu       sync.RWMutex
	counters map[string]int64
}

func newCounterStore() *counterStore {
	return &counterStore{counters: make(map[string]int64)}
}

func (s *counterStore) inc(name string) {
	s.mu.Lock()
	s.counters[name]++
	s.mu.Unlock()
}

func (s *counterStore) get(name string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[name]
}

func (s *counterStore) snapshot() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int64, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

type gaugeStore struct {
	mu     sync.RWMutex
	gauges map[string]int64
}

func newGaugeStore() *gaugeStore {
	return &gaugeStore{gauges: make(map[string]int64)}
}

func (s *gaugeStore) set(name string, val int64) {
	s.mu.Lock()
	s.gauges[name] = val
	s.mu.Unlock()
}

func (s *gaugeStore) get(name string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gauges[name]
}

func (s *gaugeStore) snapshot() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int64, len(s.gauges))
	for k, v := range s.gauges {
		out[k] = v
	}
	return out
}

// Provider aggregates the gateway's metrics.
type Provider struct {
	serviceName string
	counters    *counterStore
	gauges      *gaugeStore
}

// NewProvider returns an empty Provider.
func NewProvider(serviceName string) *Provider {
	if serviceName == "" {
		serviceName = "cdss-web"
	}
	return &Provider{
		serviceName: serviceName,
		counters:    newCounterStore(),
		gauges:      newGaugeStore(),
	}
}

// Inc increments a counter.
func (p *Provider) Inc(name string) {
	p.counters.inc(name)
}

// SetGauge sets a gauge to an absolute value.
func (p *Provider) SetGauge(name string, val int64) {
	p.gauges.set(name, val)
}

// SetGaugeBool sets a 0/1 gauge.
func (p *Provider) SetGaugeBool(name string, on bool) {
	var v int64
	if on {
		v = 1
	}
	p.gauges.set(name, v)
}

// Counter returns the current value of a counter.
func (p *Provider) Counter(name string) int64 {
	return p.counters.get(name)
}

// Gauge returns the current value of a gauge.
func (p *Provider) Gauge(name string) int64 {
	return p.gauges.get(name)
}

// MetricsHandler serves the Prometheus text exposition format.
func (p *Provider) MetricsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b []byte

		counters := p.counters.snapshot()
		names := make([]string, 0, len(counters))
		for name := range counters {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b = append(b, fmt.Sprintf("# TYPE %s counter\n%s{service=%q} %d\n", name, name, p.serviceName, counters[name])...)
		}

		gauges := p.gauges.snapshot()
		names = names[:0]
		for name := range gauges {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b = append(b, fmt.Sprintf("# TYPE %s gauge\n%s{service=%q} %d\n", name, name, p.serviceName, gauges[name])...)
		}

		return c.Blob(http.StatusOK, "text/plain; version=0.0.4", b)
	}
}
