// Package health tracks per-subsystem heartbeat recency and derives liveness.
//
// Each subsystem's own task calls RecordHeartbeat on its natural cadence.
// Queries compare the time since the last heartbeat against a fixed
// per-subsystem timeout on a wrapping millisecond counter, so a counter
// rollover never produces a false "unhealthy" verdict. A subsystem that has
// never reported is healthy (cold-start grace).
package health

import (
	"log/slog"
	"sync"
	"time"

	"devicecode-water/types"
	"devicecode-water/x/timex"
)

// Observer receives one event per genuine health flip. It is called outside
// the monitor's state lock but must not call back into the Monitor.
type Observer interface {
	HealthChanged(ev types.HealthEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(types.HealthEvent)

func (f ObserverFunc) HealthChanged(ev types.HealthEvent) { f(ev) }

type record struct {
	last    uint32 // wrapping ms of the last heartbeat
	seen    bool   // false until the first heartbeat
	healthy bool   // cached verdict, flipped only on boundary crossings
	timeout uint32 // ms
}

type Config struct {
	Clock    timex.Clock
	Timeouts [types.NumSubsystems]time.Duration
	Observer Observer     // optional
	Logger   *slog.Logger // optional
}

type Monitor struct {
	mu   sync.Mutex
	recs [types.NumSubsystems]record

	// deliver serialises observer calls in flip order.
	deliver sync.Mutex

	clock timex.Clock
	obs   Observer
	log   *slog.Logger
}

func New(cfg Config) *Monitor {
	clk := cfg.Clock
	if clk == nil {
		clk = timex.Monotonic()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	m := &Monitor{clock: clk, obs: cfg.Observer, log: log.With(slog.String("svc", "health"))}
	for i := range m.recs {
		m.recs[i] = record{healthy: true, timeout: timex.DurationMs(cfg.Timeouts[i])}
	}
	return m
}

// Timeout returns the configured timeout for s.
func (m *Monitor) Timeout(s types.Subsystem) time.Duration {
	if !s.Valid() {
		return 0
	}
	return time.Duration(m.recs[s].timeout) * time.Millisecond
}

// MarkAllAlive seeds every subsystem with a heartbeat at "now". Called once at
// boot so every timeout window starts from power-on.
func (m *Monitor) MarkAllAlive() {
	for _, s := range types.AllSubsystems {
		m.RecordHeartbeat(s)
	}
	m.log.Info("health:initialised", slog.Int("subsystems", types.NumSubsystems))
}

// RecordHeartbeat stamps s as seen now and healthy. Safe from any task.
func (m *Monitor) RecordHeartbeat(s types.Subsystem) {
	if !s.Valid() {
		return
	}
	now := m.clock.NowMs32()

	m.mu.Lock()
	r := &m.recs[s]
	var silent uint32
	if r.seen {
		silent = timex.SinceMs(now, r.last)
	}
	recovered := !r.healthy
	r.last = now
	r.seen = true
	r.healthy = true
	if !recovered {
		m.mu.Unlock()
		return
	}
	m.deliver.Lock()
	m.mu.Unlock()

	m.emit(types.HealthEvent{Subsystem: s, Healthy: true, SilentMs: silent, TS: now})
	m.deliver.Unlock()
}

// IsSubsystemHealthy reports whether s has heartbeated within its timeout,
// updating the cached flag and emitting an event if the verdict flipped.
func (m *Monitor) IsSubsystemHealthy(s types.Subsystem) bool {
	if !s.Valid() {
		return false
	}
	now := m.clock.NowMs32()

	m.mu.Lock()
	r := &m.recs[s]
	if !r.seen {
		m.mu.Unlock()
		return true
	}
	silent := timex.SinceMs(now, r.last)
	healthy := silent < r.timeout
	if healthy == r.healthy {
		m.mu.Unlock()
		return healthy
	}
	r.healthy = healthy
	m.deliver.Lock()
	m.mu.Unlock()

	m.emit(types.HealthEvent{Subsystem: s, Healthy: healthy, SilentMs: silent, TS: now})
	m.deliver.Unlock()
	return healthy
}

// IsSystemHealthy is the AND over all subsystems. Every subsystem is
// evaluated so that each pending flip is reported.
func (m *Monitor) IsSystemHealthy() bool {
	ok := true
	for _, s := range types.AllSubsystems {
		if !m.IsSubsystemHealthy(s) {
			ok = false
		}
	}
	return ok
}

// Status evaluates every subsystem and returns the snapshot.
func (m *Monitor) Status() types.HealthSnapshot {
	var snap types.HealthSnapshot
	snap.System = true
	for _, s := range types.AllSubsystems {
		snap.Healthy[s] = m.IsSubsystemHealthy(s)
		snap.System = snap.System && snap.Healthy[s]
	}
	return snap
}

func (m *Monitor) emit(ev types.HealthEvent) {
	if ev.Healthy {
		m.log.Info("health:recovered", slog.String("subsystem", ev.Subsystem.String()))
	} else {
		m.log.Warn("health:unhealthy",
			slog.String("subsystem", ev.Subsystem.String()),
			slog.Int("silent_ms", int(ev.SilentMs)),
		)
	}
	if m.obs != nil {
		m.obs.HealthChanged(ev)
	}
}
