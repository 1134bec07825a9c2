// Package watchdog owns the hardware liveness timer.
//
// The timer is armed once at boot and must be fed on a cadence comfortably
// shorter than its window; if feeding stops the hardware resets the whole
// device. Nothing here attempts recovery beyond arming and feeding.
package watchdog

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"devicecode-water/errcode"
	"devicecode-water/types"
)

// Timer is the narrow view of a hardware watchdog peripheral.
// None of its methods may block. Configure returns the window actually
// armed, which may be shorter than asked for if the silicon cannot count
// that far.
type Timer interface {
	Configure(timeout time.Duration) (time.Duration, error)
	Start() error
	Update()
	Stop() error
}

// Hardware is the one-shot ownership token for a Timer.
type Hardware struct {
	t     Timer
	taken atomic.Bool
}

// NewHardware wraps the platform's single watchdog peripheral.
func NewHardware(t Timer) *Hardware { return &Hardware{t: t} }

// Supervisor feeds and toggles an armed watchdog. The lock is only held for
// the duration of a register write and never across a suspension point.
type Supervisor struct {
	mu      sync.Mutex
	t       Timer
	enabled bool
	timeout time.Duration

	feeds atomic.Uint32
	log   *slog.Logger
}

// Init claims hw, arms it with timeout and starts it. A second Init on the
// same Hardware returns errcode.AlreadyInitialized.
func Init(hw *Hardware, timeout time.Duration, log *slog.Logger) (*Supervisor, error) {
	if hw == nil || hw.t == nil || timeout <= 0 {
		return nil, errcode.InvalidParams
	}
	if log == nil {
		log = slog.Default()
	}
	if hw.taken.Swap(true) {
		return nil, errcode.AlreadyInitialized
	}
	armed, err := hw.t.Configure(timeout)
	if err != nil {
		return nil, errcode.Wrap(errcode.HardwareError, "watchdog:configure", err)
	}
	if err := hw.t.Start(); err != nil {
		return nil, errcode.Wrap(errcode.HardwareError, "watchdog:start", err)
	}
	s := &Supervisor{
		t:       hw.t,
		enabled: true,
		timeout: armed,
		log:     log.With(slog.String("svc", "watchdog")),
	}
	if armed != timeout {
		s.log.Warn("watchdog:clamped", slog.Duration("requested", timeout), slog.Duration("armed", armed))
	}
	s.log.Info("watchdog:armed", slog.Duration("timeout", armed))
	return s, nil
}

// Feed restarts the hardware countdown. It is a no-op while disabled.
func (s *Supervisor) Feed() {
	s.mu.Lock()
	if s.enabled {
		s.t.Update()
		s.feeds.Add(1)
	}
	s.mu.Unlock()
}

// Disable stops the countdown for an operation that cannot feed on schedule.
// Every Disable must be followed by Enable.
func (s *Supervisor) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	if err := s.t.Stop(); err != nil {
		s.log.Error("watchdog:disable-failed", slog.String("err", err.Error()))
		return
	}
	s.enabled = false
	s.log.Warn("watchdog:disabled")
}

// Enable re-arms after Disable. The countdown restarts from a full window.
func (s *Supervisor) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		return
	}
	if err := s.t.Start(); err != nil {
		s.log.Error("watchdog:enable-failed", slog.String("err", err.Error()))
		return
	}
	s.t.Update()
	s.enabled = true
	s.log.Info("watchdog:re-enabled")
}

// WithDisabled runs fn with the watchdog paused and always re-enables it.
func (s *Supervisor) WithDisabled(fn func()) {
	s.Disable()
	defer s.Enable()
	fn()
}

func (s *Supervisor) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Supervisor) Stats() types.WatchdogStats {
	return types.WatchdogStats{
		Enabled: s.Enabled(),
		Feeds:   s.feeds.Load(),
		Timeout: s.timeout,
	}
}
