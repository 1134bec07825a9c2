// Package netsup keeps the WiFi station associated.
//
// The supervisor task owns the radio's control plane and cycles
// Disconnected -> Starting -> Scanning -> Connecting -> Connected, falling
// back to Disconnected on any failure or link loss and retrying after a
// constant backoff, forever. Progress is surfaced as status text, a shared
// connectivity flag and the heartbeat LED cadence.
package netsup

import (
	"context"
	"log/slog"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"devicecode-water/bus"
	"devicecode-water/errcode"
	"devicecode-water/services/status"
	"devicecode-water/types"
	"devicecode-water/x/fmtx"
	"devicecode-water/x/timex"
)

var (
	TopicConnected = bus.T("net", "wifi", "connected")
	TopicState     = bus.T("net", "wifi", "state")
	TopicAddr      = bus.T("net", "wifi", "addr")
)

// RateSetter drives the heartbeat LED cadence.
type RateSetter interface {
	Set(d time.Duration)
}

// Heartbeater is the slice of the health monitor the supervisor reports to.
type Heartbeater interface {
	RecordHeartbeat(s types.Subsystem)
}

type Config struct {
	Radio       Radio
	Credentials types.Credentials

	Status status.Writer   // optional
	Rate   RateSetter      // optional
	Health Heartbeater     // optional
	Conn   *bus.Connection // optional; publishes state and flag when set

	Sleeper timex.Sleeper    // defaults to the wall clock
	Ticks   timex.TickSource // defaults to Sleeper if it ticks, else the wall clock
	Logger  *slog.Logger

	ReconnectDelay    time.Duration
	NetRefresh        time.Duration
	HeartbeatDefault  time.Duration
	HeartbeatNetAwait time.Duration
	ScanReportLimit   int
}

type Supervisor struct {
	cfg Config
	log *slog.Logger

	connected atomic.Bool
	attempts  atomic.Uint32
	failures  atomic.Uint32

	mu      sync.Mutex
	state   types.ConnState
	lastErr string
	addr    netip.Addr

	events chan types.RadioEvent
}

func New(cfg Config) *Supervisor {
	if cfg.Status == nil {
		cfg.Status = status.Discard{}
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = timex.RealSleeper()
	}
	if cfg.Ticks == nil {
		if ts, ok := cfg.Sleeper.(timex.TickSource); ok {
			cfg.Ticks = ts
		} else {
			cfg.Ticks = timex.RealTicks()
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.NetRefresh <= 0 {
		cfg.NetRefresh = 500 * time.Millisecond
	}
	return &Supervisor{
		cfg:    cfg,
		log:    cfg.Logger.With(slog.String("svc", "wifi")),
		events: make(chan types.RadioEvent, 4),
	}
}

// IsWifiConnected is the shared connectivity flag. Safe from any task.
func (s *Supervisor) IsWifiConnected() bool { return s.connected.Load() }

func (s *Supervisor) State() types.ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Addr is the leased address, invalid until the wait chain completes.
func (s *Supervisor) Addr() netip.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Attempts counts association attempts since boot.
func (s *Supervisor) Attempts() uint32 { return s.attempts.Load() }

// Failures counts failed attempts since boot.
func (s *Supervisor) Failures() uint32 { return s.failures.Load() }

func (s *Supervisor) Status() types.ConnStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.ConnStatus{
		State:     s.state,
		Connected: s.connected.Load(),
		Attempts:  s.attempts.Load(),
		LastError: s.lastErr,
	}
}

// Run maintains the association until ctx ends. On the device ctx never ends.
func (s *Supervisor) Run(ctx context.Context) error {
	s.cfg.Radio.Notify(s.onRadioEvent)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.State() == types.Connected {
			if err := s.holdConnection(ctx); err != nil {
				return err
			}
			s.onDisconnected()
			if err := s.sleep(ctx, s.cfg.ReconnectDelay); err != nil {
				return err
			}
		}

		if !s.cfg.Radio.Started() {
			s.setState(types.Starting)
			s.cfg.Status.Update("Starting WiFi")
			if err := s.cfg.Radio.Start(); err != nil {
				if err := s.fail(ctx, err); err != nil {
					return err
				}
				continue
			}
			s.setState(types.Scanning)
			s.cfg.Status.Update("WiFi scan")
			s.scan()
		}

		s.setState(types.Connecting)
		s.cfg.Status.Update("Connecting to WiFi")
		s.drainEvents()
		s.attempts.Add(1)
		if err := s.cfg.Radio.Connect(s.cfg.Credentials); err != nil {
			if err := s.fail(ctx, err); err != nil {
				return err
			}
			continue
		}
		s.onConnected()

		if err := s.acquireAddress(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Link dropped before a lease arrived.
			s.onDisconnected()
			if err := s.sleep(ctx, s.cfg.ReconnectDelay); err != nil {
				return err
			}
		}
	}
}

// scan enumerates nearby access points. Failures are logged and ignored.
func (s *Supervisor) scan() {
	aps, err := s.cfg.Radio.Scan()
	if err != nil {
		s.log.Debug("wifi:scan-skipped", slog.String("err", err.Error()))
		return
	}
	for i, ap := range aps {
		if i >= s.cfg.ScanReportLimit {
			break
		}
		s.log.Info("wifi:found-ap", slog.String("ssid", ap.SSID), slog.Int("rssi", int(ap.RSSI)))
	}
}

func (s *Supervisor) onConnected() {
	s.mu.Lock()
	s.state = types.Connected
	s.lastErr = ""
	s.mu.Unlock()
	s.connected.Store(true)

	s.cfg.Status.Update("Wifi connected!")
	s.setRate(s.cfg.HeartbeatDefault)
	s.heartbeat()
	s.log.Info("wifi:connected", slog.String("ssid", s.cfg.Credentials.SSID))
	s.publish()
}

func (s *Supervisor) onDisconnected() {
	s.mu.Lock()
	s.state = types.Disconnected
	s.addr = netip.Addr{}
	s.mu.Unlock()
	s.connected.Store(false)

	s.cfg.Status.Update("WiFi disconnected")
	s.setRate(s.cfg.HeartbeatNetAwait)
	s.log.Warn("wifi:disconnected")
	s.publish()
}

// fail records a failed attempt, then waits out the fixed backoff.
func (s *Supervisor) fail(ctx context.Context, err error) error {
	s.failures.Add(1)
	s.mu.Lock()
	s.state = types.Disconnected
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.connected.Store(false)

	s.setRate(s.cfg.HeartbeatNetAwait)
	s.cfg.Status.Update(fmtx.Sprintf("WiFi fail: %s", err.Error()))
	s.log.Error("wifi:attempt-failed",
		slog.String("err", err.Error()),
		slog.Int("attempt", int(s.attempts.Load())),
	)
	s.publish()
	return s.sleep(ctx, s.cfg.ReconnectDelay)
}

// holdConnection blocks while associated. It returns nil once the link is
// lost, or ctx.Err(). Radios that never report RadioDown are caught by the
// LinkUp poll on every keepalive tick.
func (s *Supervisor) holdConnection(ctx context.Context) error {
	keepalive := s.cfg.Ticks.NewTicker(s.keepaliveEvery())
	defer keepalive.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.events:
			if ev == types.RadioDown {
				return nil
			}
		case <-keepalive.C():
			if !s.cfg.Radio.LinkUp() {
				s.log.Warn("wifi:link-lost")
				return nil
			}
			s.heartbeat()
		}
	}
}

func (s *Supervisor) keepaliveEvery() time.Duration {
	if d := s.cfg.HeartbeatDefault; d > 0 {
		return d
	}
	return 5 * time.Second
}

// acquireAddress runs the one-shot wait chain after an association.
func (s *Supervisor) acquireAddress(ctx context.Context) error {
	if err := s.WaitForLink(ctx); err != nil {
		return err
	}
	addr, err := s.WaitForAddress(ctx)
	if err != nil {
		return err
	}
	s.setRate(s.cfg.HeartbeatDefault)
	if s.cfg.Conn != nil {
		s.cfg.Conn.Publish(s.cfg.Conn.NewMessage(TopicAddr, types.LinkInfo{Addr: addr}, true))
	}
	return nil
}

// WaitForLink polls until the radio reports the physical link up.
func (s *Supervisor) WaitForLink(ctx context.Context) error {
	s.setRate(s.cfg.HeartbeatNetAwait)
	s.cfg.Status.Update("Waiting for net")
	for {
		if s.linkLost() {
			return errcode.TransientNetwork
		}
		if s.cfg.Radio.LinkUp() {
			return nil
		}
		if err := s.sleep(ctx, s.cfg.NetRefresh); err != nil {
			return err
		}
	}
}

// WaitForAddress polls until a lease is held and returns the address.
func (s *Supervisor) WaitForAddress(ctx context.Context) (netip.Addr, error) {
	s.setRate(s.cfg.HeartbeatNetAwait)
	s.cfg.Status.Update("Waiting for IP")
	for {
		if s.linkLost() {
			return netip.Addr{}, errcode.TransientNetwork
		}
		if a, err := s.cfg.Radio.Addr(); err == nil && a.IsValid() && !a.IsUnspecified() {
			s.mu.Lock()
			s.addr = a
			s.mu.Unlock()
			s.cfg.Status.Update("IP: " + a.String())
			s.log.Info("wifi:address", slog.String("addr", a.String()))
			return a, nil
		}
		if err := s.sleep(ctx, s.cfg.NetRefresh); err != nil {
			return netip.Addr{}, err
		}
	}
}

// linkLost consumes a pending RadioDown without blocking.
func (s *Supervisor) linkLost() bool {
	for {
		select {
		case ev := <-s.events:
			if ev == types.RadioDown {
				return true
			}
		default:
			return false
		}
	}
}

func (s *Supervisor) onRadioEvent(ev types.RadioEvent) {
	select {
	case s.events <- ev:
	default:
		// Queue full; the supervisor also polls LinkUp.
	}
}

func (s *Supervisor) drainEvents() {
	for {
		select {
		case <-s.events:
		default:
			return
		}
	}
}

func (s *Supervisor) setState(st types.ConnState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.publish()
}

func (s *Supervisor) setRate(d time.Duration) {
	if s.cfg.Rate != nil && d > 0 {
		s.cfg.Rate.Set(d)
	}
}

func (s *Supervisor) heartbeat() {
	if s.cfg.Health != nil {
		s.cfg.Health.RecordHeartbeat(types.Wifi)
	}
}

func (s *Supervisor) sleep(ctx context.Context, d time.Duration) error {
	return s.cfg.Sleeper.Sleep(ctx, d)
}

func (s *Supervisor) publish() {
	c := s.cfg.Conn
	if c == nil {
		return
	}
	st := s.Status()
	c.Publish(c.NewMessage(TopicState, st, true))
	c.Publish(c.NewMessage(TopicConnected, st.Connected, true))
}
