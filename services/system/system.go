// Package system wires the supervision core together and runs the boot
// sequence.
//
// Boot order: health monitor, watchdog, second core (status monitor, LED
// heartbeat, health responder and any board tasks), then the network
// supervisor. Run then feeds the watchdog on a fixed cadence forever. Feeding
// is not gated on health; a wedged main loop is what the watchdog catches.
package system

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"devicecode-water/bus"
	"devicecode-water/errcode"
	"devicecode-water/platform"
	"devicecode-water/services/appcore"
	"devicecode-water/services/config"
	"devicecode-water/services/health"
	"devicecode-water/services/heartbeat"
	"devicecode-water/services/netsup"
	"devicecode-water/services/status"
	"devicecode-water/services/watchdog"
	"devicecode-water/types"
	"devicecode-water/x/timex"
)

// TopicWatchdog carries retained watchdog stats, refreshed on every feed.
var TopicWatchdog = bus.T("system", "watchdog")

// BoardTask is an extra second-core task supplied by a board, such as a
// display refresher or an ADC poller. Tasks heartbeat through Health.
type BoardTask struct {
	Name       string
	StackBytes int // 0 takes the profile's task stack size
	Run        func(ctx context.Context, sup *Supervisor)
}

type Deps struct {
	Profile *config.Profile
	Board   *platform.Board
	Bus     *bus.Bus
	Logger  *slog.Logger

	Clock   timex.Clock   // defaults to the monotonic clock
	Sleeper timex.Sleeper // defaults to real sleeps
	Tasks   []BoardTask
}

// Supervisor is the aggregate every task may hold a pointer to. There are no
// package-level singletons.
type Supervisor struct {
	Health   *health.Monitor
	Watchdog *watchdog.Supervisor
	Status   *status.Channel
	Rate     *heartbeat.Rate
	Net      *netsup.Supervisor
	Core     *appcore.Handle

	conn    *bus.Connection
	profile *config.Profile
	log     *slog.Logger
}

// IsWifiConnected reports the network supervisor's shared flag.
func (s *Supervisor) IsWifiConnected() bool { return s.Net.IsWifiConnected() }

// Boot brings up every service. A returned error is fatal: the caller logs it
// and parks until the watchdog (if armed) resets the chip.
func Boot(ctx context.Context, d Deps) (*Supervisor, error) {
	if d.Profile == nil || d.Board == nil || d.Bus == nil {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "boot"}
	}
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	p := d.Profile
	conn := d.Bus.NewConnection("system")

	s := &Supervisor{
		conn:    conn,
		profile: p,
		log:     log.With(slog.String("svc", "system")),
		Status:  status.NewChannel(conn),
		Rate:    heartbeat.NewRate(conn),
	}
	s.log.Info("boot:start")
	s.Rate.Set(p.HeartbeatInit())
	s.Status.Update("Booting")

	s.Health = health.New(health.Config{
		Clock:    d.Clock,
		Timeouts: p.HealthTimeouts(),
		Observer: health.BusObserver{Conn: d.Bus.NewConnection("health")},
		Logger:   log,
	})
	s.Health.MarkAllAlive()

	wd, err := watchdog.Init(d.Board.Watchdog, p.WatchdogTimeout(), log)
	if err != nil {
		s.log.Error("boot:watchdog-failed", slog.String("err", err.Error()))
		return nil, err
	}
	s.Watchdog = wd

	s.Core, err = appcore.Start(ctx, d.Board.Core, appcore.NewArena(p.AppCore.ArenaBytes), s.seed(d), log)
	if err != nil {
		s.log.Error("boot:core1-failed", slog.String("err", err.Error()))
		return nil, err
	}

	s.Net = netsup.New(netsup.Config{
		Radio:             d.Board.Radio,
		Credentials:       p.Credentials(),
		Status:            s.Status,
		Rate:              s.Rate,
		Health:            s.Health,
		Conn:              d.Bus.NewConnection("wifi"),
		Sleeper:           d.Sleeper,
		Logger:            log,
		ReconnectDelay:    p.ReconnectDelay(),
		NetRefresh:        p.NetRefresh(),
		HeartbeatDefault:  p.HeartbeatDefault(),
		HeartbeatNetAwait: p.HeartbeatNetAwait(),
		ScanReportLimit:   p.Network.ScanReportLimit,
	})
	s.Status.Update("WiFi init")
	s.log.Info("boot:done")
	return s, nil
}

// seed registers the second-core tasks. Spawn failures are logged by the
// spawner and otherwise ignored.
func (s *Supervisor) seed(d Deps) func(*appcore.Spawner) {
	stack := d.Profile.AppCore.TaskStackBytes
	b := d.Bus
	blink := d.Profile.HeartbeatBlink()
	initial := d.Profile.HeartbeatInit()
	log := d.Logger

	return func(sp *appcore.Spawner) {
		mon := status.NewMonitor(log)
		_ = sp.Spawn("status", stack, func(ctx context.Context) {
			mon.Run(ctx, b.NewConnection("status"))
		})

		led := heartbeat.NewService(d.Board.LED, initial, blink, log)
		_ = sp.Spawn("heartbeat", stack, func(ctx context.Context) {
			led.Run(ctx, b.NewConnection("heartbeat"))
		})

		hs := health.NewService(s.Health)
		_ = sp.Spawn("health", stack, func(ctx context.Context) {
			hs.Run(ctx, b.NewConnection("health-svc"))
		})

		for _, t := range d.Tasks {
			size := t.StackBytes
			if size <= 0 {
				size = stack
			}
			_ = sp.Spawn(t.Name, size, func(ctx context.Context) { t.Run(ctx, s) })
		}
	}
}

// Run starts the network supervisor and feeds the watchdog until ctx ends.
// On the device it never returns.
func (s *Supervisor) Run(ctx context.Context) error {
	netDone := make(chan error, 1)
	go func() { netDone <- s.Net.Run(ctx) }()

	feed := time.NewTicker(s.profile.FeedInterval())
	defer feed.Stop()

	lastHealthy := true
	for {
		select {
		case <-ctx.Done():
			err := <-netDone
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return err
		case <-feed.C:
			s.Watchdog.Feed()
			s.conn.Publish(s.conn.NewMessage(TopicWatchdog, s.Watchdog.Stats(), true))
			if ok := s.Health.IsSystemHealthy(); ok != lastHealthy {
				lastHealthy = ok
				s.log.Info("system:health", slog.Bool("healthy", ok))
			}
		}
	}
}

// Heartbeat is a convenience for board tasks.
func (s *Supervisor) Heartbeat(sub types.Subsystem) { s.Health.RecordHeartbeat(sub) }
