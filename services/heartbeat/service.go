// Package heartbeat blinks the liveness LED at a rate chosen by the
// supervision core.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"devicecode-water/bus"
	"devicecode-water/types"
)

var TopicInterval = bus.T("led", "heartbeat", "interval")

// Pin is the LED output.
type Pin interface {
	High()
	Low()
}

// Rate publishes blink intervals for the heartbeat task.
type Rate struct {
	conn *bus.Connection
}

func NewRate(conn *bus.Connection) *Rate { return &Rate{conn: conn} }

// Set requests a new blink period. The value is retained so the LED task
// picks it up even if it starts later.
func (r *Rate) Set(d time.Duration) {
	r.conn.Publish(r.conn.NewMessage(TopicInterval, types.HeartbeatRate{Interval: d}, true))
}

type Service struct {
	pin      Pin
	interval time.Duration
	blink    time.Duration
	log      *slog.Logger
}

// NewService blinks pin for blink once per interval until told otherwise.
func NewService(pin Pin, initial, blink time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{pin: pin, interval: initial, blink: blink, log: log}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(TopicInterval)
	defer conn.Unsubscribe(sub)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and rate changes
	for {
		select {
		case <-ctx.Done():
			s.pin.Low()
			return
		case <-tick.C:
			s.pin.High()
			select {
			case <-ctx.Done():
				s.pin.Low()
				return
			case <-time.After(s.blink):
			}
			s.pin.Low()
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			r, ok := msg.Payload.(types.HeartbeatRate)
			if !ok || r.Interval <= 0 || r.Interval == s.interval {
				continue
			}
			s.interval = r.Interval
			tick.Reset(r.Interval)
			s.log.Debug("heartbeat:interval", slog.Duration("interval", r.Interval))
		}
	}
}

// Run blinks until ctx ends. Suitable as a task body.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	s.serviceLoop(ctx, conn)
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
