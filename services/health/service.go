package health

import (
	"context"

	"devicecode-water/bus"
	"devicecode-water/types"
)

var (
	topicHealth       = bus.T("health")
	topicStatusGet    = bus.T("health", "status", "get")
	topicStatusLatest = bus.T("health", "status")
)

// EventTopic is where flips for s are published.
func EventTopic(s types.Subsystem) bus.Topic { return topicHealth.Append(s.String()) }

// BusObserver publishes every flip on health/<subsystem> and refreshes the
// retained per-subsystem verdict on health/<subsystem>/healthy.
type BusObserver struct {
	Conn *bus.Connection
}

func (o BusObserver) HealthChanged(ev types.HealthEvent) {
	t := EventTopic(ev.Subsystem)
	o.Conn.Publish(o.Conn.NewMessage(t, ev, false))
	o.Conn.Publish(o.Conn.NewMessage(t.Append("healthy"), ev.Healthy, true))
}

// Service answers health/status/get requests with a fresh snapshot.
type Service struct {
	mon *Monitor
}

func NewService(mon *Monitor) *Service { return &Service{mon: mon} }

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(topicStatusGet)
	defer conn.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			snap := s.mon.Status()
			conn.Publish(conn.NewMessage(topicStatusLatest, snap, true))
			conn.Reply(msg, snap, false)
		}
	}
}

// Run answers queries until ctx ends. Suitable as a task body.
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	s.serviceLoop(ctx, conn)
}

// Start launches the query responder.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

// Query asks a running Service for a snapshot over the bus.
func Query(ctx context.Context, conn *bus.Connection) (types.HealthSnapshot, error) {
	reply, err := conn.RequestWait(ctx, conn.NewMessage(topicStatusGet, nil, false))
	if err != nil {
		return types.HealthSnapshot{}, err
	}
	snap, _ := reply.Payload.(types.HealthSnapshot)
	return snap, nil
}
