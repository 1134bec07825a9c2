// Package status carries the single fixed-length status line written by the
// supervision core and read by the display renderer.
package status

import (
	"context"
	"log/slog"

	"devicecode-water/bus"
	"devicecode-water/types"
	"devicecode-water/x/strx"
	"devicecode-water/x/timex"
)

// Len is the capacity of the status line in bytes.
const Len = 32

var TopicText = bus.T("status", "text")

// Writer is what supervisors need from the status line.
type Writer interface {
	Update(text string)
}

// Channel publishes status updates as retained messages so a late reader
// always sees the current line.
type Channel struct {
	conn *bus.Connection
}

func NewChannel(conn *bus.Connection) *Channel { return &Channel{conn: conn} }

// Update replaces the status line. Text longer than Len is cut on a rune
// boundary.
func (c *Channel) Update(text string) {
	c.conn.Publish(c.conn.NewMessage(TopicText, types.StatusText{
		Text: Truncate(text, Len),
		TS:   timex.NowMs(),
	}, true))
}

// Truncate returns at most n bytes of s without splitting a UTF-8 sequence.
func Truncate(s string, n int) string { return strx.TruncateBytes(s, n) }

// Monitor logs every status update. It stands in for the display on boards
// without one and is handy on the debug UART either way.
type Monitor struct {
	log *slog.Logger
}

func NewMonitor(log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{log: log}
}

// Run consumes status updates until ctx ends.
func (m *Monitor) Run(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(TopicText)
	defer conn.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			if st, ok := msg.Payload.(types.StatusText); ok {
				m.log.Info("status", slog.String("text", st.Text))
			}
		}
	}
}

// Discard drops every update.
type Discard struct{}

func (Discard) Update(string) {}
