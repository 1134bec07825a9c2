package status

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"devicecode-water/bus"
	"devicecode-water/types"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"WiFi init", 32, "WiFi init"},
		{"abcdef", 3, "abc"},
		{"añb", 2, "a"}, // ñ is two bytes; never split it
		{"", 4, ""},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.n); got != c.want {
			t.Fatalf("Truncate(%q,%d) = %q, want %q", c.in, c.n, got, c.want)
		}
	}
}

func TestChannel_RetainsLatestBounded(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("status")
	ch := NewChannel(conn)

	ch.Update("Starting WiFi")
	ch.Update("WiFi fail: " + strings.Repeat("x", 64))

	sub := conn.Subscribe(TopicText)
	select {
	case msg := <-sub.Channel():
		st := msg.Payload.(types.StatusText)
		if len(st.Text) != Len || !strings.HasPrefix(st.Text, "WiFi fail: ") {
			t.Fatalf("status = %q (len %d)", st.Text, len(st.Text))
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no retained status")
	}
}

func TestMonitor_LogsUpdates(t *testing.T) {
	var buf safeBuffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	b := bus.NewBus(4)
	conn := b.NewConnection("ui")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewMonitor(log).Run(ctx, conn)
		close(done)
	}()

	ch := NewChannel(b.NewConnection("core"))
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(buf.String(), "Waiting for IP") && time.Now().Before(deadline) {
		ch.Update("Waiting for IP")
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	if !strings.Contains(buf.String(), "Waiting for IP") {
		t.Fatalf("log missing status line: %q", buf.String())
	}
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
