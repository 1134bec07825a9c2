package health

import (
	"sync"
	"testing"
	"time"

	"devicecode-water/types"
	"devicecode-water/x/timex"
)

var testTimeouts = [types.NumSubsystems]time.Duration{
	types.Wifi:    120 * time.Second,
	types.Mqtt:    240 * time.Second,
	types.Display: 30 * time.Second,
	types.Adc:     60 * time.Second,
}

type eventLog struct {
	mu  sync.Mutex
	evs []types.HealthEvent
}

func (l *eventLog) HealthChanged(ev types.HealthEvent) {
	l.mu.Lock()
	l.evs = append(l.evs, ev)
	l.mu.Unlock()
}

func (l *eventLog) events() []types.HealthEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.HealthEvent(nil), l.evs...)
}

func newTestMonitor(start uint32) (*Monitor, *timex.FakeClock, *eventLog) {
	clk := timex.NewFakeClock(start)
	log := &eventLog{}
	m := New(Config{Clock: clk, Timeouts: testTimeouts, Observer: log})
	return m, clk, log
}

func TestNeverReported_IsHealthy(t *testing.T) {
	m, clk, log := newTestMonitor(0)
	clk.Advance(1000 * time.Hour)
	for _, s := range types.AllSubsystems {
		if !m.IsSubsystemHealthy(s) {
			t.Fatalf("%s should be healthy before its first heartbeat", s)
		}
	}
	if !m.IsSystemHealthy() {
		t.Fatal("system should be healthy at cold start")
	}
	if n := len(log.events()); n != 0 {
		t.Fatalf("no events expected, got %d", n)
	}
}

func TestHealthyThroughoutTimeoutWindow(t *testing.T) {
	for _, s := range types.AllSubsystems {
		m, clk, _ := newTestMonitor(12345)
		m.RecordHeartbeat(s)
		to := m.Timeout(s)

		for _, off := range []time.Duration{0, time.Millisecond, to / 2, to - time.Millisecond} {
			clk.Set(12345 + timex.DurationMs(off))
			if !m.IsSubsystemHealthy(s) {
				t.Fatalf("%s unhealthy at +%v (timeout %v)", s, off, to)
			}
		}
		clk.Set(12345 + timex.DurationMs(to))
		if m.IsSubsystemHealthy(s) {
			t.Fatalf("%s still healthy at exactly +timeout", s)
		}
	}
}

func TestAdcGoesStale_ExactlyOneEvent(t *testing.T) {
	m, clk, log := newTestMonitor(0)
	m.MarkAllAlive()

	clk.Set(timex.DurationMs(m.Timeout(types.Adc)) + 1)

	if m.IsSubsystemHealthy(types.Adc) {
		t.Fatal("ADC should be unhealthy after its timeout")
	}
	// Repeated queries in the unchanged state must not re-fire.
	for i := 0; i < 5; i++ {
		m.IsSubsystemHealthy(types.Adc)
		m.IsSystemHealthy()
	}

	var adc []types.HealthEvent
	for _, ev := range log.events() {
		if ev.Subsystem == types.Adc {
			adc = append(adc, ev)
		}
	}
	if len(adc) != 1 {
		t.Fatalf("expected exactly one ADC event, got %d: %+v", len(adc), adc)
	}
	if adc[0].Healthy || adc[0].SilentMs != 60001 {
		t.Fatalf("unexpected event %+v", adc[0])
	}
	// Display (30s) is also stale by now, the others are not.
	st := m.Status()
	if st.Healthy[types.Wifi] != true || st.Healthy[types.Mqtt] != true || st.Healthy[types.Display] != false {
		t.Fatalf("snapshot = %+v", st)
	}
	if st.System {
		t.Fatal("system cannot be healthy with ADC down")
	}
}

func TestRecovery_EmitsSingleEvent(t *testing.T) {
	m, clk, log := newTestMonitor(0)
	m.RecordHeartbeat(types.Display)
	clk.Advance(31 * time.Second)
	if m.IsSubsystemHealthy(types.Display) {
		t.Fatal("display should be stale")
	}

	m.RecordHeartbeat(types.Display)
	m.RecordHeartbeat(types.Display)
	if !m.IsSubsystemHealthy(types.Display) {
		t.Fatal("display should recover after a heartbeat")
	}

	evs := log.events()
	if len(evs) != 2 || evs[0].Healthy || !evs[1].Healthy {
		t.Fatalf("want [down, up], got %+v", evs)
	}
	if evs[1].SilentMs != 31000 {
		t.Fatalf("recovery silent_ms = %d, want 31000", evs[1].SilentMs)
	}
}

func TestWraparound_NotInstantlyStale(t *testing.T) {
	start := ^uint32(0) - 500 // 500ms before the counter wraps
	m, clk, log := newTestMonitor(start)
	m.RecordHeartbeat(types.Adc)

	clk.Advance(10 * time.Second) // counter now past zero
	if clk.NowMs32() > start {
		t.Fatal("test clock should have wrapped")
	}
	if !m.IsSubsystemHealthy(types.Adc) {
		t.Fatal("heartbeat before the wrap must still count")
	}
	clk.Advance(60 * time.Second)
	if m.IsSubsystemHealthy(types.Adc) {
		t.Fatal("ADC should time out normally across the wrap")
	}
	if n := len(log.events()); n != 1 {
		t.Fatalf("events = %d, want 1", n)
	}
}

func TestHeartbeatAtCounterZero_IsNotSentinel(t *testing.T) {
	m, clk, _ := newTestMonitor(0)
	m.RecordHeartbeat(types.Adc)
	clk.Advance(61 * time.Second)
	if m.IsSubsystemHealthy(types.Adc) {
		t.Fatal("a heartbeat at t=0 must still be tracked")
	}
}

func TestInvalidSubsystem(t *testing.T) {
	m, _, _ := newTestMonitor(0)
	m.RecordHeartbeat(types.Subsystem(9))
	if m.IsSubsystemHealthy(types.Subsystem(9)) {
		t.Fatal("unknown subsystems are never healthy")
	}
}

func TestConcurrentHeartbeatsAndQueries(t *testing.T) {
	m, clk, _ := newTestMonitor(0)
	var wg sync.WaitGroup
	for _, s := range types.AllSubsystems {
		s := s
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				m.RecordHeartbeat(s)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				m.IsSubsystemHealthy(s)
				clk.Advance(time.Millisecond)
			}
		}()
	}
	wg.Wait()
	if !m.IsSystemHealthy() {
		t.Fatal("all subsystems heartbeated recently")
	}
}
