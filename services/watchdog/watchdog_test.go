package watchdog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"devicecode-water/errcode"
)

func armed(t *testing.T) (*Supervisor, *SimTimer) {
	t.Helper()
	sim := NewSimTimer()
	s, err := Init(NewHardware(sim), 60*time.Second, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s, sim
}

func TestInit_ArmsOnce(t *testing.T) {
	sim := NewSimTimer()
	hw := NewHardware(sim)

	s, err := Init(hw, 60*time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sim.Started() || sim.Timeout() != 60*time.Second {
		t.Fatalf("timer not armed: started=%v timeout=%v", sim.Started(), sim.Timeout())
	}
	if st := s.Stats(); !st.Enabled || st.Feeds != 0 || st.Timeout != 60*time.Second {
		t.Fatalf("stats = %+v", st)
	}

	if _, err := Init(hw, 60*time.Second, nil); !errors.Is(err, errcode.AlreadyInitialized) {
		t.Fatalf("second Init = %v, want already_initialized", err)
	}
}

func TestInit_ReportsArmedWindow(t *testing.T) {
	sim := NewSimTimer()
	sim.Limit(8300 * time.Millisecond)
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	s, err := Init(NewHardware(sim), 60*time.Second, log)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Stats().Timeout; got != 8300*time.Millisecond {
		t.Fatalf("stats timeout = %v, want the clamped window", got)
	}
	out := buf.String()
	if !strings.Contains(out, "watchdog:clamped") || !strings.Contains(out, "timeout=8.3s") {
		t.Fatalf("log = %q", out)
	}

	// Well inside the window nothing trips; past it the model resets.
	if sim.Advance(8 * time.Second) {
		t.Fatal("reset before the armed window")
	}
	if !sim.Advance(time.Second) {
		t.Fatal("no reset after the armed window")
	}
}

func TestInit_HardwareFailure(t *testing.T) {
	sim := NewSimTimer()
	sim.FailStart = errors.New("stuck")
	_, err := Init(NewHardware(sim), time.Second, nil)
	if errcode.Of(err) != errcode.HardwareError {
		t.Fatalf("err = %v, want hardware_error", err)
	}
	if _, err := Init(nil, time.Second, nil); err != errcode.InvalidParams {
		t.Fatalf("nil hardware = %v", err)
	}
}

func TestFeed_ResetsElapsedAndCounts(t *testing.T) {
	s, sim := armed(t)

	sim.Advance(59 * time.Second)
	if sim.Elapsed() != 59*time.Second {
		t.Fatalf("elapsed = %v", sim.Elapsed())
	}
	s.Feed()
	if sim.Elapsed() != 0 {
		t.Fatalf("feed must zero the countdown, elapsed = %v", sim.Elapsed())
	}
	for i := 0; i < 30; i++ {
		if sim.Advance(2 * time.Second) {
			t.Fatal("device reset despite regular feeding")
		}
		s.Feed()
	}
	if got := s.Stats().Feeds; got != 31 {
		t.Fatalf("feeds = %d, want 31", got)
	}
}

func TestWithheldFeed_ResetsDevice(t *testing.T) {
	_, sim := armed(t)

	reset := false
	sim.OnReset(func() { reset = true })

	if sim.Advance(59*time.Second + 999*time.Millisecond) {
		t.Fatal("reset before the window elapsed")
	}
	if !sim.Advance(time.Millisecond) || !reset {
		t.Fatal("expected a simulated reset at the timeout")
	}
	if sim.Resets() != 1 {
		t.Fatalf("resets = %d", sim.Resets())
	}
}

func TestDisableEnable(t *testing.T) {
	s, sim := armed(t)

	s.Disable()
	if s.Enabled() || sim.Started() {
		t.Fatal("disable must stop the timer")
	}
	s.Feed() // ignored while disabled
	if s.Stats().Feeds != 0 || sim.Updates() != 0 {
		t.Fatal("feed while disabled must not touch the timer")
	}
	if sim.Advance(10 * time.Minute) {
		t.Fatal("a disabled watchdog cannot reset the device")
	}

	s.Enable()
	if !s.Enabled() || !sim.Started() || sim.Elapsed() != 0 {
		t.Fatal("enable must re-arm from a full window")
	}
	s.Feed()
	if s.Stats().Feeds != 1 {
		t.Fatalf("feeds = %d", s.Stats().Feeds)
	}
}

func TestWithDisabled_AlwaysReenables(t *testing.T) {
	s, _ := armed(t)
	func() {
		defer func() { _ = recover() }()
		s.WithDisabled(func() {
			if s.Enabled() {
				t.Fatal("should be disabled inside the window")
			}
			panic("flash erase failed")
		})
	}()
	if !s.Enabled() {
		t.Fatal("watchdog left disabled after a panicking operation")
	}
}
