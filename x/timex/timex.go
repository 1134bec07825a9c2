package timex

import (
	"context"
	"time"

	"devicecode-water/x/mathx"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// -----------------------------------------------------------------------------
// Monotonic wrapping millisecond clock
// -----------------------------------------------------------------------------

// Clock yields a monotonic millisecond counter that wraps at 2^32
// (about 49.7 days).
type Clock interface {
	NowMs32() uint32
}

// SinceMs is the wraparound-safe elapsed time from then to now.
func SinceMs(now, then uint32) uint32 { return now - then }

// DurationMs converts d to whole milliseconds, saturating at the counter range.
func DurationMs(d time.Duration) uint32 {
	return uint32(mathx.Clamp(d.Milliseconds(), 0, int64(^uint32(0))))
}

type monoClock struct{ start time.Time }

// Monotonic returns a Clock counting from its creation.
func Monotonic() Clock { return monoClock{start: time.Now()} }

func (c monoClock) NowMs32() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

// -----------------------------------------------------------------------------
// Suspension points
// -----------------------------------------------------------------------------

// Sleeper suspends the calling task. It returns ctx.Err() if ctx ends first.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

// RealSleeper sleeps on the wall clock.
func RealSleeper() Sleeper { return realSleeper{} }

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Ticker delivers periodic wake-ups. Like time.Ticker it drops ticks the
// receiver is too slow to take.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickSource makes Tickers.
type TickSource interface {
	NewTicker(d time.Duration) Ticker
}

type realTicks struct{}

// RealTicks ticks on the wall clock.
func RealTicks() TickSource { return realTicks{} }

func (realTicks) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
