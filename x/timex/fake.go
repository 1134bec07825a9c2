package timex

import (
	"context"
	"sync"
	"time"
)

// FakeClock is a manually advanced Clock, Sleeper and TickSource for host
// tests. Sleep advances the clock by d and records the request instead of
// blocking. Tickers fire only when the clock moves past their period.
type FakeClock struct {
	mu      sync.Mutex
	now     uint32
	sleeps  []time.Duration
	hook    func(d time.Duration)
	tickers []*fakeTicker
}

func NewFakeClock(startMs uint32) *FakeClock { return &FakeClock{now: startMs} }

func (c *FakeClock) NowMs32() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set jumps the counter to ms.
func (c *FakeClock) Set(ms uint32) {
	c.mu.Lock()
	c.now = ms
	c.mu.Unlock()
}

// Advance moves the counter forward by d, wrapping like the hardware does.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.step(DurationMs(d))
	c.mu.Unlock()
}

// OnSleep installs a callback run after every Sleep.
func (c *FakeClock) OnSleep(fn func(d time.Duration)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.step(DurationMs(d))
	c.sleeps = append(c.sleeps, d)
	hook := c.hook
	c.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

// Sleeps returns a copy of every requested sleep, in order.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// step moves the counter by ms and fires due tickers. Caller holds mu.
func (c *FakeClock) step(ms uint32) {
	c.now += ms
	for _, t := range c.tickers {
		t.left -= int64(ms)
		if t.left > 0 {
			continue
		}
		t.left = t.period
		select {
		case t.c <- time.UnixMilli(int64(c.now)):
		default:
		}
	}
}

func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	period := int64(DurationMs(d))
	if period <= 0 {
		period = 1
	}
	t := &fakeTicker{clock: c, c: make(chan time.Time, 1), period: period, left: period}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	return t
}

// Tickers is the number of live tickers.
func (c *FakeClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type fakeTicker struct {
	clock  *FakeClock
	c      chan time.Time
	period int64
	left   int64
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }

func (t *fakeTicker) Stop() {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, x := range c.tickers {
		if x == t {
			c.tickers = append(c.tickers[:i], c.tickers[i+1:]...)
			return
		}
	}
}
