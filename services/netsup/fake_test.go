package netsup

import (
	"errors"
	"net/netip"
	"sync"
	"time"

	"devicecode-water/types"
)

// fakeRadio scripts connect outcomes and records every control call.
type fakeRadio struct {
	mu       sync.Mutex
	started  bool
	startErr error
	scanErr  error
	aps      []types.AccessPoint
	results  []error // consumed per Connect; nil => success
	connects int
	linkUp   bool
	addr     netip.Addr
	notify   func(types.RadioEvent)
	calls    []string
}

func (r *fakeRadio) record(c string) {
	r.calls = append(r.calls, c)
}

func (r *fakeRadio) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("start")
	if r.startErr != nil {
		err := r.startErr
		r.startErr = nil
		return err
	}
	r.started = true
	return nil
}

func (r *fakeRadio) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *fakeRadio) Scan() ([]types.AccessPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("scan")
	return r.aps, r.scanErr
}

func (r *fakeRadio) Connect(types.Credentials) error {
	r.mu.Lock()
	r.record("connect")
	r.connects++
	var err error
	if len(r.results) > 0 {
		err = r.results[0]
		r.results = r.results[1:]
	}
	if err == nil {
		r.linkUp = true
	}
	r.mu.Unlock()
	return err
}

func (r *fakeRadio) Notify(fn func(types.RadioEvent)) {
	r.mu.Lock()
	r.notify = fn
	r.mu.Unlock()
}

func (r *fakeRadio) LinkUp() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.linkUp
}

func (r *fakeRadio) Addr() (netip.Addr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.addr.IsValid() {
		return netip.Addr{}, errors.New("no lease")
	}
	return r.addr, nil
}

// drop simulates an asynchronous disconnect.
func (r *fakeRadio) drop() {
	r.mu.Lock()
	r.linkUp = false
	fn := r.notify
	r.mu.Unlock()
	if fn != nil {
		fn(types.RadioDown)
	}
}

func (r *fakeRadio) connectCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects
}

func (r *fakeRadio) callLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type rateLog struct {
	mu    sync.Mutex
	rates []time.Duration
}

func (l *rateLog) Set(d time.Duration) {
	l.mu.Lock()
	l.rates = append(l.rates, d)
	l.mu.Unlock()
}

func (l *rateLog) last() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.rates) == 0 {
		return 0
	}
	return l.rates[len(l.rates)-1]
}

type statusLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *statusLog) Update(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
}

func (l *statusLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

type beatLog struct {
	mu sync.Mutex
	n  int
}

func (b *beatLog) RecordHeartbeat(s types.Subsystem) {
	if s != types.Wifi {
		return
	}
	b.mu.Lock()
	b.n++
	b.mu.Unlock()
}

func (b *beatLog) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}
