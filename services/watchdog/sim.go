package watchdog

import (
	"sync"
	"time"
)

// SimTimer is a software model of a watchdog peripheral. Time only moves when
// Advance is called, so arming and feeding can be checked against a fake
// clock. Reaching the window while started counts as a device reset.
type SimTimer struct {
	mu      sync.Mutex
	limit   time.Duration // longest window the model can count; 0 is unbounded
	timeout time.Duration
	started bool
	elapsed time.Duration
	updates int
	resets  int
	onReset func()

	// Fail* make the next matching call return the error.
	FailConfigure error
	FailStart     error
}

func NewSimTimer() *SimTimer { return &SimTimer{} }

// Limit caps the window Configure will arm, like the RP2040's 8.3 s counter.
func (t *SimTimer) Limit(d time.Duration) {
	t.mu.Lock()
	t.limit = d
	t.mu.Unlock()
}

// OnReset installs a hook run (outside the lock) whenever the window expires.
func (t *SimTimer) OnReset(fn func()) {
	t.mu.Lock()
	t.onReset = fn
	t.mu.Unlock()
}

func (t *SimTimer) Configure(timeout time.Duration) (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.FailConfigure; err != nil {
		t.FailConfigure = nil
		return 0, err
	}
	if t.limit > 0 && timeout > t.limit {
		timeout = t.limit
	}
	t.timeout = timeout
	t.elapsed = 0
	return timeout, nil
}

func (t *SimTimer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.FailStart; err != nil {
		t.FailStart = nil
		return err
	}
	t.started = true
	t.elapsed = 0
	return nil
}

func (t *SimTimer) Update() {
	t.mu.Lock()
	t.elapsed = 0
	t.updates++
	t.mu.Unlock()
}

func (t *SimTimer) Stop() error {
	t.mu.Lock()
	t.started = false
	t.mu.Unlock()
	return nil
}

// Advance moves simulated time. It reports whether the device reset.
func (t *SimTimer) Advance(d time.Duration) bool {
	t.mu.Lock()
	if !t.started || t.timeout <= 0 {
		t.mu.Unlock()
		return false
	}
	t.elapsed += d
	if t.elapsed < t.timeout {
		t.mu.Unlock()
		return false
	}
	// A reset reboots the chip; the watchdog comes back disarmed.
	t.resets++
	t.started = false
	t.elapsed = 0
	hook := t.onReset
	t.mu.Unlock()
	if hook != nil {
		hook()
	}
	return true
}

func (t *SimTimer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

func (t *SimTimer) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

func (t *SimTimer) Updates() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updates
}

func (t *SimTimer) Resets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resets
}

func (t *SimTimer) Timeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeout
}
