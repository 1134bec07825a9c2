package appcore

import (
	"sync"
	"sync/atomic"

	"devicecode-water/errcode"
)

// DefaultArenaBytes is the second core's task memory budget: six 2 KiB stacks.
const DefaultArenaBytes = 12 * 1024

// Arena is the fixed task-memory region handed to the second core. It can be
// handed over once per boot; task stacks are carved from it in order.
type Arena struct {
	size  int
	taken atomic.Bool

	mu   sync.Mutex
	used int
}

// NewArena returns an arena of size bytes, or DefaultArenaBytes if size <= 0.
func NewArena(size int) *Arena {
	if size <= 0 {
		size = DefaultArenaBytes
	}
	return &Arena{size: size}
}

func (a *Arena) Size() int { return a.size }

func (a *Arena) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

func (a *Arena) claim() error {
	if !a.taken.CompareAndSwap(false, true) {
		return errcode.ArenaInUse
	}
	return nil
}

// reserve charges n bytes or fails without side effects.
func (a *Arena) reserve(n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n <= 0 || a.used+n > a.size {
		return errcode.SpawnFailed
	}
	a.used += n
	return nil
}
