package appcore

import (
	"sync/atomic"

	"devicecode-water/errcode"
)

// Core starts an entry function on the second execution core.
type Core interface {
	Launch(entry func()) error
}

// CoreFunc adapts a function to Core.
type CoreFunc func(entry func()) error

func (f CoreFunc) Launch(entry func()) error { return f(entry) }

// CoreToken is the exclusive right to start the second core. It is consumed
// by the first Start; the platform creates exactly one per boot.
type CoreToken struct {
	core Core
	used atomic.Bool
}

func NewCoreToken(core Core) *CoreToken { return &CoreToken{core: core} }

func (t *CoreToken) take() error {
	if !t.used.CompareAndSwap(false, true) {
		return errcode.AlreadyStarted
	}
	return nil
}
