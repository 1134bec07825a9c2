package netsup

import (
	"net/netip"

	"devicecode-water/types"
)

// Radio is the WiFi station interface the supervisor drives. Control-plane
// calls (Start, Scan, Connect) come only from the supervisor task; LinkUp and
// Addr may be polled from anywhere.
type Radio interface {
	Start() error
	Started() bool
	Scan() ([]types.AccessPoint, error)
	Connect(creds types.Credentials) error
	// Notify registers the callback for asynchronous link events. The callback
	// may run in interrupt-like context and must not block.
	Notify(fn func(types.RadioEvent))
	LinkUp() bool
	Addr() (netip.Addr, error)
}
