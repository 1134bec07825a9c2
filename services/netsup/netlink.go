package netsup

import (
	"net/netip"
	"sync"

	"tinygo.org/x/drivers/netlink"

	"devicecode-water/errcode"
	"devicecode-water/types"
)

// Linker is the part of netlink.Netlinker the supervisor drives. Any
// tinygo driver that implements netlink.Netlinker satisfies it.
type Linker interface {
	NetConnect(params *netlink.ConnectParams) error
	NetDisconnect()
	NetNotify(cb func(netlink.Event))
}

// addresser is implemented by netdev-capable drivers.
type addresser interface {
	Addr() (netip.Addr, error)
}

// ConnectRetries is the driver-level attempt count per Connect. The
// supervisor owns retrying, so every cycle is exactly one attempt.
const ConnectRetries = 1

// NetlinkRadio adapts a tinygo netlink driver to Radio. Netlink drivers do
// their own chip bring-up inside NetConnect and expose no scan, so Start only
// wires notifications and Scan reports Unsupported.
//
// The driver's own link watchdog stays off (WatchdogTimeout zero) because it
// reconnects behind the supervisor's back. Without it the driver never
// reports EventNetDown for a lost access point, so LinkUp asks the chip for
// its address instead of trusting events alone.
type NetlinkRadio struct {
	link Linker

	mu        sync.Mutex
	started   bool
	up        bool
	joined    bool // driver holds an association we made
	resetting bool
	notify    func(types.RadioEvent)
}

func NewNetlinkRadio(link Linker) *NetlinkRadio { return &NetlinkRadio{link: link} }

func (r *NetlinkRadio) Start() error {
	if r.link == nil {
		return errcode.Wrap(errcode.HardwareError, "wifi:start", errcode.InvalidParams)
	}
	r.link.NetNotify(r.onEvent)
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	return nil
}

func (r *NetlinkRadio) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *NetlinkRadio) Scan() ([]types.AccessPoint, error) {
	return nil, errcode.Unsupported
}

// Connect makes one association attempt. A join left over from a previous
// cycle is torn down first; drivers refuse NetConnect with ErrConnected while
// they still consider themselves joined, even after the access point is gone.
func (r *NetlinkRadio) Connect(creds types.Credentials) error {
	r.mu.Lock()
	stale := r.joined
	r.mu.Unlock()
	if stale {
		r.reset()
	}

	err := r.link.NetConnect(&netlink.ConnectParams{
		Ssid:       creds.SSID,
		Passphrase: creds.Passphrase,
		Retries:    ConnectRetries,
	})
	if err == netlink.ErrConnected {
		// Joined outside this adapter. Drop it so the next cycle starts clean.
		r.reset()
	}
	if err != nil {
		return errcode.Wrap(errcode.TransientNetwork, "wifi:connect", err)
	}
	r.mu.Lock()
	r.up = true
	r.joined = true
	r.mu.Unlock()
	return nil
}

// reset disconnects without reporting RadioDown; the supervisor already
// treats the link as down.
func (r *NetlinkRadio) reset() {
	r.mu.Lock()
	r.resetting = true
	r.mu.Unlock()
	r.link.NetDisconnect()
	r.mu.Lock()
	r.resetting = false
	r.up = false
	r.joined = false
	r.mu.Unlock()
}

func (r *NetlinkRadio) Notify(fn func(types.RadioEvent)) {
	r.mu.Lock()
	r.notify = fn
	r.mu.Unlock()
}

// LinkUp reports the association. Drivers that expose an address are asked
// for it on every call; a zero address means the chip lost the access point.
func (r *NetlinkRadio) LinkUp() bool {
	r.mu.Lock()
	up := r.up
	r.mu.Unlock()
	if !up {
		return false
	}
	a, ok := r.link.(addresser)
	if !ok {
		return true
	}
	addr, err := a.Addr()
	return err == nil && addr.IsValid() && !addr.IsUnspecified()
}

func (r *NetlinkRadio) Addr() (netip.Addr, error) {
	if a, ok := r.link.(addresser); ok {
		return a.Addr()
	}
	return netip.Addr{}, errcode.Unsupported
}

// Disconnect drops the association. Not used by the supervisor loop, which
// never gives up the link voluntarily, but handy for board tests.
func (r *NetlinkRadio) Disconnect() {
	r.link.NetDisconnect()
	r.mu.Lock()
	r.up = false
	r.joined = false
	r.mu.Unlock()
}

func (r *NetlinkRadio) onEvent(ev netlink.Event) {
	r.mu.Lock()
	quiet := r.resetting
	r.mu.Unlock()
	if quiet {
		return
	}
	switch ev {
	case netlink.EventNetUp:
		r.setUp(true)
		r.emit(types.RadioUp)
	case netlink.EventNetDown:
		r.setUp(false)
		r.emit(types.RadioDown)
	}
}

func (r *NetlinkRadio) setUp(v bool) {
	r.mu.Lock()
	r.up = v
	r.mu.Unlock()
}

func (r *NetlinkRadio) emit(ev types.RadioEvent) {
	r.mu.Lock()
	fn := r.notify
	r.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
