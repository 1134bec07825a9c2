//go:build !(rp2040 || rp2350)

package platform

import (
	"net/netip"
	"os"
	"sync"

	"tinygo.org/x/drivers/netlink"

	"devicecode-water/services/appcore"
	"devicecode-water/services/netsup"
	"devicecode-water/services/watchdog"
)

// Host is the board returned by Open on non-MCU builds, with its fakes
// exposed for tests.
type Host struct {
	Board
	Timer *watchdog.SimTimer
	Pin   *HostLED
	Link  *SimLink
}

// Open returns a simulated board. The radio joins on the first attempt unless
// the caller scripts Link.Fail.
func Open() (*Host, error) {
	h := &Host{
		Timer: watchdog.NewSimTimer(),
		Pin:   &HostLED{},
		Link:  &SimLink{Lease: netip.MustParseAddr("192.168.4.20")},
	}
	h.Board = Board{
		Name:     "host",
		Watchdog: watchdog.NewHardware(h.Timer),
		LED:      h.Pin,
		Radio:    netsup.NewNetlinkRadio(h.Link),
		Core:     appcore.NewCoreToken(appcore.SecondCore()),
		LogSink:  os.Stderr,
	}
	return h, nil
}

// HostLED counts edges instead of driving a pin.
type HostLED struct {
	mu    sync.Mutex
	on    bool
	rises int
}

func (l *HostLED) High() {
	l.mu.Lock()
	if !l.on {
		l.rises++
	}
	l.on = true
	l.mu.Unlock()
}

func (l *HostLED) Low() {
	l.mu.Lock()
	l.on = false
	l.mu.Unlock()
}

// Blinks is the number of low-to-high transitions so far.
func (l *HostLED) Blinks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rises
}

// SimLink is an in-memory netlink driver that keeps the wifinina driver's
// contract: NetConnect runs params.Retries attempts (zero retries forever),
// refuses with ErrConnected while joined, and only NetDisconnect reports
// EventNetDown. A lost access point shows up as a 0.0.0.0 address.
type SimLink struct {
	mu sync.Mutex

	// Fail is consumed one entry per driver attempt. ErrConnectFailed and
	// ErrConnectTimeout are retried like the driver does; anything else is
	// returned at once.
	Fail  []error
	Lease netip.Addr

	joined bool // driver-side connected flag
	assoc  bool // chip is associated with the access point
	joins  int
	tries  int
	cb     func(netlink.Event)
}

func (l *SimLink) NetConnect(p *netlink.ConnectParams) error {
	l.mu.Lock()
	l.joins++
	if l.joined {
		l.mu.Unlock()
		return netlink.ErrConnected
	}
	if p.Ssid == "" {
		l.mu.Unlock()
		return netlink.ErrMissingSSID
	}
	for i := 0; p.Retries == 0 || i < p.Retries; i++ {
		l.tries++
		if len(l.Fail) == 0 {
			l.joined, l.assoc = true, true
			cb := l.cb
			l.mu.Unlock()
			if cb != nil {
				cb(netlink.EventNetUp)
			}
			return nil
		}
		err := l.Fail[0]
		l.Fail = l.Fail[1:]
		if err != netlink.ErrConnectFailed && err != netlink.ErrConnectTimeout {
			l.mu.Unlock()
			return err
		}
	}
	l.mu.Unlock()
	return netlink.ErrConnectFailed
}

func (l *SimLink) NetDisconnect() {
	l.mu.Lock()
	if !l.joined {
		l.mu.Unlock()
		return
	}
	l.joined, l.assoc = false, false
	cb := l.cb
	l.mu.Unlock()
	if cb != nil {
		cb(netlink.EventNetDown)
	}
}

func (l *SimLink) NetNotify(cb func(netlink.Event)) {
	l.mu.Lock()
	l.cb = cb
	l.mu.Unlock()
}

func (l *SimLink) Addr() (netip.Addr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.assoc {
		return netip.IPv4Unspecified(), nil
	}
	return l.Lease, nil
}

// Drop simulates the access point going away. Like the real driver with its
// link watchdog off, no event is raised.
func (l *SimLink) Drop() {
	l.mu.Lock()
	l.assoc = false
	l.mu.Unlock()
}

// Joins counts NetConnect calls.
func (l *SimLink) Joins() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.joins
}

// Tries counts driver-level association attempts across all joins.
func (l *SimLink) Tries() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tries
}
