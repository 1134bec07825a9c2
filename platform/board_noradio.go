//go:build (rp2040 || rp2350) && !nano_rp2040

package platform

import (
	"net/netip"

	"devicecode-water/errcode"
	"devicecode-water/services/netsup"
	"devicecode-water/types"
)

// boardRadio returns a radio that never starts. The supervisor keeps retrying
// on its normal backoff, so a board without WiFi still boots and blinks.
func boardRadio() (netsup.Radio, string) { return noRadio{}, "rp2" }

type noRadio struct{}

func (noRadio) Start() error                       { return errcode.Unsupported }
func (noRadio) Started() bool                      { return false }
func (noRadio) Scan() ([]types.AccessPoint, error) { return nil, errcode.Unsupported }
func (noRadio) Connect(types.Credentials) error    { return errcode.Unsupported }
func (noRadio) Notify(func(types.RadioEvent))      {}
func (noRadio) LinkUp() bool                       { return false }
func (noRadio) Addr() (netip.Addr, error)          { return netip.Addr{}, errcode.Unsupported }
