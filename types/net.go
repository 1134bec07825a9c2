package types

import "net/netip"

// ConnState is the WiFi connectivity phase.
type ConnState uint8

const (
	Disconnected ConnState = iota
	Starting
	Scanning
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Starting:
		return "starting"
	case Scanning:
		return "scanning"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "unknown"
}

// Credentials for station-mode association. Fixed at build time.
type Credentials struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
}

// AccessPoint is one scan result.
type AccessPoint struct {
	SSID string `json:"ssid"`
	RSSI int16  `json:"rssi"`
}

// RadioEvent is an asynchronous notification from the WiFi radio.
type RadioEvent uint8

const (
	RadioUp RadioEvent = iota
	RadioDown
)

// LinkInfo is published once an address lease is held.
type LinkInfo struct {
	Addr netip.Addr `json:"addr"`
}

// ConnStatus is the retained net/wifi/state payload.
type ConnStatus struct {
	State     ConnState `json:"state"`
	Connected bool      `json:"connected"`
	Attempts  uint32    `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
}
