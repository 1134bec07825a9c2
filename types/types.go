package types

import "time"

// ---- Monitored subsystems ----

// Subsystem identifies a component whose liveness is tracked by heartbeats.
type Subsystem uint8

const (
	Wifi Subsystem = iota
	Mqtt
	Display
	Adc

	NumSubsystems = 4
)

// AllSubsystems lists every tag in a fixed order.
var AllSubsystems = [NumSubsystems]Subsystem{Wifi, Mqtt, Display, Adc}

func (s Subsystem) String() string {
	switch s {
	case Wifi:
		return "WiFi"
	case Mqtt:
		return "MQTT"
	case Display:
		return "Display"
	case Adc:
		return "ADC"
	}
	return "unknown"
}

// Valid reports whether s is one of the defined tags.
func (s Subsystem) Valid() bool { return s < NumSubsystems }

// ---- Health payloads ----

// HealthEvent is emitted once per genuine flip of a subsystem's health.
type HealthEvent struct {
	Subsystem Subsystem `json:"subsystem"`
	Healthy   bool      `json:"healthy"`
	SilentMs  uint32    `json:"silent_ms"` // time since last heartbeat at the flip
	TS        uint32    `json:"ts_ms"`
}

// HealthSnapshot is the per-subsystem verdict at one instant.
type HealthSnapshot struct {
	Healthy [NumSubsystems]bool `json:"healthy"`
	System  bool                `json:"system"`
}

// ---- Watchdog payloads ----

type WatchdogStats struct {
	Enabled bool          `json:"enabled"`
	Feeds   uint32        `json:"feeds"`
	Timeout time.Duration `json:"timeout"`
}

// ---- LED heartbeat ----

// HeartbeatRate is the requested blink period of the liveness LED.
type HeartbeatRate struct {
	Interval time.Duration `json:"interval"`
}

// ---- Status line ----

// StatusText is one short human-readable phase string.
type StatusText struct {
	Text string `json:"text"`
	TS   int64  `json:"ts_ms"`
}
