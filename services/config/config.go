package config

import (
	_ "embed"
	"time"

	"gopkg.in/yaml.v3"

	"devicecode-water/types"
	"devicecode-water/x/strx"
)

// Credentials are injected at link time:
//
//	tinygo build -ldflags "-X devicecode-water/services/config.SSID=... -X devicecode-water/services/config.Password=..."
var (
	SSID     string
	Password string
)

//go:embed profile.yaml
var embeddedProfile []byte

// ---- PROFILE ----

type Profile struct {
	Health    HealthConfig    `yaml:"health"`
	Watchdog  WatchdogConfig  `yaml:"watchdog"`
	Network   NetworkConfig   `yaml:"network"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	AppCore   AppCoreConfig   `yaml:"appcore"`
}

type HealthConfig struct {
	WifiTimeoutMs    int `yaml:"wifi_timeout_ms"`
	MqttTimeoutMs    int `yaml:"mqtt_timeout_ms"`
	DisplayTimeoutMs int `yaml:"display_timeout_ms"`
	AdcTimeoutMs     int `yaml:"adc_timeout_ms"`
}

type WatchdogConfig struct {
	TimeoutMs      int `yaml:"timeout_ms"`
	FeedIntervalMs int `yaml:"feed_interval_ms"`
}

type NetworkConfig struct {
	ReconnectDelayMs int `yaml:"reconnect_delay_ms"`
	NetRefreshMs     int `yaml:"net_refresh_ms"`
	ScanReportLimit  int `yaml:"scan_report_limit"`

	// Fallback credentials for bench builds. Link-time values win.
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
}

type HeartbeatConfig struct {
	DefaultMs  int `yaml:"default_ms"`
	NetAwaitMs int `yaml:"net_await_ms"`
	InitMs     int `yaml:"init_ms"`
	BlinkMs    int `yaml:"blink_ms"`
}

type AppCoreConfig struct {
	ArenaBytes     int `yaml:"arena_bytes"`
	TaskStackBytes int `yaml:"task_stack_bytes"`
}

// ---- LOADING ----

// Load decodes and validates the profile compiled into the firmware.
func Load() (*Profile, error) {
	return Parse(embeddedProfile)
}

// Parse decodes raw YAML into a validated profile.
func Parse(raw []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Credentials returns the WiFi credentials, preferring link-time values over
// the profile's.
func (p *Profile) Credentials() types.Credentials {
	return types.Credentials{
		SSID:       strx.Coalesce(SSID, p.Network.SSID),
		Passphrase: strx.Coalesce(Password, p.Network.Passphrase),
	}
}

// ---- ACCESSORS ----

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// HealthTimeouts returns per-subsystem timeouts indexed by types.Subsystem.
func (p *Profile) HealthTimeouts() [types.NumSubsystems]time.Duration {
	var out [types.NumSubsystems]time.Duration
	out[types.Wifi] = ms(p.Health.WifiTimeoutMs)
	out[types.Mqtt] = ms(p.Health.MqttTimeoutMs)
	out[types.Display] = ms(p.Health.DisplayTimeoutMs)
	out[types.Adc] = ms(p.Health.AdcTimeoutMs)
	return out
}

func (p *Profile) WatchdogTimeout() time.Duration { return ms(p.Watchdog.TimeoutMs) }
func (p *Profile) FeedInterval() time.Duration    { return ms(p.Watchdog.FeedIntervalMs) }
func (p *Profile) ReconnectDelay() time.Duration  { return ms(p.Network.ReconnectDelayMs) }
func (p *Profile) NetRefresh() time.Duration      { return ms(p.Network.NetRefreshMs) }
func (p *Profile) HeartbeatDefault() time.Duration {
	return ms(p.Heartbeat.DefaultMs)
}
func (p *Profile) HeartbeatNetAwait() time.Duration { return ms(p.Heartbeat.NetAwaitMs) }
func (p *Profile) HeartbeatInit() time.Duration     { return ms(p.Heartbeat.InitMs) }
func (p *Profile) HeartbeatBlink() time.Duration    { return ms(p.Heartbeat.BlinkMs) }
