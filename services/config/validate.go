package config

import (
	"devicecode-water/errcode"
	"devicecode-water/x/strconvx"
)

// CoreTasks is the second core's full task set: status, heartbeat, health,
// display and adc.
const CoreTasks = 5

// Validate checks profile correctness. It does not mutate the profile.
func Validate(p *Profile) error {
	positive := []struct {
		name string
		v    int
	}{
		{"health.wifi_timeout_ms", p.Health.WifiTimeoutMs},
		{"health.mqtt_timeout_ms", p.Health.MqttTimeoutMs},
		{"health.display_timeout_ms", p.Health.DisplayTimeoutMs},
		{"health.adc_timeout_ms", p.Health.AdcTimeoutMs},
		{"watchdog.timeout_ms", p.Watchdog.TimeoutMs},
		{"watchdog.feed_interval_ms", p.Watchdog.FeedIntervalMs},
		{"network.reconnect_delay_ms", p.Network.ReconnectDelayMs},
		{"network.net_refresh_ms", p.Network.NetRefreshMs},
		{"heartbeat.default_ms", p.Heartbeat.DefaultMs},
		{"heartbeat.net_await_ms", p.Heartbeat.NetAwaitMs},
		{"heartbeat.init_ms", p.Heartbeat.InitMs},
		{"heartbeat.blink_ms", p.Heartbeat.BlinkMs},
		{"appcore.arena_bytes", p.AppCore.ArenaBytes},
		{"appcore.task_stack_bytes", p.AppCore.TaskStackBytes},
	}
	for _, f := range positive {
		if f.v <= 0 {
			return invalid(f.name + " must be > 0, got " + strconvx.Itoa(f.v))
		}
	}

	// The feed cadence has to leave margin inside the watchdog window.
	if p.Watchdog.FeedIntervalMs*2 > p.Watchdog.TimeoutMs {
		return invalid("watchdog.feed_interval_ms must be at most half of watchdog.timeout_ms")
	}
	if p.Heartbeat.BlinkMs >= p.Heartbeat.InitMs {
		return invalid("heartbeat.blink_ms must be shorter than every heartbeat period")
	}
	if p.AppCore.TaskStackBytes*CoreTasks > p.AppCore.ArenaBytes {
		return invalid("appcore.arena_bytes must hold " + strconvx.Itoa(CoreTasks) +
			" stacks of appcore.task_stack_bytes")
	}
	if p.Network.ScanReportLimit < 0 {
		return invalid("network.scan_report_limit must be >= 0")
	}
	return nil
}

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: msg}
}
