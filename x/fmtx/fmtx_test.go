package fmtx

import (
	"bytes"
	"errors"
	"testing"
)

func TestSprintf_StatusLines(t *testing.T) {
	for _, c := range []struct {
		format string
		args   []any
		want   string
	}{
		{"WiFi fail: %s", []any{"auth"}, "WiFi fail: auth"},
		{"attempt %d of %d", []any{3, 4}, "attempt 3 of 4"},
		{"reset cause %x", []any{255}, "reset cause ff"},
		{"wdt %t", []any{true}, "wdt true"},
		{"ssid=%q", []any{`gar"den`}, `ssid="gar\"den"`},
		{"100%%", nil, "100%"},
		{"%.5s", []any{"Connecting"}, "Conne"},
		{"v=%v", []any{60000}, "v=60000"},
	} {
		if got := Sprintf(c.format, c.args...); got != c.want {
			t.Fatalf("Sprintf(%q) = %q, want %q", c.format, got, c.want)
		}
	}
}

func TestFprint_JoinsOperands(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Fprint(&buf, "IP:", "10.0.0.2"); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "IP:10.0.0.2" {
		t.Fatalf("Fprint wrote %q", got)
	}
	if got := Sprint("silent", 60001); got != "silent60001" {
		t.Fatalf("Sprint = %q", got)
	}
	if got := Sprint(3, 4); got != "3 4" {
		t.Fatalf("Sprint = %q", got)
	}
}

func TestErrorf_Wraps(t *testing.T) {
	cause := errors.New("no ap")
	err := Errorf("wifi:connect: %w", cause)
	if err.Error() != "wifi:connect: no ap" || !errors.Is(err, cause) {
		t.Fatalf("Errorf = %v", err)
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf("config: %s must be > %d", "timeout_ms", 0)
	if err == nil || err.Error() != "config: timeout_ms must be > 0" {
		t.Fatalf("Errorf = %v", err)
	}
}
