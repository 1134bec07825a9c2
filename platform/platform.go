// Package platform binds the supervision core to a concrete board.
//
// Open returns the board's peripherals behind the narrow interfaces the
// services expect. Hardware builds (rp2040, rp2350) talk to real
// peripherals; every other build gets in-memory stand-ins so the whole
// firmware can run under go test.
package platform

import (
	"io"
	"log/slog"

	"devicecode-water/services/appcore"
	"devicecode-water/services/heartbeat"
	"devicecode-water/services/netsup"
	"devicecode-water/services/watchdog"
)

// Board is the set of peripherals one boot may use. Each field is handed to
// exactly one owner.
type Board struct {
	Name     string
	Watchdog *watchdog.Hardware
	LED      heartbeat.Pin
	Radio    netsup.Radio
	Core     *appcore.CoreToken
	LogSink  io.Writer
}

// Logger builds the firmware logger on the board's log sink.
func (b *Board) Logger(level slog.Leveler) *slog.Logger {
	h := slog.NewTextHandler(b.LogSink, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(slog.String("board", b.Name))
}
