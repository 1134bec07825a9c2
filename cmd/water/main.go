//go:build rp2040 || rp2350

// Command water is the plant-watering firmware entry point.
//
//	tinygo flash -target nano-rp2040 -scheduler=cores \
//	  -ldflags "-X devicecode-water/services/config.SSID=... -X devicecode-water/services/config.Password=..." \
//	  ./cmd/water
package main

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"devicecode-water/bus"
	"devicecode-water/platform"
	"devicecode-water/services/config"
	"devicecode-water/services/system"
)

func main() {
	// Allow USB CDC to enumerate before we log.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	board, err := platform.Open()
	if err != nil {
		park("platform", err)
	}
	log := board.Logger(slog.LevelInfo)
	slog.SetDefault(log)

	prof, err := config.Load()
	if err != nil {
		park("config", err)
	}

	ctx := context.Background()
	sup, err := system.Boot(ctx, system.Deps{
		Profile: prof,
		Board:   board,
		Bus:     bus.NewBus(4),
		Logger:  log,
	})
	if err != nil {
		park("boot", err)
	}
	logMem(log)

	// Never returns; feeds the watchdog every 2 s.
	_ = sup.Run(ctx)
}

// park stops here after a fatal boot error. If the watchdog was armed it
// resets the chip; otherwise the board sits with the LED dark.
func park(stage string, err error) {
	for {
		println("[main] fatal", stage, err.Error())
		time.Sleep(5 * time.Second)
	}
}

func logMem(log *slog.Logger) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	log.Info("main:mem",
		slog.Int("alloc", int(ms.Alloc)),
		slog.Int("heap_inuse", int(ms.HeapInuse)),
		slog.Int("heap_sys", int(ms.HeapSys)),
	)
}
