//go:build !(rp2040 || rp2350)

// Command water-sim runs the supervision core against simulated peripherals.
// Ctrl-C stops it. Setting DROP_AFTER (e.g. "20s") drops the simulated
// access point once so the reconnect path can be watched.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"devicecode-water/bus"
	"devicecode-water/platform"
	"devicecode-water/services/config"
	"devicecode-water/services/system"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	host, err := platform.Open()
	if err != nil {
		slog.Error("main:platform", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log := host.Logger(slog.LevelDebug)
	slog.SetDefault(log)

	prof, err := config.Load()
	if err != nil {
		log.Error("main:config", slog.String("err", err.Error()))
		os.Exit(1)
	}
	if prof.Credentials().SSID == "" {
		prof.Network.SSID = "sim"
	}

	sup, err := system.Boot(ctx, system.Deps{
		Profile: prof,
		Board:   &host.Board,
		Bus:     bus.NewBus(8),
		Logger:  log,
	})
	if err != nil {
		log.Error("main:boot", slog.String("err", err.Error()))
		os.Exit(1)
	}

	if d, err := time.ParseDuration(os.Getenv("DROP_AFTER")); err == nil && d > 0 {
		time.AfterFunc(d, host.Link.Drop)
	}

	// Keep the simulated watchdog honest: it trips if the main loop stalls.
	go func() {
		tick := time.NewTicker(100 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				if host.Timer.Advance(100 * time.Millisecond) {
					log.Error("main:watchdog-reset")
					os.Exit(2)
				}
			}
		}
	}()

	_ = sup.Run(ctx)
	log.Info("main:stopped", slog.Int("blinks", host.Pin.Blinks()))
}
