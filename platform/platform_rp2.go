//go:build rp2040 || rp2350

package platform

import (
	"device/rp"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"devicecode-water/services/appcore"
	"devicecode-water/services/watchdog"
	"devicecode-water/x/mathx"
)

// The RP2040 watchdog counter is 24 bits at 1 MHz and, because of an erratum,
// decrements twice per tick.
const maxWatchdog = 8300 * time.Millisecond

// Open configures the board peripherals. It must be called once per boot.
func Open() (*Board, error) {
	_ = uartx.UART0.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	radio, name := boardRadio()
	return &Board{
		Name:     name,
		Watchdog: watchdog.NewHardware(rp2Watchdog{}),
		LED:      led,
		Radio:    radio,
		Core:     appcore.NewCoreToken(appcore.SecondCore()),
		LogSink:  uartx.UART0,
	}, nil
}

// rp2Watchdog drives the on-chip watchdog.
type rp2Watchdog struct{}

// Configure clamps timeout to what the silicon can count and reports the
// window it armed.
func (rp2Watchdog) Configure(timeout time.Duration) (time.Duration, error) {
	timeout = mathx.Clamp(timeout, time.Millisecond, maxWatchdog)
	err := machine.Watchdog.Configure(machine.WatchdogConfig{
		TimeoutMillis: uint32(timeout / time.Millisecond),
	})
	return timeout, err
}

func (rp2Watchdog) Start() error { return machine.Watchdog.Start() }
func (rp2Watchdog) Update()      { machine.Watchdog.Update() }

func (rp2Watchdog) Stop() error {
	rp.WATCHDOG.CTRL.ClearBits(rp.WATCHDOG_CTRL_ENABLE)
	return nil
}
