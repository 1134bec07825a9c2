//go:build nano_rp2040

package platform

import (
	"machine"

	"tinygo.org/x/drivers/wifinina"

	"devicecode-water/services/netsup"
)

// boardRadio brings up the on-board u-blox NINA module over SPI.
func boardRadio() (netsup.Radio, string) {
	nina := wifinina.New(&wifinina.Config{
		Spi:  machine.NINA_SPI,
		Freq: 8 * 1e6,
		Sdo:  machine.NINA_SDO,
		Sdi:  machine.NINA_SDI,
		Sck:  machine.NINA_SCK,

		Cs:     machine.NINA_CS,
		Ack:    machine.NINA_ACK,
		Gpio0:  machine.NINA_GPIO0,
		Resetn: machine.NINA_RESETN,
		// Reset is active high on this board.
		ResetIsHigh: true,
	})
	return netsup.NewNetlinkRadio(nina), "nano_rp2040"
}
