// Package bcm2711 contains the drivers for the BCM2711 (Raspberry Pi 4)
// peripherals used during bring-up: the GPIO block and the AUX MiniUART.
package bcm2711

import (
	"github.com/bmeneg/LapwingOS/device"
	"github.com/bmeneg/LapwingOS/device/console"
	"github.com/bmeneg/LapwingOS/kernel/hal/bootparams"
	"github.com/bmeneg/LapwingOS/kernel/kfmt"
)

// panicFn is mocked by tests.
var panicFn = kfmt.Panic

// Board owns the drivers of the board. The MiniUART depends on the GPIO
// driver for its pins.
type Board struct {
	GPIO *GPIO
	UART *MiniUART
}

// NewBoard maps every peripheral block and builds the drivers. The UART
// publishes itself on cons once initialized.
func NewBoard(params bootparams.Params, cons *console.System) *Board {
	gpio := NewGPIO()
	return &Board{
		GPIO: gpio,
		UART: NewMiniUART(gpio, cons, params.BaudRate, params.BaudCounter()),
	}
}

// RegisterDrivers registers the board drivers with m. GPIO comes first so
// the pins are usable by the time protocol drivers run.
func (b *Board) RegisterDrivers(m *device.Manager) {
	m.RegisterDriver(device.DeviceDriver{
		Description: "BCM2711 GPIO",
		Driver:      b.GPIO,
		Phase:       device.PhaseHardware,
	})
	m.RegisterDriver(device.DeviceDriver{
		Description: "BCM2711 MiniUART",
		Driver:      b.UART,
		Phase:       device.PhaseProtocol,
	})
}

// Release unmaps every peripheral block so a new board can be built.
func (b *Board) Release() {
	b.UART.Release()
	b.GPIO.Release()
}
