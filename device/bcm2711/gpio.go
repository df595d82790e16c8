package bcm2711

import (
	"io"

	"github.com/bmeneg/LapwingOS/kernel"
	"github.com/bmeneg/LapwingOS/kernel/mmio"
)

// gpioBase is the GPIO block base address as listed in the BCM2711
// peripherals datasheet.
const gpioBase = 0x7e20_0000

// NumPins is the number of GPIO pins of the BCM2711 (0-57).
const NumPins = 58

// PinFunction selects what a pin does. The values are the hardware encoding
// of the 3-bit function select fields.
type PinFunction uint32

const (
	FuncInput PinFunction = iota
	FuncOutput
	FuncAlt5
	FuncAlt4
	FuncAlt0
	FuncAlt1
	FuncAlt2
	FuncAlt3
)

// Pull selects the bias resistor of a pin. The values are the hardware
// encoding of the 2-bit pull control fields.
type Pull uint32

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

const (
	pinsPerFsel   = 10
	fselWidth     = 3
	pinsPerPull   = 16
	pullWidth     = 2
	pinsPerBitReg = 32
)

var errPinRange = &kernel.Error{Module: "gpio", Message: "out of GPIO pin range"}

// gpioRegisters is the GPIO register block. Registers holding a bit or a
// small field per pin are spread across consecutive words.
type gpioRegisters struct {
	fsel      [6]mmio.Reg32 // 0x00
	_         uint32
	set       [2]mmio.WO32 // 0x1c
	_         uint32
	clr       [2]mmio.RO32 // 0x28, read-only in this design
	_         uint32
	lev       [2]mmio.RO32 // 0x34
	_         uint32
	eds       [2]mmio.Reg32 // 0x40, write 1 to clear
	_         uint32
	ren       [2]mmio.Reg32 // 0x4c
	_         uint32
	fen       [2]mmio.Reg32 // 0x58
	_         uint32
	hen       [2]mmio.Reg32 // 0x64
	_         uint32
	len       [2]mmio.Reg32 // 0x70
	_         uint32
	aren      [2]mmio.Reg32 // 0x7c
	_         uint32
	afen      [2]mmio.Reg32 // 0x88
	_         [21]uint32
	pullCntrl [4]mmio.Reg32 // 0xe4
}

// GPIO drives the pin multiplexer and pull resistors.
//
// Each function select and pull control register is shared by several pins,
// so every update is a read-modify-write of the pin's own field. A call
// never owns a whole register.
type GPIO struct {
	block *mmio.Overlay[gpioRegisters]
}

// NewGPIO maps the GPIO block and returns its driver.
func NewGPIO() *GPIO {
	return &GPIO{block: mmio.Map[gpioRegisters](gpioBase)}
}

// SetFunction selects fn for pin. Pins outside 0-57 halt the kernel and no
// register is written.
func (g *GPIO) SetFunction(pin uint, fn PinFunction) {
	if pin >= NumPins {
		panicFn(errPinRange)
		return
	}

	field := mmio.Field{Offset: uint8(pin%pinsPerFsel) * fselWidth, Width: fselWidth}
	g.block.Regs().fsel[pin/pinsPerFsel].Modify(field, uint32(fn))
}

// Function returns the function currently selected for pin.
func (g *GPIO) Function(pin uint) PinFunction {
	if pin >= NumPins {
		panicFn(errPinRange)
		return FuncInput
	}

	field := mmio.Field{Offset: uint8(pin%pinsPerFsel) * fselWidth, Width: fselWidth}
	return PinFunction(g.block.Regs().fsel[pin/pinsPerFsel].LoadField(field))
}

// SetPull selects the bias resistor of pin. Pins outside 0-57 halt the
// kernel and no register is written.
func (g *GPIO) SetPull(pin uint, pull Pull) {
	if pin >= NumPins {
		panicFn(errPinRange)
		return
	}

	field := mmio.Field{Offset: uint8(pin%pinsPerPull) * pullWidth, Width: pullWidth}
	g.block.Regs().pullCntrl[pin/pinsPerPull].Modify(field, uint32(pull))
}

// Level reports whether pin is currently driven high.
func (g *GPIO) Level(pin uint) bool {
	if pin >= NumPins {
		panicFn(errPinRange)
		return false
	}

	return g.block.Regs().lev[pin/pinsPerBitReg].Load()&(1<<(pin%pinsPerBitReg)) != 0
}

// Set drives an output pin high. The set registers ignore zero bits, so no
// read is needed.
func (g *GPIO) Set(pin uint) {
	if pin >= NumPins {
		panicFn(errPinRange)
		return
	}

	g.block.Regs().set[pin/pinsPerBitReg].Store(1 << (pin % pinsPerBitReg))
}

// EventDetected reports whether an enabled edge/level event fired on pin.
func (g *GPIO) EventDetected(pin uint) bool {
	if pin >= NumPins {
		panicFn(errPinRange)
		return false
	}

	return g.block.Regs().eds[pin/pinsPerBitReg].Load()&(1<<(pin%pinsPerBitReg)) != 0
}

// ClearEvent acknowledges a detected event on pin. The status register is
// write-1-to-clear, so only the pin's bit is written.
func (g *GPIO) ClearEvent(pin uint) {
	if pin >= NumPins {
		panicFn(errPinRange)
		return
	}

	g.block.Regs().eds[pin/pinsPerBitReg].Store(1 << (pin % pinsPerBitReg))
}

// Release unmaps the GPIO block.
func (g *GPIO) Release() {
	g.block.Release()
}

// DriverName returns the name of this driver.
func (g *GPIO) DriverName() string {
	return "bcm2711_gpio"
}

// DriverVersion returns the version of this driver.
func (g *GPIO) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit initializes this driver. The block needs no priming.
func (g *GPIO) DriverInit(_ io.Writer) *kernel.Error { return nil }
