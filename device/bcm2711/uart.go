package bcm2711

import (
	"io"

	"github.com/bmeneg/LapwingOS/device/console"
	"github.com/bmeneg/LapwingOS/kernel"
	"github.com/bmeneg/LapwingOS/kernel/kfmt"
	"github.com/bmeneg/LapwingOS/kernel/mmio"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// uartBase is the AUX block base address. The MiniUART registers start at
// the beginning of the block.
const uartBase = 0x7e21_5000

// Pins carrying the MiniUART when set to FuncAlt5.
const (
	uartTxPin = 14
	uartRxPin = 15
)

type uartRegisters struct {
	irq  mmio.RO32  // 0x00
	en   mmio.Reg32 // 0x04
	_    [14]uint32
	io   mmio.Reg32 // 0x40
	ier  mmio.Reg32 // 0x44
	iir  mmio.Reg32 // 0x48
	lcr  mmio.Reg32 // 0x4c
	_    [4]uint32
	cntl mmio.Reg32 // 0x60
	stat mmio.RO32  // 0x64
	baud mmio.Reg32 // 0x68
}

var (
	enUART = mmio.Field{Offset: 0, Width: 1}

	ioData = mmio.Field{Offset: 0, Width: 8}

	ierTX = mmio.Field{Offset: 0, Width: 1}
	ierRX = mmio.Field{Offset: 1, Width: 1}

	iirPending = mmio.Field{Offset: 0, Width: 1}
	iirID      = mmio.Field{Offset: 1, Width: 2}

	lcrDataSize = mmio.Field{Offset: 0, Width: 1}
	lcrBreak    = mmio.Field{Offset: 6, Width: 1}
	lcrDLAB     = mmio.Field{Offset: 7, Width: 1}

	cntlRXEnable = mmio.Field{Offset: 0, Width: 1}
	cntlTXEnable = mmio.Field{Offset: 1, Width: 1}

	baudCounter = mmio.Field{Offset: 0, Width: 16}
)

// Status register fields, for decoding the word returned by
// MiniUART.Status.
var (
	StatRXAvailable = mmio.Field{Offset: 0, Width: 1}
	StatTXAvailable = mmio.Field{Offset: 1, Width: 1}
	StatRXIdle      = mmio.Field{Offset: 2, Width: 1}
	StatTXIdle      = mmio.Field{Offset: 3, Width: 1}
	StatRXOverrun   = mmio.Field{Offset: 4, Width: 1}
	StatTXFull      = mmio.Field{Offset: 5, Width: 1}
	StatTXEmpty     = mmio.Field{Offset: 8, Width: 1}
	StatTXDone      = mmio.Field{Offset: 9, Width: 1}
	StatRXCount     = mmio.Field{Offset: 16, Width: 4}
	StatTXCount     = mmio.Field{Offset: 24, Width: 4}
)

type dataSize uint8

const (
	dataSize7 dataSize = iota
	dataSize8
)

// Interrupt sources reported by MiniUART.Pending.
const (
	IIRNone    = 0
	IIRTXEmpty = 1
	IIRRXByte  = 2
)

// Writing these to the iir ID field clears the matching FIFO.
const (
	iirClearRX = 1
	iirClearTX = 2
)

// MiniUART drives the AUX mini UART as the kernel console.
type MiniUART struct {
	block   *mmio.Overlay[uartRegisters]
	gpio    *GPIO
	console *console.System

	baudRate uint32
	counter  uint16

	// text converts UTF-8 console output to the 8-bit serial line. It
	// keeps a partial rune across writes since kfmt emits literal text
	// one byte at a time.
	text *transform.Writer
}

// NewMiniUART maps the MiniUART block. The pins it needs are configured
// through gpio during DriverInit and, once ready, the UART registers itself
// with cons. counter is the baud rate divisor programmed into the baud
// register.
func NewMiniUART(gpio *GPIO, cons *console.System, baudRate uint32, counter uint16) *MiniUART {
	u := &MiniUART{
		block:    mmio.Map[uartRegisters](uartBase),
		gpio:     gpio,
		console:  cons,
		baudRate: baudRate,
		counter:  counter,
	}
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	u.text = transform.NewWriter(lineWriter{u}, enc)
	return u
}

// ReadByte returns the byte at the head of the receive FIFO.
func (u *MiniUART) ReadByte() (byte, error) {
	return byte(u.block.Regs().io.LoadField(ioData)), nil
}

// WriteByte pushes b into the transmit FIFO.
func (u *MiniUART) WriteByte(b byte) error {
	u.block.Regs().io.Store(ioData.Val(uint32(b)))
	return nil
}

// Write sends UTF-8 text over the line. Runes without an ISO-8859-1
// encoding are replaced by the charmap substitution byte.
func (u *MiniUART) Write(p []byte) (int, error) {
	return u.text.Write(p)
}

// Ready reports whether the receive FIFO holds at least one byte.
func (u *MiniUART) Ready() bool {
	return StatRXAvailable.Get(u.Status()) == 1
}

// Status returns the raw status register. Use the Stat* fields to decode it.
func (u *MiniUART) Status() uint32 {
	return u.block.Regs().stat.Load()
}

// Pending reports whether an interrupt is pending and, if so, its source.
func (u *MiniUART) Pending() (bool, uint32) {
	iir := u.block.Regs().iir.Load()
	return iirPending.Get(iir) == 0, iirID.Get(iir)
}

// ClearFIFOs drops the contents of the selected FIFOs.
func (u *MiniUART) ClearFIFOs(rx, tx bool) {
	var id uint32
	if rx {
		id |= iirClearRX
	}
	if tx {
		id |= iirClearTX
	}
	u.block.Regs().iir.Modify(iirID, id)
}

// Release unmaps the MiniUART block.
func (u *MiniUART) Release() {
	u.block.Release()
}

// DriverName returns the name of this driver.
func (u *MiniUART) DriverName() string {
	return "bcm2711_miniuart"
}

// DriverVersion returns the version of this driver.
func (u *MiniUART) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit routes the UART to its pins, programs an 8N1 line at the
// configured baud rate and makes the UART the system console.
func (u *MiniUART) DriverInit(w io.Writer) *kernel.Error {
	for _, pin := range [...]uint{uartTxPin, uartRxPin} {
		u.gpio.SetFunction(pin, FuncAlt5)
		u.gpio.SetPull(pin, PullDown)
	}

	regs := u.block.Regs()
	// en also gates the SPI blocks, leave their bits alone.
	regs.en.Modify(enUART, 1)
	regs.cntl.Store(cntlRXEnable.Val(0) | cntlTXEnable.Val(0))
	regs.baud.Store(baudCounter.Val(uint32(u.counter)))
	regs.lcr.Store(mmio.FieldValue(lcrDataSize, dataSize8))
	regs.ier.Store(ierTX.Val(1) | ierRX.Val(1))
	regs.cntl.Store(cntlRXEnable.Val(1) | cntlTXEnable.Val(1))

	u.console.Register(u)
	kfmt.Fprintf(w, "%d baud (counter %d)\n", u.baudRate, u.counter)
	return nil
}

// lineWriter puts encoded bytes on the wire one register store at a time.
type lineWriter struct {
	u *MiniUART
}

func (l lineWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		_ = l.u.WriteByte(b)
	}
	return len(p), nil
}
