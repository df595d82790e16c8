// Package kmain contains the kernel entry point: it turns the boot command
// line into a running board with a serial console.
package kmain

import (
	"github.com/bmeneg/LapwingOS/device"
	"github.com/bmeneg/LapwingOS/device/bcm2711"
	"github.com/bmeneg/LapwingOS/device/console"
	"github.com/bmeneg/LapwingOS/kernel/hal/bootparams"
	"github.com/bmeneg/LapwingOS/kernel/kfmt"
	"github.com/bmeneg/LapwingOS/kernel/sync"
)

// EOT ends an Echo session (Ctrl-D).
const EOT = 0x04

var (
	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	// bootCtx holds the boot context. Kmain borrows it and never hands it
	// back, so a second boot trips an assertion in debug builds.
	bootCtx sync.Exclusive[Boot]
)

// Boot is the boot context: every object the bring-up creates, threaded
// through the code that needs it instead of living in package variables.
type Boot struct {
	Params  bootparams.Params
	Board   *bcm2711.Board
	Drivers device.Manager
	Console *console.System
}

// Kmain brings the kernel up from the firmware command line and returns the
// boot context. Any failure halts the kernel.
//
//go:noinline
func Kmain(cmdLine string) *Boot {
	b := bootCtx.Borrow()
	if !bringUp(b, cmdLine, console.Default()) {
		return nil
	}
	return b
}

// bringUp builds the board described by cmdLine into b and initializes its
// drivers, phase by phase. The UART takes over cons during the protocol
// phase, so everything printed before that is discarded.
func bringUp(b *Boot, cmdLine string, cons *console.System) bool {
	params, err := bootparams.Parse(cmdLine)
	if err != nil {
		panicFn(err)
		return false
	}

	b.Params = params
	b.Console = cons
	b.Board = bcm2711.NewBoard(params, cons)
	b.Board.RegisterDrivers(&b.Drivers)

	b.Drivers.SetQuiet(params.Quiet)
	b.Drivers.InitAllPhases()

	kfmt.Printf("[kmain] LapwingOS up, %d drivers, %d baud\n", b.Drivers.Len(), params.BaudRate)
	if params.Banner != "" {
		kfmt.Printf("%s\n", params.Banner)
	}
	return true
}

// Echo copies console input back to the console until eot is read. Input
// bytes are echoed as they came off the line; carriage returns are echoed
// as a full line break.
func (b *Boot) Echo(eot byte) {
	for {
		if !b.Console.Ready() {
			continue
		}

		c, err := b.Console.ReadByte()
		if err != nil || c == eot {
			return
		}

		switch c {
		case '\r', '\n':
			kfmt.Fprintf(b.Console, "\r\n")
		default:
			_ = b.Console.WriteByte(c)
		}
	}
}
