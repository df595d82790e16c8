// Command lapwing-sim boots the kernel on the host against a simulated
// BCM2711. The MiniUART data register is wired to the terminal so the
// serial console can be used interactively. Ctrl-D ends the session.
package main

import (
	"flag"
	"log"

	"github.com/bmeneg/LapwingOS/device/bcm2711"
	"github.com/bmeneg/LapwingOS/kernel/hal/bootparams"
	"github.com/bmeneg/LapwingOS/kernel/kmain"
	"github.com/bmeneg/LapwingOS/kernel/mmio"
	"github.com/bmeneg/LapwingOS/kernel/mmio/sim"
	tty "github.com/mattn/go-tty"
)

// MiniUART io and stat registers in the legacy address map.
const (
	uartDataReg   = 0x7e21_5040
	uartStatusReg = 0x7e21_5064
)

var (
	cmdLineFlag = flag.String("cmdline", "", "kernel command line, e.g. `baud=115200 banner=\"hi\"`")
	ttyFlag     = flag.String("p", "", "use this terminal device instead of the controlling one")
)

// substitute is sent in place of input runes the 8-bit line cannot carry.
const substitute = 0x1a

func openTTY(path string) (*tty.TTY, error) {
	if path == "" {
		return tty.Open()
	}
	return tty.OpenDevice(path)
}

func main() {
	flag.Parse()

	// The kernel halts on a bad command line before any console exists, so
	// report it here where it can still be seen.
	if _, err := bootparams.Parse(*cmdLineFlag); err != nil {
		log.Fatalf("lapwing-sim: %s: %s", err.Module, err.Message)
	}

	term, err := openTTY(*ttyFlag)
	if err != nil {
		log.Fatalf("lapwing-sim: %v", err)
	}
	defer term.Close()

	restore, err := term.Raw()
	if err != nil {
		log.Fatalf("lapwing-sim: %v", err)
	}
	defer restore()

	space := sim.New()
	defer mmio.Use(space)()

	dataReg := mmio.Translate(mmio.DriverMode, mmio.CurrentMode, uartDataReg)
	out := term.Output()
	space.OnStore(dataReg, func(v uint32) {
		if _, err := out.Write([]byte{byte(v)}); err != nil {
			log.Printf("lapwing-sim: write: %v", err)
		}
	})
	space.OnLoad(dataReg, func() uint32 {
		r, err := term.ReadRune()
		switch {
		case err != nil:
			return kmain.EOT
		case r > 0xff:
			return substitute
		default:
			return uint32(r)
		}
	})

	// Terminal reads block, so the receive FIFO always looks non-empty and
	// the transmitter always idle.
	statusReg := mmio.Translate(mmio.DriverMode, mmio.CurrentMode, uartStatusReg)
	status := bcm2711.StatRXAvailable.Val(1) | bcm2711.StatTXAvailable.Val(1) |
		bcm2711.StatTXEmpty.Val(1) | bcm2711.StatTXDone.Val(1)
	space.OnLoad(statusReg, func() uint32 { return status })

	boot := kmain.Kmain(*cmdLineFlag)
	if boot == nil {
		return
	}
	boot.Echo(kmain.EOT)
	boot.Board.Release()
}
