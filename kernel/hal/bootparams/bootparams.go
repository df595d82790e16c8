// Package bootparams parses the kernel command line handed over by the
// firmware into the settings the board drivers depend on.
//
// The command line is a sequence of shell-quoted words. Words of the form
// key=value set a parameter; a bare word sets a flag whose value is the word
// itself (so "quiet" reads as quiet=quiet).
package bootparams

import (
	"math"
	"strconv"
	"strings"

	"github.com/bmeneg/LapwingOS/kernel"
	"github.com/buildkite/shellwords"
)

const (
	// DefaultCoreClock is the VPU core clock in Hz when config.txt does not
	// set core_freq. The MiniUART baud generator runs off this clock.
	DefaultCoreClock = 250_000_000

	// DefaultBaudRate is the serial console bit rate.
	DefaultBaudRate = 115200
)

var (
	errSyntax      = &kernel.Error{Module: "bootparams", Message: "malformed command line"}
	errBadNumber   = &kernel.Error{Module: "bootparams", Message: "numeric parameter expected"}
	errZeroBaud    = &kernel.Error{Module: "bootparams", Message: "baud rate must be positive"}
	errClockTooLow = &kernel.Error{Module: "bootparams", Message: "core clock too low for the requested baud rate"}
	errClockRange  = &kernel.Error{Module: "bootparams", Message: "core clock out of range"}
)

// Params holds the parsed command line.
type Params struct {
	// CoreClock is the VPU core clock in Hz (core_freq, given in MHz as in
	// config.txt, or in Hz when larger than 10000).
	CoreClock uint32

	// BaudRate is the serial console bit rate (baud).
	BaudRate uint32

	// Banner is printed once the console is up (banner).
	Banner string

	// Quiet suppresses driver init log lines (quiet).
	Quiet bool

	// Raw holds every key/value pair of the command line.
	Raw map[string]string
}

// Default returns the parameters used when the command line is empty.
func Default() Params {
	return Params{
		CoreClock: DefaultCoreClock,
		BaudRate:  DefaultBaudRate,
		Raw:       map[string]string{},
	}
}

// Parse parses cmdLine on top of Default.
func Parse(cmdLine string) (Params, *kernel.Error) {
	params := Default()

	words, err := shellwords.Split(cmdLine)
	if err != nil {
		return params, errSyntax
	}

	for _, word := range words {
		key, value, found := strings.Cut(word, "=")
		if !found {
			value = key
		}
		params.Raw[key] = value

		switch key {
		case "core_freq":
			clock, err := parseUint32(value)
			if err != nil {
				return params, err
			}
			// config.txt expresses core_freq in MHz.
			if clock <= 10000 {
				hz := uint64(clock) * 1_000_000
				if hz > math.MaxUint32 {
					return params, errClockRange
				}
				clock = uint32(hz)
			}
			params.CoreClock = clock
		case "baud":
			baud, err := parseUint32(value)
			if err != nil {
				return params, err
			}
			params.BaudRate = baud
		case "banner":
			params.Banner = value
		case "quiet":
			params.Quiet = true
		}
	}

	if params.BaudRate == 0 {
		return params, errZeroBaud
	}

	if params.CoreClock/8 < params.BaudRate {
		return params, errClockTooLow
	}

	return params, nil
}

// Lookup returns the raw value of key and whether it was present.
func (p Params) Lookup(key string) (string, bool) {
	v, ok := p.Raw[key]
	return v, ok
}

// BaudCounter returns the MiniUART baud register value that gets closest to
// BaudRate given CoreClock, per baud = clock / (8 * (counter + 1)).
func (p Params) BaudCounter() uint16 {
	divisor := 8 * uint64(p.BaudRate)
	counter := (uint64(p.CoreClock)+divisor/2)/divisor - 1

	if counter > 0xffff {
		counter = 0xffff
	}
	return uint16(counter)
}

func parseUint32(s string) (uint32, *kernel.Error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errBadNumber
	}
	return uint32(v), nil
}
