// Package device defines the contract implemented by every device driver and
// the manager that registers drivers and runs their phased initialization.
package device

import (
	"io"

	"github.com/bmeneg/LapwingOS/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// InitPhase orders driver initialization. Every driver of a phase is
// initialized before any driver of the next one.
type InitPhase uint8

const (
	// PhaseHardware drivers bring up raw hardware blocks other drivers
	// build on (pin multiplexing, clocks).
	PhaseHardware InitPhase = iota

	// PhaseProtocol drivers implement a protocol on top of hardware set
	// up during PhaseHardware (serial lines, consoles).
	PhaseProtocol

	// NumPhases is the number of init phases.
	NumPhases
)

// String returns the phase name.
func (p InitPhase) String() string {
	switch p {
	case PhaseHardware:
		return "hardware"
	case PhaseProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// DeviceDriver describes a registered driver.
type DeviceDriver struct {
	// Description is a human readable name of the device.
	Description string

	// Driver is the driver instance.
	Driver Driver

	// Phase selects when the driver is initialized.
	Phase InitPhase
}
