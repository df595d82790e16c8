package device

import (
	"bytes"

	"github.com/bmeneg/LapwingOS/device/console"
	"github.com/bmeneg/LapwingOS/kernel"
	"github.com/bmeneg/LapwingOS/kernel/kfmt"
)

// MaxDrivers is the number of driver slots in a Manager. It matches the
// drivers declared by the board: GPIO and the MiniUART.
const MaxDrivers = 2

var (
	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	errTooManyDrivers = &kernel.Error{Module: "device", Message: "driver registry is full"}
	errDriverInit     = &kernel.Error{Module: "device"}

	// strBuf holds the log prefix of the driver being initialized.
	strBuf bytes.Buffer
)

// Manager keeps the registered drivers in a fixed table, in registration
// order, and initializes them. The zero value is an empty manager.
type Manager struct {
	drivers     [MaxDrivers]DeviceDriver
	initialized [MaxDrivers]bool
	count       int

	quiet bool
}

// SetQuiet controls whether driver init log lines are shown. Init failures
// are always reported.
func (m *Manager) SetQuiet(quiet bool) {
	m.quiet = quiet
}

// RegisterDriver appends drv to the registry. Registering more than
// MaxDrivers drivers is a programming error and halts the kernel.
func (m *Manager) RegisterDriver(drv DeviceDriver) {
	if m.count == MaxDrivers {
		panicFn(errTooManyDrivers)
		return
	}

	m.drivers[m.count] = drv
	m.count++
}

// Drivers returns the registered drivers in registration order.
func (m *Manager) Drivers() []DeviceDriver {
	return m.drivers[:m.count]
}

// Len returns the number of registered drivers.
func (m *Manager) Len() int {
	return m.count
}

// InitDrivers initializes registered drivers. With a nil phase every driver
// is initialized in registration order. Otherwise only the drivers of that
// phase are, again in registration order.
//
// A driver is initialized at most once; later calls skip it. Any init
// failure is fatal.
func (m *Manager) InitDrivers(phase *InitPhase) {
	if phase == nil {
		for i := 0; i < m.count; i++ {
			m.initDriver(i)
		}
		return
	}

	// Count the drivers in each phase so empty phases are skipped without
	// walking the table.
	var phaseCount [NumPhases]int
	for i := 0; i < m.count; i++ {
		phaseCount[m.drivers[i].Phase]++
	}

	for curPhase, numDrivers := range phaseCount {
		if numDrivers == 0 || InitPhase(curPhase) != *phase {
			continue
		}

		for i := 0; i < m.count; i++ {
			if m.drivers[i].Phase == *phase {
				m.initDriver(i)
			}
		}
	}
}

// InitAllPhases initializes every phase in order: all PhaseHardware drivers
// complete before the first PhaseProtocol driver starts.
func (m *Manager) InitAllPhases() {
	for phase := InitPhase(0); phase < NumPhases; phase++ {
		m.InitDrivers(&phase)
	}
}

// initDriver runs the init code of the driver in slot index with a writer
// that prefixes its log output with the driver name and version.
func (m *Manager) initDriver(index int) {
	if m.initialized[index] {
		return
	}

	info := m.drivers[index]
	major, minor, patch := info.Driver.DriverVersion()

	strBuf.Reset()
	kfmt.Fprintf(&strBuf, "[device] %s(%d.%d.%d): ", info.Driver.DriverName(), major, minor, patch)
	w := kfmt.PrefixWriter{Sink: kfmt.GetOutputSink(), Prefix: strBuf.Bytes()}
	if m.quiet {
		w.Sink = console.Dummy{}
	}

	m.initialized[index] = true
	if err := info.Driver.DriverInit(&w); err != nil {
		w.Sink = kfmt.GetOutputSink()
		kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
		kfmt.Printf("[device] failed to initialize %s\n", info.Description)
		errDriverInit.Message = "failed to initialize " + info.Description
		panicFn(errDriverInit)
		return
	}

	kfmt.Fprintf(&w, "initialized\n")
}
