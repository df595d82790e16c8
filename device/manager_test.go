package device

import (
	"bytes"
	"io"
	"testing"

	"github.com/bmeneg/LapwingOS/kernel"
	"github.com/bmeneg/LapwingOS/kernel/kfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockDriver struct {
	name    string
	initLog *[]string
	err     *kernel.Error
}

func (d *mockDriver) DriverName() string { return d.name }

func (d *mockDriver) DriverVersion() (uint16, uint16, uint16) { return 0, 1, 12 }

func (d *mockDriver) DriverInit(w io.Writer) *kernel.Error {
	*d.initLog = append(*d.initLog, d.name)
	kfmt.Fprintf(w, "probing\n")
	return d.err
}

func mockPanic(t *testing.T) *[]interface{} {
	var calls []interface{}
	panicFn = func(e interface{}) { calls = append(calls, e) }
	t.Cleanup(func() { panicFn = kfmt.Panic })
	return &calls
}

func captureOutput(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	kfmt.SetOutputSink(&buf)
	t.Cleanup(func() { kfmt.SetOutputSink(nil) })
	return &buf
}

func TestInitPhaseOrdering(t *testing.T) {
	assert.Less(t, PhaseHardware, PhaseProtocol)
	assert.Equal(t, 2, int(NumPhases))
	assert.Equal(t, "hardware", PhaseHardware.String())
	assert.Equal(t, "protocol", PhaseProtocol.String())
	assert.Equal(t, "unknown", NumPhases.String())
}

func TestRegisterDriver(t *testing.T) {
	calls := mockPanic(t)

	var (
		m       Manager
		initLog []string
		a       = DeviceDriver{Description: "a", Driver: &mockDriver{name: "a", initLog: &initLog}, Phase: PhaseProtocol}
		b       = DeviceDriver{Description: "b", Driver: &mockDriver{name: "b", initLog: &initLog}, Phase: PhaseHardware}
	)

	assert.Empty(t, m.Drivers())

	m.RegisterDriver(a)
	m.RegisterDriver(b)
	assert.Empty(t, *calls, "registering up to capacity must succeed")
	require.Equal(t, MaxDrivers, m.Len())
	assert.Equal(t, []DeviceDriver{a, b}, m.Drivers(), "registration order must be preserved")

	m.RegisterDriver(DeviceDriver{Description: "c", Driver: &mockDriver{name: "c", initLog: &initLog}})
	require.Len(t, *calls, 1)
	assert.Equal(t, errTooManyDrivers, (*calls)[0])
	assert.Equal(t, []DeviceDriver{a, b}, m.Drivers(), "over-capacity registration must not touch the table")
}

func TestInitDriversWithoutPhase(t *testing.T) {
	mockPanic(t)
	buf := captureOutput(t)

	var (
		m       Manager
		initLog []string
	)

	m.RegisterDriver(DeviceDriver{Description: "uart", Driver: &mockDriver{name: "uart", initLog: &initLog}, Phase: PhaseProtocol})
	m.RegisterDriver(DeviceDriver{Description: "gpio", Driver: &mockDriver{name: "gpio", initLog: &initLog}, Phase: PhaseHardware})

	m.InitDrivers(nil)
	assert.Equal(t, []string{"uart", "gpio"}, initLog, "without a phase drivers run in registration order")

	exp := "[device] uart(0.1.12): probing\n" +
		"[device] uart(0.1.12): initialized\n" +
		"[device] gpio(0.1.12): probing\n" +
		"[device] gpio(0.1.12): initialized\n"
	assert.Equal(t, exp, buf.String())

	m.InitDrivers(nil)
	assert.Len(t, initLog, 2, "drivers must be initialized at most once")
}

func TestInitDriversByPhase(t *testing.T) {
	mockPanic(t)
	captureOutput(t)

	var (
		m       Manager
		initLog []string
		hw      = PhaseHardware
		proto   = PhaseProtocol
	)

	m.RegisterDriver(DeviceDriver{Description: "uart", Driver: &mockDriver{name: "uart", initLog: &initLog}, Phase: PhaseProtocol})
	m.RegisterDriver(DeviceDriver{Description: "gpio", Driver: &mockDriver{name: "gpio", initLog: &initLog}, Phase: PhaseHardware})

	m.InitDrivers(&hw)
	assert.Equal(t, []string{"gpio"}, initLog, "only hardware drivers may run in the hardware phase")

	m.InitDrivers(&proto)
	assert.Equal(t, []string{"gpio", "uart"}, initLog)

	m.InitDrivers(&hw)
	m.InitDrivers(&proto)
	assert.Len(t, initLog, 2)
}

func TestInitDriversEmptyPhase(t *testing.T) {
	mockPanic(t)
	captureOutput(t)

	var (
		m       Manager
		initLog []string
		proto   = PhaseProtocol
	)

	m.RegisterDriver(DeviceDriver{Description: "gpio", Driver: &mockDriver{name: "gpio", initLog: &initLog}, Phase: PhaseHardware})

	m.InitDrivers(&proto)
	assert.Empty(t, initLog)
}

func TestInitAllPhases(t *testing.T) {
	mockPanic(t)
	captureOutput(t)

	var (
		m       Manager
		initLog []string
	)

	m.RegisterDriver(DeviceDriver{Description: "uart", Driver: &mockDriver{name: "uart", initLog: &initLog}, Phase: PhaseProtocol})
	m.RegisterDriver(DeviceDriver{Description: "gpio", Driver: &mockDriver{name: "gpio", initLog: &initLog}, Phase: PhaseHardware})

	m.InitAllPhases()
	assert.Equal(t, []string{"gpio", "uart"}, initLog, "hardware drivers must complete before protocol drivers start")
}

func TestInitDriversFailure(t *testing.T) {
	calls := mockPanic(t)
	buf := captureOutput(t)

	var (
		m       Manager
		initLog []string
		expErr  = &kernel.Error{Module: "gpio", Message: "no such block"}
	)

	m.RegisterDriver(DeviceDriver{Description: "BCM2711 GPIO", Driver: &mockDriver{name: "gpio", initLog: &initLog, err: expErr}, Phase: PhaseHardware})

	m.InitDrivers(nil)

	require.Len(t, *calls, 1)
	err, ok := (*calls)[0].(*kernel.Error)
	require.True(t, ok)
	assert.Equal(t, "device", err.Module)
	assert.Equal(t, "failed to initialize BCM2711 GPIO", err.Message)
	assert.Contains(t, buf.String(), "[device] gpio(0.1.12): init failed: no such block\n")
	assert.Contains(t, buf.String(), "[device] failed to initialize BCM2711 GPIO\n")
	assert.NotContains(t, buf.String(), "initialized\n")
}

func TestInitDriversQuiet(t *testing.T) {
	calls := mockPanic(t)
	buf := captureOutput(t)

	var (
		m       Manager
		initLog []string
		expErr  = &kernel.Error{Module: "uart", Message: "no clock"}
	)

	m.SetQuiet(true)
	m.RegisterDriver(DeviceDriver{Description: "gpio", Driver: &mockDriver{name: "gpio", initLog: &initLog}, Phase: PhaseHardware})
	m.RegisterDriver(DeviceDriver{Description: "uart", Driver: &mockDriver{name: "uart", initLog: &initLog, err: expErr}, Phase: PhaseProtocol})

	m.InitAllPhases()
	assert.Equal(t, []string{"gpio", "uart"}, initLog)
	require.Len(t, *calls, 1)

	exp := "[device] uart(0.1.12): init failed: no clock\n" +
		"[device] failed to initialize uart\n"
	assert.Equal(t, exp, buf.String(), "only failures may be logged in quiet mode")
}
