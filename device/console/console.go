// Package console defines the system console indirection. Every
// process-wide text output of the kernel goes through the System console,
// which forwards to whatever Device was registered last and to a silent
// Dummy device until then.
package console

import (
	"io"

	"github.com/bmeneg/LapwingOS/kernel/debug"
	"github.com/bmeneg/LapwingOS/kernel/sync"
)

// Device is implemented by drivers that can act as the system console: they
// accept text output and can read a single raw input byte.
type Device interface {
	io.Writer
	io.ByteReader
}

// Poller is implemented by devices that can tell whether ReadByte has a
// byte to return. Devices without it are always considered ready.
type Poller interface {
	Ready() bool
}

// Placeholder is the byte returned by reads from the Dummy console.
const Placeholder = ' '

// Dummy is the console in place before any driver registers one. Writes
// vanish and reads return Placeholder.
type Dummy struct{}

// Write discards p.
func (Dummy) Write(p []byte) (int, error) {
	return len(p), nil
}

// ReadByte returns Placeholder.
func (Dummy) ReadByte() (byte, error) {
	return Placeholder, nil
}

// System is the console indirection. Its zero value forwards to Dummy.
type System struct {
	active     Device
	registered bool

	byteBuf [1]byte
}

// Register makes dev the target of all console I/O. It is expected to be
// called once, by the first driver able to act as a console, during its
// Protocol-phase init. A nil dev is ignored.
func (s *System) Register(dev Device) {
	if dev == nil {
		return
	}

	debug.Assert(!s.registered, "console: system console registered twice")
	s.active = dev
	s.registered = true
}

// Active returns the device currently receiving console I/O.
func (s *System) Active() Device {
	if s.active == nil {
		return Dummy{}
	}
	return s.active
}

// Registered reports whether a real console took over from Dummy.
func (s *System) Registered() bool {
	return s.registered
}

// Write implements io.Writer by forwarding to the active device.
func (s *System) Write(p []byte) (int, error) {
	return s.Active().Write(p)
}

// Ready reports whether the active device has input waiting.
func (s *System) Ready() bool {
	if p, ok := s.Active().(Poller); ok {
		return p.Ready()
	}
	return true
}

// WriteByte sends c to the active device as a raw byte, bypassing any text
// encoding the device applies to Write.
func (s *System) WriteByte(c byte) error {
	if bw, ok := s.Active().(io.ByteWriter); ok {
		return bw.WriteByte(c)
	}

	s.byteBuf[0] = c
	_, err := s.Active().Write(s.byteBuf[:])
	return err
}

// ReadByte implements io.ByteReader by forwarding to the active device.
func (s *System) ReadByte() (byte, error) {
	return s.Active().ReadByte()
}

// system is the process-wide console. Only boot code writes to it.
var system sync.Cell[System]

// Default returns the process-wide system console.
func Default() *System {
	return system.Inner()
}
