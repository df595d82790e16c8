package mmio

import "golang.org/x/exp/constraints"

// Field describes a bit field inside a 32-bit register.
type Field struct {
	Offset uint8
	Width  uint8
}

// Mask returns the in-place mask covering the field bits.
func (f Field) Mask() uint32 {
	return (uint32(1)<<f.Width - 1) << f.Offset
}

// Val shifts v into the field position. Bits of v that do not fit in the
// field are dropped.
func (f Field) Val(v uint32) uint32 {
	return (v << f.Offset) & f.Mask()
}

// Get extracts the field value from a full register word.
func (f Field) Get(word uint32) uint32 {
	return (word & f.Mask()) >> f.Offset
}

// FieldValue encodes an enumerated value of any unsigned type into f.
func FieldValue[V constraints.Unsigned](f Field, v V) uint32 {
	return f.Val(uint32(v))
}

// Reg32 is a read-write 32-bit register. Its zero value is meaningless
// outside of an overlay: registers are only ever reached through a layout
// returned by Overlay.Regs.
type Reg32 struct {
	v uint32
}

// Load reads the register.
func (r *Reg32) Load() uint32 { return space.Load32(&r.v) }

// Store writes v to the register.
func (r *Reg32) Store(v uint32) { space.Store32(&r.v, v) }

// LoadField reads the register and extracts f.
func (r *Reg32) LoadField(f Field) uint32 { return f.Get(r.Load()) }

// Modify performs a read-modify-write that replaces the bits of f with v and
// leaves every other bit of the register as it was.
func (r *Reg32) Modify(f Field, v uint32) {
	r.Store(r.Load()&^f.Mask() | f.Val(v))
}

// RO32 is a read-only 32-bit register.
type RO32 struct {
	v uint32
}

// Load reads the register.
func (r *RO32) Load() uint32 { return space.Load32(&r.v) }

// LoadField reads the register and extracts f.
func (r *RO32) LoadField(f Field) uint32 { return f.Get(r.Load()) }

// WO32 is a write-only 32-bit register.
type WO32 struct {
	v uint32
}

// Store writes v to the register.
func (r *WO32) Store(v uint32) { space.Store32(&r.v, v) }
