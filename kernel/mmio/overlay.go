package mmio

import (
	"unsafe"

	"github.com/bmeneg/LapwingOS/kernel"
	"github.com/bmeneg/LapwingOS/kernel/kfmt"
)

// maxClaims bounds the number of blocks that can be owned at the same time.
const maxClaims = 8

var (
	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	errRegionClaimed = &kernel.Error{Module: "mmio", Message: "peripheral block already owned by another overlay"}
	errTooManyClaims = &kernel.Error{Module: "mmio", Message: "claim table full"}
)

type claim struct {
	start, end uint64
}

// claimTable records which translated physical ranges are owned by an
// overlay. It is a fixed array so claiming never allocates.
type claimTable struct {
	entries [maxClaims]claim
	count   int
}

func (t *claimTable) overlaps(start, end uint64) bool {
	for i := 0; i < t.count; i++ {
		if start < t.entries[i].end && t.entries[i].start < end {
			return true
		}
	}
	return false
}

func (t *claimTable) add(start, end uint64) *kernel.Error {
	switch {
	case t.overlaps(start, end):
		return errRegionClaimed
	case t.count == maxClaims:
		return errTooManyClaims
	}

	t.entries[t.count] = claim{start: start, end: end}
	t.count++
	return nil
}

func (t *claimTable) remove(start uint64) {
	for i := 0; i < t.count; i++ {
		if t.entries[i].start != start {
			continue
		}

		copy(t.entries[i:t.count], t.entries[i+1:t.count])
		t.count--
		t.entries[t.count] = claim{}
		return
	}
}

// Overlay is the owning handle of a peripheral block viewed through layout T.
// At most one overlay can own a given block at a time; mapping a block that
// overlaps an owned one is a fatal programming error.
//
// Overlays must not be copied: pass the pointer returned by Map around.
type Overlay[T any] struct {
	addr uint64
	size uintptr
	regs *T
}

// Map claims the peripheral block whose base address is given in DriverMode
// and returns an overlay for it. The base is translated to CurrentMode first.
func Map[T any](base uint64) *Overlay[T] {
	var layout T

	addr := Translate(DriverMode, CurrentMode, base)
	size := unsafe.Sizeof(layout)

	if err := claims.add(addr, addr+uint64(size)); err != nil {
		panicFn(err)
		return nil
	}

	return &Overlay[T]{
		addr: addr,
		size: size,
		regs: (*T)(space.Map(addr, size)),
	}
}

// Regs returns the live register view. Every field access goes straight to
// the hardware.
func (o *Overlay[T]) Regs() *T {
	return o.regs
}

// Addr returns the translated physical address of the block.
func (o *Overlay[T]) Addr() uint64 {
	return o.addr
}

// Size returns the size of the block in bytes.
func (o *Overlay[T]) Size() uintptr {
	return o.size
}

// Release gives up ownership of the block. The overlay is unusable afterwards.
func (o *Overlay[T]) Release() {
	if o.regs == nil {
		return
	}

	claims.remove(o.addr)
	o.regs = nil
}
