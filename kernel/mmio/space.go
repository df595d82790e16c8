package mmio

import (
	"sync/atomic"
	"unsafe"
)

// AddressSpace resolves translated physical addresses into pointers the CPU
// can dereference and performs the 32-bit accesses on them.
type AddressSpace interface {
	// Map returns a pointer to size bytes of the address space starting at
	// phys.
	Map(phys uint64, size uintptr) unsafe.Pointer

	// Load32 reads the 32-bit word at p.
	Load32(p *uint32) uint32

	// Store32 writes v to the 32-bit word at p.
	Store32(p *uint32, v uint32)
}

// physical is the address space of the bare machine: the MMU is off, so a
// physical address is directly usable as a pointer.
type physical struct{}

func (physical) Map(phys uint64, _ uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(phys))
}

// Load32 and Store32 use single-copy atomic accesses so that the compiler
// can neither cache, split nor elide them.
func (physical) Load32(p *uint32) uint32     { return atomic.LoadUint32(p) }
func (physical) Store32(p *uint32, v uint32) { atomic.StoreUint32(p, v) }

var (
	// space is the address space every overlay and register goes through.
	space AddressSpace = physical{}

	// claims tracks the blocks currently owned by an overlay in space.
	claims claimTable
)

// Use installs s as the process-wide address space with an empty claim table
// and returns a function that restores the previous space and claims.
//
// Use is meant for the very start of a hosted run (simulator, tests). Any
// overlay mapped before the switch must not be accessed afterwards.
func Use(s AddressSpace) (restore func()) {
	prevSpace, prevClaims := space, claims
	space, claims = s, claimTable{}

	return func() {
		space, claims = prevSpace, prevClaims
	}
}
