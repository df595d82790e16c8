// Package sim provides an mmio.AddressSpace backed by ordinary Go memory so
// the kernel and its drivers can run hosted: in tests and in the lapwing-sim
// tool.
//
// Blocks are allocated the first time they are mapped and kept for the life
// of the Space, so a block that is released and mapped again keeps its
// register contents, just like real hardware would.
package sim

import (
	"sync/atomic"
	"unsafe"
)

type block struct {
	base  uint64
	words []uint32
}

func (b *block) contains(phys uint64) bool {
	return phys >= b.base && phys < b.base+uint64(len(b.words))*4
}

// hostRange returns the host addresses spanned by the block backing store.
func (b *block) hostRange() (uintptr, uintptr) {
	start := uintptr(unsafe.Pointer(&b.words[0]))
	return start, start + uintptr(len(b.words))*4
}

// Space is a simulated physical address space. It is not safe for concurrent
// use, which matches the single-core execution model of the kernel.
type Space struct {
	blocks []*block

	onStore map[uint64]func(uint32)
	onLoad  map[uint64]func() uint32
}

// New returns an empty Space.
func New() *Space {
	return &Space{
		onStore: make(map[uint64]func(uint32)),
		onLoad:  make(map[uint64]func() uint32),
	}
}

// Map implements mmio.AddressSpace.
func (s *Space) Map(phys uint64, size uintptr) unsafe.Pointer {
	numWords := (int(size) + 3) / 4
	if numWords == 0 {
		numWords = 1
	}

	for _, b := range s.blocks {
		if b.base == phys && len(b.words) >= numWords {
			return unsafe.Pointer(&b.words[0])
		}
	}

	b := &block{base: phys, words: make([]uint32, numWords)}
	s.blocks = append(s.blocks, b)
	return unsafe.Pointer(&b.words[0])
}

// Load32 implements mmio.AddressSpace. If a load hook is registered for the
// word, its result is returned instead of the stored value.
func (s *Space) Load32(p *uint32) uint32 {
	if phys, ok := s.physAddr(p); ok {
		if fn := s.onLoad[phys]; fn != nil {
			return fn()
		}
	}

	return atomic.LoadUint32(p)
}

// Store32 implements mmio.AddressSpace. The value is always stored; a store
// hook registered for the word is invoked afterwards.
func (s *Space) Store32(p *uint32, v uint32) {
	atomic.StoreUint32(p, v)

	if phys, ok := s.physAddr(p); ok {
		if fn := s.onStore[phys]; fn != nil {
			fn(v)
		}
	}
}

// OnStore registers fn to be called with every value stored to the word at
// phys. Passing a nil fn removes the hook.
func (s *Space) OnStore(phys uint64, fn func(uint32)) {
	if fn == nil {
		delete(s.onStore, phys)
		return
	}
	s.onStore[phys] = fn
}

// OnLoad registers fn to supply the value of every load from the word at
// phys. Passing a nil fn removes the hook.
func (s *Space) OnLoad(phys uint64, fn func() uint32) {
	if fn == nil {
		delete(s.onLoad, phys)
		return
	}
	s.onLoad[phys] = fn
}

// Peek returns the word stored at phys without triggering any hook. Reading
// outside of any mapped block returns 0.
func (s *Space) Peek(phys uint64) uint32 {
	if w := s.word(phys); w != nil {
		return atomic.LoadUint32(w)
	}
	return 0
}

// Poke stores v at phys without triggering any hook. It reports whether phys
// falls inside a mapped block.
func (s *Space) Poke(phys uint64, v uint32) bool {
	w := s.word(phys)
	if w == nil {
		return false
	}

	atomic.StoreUint32(w, v)
	return true
}

func (s *Space) word(phys uint64) *uint32 {
	for _, b := range s.blocks {
		if b.contains(phys) {
			return &b.words[(phys-b.base)/4]
		}
	}
	return nil
}

// physAddr maps a host pointer into a backing store back to the physical
// address it simulates.
func (s *Space) physAddr(p *uint32) (uint64, bool) {
	addr := uintptr(unsafe.Pointer(p))
	for _, b := range s.blocks {
		start, end := b.hostRange()
		if addr >= start && addr < end {
			return b.base + uint64(addr-start), true
		}
	}
	return 0, false
}
