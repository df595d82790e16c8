// Package mmio overlays typed register layouts onto peripheral blocks in the
// physical address space.
//
// A layout is a plain Go struct made of Reg32, RO32 and WO32 fields plus
// blank uint32 words for reserved gaps; its field offsets must match the
// hardware block word for word. Map places such a layout at a peripheral base
// address and hands back an Overlay that owns the block until released.
package mmio

// AccessMode identifies one of the address conventions under which the
// BCM2711 memory controller presents its peripherals.
type AccessMode uint8

const (
	// ModeLegacy is the 32-bit view used by the legacy peripherals.
	ModeLegacy AccessMode = iota

	// ModeLow is the view with the VPU "low peripheral" mode enabled.
	ModeLow

	// ModeFull is the 35-bit view used by large-address masters (e.g. DMA4).
	ModeFull

	numModes
)

// CurrentMode is the convention the kernel is running under. It is fixed at
// build time; nothing probes the memory controller for it.
const CurrentMode = ModeLegacy

// DriverMode is the convention peripheral base addresses are expressed in.
const DriverMode = ModeLow

const (
	lowOffset     = 0x8000_0000
	fullLowOffset = 0x3_8000_0000
	fullOffset    = 0x4_0000_0000
)

// modeOffsets[target][current] is added to an address seen under current to
// obtain the same location under target. Every pair is listed.
var modeOffsets = [numModes][numModes]int64{
	ModeLegacy: {
		ModeLegacy: 0,
		ModeLow:    -lowOffset,
		ModeFull:   fullOffset,
	},
	ModeLow: {
		ModeLegacy: lowOffset,
		ModeLow:    0,
		ModeFull:   fullLowOffset,
	},
	ModeFull: {
		ModeLegacy: -fullOffset,
		ModeLow:    -fullLowOffset,
		ModeFull:   0,
	},
}

// Translate converts addr, as seen under the current mode, into the address of
// the same location under the target mode. Arithmetic wraps, so translating
// back always restores the original address.
func Translate(target, current AccessMode, addr uint64) uint64 {
	return addr + uint64(modeOffsets[target][current])
}
