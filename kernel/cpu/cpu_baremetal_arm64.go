//go:build baremetal && arm64

package cpu

// Halt parks the core in a wait-for-event loop. It never returns.
func Halt()
