//go:build !(baremetal && arm64)

package cpu

// Halt blocks the calling goroutine forever. When the kernel runs hosted (in
// the simulator) this is as close as we get to stopping the core: with no
// other runnable goroutine the Go runtime reports the deadlock and exits.
func Halt() {
	select {}
}
