//go:build debug

package debug

// Guard assertions that are expensive to evaluate with `if debug.Enabled {...}`
// so release builds drop them entirely.
const Enabled = true

// Assert panics with message if b is false.
func Assert(b bool, message string) {
	if !b {
		panic(message)
	}
}
