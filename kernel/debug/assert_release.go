//go:build !debug

// Package debug provides invariant checks that are compiled in with the
// debug build tag and are no-ops otherwise.
//
// The bring-up core relies on preconditions no type can express (one core,
// interrupts off, one owner per singleton). Debug builds check them.
package debug

// Guard assertions that are expensive to evaluate with `if debug.Enabled {...}`
// so release builds drop them entirely.
const Enabled = false

// Assert panics if b is false.
func Assert(b bool, message string) {}
