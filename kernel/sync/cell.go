// Package sync provides the holders used for process-wide kernel state during
// bring-up.
//
// None of the types here synchronize anything. They rely on the boot-time
// invariant that a single core runs with interrupts disabled, so accesses
// are naturally serialized. Debug builds verify the parts of that invariant
// that can be observed (no overlapping exclusive borrows).
package sync

import "github.com/bmeneg/LapwingOS/kernel/debug"

// Cell holds a value reachable from package level that is mutated in place.
// The zero value holds the zero T and is ready to use, so a Cell can be
// declared as a package variable without any initialization step.
type Cell[T any] struct {
	data T
}

// NewCell returns a Cell holding v. It is usable in package-level variable
// declarations.
func NewCell[T any](v T) Cell[T] {
	return Cell[T]{data: v}
}

// Inner returns a pointer to the held value.
func (c *Cell[T]) Inner() *T {
	return &c.data
}

// Set replaces the held value.
func (c *Cell[T]) Set(v T) {
	c.data = v
}

// Exclusive holds a value that is handed out to one borrower at a time. The
// borrow is tracked at runtime; overlapping borrows trip a debug assertion.
type Exclusive[T any] struct {
	data     T
	borrowed bool
}

// Borrow returns a pointer to the held value. The caller must hand it back
// with Return before anyone else borrows it.
func (e *Exclusive[T]) Borrow() *T {
	debug.Assert(!e.borrowed, "sync: exclusive value borrowed twice")
	e.borrowed = true
	return &e.data
}

// Return ends the current borrow.
func (e *Exclusive[T]) Return() {
	debug.Assert(e.borrowed, "sync: returning a value that was not borrowed")
	e.borrowed = false
}

// Borrowed reports whether the value is currently borrowed.
func (e *Exclusive[T]) Borrowed() bool {
	return e.borrowed
}

// With borrows the value for the duration of fn.
func (e *Exclusive[T]) With(fn func(*T)) {
	v := e.Borrow()
	defer e.Return()
	fn(v)
}
