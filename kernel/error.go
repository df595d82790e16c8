package kernel

// Error describes a kernel error. Kernel errors are declared as package-level
// pointers to Error values so that reporting them never needs the allocator
// (errors.New and fmt.Errorf are off limits this early in the boot).
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
