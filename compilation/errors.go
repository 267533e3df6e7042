package compilation

import "fmt"

// CompileError describes a source unit the compiler rejected. Only the first error reported for the unit is kept.
type CompileError struct {
	// Unit is the file name of the rejected source unit.
	Unit string

	// Message is the first error reported by the compiler.
	Message string
}

// Error returns the error message string, implementing the `error` interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile '%s': %s", e.Unit, e.Message)
}
