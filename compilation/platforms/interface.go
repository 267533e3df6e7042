package platforms

import (
	"context"

	"github.com/crytic/solship/compilation/types"
)

// Compiler describes the interface all compilation platforms must implement. A Compiler translates a single source
// unit into a CompilationResult.
//
// Errors in the source are reported through CompilationResult.Errors. The returned error is reserved for failures
// to run the compiler at all (missing binary, unreadable output), which say nothing about the source.
type Compiler interface {
	// Platform returns the identifier of the platform.
	Platform() string

	// Compile compiles the provided source unit. If optimize is set, the compiler's optimizer is enabled.
	Compile(ctx context.Context, unit types.SourceUnit, optimize bool) (*types.CompilationResult, error)
}
