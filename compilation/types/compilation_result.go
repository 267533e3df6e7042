package types

import (
	"encoding/json"
	"strings"
)

// CompilationResult describes the output of compiling a single SourceUnit. A result either carries Errors or
// Contracts. Compilers must not populate both.
type CompilationResult struct {
	// Errors describes the error messages reported by the compiler, in the order they were reported.
	Errors []string

	// Contracts describes every contract emitted for the unit, in a deterministic order.
	Contracts []CompiledUnitContract
}

// CompiledUnitContract describes one contract as reported by the compiler, before it is named and persisted.
type CompiledUnitContract struct {
	// UnitIdentifier is the compiler's identifier for the contract, possibly namespace-prefixed (e.g. "Car.sol:Car"
	// or ":Car").
	UnitIdentifier string

	// Interface is the contract's ABI as emitted by the compiler.
	Interface json.RawMessage

	// Bytecode is the decoded creation bytecode.
	Bytecode []byte
}

// HasErrors indicates whether the compiler reported any errors for the unit.
func (r *CompilationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// FirstError returns the first error reported by the compiler, or an empty string if there were none.
func (r *CompilationResult) FirstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// Artifact converts the compiler output into a CompiledArtifact named after the unit identifier.
func (c CompiledUnitContract) Artifact() CompiledArtifact {
	return CompiledArtifact{
		Name:      ArtifactNameFromUnitIdentifier(c.UnitIdentifier),
		Interface: c.Interface,
		Bytecode:  c.Bytecode,
	}
}

// ArtifactNameFromUnitIdentifier strips any namespace prefix (everything up to and including the last ':') from a
// compiler unit identifier.
func ArtifactNameFromUnitIdentifier(unitIdentifier string) string {
	if idx := strings.LastIndex(unitIdentifier, ":"); idx >= 0 {
		return unitIdentifier[idx+1:]
	}
	return unitIdentifier
}
