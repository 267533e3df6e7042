package compilation

import "github.com/crytic/solship/compilation/types"

// UnitCompiledEvent describes an event where a source unit was compiled, successfully or not.
type UnitCompiledEvent struct {
	// Unit is the source unit which was compiled.
	Unit types.SourceUnit

	// Result is the compiler output for the unit.
	Result *types.CompilationResult
}

// ArtifactPersistedEvent describes an event where an artifact was written to the artifact store.
type ArtifactPersistedEvent struct {
	// Unit is the source unit the artifact was compiled from.
	Unit types.SourceUnit

	// Artifact is the artifact which was written.
	Artifact types.CompiledArtifact
}
