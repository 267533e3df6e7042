package artifacts

import (
	"errors"
	"fmt"
)

// ErrArtifactNotFound is matched (via errors.Is) by every ArtifactNotFoundError.
var ErrArtifactNotFound = errors.New("artifact not found")

// ErrStoreBusy indicates another run currently holds the artifact output directory.
var ErrStoreBusy = errors.New("artifact store is in use by another run")

// ArtifactNotFoundError describes a request for an artifact which was never persisted to the store.
type ArtifactNotFoundError struct {
	// Name is the requested artifact name.
	Name string

	// Directory is the store directory which was searched.
	Directory string
}

// Error returns the error message string, implementing the `error` interface.
func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("artifact '%s' not found in '%s' (has it been compiled?)", e.Name, e.Directory)
}

// Is reports whether the target is ErrArtifactNotFound.
func (e *ArtifactNotFoundError) Is(target error) bool {
	return target == ErrArtifactNotFound
}
