package types

import "path/filepath"

// SourceUnit represents a single source file discovered for compilation.
type SourceUnit struct {
	// Path describes the path of the source file on disk.
	Path string

	// Source holds the raw source text read from Path.
	Source string
}

// Name returns the file name of the source unit, without any preceding directories.
func (s SourceUnit) Name() string {
	return filepath.Base(s.Path)
}
