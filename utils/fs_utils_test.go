package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResetDirectory ensures a reset removes every previous entry and leaves an empty directory behind.
func TestResetDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, MakeDirectory(filepath.Join(dir, "nested")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.json"), []byte("{}"), 0644))

	require.NoError(t, ResetDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Resetting a directory which does not exist yet simply creates it.
	missing := filepath.Join(t.TempDir(), "missing")
	require.NoError(t, ResetDirectory(missing))
	assert.DirExists(t, missing)
}

// TestWriteFileAtomic verifies the target is replaced and no temporary files are left behind.
func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "record.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0644))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestListFilesWithExtension checks filtering and ordering of discovered files.
func TestListFilesWithExtension(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.sol", "A.sol", "notes.txt", "c.SOL"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, MakeDirectory(filepath.Join(dir, "d.sol")))

	names, err := ListFilesWithExtension(dir, ".sol")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.sol", "b.sol", "c.SOL"}, names)

	all, err := ListFilesWithExtension(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestGetFileNameWithoutExtension(t *testing.T) {
	assert.Equal(t, "Car", GetFileNameWithoutExtension(filepath.Join("contracts", "Car.sol")))
	assert.Equal(t, "Makefile", GetFileNameWithoutExtension("Makefile"))
}
