package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTestSources writes the provided source units (file name to source text) into a fresh "contracts" directory
// under an ephemeral test directory and returns the directory path.
func WriteTestSources(t *testing.T, sources map[string]string) string {
	sourceDirectory := filepath.Join(t.TempDir(), "contracts")
	require.NoError(t, os.MkdirAll(sourceDirectory, 0755))

	for fileName, source := range sources {
		err := os.WriteFile(filepath.Join(sourceDirectory, fileName), []byte(source), 0644)
		require.NoError(t, err)
	}
	return sourceDirectory
}

// ExecuteInDirectory executes the given method in a given test directory. It changes the current working directory
// to the directory specified, runs the provided method, then restores the working directory. This wraps tests so
// any file artifacts generated do not end up in the codebase directories.
func ExecuteInDirectory(t *testing.T, testPath string, method func()) {
	// Backup our old working directory
	cwd, err := os.Getwd()
	require.NoError(t, err)

	// Check if the test path refers to a file or directory, as we'll want to change our working directory to a
	// directory path.
	testPathInfo, err := os.Stat(testPath)
	require.NoError(t, err)

	// Ensure we obtained a directory from our path
	testDirectory := testPath
	if !testPathInfo.IsDir() {
		testDirectory = filepath.Dir(testPath)
	}

	// Change our working directory to the test directory
	err = os.Chdir(testDirectory)
	require.NoError(t, err)

	// Restore our working directory even if the method fails the test (we must leave the test directory or else
	// clean up will fail post testing)
	defer func() {
		require.NoError(t, os.Chdir(cwd))
	}()

	// Execute the given method
	method()
}
