package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// MakeDirectory creates a directory at the given path, including any parent directories which do not exist.
// Returns an error, if one occurred.
func MakeDirectory(dirToMake string) error {
	dirInfo, err := os.Stat(dirToMake)
	if err != nil {
		// Directory does not exist, as expected.
		if os.IsNotExist(err) {
			return errors.WithStack(os.MkdirAll(dirToMake, 0755))
		}
		// Some other sort of error, throw it
		return errors.WithStack(err)
	}

	// dirToMake is a file, throw an error accordingly
	if !dirInfo.IsDir() {
		return fmt.Errorf("cannot create directory '%s' because a file with the same name exists", dirToMake)
	}
	return nil
}

// DeleteDirectory deletes a directory at the provided path. Returns an error if one occurred.
func DeleteDirectory(directoryPath string) error {
	// Get information on the directory
	dirInfo, err := os.Stat(directoryPath)
	if err != nil {
		// If the directory does not exist, nothing needs to be done
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WithStack(err)
	}

	// Make sure the path is a directory and not a file
	if !dirInfo.IsDir() {
		return fmt.Errorf("cannot delete directory '%s' as the provided path refers to a file", directoryPath)
	}
	return errors.WithStack(os.RemoveAll(directoryPath))
}

// ResetDirectory deletes the directory at the provided path along with all of its contents, then recreates it empty.
func ResetDirectory(directoryPath string) error {
	if err := DeleteDirectory(directoryPath); err != nil {
		return err
	}
	return MakeDirectory(directoryPath)
}

// WriteFileAtomic writes data to a temporary file next to the target path and renames it over the target, so readers
// never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	// Ensure the parent directory exists
	if err := MakeDirectory(filepath.Dir(path)); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.WithStack(err)
	}
	tmpPath := tmp.Name()

	// Write and flush our data, cleaning up the temporary file on any failure
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, perm)
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return errors.WithStack(err)
	}
	return nil
}

// ListFilesWithExtension returns the names of regular files directly within the provided directory whose extension
// matches the one provided (case-insensitive). An empty extension matches every file. Results are sorted
// lexicographically so callers observe a deterministic order.
func ListFilesWithExtension(directoryPath string, extension string) ([]string, error) {
	dirEntries, err := os.ReadDir(directoryPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	fileNames := make([]string, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if !dirEntry.Type().IsRegular() {
			continue
		}
		if extension != "" && !strings.EqualFold(filepath.Ext(dirEntry.Name()), extension) {
			continue
		}
		fileNames = append(fileNames, dirEntry.Name())
	}
	slices.Sort(fileNames)
	return fileNames, nil
}

// GetFileNameWithoutExtension obtains a filename without the extension. This does not contain any preceding directory
// paths.
func GetFileNameWithoutExtension(filePath string) string {
	base := filepath.Base(filePath)
	return base[:len(base)-len(filepath.Ext(base))]
}
