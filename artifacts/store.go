package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/crytic/solship/compilation/types"
	"github.com/crytic/solship/utils"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// artifactFileExtension is the extension of every record written by a Store.
const artifactFileExtension = ".json"

// Store persists compiled artifacts as one JSON record per artifact within a single output directory. The directory
// is owned by the store: Reset destroys everything within it.
type Store struct {
	// directory is the output directory holding artifact records.
	directory string

	// runLock prevents two runs within the same process from using the store at once.
	runLock sync.Mutex

	// fileLock prevents two processes from using the same output directory at once.
	fileLock *flock.Flock
}

// NewStore returns a Store writing artifacts to the provided directory. Nothing is created on disk until the store is
// locked, reset or written to.
func NewStore(directory string) *Store {
	directory = filepath.Clean(directory)
	return &Store{
		directory: directory,
		fileLock:  flock.New(directory + ".lock"),
	}
}

// Directory returns the output directory of the store.
func (s *Store) Directory() string {
	return s.directory
}

// Lock acquires exclusive use of the output directory for a run. It never blocks: if the directory is held by another
// run, in this process or another, ErrStoreBusy is returned.
func (s *Store) Lock() error {
	if !s.runLock.TryLock() {
		return ErrStoreBusy
	}

	// The lock file lives next to the directory so Reset can remove the directory while it is held.
	if err := utils.MakeDirectory(filepath.Dir(s.directory)); err != nil {
		s.runLock.Unlock()
		return err
	}
	locked, err := s.fileLock.TryLock()
	if err != nil {
		s.runLock.Unlock()
		return errors.WithStack(err)
	}
	if !locked {
		s.runLock.Unlock()
		return fmt.Errorf("%w: '%s' is locked", ErrStoreBusy, s.fileLock.Path())
	}
	return nil
}

// Unlock releases the output directory acquired with Lock.
func (s *Store) Unlock() error {
	defer s.runLock.Unlock()
	return errors.WithStack(s.fileLock.Unlock())
}

// Reset destroys and recreates the output directory so no record from a previous run survives.
func (s *Store) Reset() error {
	return utils.ResetDirectory(s.directory)
}

// Put writes the artifact under the provided name, replacing any existing record with that name. The record is
// written atomically and equal artifacts always produce identical bytes.
func (s *Store) Put(name string, artifact types.CompiledArtifact) error {
	path, err := s.artifactPath(name)
	if err != nil {
		return err
	}

	b, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, b, 0644)
}

// Get reads the artifact stored under the provided name. If no such record exists, an *ArtifactNotFoundError is
// returned.
func (s *Store) Get(name string) (*types.CompiledArtifact, error) {
	path, err := s.artifactPath(name)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ArtifactNotFoundError{Name: name, Directory: s.directory}
		}
		return nil, errors.WithStack(err)
	}

	artifact := &types.CompiledArtifact{}
	if err = json.Unmarshal(b, artifact); err != nil {
		return nil, fmt.Errorf("could not parse artifact '%s': %v", name, err)
	}
	artifact.Name = name
	return artifact, nil
}

// List returns the names of every artifact in the store, sorted lexicographically. A store whose directory does not
// exist yet is empty.
func (s *Store) List() ([]string, error) {
	fileNames, err := utils.ListFilesWithExtension(s.directory, artifactFileExtension)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return []string{}, nil
		}
		return nil, err
	}
	return utils.SliceSelect(fileNames, utils.GetFileNameWithoutExtension), nil
}

// artifactPath returns the record path for an artifact name, rejecting names which would escape the directory.
func (s *Store) artifactPath(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid artifact name '%s'", name)
	}
	return filepath.Join(s.directory, name+artifactFileExtension), nil
}
