package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
)

// ErrInvalidEventKey is returned for event keys that can't be used in a file name
var ErrInvalidEventKey = errors.New("invalid event key")

var eventKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Storage handles persistence of snapshots and change logs
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// ExpandHome expands a leading ~/ to the user's home directory
func ExpandHome(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// DataDir returns the resolved data directory
func (s *Storage) DataDir() string {
	return s.dataDir
}

// path returns the path of one of an event's files
func (s *Storage) path(kind, eventKey, ext string) (string, error) {
	if !eventKeyPattern.MatchString(eventKey) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventKey, eventKey)
	}
	return filepath.Join(s.dataDir, fmt.Sprintf("%s_%s.%s", kind, eventKey, ext)), nil
}

// LoadSnapshot loads an event's current snapshot from disk
func (s *Storage) LoadSnapshot(eventKey string) (*entrant.Snapshot, error) {
	path, err := s.path("entrants", eventKey, "json")
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No previous snapshot, return empty one
			return entrant.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot entrant.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	// Ensure Entrants map is initialized
	if snapshot.Entrants == nil {
		snapshot.Entrants = make(map[string]*entrant.Entrant)
	}

	return &snapshot, nil
}

// SaveSnapshot replaces an event's current snapshot
func (s *Storage) SaveSnapshot(eventKey string, snapshot *entrant.Snapshot) error {
	path, err := s.path("entrants", eventKey, "json")
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// CommitRun persists one run: the change record first, then the new snapshot.
// A run that fails persists nothing. If the change log can't be written the
// old snapshot stays, and if the snapshot can't be written the change log is
// rolled back, so the next run diffs against the same baseline exactly once.
func (s *Storage) CommitRun(eventKey string, record *entrant.ChangeRecord, current *entrant.Snapshot) error {
	state, err := s.appendChange(eventKey, record)
	if err != nil {
		return err
	}
	if err := s.SaveSnapshot(eventKey, current); err != nil {
		if rerr := state.rollback(); rerr != nil {
			return fmt.Errorf("%w (rolling back change log: %v)", err, rerr)
		}
		return err
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in the same directory and renames
// it into place, so readers see either the old or the new content
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
