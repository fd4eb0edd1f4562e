// Package cache is the local durable copy of the hydration record: one JSON
// document on disk, replaced atomically on every save.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fakeyudi/hydro/internal/hydration"
)

// FileName is the fixed storage key of the cached record inside the data directory.
const FileName = "state.json"

// ErrNoState is returned by Load when nothing has been cached yet.
var ErrNoState = errors.New("no cached state")

// Store persists the hydration record locally.
type Store interface {
	Save(st *hydration.State) error
	Load() (*hydration.State, error) // returns ErrNoState if none exists
	Path() string
}

// diskStore is the concrete Store that writes to a single JSON file.
type diskStore struct {
	path string
}

// NewStore returns a Store backed by path. An empty path selects
// $XDG_DATA_HOME/hydro/state.json or ~/.local/share/hydro/state.json.
func NewStore(path string) (Store, error) {
	if path == "" {
		dir, err := DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}
		path = filepath.Join(dir, FileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &diskStore{path: path}, nil
}

// DataDir returns the hydro-specific XDG data directory.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "hydro"), nil
}

func (d *diskStore) Path() string { return d.path }

// Save marshals st to JSON and writes it atomically via a temp file + os.Rename.
func (d *diskStore) Save(st *hydration.State) (err error) {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}

	// Temp file in the same directory so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(filepath.Dir(d.path), "state-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist state: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist state: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

// Load reads and unmarshals the cached record.
// Returns ErrNoState if the file does not exist or is empty.
func (d *diskStore) Load() (*hydration.State, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read cached state: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoState
	}

	var st hydration.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse cached state: %w", err)
	}
	return &st, nil
}
