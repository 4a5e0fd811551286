package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gracebooks/gracebooks/internal/model"
)

// Revision describes the command that produced a saved state.
type Revision struct {
	ID        int64     `json:"id"`
	ProfileID string    `json:"profileId"`
	Command   string    `json:"command"`
	Details   string    `json:"details"`
	At        time.Time `json:"at"`
}

// Persister stores the whole AppState. Save must be atomic: after an error
// the previously saved state is still the one Load returns.
type Persister interface {
	Load(ctx context.Context) (*model.AppState, error)
	Save(ctx context.Context, state *model.AppState, rev Revision) error
	Close() error
}

// MemoryPersister keeps the state in memory.
type MemoryPersister struct {
	mu        sync.Mutex
	state     *model.AppState
	revisions []Revision
	// FailSave makes the next Save calls fail with this error.
	FailSave error
}

// NewMemoryPersister returns a persister holding state.
func NewMemoryPersister(state *model.AppState) *MemoryPersister {
	return &MemoryPersister{state: state.Clone()}
}

func (m *MemoryPersister) Load(context.Context) (*model.AppState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), nil
}

func (m *MemoryPersister) Save(_ context.Context, state *model.AppState, rev Revision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.state = state.Clone()
	rev.ID = int64(len(m.revisions) + 1)
	m.revisions = append(m.revisions, rev)
	return nil
}

// Revisions returns the saved revisions, oldest first.
func (m *MemoryPersister) Revisions() []Revision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Revision(nil), m.revisions...)
}

func (m *MemoryPersister) Close() error { return nil }

// JSONFilePersister keeps the state in one JSON document.
type JSONFilePersister struct {
	path string
}

// NewJSONFilePersister stores the state at path.
func NewJSONFilePersister(path string) *JSONFilePersister {
	return &JSONFilePersister{path: path}
}

func (p *JSONFilePersister) Load(context.Context) (*model.AppState, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", p.path, err)
	}
	var state model.AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p.path, err)
	}
	return &state, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the old one.
func (p *JSONFilePersister) Save(_ context.Context, state *model.AppState, _ Revision) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	return WriteFileAtomic(p.path, data)
}

func (p *JSONFilePersister) Close() error { return nil }

// WriteFileAtomic replaces path with data via a temp file and rename.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
