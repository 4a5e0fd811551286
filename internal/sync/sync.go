// Package sync saves the whole application state to a remote folder and
// restores it from there.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gracebooks/gracebooks/internal/model"
)

// DefaultFileName is the name of the state file on the remote.
const DefaultFileName = "accounting_app_backup.json"

var (
	ErrNoBackup = errors.New("no backup found on the remote")
	ErrNotExist = errors.New("remote file does not exist")
)

// Remote is a flat store of named files.
type Remote interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) ([]byte, error)
	Create(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// document is the remote file layout.
type document struct {
	Profiles []model.Profile                `json:"profiles"`
	Data     map[string]*model.ProfileData `json:"data"`
}

// Save writes the profiles and their data as fileName, replacing any file of
// that name.
func Save(ctx context.Context, r Remote, fileName string, state *model.AppState) error {
	if fileName == "" {
		fileName = DefaultFileName
	}
	doc := document{Profiles: state.Profiles, Data: state.Data}
	if doc.Profiles == nil {
		doc.Profiles = []model.Profile{}
	}
	if doc.Data == nil {
		doc.Data = map[string]*model.ProfileData{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	names, err := r.List(ctx)
	if err != nil {
		return fmt.Errorf("listing remote: %w", err)
	}
	if slices.Contains(names, fileName) {
		if err := r.Delete(ctx, fileName); err != nil {
			return fmt.Errorf("deleting old backup: %w", err)
		}
	}
	if err := r.Create(ctx, fileName, data); err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}
	slog.Info("state saved to remote", "file", fileName, "profiles", len(doc.Profiles), "bytes", len(data))
	return nil
}

// Restore reads fileName from the remote. The first profile becomes active.
func Restore(ctx context.Context, r Remote, fileName string) (*model.AppState, error) {
	if fileName == "" {
		fileName = DefaultFileName
	}
	data, err := r.Get(ctx, fileName)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoBackup, fileName)
		}
		return nil, fmt.Errorf("reading backup: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing backup: %w", err)
	}
	state := &model.AppState{Profiles: doc.Profiles, Data: doc.Data}
	if state.Data == nil {
		state.Data = make(map[string]*model.ProfileData)
	}
	if len(state.Profiles) > 0 {
		state.ActiveProfileID = state.Profiles[0].ID
	}
	slog.Info("state restored from remote", "file", fileName, "profiles", len(state.Profiles))
	return state, nil
}
