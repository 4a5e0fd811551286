package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gracebooks/gracebooks/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profile_data (
	profile_id TEXT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
	data       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revisions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	profile_id TEXT NOT NULL,
	command    TEXT NOT NULL,
	details    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_revisions_profile ON revisions(profile_id, id);
`

const metaActiveProfile = "active_profile_id"

// SQLitePersister stores each profile's data as a JSON document in SQLite
// and keeps one revision row per command.
type SQLitePersister struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (and creates) the database at path in WAL mode.
func OpenSQLite(path string) (*SQLitePersister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &SQLitePersister{db: db, path: path}, nil
}

// Path returns the database file.
func (p *SQLitePersister) Path() string { return p.path }

// Close closes the database.
func (p *SQLitePersister) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Transaction runs fn in a transaction, rolling back on error or panic.
func (p *SQLitePersister) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load reads every profile. An empty database yields nil.
func (p *SQLitePersister) Load(ctx context.Context) (*model.AppState, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(d.data, '')
		FROM profiles p LEFT JOIN profile_data d ON d.profile_id = p.id
		ORDER BY p.position`)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	state := &model.AppState{Data: make(map[string]*model.ProfileData)}
	for rows.Next() {
		var prof model.Profile
		var raw string
		if err := rows.Scan(&prof.ID, &prof.Name, &raw); err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		data := &model.ProfileData{}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), data); err != nil {
				return nil, fmt.Errorf("decoding profile %s: %w", prof.ID, err)
			}
		}
		state.Profiles = append(state.Profiles, prof)
		state.Data[prof.ID] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	if len(state.Profiles) == 0 {
		return nil, nil
	}

	err = p.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaActiveProfile).Scan(&state.ActiveProfileID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("reading active profile: %w", err)
	}
	return state, nil
}

// Save replaces all profiles and records rev, in one transaction.
func (p *SQLitePersister) Save(ctx context.Context, state *model.AppState, rev Revision) error {
	docs := make(map[string][]byte, len(state.Profiles))
	for _, prof := range state.Profiles {
		raw, err := json.Marshal(state.Data[prof.ID])
		if err != nil {
			return fmt.Errorf("encoding profile %s: %w", prof.ID, err)
		}
		docs[prof.ID] = raw
	}
	at := rev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	stamp := at.Format(time.RFC3339)

	return p.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM profiles`); err != nil {
			return fmt.Errorf("clearing profiles: %w", err)
		}
		for i, prof := range state.Profiles {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO profiles (id, name, position) VALUES (?, ?, ?)`,
				prof.ID, prof.Name, i); err != nil {
				return fmt.Errorf("saving profile %s: %w", prof.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO profile_data (profile_id, data, updated_at) VALUES (?, ?, ?)`,
				prof.ID, string(docs[prof.ID]), stamp); err != nil {
				return fmt.Errorf("saving data of profile %s: %w", prof.ID, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			metaActiveProfile, state.ActiveProfileID); err != nil {
			return fmt.Errorf("saving active profile: %w", err)
		}
		if rev.Command != "" {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO revisions (profile_id, command, details, created_at) VALUES (?, ?, ?, ?)`,
				rev.ProfileID, rev.Command, rev.Details, stamp); err != nil {
				return fmt.Errorf("saving revision: %w", err)
			}
		}
		return nil
	})
}

// Revisions returns up to limit revisions of profileID, newest first. An
// empty profileID lists all profiles.
func (p *SQLitePersister) Revisions(ctx context.Context, profileID string, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, profile_id, command, details, created_at
		FROM revisions
		WHERE ? = '' OR profile_id = ?
		ORDER BY id DESC
		LIMIT ?`, profileID, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying revisions: %w", err)
	}
	defer rows.Close()

	var revs []Revision
	for rows.Next() {
		var r Revision
		var at string
		if err := rows.Scan(&r.ID, &r.ProfileID, &r.Command, &r.Details, &at); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		if r.At, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("parsing revision time %q: %w", at, err)
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}
