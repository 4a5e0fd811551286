// Package activitylog keeps an append-only CSV record of the commands that
// changed a book.
package activitylog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	Profile   string
	Command   string
	Details   string
	EntryID   string
}

// Header is the CSV header for activity.csv.
const Header = "timestamp,profile,command,details,entry_id"

const (
	numFields    = 5
	logDir       = "logs"
	logFile      = "logs/activity.csv"
	colTimestamp = 0
	colProfile   = 1
	colCommand   = 2
	colDetails   = 3
	colEntryID   = 4
)

// Path returns the log file location under dir.
func Path(dir string) string { return filepath.Join(dir, logFile) }

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colProfile] = e.Profile
	row[colCommand] = e.Command
	row[colDetails] = e.Details
	row[colEntryID] = e.EntryID
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	return Entry{
		Timestamp: ts,
		Profile:   record[colProfile],
		Command:   record[colCommand],
		Details:   record[colDetails],
		EntryID:   record[colEntryID],
	}, nil
}

// Logger appends entries under a data directory.
type Logger struct {
	dir string
	now func() time.Time
}

// New returns a Logger writing to <dir>/logs/activity.csv.
func New(dir string) *Logger {
	return &Logger{dir: dir, now: time.Now}
}

// Record appends one entry stamped with the current time.
func (l *Logger) Record(profile, command, details, entryID string) error {
	return Append(l.dir, []Entry{{
		Timestamp: l.now(),
		Profile:   profile,
		Command:   command,
		Details:   details,
		EntryID:   entryID,
	}})
}

// Append writes entries to <dir>/logs/activity.csv, creating the file and
// header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Join(dir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(dir)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries of <dir>/logs/activity.csv, oldest first. A
// missing file yields no entries.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

// Tail returns the last n entries, or all of them when n <= 0.
func Tail(dir string, n int) ([]Entry, error) {
	entries, err := Read(dir)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
