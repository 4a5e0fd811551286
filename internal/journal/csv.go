package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gracebooks/gracebooks/internal/model"
)

// Header is the CSV header for journal exports. Each row is one line;
// rows sharing a voucher_id form one entry.
const Header = "date,voucher_id,kind,account_id,memo,debit,credit"

const (
	numFields  = 7
	colDate    = 0
	colID      = 1
	colKind    = 2
	colAcctID  = 3
	colMemo    = 4
	colDebit   = 5
	colCredit  = 6
	amountFrac = 2
)

// ReadEntries reads a journal CSV and regroups rows into entries in
// first-seen order.
func ReadEntries(r io.Reader) ([]model.JournalEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []model.JournalEntry
	index := make(map[string]int)
	for i, rec := range records[1:] {
		e, line, err := UnmarshalLine(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if j, ok := index[e.ID]; ok {
			entries[j].Lines = append(entries[j].Lines, line)
			continue
		}
		index[e.ID] = len(entries)
		e.Lines = []model.JournalLine{line}
		entries = append(entries, e)
	}
	for i := range entries {
		entries[i].Normalize()
	}
	return entries, nil
}

// WriteEntries writes entries to a journal CSV (including header).
func WriteEntries(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, e := range entries {
		for _, l := range e.Lines {
			if err := cw.Write(MarshalLine(e, l)); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLine converts one line of an entry to a CSV row.
func MarshalLine(e model.JournalEntry, l model.JournalLine) []string {
	row := make([]string, numFields)
	row[colDate] = e.Date
	row[colID] = e.ID
	row[colKind] = string(e.Kind)
	row[colAcctID] = l.AccountID
	row[colMemo] = l.Memo
	if !l.Debit.IsZero() {
		row[colDebit] = l.Debit.StringFixed(amountFrac)
	}
	if !l.Credit.IsZero() {
		row[colCredit] = l.Credit.StringFixed(amountFrac)
	}
	return row
}

// UnmarshalLine converts a CSV row to an entry header and its line.
func UnmarshalLine(record []string) (model.JournalEntry, model.JournalLine, error) {
	if len(record) != numFields {
		return model.JournalEntry{}, model.JournalLine{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if _, err := model.ParseDate(record[colDate]); err != nil {
		return model.JournalEntry{}, model.JournalLine{}, err
	}

	debit, err := parseAmount(record[colDebit])
	if err != nil {
		return model.JournalEntry{}, model.JournalLine{}, fmt.Errorf("debit: %w", err)
	}
	credit, err := parseAmount(record[colCredit])
	if err != nil {
		return model.JournalEntry{}, model.JournalLine{}, fmt.Errorf("credit: %w", err)
	}

	e := model.JournalEntry{
		ID:   record[colID],
		Date: record[colDate],
		Kind: model.EntryKind(record[colKind]),
	}
	line := model.JournalLine{
		AccountID: record[colAcctID],
		Memo:      record[colMemo],
		Debit:     debit,
		Credit:    credit,
	}
	return e, line, nil
}
