// Package backup writes and restores profile backups: the chart of accounts
// and the journal, optionally with every tracker section.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/model"
)

// ErrFormat is returned for documents without accounts or journal entries.
var ErrFormat = errors.New("backup is missing accounts or journal entries")

// Mode selects how one section of a backup is restored.
type Mode string

const (
	Skip      Mode = ""
	Merge     Mode = "merge"     // keep current records, add those with new IDs
	Overwrite Mode = "overwrite" // replace the section with the backup's
)

// ParseMode accepts "merge", "overwrite" or "skip".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "merge":
		return Merge, nil
	case "overwrite":
		return Overwrite, nil
	case "skip", "":
		return Skip, nil
	}
	return Skip, fmt.Errorf("unknown restore mode %q (want merge, overwrite or skip)", s)
}

// Options choose a mode per section. Trackers covers credit cards,
// amortization, prepayments, received payments, memos and the salary
// template, and only applies to full backups.
type Options struct {
	Accounts Mode
	Journal  Mode
	Trackers Mode
}

// Counts reports what one section restore did.
type Counts struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Result reports a restore per section.
type Result struct {
	Accounts Counts `json:"accounts"`
	Journal  Counts `json:"journal"`
	Trackers Counts `json:"trackers"`
}

// FileName is the conventional name of a backup taken at t.
func FileName(t time.Time) string {
	return "accounting-backup-" + t.Format("2006-01-02") + ".json"
}

// Export writes the accounts and journal entries of d.
func Export(w io.Writer, d *model.ProfileData) error {
	doc := struct {
		Accounts       []model.Account      `json:"accounts"`
		JournalEntries []model.JournalEntry `json:"journalEntries"`
	}{nonNil(d.Accounts), nonNil(d.JournalEntries)}
	return encode(w, doc)
}

// ExportFull writes every section of d.
func ExportFull(w io.Writer, d *model.ProfileData) error {
	full := *d
	full.Accounts = nonNil(full.Accounts)
	full.JournalEntries = nonNil(full.JournalEntries)
	return encode(w, full)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Read decodes a backup. Both accounts and journalEntries must be arrays.
func Read(r io.Reader) (*model.ProfileData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading backup: %w", err)
	}
	var probe struct {
		Accounts       json.RawMessage `json:"accounts"`
		JournalEntries json.RawMessage `json:"journalEntries"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("parsing backup: %w", err)
	}
	if !isArray(probe.Accounts) || !isArray(probe.JournalEntries) {
		return nil, ErrFormat
	}
	var d model.ProfileData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing backup: %w", err)
	}
	return &d, nil
}

func isArray(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("["))
}

// Restore applies doc to a copy of current and returns it. Incoming journal
// entries are validated against the resulting chart and any invalid entry
// aborts the restore. A result that references accounts missing from its
// chart, such as entries kept across an accounts overwrite, fails with
// accounts.ErrDangling.
func Restore(current, doc *model.ProfileData, opts Options, tol decimal.Decimal) (*model.ProfileData, Result, error) {
	out := current.Clone()
	if out == nil {
		out = &model.ProfileData{}
	}
	var res Result

	switch opts.Accounts {
	case Overwrite:
		out.Accounts = append([]model.Account(nil), doc.Accounts...)
		res.Accounts.Added = len(doc.Accounts)
	case Merge:
		out.Accounts, res.Accounts = mergeByID(out.Accounts, doc.Accounts, func(a model.Account) string { return a.ID })
	}

	if opts.Journal != Skip {
		incoming := make([]model.JournalEntry, len(doc.JournalEntries))
		for i, e := range doc.JournalEntries {
			e = e.Clone()
			e.Normalize()
			incoming[i] = e
		}
		if err := validateEntries(incoming, accounts.NewRegistry(out.Accounts), tol); err != nil {
			return nil, Result{}, err
		}
		switch opts.Journal {
		case Overwrite:
			out.JournalEntries = incoming
			journal.Sort(out.JournalEntries)
			res.Journal.Added = len(incoming)
		case Merge:
			var skipped int
			before := len(out.JournalEntries)
			out.JournalEntries, skipped = journal.MergeNew(out.JournalEntries, incoming)
			res.Journal = Counts{Added: len(out.JournalEntries) - before, Skipped: skipped}
		}
	}

	if opts.Trackers != Skip {
		res.Trackers = restoreTrackers(out, doc, opts.Trackers)
	}
	if err := accounts.CheckReferences(out); err != nil {
		return nil, Result{}, fmt.Errorf("restoring backup: %w", err)
	}
	return out, res, nil
}

func validateEntries(entries []model.JournalEntry, reg *accounts.Registry, tol decimal.Decimal) error {
	var verrs []journal.ValidationError
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			verrs = append(verrs, journal.ValidationError{Rule: journal.RuleVoucherID, EntryID: e.ID, Description: "duplicate voucher id in backup"})
		}
		seen[e.ID] = true
		verrs = append(verrs, journal.ValidateEntry(e, reg, tol)...)
	}
	if err := journal.Errors(verrs); err != nil {
		return fmt.Errorf("restoring journal: %w", err)
	}
	return nil
}

func restoreTrackers(out, doc *model.ProfileData, mode Mode) Counts {
	var total Counts
	add := func(c Counts) {
		total.Added += c.Added
		total.Skipped += c.Skipped
	}
	if mode == Overwrite {
		out.CreditCardLedgers = append([]model.CreditCardLedger(nil), doc.CreditCardLedgers...)
		out.AmortizationItems = append([]model.AmortizationItem(nil), doc.AmortizationItems...)
		out.PrepaymentItems = append([]model.PrepaymentItem(nil), doc.PrepaymentItems...)
		out.ReceivedPaymentItems = append([]model.ReceivedPaymentItem(nil), doc.ReceivedPaymentItems...)
		out.ManagedMemos = append([]model.ManagedMemo(nil), doc.ManagedMemos...)
		if len(doc.SalaryLedger) > 0 {
			out.SalaryLedger = append([]model.SalaryLine(nil), doc.SalaryLedger...)
		}
		total.Added = len(doc.CreditCardLedgers) + len(doc.AmortizationItems) + len(doc.PrepaymentItems) +
			len(doc.ReceivedPaymentItems) + len(doc.ManagedMemos)
		return total
	}

	var c Counts
	out.CreditCardLedgers, c = mergeByID(out.CreditCardLedgers, doc.CreditCardLedgers, func(l model.CreditCardLedger) string { return l.ID })
	add(c)
	out.AmortizationItems, c = mergeByID(out.AmortizationItems, doc.AmortizationItems, func(i model.AmortizationItem) string { return i.ID })
	add(c)
	out.PrepaymentItems, c = mergeByID(out.PrepaymentItems, doc.PrepaymentItems, func(i model.PrepaymentItem) string { return i.ID })
	add(c)
	out.ReceivedPaymentItems, c = mergeByID(out.ReceivedPaymentItems, doc.ReceivedPaymentItems, func(i model.ReceivedPaymentItem) string { return i.ID })
	add(c)
	out.ManagedMemos, c = mergeByID(out.ManagedMemos, doc.ManagedMemos, func(m model.ManagedMemo) string { return m.ID })
	add(c)
	return total
}

// mergeByID appends the incoming items whose key is not present yet.
func mergeByID[T any](current, incoming []T, key func(T) string) ([]T, Counts) {
	seen := make(map[string]bool, len(current))
	for _, it := range current {
		seen[key(it)] = true
	}
	out := append([]T(nil), current...)
	var c Counts
	for _, it := range incoming {
		k := key(it)
		if seen[k] {
			c.Skipped++
			continue
		}
		seen[k] = true
		out = append(out, it)
		c.Added++
	}
	return out, c
}
