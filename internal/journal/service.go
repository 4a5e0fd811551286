package journal

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/id"
	"github.com/gracebooks/gracebooks/internal/model"
)

var (
	ErrNotFound  = errors.New("journal entry not found")
	ErrDuplicate = errors.New("journal entry id already exists")
)

// Service applies validated edits to a list of journal entries.
type Service struct {
	accounts  AccountChecker
	tolerance decimal.Decimal
}

// NewService creates a journal Service.
func NewService(accounts AccountChecker, tolerance decimal.Decimal) *Service {
	return &Service{accounts: accounts, tolerance: tolerance}
}

// Validate returns nil or an error wrapping ErrInvalid.
func (s *Service) Validate(e model.JournalEntry) error {
	return Errors(ValidateEntry(e, s.accounts, s.tolerance))
}

// Add validates e and returns entries with e inserted in display order.
// An empty ID is assigned the next voucher ID for e.Date. Added entries are
// always regular; closing entries come from the month-end close only.
func (s *Service) Add(entries []model.JournalEntry, e model.JournalEntry) ([]model.JournalEntry, model.JournalEntry, error) {
	if e.ID == "" {
		e.ID = NextVoucherID(entries, e.Date)
	}
	e.Kind = model.KindRegular
	if err := s.Validate(e); err != nil {
		return nil, model.JournalEntry{}, err
	}
	if _, ok := Find(entries, e.ID); ok {
		return nil, model.JournalEntry{}, fmt.Errorf("%w: %s", ErrDuplicate, e.ID)
	}
	out := append(append([]model.JournalEntry(nil), entries...), e)
	Sort(out)
	return out, e, nil
}

// Update validates e and replaces the entry with the same ID. The stored
// entry's kind is kept.
func (s *Service) Update(entries []model.JournalEntry, e model.JournalEntry) ([]model.JournalEntry, error) {
	i, ok := Find(entries, e.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, e.ID)
	}
	e.Kind = entries[i].Kind
	if err := s.Validate(e); err != nil {
		return nil, err
	}
	out := append([]model.JournalEntry(nil), entries...)
	out[i] = e
	Sort(out)
	return out, nil
}

// Delete removes the entry with the given ID.
func Delete(entries []model.JournalEntry, entryID string) ([]model.JournalEntry, error) {
	i, ok := Find(entries, entryID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, entryID)
	}
	out := append([]model.JournalEntry(nil), entries[:i]...)
	return append(out, entries[i+1:]...), nil
}

// Find returns the index of the entry with the given ID.
func Find(entries []model.JournalEntry, entryID string) (int, bool) {
	for i, e := range entries {
		if e.ID == entryID {
			return i, true
		}
	}
	return -1, false
}

// Sort orders entries newest first: date descending, then ID descending.
func Sort(entries []model.JournalEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].ID > entries[j].ID
	})
}

// NextVoucherID returns the next "YYYYMMDD-NN" voucher ID for date.
func NextVoucherID(entries []model.JournalEntry, date string) string {
	var ids []string
	for _, e := range entries {
		if e.Date == date {
			ids = append(ids, e.ID)
		}
	}
	return id.Next(date, ids)
}

// MergeNew returns existing plus every incoming entry whose ID is not yet
// present, sorted, and the number of incoming entries skipped.
func MergeNew(existing, incoming []model.JournalEntry) ([]model.JournalEntry, int) {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.ID] = true
	}
	out := append([]model.JournalEntry(nil), existing...)
	skipped := 0
	for _, e := range incoming {
		if seen[e.ID] {
			skipped++
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	Sort(out)
	return out, skipped
}

// Years returns the distinct entry years, newest first.
func Years(entries []model.JournalEntry) []int {
	seen := make(map[int]bool)
	var years []int
	for _, e := range entries {
		y := e.Year()
		if y == 0 || seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Months returns the distinct "YYYY-MM" months, newest first.
func Months(entries []model.JournalEntry) []string {
	seen := make(map[string]bool)
	var months []string
	for _, e := range entries {
		m := e.Month()
		if seen[m] {
			continue
		}
		seen[m] = true
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}
