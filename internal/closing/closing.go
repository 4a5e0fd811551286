// Package closing builds month-end closing vouchers that move income and
// expense balances into the year's equity account.
package closing

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/ledger"
	"github.com/gracebooks/gracebooks/internal/model"
)

var (
	ErrNothingToClose       = errors.New("no income or expense balances to close")
	ErrEquityAccountMissing = errors.New("equity account for closing year not found")
	ErrAlreadyClosed        = errors.New("month is already closed")
)

// Options locate the equity account that receives a year's net income:
// account EquityBase + (year - BaseYear).
type Options struct {
	EquityBase int
	BaseYear   int
	Tolerance  decimal.Decimal
}

// DefaultOptions returns 3112 for 2020, 3113 for 2021, and so on.
func DefaultOptions() Options {
	return Options{EquityBase: 3112, BaseYear: 2020, Tolerance: model.DefaultTolerance}
}

// EquityAccountID returns the equity account for year.
func (o Options) EquityAccountID(year int) string {
	return strconv.Itoa(o.EquityBase + year - o.BaseYear)
}

// AccountLookup resolves account IDs against the chart of accounts.
type AccountLookup interface {
	All() []model.Account
	Exists(id string) bool
}

// ClosedMonths returns the YYYY-MM months that contain a closing entry.
func ClosedMonths(entries []model.JournalEntry) map[string]bool {
	out := make(map[string]bool)
	for _, e := range entries {
		if e.IsClosing() {
			out[e.Month()] = true
		}
	}
	return out
}

// AvailableMonths returns months with income or expense activity that have
// not been closed, newest first.
func AvailableMonths(entries []model.JournalEntry) []string {
	closed := ClosedMonths(entries)
	seen := make(map[string]bool)
	var months []string
	for _, e := range entries {
		m := e.Month()
		if seen[m] || closed[m] || !hasProfitAndLoss(e) {
			continue
		}
		seen[m] = true
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

func hasProfitAndLoss(e model.JournalEntry) bool {
	for _, l := range e.Lines {
		if model.IsProfitAndLoss(l.AccountID) {
			return true
		}
	}
	return false
}

// Close builds the closing entry for month ("YYYY-MM"). It does not modify
// entries; the caller adds the result to the journal.
func Close(month string, accounts AccountLookup, entries []model.JournalEntry, opts Options) (model.JournalEntry, error) {
	year, mon, err := model.ParseMonth(month)
	if err != nil {
		return model.JournalEntry{}, err
	}
	if ClosedMonths(entries)[month] {
		return model.JournalEntry{}, fmt.Errorf("%w: %s", ErrAlreadyClosed, month)
	}

	balances := ledger.Balances(entries, ledger.Filter{
		From:     month + "-01",
		To:       model.MonthEnd(year, mon),
		Prefixes: []string{"4", "5", "6", "7"},
	})

	pl := make([]model.Account, 0)
	for _, a := range accounts.All() {
		if model.IsProfitAndLoss(a.ID) {
			pl = append(pl, a)
		}
	}
	sort.Slice(pl, func(i, j int) bool { return pl[i].ID < pl[j].ID })

	var lines []model.JournalLine
	netIncome := decimal.Zero
	for _, a := range pl {
		bal := balances[a.ID]
		if ledger.IsZero(bal, opts.Tolerance) {
			continue
		}
		if bal.IsPositive() {
			lines = append(lines, model.JournalLine{AccountID: a.ID, Memo: model.ClosingMemo, Credit: bal})
		} else {
			lines = append(lines, model.JournalLine{AccountID: a.ID, Memo: model.ClosingMemo, Debit: bal.Neg()})
		}
		netIncome = netIncome.Sub(bal)
	}
	if len(lines) == 0 {
		return model.JournalEntry{}, fmt.Errorf("%w: %s", ErrNothingToClose, month)
	}

	equityID := opts.EquityAccountID(year)
	if !accounts.Exists(equityID) {
		return model.JournalEntry{}, fmt.Errorf("%w: %s (year %d)", ErrEquityAccountMissing, equityID, year)
	}
	switch {
	case netIncome.IsPositive():
		lines = append(lines, model.JournalLine{AccountID: equityID, Memo: model.ClosingMemo, Credit: netIncome})
	case netIncome.IsNegative():
		lines = append(lines, model.JournalLine{AccountID: equityID, Memo: model.ClosingMemo, Debit: netIncome.Neg()})
	}

	date := model.MonthEnd(year, mon)
	return model.JournalEntry{
		ID:    journal.NextVoucherID(entries, date),
		Date:  date,
		Kind:  model.KindClosing,
		Lines: lines,
	}, nil
}
