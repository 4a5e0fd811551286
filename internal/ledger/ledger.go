// Package ledger folds journal lines into per-account balances.
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/model"
)

// Filter selects the entries and lines that contribute to a balance.
// Zero values select everything.
type Filter struct {
	From           string          // inclusive YYYY-MM-DD
	To             string          // inclusive YYYY-MM-DD
	ExcludeClosing bool            // skip closing entries
	ExcludeMonths  map[string]bool // skip entries in these YYYY-MM months
	Prefixes       []string        // keep only lines whose account has one of these prefixes
}

// Match reports whether an entry passes the date, kind and month filters.
func (f Filter) Match(e model.JournalEntry) bool {
	if f.From != "" && e.Date < f.From {
		return false
	}
	if f.To != "" && e.Date > f.To {
		return false
	}
	if f.ExcludeClosing && e.IsClosing() {
		return false
	}
	if f.ExcludeMonths != nil && f.ExcludeMonths[e.Month()] {
		return false
	}
	return true
}

// MatchLine reports whether a line passes the prefix filter.
func (f Filter) MatchLine(l model.JournalLine) bool {
	return len(f.Prefixes) == 0 || model.HasAnyPrefix(l.AccountID, f.Prefixes...)
}

// Balances returns Σdebit − Σcredit per account over the matching lines.
// Accounts with activity that nets to zero are present with a zero value.
func Balances(entries []model.JournalEntry, f Filter) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if !f.Match(e) {
			continue
		}
		for _, l := range e.Lines {
			if !f.MatchLine(l) {
				continue
			}
			out[l.AccountID] = out[l.AccountID].Add(l.Net())
		}
	}
	return out
}

// Balance returns the balance of a single account.
func Balance(entries []model.JournalEntry, accountID string, f Filter) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if !f.Match(e) {
			continue
		}
		for _, l := range e.Lines {
			if l.AccountID == accountID {
				total = total.Add(l.Net())
			}
		}
	}
	return total
}

// Posting is one line as seen from a single account, for drill-down.
type Posting struct {
	EntryID string          `json:"entryId"`
	Date    string          `json:"date"`
	Memo    string          `json:"memo"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Running decimal.Decimal `json:"running"`
}

// Details returns the contributing postings per account in chronological
// order (date, then entry ID) with a running debit-minus-credit balance.
func Details(entries []model.JournalEntry, f Filter) map[string][]Posting {
	out := make(map[string][]Posting)
	for _, e := range entries {
		if !f.Match(e) {
			continue
		}
		for _, l := range e.Lines {
			if !f.MatchLine(l) {
				continue
			}
			out[l.AccountID] = append(out[l.AccountID], Posting{
				EntryID: e.ID,
				Date:    e.Date,
				Memo:    l.Memo,
				Debit:   l.Debit,
				Credit:  l.Credit,
			})
		}
	}
	for acct, ps := range out {
		sort.SliceStable(ps, func(i, j int) bool {
			if ps[i].Date != ps[j].Date {
				return ps[i].Date < ps[j].Date
			}
			return ps[i].EntryID < ps[j].EntryID
		})
		running := decimal.Zero
		for i := range ps {
			running = running.Add(ps[i].Debit).Sub(ps[i].Credit)
			ps[i].Running = running
		}
		out[acct] = ps
	}
	return out
}

// IsZero reports whether |d| is below tol.
func IsZero(d, tol decimal.Decimal) bool {
	return d.Abs().LessThan(tol)
}
