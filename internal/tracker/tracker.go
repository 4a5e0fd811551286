// Package tracker derives the auxiliary ledgers that sit beside the journal:
// amortization of prepaid expenses, prepayments, payments received in
// advance, credit-card statements and the salary voucher template.
package tracker

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/ledger"
	"github.com/gracebooks/gracebooks/internal/model"
)

var (
	ErrSynthesized       = errors.New("item is derived from account activity and must be saved first")
	ErrNoExpenseAccount  = errors.New("item has no expense account")
	ErrNothingToGenerate = errors.New("nothing to generate")
	ErrUnbalanced        = errors.New("debits and credits do not balance")
	ErrInvalidItem       = errors.New("invalid tracker item")
	ErrNotFound          = errors.New("tracker item not found")
)

// SyntheticPrefix starts the ID of every view built from account activity
// rather than from a saved item.
const SyntheticPrefix = "syn_"

// IsSynthetic reports whether id names a derived, unsaved item.
func IsSynthetic(id string) bool { return strings.HasPrefix(id, SyntheticPrefix) }

// Options select the tracked accounts.
type Options struct {
	PrepaidLevel3Prefix string // level3 prefix of prepaid-expense accounts
	ReceivedPrefix      string // ID prefix of received-in-advance accounts
	CreditCardPrefix    string // ID prefix of credit-card liability accounts
	AmortizationPeriods int    // periods of a synthesized amortization item
	Tolerance           decimal.Decimal
}

// DefaultOptions match the built-in chart of accounts.
func DefaultOptions() Options {
	return Options{
		PrepaidLevel3Prefix: "142-",
		ReceivedPrefix:      "26",
		CreditCardPrefix:    "241",
		AmortizationPeriods: 12,
		Tolerance:           model.DefaultTolerance,
	}
}

// AccountChecker reports whether an account ID exists.
type AccountChecker interface {
	Exists(id string) bool
}

// View is a tracker row: either a saved item or one synthesized from an
// account that has a balance but no saved item. Synthesized views are never
// persisted.
type View[T any] struct {
	Item        T                `json:"item"`
	Synthesized bool             `json:"synthesized"`
	AccountID   string           `json:"accountId"`
	Balance     decimal.Decimal  `json:"balance"`
	Details     []ledger.Posting `json:"details,omitempty"`
}

// activity is the balance and postings of each account in one pass.
type activity struct {
	balances map[string]decimal.Decimal
	details  map[string][]ledger.Posting
}

func newActivity(entries []model.JournalEntry) activity {
	return activity{
		balances: ledger.Balances(entries, ledger.Filter{}),
		details:  ledger.Details(entries, ledger.Filter{}),
	}
}

func (a activity) firstDebit(account string) (ledger.Posting, bool) {
	for _, p := range a.details[account] {
		if p.Debit.IsPositive() {
			return p, true
		}
	}
	return ledger.Posting{}, false
}
