package journal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/model"
)

// Rule names the invariant a ValidationError violates.
type Rule string

const (
	RuleMinLines   Rule = "min-lines"
	RuleBalanced   Rule = "balanced"
	RuleOneSide    Rule = "one-side"
	RuleAccount    Rule = "account"
	RuleDate       Rule = "date"
	RuleNegative   Rule = "non-negative"
	RuleDecimals   Rule = "decimals"
	RuleNonZero    Rule = "non-zero"
	RuleVoucherID  Rule = "voucher-id"
	RuleFieldCount Rule = "field-count"
	RuleNumber     Rule = "number"
	RuleKind       Rule = "kind"
)

// ErrInvalid is matched by errors returned from Errors.
var ErrInvalid = errors.New("invalid journal entry")

// ValidationError describes a single invariant violation. Line is 1-based
// and zero when the problem concerns the whole entry.
type ValidationError struct {
	Rule        Rule
	EntryID     string
	Line        int
	Description string
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s [%s line %d]: %s", e.Rule, e.EntryID, e.Line, e.Description)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.EntryID, e.Description)
}

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id string) bool
}

// Errors folds validation errors into a single error wrapping ErrInvalid,
// or returns nil when there are none.
func Errors(verrs []ValidationError) error {
	if len(verrs) == 0 {
		return nil
	}
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

var hundred = decimal.NewFromInt(100)

// ValidateEntry checks a journal entry against the ledger invariants.
// accounts may be nil to skip the account reference check.
func ValidateEntry(e model.JournalEntry, accounts AccountChecker, tol decimal.Decimal) []ValidationError {
	var errs []ValidationError
	add := func(rule Rule, line int, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, EntryID: e.ID, Line: line, Description: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(e.ID) == "" {
		add(RuleVoucherID, 0, "voucher id is required")
	}
	if _, err := model.ParseDate(e.Date); err != nil {
		add(RuleDate, 0, "%v", err)
	}
	switch e.Kind {
	case model.KindRegular, model.KindClosing:
	default:
		add(RuleKind, 0, "unknown entry kind %q", e.Kind)
	}
	if len(e.Lines) < 2 {
		add(RuleMinLines, 0, "entry needs at least 2 lines, has %d", len(e.Lines))
	}

	for i, l := range e.Lines {
		errs = append(errs, ValidateLine(e.ID, i+1, l, accounts)...)
	}

	debit, credit := e.TotalDebit(), e.TotalCredit()
	if debit.Sub(credit).Abs().GreaterThan(tol) {
		add(RuleBalanced, 0, "debits (%s) != credits (%s)", debit.StringFixed(2), credit.StringFixed(2))
	}
	if debit.IsZero() && credit.IsZero() && len(e.Lines) > 0 {
		add(RuleNonZero, 0, "entry total is zero")
	}
	return errs
}

// ValidateLine checks the per-line invariants.
func ValidateLine(entryID string, n int, l model.JournalLine, accounts AccountChecker) []ValidationError {
	var errs []ValidationError
	add := func(rule Rule, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, EntryID: entryID, Line: n, Description: fmt.Sprintf(format, args...)})
	}

	if accounts != nil && !accounts.Exists(l.AccountID) {
		add(RuleAccount, "unknown account %q", l.AccountID)
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		add(RuleNegative, "amounts must not be negative")
	}
	if !l.Debit.IsZero() && !l.Credit.IsZero() {
		add(RuleOneSide, "line must not carry both debit and credit")
	}
	if !isCents(l.Debit) {
		add(RuleDecimals, "debit %s has more than 2 decimal places", l.Debit)
	}
	if !isCents(l.Credit) {
		add(RuleDecimals, "credit %s has more than 2 decimal places", l.Credit)
	}
	return errs
}

func isCents(d decimal.Decimal) bool {
	c := d.Mul(hundred)
	return c.Equal(c.Floor())
}
