package accounts

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gracebooks/gracebooks/internal/model"
)

var (
	// ErrInUse is matched by InUseError.
	ErrInUse = errors.New("account is in use")
	// ErrDangling is matched by DanglingError.
	ErrDangling = errors.New("unknown account referenced")
)

// InUseError lists what still references an account.
type InUseError struct {
	AccountID string
	Refs      []string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("account %s is in use: %s", e.AccountID, strings.Join(e.Refs, ", "))
}

// Is lets errors.Is(err, ErrInUse) match.
func (e *InUseError) Is(target error) bool { return target == ErrInUse }

// DanglingError maps account IDs missing from the chart to what references them.
type DanglingError struct {
	Refs map[string][]string
}

func (e *DanglingError) Error() string {
	ids := make([]string, 0, len(e.Refs))
	for id := range e.Refs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s (%s)", id, strings.Join(e.Refs[id], ", ")))
	}
	return "unknown accounts referenced: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrDangling) match.
func (e *DanglingError) Is(target error) bool { return target == ErrDangling }

// eachRef calls fn for every account reference held in data. Empty IDs
// (unassigned card charges, blank salary lines) are skipped.
func eachRef(data *model.ProfileData, fn func(accountID, ref string)) {
	emit := func(id, ref string) {
		if id != "" {
			fn(id, ref)
		}
	}
	for _, e := range data.JournalEntries {
		seen := map[string]bool{}
		for _, l := range e.Lines {
			if !seen[l.AccountID] {
				seen[l.AccountID] = true
				emit(l.AccountID, "journal "+e.ID)
			}
		}
	}
	for _, l := range data.CreditCardLedgers {
		emit(l.LiabilityAccountID, "credit card "+l.Name)
		for _, t := range l.Transactions {
			emit(t.AccountID, "credit card transaction "+t.Description)
		}
	}
	for _, it := range data.AmortizationItems {
		emit(it.CreditAccountID, "amortization "+it.Description)
		if it.DebitAccountID != it.CreditAccountID {
			emit(it.DebitAccountID, "amortization "+it.Description)
		}
	}
	for _, it := range data.PrepaymentItems {
		emit(it.AssetAccountID, "prepayment "+it.Description)
	}
	for _, it := range data.ReceivedPaymentItems {
		emit(it.LiabilityAccountID, "received payment "+it.Description)
	}
	for i, s := range data.SalaryLedger {
		emit(s.AccountID, fmt.Sprintf("salary line %d", i+1))
	}
}

// CheckInUse returns an *InUseError if anything in data references accountID.
func CheckInUse(accountID string, data *model.ProfileData) error {
	var refs []string
	eachRef(data, func(id, ref string) {
		if id == accountID {
			refs = append(refs, ref)
		}
	})
	if len(refs) == 0 {
		return nil
	}
	return &InUseError{AccountID: accountID, Refs: refs}
}

// CheckReferences returns a *DanglingError if data references accounts
// that are not in its own chart.
func CheckReferences(data *model.ProfileData) error {
	reg := NewRegistry(data.Accounts)
	refs := map[string][]string{}
	eachRef(data, func(id, ref string) {
		if !reg.Exists(id) {
			refs[id] = append(refs[id], ref)
		}
	})
	if len(refs) == 0 {
		return nil
	}
	return &DanglingError{Refs: refs}
}
