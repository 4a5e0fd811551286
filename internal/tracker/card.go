package tracker

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/id"
	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/model"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// LineError is a problem on one line of pasted input.
type LineError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e LineError) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Message) }

// IsChargeAccount reports whether id can receive a card charge: an income
// statement account (5, 6 or 7).
func IsChargeAccount(id string) bool {
	return model.HasAnyPrefix(id, "5", "6", "7")
}

// ValidateCardLedger checks a credit-card ledger's header.
func ValidateCardLedger(l model.CreditCardLedger, accounts AccountChecker, opts Options) error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: card name is required", ErrInvalidItem)
	}
	if !strings.HasPrefix(l.LiabilityAccountID, opts.CreditCardPrefix) || !accounts.Exists(l.LiabilityAccountID) {
		return fmt.Errorf("%w: liability account %q must be an existing %s account", ErrInvalidItem, l.LiabilityAccountID, opts.CreditCardPrefix)
	}
	return nil
}

// ValidateCardTransaction checks a pending card charge.
func ValidateCardTransaction(tx model.CreditCardTransaction, accounts AccountChecker) error {
	var problems []string
	if _, err := model.ParseDate(tx.Date); err != nil {
		problems = append(problems, err.Error())
	}
	if strings.TrimSpace(tx.Description) == "" {
		problems = append(problems, "description is required")
	}
	if tx.AccountID != "" && (!IsChargeAccount(tx.AccountID) || !accounts.Exists(tx.AccountID)) {
		problems = append(problems, fmt.Sprintf("expense account %q does not exist", tx.AccountID))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidItem, strings.Join(problems, "; "))
	}
	return nil
}

// ParseCardImport reads pasted card charges, one per line as
// "date,description,amount[,accountId]". Blank lines are skipped. Every
// problem is reported; transactions are returned only when there are none.
func ParseCardImport(text string, accounts AccountChecker) ([]model.CreditCardTransaction, []LineError) {
	var txs []model.CreditCardTransaction
	var errs []LineError
	sc := bufio.NewScanner(strings.NewReader(strings.TrimSpace(text)))
	n := 0
	for sc.Scan() {
		n++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 3 || len(parts) > 4 {
			errs = append(errs, LineError{n, "expected 3 or 4 fields"})
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		tx := model.CreditCardTransaction{ID: id.New(), Date: parts[0], Description: parts[1]}
		if len(parts) == 4 {
			tx.AccountID = parts[3]
		}

		before := len(errs)
		if !isoDate.MatchString(tx.Date) {
			errs = append(errs, LineError{n, "date must be YYYY-MM-DD"})
		}
		amount, err := decimal.NewFromString(parts[2])
		if err != nil {
			errs = append(errs, LineError{n, "amount must be a number"})
		}
		tx.Amount = amount
		if tx.AccountID != "" && (!IsChargeAccount(tx.AccountID) || !accounts.Exists(tx.AccountID)) {
			errs = append(errs, LineError{n, fmt.Sprintf("expense account %q does not exist", tx.AccountID)})
		}
		if len(errs) == before {
			txs = append(txs, tx)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return txs, nil
}

// GenerateCardEntry builds the statement voucher: one debit per positive
// charge that has an expense account, and one credit on the card's
// liability account for the ledger total. The caller clears the ledger's
// transactions once the voucher is saved.
func GenerateCardEntry(l model.CreditCardLedger, date string, entries []model.JournalEntry) (model.JournalEntry, error) {
	if _, err := model.ParseDate(date); err != nil {
		return model.JournalEntry{}, err
	}
	total := l.Total()
	if !total.IsPositive() {
		return model.JournalEntry{}, fmt.Errorf("%w: card %s has no charges", ErrNothingToGenerate, l.Name)
	}
	var lines []model.JournalLine
	for _, tx := range l.Transactions {
		if !tx.Amount.IsPositive() || tx.AccountID == "" {
			continue
		}
		lines = append(lines, model.JournalLine{AccountID: tx.AccountID, Memo: tx.Description, Debit: tx.Amount})
	}
	if len(lines) == 0 {
		return model.JournalEntry{}, fmt.Errorf("%w: assign expense accounts to the charges of %s", ErrNothingToGenerate, l.Name)
	}
	lines = append(lines, model.JournalLine{AccountID: l.LiabilityAccountID, Memo: l.Name + " 帳單", Credit: total})
	return model.JournalEntry{
		ID:    journal.NextVoucherID(entries, date),
		Date:  date,
		Kind:  model.KindRegular,
		Lines: lines,
	}, nil
}
