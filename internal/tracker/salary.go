package tracker

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/model"
)

// DefaultSalaryTemplate returns the built-in salary voucher rows.
func DefaultSalaryTemplate() []model.SalaryLine {
	return []model.SalaryLine{
		{AccountID: "2312", Memo: "信用貸款-中信"},
		{AccountID: "2311", Memo: "信用貸款-台新"},
		{AccountID: "7211", Memo: "信用貸款利息"},
		{AccountID: "7211", Memo: "信用貸款利息"},
		{AccountID: "2413", Memo: "微光-台新信用卡"},
		{AccountID: "2412", Memo: "微光-中信信用卡"},
		{AccountID: "5133", Memo: "補貼家用"},
		{AccountID: "5134", Memo: "水電瓦斯"},
		{AccountID: "1221", Memo: "微光-台新"},
		{AccountID: "4111", Memo: "薪資收入"},
	}
}

// SalaryAmount is what the user typed against one template row.
type SalaryAmount struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// GenerateSalary turns the template rows with a positive amount into a
// voucher. amounts is keyed by template row index.
func GenerateSalary(template []model.SalaryLine, amounts map[int]SalaryAmount, date string, entries []model.JournalEntry, tol decimal.Decimal) (model.JournalEntry, error) {
	if _, err := model.ParseDate(date); err != nil {
		return model.JournalEntry{}, err
	}
	for i := range amounts {
		if i < 0 || i >= len(template) {
			return model.JournalEntry{}, fmt.Errorf("%w: no template row %d", ErrInvalidItem, i)
		}
	}

	var lines []model.JournalLine
	for i, row := range template {
		amt, ok := amounts[i]
		if !ok || (!amt.Debit.IsPositive() && !amt.Credit.IsPositive()) {
			continue
		}
		lines = append(lines, model.JournalLine{AccountID: row.AccountID, Memo: row.Memo, Debit: amt.Debit, Credit: amt.Credit})
	}
	if len(lines) == 0 {
		return model.JournalEntry{}, fmt.Errorf("%w: enter at least one amount", ErrNothingToGenerate)
	}
	e := model.JournalEntry{Date: date, Kind: model.KindRegular, Lines: lines}
	if !e.IsBalanced(tol) {
		return model.JournalEntry{}, fmt.Errorf("%w: debit %s, credit %s", ErrUnbalanced, e.TotalDebit(), e.TotalCredit())
	}
	e.ID = journal.NextVoucherID(entries, date)
	return e, nil
}
