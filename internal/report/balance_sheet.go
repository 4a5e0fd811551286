package report

import (
	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/ledger"
	"github.com/gracebooks/gracebooks/internal/model"
)

const (
	titleAssets      = "恩典的資產"
	titleLiabilities = "盼望的負債"
	titleEquity      = "所賜的福份"
)

// BalanceSheet is the position of the book at the end of Month.
type BalanceSheet struct {
	Month             string          `json:"month"`
	AsOf              string          `json:"asOf"`
	Assets            Section         `json:"assets"`
	Liabilities       Section         `json:"liabilities"`
	Equity            Section         `json:"equity"`
	UnclosedNetIncome decimal.Decimal `json:"unclosedNetIncome"`
}

// LiabilitiesAndEquity returns the right-hand side total.
func (b *BalanceSheet) LiabilitiesAndEquity() decimal.Decimal {
	return b.Liabilities.Total.Add(b.Equity.Total)
}

// Sections returns assets, liabilities and equity in display order.
func (b *BalanceSheet) Sections() []Section {
	return []Section{b.Assets, b.Liabilities, b.Equity}
}

// Balanced reports whether assets equal liabilities plus equity.
func (b *BalanceSheet) Balanced() bool {
	return b.Assets.Total.Sub(b.LiabilitiesAndEquity()).Abs().LessThan(decimal.NewFromFloat(0.005))
}

// BuildBalanceSheet computes the balance sheet as of the last day of month
// ("YYYY-MM"). Net income of the year's months that have no closing entry is
// folded into the retained-earnings account so the sheet balances before
// closing.
func BuildBalanceSheet(accounts []model.Account, entries []model.JournalEntry, month string, opts Options) (*BalanceSheet, error) {
	year, mon, err := model.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	asOf := model.MonthEnd(year, mon)
	balances := ledger.Balances(entries, ledger.Filter{To: asOf})

	closed := make(map[string]bool)
	for _, e := range entries {
		if e.Year() == year && e.IsClosing() {
			closed[e.Month()] = true
		}
	}
	unclosed := decimal.Zero
	ytd := ledger.Filter{
		From:          model.MonthKey(year, 1) + "-01",
		To:            asOf,
		ExcludeMonths: closed,
		Prefixes:      []string{"4", "5", "6", "7"},
	}
	for _, b := range ledger.Balances(entries, ytd) {
		unclosed = unclosed.Sub(b)
	}

	assets := newSection(titleAssets)
	liabilities := newSection(titleLiabilities)
	equity := newSection(titleEquity)
	for _, a := range accounts {
		balance := balances[a.ID]
		if a.ID == opts.RetainedEarnings {
			balance = balance.Sub(unclosed)
		}
		if ledger.IsZero(balance, opts.Tolerance) {
			continue
		}
		switch a.Class() {
		case model.ClassAsset:
			assets.add(a, balance)
		case model.ClassLiability:
			liabilities.add(a, balance.Neg())
		case model.ClassEquity:
			equity.add(a, balance.Neg())
		}
	}

	return &BalanceSheet{
		Month:             month,
		AsOf:              asOf,
		Assets:            assets.build(),
		Liabilities:       liabilities.build(),
		Equity:            equity.build(),
		UnclosedNetIncome: unclosed,
	}, nil
}
