package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/ledger"
	"github.com/gracebooks/gracebooks/internal/model"
)

// PeriodType selects the length of an income statement period.
type PeriodType string

const (
	Monthly    PeriodType = "monthly"
	Quarterly  PeriodType = "quarterly"
	HalfYearly PeriodType = "half_yearly"
	Yearly     PeriodType = "yearly"
)

// PeriodSpec identifies a period: the Value-th month, quarter or half of Year.
// Value is ignored for yearly periods.
type PeriodSpec struct {
	Year  int        `json:"year"`
	Type  PeriodType `json:"type"`
	Value int        `json:"value"`
}

// Bounds returns the inclusive first and last dates of the period.
func (p PeriodSpec) Bounds() (from, to string, err error) {
	var first, months int
	switch p.Type {
	case Monthly, "":
		first, months = p.Value, 1
		if p.Value < 1 || p.Value > 12 {
			return "", "", fmt.Errorf("invalid month %d", p.Value)
		}
	case Quarterly:
		first, months = (p.Value-1)*3+1, 3
		if p.Value < 1 || p.Value > 4 {
			return "", "", fmt.Errorf("invalid quarter %d", p.Value)
		}
	case HalfYearly:
		first, months = (p.Value-1)*6+1, 6
		if p.Value < 1 || p.Value > 2 {
			return "", "", fmt.Errorf("invalid half %d", p.Value)
		}
	case Yearly:
		first, months = 1, 12
	default:
		return "", "", fmt.Errorf("invalid period type %q", p.Type)
	}
	return model.MonthKey(p.Year, first) + "-01", model.MonthEnd(p.Year, first+months-1), nil
}

// String renders the period for report titles.
func (p PeriodSpec) String() string {
	switch p.Type {
	case Quarterly:
		return fmt.Sprintf("%d Q%d", p.Year, p.Value)
	case HalfYearly:
		return fmt.Sprintf("%d H%d", p.Year, p.Value)
	case Yearly:
		return fmt.Sprintf("%d", p.Year)
	default:
		return model.MonthKey(p.Year, p.Value)
	}
}

// IncomeStatement is the income and expense summary of one period.
type IncomeStatement struct {
	Period      PeriodSpec      `json:"period"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	PostClosing bool            `json:"postClosing"`
	Income      Section         `json:"income"`
	Living      Section         `json:"living"`
	Other       Section         `json:"other"`
	Blessings   Section         `json:"blessings"`
	Trials      Section         `json:"trials"`
	NetIncome   decimal.Decimal `json:"netIncome"`
}

// Sections returns the sections in display order.
func (s *IncomeStatement) Sections() []Section {
	return []Section{s.Income, s.Living, s.Other, s.Blessings, s.Trials}
}

// BuildIncomeStatement computes the income statement for period. Without
// postClosing, closing entries are left out so the figures show the month's
// activity. With postClosing, entries of closed months are left out and only
// income and expense lines count.
func BuildIncomeStatement(accounts []model.Account, entries []model.JournalEntry, period PeriodSpec, postClosing bool, opts Options) (*IncomeStatement, error) {
	from, to, err := period.Bounds()
	if err != nil {
		return nil, err
	}

	f := ledger.Filter{From: from, To: to}
	if postClosing {
		closed := make(map[string]bool)
		for _, e := range entries {
			if e.IsClosing() {
				closed[e.Month()] = true
			}
		}
		f.ExcludeMonths = closed
		f.Prefixes = []string{"4", "5", "6", "7"}
	} else {
		f.ExcludeClosing = true
	}
	balances := ledger.Balances(entries, f)

	income := newSection(level1Title(accounts, "4-"))
	living := newSection(level1Title(accounts, "5-"))
	other := newSection(level1Title(accounts, "6-"))
	blessings := newSection(level2Title(accounts, "71-", "領受祝福"))
	trials := newSection(level2Title(accounts, "72-", "面對試煉"))

	for _, a := range accounts {
		balance := balances[a.ID]
		if ledger.IsZero(balance, opts.Tolerance) {
			continue
		}
		switch a.Class() {
		case model.ClassIncome:
			income.add(a, balance.Neg())
		case model.ClassExpense:
			if strings.HasPrefix(a.ID, "5") {
				living.add(a, balance)
			} else {
				other.add(a, balance)
			}
		case model.ClassOtherIncome:
			blessings.add(a, balance.Neg())
		case model.ClassOtherExpense:
			trials.add(a, balance)
		}
	}

	s := &IncomeStatement{
		Period:      period,
		From:        from,
		To:          to,
		PostClosing: postClosing,
		Income:      income.build(),
		Living:      living.build(),
		Other:       other.build(),
		Blessings:   blessings.build(),
		Trials:      trials.build(),
	}
	s.NetIncome = s.Income.Total.Add(s.Blessings.Total).
		Sub(s.Living.Total.Add(s.Other.Total).Add(s.Trials.Total))
	return s, nil
}

func level1Title(accounts []model.Account, prefix string) string {
	for _, a := range accounts {
		if strings.HasPrefix(a.Level1, prefix) {
			return a.Level1
		}
	}
	return "科目 " + strings.TrimSuffix(prefix, "-")
}

func level2Title(accounts []model.Account, prefix, fallback string) string {
	for _, a := range accounts {
		if strings.HasPrefix(a.Level2, prefix) {
			return a.Level2
		}
	}
	return fallback
}
