package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/ledger"
	"github.com/gracebooks/gracebooks/internal/model"
)

// TopN is how many ranking items a dashboard keeps.
const TopN = 5

// RankItem is one level3 group in an income or expense ranking.
type RankItem struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// Ranking holds the largest groups and the total over all groups.
type Ranking struct {
	Items []RankItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// TrendPoint is one labelled value in a monthly series.
type TrendPoint struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// Trend is a named monthly series.
type Trend struct {
	Name   string       `json:"name"`
	Points []TrendPoint `json:"points"`
}

// NetWorth is the asset and liability position over the whole journal.
type NetWorth struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	NetWorth    decimal.Decimal `json:"netWorth"`
}

// Dashboard aggregates a year, or one month of it, for a quick overview.
type Dashboard struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"` // 0 for the whole year
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Net          decimal.Decimal `json:"net"`
	TopExpenses  Ranking         `json:"topExpenses"`
	TopIncome    Ranking         `json:"topIncome"`
	SavingsTrend []TrendPoint    `json:"savingsTrend"`
	NetWorth     NetWorth        `json:"netWorth"`
	Trends       []Trend         `json:"trends"`
	Years        []int           `json:"years"`
}

var (
	incomePrefixes  = []string{"4", "71"}
	expensePrefixes = []string{"5", "6", "72"}
)

// BuildDashboard computes the dashboard for year and month (0 = whole year).
// Closing entries are excluded from Income, Expense, Net and both rankings,
// since they only move the period result into equity. NetWorth, the savings
// trend and the month-end balance trends read every entry, closing included.
func BuildDashboard(accounts []model.Account, entries []model.JournalEntry, year, month int, opts Options) (*Dashboard, error) {
	if month < 0 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	level3 := func(id string) string {
		if a, ok := byID[id]; ok {
			return a.Level3
		}
		return id + "-未知"
	}

	d := &Dashboard{Year: year, Month: month}
	expenses := make(map[string]decimal.Decimal)
	incomes := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.IsClosing() || e.Year() != year {
			continue
		}
		if month != 0 && e.Month() != model.MonthKey(year, month) {
			continue
		}
		for _, l := range e.Lines {
			switch {
			case model.HasAnyPrefix(l.AccountID, incomePrefixes...):
				d.Income = d.Income.Add(l.Credit).Sub(l.Debit)
				name := level3(l.AccountID)
				incomes[name] = incomes[name].Add(l.Credit)
			case model.HasAnyPrefix(l.AccountID, expensePrefixes...):
				d.Expense = d.Expense.Add(l.Debit).Sub(l.Credit)
				name := level3(l.AccountID)
				expenses[name] = expenses[name].Add(l.Debit)
			}
		}
	}
	d.Net = d.Income.Sub(d.Expense)
	d.TopExpenses = rank(expenses)
	d.TopIncome = rank(incomes)
	d.SavingsTrend = savingsTrend(entries, year, opts.RetainedEarnings)
	d.NetWorth = netWorth(entries)
	d.Trends = monthEndTrends(accounts, entries, year, opts.TrackedLiabilities)

	d.Years = journal.Years(entries)
	if len(d.Years) == 0 {
		d.Years = []int{year}
	}
	return d, nil
}

func rank(totals map[string]decimal.Decimal) Ranking {
	var r Ranking
	var items []RankItem
	for name, total := range totals {
		if !total.IsPositive() {
			continue
		}
		items = append(items, RankItem{Name: name, Total: total})
		r.Total = r.Total.Add(total)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Total.Equal(items[j].Total) {
			return items[i].Total.GreaterThan(items[j].Total)
		}
		return items[i].Name < items[j].Name
	})
	if len(items) > TopN {
		items = items[:TopN]
	}
	r.Items = items
	return r
}

func monthLabel(m int) string { return fmt.Sprintf("%d月", m) }

// savingsTrend walks the year's entries in date order and carries the
// credit-minus-debit balance of account forward across the twelve months.
func savingsTrend(entries []model.JournalEntry, year int, account string) []TrendPoint {
	opening := decimal.Zero
	var yearEntries []model.JournalEntry
	for _, e := range entries {
		switch y := e.Year(); {
		case y < year:
			opening = opening.Sub(lineNet(e, account))
		case y == year:
			yearEntries = append(yearEntries, e)
		}
	}
	sort.SliceStable(yearEntries, func(i, j int) bool { return yearEntries[i].Date < yearEntries[j].Date })

	monthly := make(map[string]decimal.Decimal)
	current := opening
	for _, e := range yearEntries {
		current = current.Sub(lineNet(e, account))
		monthly[e.Month()] = current
	}

	points := make([]TrendPoint, 0, 12)
	last := opening
	for m := 1; m <= 12; m++ {
		if v, ok := monthly[model.MonthKey(year, m)]; ok {
			last = v
		}
		points = append(points, TrendPoint{Label: monthLabel(m), Value: last})
	}
	return points
}

func lineNet(e model.JournalEntry, account string) decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		if l.AccountID == account {
			total = total.Add(l.Net())
		}
	}
	return total
}

func netWorth(entries []model.JournalEntry) NetWorth {
	var nw NetWorth
	for id, b := range ledger.Balances(entries, ledger.Filter{}) {
		switch {
		case strings.HasPrefix(id, "1"):
			nw.Assets = nw.Assets.Add(b)
		case strings.HasPrefix(id, "2"):
			nw.Liabilities = nw.Liabilities.Sub(b)
		}
	}
	nw.NetWorth = nw.Assets.Sub(nw.Liabilities)
	return nw
}

// monthEndTrends returns month-end totals of assets, liabilities and each
// tracked liability account for every month of year.
func monthEndTrends(accounts []model.Account, entries []model.JournalEntry, year int, tracked []string) []Trend {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	assets := Trend{Name: "資產"}
	liabilities := Trend{Name: "負債"}
	trackedTrends := make([]Trend, len(tracked))
	for i, id := range tracked {
		name := names[id]
		if name == "" {
			name = id
		}
		trackedTrends[i] = Trend{Name: id + " " + name}
	}

	for m := 1; m <= 12; m++ {
		label := monthLabel(m)
		balances := ledger.Balances(entries, ledger.Filter{To: model.MonthEnd(year, m)})
		var a, l decimal.Decimal
		for id, b := range balances {
			switch {
			case strings.HasPrefix(id, "1"):
				a = a.Add(b)
			case strings.HasPrefix(id, "2"):
				l = l.Sub(b)
			}
		}
		assets.Points = append(assets.Points, TrendPoint{Label: label, Value: a})
		liabilities.Points = append(liabilities.Points, TrendPoint{Label: label, Value: l})
		for i, id := range tracked {
			trackedTrends[i].Points = append(trackedTrends[i].Points, TrendPoint{Label: label, Value: balances[id].Neg()})
		}
	}
	return append([]Trend{assets, liabilities}, trackedTrends...)
}
