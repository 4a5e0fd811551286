// Package report derives the balance sheet, income statement and dashboard
// figures from the journal, and renders them as markdown, terminal text,
// HTML, XLSX or PDF.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/model"
)

// Options carry the book-specific account codes used by the reports.
type Options struct {
	RetainedEarnings   string   // current-period savings account, 3111
	TrackedLiabilities []string // liability accounts charted on the dashboard
	Tolerance          decimal.Decimal
	Currency           string
}

// DefaultOptions returns the options for the built-in chart.
func DefaultOptions() Options {
	return Options{
		RetainedEarnings:   "3111",
		TrackedLiabilities: []string{"2311", "2312"},
		Tolerance:          model.DefaultTolerance,
		Currency:           "TWD",
	}
}

// AccountLine is one account and its signed report balance.
type AccountLine struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// Level3Group sums the accounts sharing a level3 label.
type Level3Group struct {
	Name     string          `json:"name"`
	Total    decimal.Decimal `json:"total"`
	Accounts []AccountLine   `json:"accounts"`
}

// Level2Group sums the level3 groups sharing a level2 label.
type Level2Group struct {
	Name   string          `json:"name"`
	Total  decimal.Decimal `json:"total"`
	Level3 []Level3Group   `json:"level3"`
}

// Accounts flattens the level3 groups.
func (g Level2Group) Accounts() []AccountLine {
	var out []AccountLine
	for _, l3 := range g.Level3 {
		out = append(out, l3.Accounts...)
	}
	return out
}

// Section is one titled block of a statement.
type Section struct {
	Title  string          `json:"title"`
	Total  decimal.Decimal `json:"total"`
	Groups []Level2Group   `json:"groups"`
}

// Empty reports whether no account contributed to the section.
func (s Section) Empty() bool { return len(s.Groups) == 0 }

// sectionBuilder accumulates accounts into level2 -> level3 groups.
type sectionBuilder struct {
	title string
	total decimal.Decimal
	l2    map[string]map[string][]AccountLine
}

func newSection(title string) *sectionBuilder {
	return &sectionBuilder{title: title, l2: make(map[string]map[string][]AccountLine)}
}

func (b *sectionBuilder) add(a model.Account, balance decimal.Decimal) {
	b.total = b.total.Add(balance)
	l3 := b.l2[a.Level2]
	if l3 == nil {
		l3 = make(map[string][]AccountLine)
		b.l2[a.Level2] = l3
	}
	l3[a.Level3] = append(l3[a.Level3], AccountLine{ID: a.ID, Name: a.Name, Balance: balance})
}

func (b *sectionBuilder) build() Section {
	s := Section{Title: b.title, Total: b.total}
	for _, l2Name := range sortedKeys(b.l2) {
		l2 := Level2Group{Name: l2Name}
		for _, l3Name := range sortedKeys(b.l2[l2Name]) {
			accts := b.l2[l2Name][l3Name]
			sort.Slice(accts, func(i, j int) bool { return accts[i].ID < accts[j].ID })
			l3 := Level3Group{Name: l3Name, Accounts: accts}
			for _, a := range accts {
				l3.Total = l3.Total.Add(a.Balance)
			}
			l2.Total = l2.Total.Add(l3.Total)
			l2.Level3 = append(l2.Level3, l3)
		}
		s.Groups = append(s.Groups, l2)
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
