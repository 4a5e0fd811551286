package report

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var templates embed.FS

// amt is replaced per render with a formatter bound to the currency.
var baseTemplates = template.Must(template.New("report").
	Funcs(template.FuncMap{"amt": func(decimal.Decimal) string { return "" }}).
	ParseFS(templates, "templates/*.md"))

// Markdown renders a *BalanceSheet, *IncomeStatement or *Dashboard as a
// markdown document with amounts formatted in currency.
func Markdown(report any, currency string) (string, error) {
	var name string
	switch report.(type) {
	case *BalanceSheet:
		name = "balance_sheet"
	case *IncomeStatement:
		name = "income_statement"
	case *Dashboard:
		name = "dashboard"
	default:
		return "", fmt.Errorf("no markdown template for %T", report)
	}

	tmpl, err := baseTemplates.Clone()
	if err != nil {
		return "", err
	}
	tmpl.Funcs(template.FuncMap{
		"amt": func(d decimal.Decimal) string { return Amount(d, currency) },
	})

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, name, report); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return b.String(), nil
}
