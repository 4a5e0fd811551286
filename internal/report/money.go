package report

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money formats amount in currency with its symbol and thousands
// separators, e.g. "NT$1,234.50". Unknown currencies fall back to the plain
// decimal string.
func Money(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// Amount formats a report figure without a currency symbol, using the
// currency's decimal places.
func Amount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	f := *cur.Formatter()
	f.Grapheme = ""
	return strings.TrimSpace(f.Format(amount.Shift(int32(cur.Fraction)).Round(0).IntPart()))
}
