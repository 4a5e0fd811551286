package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind distinguishes ordinary vouchers from period-closing vouchers.
type EntryKind string

const (
	KindRegular EntryKind = "regular"
	KindClosing EntryKind = "closing"
)

// ClosingMemo is written on every line of a closing entry.
const ClosingMemo = "結轉損益"

// legacyClosingMemos identify closing entries saved before Kind existed.
var legacyClosingMemos = []string{ClosingMemo, "結轉至本期恩典儲蓄"}

// DateLayout is the layout of entry dates.
const DateLayout = "2006-01-02"

// DefaultTolerance is the balance tolerance used when none is configured.
var DefaultTolerance = decimal.RequireFromString("0.001")

// JournalLine is one side of a double entry.
type JournalLine struct {
	AccountID string          `json:"accountId"`
	Memo      string          `json:"memo"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// Net returns debit - credit.
func (l JournalLine) Net() decimal.Decimal { return l.Debit.Sub(l.Credit) }

// JournalEntry is a voucher: a dated, balanced set of lines.
type JournalEntry struct {
	ID    string        `json:"id"`
	Date  string        `json:"date"`
	Kind  EntryKind     `json:"kind,omitempty"`
	Lines []JournalLine `json:"lines"`
}

// IsClosing reports whether e is a period-closing voucher.
func (e JournalEntry) IsClosing() bool { return e.Kind == KindClosing }

// TotalDebit sums the debit side.
func (e JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side.
func (e JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced reports whether debits equal credits within tol.
func (e JournalEntry) IsBalanced(tol decimal.Decimal) bool {
	return e.TotalDebit().Sub(e.TotalCredit()).Abs().LessThanOrEqual(tol)
}

// Month returns the "YYYY-MM" part of the entry date.
func (e JournalEntry) Month() string {
	if len(e.Date) < 7 {
		return e.Date
	}
	return e.Date[:7]
}

// Year returns the entry year, or 0 if the date is malformed.
func (e JournalEntry) Year() int {
	if len(e.Date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(e.Date[:4])
	if err != nil {
		return 0
	}
	return y
}

// Normalize fills in Kind for entries persisted before it was tracked.
func (e *JournalEntry) Normalize() {
	if e.Kind != "" {
		return
	}
	e.Kind = KindRegular
	for _, l := range e.Lines {
		for _, marker := range legacyClosingMemos {
			if strings.Contains(l.Memo, marker) {
				e.Kind = KindClosing
				return
			}
		}
	}
}

// Clone returns a copy of e that shares no slices with it.
func (e JournalEntry) Clone() JournalEntry {
	c := e
	c.Lines = append([]JournalLine(nil), e.Lines...)
	return c
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// ParseMonth parses a YYYY-MM month into its year and month numbers.
func ParseMonth(s string) (year, month int, err error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (want YYYY-MM)", s)
	}
	return t.Year(), int(t.Month()), nil
}

// MonthEnd returns the last day of the month as YYYY-MM-DD.
func MonthEnd(year, month int) string {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// MonthKey formats a year and month as "YYYY-MM".
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
