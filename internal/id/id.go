package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Format returns a voucher ID like "20240831-01" for date "2024-08-31".
func Format(date string, seq int) string {
	return fmt.Sprintf("%s-%02d", strings.ReplaceAll(date, "-", ""), seq)
}

// Seq extracts the numeric sequence of a voucher ID. Non-digits in the last
// "-" separated part are ignored, so "20240831-03CL" yields 3.
func Seq(voucherID string) (int, bool) {
	i := strings.LastIndex(voucherID, "-")
	if i < 0 {
		return 0, false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, voucherID[i+1:])
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Next returns the next voucher ID for date given the IDs already used on
// that date: the highest sequence plus one.
func Next(date string, existing []string) string {
	maxSeq := 0
	for _, v := range existing {
		if n, ok := Seq(v); ok && n > maxSeq {
			maxSeq = n
		}
	}
	return Format(date, maxSeq+1)
}

// New returns a random identifier for tracker items, memos and profiles.
func New() string {
	return uuid.NewString()
}
