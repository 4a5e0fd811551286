package journal

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/model"
)

// BulkFields is the number of columns in a bulk import record:
// date,voucherId,accountId,memo,debit,credit.
const BulkFields = 6

const (
	bulkColDate = iota
	bulkColID
	bulkColAccount
	bulkColMemo
	bulkColDebit
	bulkColCredit
)

// ParseBulk reads bulk journal records, one line per journal line, and
// groups them by voucher ID in first-seen order. Every problem is reported;
// no entries are returned unless the whole input is valid.
func ParseBulk(r io.Reader, accounts AccountChecker, tol decimal.Decimal) ([]model.JournalEntry, []ValidationError) {
	var (
		errs    []ValidationError
		entries []model.JournalEntry
		index   = make(map[string]int)
	)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		fields, err := splitRecord(text)
		if err != nil || len(fields) != BulkFields {
			errs = append(errs, ValidationError{
				Rule:        RuleFieldCount,
				Line:        lineNo,
				Description: fmt.Sprintf("expected %d comma-separated fields", BulkFields),
			})
			continue
		}

		voucherID := fields[bulkColID]
		line, lineErrs := parseBulkLine(fields, lineNo, accounts)
		if len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			continue
		}

		if i, ok := index[voucherID]; ok {
			entries[i].Lines = append(entries[i].Lines, line)
			continue
		}
		index[voucherID] = len(entries)
		entries = append(entries, model.JournalEntry{
			ID:    voucherID,
			Date:  fields[bulkColDate],
			Kind:  model.KindRegular,
			Lines: []model.JournalLine{line},
		})
	}
	if err := sc.Err(); err != nil {
		errs = append(errs, ValidationError{Rule: RuleFieldCount, Description: fmt.Sprintf("reading input: %v", err)})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	for _, e := range entries {
		if !e.IsBalanced(tol) {
			errs = append(errs, ValidationError{
				Rule:        RuleBalanced,
				EntryID:     e.ID,
				Description: fmt.Sprintf("debits (%s) != credits (%s)", e.TotalDebit().StringFixed(2), e.TotalCredit().StringFixed(2)),
			})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return entries, nil
}

func parseBulkLine(fields []string, lineNo int, accounts AccountChecker) (model.JournalLine, []ValidationError) {
	var errs []ValidationError
	voucherID := fields[bulkColID]
	add := func(rule Rule, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, EntryID: voucherID, Line: lineNo, Description: fmt.Sprintf(format, args...)})
	}

	if _, err := model.ParseDate(fields[bulkColDate]); err != nil {
		add(RuleDate, "%v", err)
	}
	if voucherID == "" {
		add(RuleVoucherID, "voucher id is required")
	}

	debit, derr := parseAmount(fields[bulkColDebit])
	credit, cerr := parseAmount(fields[bulkColCredit])
	if derr != nil || cerr != nil {
		add(RuleNumber, "debit and credit must be numbers")
	}

	line := model.JournalLine{
		AccountID: fields[bulkColAccount],
		Memo:      fields[bulkColMemo],
		Debit:     debit,
		Credit:    credit,
	}
	if derr == nil && cerr == nil {
		errs = append(errs, ValidateLine(voucherID, lineNo, line, accounts)...)
	} else if accounts != nil && !accounts.Exists(line.AccountID) {
		add(RuleAccount, "unknown account %q", line.AccountID)
	}
	return line, errs
}

// ParseLines parses the free-text entry form: one "accountId,memo,debit,credit"
// record per line. Empty amounts are zero.
func ParseLines(text string) ([]model.JournalLine, error) {
	var lines []model.JournalLine
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		fields, err := splitRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: expected accountId,memo,debit,credit", i+1)
		}
		debit, err := parseAmount(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: debit: %w", i+1, err)
		}
		credit, err := parseAmount(fields[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: credit: %w", i+1, err)
		}
		lines = append(lines, model.JournalLine{AccountID: fields[0], Memo: fields[1], Debit: debit, Credit: credit})
	}
	return lines, nil
}

func splitRecord(text string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rec, err := cr.Read()
	if err != nil {
		return nil, err
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}
