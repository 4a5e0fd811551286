package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/model"
)

// ChaseParser reads the card-activity CSV Chase exports. Columns are found
// by header name so reordered exports still parse. Chase lists charges as
// negative amounts; they come out positive.
type ChaseParser struct{}

const chaseDateLayout = "01/02/2006"

var chaseColumns = []string{"Transaction Date", "Description", "Type", "Amount"}

func (p *ChaseParser) Format() string { return "chase" }

func (p *ChaseParser) Parse(r io.Reader) ([]model.StatementTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading chase header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range chaseColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("chase CSV has no %q column", name)
		}
	}

	var out []model.StatementTransaction
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", row, len(header), len(rec))
		}
		field := func(name string) string { return strings.TrimSpace(rec[col[name]]) }

		date, err := time.Parse(chaseDateLayout, field("Transaction Date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q", row, field("Transaction Date"))
		}
		amt, err := decimal.NewFromString(strings.ReplaceAll(field("Amount"), ",", ""))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad amount %q", row, field("Amount"))
		}
		desc := field("Description")
		out = append(out, model.StatementTransaction{
			Date:        date,
			Description: desc,
			Amount:      amt.Neg(),
			Reference:   chaseReference(date, desc),
			Type:        field("Type"),
		})
	}
}

// chaseReference is chase_<yyyymmdd>_<first ten letters or digits of desc>.
func chaseReference(date time.Time, desc string) string {
	var b strings.Builder
	for _, r := range desc {
		if b.Len() == 10 {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return "chase_" + date.Format("20060102") + "_" + b.String()
}
