package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/model"
)

// SimpleParser reads "date,description,amount" rows with YYYY-MM-DD dates
// and charges as positive amounts. A header row is skipped.
type SimpleParser struct{}

// Format returns the parser name.
func (p *SimpleParser) Format() string { return "simple" }

func (p *SimpleParser) Parse(r io.Reader) ([]model.StatementTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	var txns []model.StatementTransaction
	for i, rec := range records {
		date, err := time.Parse(model.DateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+1, rec[0], err)
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[2]), ",", ""))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+1, rec[2], err)
		}
		txns = append(txns, model.StatementTransaction{
			Date:        date,
			Description: strings.TrimSpace(rec[1]),
			Amount:      amount,
		})
	}
	return txns, nil
}
