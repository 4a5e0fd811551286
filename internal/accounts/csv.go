package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gracebooks/gracebooks/internal/model"
)

// Header is the CSV header for chart-of-accounts exports.
const Header = "account_id,account_name,level1,level2,level3"

const (
	numFields = 5
	colID     = 0
	colName   = 1
	colLevel1 = 2
	colLevel2 = 3
	colLevel3 = 4
)

// ReadAccounts reads a chart-of-accounts CSV (header row first).
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes a chart-of-accounts CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colName] = acct.Name
	row[colLevel1] = acct.Level1
	row[colLevel2] = acct.Level2
	row[colLevel3] = acct.Level3
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	acct := model.Account{
		ID:     strings.TrimSpace(record[colID]),
		Name:   strings.TrimSpace(record[colName]),
		Level1: strings.TrimSpace(record[colLevel1]),
		Level2: strings.TrimSpace(record[colLevel2]),
		Level3: strings.TrimSpace(record[colLevel3]),
	}
	if err := validate(acct); err != nil {
		return model.Account{}, err
	}
	return acct, nil
}
