package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementTransaction is a parsed row of a card or bank statement file.
type StatementTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // positive = charge
	Reference   string
	Type        string // issuer transaction type, if any
}
