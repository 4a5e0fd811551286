package model

import "github.com/shopspring/decimal"

// SettlementStatus is the lifecycle state of a prepayment or received payment.
type SettlementStatus string

const (
	StatusUnsettled SettlementStatus = "unsettled"
	StatusSettled   SettlementStatus = "settled"
)

// AmortizationItem spreads a prepaid amount over a number of monthly periods.
type AmortizationItem struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Periods         int             `json:"periods"`
	StartDate       string          `json:"startDate"`
	DebitAccountID  string          `json:"debitAccountId"`  // expense
	CreditAccountID string          `json:"creditAccountId"` // prepaid asset
}

// PrepaymentItem records money paid in advance against an asset account.
type PrepaymentItem struct {
	ID             string           `json:"id"`
	Date           string           `json:"date"`
	Description    string           `json:"description"`
	Amount         decimal.Decimal  `json:"amount"`
	AssetAccountID string           `json:"assetAccountId"`
	Status         SettlementStatus `json:"status"`
}

// ReceivedPaymentItem records money received in advance against a liability.
type ReceivedPaymentItem struct {
	ID                 string           `json:"id"`
	Date               string           `json:"date"`
	Description        string           `json:"description"`
	Amount             decimal.Decimal  `json:"amount"`
	LiabilityAccountID string           `json:"liabilityAccountId"`
	Status             SettlementStatus `json:"status"`
}

// CreditCardTransaction is one pending charge on a card ledger.
type CreditCardTransaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   string          `json:"accountId,omitempty"` // expense account
}

// CreditCardLedger collects card charges until a statement entry is generated.
type CreditCardLedger struct {
	ID                 string                  `json:"id"`
	Name               string                  `json:"name"`
	LiabilityAccountID string                  `json:"liabilityAccountId"`
	Transactions       []CreditCardTransaction `json:"transactions"`
}

// Total sums the amounts of all transactions.
func (l CreditCardLedger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, t := range l.Transactions {
		total = total.Add(t.Amount)
	}
	return total
}

// ManagedMemo is a reusable memo text.
type ManagedMemo struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SalaryLine is one row of the salary voucher template.
type SalaryLine struct {
	AccountID string `json:"accountId"`
	Memo      string `json:"memo"`
}
