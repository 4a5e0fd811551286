package store

import (
	"fmt"

	"github.com/gracebooks/gracebooks/internal/id"
	"github.com/gracebooks/gracebooks/internal/memo"
	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/tracker"
)

func cardID(l model.CreditCardLedger) string { return l.ID }
func cardTxnID(t model.CreditCardTransaction) string { return t.ID }
func amortizationID(i model.AmortizationItem) string { return i.ID }
func prepaymentID(i model.PrepaymentItem) string { return i.ID }
func receivedID(i model.ReceivedPaymentItem) string { return i.ID }

// newItemID keeps a caller-chosen ID but never a synthesized one: saving a
// synthesized view turns it into a real item.
func newItemID(current string) string {
	if current == "" || tracker.IsSynthetic(current) {
		return id.New()
	}
	return current
}

// SaveCardLedger adds a card ledger, or updates the header of an existing
// one. Pending transactions are kept on update.
type SaveCardLedger struct {
	Ledger model.CreditCardLedger

	Result model.CreditCardLedger
}

func (c *SaveCardLedger) Name() string { return "save_card_ledger" }

func (c *SaveCardLedger) Describe() (string, string) { return c.Ledger.Name, "" }

func (c *SaveCardLedger) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	if err := tracker.ValidateCardLedger(c.Ledger, reg, tx.Config.Trackers); err != nil {
		return err
	}
	if i, ok := indexOf(d.CreditCardLedgers, c.Ledger.ID, cardID); ok && c.Ledger.ID != "" {
		d.CreditCardLedgers[i].Name = c.Ledger.Name
		d.CreditCardLedgers[i].LiabilityAccountID = c.Ledger.LiabilityAccountID
		c.Result = d.CreditCardLedgers[i]
		return nil
	}
	l := c.Ledger
	l.ID = newItemID(l.ID)
	l.Transactions = append([]model.CreditCardTransaction(nil), l.Transactions...)
	for i := range l.Transactions {
		l.Transactions[i].ID = newItemID(l.Transactions[i].ID)
	}
	d.CreditCardLedgers = append(d.CreditCardLedgers, l)
	c.Result = l
	return nil
}

// DeleteCardLedger removes a card ledger and its pending transactions.
type DeleteCardLedger struct {
	ID string
}

func (c *DeleteCardLedger) Name() string { return "delete_card_ledger" }

func (c *DeleteCardLedger) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	i, ok := indexOf(d.CreditCardLedgers, c.ID, cardID)
	if !ok {
		return fmt.Errorf("%w: credit card %s", ErrNotFound, c.ID)
	}
	d.CreditCardLedgers = append(d.CreditCardLedgers[:i], d.CreditCardLedgers[i+1:]...)
	return nil
}

func (tx *Tx) cardLedger(ledgerID string) (*model.CreditCardLedger, error) {
	d, err := tx.Book()
	if err != nil {
		return nil, err
	}
	i, ok := indexOf(d.CreditCardLedgers, ledgerID, cardID)
	if !ok {
		return nil, fmt.Errorf("%w: credit card %s", ErrNotFound, ledgerID)
	}
	return &d.CreditCardLedgers[i], nil
}

// SaveCardTransactions adds new charges to a card ledger or replaces the
// ones whose IDs already exist.
type SaveCardTransactions struct {
	LedgerID     string
	Transactions []model.CreditCardTransaction

	Added, Updated int
}

func (c *SaveCardTransactions) Name() string { return "save_card_transactions" }

func (c *SaveCardTransactions) Describe() (string, string) {
	return fmt.Sprintf("%s: added %d, updated %d", c.LedgerID, c.Added, c.Updated), ""
}

func (c *SaveCardTransactions) Apply(tx *Tx) error {
	reg, _, err := tx.Registry()
	if err != nil {
		return err
	}
	l, err := tx.cardLedger(c.LedgerID)
	if err != nil {
		return err
	}
	for _, t := range c.Transactions {
		if err := tracker.ValidateCardTransaction(t, reg); err != nil {
			return err
		}
		if i, ok := indexOf(l.Transactions, t.ID, cardTxnID); ok && t.ID != "" {
			l.Transactions[i] = t
			c.Updated++
			continue
		}
		t.ID = newItemID(t.ID)
		l.Transactions = append(l.Transactions, t)
		c.Added++
	}
	return nil
}

// DeleteCardTransaction removes one pending charge.
type DeleteCardTransaction struct {
	LedgerID string
	ID       string
}

func (c *DeleteCardTransaction) Name() string { return "delete_card_transaction" }

func (c *DeleteCardTransaction) Apply(tx *Tx) error {
	l, err := tx.cardLedger(c.LedgerID)
	if err != nil {
		return err
	}
	i, ok := indexOf(l.Transactions, c.ID, cardTxnID)
	if !ok {
		return fmt.Errorf("%w: transaction %s", ErrNotFound, c.ID)
	}
	l.Transactions = append(l.Transactions[:i], l.Transactions[i+1:]...)
	return nil
}

// GenerateCardEntry posts the statement voucher of a card ledger and clears
// its pending transactions.
type GenerateCardEntry struct {
	LedgerID string
	Date     string

	Result model.JournalEntry
}

func (c *GenerateCardEntry) Name() string { return "generate_card_entry" }

func (c *GenerateCardEntry) Describe() (string, string) {
	return describeEntry(c.Result), c.Result.ID
}

func (c *GenerateCardEntry) Apply(tx *Tx) error {
	svc, d, err := tx.Journal()
	if err != nil {
		return err
	}
	l, err := tx.cardLedger(c.LedgerID)
	if err != nil {
		return err
	}
	e, err := tracker.GenerateCardEntry(*l, c.Date, d.JournalEntries)
	if err != nil {
		return err
	}
	entries, e, err := svc.Add(d.JournalEntries, e)
	if err != nil {
		return err
	}
	d.JournalEntries = entries
	l.Transactions = nil
	c.Result = e.Clone()
	return nil
}

// SaveAmortization adds or replaces an amortization item. Saving a
// synthesized view stores it under a new ID.
type SaveAmortization struct {
	Item model.AmortizationItem

	Result model.AmortizationItem
}

func (c *SaveAmortization) Name() string { return "save_amortization" }

func (c *SaveAmortization) Describe() (string, string) { return c.Item.Description, "" }

func (c *SaveAmortization) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	item := c.Item
	if i, ok := indexOf(d.AmortizationItems, item.ID, amortizationID); ok && item.ID != "" {
		if err := tracker.ValidateAmortization(item, reg); err != nil {
			return err
		}
		d.AmortizationItems[i] = item
		c.Result = item
		return nil
	}
	item.ID = newItemID(item.ID)
	if err := tracker.ValidateAmortization(item, reg); err != nil {
		return err
	}
	d.AmortizationItems = append(d.AmortizationItems, item)
	c.Result = item
	return nil
}

// DeleteAmortization removes a saved amortization item.
type DeleteAmortization struct {
	ID string
}

func (c *DeleteAmortization) Name() string { return "delete_amortization" }

func (c *DeleteAmortization) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	i, ok := indexOf(d.AmortizationItems, c.ID, amortizationID)
	if !ok {
		return fmt.Errorf("%w: amortization item %s", ErrNotFound, c.ID)
	}
	d.AmortizationItems = append(d.AmortizationItems[:i], d.AmortizationItems[i+1:]...)
	return nil
}

// GenerateAmortization posts one period of a saved amortization item.
type GenerateAmortization struct {
	ItemID string
	Date   string

	Result model.JournalEntry
}

func (c *GenerateAmortization) Name() string { return "generate_amortization" }

func (c *GenerateAmortization) Describe() (string, string) {
	return describeEntry(c.Result), c.Result.ID
}

func (c *GenerateAmortization) Apply(tx *Tx) error {
	svc, d, err := tx.Journal()
	if err != nil {
		return err
	}
	if tracker.IsSynthetic(c.ItemID) {
		return tracker.ErrSynthesized
	}
	i, ok := indexOf(d.AmortizationItems, c.ItemID, amortizationID)
	if !ok {
		return fmt.Errorf("%w: amortization item %s", ErrNotFound, c.ItemID)
	}
	e, err := tracker.GenerateAmortization(d.AmortizationItems[i], c.Date, d.JournalEntries)
	if err != nil {
		return err
	}
	entries, e, err := svc.Add(d.JournalEntries, e)
	if err != nil {
		return err
	}
	d.JournalEntries = entries
	c.Result = e.Clone()
	return nil
}

// SavePrepayment adds or replaces a prepayment item.
type SavePrepayment struct {
	Item model.PrepaymentItem

	Result model.PrepaymentItem
}

func (c *SavePrepayment) Name() string { return "save_prepayment" }

func (c *SavePrepayment) Describe() (string, string) { return c.Item.Description, "" }

func (c *SavePrepayment) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	item := c.Item
	if item.Status == "" {
		item.Status = model.StatusUnsettled
	}
	i, exists := indexOf(d.PrepaymentItems, item.ID, prepaymentID)
	exists = exists && item.ID != ""
	if !exists {
		item.ID = newItemID(item.ID)
	}
	if err := tracker.ValidatePrepayment(item, reg); err != nil {
		return err
	}
	if exists {
		d.PrepaymentItems[i] = item
	} else {
		d.PrepaymentItems = append(d.PrepaymentItems, item)
	}
	c.Result = item
	return nil
}

// DeletePrepayment removes a prepayment item.
type DeletePrepayment struct {
	ID string
}

func (c *DeletePrepayment) Name() string { return "delete_prepayment" }

func (c *DeletePrepayment) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	i, ok := indexOf(d.PrepaymentItems, c.ID, prepaymentID)
	if !ok {
		return fmt.Errorf("%w: prepayment %s", ErrNotFound, c.ID)
	}
	d.PrepaymentItems = append(d.PrepaymentItems[:i], d.PrepaymentItems[i+1:]...)
	return nil
}

// SettlePrepayment fires a settlement event ("settle" or "reopen").
type SettlePrepayment struct {
	ID    string
	Event string
}

func (c *SettlePrepayment) Name() string { return c.Event + "_prepayment" }

func (c *SettlePrepayment) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	i, ok := indexOf(d.PrepaymentItems, c.ID, prepaymentID)
	if !ok {
		return fmt.Errorf("%w: prepayment %s", ErrNotFound, c.ID)
	}
	return tracker.NewSettlement(&d.PrepaymentItems[i].Status).Fire(tx.Context(), c.Event)
}

// SaveReceivedPayment adds or replaces a received-payment item.
type SaveReceivedPayment struct {
	Item model.ReceivedPaymentItem

	Result model.ReceivedPaymentItem
}

func (c *SaveReceivedPayment) Name() string { return "save_received_payment" }

func (c *SaveReceivedPayment) Describe() (string, string) { return c.Item.Description, "" }

func (c *SaveReceivedPayment) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	item := c.Item
	if item.Status == "" {
		item.Status = model.StatusUnsettled
	}
	i, exists := indexOf(d.ReceivedPaymentItems, item.ID, receivedID)
	exists = exists && item.ID != ""
	if !exists {
		item.ID = newItemID(item.ID)
	}
	if err := tracker.ValidateReceivedPayment(item, reg); err != nil {
		return err
	}
	if exists {
		d.ReceivedPaymentItems[i] = item
	} else {
		d.ReceivedPaymentItems = append(d.ReceivedPaymentItems, item)
	}
	c.Result = item
	return nil
}

// DeleteReceivedPayment removes a received-payment item.
type DeleteReceivedPayment struct {
	ID string
}

func (c *DeleteReceivedPayment) Name() string { return "delete_received_payment" }

func (c *DeleteReceivedPayment) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	i, ok := indexOf(d.ReceivedPaymentItems, c.ID, receivedID)
	if !ok {
		return fmt.Errorf("%w: received payment %s", ErrNotFound, c.ID)
	}
	d.ReceivedPaymentItems = append(d.ReceivedPaymentItems[:i], d.ReceivedPaymentItems[i+1:]...)
	return nil
}

// SettleReceivedPayment fires a settlement event ("settle" or "reopen").
type SettleReceivedPayment struct {
	ID    string
	Event string
}

func (c *SettleReceivedPayment) Name() string { return c.Event + "_received_payment" }

func (c *SettleReceivedPayment) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	i, ok := indexOf(d.ReceivedPaymentItems, c.ID, receivedID)
	if !ok {
		return fmt.Errorf("%w: received payment %s", ErrNotFound, c.ID)
	}
	return tracker.NewSettlement(&d.ReceivedPaymentItems[i].Status).Fire(tx.Context(), c.Event)
}

// SetSalaryTemplate replaces the salary template. A nil template restores
// the defaults.
type SetSalaryTemplate struct {
	Lines []model.SalaryLine
}

func (c *SetSalaryTemplate) Name() string { return "set_salary_template" }

func (c *SetSalaryTemplate) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	if c.Lines == nil {
		d.SalaryLedger = tracker.DefaultSalaryTemplate()
		return nil
	}
	for i, l := range c.Lines {
		if !reg.Exists(l.AccountID) {
			return fmt.Errorf("%w: salary line %d: unknown account %q", tracker.ErrInvalidItem, i+1, l.AccountID)
		}
	}
	d.SalaryLedger = append([]model.SalaryLine(nil), c.Lines...)
	return nil
}

// GenerateSalary posts the salary voucher from amounts keyed by template row.
type GenerateSalary struct {
	Date    string
	Amounts map[int]tracker.SalaryAmount

	Result model.JournalEntry
}

func (c *GenerateSalary) Name() string { return "generate_salary" }

func (c *GenerateSalary) Describe() (string, string) {
	return describeEntry(c.Result), c.Result.ID
}

func (c *GenerateSalary) Apply(tx *Tx) error {
	svc, d, err := tx.Journal()
	if err != nil {
		return err
	}
	e, err := tracker.GenerateSalary(d.SalaryLedger, c.Amounts, c.Date, d.JournalEntries, tx.Config.Tolerance)
	if err != nil {
		return err
	}
	entries, e, err := svc.Add(d.JournalEntries, e)
	if err != nil {
		return err
	}
	d.JournalEntries = entries
	c.Result = e.Clone()
	return nil
}

// AddMemo adds a managed memo.
type AddMemo struct {
	Text string

	Result model.ManagedMemo
}

func (c *AddMemo) Name() string { return "add_memo" }

func (c *AddMemo) Describe() (string, string) { return c.Text, "" }

func (c *AddMemo) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	memos, m, err := memo.Add(d.ManagedMemos, c.Text)
	if err != nil {
		return err
	}
	d.ManagedMemos = memos
	c.Result = m
	return nil
}

// UpdateMemo changes a managed memo's text.
type UpdateMemo struct {
	ID   string
	Text string
}

func (c *UpdateMemo) Name() string { return "update_memo" }

func (c *UpdateMemo) Describe() (string, string) { return c.Text, "" }

func (c *UpdateMemo) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	memos, err := memo.Update(d.ManagedMemos, c.ID, c.Text)
	if err != nil {
		return err
	}
	d.ManagedMemos = memos
	return nil
}

// DeleteMemo removes a managed memo.
type DeleteMemo struct {
	ID string
}

func (c *DeleteMemo) Name() string { return "delete_memo" }

func (c *DeleteMemo) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	memos, err := memo.Delete(d.ManagedMemos, c.ID)
	if err != nil {
		return err
	}
	d.ManagedMemos = memos
	return nil
}

// RenameMemo rewrites a memo on every line of one account. An empty New
// clears it.
type RenameMemo struct {
	AccountID string
	Old, New  string

	Changed int
}

func (c *RenameMemo) Name() string { return "rename_memo" }

func (c *RenameMemo) Describe() (string, string) {
	return fmt.Sprintf("%s: %q -> %q (%d lines)", c.AccountID, c.Old, c.New, c.Changed), ""
}

func (c *RenameMemo) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	c.Changed = memo.RenameByAccount(d.JournalEntries, c.AccountID, c.Old, c.New)
	if c.Changed == 0 {
		return fmt.Errorf("%w: memo %q on account %s", ErrNotFound, c.Old, c.AccountID)
	}
	return nil
}
