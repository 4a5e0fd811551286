package model

import "github.com/shopspring/decimal"

func init() {
	// Amounts are stored as JSON numbers in state and backup documents.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProfileData is the complete book of one profile.
type ProfileData struct {
	Accounts             []Account             `json:"accounts"`
	JournalEntries       []JournalEntry        `json:"journalEntries"`
	CreditCardLedgers    []CreditCardLedger    `json:"creditCardLedgers"`
	AmortizationItems    []AmortizationItem    `json:"amortizationItems"`
	PrepaymentItems      []PrepaymentItem      `json:"prepaymentItems"`
	ReceivedPaymentItems []ReceivedPaymentItem `json:"receivedPaymentItems"`
	ManagedMemos         []ManagedMemo         `json:"managedMemos"`
	SalaryLedger         []SalaryLine          `json:"salaryLedger"`
}

// Profile identifies one user's book.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AppState holds every profile and the currently selected one.
type AppState struct {
	Profiles        []Profile               `json:"profiles"`
	ActiveProfileID string                  `json:"activeProfileId,omitempty"`
	Data            map[string]*ProfileData `json:"data"`
}

// Active returns the data of the selected profile, or nil.
func (s *AppState) Active() *ProfileData {
	if s == nil || s.ActiveProfileID == "" || s.Data == nil {
		return nil
	}
	return s.Data[s.ActiveProfileID]
}

// Profile returns the profile with the given id.
func (s *AppState) Profile(id string) (Profile, bool) {
	for _, p := range s.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Clone deep-copies the state.
func (s *AppState) Clone() *AppState {
	if s == nil {
		return nil
	}
	c := &AppState{
		Profiles:        append([]Profile(nil), s.Profiles...),
		ActiveProfileID: s.ActiveProfileID,
		Data:            make(map[string]*ProfileData, len(s.Data)),
	}
	for id, d := range s.Data {
		c.Data[id] = d.Clone()
	}
	return c
}

// Clone deep-copies the profile data.
func (d *ProfileData) Clone() *ProfileData {
	if d == nil {
		return nil
	}
	c := &ProfileData{
		Accounts:             append([]Account(nil), d.Accounts...),
		AmortizationItems:    append([]AmortizationItem(nil), d.AmortizationItems...),
		PrepaymentItems:      append([]PrepaymentItem(nil), d.PrepaymentItems...),
		ReceivedPaymentItems: append([]ReceivedPaymentItem(nil), d.ReceivedPaymentItems...),
		ManagedMemos:         append([]ManagedMemo(nil), d.ManagedMemos...),
		SalaryLedger:         append([]SalaryLine(nil), d.SalaryLedger...),
	}
	if d.JournalEntries != nil {
		c.JournalEntries = make([]JournalEntry, len(d.JournalEntries))
		for i, e := range d.JournalEntries {
			c.JournalEntries[i] = e.Clone()
		}
	}
	if d.CreditCardLedgers != nil {
		c.CreditCardLedgers = make([]CreditCardLedger, len(d.CreditCardLedgers))
		for i, l := range d.CreditCardLedgers {
			l.Transactions = append([]CreditCardTransaction(nil), l.Transactions...)
			c.CreditCardLedgers[i] = l
		}
	}
	return c
}

// Normalize upgrades legacy entries in place.
func (d *ProfileData) Normalize() {
	for i := range d.JournalEntries {
		d.JournalEntries[i].Normalize()
	}
}
