package store

import (
	"fmt"
	"strings"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/backup"
	"github.com/gracebooks/gracebooks/internal/closing"
	"github.com/gracebooks/gracebooks/internal/id"
	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/model"
)

// AddProfile creates a profile with the default chart and salary template.
// The first profile is always selected.
type AddProfile struct {
	ProfileName string
	Select      bool

	Result model.Profile
}

func (c *AddProfile) Name() string { return "add_profile" }

func (c *AddProfile) Describe() (string, string) { return c.ProfileName, "" }

func (c *AddProfile) Apply(tx *Tx) error {
	name := strings.TrimSpace(c.ProfileName)
	if name == "" {
		return fmt.Errorf("%w: profile name is required", ErrInvalidState)
	}
	for _, p := range tx.State.Profiles {
		if p.Name == name {
			return fmt.Errorf("%w: profile %q", ErrDuplicate, name)
		}
	}
	p := model.Profile{ID: id.New(), Name: name}
	tx.State.Profiles = append(tx.State.Profiles, p)
	if tx.State.Data == nil {
		tx.State.Data = make(map[string]*model.ProfileData)
	}
	tx.State.Data[p.ID] = newProfileData()
	if c.Select || tx.State.ActiveProfileID == "" {
		tx.State.ActiveProfileID = p.ID
	}
	c.Result = p
	return nil
}

// SelectProfile makes a profile active, by ID or by name.
type SelectProfile struct {
	Profile string
}

func (c *SelectProfile) Name() string { return "select_profile" }

func (c *SelectProfile) Apply(tx *Tx) error {
	for _, p := range tx.State.Profiles {
		if p.ID == c.Profile || p.Name == c.Profile {
			tx.State.ActiveProfileID = p.ID
			return nil
		}
	}
	return fmt.Errorf("%w: profile %q", ErrNotFound, c.Profile)
}

// ReplaceState swaps in a whole state, as restored from a cloud backup.
type ReplaceState struct {
	State *model.AppState
}

func (c *ReplaceState) Name() string { return "replace_state" }

func (c *ReplaceState) Describe() (string, string) {
	if c.State == nil {
		return "", ""
	}
	return fmt.Sprintf("%d profiles", len(c.State.Profiles)), ""
}

// Apply rejects the whole state if any profile holds an invalid journal
// entry or references an account missing from its chart.
func (c *ReplaceState) Apply(tx *Tx) error {
	if c.State == nil {
		return fmt.Errorf("%w: empty state", ErrInvalidState)
	}
	next := prepare(c.State.Clone())
	for _, p := range next.Profiles {
		d := next.Data[p.ID]
		if d == nil {
			continue
		}
		reg := accounts.NewRegistry(d.Accounts)
		var verrs []journal.ValidationError
		for _, e := range d.JournalEntries {
			verrs = append(verrs, journal.ValidateEntry(e, reg, tx.Config.Tolerance)...)
		}
		if err := journal.Errors(verrs); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
		if err := accounts.CheckReferences(d); err != nil {
			return fmt.Errorf("profile %s: %w", p.Name, err)
		}
	}
	*tx.State = *next
	return nil
}

// AddAccount adds an account to the active chart.
type AddAccount struct {
	Account model.Account
}

func (c *AddAccount) Name() string { return "add_account" }

func (c *AddAccount) Describe() (string, string) {
	return c.Account.ID + " " + c.Account.Name, ""
}

func (c *AddAccount) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	if err := reg.Add(c.Account); err != nil {
		return err
	}
	d.Accounts = reg.All()
	return nil
}

// UpdateAccount replaces the account with the same ID.
type UpdateAccount struct {
	Account model.Account
}

func (c *UpdateAccount) Name() string { return "update_account" }

func (c *UpdateAccount) Describe() (string, string) {
	return c.Account.ID + " " + c.Account.Name, ""
}

func (c *UpdateAccount) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	if err := reg.Update(c.Account); err != nil {
		return err
	}
	d.Accounts = reg.All()
	return nil
}

// DeleteAccount removes an account nothing references.
type DeleteAccount struct {
	ID string
}

func (c *DeleteAccount) Name() string { return "delete_account" }

func (c *DeleteAccount) Describe() (string, string) { return c.ID, "" }

func (c *DeleteAccount) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	if err := accounts.CheckInUse(c.ID, d); err != nil {
		return err
	}
	if err := reg.Delete(c.ID); err != nil {
		return err
	}
	d.Accounts = reg.All()
	return nil
}

// ImportAccounts adds the accounts whose IDs are new.
type ImportAccounts struct {
	Accounts []model.Account

	Added, Skipped int
}

func (c *ImportAccounts) Name() string { return "import_accounts" }

func (c *ImportAccounts) Describe() (string, string) {
	return fmt.Sprintf("added %d, skipped %d", c.Added, c.Skipped), ""
}

func (c *ImportAccounts) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	for _, a := range c.Accounts {
		if reg.Exists(a.ID) {
			c.Skipped++
			continue
		}
		if err := reg.Add(a); err != nil {
			return err
		}
		c.Added++
	}
	d.Accounts = reg.All()
	return nil
}

// AddEntry validates and inserts a journal entry. An empty ID gets the next
// voucher ID of the entry's date.
type AddEntry struct {
	Entry model.JournalEntry

	Result model.JournalEntry
}

func (c *AddEntry) Name() string { return "add_entry" }

func (c *AddEntry) Describe() (string, string) {
	return describeEntry(c.Result), c.Result.ID
}

func (c *AddEntry) Apply(tx *Tx) error {
	svc, d, err := tx.Journal()
	if err != nil {
		return err
	}
	entries, e, err := svc.Add(d.JournalEntries, c.Entry.Clone())
	if err != nil {
		return err
	}
	d.JournalEntries = entries
	c.Result = e.Clone()
	return nil
}

// UpdateEntry replaces a journal entry.
type UpdateEntry struct {
	Entry model.JournalEntry

	Result model.JournalEntry
}

func (c *UpdateEntry) Name() string { return "update_entry" }

func (c *UpdateEntry) Describe() (string, string) {
	return describeEntry(c.Entry), c.Entry.ID
}

func (c *UpdateEntry) Apply(tx *Tx) error {
	svc, d, err := tx.Journal()
	if err != nil {
		return err
	}
	entries, err := svc.Update(d.JournalEntries, c.Entry.Clone())
	if err != nil {
		return err
	}
	d.JournalEntries = entries
	if i, ok := journal.Find(entries, c.Entry.ID); ok {
		c.Result = entries[i].Clone()
	}
	return nil
}

// DeleteEntry removes a journal entry. Deleting a closing entry reopens its
// month.
type DeleteEntry struct {
	ID string
}

func (c *DeleteEntry) Name() string { return "delete_entry" }

func (c *DeleteEntry) Describe() (string, string) { return "", c.ID }

func (c *DeleteEntry) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	entries, err := journal.Delete(d.JournalEntries, c.ID)
	if err != nil {
		return err
	}
	d.JournalEntries = entries
	return nil
}

// MergeEntries adds imported entries whose IDs are new. Every incoming entry
// is validated and one invalid entry rejects the whole batch.
type MergeEntries struct {
	Entries []model.JournalEntry

	Added, Skipped int
}

func (c *MergeEntries) Name() string { return "merge_entries" }

func (c *MergeEntries) Describe() (string, string) {
	return fmt.Sprintf("added %d, skipped %d", c.Added, c.Skipped), ""
}

func (c *MergeEntries) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	incoming := make([]model.JournalEntry, len(c.Entries))
	var verrs []journal.ValidationError
	for i, e := range c.Entries {
		e = e.Clone()
		e.Normalize()
		if e.Kind == "" {
			e.Kind = model.KindRegular
		}
		verrs = append(verrs, journal.ValidateEntry(e, reg, tx.Config.Tolerance)...)
		incoming[i] = e
	}
	if err := journal.Errors(verrs); err != nil {
		return err
	}
	before := len(d.JournalEntries)
	d.JournalEntries, c.Skipped = journal.MergeNew(d.JournalEntries, incoming)
	c.Added = len(d.JournalEntries) - before
	return nil
}

// CloseMonth posts the closing entry of a month.
type CloseMonth struct {
	Month string

	Result model.JournalEntry
}

func (c *CloseMonth) Name() string { return "close_month" }

func (c *CloseMonth) Describe() (string, string) {
	return "closed " + c.Month, c.Result.ID
}

func (c *CloseMonth) Apply(tx *Tx) error {
	reg, d, err := tx.Registry()
	if err != nil {
		return err
	}
	e, err := closing.Close(c.Month, reg, d.JournalEntries, tx.Config.Closing)
	if err != nil {
		return err
	}
	d.JournalEntries = append(d.JournalEntries, e)
	journal.Sort(d.JournalEntries)
	c.Result = e.Clone()
	return nil
}

// RestoreBackup applies a backup document to the active profile.
type RestoreBackup struct {
	Doc     *model.ProfileData
	Options backup.Options

	Result backup.Result
}

func (c *RestoreBackup) Name() string { return "restore_backup" }

func (c *RestoreBackup) Describe() (string, string) {
	return fmt.Sprintf("accounts %s +%d, journal %s +%d/-%d skipped",
		c.Options.Accounts, c.Result.Accounts.Added,
		c.Options.Journal, c.Result.Journal.Added, c.Result.Journal.Skipped), ""
}

func (c *RestoreBackup) Apply(tx *Tx) error {
	d, err := tx.Book()
	if err != nil {
		return err
	}
	out, res, err := backup.Restore(d, c.Doc, c.Options, tx.Config.Tolerance)
	if err != nil {
		return err
	}
	*d = *out
	c.Result = res
	return nil
}

func describeEntry(e model.JournalEntry) string {
	memo := ""
	for _, l := range e.Lines {
		if l.Memo != "" {
			memo = l.Memo
			break
		}
	}
	return fmt.Sprintf("%s %s %s", e.Date, memo, e.TotalDebit().StringFixed(2))
}
