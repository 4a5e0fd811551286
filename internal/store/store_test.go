package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/backup"
	"github.com/gracebooks/gracebooks/internal/closing"
	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/tracker"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func meal(date, amount string) model.JournalEntry {
	return model.JournalEntry{
		Date: date,
		Lines: []model.JournalLine{
			{AccountID: "6218", Memo: "午餐", Debit: dec(amount)},
			{AccountID: "1111", Memo: "午餐", Credit: dec(amount)},
		},
	}
}

type recorder struct{ commands []string }

func (r *recorder) Record(_, command, _, _ string) error {
	r.commands = append(r.commands, command)
	return nil
}

func newStore(t *testing.T, opts ...Option) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister(nil)
	s, err := Open(context.Background(), p, DefaultConfig(), opts...)
	require.NoError(t, err)
	require.NoError(t, s.Do(context.Background(), &AddProfile{ProfileName: "家庭"}))
	return s, p
}

func TestOpen_Empty(t *testing.T) {
	s, err := Open(context.Background(), NewMemoryPersister(nil), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, s.Profiles())
	_, _, err = s.Active()
	assert.ErrorIs(t, err, ErrNoActiveProfile)

	err = s.Do(context.Background(), &AddEntry{Entry: meal("2024-08-01", "150")})
	assert.ErrorIs(t, err, ErrNoActiveProfile)
}

func TestOpen_UpgradesProfiles(t *testing.T) {
	legacy := &model.AppState{
		Profiles: []model.Profile{{ID: "p1", Name: "舊"}},
		Data: map[string]*model.ProfileData{"p1": {
			Accounts: []model.Account{{ID: "9001", Name: "自訂", Level3: "900-自訂"}},
			JournalEntries: []model.JournalEntry{{ID: "20240131-01", Date: "2024-01-31", Lines: []model.JournalLine{
				{AccountID: "4111", Memo: "結轉損益", Debit: dec("10")},
				{AccountID: "3116", Memo: "結轉損益", Credit: dec("10")},
			}}},
		}},
	}
	s, err := Open(context.Background(), NewMemoryPersister(legacy), DefaultConfig())
	require.NoError(t, err)

	p, d, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	reg := accounts.NewRegistry(d.Accounts)
	assert.True(t, reg.Exists("9001"))
	assert.True(t, reg.Exists("1111"))
	assert.Len(t, d.SalaryLedger, 10)
	assert.Equal(t, model.KindClosing, d.JournalEntries[0].Kind)
}

func TestAddProfile(t *testing.T) {
	s, p := newStore(t)
	prof, d, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, "家庭", prof.Name)
	assert.Len(t, d.Accounts, len(accounts.DefaultChart()))
	assert.Len(t, d.SalaryLedger, 10)

	ctx := context.Background()
	assert.ErrorIs(t, s.Do(ctx, &AddProfile{ProfileName: "家庭"}), ErrDuplicate)

	second := &AddProfile{ProfileName: "公司"}
	require.NoError(t, s.Do(ctx, second))
	active, _, _ := s.Active()
	assert.Equal(t, prof.ID, active.ID, "a new profile is not selected unless asked")

	require.NoError(t, s.Do(ctx, &SelectProfile{Profile: "公司"}))
	active, _, _ = s.Active()
	assert.Equal(t, second.Result.ID, active.ID)
	assert.ErrorIs(t, s.Do(ctx, &SelectProfile{Profile: "nobody"}), ErrNotFound)

	revs := p.Revisions()
	require.Len(t, revs, 3)
	assert.Equal(t, "select_profile", revs[2].Command)
}

func TestDo_FailedCommandLeavesStateUnchanged(t *testing.T) {
	s, p := newStore(t)
	ctx := context.Background()
	before := s.State()

	bad := meal("2024-08-01", "150")
	bad.Lines[1].Credit = dec("140")
	err := s.Do(ctx, &AddEntry{Entry: bad})
	assert.ErrorIs(t, err, journal.ErrInvalid)
	assert.Contains(t, err.Error(), "add_entry")
	assert.Equal(t, before, s.State())
	assert.Len(t, p.Revisions(), 1)
}

func TestDo_PersistFailureLeavesStateUnchanged(t *testing.T) {
	rec := &recorder{}
	s, p := newStore(t, WithActivity(rec))
	before := s.State()

	p.FailSave = errors.New("disk full")
	add := &AddEntry{Entry: meal("2024-08-01", "150")}
	err := s.Do(context.Background(), add)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, before, s.State())
	assert.Equal(t, []string{"add_profile"}, rec.commands)
	_, d, _ := s.Active()
	_, ok := journal.Find(d.JournalEntries, add.Result.ID)
	assert.False(t, ok, "a result from a failed Do names nothing stored")
}

func TestDo_CanceledContext(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Do(ctx, &AddEntry{Entry: meal("2024-08-01", "150")}), context.Canceled)
}

func TestEntriesAndClosing(t *testing.T) {
	rec := &recorder{}
	s, _ := newStore(t, WithActivity(rec))
	ctx := context.Background()

	add := &AddEntry{Entry: meal("2024-08-01", "150")}
	require.NoError(t, s.Do(ctx, add))
	assert.Equal(t, "20240801-01", add.Result.ID)
	assert.Equal(t, model.KindRegular, add.Result.Kind)

	salary := model.JournalEntry{Date: "2024-08-05", Lines: []model.JournalLine{
		{AccountID: "1221", Debit: dec("50000")},
		{AccountID: "4111", Credit: dec("50000")},
	}}
	require.NoError(t, s.Do(ctx, &AddEntry{Entry: salary}))

	closeAug := &CloseMonth{Month: "2024-08"}
	require.NoError(t, s.Do(ctx, closeAug))
	assert.Equal(t, "20240831-01", closeAug.Result.ID)
	assert.Equal(t, model.KindClosing, closeAug.Result.Kind)
	assert.ErrorIs(t, s.Do(ctx, &CloseMonth{Month: "2024-08"}), closing.ErrAlreadyClosed)

	_, d, _ := s.Active()
	require.Len(t, d.JournalEntries, 3)
	assert.Equal(t, "20240831-01", d.JournalEntries[0].ID, "entries stay sorted newest first")

	require.NoError(t, s.Do(ctx, &DeleteEntry{ID: closeAug.Result.ID}))
	assert.ErrorIs(t, s.Do(ctx, &DeleteEntry{ID: closeAug.Result.ID}), journal.ErrNotFound)

	upd := add.Result
	upd.Lines[0].Debit = dec("200")
	upd.Lines[1].Credit = dec("200")
	require.NoError(t, s.Do(ctx, &UpdateEntry{Entry: upd}))
	_, d, _ = s.Active()
	i, ok := journal.Find(d.JournalEntries, upd.ID)
	require.True(t, ok)
	assert.True(t, d.JournalEntries[i].TotalDebit().Equal(dec("200")))

	assert.Equal(t, []string{"add_profile", "add_entry", "add_entry", "close_month", "delete_entry", "update_entry"}, rec.commands)
}

func TestMergeEntries(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	e := meal("2024-08-01", "150")
	e.ID = "20240801-01"

	m := &MergeEntries{Entries: []model.JournalEntry{e}}
	require.NoError(t, s.Do(ctx, m))
	assert.Equal(t, 1, m.Added)

	m = &MergeEntries{Entries: []model.JournalEntry{e}}
	require.NoError(t, s.Do(ctx, m))
	assert.Equal(t, 0, m.Added)
	assert.Equal(t, 1, m.Skipped)

	bad := meal("2024-08-02", "10")
	bad.ID = "20240802-01"
	bad.Lines[0].Credit = dec("10")
	err := s.Do(ctx, &MergeEntries{Entries: []model.JournalEntry{bad}})
	assert.ErrorIs(t, err, journal.ErrInvalid)
}

func TestAccounts(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	acct := model.Account{ID: "6219", Name: "咖啡", Level1: "6-其他支出", Level2: "62-個人支出", Level3: "621-飲食"}
	require.NoError(t, s.Do(ctx, &AddAccount{Account: acct}))
	assert.ErrorIs(t, s.Do(ctx, &AddAccount{Account: acct}), accounts.ErrDuplicateID)

	acct.Name = "咖啡豆"
	require.NoError(t, s.Do(ctx, &UpdateAccount{Account: acct}))

	require.NoError(t, s.Do(ctx, &AddEntry{Entry: meal("2024-08-01", "150")}))
	err := s.Do(ctx, &DeleteAccount{ID: "6218"})
	assert.ErrorIs(t, err, accounts.ErrInUse)
	require.NoError(t, s.Do(ctx, &DeleteAccount{ID: "6219"}))

	imp := &ImportAccounts{Accounts: []model.Account{acct, {ID: "1111", Name: "現金", Level3: "111-現金"}}}
	require.NoError(t, s.Do(ctx, imp))
	assert.Equal(t, 1, imp.Added)
	assert.Equal(t, 1, imp.Skipped)
}

func TestCardLedger(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	save := &SaveCardLedger{Ledger: model.CreditCardLedger{Name: "中信卡", LiabilityAccountID: "2411"}}
	require.NoError(t, s.Do(ctx, save))
	ledgerID := save.Result.ID
	require.NotEmpty(t, ledgerID)

	assert.ErrorIs(t, s.Do(ctx, &SaveCardLedger{Ledger: model.CreditCardLedger{Name: "x", LiabilityAccountID: "1111"}}), tracker.ErrInvalidItem)

	txns := &SaveCardTransactions{LedgerID: ledgerID, Transactions: []model.CreditCardTransaction{
		{Date: "2024-08-01", Description: "午餐", Amount: dec("150"), AccountID: "6218"},
		{Date: "2024-08-02", Description: "房租", Amount: dec("12000"), AccountID: "5131"},
	}}
	require.NoError(t, s.Do(ctx, txns))
	assert.Equal(t, 2, txns.Added)

	gen := &GenerateCardEntry{LedgerID: ledgerID, Date: "2024-08-25"}
	require.NoError(t, s.Do(ctx, gen))
	assert.True(t, gen.Result.TotalCredit().Equal(dec("12150")))

	_, d, _ := s.Active()
	assert.Empty(t, d.CreditCardLedgers[0].Transactions)
	assert.Len(t, d.JournalEntries, 1)

	assert.ErrorIs(t, s.Do(ctx, &GenerateCardEntry{LedgerID: ledgerID, Date: "2024-08-25"}), tracker.ErrNothingToGenerate)
	assert.ErrorIs(t, s.Do(ctx, &DeleteCardLedger{ID: "nope"}), ErrNotFound)
	require.NoError(t, s.Do(ctx, &DeleteCardLedger{ID: ledgerID}))
}

func TestCardLedger_UnassignedChargeRejected(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	save := &SaveCardLedger{Ledger: model.CreditCardLedger{Name: "卡", LiabilityAccountID: "2411", Transactions: []model.CreditCardTransaction{
		{Date: "2024-08-01", Description: "午餐", Amount: dec("150"), AccountID: "6218"},
		{Date: "2024-08-02", Description: "未分類", Amount: dec("50")},
	}}}
	require.NoError(t, s.Do(ctx, save))

	err := s.Do(ctx, &GenerateCardEntry{LedgerID: save.Result.ID, Date: "2024-08-25"})
	assert.ErrorIs(t, err, journal.ErrInvalid)
	_, d, _ := s.Active()
	assert.Len(t, d.CreditCardLedgers[0].Transactions, 2, "charges stay pending")
}

func TestAmortizationCommands(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	save := &SaveAmortization{Item: model.AmortizationItem{
		ID: "syn_1421", Description: "年繳保險", TotalAmount: dec("1200"), Periods: 12,
		StartDate: "2024-01-01", DebitAccountID: "6311", CreditAccountID: "1421",
	}}
	require.NoError(t, s.Do(ctx, save))
	assert.False(t, tracker.IsSynthetic(save.Result.ID))

	gen := &GenerateAmortization{ItemID: save.Result.ID, Date: "2024-01-31"}
	require.NoError(t, s.Do(ctx, gen))
	assert.True(t, gen.Result.Lines[0].Debit.Equal(dec("100")))

	assert.ErrorIs(t, s.Do(ctx, &GenerateAmortization{ItemID: "syn_1422", Date: "2024-01-31"}), tracker.ErrSynthesized)
	assert.ErrorIs(t, s.Do(ctx, &GenerateAmortization{ItemID: "missing", Date: "2024-01-31"}), ErrNotFound)

	require.NoError(t, s.Do(ctx, &DeleteAmortization{ID: save.Result.ID}))
	_, d, _ := s.Active()
	assert.Empty(t, d.AmortizationItems)
}

func TestPaymentSettlement(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	pre := &SavePrepayment{Item: model.PrepaymentItem{Date: "2024-01-02", Description: "押金", Amount: dec("500"), AssetAccountID: "1422"}}
	require.NoError(t, s.Do(ctx, pre))
	assert.Equal(t, model.StatusUnsettled, pre.Result.Status)

	require.NoError(t, s.Do(ctx, &SettlePrepayment{ID: pre.Result.ID, Event: tracker.EventSettle}))
	assert.ErrorIs(t, s.Do(ctx, &SettlePrepayment{ID: pre.Result.ID, Event: tracker.EventSettle}), tracker.ErrInvalidTransition)
	_, d, _ := s.Active()
	assert.Equal(t, model.StatusSettled, d.PrepaymentItems[0].Status)

	rcv := &SaveReceivedPayment{Item: model.ReceivedPaymentItem{Date: "2024-01-02", Description: "訂金", Amount: dec("800"), LiabilityAccountID: "2611"}}
	require.NoError(t, s.Do(ctx, rcv))
	require.NoError(t, s.Do(ctx, &SettleReceivedPayment{ID: rcv.Result.ID, Event: tracker.EventSettle}))
	require.NoError(t, s.Do(ctx, &SettleReceivedPayment{ID: rcv.Result.ID, Event: tracker.EventReopen}))
	_, d, _ = s.Active()
	assert.Equal(t, model.StatusUnsettled, d.ReceivedPaymentItems[0].Status)

	require.NoError(t, s.Do(ctx, &DeletePrepayment{ID: pre.Result.ID}))
	require.NoError(t, s.Do(ctx, &DeleteReceivedPayment{ID: rcv.Result.ID}))
}

func TestSalaryCommands(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	gen := &GenerateSalary{Date: "2024-08-05", Amounts: map[int]tracker.SalaryAmount{
		8: {Debit: dec("50000")},
		9: {Credit: dec("50000")},
	}}
	require.NoError(t, s.Do(ctx, gen))
	assert.Equal(t, "20240805-01", gen.Result.ID)

	require.NoError(t, s.Do(ctx, &SetSalaryTemplate{Lines: []model.SalaryLine{{AccountID: "1111", Memo: "x"}}}))
	_, d, _ := s.Active()
	assert.Len(t, d.SalaryLedger, 1)
	assert.ErrorIs(t, s.Do(ctx, &SetSalaryTemplate{Lines: []model.SalaryLine{{AccountID: "0000"}}}), tracker.ErrInvalidItem)

	require.NoError(t, s.Do(ctx, &SetSalaryTemplate{}))
	_, d, _ = s.Active()
	assert.Len(t, d.SalaryLedger, 10)
}

func TestMemoCommands(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	add := &AddMemo{Text: "午餐"}
	require.NoError(t, s.Do(ctx, add))
	require.NoError(t, s.Do(ctx, &UpdateMemo{ID: add.Result.ID, Text: "早餐"}))
	require.NoError(t, s.Do(ctx, &DeleteMemo{ID: add.Result.ID}))

	require.NoError(t, s.Do(ctx, &AddEntry{Entry: meal("2024-08-01", "150")}))
	rename := &RenameMemo{AccountID: "6218", Old: "午餐", New: "中餐"}
	require.NoError(t, s.Do(ctx, rename))
	assert.Equal(t, 1, rename.Changed)
	assert.ErrorIs(t, s.Do(ctx, &RenameMemo{AccountID: "6218", Old: "午餐", New: "x"}), ErrNotFound)
}

func TestReplaceState(t *testing.T) {
	s, _ := newStore(t)
	incoming := &model.AppState{
		Profiles:        []model.Profile{{ID: "cloud", Name: "雲端"}},
		ActiveProfileID: "cloud",
		Data:            map[string]*model.ProfileData{"cloud": {}},
	}
	require.NoError(t, s.Do(context.Background(), &ReplaceState{State: incoming}))
	p, d, err := s.Active()
	require.NoError(t, err)
	assert.Equal(t, "cloud", p.ID)
	assert.NotEmpty(t, d.Accounts, "defaults are merged into restored profiles")
}

func TestReplaceState_RejectsInvalidBooks(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Do(ctx, &AddEntry{Entry: meal("2024-08-01", "150")}))
	before := s.State()

	bad := meal("2024-08-02", "150")
	bad.ID = "20240802-01"
	bad.Lines[0].Credit = dec("20")
	bad.Lines = append(bad.Lines, model.JournalLine{AccountID: "9999", Credit: dec("1")})
	incoming := &model.AppState{
		Profiles:        []model.Profile{{ID: "cloud", Name: "雲端"}},
		ActiveProfileID: "cloud",
		Data:            map[string]*model.ProfileData{"cloud": {JournalEntries: []model.JournalEntry{bad}}},
	}
	err := s.Do(ctx, &ReplaceState{State: incoming})
	require.ErrorIs(t, err, journal.ErrInvalid)
	assert.Contains(t, err.Error(), "20240802-01")
	assert.Contains(t, err.Error(), string(journal.RuleOneSide))
	assert.Contains(t, err.Error(), string(journal.RuleAccount))
	assert.Equal(t, before, s.State())

	forged := meal("2024-08-03", "10")
	forged.ID = "20240803-01"
	forged.Kind = "bogus"
	incoming.Data["cloud"].JournalEntries = []model.JournalEntry{forged}
	assert.ErrorIs(t, s.Do(ctx, &ReplaceState{State: incoming}), journal.ErrInvalid)

	incoming.Data["cloud"].JournalEntries = nil
	incoming.Data["cloud"].PrepaymentItems = []model.PrepaymentItem{{ID: "p1", Description: "押金", AssetAccountID: "1999"}}
	assert.ErrorIs(t, s.Do(ctx, &ReplaceState{State: incoming}), accounts.ErrDangling)
	assert.Equal(t, before, s.State())
}

func TestRestoreBackup_AccountsOverwriteCannotOrphanEntries(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Do(ctx, &AddEntry{Entry: meal("2024-08-01", "150")}))
	before := s.State()

	doc := &model.ProfileData{Accounts: []model.Account{{ID: "1111", Name: "現金", Level3: "111-現金"}}}
	err := s.Do(ctx, &RestoreBackup{Doc: doc, Options: backup.Options{Accounts: backup.Overwrite}})
	require.ErrorIs(t, err, accounts.ErrDangling)
	assert.Contains(t, err.Error(), "6218")
	assert.Equal(t, before, s.State())
}

func TestEntryKindIsNotCallerControlled(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	forged := meal("2024-08-01", "150")
	forged.Kind = model.KindClosing
	add := &AddEntry{Entry: forged}
	require.NoError(t, s.Do(ctx, add))
	assert.Equal(t, model.KindRegular, add.Result.Kind)

	upd := add.Result
	upd.Kind = "bogus"
	require.NoError(t, s.Do(ctx, &UpdateEntry{Entry: upd}))
	_, d, _ := s.Active()
	require.Len(t, d.JournalEntries, 1)
	assert.Equal(t, model.KindRegular, d.JournalEntries[0].Kind)

	closeAug := &CloseMonth{Month: "2024-08"}
	require.NoError(t, s.Do(ctx, closeAug), "a forged closing entry does not block the real close")
	assert.Equal(t, model.KindClosing, closeAug.Result.Kind)
}

func TestValidate(t *testing.T) {
	state := &model.AppState{
		Profiles: []model.Profile{{ID: "p"}},
		Data: map[string]*model.ProfileData{"p": {
			Accounts: []model.Account{{ID: "1111"}, {ID: "1111"}},
		}},
	}
	assert.ErrorIs(t, Validate(state), ErrInvalidState)

	state.Data["p"].Accounts = state.Data["p"].Accounts[:1]
	assert.NoError(t, Validate(state))

	state.ActiveProfileID = "ghost"
	assert.ErrorIs(t, Validate(state), ErrInvalidState)
}

func TestPersisters_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	sqlite, err := OpenSQLite(filepath.Join(dir, "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	persisters := map[string]Persister{
		"sqlite": sqlite,
		"json":   NewJSONFilePersister(filepath.Join(dir, "state.json")),
		"memory": NewMemoryPersister(nil),
	}
	for name, p := range persisters {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			empty, err := p.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, empty)

			s, err := Open(ctx, p, DefaultConfig())
			require.NoError(t, err)
			require.NoError(t, s.Do(ctx, &AddProfile{ProfileName: "家庭"}))
			require.NoError(t, s.Do(ctx, &AddEntry{Entry: meal("2024-08-01", "150.5")}))

			reopened, err := Open(ctx, p, DefaultConfig())
			require.NoError(t, err)
			prof, d, err := reopened.Active()
			require.NoError(t, err)
			assert.Equal(t, "家庭", prof.Name)
			require.Len(t, d.JournalEntries, 1)
			assert.True(t, d.JournalEntries[0].TotalDebit().Equal(dec("150.5")))
			assert.Equal(t, model.KindRegular, d.JournalEntries[0].Kind)
		})
	}
}

func TestSQLite_Revisions(t *testing.T) {
	ctx := context.Background()
	p, err := OpenSQLite(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	defer p.Close()

	s, err := Open(ctx, p, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, s.Do(ctx, &AddProfile{ProfileName: "家庭"}))
	require.NoError(t, s.Do(ctx, &AddEntry{Entry: meal("2024-08-01", "150")}))

	prof, _, err := s.Active()
	require.NoError(t, err)
	revs, err := p.Revisions(ctx, prof.ID, 10)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "add_entry", revs[0].Command)
	assert.Contains(t, revs[0].Details, "午餐")
	assert.Equal(t, "add_profile", revs[1].Command)

	none, err := p.Revisions(ctx, "other", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	p, err := OpenSQLite(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	defer p.Close()

	state := &model.AppState{
		Profiles:        []model.Profile{{ID: "p1", Name: "家庭"}},
		ActiveProfileID: "p1",
		Data:            map[string]*model.ProfileData{"p1": {}},
	}
	require.NoError(t, p.Save(ctx, state, Revision{}))

	broken := state.Clone()
	broken.Profiles = append(broken.Profiles, model.Profile{ID: "p1", Name: "dup"})
	assert.Error(t, p.Save(ctx, broken, Revision{Command: "x"}))

	loaded, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Profiles, 1)
}
