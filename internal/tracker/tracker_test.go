package tracker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func entry(id, date string, lines ...model.JournalLine) model.JournalEntry {
	return model.JournalEntry{ID: id, Date: date, Kind: model.KindRegular, Lines: lines}
}

func dr(acct, memo, amt string) model.JournalLine {
	return model.JournalLine{AccountID: acct, Memo: memo, Debit: dec(amt)}
}

func cr(acct, memo, amt string) model.JournalLine {
	return model.JournalLine{AccountID: acct, Memo: memo, Credit: dec(amt)}
}

var registry = accounts.NewRegistry(accounts.DefaultChart())

func TestMonthlyAmount_TwelvePeriods(t *testing.T) {
	item := model.AmortizationItem{
		ID: "a1", Description: "年繳保險", TotalAmount: dec("1200"), Periods: 12,
		StartDate: "2024-01-01", DebitAccountID: "6311", CreditAccountID: "1421",
	}
	var entries []model.JournalEntry
	sum := decimal.Zero
	for i := 0; i < 12; i++ {
		e, err := GenerateAmortization(item, "2024-01-31", entries)
		require.NoError(t, err)
		assert.Equal(t, "100.00", e.Lines[0].Debit.StringFixed(2))
		assert.True(t, e.Lines[0].Debit.Equal(dec("100")))
		entries = append(entries, e)
		sum = sum.Add(e.Lines[0].Debit)
	}
	assert.True(t, sum.Sub(item.TotalAmount).Abs().LessThanOrEqual(dec("0.01")))
	assert.Equal(t, "20240131-12", entries[11].ID)
}

func TestGenerateAmortization(t *testing.T) {
	item := model.AmortizationItem{
		ID: "a1", Description: "房租", TotalAmount: dec("1000"), Periods: 3,
		StartDate: "2024-01-01", DebitAccountID: "5131", CreditAccountID: "1422",
	}
	e, err := GenerateAmortization(item, "2024-02-01", nil)
	require.NoError(t, err)
	assert.Equal(t, "20240201-01", e.ID)
	require.Len(t, e.Lines, 2)
	assert.Equal(t, "房租 (分攤)", e.Lines[0].Memo)
	assert.Equal(t, "5131", e.Lines[0].AccountID)
	assert.True(t, e.Lines[0].Debit.Equal(dec("333.33")))
	assert.Equal(t, "1422", e.Lines[1].AccountID)
	assert.True(t, e.Lines[1].Credit.Equal(dec("333.33")))
	assert.True(t, e.IsBalanced(model.DefaultTolerance))

	syn := item
	syn.ID = "syn_1422"
	_, err = GenerateAmortization(syn, "2024-02-01", nil)
	assert.ErrorIs(t, err, ErrSynthesized)

	noExpense := item
	noExpense.DebitAccountID = ""
	_, err = GenerateAmortization(noExpense, "2024-02-01", nil)
	assert.ErrorIs(t, err, ErrNoExpenseAccount)
}

func TestAmortizationSchedule_LastPeriodAbsorbsRounding(t *testing.T) {
	item := model.AmortizationItem{ID: "a1", TotalAmount: dec("1000"), Periods: 3, StartDate: "2024-01-15"}
	sched, err := AmortizationSchedule(item)
	require.NoError(t, err)
	require.Len(t, sched, 3)
	assert.True(t, sched[0].Amount.Equal(dec("333.33")))
	assert.True(t, sched[2].Amount.Equal(dec("333.34")))
	assert.True(t, sched[2].Cumulative.Equal(dec("1000")))
	assert.True(t, sched[2].Remaining.IsZero())
	assert.Equal(t, "2024-03-15", sched[2].Date)

	_, err = AmortizationSchedule(model.AmortizationItem{Periods: 3})
	assert.Error(t, err)
}

func TestAmortizationViews(t *testing.T) {
	entries := []model.JournalEntry{
		entry("20240101-01", "2024-01-01", dr("1421", "年繳保險", "1200"), cr("1221", "", "1200")),
		entry("20240131-01", "2024-01-31", dr("6311", "", "100"), cr("1421", "", "100")),
		entry("20240105-01", "2024-01-05", dr("1422", "", "3000"), cr("1221", "", "3000")),
	}
	items := []model.AmortizationItem{{ID: "rent", Description: "房租", TotalAmount: dec("3000"), Periods: 3, CreditAccountID: "1422", DebitAccountID: "5131"}}

	views := AmortizationViews(accounts.DefaultChart(), entries, items, DefaultOptions())
	require.Len(t, views, 2)

	ins := views[0]
	assert.True(t, ins.Synthesized)
	assert.Equal(t, "syn_1421", ins.Item.ID)
	assert.Equal(t, "年繳保險", ins.Item.Description)
	assert.True(t, ins.Item.TotalAmount.Equal(dec("1200")))
	assert.Equal(t, 12, ins.Item.Periods)
	assert.Equal(t, "2024-01-01", ins.Item.StartDate)
	assert.True(t, ins.Balance.Equal(dec("1100")))
	assert.Len(t, ins.Details, 2)

	rent := views[1]
	assert.False(t, rent.Synthesized)
	assert.Equal(t, "rent", rent.Item.ID)

	// A fully amortized account drops out.
	done := append(entries, entry("20240201-01", "2024-02-01", dr("6311", "", "1100"), cr("1421", "", "1100")))
	assert.Len(t, AmortizationViews(accounts.DefaultChart(), done, items, DefaultOptions()), 1)
}

func TestAmortizationViews_NoDebitUsesPlaceholder(t *testing.T) {
	entries := []model.JournalEntry{
		entry("20240101-01", "2024-01-01", dr("1221", "", "50"), cr("1421", "", "50")),
	}
	views := AmortizationViews(accounts.DefaultChart(), entries, nil, DefaultOptions())
	require.Len(t, views, 1)
	assert.Equal(t, "預付保險費 (待設定)", views[0].Item.Description)
	assert.True(t, views[0].Item.TotalAmount.Equal(dec("-50")))
}

func TestValidateAmortization(t *testing.T) {
	ok := model.AmortizationItem{ID: "x", Description: "d", TotalAmount: dec("10"), Periods: 2, CreditAccountID: "1421"}
	assert.NoError(t, ValidateAmortization(ok, registry))

	bad := ok
	bad.Periods = 0
	bad.CreditAccountID = "9999"
	err := ValidateAmortization(bad, registry)
	assert.ErrorIs(t, err, ErrInvalidItem)
	assert.Contains(t, err.Error(), "periods")
	assert.Contains(t, err.Error(), "9999")
}

func TestPrepaymentViews(t *testing.T) {
	entries := []model.JournalEntry{
		entry("20240101-01", "2024-01-01", dr("1421", "", "1200"), cr("1221", "", "1200")),
		entry("20240102-01", "2024-01-02", dr("1422", "", "500"), cr("1221", "", "500")),
	}
	items := []model.PrepaymentItem{{ID: "p1", Date: "2024-01-02", Description: "押金", Amount: dec("500"), AssetAccountID: "1422", Status: model.StatusUnsettled}}

	views := PrepaymentViews(accounts.DefaultChart(), entries, items, DefaultOptions())
	require.Len(t, views, 2)
	assert.Equal(t, "p1", views[0].Item.ID)
	assert.False(t, views[0].Synthesized)
	assert.True(t, views[1].Synthesized)
	assert.Equal(t, "syn_1421", views[1].Item.ID)
	assert.Equal(t, "2024-01-01", views[1].Item.Date)
	assert.True(t, views[1].Balance.Equal(dec("1200")))
}

func TestReceivedPaymentViews(t *testing.T) {
	chart := append(accounts.DefaultChart(),
		model.Account{ID: "2612", Name: "預收租金", Level1: "2-負債", Level2: "26-預收款項", Level3: "261-預收款"})
	entries := []model.JournalEntry{
		entry("20240101-01", "2024-01-01", dr("1221", "", "800"), cr("2611", "訂金", "800")),
		entry("20240102-01", "2024-01-02", dr("1221", "", "100"), cr("2612", "", "100")),
		entry("20240103-01", "2024-01-03", dr("2612", "", "100"), cr("4111", "", "100")),
	}
	views := ReceivedPaymentViews(chart, entries, nil, DefaultOptions())
	require.Len(t, views, 1, "zero balances are hidden")
	assert.Equal(t, "2611", views[0].AccountID)
	assert.True(t, views[0].Balance.Equal(dec("800")))
	assert.True(t, views[0].Synthesized)

	items := []model.ReceivedPaymentItem{{ID: "r1", Date: "2024-01-01", Description: "訂金", Amount: dec("800"), LiabilityAccountID: "2611"}}
	views = ReceivedPaymentViews(chart, entries, items, DefaultOptions())
	require.Len(t, views, 1)
	assert.Equal(t, "r1", views[0].Item.ID)
	assert.False(t, views[0].Synthesized)
}

func TestValidatePayments(t *testing.T) {
	p := model.PrepaymentItem{ID: "p1", Date: "2024-01-02", Description: "押金", Amount: dec("500"), AssetAccountID: "1422"}
	assert.NoError(t, ValidatePrepayment(p, registry))
	p.Amount = dec("0")
	assert.ErrorIs(t, ValidatePrepayment(p, registry), ErrInvalidItem)

	r := model.ReceivedPaymentItem{ID: "syn_2611", Date: "2024-01-02", Description: "x", Amount: dec("1"), LiabilityAccountID: "2611"}
	assert.ErrorIs(t, ValidateReceivedPayment(r, registry), ErrInvalidItem)
}

func TestSettlement(t *testing.T) {
	ctx := context.Background()
	item := model.PrepaymentItem{ID: "p1"}

	s := NewSettlement(&item.Status)
	assert.Equal(t, model.StatusUnsettled, item.Status)
	assert.True(t, s.Can(EventSettle))
	assert.False(t, s.Can(EventReopen))

	require.NoError(t, s.Settle(ctx))
	assert.Equal(t, model.StatusSettled, item.Status)
	assert.ErrorIs(t, s.Settle(ctx), ErrInvalidTransition)

	require.NoError(t, s.Reopen(ctx))
	assert.Equal(t, model.StatusUnsettled, item.Status)
	assert.Equal(t, model.StatusUnsettled, s.Current())

	assert.ErrorIs(t, s.Fire(ctx, "archive"), ErrInvalidTransition)
}
