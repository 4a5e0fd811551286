package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracebooks/gracebooks/internal/model"
)

func TestParseCardImport(t *testing.T) {
	text := `
2024-08-01,午餐,150,6218
2024-08-02,保險,3000

2024-08-03, 水電 , 820.5 , 5134
`
	txs, errs := ParseCardImport(text, registry)
	require.Empty(t, errs)
	require.Len(t, txs, 3)
	assert.Equal(t, "6218", txs[0].AccountID)
	assert.Equal(t, "", txs[1].AccountID)
	assert.Equal(t, "水電", txs[2].Description)
	assert.True(t, txs[2].Amount.Equal(dec("820.5")))
	assert.NotEmpty(t, txs[0].ID)
	assert.NotEqual(t, txs[0].ID, txs[1].ID)
}

func TestParseCardImport_Errors(t *testing.T) {
	text := "2024-08-01,午餐\n2024/08/02,x,1\n2024-08-03,x,abc\n2024-08-04,x,1,1111\n2024-08-05,x,1,6218"
	txs, errs := ParseCardImport(text, registry)
	assert.Nil(t, txs)
	require.Len(t, errs, 4)
	assert.Equal(t, 1, errs[0].Line)
	assert.Equal(t, 2, errs[1].Line)
	assert.Equal(t, 3, errs[2].Line)
	assert.Equal(t, 4, errs[3].Line)
	assert.Contains(t, errs[3].Error(), "1111")
}

func TestGenerateCardEntry(t *testing.T) {
	ledger := model.CreditCardLedger{
		ID: "c1", Name: "中信卡", LiabilityAccountID: "2411",
		Transactions: []model.CreditCardTransaction{
			{ID: "t1", Date: "2024-08-01", Description: "午餐", Amount: dec("150"), AccountID: "6218"},
			{ID: "t2", Date: "2024-08-02", Description: "房租", Amount: dec("12000"), AccountID: "5131"},
		},
	}
	e, err := GenerateCardEntry(ledger, "2024-08-25", nil)
	require.NoError(t, err)
	assert.Equal(t, "20240825-01", e.ID)
	require.Len(t, e.Lines, 3)
	assert.Equal(t, "午餐", e.Lines[0].Memo)
	assert.Equal(t, "2411", e.Lines[2].AccountID)
	assert.Equal(t, "中信卡 帳單", e.Lines[2].Memo)
	assert.True(t, e.Lines[2].Credit.Equal(dec("12150")))
	assert.True(t, e.IsBalanced(model.DefaultTolerance))

	empty := ledger
	empty.Transactions = nil
	_, err = GenerateCardEntry(empty, "2024-08-25", nil)
	assert.ErrorIs(t, err, ErrNothingToGenerate)

	unassigned := ledger
	unassigned.Transactions = []model.CreditCardTransaction{{ID: "t3", Date: "2024-08-01", Description: "x", Amount: dec("10")}}
	_, err = GenerateCardEntry(unassigned, "2024-08-25", nil)
	assert.ErrorIs(t, err, ErrNothingToGenerate)
}

func TestValidateCardLedger(t *testing.T) {
	opts := DefaultOptions()
	assert.NoError(t, ValidateCardLedger(model.CreditCardLedger{Name: "卡", LiabilityAccountID: "2411"}, registry, opts))
	assert.ErrorIs(t, ValidateCardLedger(model.CreditCardLedger{Name: "卡", LiabilityAccountID: "2311"}, registry, opts), ErrInvalidItem)
	assert.ErrorIs(t, ValidateCardLedger(model.CreditCardLedger{LiabilityAccountID: "2411"}, registry, opts), ErrInvalidItem)

	tx := model.CreditCardTransaction{Date: "2024-08-01", Description: "x", Amount: dec("1"), AccountID: "6218"}
	assert.NoError(t, ValidateCardTransaction(tx, registry))
	tx.AccountID = "1111"
	assert.ErrorIs(t, ValidateCardTransaction(tx, registry), ErrInvalidItem)
}

func TestGenerateSalary(t *testing.T) {
	tmpl := DefaultSalaryTemplate()
	require.Len(t, tmpl, 10)
	assert.Equal(t, "7211", tmpl[2].AccountID)
	assert.Equal(t, "7211", tmpl[3].AccountID)

	amounts := map[int]SalaryAmount{
		0: {Debit: dec("10000")},
		8: {Debit: dec("40000")},
		9: {Credit: dec("50000")},
	}
	e, err := GenerateSalary(tmpl, amounts, "2024-08-05", nil, model.DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, "20240805-01", e.ID)
	require.Len(t, e.Lines, 3)
	assert.Equal(t, "2312", e.Lines[0].AccountID)
	assert.Equal(t, "薪資收入", e.Lines[2].Memo)

	_, err = GenerateSalary(tmpl, nil, "2024-08-05", nil, model.DefaultTolerance)
	assert.ErrorIs(t, err, ErrNothingToGenerate)

	amounts[9] = SalaryAmount{Credit: dec("49999")}
	_, err = GenerateSalary(tmpl, amounts, "2024-08-05", nil, model.DefaultTolerance)
	assert.ErrorIs(t, err, ErrUnbalanced)

	_, err = GenerateSalary(tmpl, map[int]SalaryAmount{10: {Debit: dec("1")}}, "2024-08-05", nil, model.DefaultTolerance)
	assert.ErrorIs(t, err, ErrInvalidItem)
}
