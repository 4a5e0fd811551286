package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracebooks/gracebooks/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: "1111", Name: "現金", Level1: "1-資產", Level2: "11-流動資產", Level3: "111-現金"},
		{ID: "6218", Name: "餐費, 外食", Level1: "6-其他支出", Level2: "62-個人支出", Level3: "621-飲食"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, accounts, got)
}

func TestReadAccounts_Errors(t *testing.T) {
	_, err := ReadAccounts(strings.NewReader(Header + "\n1111,現金,1-資產\n"))
	assert.Error(t, err)

	_, err = ReadAccounts(strings.NewReader(Header + "\nxx,現金,1-資產,11-流動資產,111-現金\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadAccounts_Empty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDefaultChart(t *testing.T) {
	chart := DefaultChart()
	require.NotEmpty(t, chart)

	ids := make(map[string]bool)
	for _, a := range chart {
		assert.False(t, ids[a.ID], "duplicate id %s", a.ID)
		ids[a.ID] = true
		assert.NoError(t, validate(a), a.ID)
	}

	for _, want := range []string{"1111", "1221", "2311", "2312", "2412", "2413", "3111", "3112", "4111", "5133", "5134", "6218", "7111", "7211"} {
		assert.True(t, ids[want], "expected default account %s", want)
	}
}
