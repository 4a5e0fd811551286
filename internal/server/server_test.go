package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/report"
	"github.com/gracebooks/gracebooks/internal/store"
	"github.com/gracebooks/gracebooks/internal/tracker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const mealJSON = `{"date":"2024-03-02","lines":[
	{"accountId":"6218","memo":"午餐","debit":150},
	{"accountId":"1111","memo":"午餐","credit":150}]}`

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), store.NewMemoryPersister(nil), store.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, st.Do(context.Background(), &store.AddProfile{ProfileName: "家庭"}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, logger), st
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"dev"}`, w.Body.String())
}

func TestNoActiveProfile(t *testing.T) {
	st, err := store.Open(context.Background(), store.NewMemoryPersister(nil), store.DefaultConfig())
	require.NoError(t, err)
	s := New(st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	w := do(t, s, http.MethodGet, "/api/v1/accounts", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no active profile")
}

func TestAccounts(t *testing.T) {
	s, st := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/accounts", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]model.Account](t, w)
	assert.Len(t, list, len(accounts.DefaultChart()))

	acct := `{"id":"6299","name":"雜支","level1":"6-其他","level2":"62-個人支出","level3":"629-雜支"}`
	w = do(t, s, http.MethodPost, "/api/v1/accounts", acct)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/accounts", acct)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/accounts", `{"id":"abc","name":"x","level3":"1-x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPut, "/api/v1/accounts/6299", `{"name":"雜項","level3":"629-雜支"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	_, d, err := st.Active()
	require.NoError(t, err)
	assert.Equal(t, "雜項", accounts.NewRegistry(d.Accounts).Name("6299"))

	w = do(t, s, http.MethodPut, "/api/v1/accounts/9999", `{"name":"x","level3":"999-x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/api/v1/accounts/6299", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/accounts", `{bad json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAccountInUse(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/v1/entries", mealJSON).Code)

	w := do(t, s, http.MethodDelete, "/api/v1/accounts/6218", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "in use")
}

func TestEntries(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/entries", mealJSON)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	e := decode[model.JournalEntry](t, w)
	assert.Equal(t, "20240302-01", e.ID)
	assert.Equal(t, model.KindRegular, e.Kind)

	w = do(t, s, http.MethodPost, "/api/v1/entries", mealJSON)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "20240302-02", decode[model.JournalEntry](t, w).ID)

	w = do(t, s, http.MethodGet, "/api/v1/entries?month=2024-03&account=62", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.JournalEntry](t, w), 2)

	w = do(t, s, http.MethodGet, "/api/v1/entries?month=2024-04", "")
	assert.Empty(t, decode[[]model.JournalEntry](t, w))

	w = do(t, s, http.MethodDelete, "/api/v1/entries/20240302-02", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, http.MethodDelete, "/api/v1/entries/20240302-02", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEntryValidation(t *testing.T) {
	s, _ := newTestServer(t)
	unbalanced := `{"date":"2024-03-02","lines":[
		{"accountId":"6218","debit":150},
		{"accountId":"1111","credit":100}]}`

	w := do(t, s, http.MethodPost, "/api/v1/entries", unbalanced)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "invalid journal entry")
}

func TestUpdateEntry(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/v1/entries", mealJSON).Code)

	upd := `{"date":"2024-03-02","lines":[
		{"accountId":"6218","memo":"晚餐","debit":200},
		{"accountId":"1111","memo":"晚餐","credit":200}]}`
	w := do(t, s, http.MethodPut, "/api/v1/entries/20240302-01", upd)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/api/v1/entries", "")
	list := decode[[]model.JournalEntry](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "200", list[0].TotalDebit().String())
}

func TestEntryKindIgnored(t *testing.T) {
	s, _ := newTestServer(t)
	for _, kind := range []string{"closing", "bogus"} {
		body := `{"date":"2024-03-02","kind":"` + kind + `","lines":[
			{"accountId":"6218","memo":"午餐","debit":150},
			{"accountId":"1111","memo":"午餐","credit":150}]}`
		w := do(t, s, http.MethodPost, "/api/v1/entries", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, model.KindRegular, decode[model.JournalEntry](t, w).Kind, kind)
	}

	upd := `{"date":"2024-03-02","kind":"closing","lines":[
		{"accountId":"6218","debit":90},
		{"accountId":"1111","credit":90}]}`
	w := do(t, s, http.MethodPut, "/api/v1/entries/20240302-01", upd)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.KindRegular, decode[model.JournalEntry](t, w).Kind)

	w = do(t, s, http.MethodGet, "/api/v1/closing/months", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"closed":[],"available":["2024-03"]}`, w.Body.String())

	w = do(t, s, http.MethodPost, "/api/v1/closing", `{"month":"2024-03"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestClosing(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/v1/entries", mealJSON).Code)

	w := do(t, s, http.MethodGet, "/api/v1/closing/months", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"closed":[],"available":["2024-03"]}`, w.Body.String())

	w = do(t, s, http.MethodPost, "/api/v1/closing", `{"month":"2024-03"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, model.KindClosing, decode[model.JournalEntry](t, w).Kind)

	w = do(t, s, http.MethodPost, "/api/v1/closing", `{"month":"2024-03"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/closing", `{"month":"March"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/closing", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/closing/months", "")
	assert.JSONEq(t, `{"closed":["2024-03"],"available":[]}`, w.Body.String())
}

func TestReports(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/v1/entries", mealJSON).Code)

	w := do(t, s, http.MethodGet, "/api/v1/reports/balance-sheet?month=2024-03", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bs := decode[report.BalanceSheet](t, w)
	assert.Equal(t, "2024-03-31", bs.AsOf)
	assert.True(t, bs.Assets.Total.Equal(bs.LiabilitiesAndEquity()))
	assert.Equal(t, "-150", bs.Assets.Total.String())

	w = do(t, s, http.MethodGet, "/api/v1/reports/income-statement?year=2024&type=monthly&value=3", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	is := decode[report.IncomeStatement](t, w)
	assert.Equal(t, "-150", is.NetIncome.String())

	w = do(t, s, http.MethodGet, "/api/v1/reports/income-statement?year=2024&type=weekly&value=3", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/reports/dashboard?year=2024&month=3", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/api/v1/reports/dashboard?year=2024&month=13", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/reports/dashboard?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/reports/balance-sheet?month=2024-13", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrackers(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	item := `{"description":"保險","totalAmount":1200,"periods":12,"startDate":"2024-01-01","debitAccountId":"6218","creditAccountId":"1421"}`
	w := do(t, s, http.MethodPost, "/api/v1/trackers/amortization", item)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[model.AmortizationItem](t, w)
	require.NotEmpty(t, saved.ID)

	w = do(t, s, http.MethodGet, "/api/v1/trackers/amortization", "")
	require.Equal(t, http.StatusOK, w.Code)
	views := decode[[]tracker.View[model.AmortizationItem]](t, w)
	require.Len(t, views, 1)
	assert.False(t, views[0].Synthesized)

	w = do(t, s, http.MethodPost, "/api/v1/trackers/amortization/"+saved.ID+"/generate", `{"date":"2024-01-31"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "100", decode[model.JournalEntry](t, w).TotalDebit().String())

	w = do(t, s, http.MethodPost, "/api/v1/trackers/amortization/missing/generate", `{"date":"2024-01-31"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, st.Do(ctx, &store.SavePrepayment{Item: model.PrepaymentItem{
		Date: "2024-01-05", Description: "訂金", Amount: decimal.NewFromInt(100), AssetAccountID: "1421",
	}}))
	_, d, err := st.Active()
	require.NoError(t, err)
	id := d.PrepaymentItems[0].ID

	w = do(t, s, http.MethodPost, "/api/v1/trackers/prepayments/"+id+"/settle", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, http.MethodPost, "/api/v1/trackers/prepayments/"+id+"/settle", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/trackers/prepayments", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, http.MethodGet, "/api/v1/trackers/received-payments", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, http.MethodGet, "/api/v1/trackers/cards", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("add: %w", journal.ErrInvalid), http.StatusBadRequest},
		{fmt.Errorf("x: %w", accounts.ErrNotFound), http.StatusNotFound},
		{&accounts.InUseError{AccountID: "1111"}, http.StatusConflict},
		{tracker.ErrSynthesized, http.StatusBadRequest},
		{store.ErrNoActiveProfile, http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}
