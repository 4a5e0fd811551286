package tracker

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/model"
)

// AmortizationMemoSuffix is appended to the description on generated lines.
const AmortizationMemoSuffix = " (分攤)"

// AmortizationViews lists one row per prepaid account with a nonzero
// balance. A saved item whose credit account matches is used as is;
// otherwise a placeholder item is synthesized from the account's first
// debit.
func AmortizationViews(accounts []model.Account, entries []model.JournalEntry, items []model.AmortizationItem, opts Options) []View[model.AmortizationItem] {
	act := newActivity(entries)
	var views []View[model.AmortizationItem]
	for _, a := range accounts {
		if !strings.HasPrefix(a.Level3, opts.PrepaidLevel3Prefix) {
			continue
		}
		balance := act.balances[a.ID]
		if balance.Abs().LessThan(opts.Tolerance) {
			continue
		}
		v := View[model.AmortizationItem]{AccountID: a.ID, Balance: balance, Details: act.details[a.ID]}
		if item, ok := findAmortization(items, a.ID); ok {
			v.Item = item
		} else {
			v.Synthesized = true
			v.Item = model.AmortizationItem{
				ID:              SyntheticPrefix + a.ID,
				Description:     a.Name + " (待設定)",
				TotalAmount:     balance,
				Periods:         opts.AmortizationPeriods,
				CreditAccountID: a.ID,
			}
			if first, ok := act.firstDebit(a.ID); ok {
				if first.Memo != "" {
					v.Item.Description = first.Memo
				}
				v.Item.TotalAmount = first.Debit
				v.Item.StartDate = first.Date
			}
		}
		views = append(views, v)
	}
	return views
}

func findAmortization(items []model.AmortizationItem, creditAccount string) (model.AmortizationItem, bool) {
	for _, it := range items {
		if it.CreditAccountID == creditAccount {
			return it, true
		}
	}
	return model.AmortizationItem{}, false
}

// ValidateAmortization checks a saved amortization item.
func ValidateAmortization(item model.AmortizationItem, accounts AccountChecker) error {
	var problems []string
	if strings.TrimSpace(item.Description) == "" {
		problems = append(problems, "description is required")
	}
	if !item.TotalAmount.IsPositive() {
		problems = append(problems, "total amount must be positive")
	}
	if item.Periods <= 0 {
		problems = append(problems, "periods must be positive")
	}
	if item.StartDate != "" {
		if _, err := model.ParseDate(item.StartDate); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if !accounts.Exists(item.CreditAccountID) {
		problems = append(problems, fmt.Sprintf("unknown prepaid account %q", item.CreditAccountID))
	}
	if item.DebitAccountID != "" && !accounts.Exists(item.DebitAccountID) {
		problems = append(problems, fmt.Sprintf("unknown expense account %q", item.DebitAccountID))
	}
	if IsSynthetic(item.ID) {
		problems = append(problems, "id must not use the synthesized prefix")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidItem, strings.Join(problems, "; "))
	}
	return nil
}

// MonthlyAmount is the per-period amount, rounded to cents.
func MonthlyAmount(item model.AmortizationItem) decimal.Decimal {
	if item.Periods <= 0 {
		return decimal.Zero
	}
	return item.TotalAmount.Div(decimal.NewFromInt(int64(item.Periods))).Round(2)
}

// GenerateAmortization builds one period's voucher: debit the expense
// account and credit the prepaid account by MonthlyAmount.
func GenerateAmortization(item model.AmortizationItem, date string, entries []model.JournalEntry) (model.JournalEntry, error) {
	if IsSynthetic(item.ID) {
		return model.JournalEntry{}, fmt.Errorf("%w: %s", ErrSynthesized, item.ID)
	}
	if item.DebitAccountID == "" {
		return model.JournalEntry{}, fmt.Errorf("%w: %s", ErrNoExpenseAccount, item.Description)
	}
	if item.Periods <= 0 || !item.TotalAmount.IsPositive() {
		return model.JournalEntry{}, fmt.Errorf("%w: periods and total must be positive", ErrInvalidItem)
	}
	if _, err := model.ParseDate(date); err != nil {
		return model.JournalEntry{}, err
	}
	amount := MonthlyAmount(item)
	memo := item.Description + AmortizationMemoSuffix
	return model.JournalEntry{
		ID:   journal.NextVoucherID(entries, date),
		Date: date,
		Kind: model.KindRegular,
		Lines: []model.JournalLine{
			{AccountID: item.DebitAccountID, Memo: memo, Debit: amount},
			{AccountID: item.CreditAccountID, Memo: memo, Credit: amount},
		},
	}, nil
}

// SchedulePeriod is one row of an amortization schedule.
type SchedulePeriod struct {
	Period     int             `json:"period"`
	Date       string          `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Cumulative decimal.Decimal `json:"cumulative"`
	Remaining  decimal.Decimal `json:"remaining"`
}

// AmortizationSchedule lists every period from the start date, one month
// apart. The last period absorbs rounding so the amounts sum to the total.
func AmortizationSchedule(item model.AmortizationItem) ([]SchedulePeriod, error) {
	if item.Periods <= 0 {
		return nil, fmt.Errorf("%w: periods must be positive", ErrInvalidItem)
	}
	start, err := model.ParseDate(item.StartDate)
	if err != nil {
		return nil, err
	}
	monthly := MonthlyAmount(item)
	out := make([]SchedulePeriod, 0, item.Periods)
	cumulative := decimal.Zero
	for i := 0; i < item.Periods; i++ {
		amount := monthly
		if i == item.Periods-1 {
			amount = item.TotalAmount.Sub(cumulative)
		}
		cumulative = cumulative.Add(amount)
		out = append(out, SchedulePeriod{
			Period:     i + 1,
			Date:       start.AddDate(0, i, 0).Format(model.DateLayout),
			Amount:     amount,
			Cumulative: cumulative,
			Remaining:  item.TotalAmount.Sub(cumulative),
		})
	}
	return out, nil
}
