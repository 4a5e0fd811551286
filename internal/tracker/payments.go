package tracker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gracebooks/gracebooks/internal/model"
)

// PrepaymentViews lists the saved prepayments, then one synthesized row per
// prepaid account with a nonzero balance and no saved item.
func PrepaymentViews(accounts []model.Account, entries []model.JournalEntry, items []model.PrepaymentItem, opts Options) []View[model.PrepaymentItem] {
	act := newActivity(entries)
	tracked := make(map[string]bool)
	var views []View[model.PrepaymentItem]
	for _, it := range items {
		tracked[it.AssetAccountID] = true
		views = append(views, View[model.PrepaymentItem]{
			Item:      it,
			AccountID: it.AssetAccountID,
			Balance:   act.balances[it.AssetAccountID],
		})
	}
	for _, a := range accounts {
		if !strings.HasPrefix(a.Level3, opts.PrepaidLevel3Prefix) || tracked[a.ID] {
			continue
		}
		balance := act.balances[a.ID]
		if balance.Abs().LessThan(opts.Tolerance) {
			continue
		}
		item := model.PrepaymentItem{
			ID:             SyntheticPrefix + a.ID,
			Description:    a.Name,
			Amount:         balance,
			AssetAccountID: a.ID,
			Status:         model.StatusUnsettled,
		}
		if first, ok := act.firstDebit(a.ID); ok {
			item.Date = first.Date
		}
		views = append(views, View[model.PrepaymentItem]{
			Item:        item,
			Synthesized: true,
			AccountID:   a.ID,
			Balance:     balance,
			Details:     act.details[a.ID],
		})
	}
	return views
}

// ReceivedPaymentViews lists received-in-advance accounts with a nonzero
// balance, shown as a positive liability. Saved items are attached to their
// account; accounts without one get a synthesized item.
func ReceivedPaymentViews(accounts []model.Account, entries []model.JournalEntry, items []model.ReceivedPaymentItem, opts Options) []View[model.ReceivedPaymentItem] {
	act := newActivity(entries)
	byAccount := make(map[string][]model.ReceivedPaymentItem)
	for _, it := range items {
		byAccount[it.LiabilityAccountID] = append(byAccount[it.LiabilityAccountID], it)
	}

	sorted := append([]model.Account(nil), accounts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var views []View[model.ReceivedPaymentItem]
	for _, a := range sorted {
		if !strings.HasPrefix(a.ID, opts.ReceivedPrefix) {
			continue
		}
		balance := act.balances[a.ID].Neg()
		saved := byAccount[a.ID]
		if balance.Abs().LessThan(opts.Tolerance) && len(saved) == 0 {
			continue
		}
		for _, it := range saved {
			views = append(views, View[model.ReceivedPaymentItem]{
				Item:      it,
				AccountID: a.ID,
				Balance:   balance,
				Details:   act.details[a.ID],
			})
		}
		if len(saved) == 0 {
			views = append(views, View[model.ReceivedPaymentItem]{
				Item: model.ReceivedPaymentItem{
					ID:                 SyntheticPrefix + a.ID,
					Description:        a.Name,
					Amount:             balance,
					LiabilityAccountID: a.ID,
					Status:             model.StatusUnsettled,
				},
				Synthesized: true,
				AccountID:   a.ID,
				Balance:     balance,
				Details:     act.details[a.ID],
			})
		}
	}
	return views
}

// ValidatePrepayment checks a saved prepayment item.
func ValidatePrepayment(item model.PrepaymentItem, accounts AccountChecker) error {
	return validatePayment(item.ID, item.Date, item.Description, item.Amount.IsPositive(), item.AssetAccountID, item.Status, accounts)
}

// ValidateReceivedPayment checks a saved received-payment item.
func ValidateReceivedPayment(item model.ReceivedPaymentItem, accounts AccountChecker) error {
	return validatePayment(item.ID, item.Date, item.Description, item.Amount.IsPositive(), item.LiabilityAccountID, item.Status, accounts)
}

func validatePayment(id, date, desc string, positive bool, account string, status model.SettlementStatus, accounts AccountChecker) error {
	var problems []string
	if IsSynthetic(id) {
		problems = append(problems, "id must not use the synthesized prefix")
	}
	if _, err := model.ParseDate(date); err != nil {
		problems = append(problems, err.Error())
	}
	if strings.TrimSpace(desc) == "" {
		problems = append(problems, "description is required")
	}
	if !positive {
		problems = append(problems, "amount must be positive")
	}
	if !accounts.Exists(account) {
		problems = append(problems, fmt.Sprintf("unknown account %q", account))
	}
	if status != "" && status != model.StatusUnsettled && status != model.StatusSettled {
		problems = append(problems, fmt.Sprintf("unknown status %q", status))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidItem, strings.Join(problems, "; "))
	}
	return nil
}
