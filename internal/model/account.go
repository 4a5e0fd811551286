package model

import "strings"

// AccountClass is the natural type of an account, derived from its code prefix.
type AccountClass string

const (
	ClassAsset        AccountClass = "asset"
	ClassLiability    AccountClass = "liability"
	ClassEquity       AccountClass = "equity"
	ClassIncome       AccountClass = "income"
	ClassExpense      AccountClass = "expense"
	ClassOtherIncome  AccountClass = "other_income"
	ClassOtherExpense AccountClass = "other_expense"
	ClassOther        AccountClass = "other"
	ClassUnknown      AccountClass = "unknown"
)

// Account is one entry in the chart of accounts. ID is a numeric code whose
// leading digits select the class; Level1..Level3 are hierarchy labels such
// as "1-資產", "11-流動資產", "111-現金".
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Level1 string `json:"level1"`
	Level2 string `json:"level2"`
	Level3 string `json:"level3"`
}

// Class returns the account class for a.ID.
func (a Account) Class() AccountClass { return ClassOf(a.ID) }

// Label returns "id - name".
func (a Account) Label() string { return a.ID + " - " + a.Name }

// ClassOf classifies an account code by prefix.
func ClassOf(id string) AccountClass {
	switch {
	case strings.HasPrefix(id, "1"):
		return ClassAsset
	case strings.HasPrefix(id, "2"):
		return ClassLiability
	case strings.HasPrefix(id, "3"):
		return ClassEquity
	case strings.HasPrefix(id, "4"):
		return ClassIncome
	case strings.HasPrefix(id, "5"), strings.HasPrefix(id, "6"):
		return ClassExpense
	case strings.HasPrefix(id, "71"):
		return ClassOtherIncome
	case strings.HasPrefix(id, "72"):
		return ClassOtherExpense
	case strings.HasPrefix(id, "7"):
		return ClassOther
	default:
		return ClassUnknown
	}
}

// IsProfitAndLoss reports whether an account code belongs to the income
// statement (prefixes 4, 5, 6, 7).
func IsProfitAndLoss(id string) bool {
	if id == "" {
		return false
	}
	switch id[0] {
	case '4', '5', '6', '7':
		return true
	}
	return false
}

// HasAnyPrefix reports whether id starts with one of prefixes.
func HasAnyPrefix(id string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}
