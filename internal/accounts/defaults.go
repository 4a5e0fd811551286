package accounts

import "github.com/gracebooks/gracebooks/internal/model"

const (
	l1Asset     = "1-資產"
	l1Liability = "2-負債"
	l1Equity    = "3-權益"
	l1Income    = "4-收入"
	l1Living    = "5-生活支出"
	l1Other     = "6-其他支出"
	l1NonOp     = "7-營業外收支"
)

// DefaultChart returns the built-in chart of accounts.
func DefaultChart() []model.Account {
	acct := func(id, name, l1, l2, l3 string) model.Account {
		return model.Account{ID: id, Name: name, Level1: l1, Level2: l2, Level3: l3}
	}
	return []model.Account{
		acct("1111", "現金", l1Asset, "11-流動資產", "111-現金"),
		acct("1221", "微光-台新", l1Asset, "12-銀行存款", "122-活期存款"),
		acct("1222", "微光-中信", l1Asset, "12-銀行存款", "122-活期存款"),
		acct("1421", "預付保險費", l1Asset, "14-預付款項", "142-預付費用"),
		acct("1422", "預付房租", l1Asset, "14-預付款項", "142-預付費用"),

		acct("2311", "信用貸款-台新", l1Liability, "23-長期負債", "231-信用貸款"),
		acct("2312", "信用貸款-中信", l1Liability, "23-長期負債", "231-信用貸款"),
		acct("2411", "中信信用卡", l1Liability, "24-信用卡", "241-信用卡"),
		acct("2412", "微光-中信信用卡", l1Liability, "24-信用卡", "241-信用卡"),
		acct("2413", "微光-台新信用卡", l1Liability, "24-信用卡", "241-信用卡"),
		acct("2611", "預收款項", l1Liability, "26-預收款項", "261-預收款"),

		acct("3111", "本期恩典儲蓄", l1Equity, "31-恩典儲蓄", "311-本期恩典儲蓄"),
		acct("3112", "歷年恩典儲蓄-2020", l1Equity, "31-恩典儲蓄", "312-歷年恩典儲蓄"),
		acct("3113", "歷年恩典儲蓄-2021", l1Equity, "31-恩典儲蓄", "312-歷年恩典儲蓄"),
		acct("3114", "歷年恩典儲蓄-2022", l1Equity, "31-恩典儲蓄", "312-歷年恩典儲蓄"),
		acct("3115", "歷年恩典儲蓄-2023", l1Equity, "31-恩典儲蓄", "312-歷年恩典儲蓄"),
		acct("3116", "歷年恩典儲蓄-2024", l1Equity, "31-恩典儲蓄", "312-歷年恩典儲蓄"),
		acct("3117", "歷年恩典儲蓄-2025", l1Equity, "31-恩典儲蓄", "312-歷年恩典儲蓄"),
		acct("3118", "歷年恩典儲蓄-2026", l1Equity, "31-恩典儲蓄", "312-歷年恩典儲蓄"),

		acct("4111", "薪資收入", l1Income, "41-經常收入", "411-薪資"),
		acct("4112", "獎金收入", l1Income, "41-經常收入", "411-薪資"),

		acct("5131", "房租", l1Living, "51-家庭支出", "513-家用"),
		acct("5133", "補貼家用", l1Living, "51-家庭支出", "513-家用"),
		acct("5134", "水電瓦斯", l1Living, "51-家庭支出", "513-家用"),

		acct("6218", "餐費", l1Other, "62-個人支出", "621-飲食"),
		acct("6311", "保險費", l1Other, "63-保障支出", "631-保險"),

		acct("7111", "利息收入", l1NonOp, "71-領受祝福", "711-利息收入"),
		acct("7112", "紅包禮金", l1NonOp, "71-領受祝福", "712-禮金"),
		acct("7211", "信用貸款利息", l1NonOp, "72-面對試煉", "721-利息支出"),
	}
}

// MergeDefaults appends every default account whose ID is missing from
// accts. User edits to existing IDs are kept.
func MergeDefaults(accts []model.Account) []model.Account {
	have := make(map[string]bool, len(accts))
	for _, a := range accts {
		have[a.ID] = true
	}
	out := append([]model.Account(nil), accts...)
	for _, d := range DefaultChart() {
		if !have[d.ID] {
			out = append(out, d)
		}
	}
	return out
}
