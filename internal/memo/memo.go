// Package memo manages reusable memo texts and the memos already written on
// journal lines.
package memo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gracebooks/gracebooks/internal/id"
	"github.com/gracebooks/gracebooks/internal/model"
)

var (
	ErrEmpty     = errors.New("memo text is required")
	ErrNotFound  = errors.New("memo not found")
	ErrDuplicate = errors.New("memo already exists")
)

// Add appends a managed memo with a new ID.
func Add(memos []model.ManagedMemo, text string) ([]model.ManagedMemo, model.ManagedMemo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return memos, model.ManagedMemo{}, ErrEmpty
	}
	for _, m := range memos {
		if m.Text == text {
			return memos, model.ManagedMemo{}, fmt.Errorf("%w: %q", ErrDuplicate, text)
		}
	}
	m := model.ManagedMemo{ID: id.New(), Text: text}
	return append(memos, m), m, nil
}

// Update changes the text of memo memoID.
func Update(memos []model.ManagedMemo, memoID, text string) ([]model.ManagedMemo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return memos, ErrEmpty
	}
	out := append([]model.ManagedMemo(nil), memos...)
	for i := range out {
		if out[i].ID == memoID {
			out[i].Text = text
			return out, nil
		}
	}
	return memos, fmt.Errorf("%w: %s", ErrNotFound, memoID)
}

// Delete removes memo memoID.
func Delete(memos []model.ManagedMemo, memoID string) ([]model.ManagedMemo, error) {
	for i, m := range memos {
		if m.ID == memoID {
			out := append([]model.ManagedMemo(nil), memos[:i]...)
			return append(out, memos[i+1:]...), nil
		}
	}
	return memos, fmt.Errorf("%w: %s", ErrNotFound, memoID)
}

// Count is how many journal lines carry a memo.
type Count struct {
	Memo  string `json:"memo"`
	Count int    `json:"count"`
}

// AccountMemos groups the memo counts of one account.
type AccountMemos struct {
	AccountID string  `json:"accountId"`
	Memos     []Count `json:"memos"`
}

// Usage returns the memos written on accountID's lines, most used first.
func Usage(entries []model.JournalEntry, accountID string) []Count {
	for _, am := range ByAccount(entries, "") {
		if am.AccountID == accountID {
			return am.Memos
		}
	}
	return nil
}

// ByAccount returns memo counts for every account that has non-empty memos,
// ordered by account ID. A non-empty search keeps only memos containing it,
// case-insensitively, unless the account ID itself matches.
func ByAccount(entries []model.JournalEntry, search string) []AccountMemos {
	counts := make(map[string]map[string]int)
	for _, e := range entries {
		for _, l := range e.Lines {
			if l.Memo == "" || l.AccountID == "" {
				continue
			}
			if counts[l.AccountID] == nil {
				counts[l.AccountID] = make(map[string]int)
			}
			counts[l.AccountID][l.Memo]++
		}
	}

	search = strings.ToLower(search)
	ids := make([]string, 0, len(counts))
	for acct := range counts {
		ids = append(ids, acct)
	}
	sort.Strings(ids)

	var out []AccountMemos
	for _, acct := range ids {
		accountMatch := search == "" || strings.Contains(strings.ToLower(acct), search)
		var memos []Count
		for text, n := range counts[acct] {
			if accountMatch || strings.Contains(strings.ToLower(text), search) {
				memos = append(memos, Count{Memo: text, Count: n})
			}
		}
		if len(memos) == 0 {
			continue
		}
		sort.Slice(memos, func(i, j int) bool {
			if memos[i].Count != memos[j].Count {
				return memos[i].Count > memos[j].Count
			}
			return memos[i].Memo < memos[j].Memo
		})
		out = append(out, AccountMemos{AccountID: acct, Memos: memos})
	}
	return out
}

// RenameByAccount rewrites oldMemo to newMemo on every line of accountID and
// returns how many lines changed. Renaming to "" deletes the memo. entries
// is modified in place.
func RenameByAccount(entries []model.JournalEntry, accountID, oldMemo, newMemo string) int {
	newMemo = strings.TrimSpace(newMemo)
	n := 0
	for i := range entries {
		for j := range entries[i].Lines {
			l := &entries[i].Lines[j]
			if l.AccountID == accountID && l.Memo == oldMemo {
				l.Memo = newMemo
				n++
			}
		}
	}
	return n
}
