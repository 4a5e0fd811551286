package accounts

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gracebooks/gracebooks/internal/model"
)

var (
	ErrDuplicateID = errors.New("account id already exists")
	ErrNotFound    = errors.New("account not found")
	ErrInvalid     = errors.New("invalid account")
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Registry provides in-memory lookup and editing over the chart of accounts.
type Registry struct {
	accounts []model.Account
	byID     map[string]int
}

// NewRegistry creates a Registry from a slice of accounts. The slice is copied.
func NewRegistry(accounts []model.Account) *Registry {
	r := &Registry{accounts: append([]model.Account(nil), accounts...)}
	r.reindex()
	return r
}

func (r *Registry) reindex() {
	r.byID = make(map[string]int, len(r.accounts))
	for i, a := range r.accounts {
		r.byID[a.ID] = i
	}
}

// All returns all accounts in insertion order.
func (r *Registry) All() []model.Account {
	return append([]model.Account(nil), r.accounts...)
}

// Sorted returns all accounts ordered by ID.
func (r *Registry) Sorted() []model.Account {
	out := r.All()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns an account by ID.
func (r *Registry) Get(id string) (model.Account, bool) {
	i, ok := r.byID[id]
	if !ok {
		return model.Account{}, false
	}
	return r.accounts[i], true
}

// Exists reports whether an account ID exists.
func (r *Registry) Exists(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Name returns the account name, or "未知科目" for unknown IDs.
func (r *Registry) Name(id string) string {
	if a, ok := r.Get(id); ok {
		return a.Name
	}
	return "未知科目"
}

// ByClass returns all accounts of the given class, ordered by ID.
func (r *Registry) ByClass(class model.AccountClass) []model.Account {
	var result []model.Account
	for _, a := range r.Sorted() {
		if a.Class() == class {
			result = append(result, a)
		}
	}
	return result
}

// Add appends a new account.
func (r *Registry) Add(a model.Account) error {
	if err := validate(a); err != nil {
		return err
	}
	if r.Exists(a.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID)
	}
	r.accounts = append(r.accounts, a)
	r.byID[a.ID] = len(r.accounts) - 1
	return nil
}

// Update replaces the account with the same ID.
func (r *Registry) Update(a model.Account) error {
	if err := validate(a); err != nil {
		return err
	}
	i, ok := r.byID[a.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, a.ID)
	}
	r.accounts[i] = a
	return nil
}

// Delete removes an account. Callers check references with CheckInUse first.
func (r *Registry) Delete(id string) error {
	i, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.accounts = append(r.accounts[:i], r.accounts[i+1:]...)
	r.reindex()
	return nil
}

// NextID proposes an ID for a new account under level3. The numeric prefix
// of level3 ("142-預付費用" -> "142") selects siblings; the result is one past
// the highest sibling, or prefix padded to three digits followed by "1".
func (r *Registry) NextID(level3 string) (string, error) {
	prefix, _, ok := strings.Cut(level3, "-")
	if !ok || !digitsOnly.MatchString(prefix) {
		return "", fmt.Errorf("%w: level3 %q has no numeric prefix", ErrInvalid, level3)
	}

	maxID, found := 0, false
	for _, a := range r.accounts {
		if !strings.HasPrefix(a.ID, prefix) {
			continue
		}
		n, err := strconv.Atoi(a.ID)
		if err != nil {
			n = 0
		}
		if !found || n > maxID {
			maxID, found = n, true
		}
	}
	if found {
		return strconv.Itoa(maxID + 1), nil
	}
	padded := prefix
	for len(padded) < 3 {
		padded += "0"
	}
	n, err := strconv.Atoi(padded + "1")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return strconv.Itoa(n), nil
}

// Level3Options returns the distinct level3 labels under level2, sorted.
func (r *Registry) Level3Options(level2 string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range r.accounts {
		if a.Level2 == level2 && a.Level3 != "" && !seen[a.Level3] {
			seen[a.Level3] = true
			out = append(out, a.Level3)
		}
	}
	sort.Strings(out)
	return out
}

func validate(a model.Account) error {
	if !digitsOnly.MatchString(a.ID) {
		return fmt.Errorf("%w: id %q must be numeric", ErrInvalid, a.ID)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if strings.TrimSpace(a.Level3) == "" {
		return fmt.Errorf("%w: level3 is required", ErrInvalid)
	}
	return nil
}
