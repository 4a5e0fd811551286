// Package store owns the application state and applies every change to it as
// a Command: on a copy, validated, persisted, then swapped in.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/closing"
	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/report"
	"github.com/gracebooks/gracebooks/internal/tracker"
)

var (
	ErrNoActiveProfile = errors.New("no active profile")
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrInvalidState    = errors.New("invalid state")
)

// Config carries the bookkeeping settings commands need.
type Config struct {
	Tolerance decimal.Decimal
	Closing   closing.Options
	Trackers  tracker.Options
	Reports   report.Options
}

// DefaultConfig matches the built-in chart of accounts.
func DefaultConfig() Config {
	return Config{
		Tolerance: model.DefaultTolerance,
		Closing:   closing.DefaultOptions(),
		Trackers:  tracker.DefaultOptions(),
		Reports:   report.DefaultOptions(),
	}
}

// Command is one atomic change to the state. Output fields a command sets
// in Apply (Result, Added, ...) feed its Describe and are meaningful only
// when Do returns nil.
type Command interface {
	Name() string
	Apply(tx *Tx) error
}

// Describer is implemented by commands that add detail to the activity log.
type Describer interface {
	Describe() (details, entryID string)
}

// Recorder receives one line per successful command.
type Recorder interface {
	Record(profile, command, details, entryID string) error
}

// Tx is what a command sees while it runs: a private copy of the state.
type Tx struct {
	ctx    context.Context
	State  *model.AppState
	Config Config
}

// Context returns the context of the Do call.
func (tx *Tx) Context() context.Context { return tx.ctx }

// Book returns the active profile's data.
func (tx *Tx) Book() (*model.ProfileData, error) {
	d := tx.State.Active()
	if d == nil {
		return nil, ErrNoActiveProfile
	}
	return d, nil
}

// Registry indexes the active profile's accounts.
func (tx *Tx) Registry() (*accounts.Registry, *model.ProfileData, error) {
	d, err := tx.Book()
	if err != nil {
		return nil, nil, err
	}
	return accounts.NewRegistry(d.Accounts), d, nil
}

// Journal returns a journal service bound to the active profile's chart.
func (tx *Tx) Journal() (*journal.Service, *model.ProfileData, error) {
	reg, d, err := tx.Registry()
	if err != nil {
		return nil, nil, err
	}
	return journal.NewService(reg, tx.Config.Tolerance), d, nil
}

// Store serializes commands against one AppState.
type Store struct {
	mu        sync.Mutex
	state     *model.AppState
	persister Persister
	cfg       Config
	activity  Recorder
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithActivity records every successful command.
func WithActivity(r Recorder) Option {
	return func(s *Store) { s.activity = r }
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open loads the state from p. Every profile is upgraded on load: missing
// default accounts are added, legacy closing entries are tagged and an empty
// salary template gets the defaults.
func Open(ctx context.Context, p Persister, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{persister: p, cfg: cfg, log: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(s)
	}

	state, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	s.state = prepare(state)
	s.log.Debug("store opened", "profiles", len(s.state.Profiles), "active", s.state.ActiveProfileID)
	return s, nil
}

func prepare(state *model.AppState) *model.AppState {
	if state == nil {
		state = &model.AppState{}
	}
	if state.Data == nil {
		state.Data = make(map[string]*model.ProfileData)
	}
	for _, p := range state.Profiles {
		d := state.Data[p.ID]
		if d == nil {
			d = newProfileData()
			state.Data[p.ID] = d
		}
		d.Accounts = accounts.MergeDefaults(d.Accounts)
		if len(d.SalaryLedger) == 0 {
			d.SalaryLedger = tracker.DefaultSalaryTemplate()
		}
		d.Normalize()
		journal.Sort(d.JournalEntries)
	}
	if _, ok := state.Profile(state.ActiveProfileID); !ok {
		state.ActiveProfileID = ""
		if len(state.Profiles) > 0 {
			state.ActiveProfileID = state.Profiles[0].ID
		}
	}
	return state
}

func newProfileData() *model.ProfileData {
	return &model.ProfileData{
		Accounts:     accounts.DefaultChart(),
		SalaryLedger: tracker.DefaultSalaryTemplate(),
	}
}

// Config returns the store's settings.
func (s *Store) Config() Config { return s.cfg }

// State returns a copy of the whole state.
func (s *Store) State() *model.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Active returns the selected profile and a copy of its data.
func (s *Store) Active() (model.Profile, *model.ProfileData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.Profile(s.state.ActiveProfileID)
	if !ok {
		return model.Profile{}, nil, ErrNoActiveProfile
	}
	return p, s.state.Active().Clone(), nil
}

// Profiles lists the profiles in creation order.
func (s *Store) Profiles() []model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Profile(nil), s.state.Profiles...)
}

// Do applies cmd. The state is replaced only if the command, validation and
// persistence all succeed.
func (s *Store) Do(ctx context.Context, cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	next := s.state.Clone()
	tx := &Tx{ctx: ctx, State: next, Config: s.cfg}
	if err := cmd.Apply(tx); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	if err := Validate(next); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}

	var details, entryID string
	if d, ok := cmd.(Describer); ok {
		details, entryID = d.Describe()
	}
	rev := Revision{
		ProfileID: next.ActiveProfileID,
		Command:   cmd.Name(),
		Details:   details,
		At:        s.now().UTC(),
	}
	if err := s.persister.Save(ctx, next, rev); err != nil {
		return fmt.Errorf("%s: saving state: %w", cmd.Name(), err)
	}
	s.state = next

	s.log.Info("command applied", "command", cmd.Name(), "profile", next.ActiveProfileID, "entry_id", entryID)
	if s.activity != nil {
		if err := s.activity.Record(next.ActiveProfileID, cmd.Name(), details, entryID); err != nil {
			s.log.Warn("activity log write failed", "command", cmd.Name(), "error", err)
		}
	}
	return nil
}

// Close releases the persister.
func (s *Store) Close() error {
	return s.persister.Close()
}

// Validate checks the invariants every stored state keeps: unique profile,
// account, entry and item IDs and an existing active profile.
func Validate(state *model.AppState) error {
	seen := make(map[string]bool)
	for _, p := range state.Profiles {
		if p.ID == "" || seen[p.ID] {
			return fmt.Errorf("%w: duplicate or empty profile id %q", ErrInvalidState, p.ID)
		}
		seen[p.ID] = true
		if state.Data[p.ID] == nil {
			return fmt.Errorf("%w: profile %s has no data", ErrInvalidState, p.ID)
		}
	}
	if state.ActiveProfileID != "" && !seen[state.ActiveProfileID] {
		return fmt.Errorf("%w: active profile %q does not exist", ErrInvalidState, state.ActiveProfileID)
	}

	for pid, d := range state.Data {
		if err := unique("account", d.Accounts, func(a model.Account) string { return a.ID }); err != nil {
			return fmt.Errorf("profile %s: %w", pid, err)
		}
		if err := unique("journal entry", d.JournalEntries, func(e model.JournalEntry) string { return e.ID }); err != nil {
			return fmt.Errorf("profile %s: %w", pid, err)
		}
		if err := unique("credit card", d.CreditCardLedgers, func(l model.CreditCardLedger) string { return l.ID }); err != nil {
			return fmt.Errorf("profile %s: %w", pid, err)
		}
		if err := unique("amortization item", d.AmortizationItems, func(i model.AmortizationItem) string { return i.ID }); err != nil {
			return fmt.Errorf("profile %s: %w", pid, err)
		}
		if err := unique("prepayment", d.PrepaymentItems, func(i model.PrepaymentItem) string { return i.ID }); err != nil {
			return fmt.Errorf("profile %s: %w", pid, err)
		}
		if err := unique("received payment", d.ReceivedPaymentItems, func(i model.ReceivedPaymentItem) string { return i.ID }); err != nil {
			return fmt.Errorf("profile %s: %w", pid, err)
		}
		if err := unique("memo", d.ManagedMemos, func(m model.ManagedMemo) string { return m.ID }); err != nil {
			return fmt.Errorf("profile %s: %w", pid, err)
		}
	}
	return nil
}

func unique[T any](kind string, items []T, key func(T) string) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		k := key(it)
		if k == "" {
			return fmt.Errorf("%w: %s with empty id", ErrInvalidState, kind)
		}
		if seen[k] {
			return fmt.Errorf("%w: duplicate %s id %s", ErrInvalidState, kind, k)
		}
		seen[k] = true
	}
	return nil
}

// indexOf returns the position of the item whose key is id.
func indexOf[T any](items []T, id string, key func(T) string) (int, bool) {
	for i, it := range items {
		if key(it) == id {
			return i, true
		}
	}
	return -1, false
}
