package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/activitylog"
	"github.com/gracebooks/gracebooks/internal/buildinfo"
	"github.com/gracebooks/gracebooks/internal/config"
	"github.com/gracebooks/gracebooks/internal/gitops"
	"github.com/gracebooks/gracebooks/internal/logging"
	"github.com/gracebooks/gracebooks/internal/store"
)

// app is the state shared by every command of one invocation.
type app struct {
	dir     string
	debug   bool
	profile string

	cfg       *config.Config
	persister store.Persister
	store     *store.Store
	changes   []string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "gracebooks",
		Short:   "Personal double-entry bookkeeping",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish(cmd.Context())
		},
	}

	defaultDir := os.Getenv("GRACEBOOKS_DIR")
	if defaultDir == "" {
		defaultDir = "."
	}
	rootCmd.PersistentFlags().StringVar(&a.dir, "dir", defaultDir, "data directory")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.profile, "profile", "", "profile to use (ID or name)")

	rootCmd.AddCommand(
		newInitCommand(a),
		newProfileCommand(a),
		newAccountCommand(a),
		newJournalCommand(a),
		newCloseCommand(a),
		newReportCommand(a),
		newAmortizationCommand(a),
		newPrepaymentCommand(a),
		newReceivedCommand(a),
		newCardCommand(a),
		newSalaryCommand(a),
		newMemoCommand(a),
		newBackupCommand(a),
		newSyncCommand(a),
		newQueryCommand(a),
		newServeCommand(a),
		newLogCommand(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	dir, err := filepath.Abs(a.dir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	a.dir = dir

	cfg, err := config.LoadDir(dir)
	if err != nil {
		return err
	}
	if a.profile != "" {
		cfg.Profile = a.profile
	}
	a.cfg = cfg

	if _, err := logging.Setup(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level, a.debug); err != nil {
		return err
	}
	slog.Debug("config loaded", "dir", dir, "db", cfg.DBPath(dir))
	return nil
}

// open returns the store, opening the database on first use.
func (a *app) open(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	scfg, err := a.cfg.StoreConfig()
	if err != nil {
		return nil, err
	}
	p, err := a.persist()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, p, scfg,
		store.WithActivity(activitylog.New(a.dir)),
		store.WithLogger(slog.Default()))
	if err != nil {
		p.Close()
		return nil, err
	}
	a.persister, a.store = p, st

	if cur, _, err := st.Active(); a.cfg.Profile != "" && (err != nil || (cur.ID != a.cfg.Profile && cur.Name != a.cfg.Profile)) {
		if err := a.do(ctx, &store.SelectProfile{Profile: a.cfg.Profile}); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// persist opens the backend data.backend selects.
func (a *app) persist() (store.Persister, error) {
	path := a.cfg.DBPath(a.dir)
	switch a.cfg.Data.Backend {
	case config.BackendJSON:
		return store.NewJSONFilePersister(path), nil
	case config.BackendSQLite, "":
		p, err := store.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown data.backend %q", a.cfg.Data.Backend)
}

// do opens the store if needed and applies cmd.
func (a *app) do(ctx context.Context, cmd store.Command) error {
	st, err := a.open(ctx)
	if err != nil {
		return err
	}
	if err := st.Do(ctx, cmd); err != nil {
		return err
	}
	a.changes = append(a.changes, cmd.Name())
	return nil
}

// finish closes the database and, with git.auto_commit, commits the data
// directory. The commit happens after close so the WAL is checkpointed.
func (a *app) finish(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	a.store = nil
	if len(a.changes) == 0 || !a.cfg.Git.AutoCommit || !gitops.IsRepo(a.dir) {
		return nil
	}
	repo := gitops.Open(a.dir, a.cfg.Git.AuthorName, a.cfg.Git.AuthorEmail)
	hash, err := repo.Commit(ctx, strings.Join(a.changes, ", "))
	if err != nil {
		slog.Warn("auto-commit failed", "error", err)
		return nil
	}
	slog.Debug("auto-commit", "hash", hash)
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// amount renders a journal amount, blank for zero.
func amount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
