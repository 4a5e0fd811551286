package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/backup"
	"github.com/gracebooks/gracebooks/internal/store"
)

func newBackupCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export and restore profile backups",
	}

	var full bool
	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the active profile as a JSON backup",
		Long: `Write the active profile's accounts and journal entries as JSON. With
--full the trackers, memos and salary template are included too. The file
defaults to exports/accounting-backup-<date>.json; use -o - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			path := out
			switch path {
			case "-":
				path = ""
			case "":
				path = filepath.Join(a.dir, "exports", backup.FileName(time.Now()))
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("creating exports directory: %w", err)
				}
			}
			return writeOut(cmd, path, func(w io.Writer) error {
				if full {
					return backup.ExportFull(w, d)
				}
				return backup.Export(w, d)
			})
		},
	}
	export.Flags().BoolVar(&full, "full", false, "include trackers, memos and the salary template")
	export.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout")

	var accountsMode, journalMode, trackersMode string
	restore := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore a JSON backup into the active profile",
		Long: `Restore a backup into the active profile. Each section takes a mode:
merge adds what is new, overwrite replaces the section, skip leaves it alone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts backup.Options
			var err error
			if opts.Accounts, err = backup.ParseMode(accountsMode); err != nil {
				return err
			}
			if opts.Journal, err = backup.ParseMode(journalMode); err != nil {
				return err
			}
			if opts.Trackers, err = backup.ParseMode(trackersMode); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			doc, err := backup.Read(f)
			if err != nil {
				return err
			}

			c := &store.RestoreBackup{Doc: doc, Options: opts}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			r := c.Result
			fmt.Fprintf(cmd.OutOrStdout(), "Accounts: added %d, skipped %d\n", r.Accounts.Added, r.Accounts.Skipped)
			fmt.Fprintf(cmd.OutOrStdout(), "Journal: added %d, skipped %d\n", r.Journal.Added, r.Journal.Skipped)
			if opts.Trackers != backup.Skip {
				fmt.Fprintf(cmd.OutOrStdout(), "Trackers: added %d, skipped %d\n", r.Trackers.Added, r.Trackers.Skipped)
			}
			return nil
		},
	}
	restore.Flags().StringVar(&accountsMode, "accounts", "merge", "accounts mode: merge, overwrite or skip")
	restore.Flags().StringVar(&journalMode, "journal", "merge", "journal mode: merge, overwrite or skip")
	restore.Flags().StringVar(&trackersMode, "trackers", "skip", "trackers mode: merge, overwrite or skip")

	cmd.AddCommand(export, restore)
	return cmd
}
