package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/journal"
	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/store"
)

func newJournalCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "journal",
		Aliases: []string{"j"},
		Short:   "Record and inspect journal entries",
	}
	cmd.AddCommand(
		newJournalListCommand(a),
		newJournalShowCommand(a),
		newJournalAddCommand(a),
		newJournalDeleteCommand(a),
		newJournalImportCommand(a),
		newJournalExportCommand(a),
	)
	return cmd
}

func newJournalListCommand(a *app) *cobra.Command {
	var month, account string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries, one row per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			reg := accounts.NewRegistry(d.Accounts)
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tDATE\tACCOUNT\tMEMO\tDEBIT\tCREDIT")
			for _, e := range d.JournalEntries {
				if month != "" && e.Month() != month {
					continue
				}
				for _, l := range e.Lines {
					if account != "" && !strings.HasPrefix(l.AccountID, account) {
						continue
					}
					fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
						e.ID, e.Date, l.AccountID, reg.Name(l.AccountID), l.Memo, amount(l.Debit), amount(l.Credit))
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "only entries of this month (YYYY-MM)")
	cmd.Flags().StringVar(&account, "account", "", "only lines whose account starts with this prefix")
	return cmd
}

func newJournalShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			i, ok := journal.Find(d.JournalEntries, args[0])
			if !ok {
				return fmt.Errorf("%w: %s", journal.ErrNotFound, args[0])
			}
			printEntry(cmd.OutOrStdout(), d.JournalEntries[i], accounts.NewRegistry(d.Accounts))
			return nil
		},
	}
}

func printEntry(out io.Writer, e model.JournalEntry, reg *accounts.Registry) {
	fmt.Fprintf(out, "%s  %s  %s\n", e.ID, e.Date, e.Kind)
	w := newTable(out)
	for _, l := range e.Lines {
		fmt.Fprintf(w, "  %s %s\t%s\t%s\t%s\n", l.AccountID, reg.Name(l.AccountID), l.Memo, amount(l.Debit), amount(l.Credit))
	}
	fmt.Fprintf(w, "  \t\t%s\t%s\n", e.TotalDebit().StringFixed(2), e.TotalCredit().StringFixed(2))
	w.Flush()
}

func newJournalAddCommand(a *app) *cobra.Command {
	var date, id string
	var lines []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a journal entry",
		Long: `Add a journal entry. Each line is "accountId,memo,debit,credit"; give
them with repeated --line flags or one per line on stdin.

Example:
  gracebooks journal add --date 2024-03-02 --line "6218,午餐,150," --line "1111,午餐,,150"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(lines, "\n")
			if len(lines) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = string(data)
			}
			parsed, err := journal.ParseLines(text)
			if err != nil {
				return err
			}
			c := &store.AddEntry{Entry: model.JournalEntry{ID: id, Date: date, Lines: parsed}}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", c.Result.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "entry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&id, "id", "", "voucher ID (default: next of the date)")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "journal line accountId,memo,debit,credit (repeatable)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newJournalDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.do(cmd.Context(), &store.DeleteEntry{ID: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newJournalImportCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import journal entries whose IDs are new",
		Long: `Import journal entries. The bulk format has one journal line per row:
date,voucherId,accountId,memo,debit,credit. The csv format is the one
"journal export" writes. One invalid entry rejects the whole file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			var entries []model.JournalEntry
			switch format {
			case "bulk":
				reg, err := a.registry(cmd)
				if err != nil {
					return err
				}
				var verrs []journal.ValidationError
				entries, verrs = journal.ParseBulk(f, reg, a.store.Config().Tolerance)
				if err := journal.Errors(verrs); err != nil {
					return err
				}
			case "csv":
				if entries, err = journal.ReadEntries(f); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want bulk or csv)", format)
			}

			c := &store.MergeEntries{Entries: entries}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries, skipped %d existing\n", c.Added, c.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "bulk", "input format: bulk or csv")
	return cmd
}

func newJournalExportCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the journal as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			return writeOut(cmd, out, func(w io.Writer) error {
				return journal.WriteEntries(w, d.JournalEntries)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
