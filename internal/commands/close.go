package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/closing"
	"github.com/gracebooks/gracebooks/internal/store"
)

func newCloseCommand(a *app) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "close [month]",
		Short: "Close a month's income and expenses into equity",
		Long: `Close a month (YYYY-MM): its income and expense balances are moved to
the year's savings equity account in one closing entry. Without a month,
the oldest month that can be closed is used. Delete the closing entry to
reopen the month.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			available := closing.AvailableMonths(d.JournalEntries)
			out := cmd.OutOrStdout()

			if list {
				closed := make([]string, 0)
				for m := range closing.ClosedMonths(d.JournalEntries) {
					closed = append(closed, m)
				}
				sort.Strings(closed)
				fmt.Fprintf(out, "Closed:    %v\n", closed)
				fmt.Fprintf(out, "Available: %v\n", available)
				return nil
			}

			var month string
			switch {
			case len(args) == 1:
				month = args[0]
			case len(available) > 0:
				month = available[len(available)-1]
			default:
				return fmt.Errorf("no month to close")
			}

			c := &store.CloseMonth{Month: month}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(out, "Closed %s with %s\n", month, c.Result.ID)
			printEntry(out, c.Result, accounts.NewRegistry(d.Accounts))
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list closed and available months")
	return cmd
}
