package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/memo"
	"github.com/gracebooks/gracebooks/internal/store"
)

func newMemoCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memo",
		Short: "Manage reusable memos and rewrite memos on journal lines",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List managed memos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			for _, m := range d.ManagedMemos {
				fmt.Fprintf(w, "%s\t%s\n", m.ID, m.Text)
			}
			return w.Flush()
		},
	}

	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a managed memo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &store.AddMemo{Text: strings.Join(args, " ")}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added memo %s\n", c.Result.ID)
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Change a managed memo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), &store.UpdateMemo{ID: args[0], Text: strings.Join(args[1:], " ")})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a managed memo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd.Context(), &store.DeleteMemo{ID: args[0]})
		},
	}

	var search string
	usage := &cobra.Command{
		Use:   "usage [account-id]",
		Short: "Count the memos used on journal lines, per account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.active(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			if len(args) == 1 {
				for _, c := range memo.Usage(d.JournalEntries, args[0]) {
					fmt.Fprintf(w, "%d\t%s\n", c.Count, c.Memo)
				}
				return w.Flush()
			}
			for _, am := range memo.ByAccount(d.JournalEntries, search) {
				for _, c := range am.Memos {
					fmt.Fprintf(w, "%s\t%d\t%s\n", am.AccountID, c.Count, c.Memo)
				}
			}
			return w.Flush()
		},
	}
	usage.Flags().StringVar(&search, "search", "", "only memos containing this text")

	var clearMemo bool
	rename := &cobra.Command{
		Use:   "rename <account-id> <old> [new]",
		Short: "Rewrite a memo on every line of an account",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &store.RenameMemo{AccountID: args[0], Old: args[1]}
			switch {
			case len(args) == 3:
				c.New = args[2]
			case !clearMemo:
				return fmt.Errorf("give a new memo or --clear")
			}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Changed %d lines\n", c.Changed)
			return nil
		},
	}
	rename.Flags().BoolVar(&clearMemo, "clear", false, "remove the memo instead of renaming it")

	cmd.AddCommand(list, add, edit, del, usage, rename)
	return cmd
}
