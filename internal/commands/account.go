package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/accounts"
	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/store"
)

func newAccountCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the chart of accounts",
	}
	cmd.AddCommand(
		newAccountListCommand(a),
		newAccountAddCommand(a),
		newAccountEditCommand(a),
		newAccountDeleteCommand(a),
		newAccountNextIDCommand(a),
		newAccountImportCommand(a),
		newAccountExportCommand(a),
	)
	return cmd
}

func (a *app) registry(cmd *cobra.Command) (*accounts.Registry, error) {
	_, d, err := a.active(cmd.Context())
	if err != nil {
		return nil, err
	}
	return accounts.NewRegistry(d.Accounts), nil
}

func newAccountListCommand(a *app) *cobra.Command {
	var class string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			list := reg.Sorted()
			if class != "" {
				list = reg.ByClass(model.AccountClass(class))
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tLEVEL2\tLEVEL3")
			for _, acct := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", acct.ID, acct.Name, acct.Level2, acct.Level3)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "only accounts of this class (asset, liability, equity, income, expense, ...)")
	return cmd
}

// accountFlags are shared by add and edit.
type accountFlags struct {
	id, name, level1, level2, level3 string
}

func (f *accountFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "account name")
	cmd.Flags().StringVar(&f.level1, "level1", "", "level 1 group (default: taken from a sibling)")
	cmd.Flags().StringVar(&f.level2, "level2", "", "level 2 group (default: taken from a sibling)")
	cmd.Flags().StringVar(&f.level3, "level3", "", "level 3 group, e.g. 621-飲食")
}

// fill completes the level1 and level2 groups from an account sharing level3.
func (f *accountFlags) fill(reg *accounts.Registry) model.Account {
	acct := model.Account{ID: f.id, Name: f.name, Level1: f.level1, Level2: f.level2, Level3: f.level3}
	for _, sib := range reg.All() {
		if sib.Level3 != acct.Level3 {
			continue
		}
		if acct.Level1 == "" {
			acct.Level1 = sib.Level1
		}
		if acct.Level2 == "" {
			acct.Level2 = sib.Level2
		}
		break
	}
	return acct
}

func newAccountAddCommand(a *app) *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			if f.id == "" {
				if f.id, err = reg.NextID(f.level3); err != nil {
					return err
				}
			}
			acct := f.fill(reg)
			if err := a.do(cmd.Context(), &store.AddAccount{Account: acct}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added account %s\n", acct.Label())
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&f.id, "id", "", "account ID (default: next free ID under level3)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("level3")
	return cmd
}

func newAccountEditCommand(a *app) *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an account's name or groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			cur, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", accounts.ErrNotFound, args[0])
			}
			if cmd.Flags().Changed("name") {
				cur.Name = f.name
			}
			if cmd.Flags().Changed("level1") {
				cur.Level1 = f.level1
			}
			if cmd.Flags().Changed("level2") {
				cur.Level2 = f.level2
			}
			if cmd.Flags().Changed("level3") {
				cur.Level3 = f.level3
			}
			if err := a.do(cmd.Context(), &store.UpdateAccount{Account: cur}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated account %s\n", cur.Label())
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newAccountDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account that nothing references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.do(cmd.Context(), &store.DeleteAccount{ID: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s\n", args[0])
			return nil
		},
	}
}

func newAccountNextIDCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next-id <level3>",
		Short: "Propose the next account ID under a level 3 group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			id, err := reg.NextID(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newAccountImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Add the accounts of a CSV file whose IDs are new",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()
			list, err := accounts.ReadAccounts(f)
			if err != nil {
				return err
			}
			c := &store.ImportAccounts{Accounts: list}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts, skipped %d existing\n", c.Added, c.Skipped)
			return nil
		},
	}
}

func newAccountExportCommand(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the chart of accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry(cmd)
			if err != nil {
				return err
			}
			return writeOut(cmd, out, func(w io.Writer) error {
				return accounts.WriteAccounts(w, reg.Sorted())
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// writeOut writes to path, or to stdout when path is empty.
func writeOut(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
	return nil
}
