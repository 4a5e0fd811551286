package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/model"
	"github.com/gracebooks/gracebooks/internal/store"
)

// active returns the selected profile and a copy of its data.
func (a *app) active(ctx context.Context) (model.Profile, *model.ProfileData, error) {
	st, err := a.open(ctx)
	if err != nil {
		return model.Profile{}, nil, err
	}
	return st.Active()
}

func newProfileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage profiles",
	}

	var sel bool
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a profile with the default chart of accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &store.AddProfile{ProfileName: args[0], Select: sel}
			if err := a.do(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added profile %s (%s)\n", c.Result.Name, c.Result.ID)
			return nil
		},
	}
	add.Flags().BoolVar(&sel, "use", false, "make the new profile active")

	list := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			cur, _, _ := st.Active()
			w := newTable(cmd.OutOrStdout())
			for _, p := range st.Profiles() {
				mark := " "
				if p.ID == cur.ID {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", mark, p.Name, p.ID)
			}
			return w.Flush()
		},
	}

	use := &cobra.Command{
		Use:   "use <id|name>",
		Short: "Select the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.do(cmd.Context(), &store.SelectProfile{Profile: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Using profile %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, use)
	return cmd
}
