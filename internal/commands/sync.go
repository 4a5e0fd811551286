package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/store"
	gbsync "github.com/gracebooks/gracebooks/internal/sync"
)

// remote builds the configured save target. The "git" kind keeps every save
// as a commit.
func (a *app) remote(ctx context.Context) (gbsync.Remote, error) {
	dir := a.cfg.RemotePath(a.dir)
	switch a.cfg.Remote.Kind {
	case "", "dir":
		return gbsync.NewDirRemote(dir), nil
	case "git":
		return gbsync.NewGitRemote(ctx, dir, a.cfg.Git.AuthorName, a.cfg.Git.AuthorEmail)
	default:
		return nil, fmt.Errorf("unknown remote kind %q (want dir or git)", a.cfg.Remote.Kind)
	}
}

func newSyncCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Save all profiles to the remote folder, or restore them",
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Upload every profile, replacing the remote copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			r, err := a.remote(cmd.Context())
			if err != nil {
				return err
			}
			if err := gbsync.Save(cmd.Context(), r, a.cfg.Remote.FileName, st.State()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d profiles to %s\n", len(st.Profiles()), a.cfg.RemotePath(a.dir))
			return nil
		},
	}

	var yes bool
	restore := &cobra.Command{
		Use:   "restore",
		Short: "Replace every local profile with the remote copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("restore replaces all local data; pass --yes to confirm")
			}
			r, err := a.remote(cmd.Context())
			if err != nil {
				return err
			}
			state, err := gbsync.Restore(cmd.Context(), r, a.cfg.Remote.FileName)
			if err != nil {
				return err
			}
			if err := a.do(cmd.Context(), &store.ReplaceState{State: state}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d profiles\n", len(state.Profiles))
			return nil
		},
	}
	restore.Flags().BoolVar(&yes, "yes", false, "confirm replacing local data")

	var n int
	history := &cobra.Command{
		Use:   "history",
		Short: "Show the saves kept by a git remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.remote(cmd.Context())
			if err != nil {
				return err
			}
			gr, ok := r.(*gbsync.GitRemote)
			if !ok {
				return fmt.Errorf("history needs remote.kind: git")
			}
			lines, err := gr.History(cmd.Context(), n)
			if err != nil {
				return err
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	history.Flags().IntVarP(&n, "number", "n", 10, "number of saves")

	cmd.AddCommand(save, restore, history)
	return cmd
}
