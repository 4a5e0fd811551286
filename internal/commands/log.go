package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/activitylog"
	"github.com/gracebooks/gracebooks/internal/gitops"
	"github.com/gracebooks/gracebooks/internal/store"
)

func newLogCommand(a *app) *cobra.Command {
	var n int
	var revisions, commits bool
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent changes",
		Long: `Show recent changes from logs/activity.csv. With --revisions the
database's revision table is read instead, and with --git the data
directory's commit history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch {
			case commits:
				if !gitops.IsRepo(a.dir) {
					return fmt.Errorf("%s is not a git repository", a.dir)
				}
				lines, err := gitops.Open(a.dir, a.cfg.Git.AuthorName, a.cfg.Git.AuthorEmail).Log(cmd.Context(), n)
				if err != nil {
					return err
				}
				for _, l := range lines {
					fmt.Fprintln(out, l)
				}
				return nil

			case revisions:
				prof, _, err := a.active(cmd.Context())
				if err != nil {
					return err
				}
				db, ok := a.persister.(*store.SQLitePersister)
				if !ok {
					return fmt.Errorf("--revisions needs the sqlite backend, not %q", a.cfg.Data.Backend)
				}
				revs, err := db.Revisions(cmd.Context(), prof.ID, n)
				if err != nil {
					return err
				}
				w := newTable(out)
				for _, r := range revs {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ID, r.At.Local().Format(time.DateTime), r.Command, r.Details)
				}
				return w.Flush()
			}

			entries, err := activitylog.Tail(a.dir, n)
			if err != nil {
				return err
			}
			w := newTable(out)
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Profile, e.Command, e.Details, e.EntryID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 20, "number of changes")
	cmd.Flags().BoolVar(&revisions, "revisions", false, "read the database revision history")
	cmd.Flags().BoolVar(&commits, "git", false, "read the git history of the data directory")
	return cmd
}
