package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gracebooks/gracebooks/internal/config"
	"github.com/gracebooks/gracebooks/internal/gitops"
	"github.com/gracebooks/gracebooks/internal/store"
)

func newInitCommand(a *app) *cobra.Command {
	var name string
	var useGit bool
	var backend string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a data directory with a first profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				dir, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolving path: %w", err)
				}
				a.dir = dir
			}
			return a.runInit(cmd, name, backend, useGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "default", "name of the first profile")
	cmd.Flags().BoolVar(&useGit, "git", false, "version the data directory with git")
	cmd.Flags().StringVar(&backend, "backend", config.BackendSQLite, "storage backend: sqlite or json")

	return cmd
}

func (a *app) runInit(cmd *cobra.Command, name, backend string, useGit bool) error {
	ctx := cmd.Context()
	if backend != config.BackendSQLite && backend != config.BackendJSON {
		return fmt.Errorf("unknown backend %q (want sqlite or json)", backend)
	}
	dirs := []string{
		"logs",
		"exports",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(a.dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(a.dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}
	cfg := config.Default()
	cfg.Git.AutoCommit = useGit
	cfg.Data.Backend = backend
	err := config.Save(cfgPath, cfg)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	profile := a.cfg.Profile
	if a.cfg, err = config.LoadDir(a.dir); err != nil {
		return err
	}
	a.cfg.Profile = profile

	gitignore := "*.db-wal\n*.db-shm\n*.tmp\nexports/\nimport/\n.env\n"
	if err := os.WriteFile(filepath.Join(a.dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	add := &store.AddProfile{ProfileName: name, Select: true}
	if err := a.do(ctx, add); err != nil {
		return err
	}

	if useGit {
		repo := gitops.Open(a.dir, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err := repo.Init(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized gracebooks at %s (profile %s)\n", a.dir, add.Result.Name)
	return nil
}
