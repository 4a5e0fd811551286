// Package gitops runs the git commands used to version a data directory.
package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo is a git working tree with a fixed commit identity.
type Repo struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// Open returns a Repo for dir with the default identity when name or email
// is empty.
func Open(dir, name, email string) *Repo {
	if name == "" {
		name = "gracebooks"
	}
	if email == "" {
		email = "gracebooks@localhost"
	}
	return &Repo{Dir: dir, AuthorName: name, AuthorEmail: email}
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Init runs git init unless the directory already is a repository.
func (r *Repo) Init(ctx context.Context) error {
	if IsRepo(r.Dir) {
		return nil
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", r.Dir, err)
	}
	if _, err := r.git(ctx, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// Dirty reports whether paths (or the whole tree) have uncommitted changes.
func (r *Repo) Dirty(ctx context.Context, paths ...string) (bool, error) {
	args := append([]string{"status", "--porcelain", "--"}, paths...)
	out, err := r.git(ctx, args...)
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return strings.TrimSpace(out) != "", nil
}

// Commit stages paths (all files when none are given) and commits them.
// It returns the short hash, or "" when there was nothing to commit.
func (r *Repo) Commit(ctx context.Context, message string, paths ...string) (string, error) {
	dirty, err := r.Dirty(ctx, paths...)
	if err != nil {
		return "", err
	}
	if !dirty {
		return "", nil
	}

	add := []string{"add", "-A"}
	if len(paths) > 0 {
		add = append(add, "--")
		add = append(add, paths...)
	}
	if out, err := r.git(ctx, add...); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	author := fmt.Sprintf("%s <%s>", r.AuthorName, r.AuthorEmail)
	if out, err := r.git(ctx, "commit", "--quiet", "-m", message, "--author", author); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := r.git(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Log returns the last n commit subjects, newest first.
func (r *Repo) Log(ctx context.Context, n int) ([]string, error) {
	out, err := r.git(ctx, "log", fmt.Sprintf("-%d", n), "--format=%h %s")
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(out), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

// git runs one command in the repo. The committer identity is set on the
// command line so commits work without a global git config.
func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	full := append([]string{
		"-c", "user.name=" + r.AuthorName,
		"-c", "user.email=" + r.AuthorEmail,
	}, args...)
	cmd := exec.CommandContext(ctx, "git", full...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}
