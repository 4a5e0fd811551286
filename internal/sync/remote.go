package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gracebooks/gracebooks/internal/gitops"
)

// DirRemote keeps files in a local folder, such as one synced by a cloud
// drive client.
type DirRemote struct {
	Dir string
}

// NewDirRemote returns a remote rooted at dir.
func NewDirRemote(dir string) *DirRemote { return &DirRemote{Dir: dir} }

func (r *DirRemote) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid remote file name %q", name)
	}
	return filepath.Join(r.Dir, name), nil
}

// List returns the regular, non-hidden files, sorted.
func (r *DirRemote) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", r.Dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (r *DirRemote) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := r.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return data, err
}

// Create writes name, failing if it already exists.
func (r *DirRemote) Create(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := r.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", r.Dir, err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

func (r *DirRemote) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := r.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotExist, name)
		}
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	return nil
}

// GitRemote is a DirRemote inside a git repository that commits every
// write, so each save is kept in history.
type GitRemote struct {
	*DirRemote
	repo *gitops.Repo
}

// NewGitRemote initializes the repository at dir if needed.
func NewGitRemote(ctx context.Context, dir, authorName, authorEmail string) (*GitRemote, error) {
	repo := gitops.Open(dir, authorName, authorEmail)
	if err := repo.Init(ctx); err != nil {
		return nil, err
	}
	return &GitRemote{DirRemote: NewDirRemote(dir), repo: repo}, nil
}

func (r *GitRemote) Create(ctx context.Context, name string, data []byte) error {
	if err := r.DirRemote.Create(ctx, name, data); err != nil {
		return err
	}
	if _, err := r.repo.Commit(ctx, "save "+name, name); err != nil {
		return fmt.Errorf("committing %s: %w", name, err)
	}
	return nil
}

// Delete removes name from the working tree. The removal is committed
// together with the next Create of the same name.
func (r *GitRemote) Delete(ctx context.Context, name string) error {
	return r.DirRemote.Delete(ctx, name)
}

// History returns the last n commits of the remote.
func (r *GitRemote) History(ctx context.Context, n int) ([]string, error) {
	return r.repo.Log(ctx, n)
}
