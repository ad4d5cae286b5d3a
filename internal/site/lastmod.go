package site

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// LastmodResolver determines when a page last changed. A nil result means
// unknown; resolution problems are never build errors.
type LastmodResolver interface {
	Lastmod(ctx context.Context, relPath string, meta frontmatter.Meta) *time.Time
}

// FrontmatterLastmod uses the page's lastmod header field.
type FrontmatterLastmod struct{}

func (FrontmatterLastmod) Lastmod(_ context.Context, _ string, meta frontmatter.Meta) *time.Time {
	return meta.Lastmod
}

// ChainLastmod returns the first known time from its resolvers.
type ChainLastmod []LastmodResolver

func (c ChainLastmod) Lastmod(ctx context.Context, relPath string, meta frontmatter.Meta) *time.Time {
	for _, r := range c {
		if t := r.Lastmod(ctx, relPath, meta); t != nil {
			return t
		}
	}
	return nil
}

// GitLastmod reports the committer time of the latest commit touching a page.
type GitLastmod struct {
	repo   *git.Repository
	prefix string

	mu    sync.Mutex
	cache map[string]*time.Time
}

// NewGitLastmod opens the repository containing contentDir.
func NewGitLastmod(contentDir string) (*GitLastmod, error) {
	abs, err := filepath.Abs(contentDir)
	if err != nil {
		return nil, err
	}
	if resolved, rerr := filepath.EvalSymlinks(abs); rerr == nil {
		abs = resolved
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.GitError("content directory is not inside a git repository").
			WithCause(err).
			WithContext("path", contentDir).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.GitError("repository has no worktree").WithCause(err).Build()
	}
	root := wt.Filesystem.Root()
	if resolved, rerr := filepath.EvalSymlinks(root); rerr == nil {
		root = resolved
	}
	prefix, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, errors.GitError("content directory outside worktree").WithCause(err).Build()
	}
	prefix = filepath.ToSlash(prefix)
	if prefix == "." {
		prefix = ""
	}
	return &GitLastmod{repo: repo, prefix: prefix, cache: map[string]*time.Time{}}, nil
}

func (g *GitLastmod) Lastmod(_ context.Context, relPath string, _ frontmatter.Meta) *time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.cache[relPath]; ok {
		return t
	}
	t := g.lookup(relPath)
	g.cache[relPath] = t
	return t
}

func (g *GitLastmod) lookup(relPath string) *time.Time {
	file := path.Join(g.prefix, relPath)
	iter, err := g.repo.Log(&git.LogOptions{FileName: &file, Order: git.LogOrderCommitterTime})
	if err != nil {
		slog.Debug("Git log unavailable", logfields.Page(relPath), logfields.Error(err))
		return nil
	}
	defer iter.Close()

	c, err := iter.Next()
	if err != nil {
		// untracked file
		return nil
	}
	t := c.Committer.When.UTC()
	return &t
}
