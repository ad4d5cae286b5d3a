package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
)

func commitFile(t *testing.T, repo *git.Repository, root, rel, content string, when time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(rel)
	require.NoError(t, err)
	_, err = wt.Commit("update "+rel, &git.CommitOptions{
		Author: &object.Signature{Name: "Docs", Email: "docs@example.org", When: when},
	})
	require.NoError(t, err)
}

func TestGitLastmod(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	first := time.Date(2023, 6, 1, 9, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	second := first.Add(72 * time.Hour)
	commitFile(t, repo, root, "docs/index.md", "# Home\n", first)
	commitFile(t, repo, root, "docs/design.md", "# Design\n", first)
	commitFile(t, repo, root, "docs/design.md", "# Design v2\n", second)
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "draft.md"), []byte("# Draft\n"), 0o600))

	resolver, err := NewGitLastmod(filepath.Join(root, "docs"))
	require.NoError(t, err)
	ctx := context.Background()

	got := resolver.Lastmod(ctx, "index.md", frontmatter.Meta{})
	require.NotNil(t, got)
	assert.Equal(t, first.UTC(), *got)
	assert.Equal(t, time.UTC, got.Location())

	got = resolver.Lastmod(ctx, "design.md", frontmatter.Meta{})
	require.NotNil(t, got)
	assert.Equal(t, second.UTC(), *got)

	assert.Nil(t, resolver.Lastmod(ctx, "draft.md", frontmatter.Meta{}))
}

func TestNewGitLastmodOutsideRepository(t *testing.T) {
	_, err := NewGitLastmod(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
}

func TestChainLastmodPrefersFrontmatter(t *testing.T) {
	fm := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	fallback := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	chain := ChainLastmod{FrontmatterLastmod{}, fixedLastmod{t: &fallback}}

	assert.Equal(t, &fm, chain.Lastmod(context.Background(), "a.md", frontmatter.Meta{Lastmod: &fm}))
	assert.Equal(t, &fallback, chain.Lastmod(context.Background(), "a.md", frontmatter.Meta{}))
	assert.Nil(t, ChainLastmod{FrontmatterLastmod{}}.Lastmod(context.Background(), "a.md", frontmatter.Meta{}))
}

type fixedLastmod struct{ t *time.Time }

func (f fixedLastmod) Lastmod(context.Context, string, frontmatter.Meta) *time.Time { return f.t }

func TestBuildUsesGitTimesWhenEnabled(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	when := time.Date(2023, 6, 1, 9, 0, 0, 0, time.UTC)
	commitFile(t, repo, root, "docs/index.md", "# Home\n", when)

	cfg := &config.Config{BaseDir: root}
	cfg.Site.LastUpdated = true
	cfg.ApplyDefaults()

	rec := &recordingFactory{}
	g := NewGenerator(cfg, "").WithHooks(rec)
	_, err = g.Build(context.Background())
	require.NoError(t, err)

	pages := rec.builds[0].pages
	require.NotEmpty(t, pages)
	require.NotNil(t, pages[0].page.LastUpdated)
	assert.Equal(t, when, *pages[0].page.LastUpdated)

	html, err := os.ReadFile(filepath.Join(g.OutputDir(), "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "June 1, 2023")
}
