package sitemap

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/hook"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	included int
	skipped  int
	entries  int
}

func (r *countingRecorder) IncSitemapPage(included bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if included {
		r.included++
	} else {
		r.skipped++
	}
}

func (r *countingRecorder) ObserveSitemapWrite(_ time.Duration, _ int64, entries int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries
}

type renderedPage struct {
	outputID string
	page     hook.PageContext
}

func renderAll(b hook.Hooks, pages []renderedPage) {
	for _, p := range pages {
		b.TransformPage(p.outputID, p.page)
	}
}

func readSitemap(t *testing.T, dir string) []Entry {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, FileName))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	entries, err := Parse(f)
	require.NoError(t, err)
	return entries
}

func TestBuildEmitsSitemapInRenderOrder(t *testing.T) {
	dir := t.TempDir()
	mod := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	rec := &countingRecorder{}
	plugin := NewPlugin(Options{Hostname: "https://example.org/docs/"}, WithRecorder(rec))

	b := plugin.Start(hook.BuildInfo{ID: "b1"})
	renderAll(b, []renderedPage{
		{filepath.Join(dir, "index.html"), hook.PageContext{RelativePath: "index.md"}},
		{filepath.Join(dir, "what.html"), hook.PageContext{RelativePath: "what.md", LastUpdated: &mod}},
		{filepath.Join(dir, "404.html"), hook.PageContext{RelativePath: "404.md"}},
		{filepath.Join(dir, "guide", "index.html"), hook.PageContext{RelativePath: "guide/index.md"}},
		{filepath.Join(dir, "guide", "setup.html"), hook.PageContext{RelativePath: "guide/setup.md"}},
	})
	require.Len(t, b.Pending(), 4)

	require.NoError(t, b.BuildEnd(t.Context(), dir))

	entries := readSitemap(t, dir)
	var locs []string
	for _, e := range entries {
		locs = append(locs, e.Loc)
		assert.NotContains(t, e.Loc, "404")
	}
	assert.Equal(t, []string{
		"https://example.org/docs/",
		"https://example.org/docs/what.html",
		"https://example.org/docs/guide/",
		"https://example.org/docs/guide/setup.html",
	}, locs)
	require.NotNil(t, entries[1].LastMod)
	assert.True(t, mod.Equal(*entries[1].LastMod))
	assert.Nil(t, entries[0].LastMod)

	res := b.Result()
	assert.Equal(t, 4, res.Entries)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, filepath.Join(dir, FileName), res.Path)
	assert.Positive(t, res.Bytes)

	assert.Equal(t, 4, rec.included)
	assert.Equal(t, 1, rec.skipped)
	assert.Equal(t, 4, rec.entries)
	assert.Empty(t, b.Pending(), "accumulator is drained by BuildEnd")
}

func TestBuildsDoNotShareState(t *testing.T) {
	plugin := NewPlugin(Options{Hostname: "https://example.org"})
	first := plugin.Start(hook.BuildInfo{ID: "1"})
	first.TransformPage("out/a.html", hook.PageContext{RelativePath: "a.md"})

	second := plugin.Start(hook.BuildInfo{ID: "2"})
	assert.Empty(t, second.Pending())

	dir := t.TempDir()
	require.NoError(t, second.BuildEnd(t.Context(), dir))
	assert.Empty(t, readSitemap(t, dir))
}

func TestBuildEndMissingHostname(t *testing.T) {
	dir := t.TempDir()
	b := NewPlugin(Options{}).Start(hook.BuildInfo{ID: "b1"})
	b.TransformPage(filepath.Join(dir, "a.html"), hook.PageContext{RelativePath: "a.md"})

	err := b.BuildEnd(t.Context(), dir)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Empty(t, dirNames(t, dir), "no sitemap.xml may be written")
	assert.Len(t, b.Pending(), 1, "records are not consumed when configuration is invalid")
}

func TestBuildEndUnwritableDirectory(t *testing.T) {
	b := NewPlugin(Options{Hostname: "https://example.org"}).Start(hook.BuildInfo{})
	err := b.BuildEnd(t.Context(), filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestBuildEndStaysPendingUntilHandleCompletes(t *testing.T) {
	dir := t.TempDir()
	syncCalled := make(chan struct{})
	release := make(chan struct{})
	b := NewPlugin(Options{Hostname: "https://example.org"},
		WithFileOpener(stallingOpener(syncCalled, release))).Start(hook.BuildInfo{})
	b.TransformPage("out/a.html", hook.PageContext{RelativePath: "a.md"})

	done := make(chan error, 1)
	go func() { done <- b.BuildEnd(t.Context(), dir) }()

	<-syncCalled
	select {
	case err := <-done:
		t.Fatalf("BuildEnd returned before the write was durable: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, readSitemap(t, dir), 1)
}

func TestBuildEndGzipCompanion(t *testing.T) {
	dir := t.TempDir()
	b := NewPlugin(Options{Hostname: "https://example.org", Gzip: true}).Start(hook.BuildInfo{})
	b.TransformPage("out/a.html", hook.PageContext{RelativePath: "a.md"})
	require.NoError(t, b.BuildEnd(t.Context(), dir))

	// #nosec G304 -- test output path
	plain, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	// #nosec G304 -- test output path
	compressed, err := os.ReadFile(filepath.Join(dir, FileName+".gz"))
	require.NoError(t, err)

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	unzipped, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, plain, unzipped)
}

func TestBuildEndRecordsEvent(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	dir := t.TempDir()
	b := NewPlugin(Options{Hostname: "https://example.org"}, WithEventStore(store)).Start(hook.BuildInfo{ID: "build-7"})
	b.TransformPage("out/a.html", hook.PageContext{RelativePath: "a.md"})
	require.NoError(t, b.BuildEnd(t.Context(), dir))

	events, err := store.GetByBuildID(t.Context(), "build-7")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventstore.TypeSitemapWritten, events[0].Type())
}

func TestTransformPageLogsRecordedPages(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := NewPlugin(Options{Hostname: "https://example.org"}, WithLogger(logger)).Start(hook.BuildInfo{ID: "b1"})

	b.TransformPage("out/index.html", hook.PageContext{RelativePath: "index.md"})
	b.TransformPage("out/guide/setup.html", hook.PageContext{RelativePath: "guide/setup.md"})

	assert.Contains(t, logs.String(), "url=guide/setup.html count=2")
}

func TestBuildEndEventFailureDoesNotFailBuild(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	dir := t.TempDir()
	b := NewPlugin(Options{Hostname: "https://example.org"}, WithEventStore(store), WithLogger(logger)).
		Start(hook.BuildInfo{ID: "build-8"})
	b.TransformPage("out/a.html", hook.PageContext{RelativePath: "a.md"})

	require.NoError(t, b.BuildEnd(t.Context(), dir))
	assert.FileExists(t, filepath.Join(dir, FileName))
	assert.Contains(t, logs.String(), "event=SitemapWritten")
}

func TestPluginImplementsFactory(t *testing.T) {
	var f hook.Factory = NewPlugin(Options{})
	assert.Equal(t, "sitemap", f.Name())
	_, ok := f.NewBuild(hook.BuildInfo{}).(*Build)
	assert.True(t, ok)
}
