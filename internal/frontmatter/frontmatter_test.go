package frontmatter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("no header", func(t *testing.T) {
		doc, err := Parse([]byte("# Title\n"))
		require.NoError(t, err)
		assert.False(t, doc.HasHeader)
		assert.Empty(t, doc.Fields)
		assert.Equal(t, "# Title\n", string(doc.Body))
	})

	t.Run("header and body", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Install\nlayout: home\n---\n# Install\n"))
		require.NoError(t, err)
		assert.True(t, doc.HasHeader)
		assert.Equal(t, "Install", doc.Fields["title"])
		assert.Equal(t, "# Install\n", string(doc.Body))
	})

	t.Run("empty header", func(t *testing.T) {
		doc, err := Parse([]byte("---\n---\nbody"))
		require.NoError(t, err)
		assert.True(t, doc.HasHeader)
		assert.Empty(t, doc.Fields)
		assert.Equal(t, "body", string(doc.Body))
	})

	t.Run("header at end of file", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Only\n---"))
		require.NoError(t, err)
		assert.Equal(t, "Only", doc.Fields["title"])
		assert.Empty(t, doc.Body)
	})

	t.Run("crlf", func(t *testing.T) {
		doc, err := Parse([]byte("---\r\ntitle: Win\r\n---\r\nbody\r\n"))
		require.NoError(t, err)
		assert.Equal(t, "Win", doc.Fields["title"])
		assert.Equal(t, "body\r\n", string(doc.Body))
	})

	t.Run("missing closing delimiter", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: x\nbody\n"))
		require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: [unclosed\n---\n"))
		require.Error(t, err)
	})
}

func TestDocumentBytes(t *testing.T) {
	doc, err := Parse([]byte("---\r\nz: 1\r\na: two\r\n---\r\nbody\r\n"))
	require.NoError(t, err)

	out, err := doc.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "---\r\na: two\r\nz: 1\r\n---\r\nbody\r\n", string(out))

	plain, err := Parse([]byte("body\n"))
	require.NoError(t, err)
	out, err = plain.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "body\n", string(out))

	plain.Fields["title"] = "Added"
	out, err = plain.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: Added\n---\nbody\n", string(out))
}

func TestSerializeYAMLSortsNestedKeys(t *testing.T) {
	out, err := SerializeYAML(map[string]any{
		"tags":  []string{"fts", "xapian"},
		"extra": map[string]any{"b": true, "a": 1.5},
	}, "\n")
	require.NoError(t, err)
	assert.Equal(t, "extra:\n  a: 1.5\n  b: true\ntags:\n  - fts\n  - xapian\n", string(out))
}

func TestParseMeta(t *testing.T) {
	meta, err := ParseMeta(map[string]any{
		"title":   " Configuration ",
		"lastmod": "2024-03-01",
		"outline": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Configuration", meta.Title)
	assert.Equal(t, "3", meta.Outline)
	require.NotNil(t, meta.Lastmod)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *meta.Lastmod)

	meta, err = ParseMeta(map[string]any{"lastmod": "2024-03-01T10:00:00+02:00"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), *meta.Lastmod)

	meta, err = ParseMeta(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, meta.Lastmod)

	_, err = ParseMeta(map[string]any{"lastmod": "yesterday"})
	require.Error(t, err)
}

func TestStamp(t *testing.T) {
	now := time.Date(2026, 1, 22, 23, 30, 0, 0, time.FixedZone("X", -2*60*60))

	t.Run("sets fingerprint and lastmod when missing", func(t *testing.T) {
		doc := &Document{Fields: map[string]any{"title": "Test"}, Body: []byte("hello"), HasHeader: true}
		changed, err := Stamp(doc, now)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.NotEmpty(t, doc.Fields[mdfp.FingerprintField])
		assert.Equal(t, "2026-01-23", doc.Fields[LastmodField])
	})

	t.Run("unchanged content keeps lastmod", func(t *testing.T) {
		doc := &Document{Fields: map[string]any{"title": "Test"}, Body: []byte("hello"), HasHeader: true}
		fp, err := Fingerprint(doc.Fields, doc.Body)
		require.NoError(t, err)
		doc.Fields[mdfp.FingerprintField] = fp
		doc.Fields[LastmodField] = "1999-01-01"

		changed, err := Stamp(doc, now)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "1999-01-01", doc.Fields[LastmodField])
	})

	t.Run("lastmod does not affect fingerprint", func(t *testing.T) {
		a, err := Fingerprint(map[string]any{"title": "T", LastmodField: "2020-01-01"}, []byte("x"))
		require.NoError(t, err)
		b, err := Fingerprint(map[string]any{"title": "T"}, []byte("x"))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestStampFile(t *testing.T) {
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	p := filepath.Join(t.TempDir(), "page.md")
	require.NoError(t, os.WriteFile(p, []byte("---\ntitle: Page\n---\n# Page\n"), 0o600))

	changed, err := StampFile(p, now, true)
	require.NoError(t, err)
	assert.True(t, changed)
	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), LastmodField, "dry run must not write")

	changed, err = StampFile(p, now, false)
	require.NoError(t, err)
	assert.True(t, changed)
	raw, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "2026-05-04")

	changed, err = StampFile(p, now.Add(48*time.Hour), false)
	require.NoError(t, err)
	assert.False(t, changed)
}
