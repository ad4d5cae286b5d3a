package sitemap

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func ptime(t time.Time) *time.Time { return &t }

func TestSerialize(t *testing.T) {
	records := []PageRecord{
		{URL: ""},
		{URL: "guide/", LastModified: ptime(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))},
		{URL: "configuration.html", LastModified: ptime(time.Date(2025, 1, 2, 5, 4, 5, 0, time.FixedZone("CEST", 2*3600)))},
	}

	out, err := Encode("https://slusarz.github.io/dovecot-fts-flatcurve/", records)
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>https://slusarz.github.io/dovecot-fts-flatcurve/</loc>
  </url>
  <url>
    <loc>https://slusarz.github.io/dovecot-fts-flatcurve/guide/</loc>
    <lastmod>2025-01-02T03:04:05Z</lastmod>
  </url>
  <url>
    <loc>https://slusarz.github.io/dovecot-fts-flatcurve/configuration.html</loc>
    <lastmod>2025-01-02T03:04:05Z</lastmod>
  </url>
</urlset>
`
	assert.Equal(t, want, string(out))
}

func TestSerializeOmitsLastmodWhenUnknown(t *testing.T) {
	out, err := Encode("https://example.org", []PageRecord{{URL: "a.html"}})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "lastmod")
	assert.Contains(t, string(out), "<loc>https://example.org/a.html</loc>")
}

func TestSerializeEscapesLoc(t *testing.T) {
	out, err := Encode("https://example.org/", []PageRecord{{URL: "q&a.html"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<loc>https://example.org/q&amp;a.html</loc>")
}

func TestSerializeRequiresHostname(t *testing.T) {
	for _, host := range []string{"", "   ", "example.org", "/docs/"} {
		t.Run(host, func(t *testing.T) {
			var buf bytes.Buffer
			err := Serialize(&buf, host, []PageRecord{{URL: "a.html"}})
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
			assert.Zero(t, buf.Len(), "nothing may be written for an invalid hostname")
		})
	}
}

func TestRoundTrip(t *testing.T) {
	host := "https://example.org/docs/"
	records := []PageRecord{
		{URL: "", LastModified: ptime(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC))},
		{URL: "guide/"},
		{URL: "guide/setup.html", LastModified: ptime(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))},
		{URL: "guide/docker.html", LastModified: ptime(time.Date(2025, 2, 1, 10, 0, 0, 500_000_000, time.FixedZone("CET", 3600)))},
	}
	out, err := Encode(host, records)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<lastmod>2024-12-31T23:59:59Z</lastmod>")
	assert.Contains(t, string(out), "<lastmod>2025-02-01T09:00:00.5Z</lastmod>")

	entries, err := Parse(bytes.NewReader(out))
	require.NoError(t, err)
	require.Len(t, entries, len(records))
	for i, r := range records {
		assert.Equal(t, Loc(host, r.URL), entries[i].Loc)
		if r.LastModified == nil {
			assert.Nil(t, entries[i].LastMod)
			continue
		}
		require.NotNil(t, entries[i].LastMod)
		assert.True(t, r.LastModified.Equal(*entries[i].LastMod))
	}
}

func TestParseAcceptsDateOnlyLastmod(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.org/</loc><lastmod>2025-03-04</lastmod></url>
</urlset>`
	entries, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2025-03-04", entries[0].LastMod.Format(time.DateOnly))
}

func TestParseRejectsForeignDocument(t *testing.T) {
	_, err := Parse(strings.NewReader(`<urlset><url><loc>x</loc></url></urlset>`))
	require.Error(t, err)
	_, err = Parse(strings.NewReader(`not xml`))
	require.Error(t, err)
}
