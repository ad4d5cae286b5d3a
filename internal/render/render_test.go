package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/refdata"
)

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"What is Flatcurve?":    "what-is-flatcurve",
		`Why "Flatcurve"?`:      "why-flatcurve",
		"Crème Brûlée":          "creme-brulee",
		"fts_flatcurve_rotate":  "fts_flatcurve_rotate",
		"  --Leading & trailing": "leading-trailing",
		"???":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestLinkerResolve(t *testing.T) {
	l := Linker{Base: "/dovecot-fts-flatcurve/", PageExtension: ".html"}
	tests := map[string]string{
		"/":                          "/dovecot-fts-flatcurve/",
		"/configuration":             "/dovecot-fts-flatcurve/configuration.html",
		"/configuration#rotate":      "/dovecot-fts-flatcurve/configuration.html#rotate",
		"design.md":                  "design.html",
		"guide/index.md":             "guide/",
		"/logo.png":                  "/dovecot-fts-flatcurve/logo.png",
		"#anchor":                    "#anchor",
		"https://xapian.org/":        "https://xapian.org/",
		"mailto:someone@example.org": "mailto:someone@example.org",
		"//cdn.example.org/x.js":     "//cdn.example.org/x.js",
	}
	for in, want := range tests {
		assert.Equal(t, want, l.Resolve(in), in)
	}

	assert.Equal(t, "/configuration", Linker{}.Resolve("/configuration"))
}

func TestConvertHeadingIDsAndLinks(t *testing.T) {
	md := NewMarkdown(Linker{Base: "/docs/", PageExtension: ".html"})
	out, err := md.Convert([]byte("# Design\n\n## Storage\n\n## Storage\n\nSee [config](/configuration) and ![logo](/logo.png).\n\n<code>raw</code>\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, `<h1 id="design">Design</h1>`)
	assert.Contains(t, html, `<h2 id="storage">Storage</h2>`)
	assert.Contains(t, html, `<h2 id="storage-1">Storage</h2>`)
	assert.Contains(t, html, `href="/docs/configuration.html"`)
	assert.Contains(t, html, `src="/docs/logo.png"`)
	assert.Contains(t, html, `<code>raw</code>`)
	assert.Contains(t, html, "<table>")

	// IDs are unique per call, not per converter.
	again, err := md.Convert([]byte("## Storage\n"))
	require.NoError(t, err)
	assert.Contains(t, string(again), `id="storage"`)
}

func TestOutline(t *testing.T) {
	fragment := []byte(`<h1 id="top">Top</h1><h2 id="a">A <code>x</code></h2><h3 id="b">B</h3><h2>No id</h2><h4 id="c">C</h4>`)

	assert.Equal(t, []Heading{{Level: 2, ID: "a", Text: "A x"}}, Outline(fragment, 2, 2))
	assert.Equal(t, []Heading{
		{Level: 2, ID: "a", Text: "A x"},
		{Level: 3, ID: "b", Text: "B"},
		{Level: 4, ID: "c", Text: "C"},
	}, Outline(fragment, 2, 6))
	assert.Empty(t, Outline(nil, 2, 6))
}

func TestConvertPageExpandsShortcodes(t *testing.T) {
	data := &refdata.Data{
		Options: []refdata.Option{{Name: "fts_flatcurve_rotate_size", Default: "5000", Value: "integer, set to `0` to disable", Summary: "Rotate after this many messages."}},
		Events: []refdata.Event{{
			Name:    "fts_flatcurve_rescan",
			Summary: "Emitted when a rescan is completed.",
			Fields:  refdata.Fields{{Name: "status", Description: "Status of rescan"}},
			Options: refdata.EventOptions{{Field: "status", Values: []string{"ok", "missing_msgs"}}},
		}},
		Commands: []refdata.Command{{Cmd: "doveadm fts-flatcurve rotate", Args: "<mailbox mask>", Summary: "Triggers an index rotation."}},
	}
	md := NewMarkdown(Linker{Base: "/", PageExtension: ".html"})

	out, err := md.ConvertPage([]byte("# Reference\n\n{{< options >}}\n\n{{< events >}}\n\n  {{< commands >}}\n"), data)
	require.NoError(t, err)
	html := string(out)

	assert.NotContains(t, html, "docsite:")
	assert.Contains(t, html, `<h3 id="fts_flatcurve_rotate_size"><code>fts_flatcurve_rotate_size</code></h3>`)
	assert.Contains(t, html, "<td>integer, set to <code>0</code> to disable</td>")
	assert.Contains(t, html, "<p>Rotate after this many messages.</p>")
	assert.Contains(t, html, "<code>ok</code>, <code>missing_msgs</code>")
	assert.Contains(t, html, "<pre><code>doveadm fts-flatcurve rotate &lt;mailbox mask&gt;</code></pre>")

	headings := Outline(out, 3, 3)
	require.Len(t, headings, 3)
	assert.Equal(t, "doveadm-fts-flatcurve-rotate", headings[2].ID)
}

func TestConvertPageWithoutShortcodes(t *testing.T) {
	md := NewMarkdown(Linker{})
	out, err := md.ConvertPage([]byte("Inline `{{< options >}}` stays.\n"), nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "{{&lt; options &gt;}}")
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Site: config.SiteConfig{Title: "FTS Flatcurve", Description: "Docs", Base: "/dovecot-fts-flatcurve/"},
		Theme: config.ThemeConfig{
			Nav: []config.NavLink{{Text: "Home", Link: "/"}, {Text: "Configuration", Link: "/configuration"}},
			Sidebar: []config.SidebarGroup{{
				Text:  "Installation",
				Items: []config.NavLink{{Text: "Configuration", Link: "/configuration"}, {Text: "Docker", Link: "/docker"}},
			}},
			SocialLinks: []config.SocialLink{{Icon: "github", Link: "https://github.com/slusarz/dovecot-fts-flatcurve/"}},
			Search:      config.SearchConfig{Provider: "local"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestLayoutRender(t *testing.T) {
	layout, err := NewLayout(testConfig())
	require.NoError(t, err)

	updated := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, layout.Render(&buf, Page{
		URL:         "configuration.html",
		Title:       "Configuration",
		Content:     "<h2 id=\"x\">X</h2>",
		Outline:     []Heading{{Level: 2, ID: "x", Text: "X"}},
		LastUpdated: &updated,
	}))
	html := buf.String()

	assert.Contains(t, html, "<title>Configuration | FTS Flatcurve</title>")
	assert.Contains(t, html, `<html lang="en-US">`)
	assert.Contains(t, html, `href="/dovecot-fts-flatcurve/assets/docsite.css"`)
	assert.Contains(t, html, `<a href="/dovecot-fts-flatcurve/configuration.html" class="active" aria-current="page">Configuration</a>`)
	assert.Contains(t, html, `<a href="/dovecot-fts-flatcurve/docker.html">Docker</a>`)
	assert.Contains(t, html, `<a href="/dovecot-fts-flatcurve/">Home</a>`)
	assert.Contains(t, html, `<meta name="docsite:search" content="local">`)
	assert.Contains(t, html, `<a href="#x">X</a>`)
	assert.Contains(t, html, `<time datetime="2024-02-03T10:00:00Z">February 3, 2024</time>`)
	assert.Equal(t, 2, strings.Count(html, `class="active"`))
}

func TestLayoutRenderHome(t *testing.T) {
	layout, err := NewLayout(testConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, layout.Render(&buf, Page{URL: "", Home: true, Outline: []Heading{{Level: 2, ID: "x", Text: "X"}}}))
	html := buf.String()

	assert.Contains(t, html, "<title>FTS Flatcurve</title>")
	assert.Contains(t, html, `class="layout-home"`)
	assert.NotContains(t, html, `class="sidebar"`)
	assert.NotContains(t, html, `class="outline"`)
	assert.Contains(t, html, `<a href="/dovecot-fts-flatcurve/" class="active" aria-current="page">Home</a>`)
	assert.NotContains(t, html, "Last updated")
}
