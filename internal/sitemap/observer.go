package sitemap

import (
	"strings"

	"git.home.luguber.info/inful/docsite/internal/hook"
)

// Defaults for Options; config uses the same values.
const (
	DefaultNotFoundPage  = "404.html"
	DefaultPageExtension = ".html"
)

// Observe decides whether the page identified by outputID belongs in the
// sitemap and derives its record. Malformed paths are not rejected; the
// derived URL is best effort.
func Observe(opts Options, outputID string, page hook.PageContext) (PageRecord, bool) {
	if IsNotFoundPage(opts.notFoundPage(), outputID) {
		return PageRecord{}, false
	}
	return PageRecord{
		URL:          PageURL(page.RelativePath, opts.pageExtension()),
		LastModified: page.LastUpdated,
	}, true
}

// IsNotFoundPage reports whether outputID names the reserved not-found page.
func IsNotFoundPage(notFound, outputID string) bool {
	if notFound == "" {
		return false
	}
	return strings.HasSuffix(strings.ReplaceAll(outputID, "\\", "/"), notFound)
}

// PageURL maps a content path to its published path:
// "guide/index.md" -> "guide/", "guide/setup.md" -> "guide/setup.html",
// and the root "index.md" -> "".
func PageURL(relPath, ext string) string {
	p := strings.ReplaceAll(relPath, "\\", "/")
	if p == "index.md" {
		return ""
	}
	if before, ok := strings.CutSuffix(p, "/index.md"); ok {
		return before + "/"
	}
	if before, ok := strings.CutSuffix(p, ".md"); ok {
		return before + ext
	}
	return p
}
