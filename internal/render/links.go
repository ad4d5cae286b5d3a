package render

import (
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Linker maps site-internal links to their published form.
type Linker struct {
	// Base is the URL path the site is served under, with leading and trailing '/'.
	Base string
	// PageExtension is appended to extensionless page links.
	PageExtension string
}

// Resolve rewrites link for publication. External links, fragments and
// protocol-relative URLs pass through untouched. Root-relative links gain the
// site base; `.md` targets and extensionless page links gain the page extension.
func (l Linker) Resolve(link string) string {
	if link == "" || strings.HasPrefix(link, "#") || strings.HasPrefix(link, "//") {
		return link
	}
	if u, err := url.Parse(link); err != nil || u.Scheme != "" {
		return link
	}

	target, suffix := link, ""
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target, suffix = target[:i], target[i:]
	}

	switch ext := path.Ext(target); {
	case ext == ".md":
		target = strings.TrimSuffix(target, ".md")
		if path.Base(target) == "index" {
			target = strings.TrimSuffix(target, "index")
		} else {
			target += l.PageExtension
		}
	case ext == "" && target != "" && !strings.HasSuffix(target, "/"):
		target += l.PageExtension
	}

	if strings.HasPrefix(target, "/") {
		target = l.base() + strings.TrimPrefix(target, "/")
	}
	return target + suffix
}

func (l Linker) base() string {
	if l.Base == "" {
		return "/"
	}
	return l.Base
}

// linkTransformer applies a Linker to every link and image in a document.
type linkTransformer struct {
	linker Linker
}

var _ parser.ASTTransformer = (*linkTransformer)(nil)

func (t *linkTransformer) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			node.Destination = []byte(t.linker.Resolve(string(node.Destination)))
		case *ast.Image:
			// assets keep their extension; only the base is applied
			dest := string(node.Destination)
			if strings.HasPrefix(dest, "/") && !strings.HasPrefix(dest, "//") {
				node.Destination = []byte(t.linker.base() + strings.TrimPrefix(dest, "/"))
			}
		}
		return ast.WalkContinue, nil
	})
}
