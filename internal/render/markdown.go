// Package render turns Markdown pages into HTML documents.
package render

import (
	"bytes"
	"html/template"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Markdown converts page bodies to HTML.
type Markdown struct {
	md goldmark.Markdown

	refOnce sync.Once
	refTmpl *template.Template
}

// NewMarkdown builds a converter with GFM, heading anchors and raw HTML
// enabled; links are rewritten through linker.
func NewMarkdown(linker Linker) *Markdown {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(&linkTransformer{linker: linker}, 100)),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Markdown{md: md}
}

// Convert renders source. Heading IDs are unique within one call.
func (m *Markdown) Convert(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	if err := m.md.Convert(source, &buf, parser.WithContext(ctx)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
