// Package frontmatter reads and rewrites the YAML header of Markdown pages.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a YAML header but
// never closed it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a Markdown page split into header fields and body.
type Document struct {
	Fields map[string]any
	Body   []byte
	// HasHeader reports whether the source carried a `---` delimited header.
	HasHeader bool
	newline   string
}

// Parse splits content into header fields and body. A document without a
// header yields empty Fields and the whole input as Body.
func Parse(content []byte) (*Document, error) {
	nl := detectNewline(content)
	raw, body, had, err := split(content, nl)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	return &Document{Fields: fields, Body: body, HasHeader: had, newline: nl}, nil
}

// Bytes reassembles the document. Header keys are written in sorted order.
// A document that had no header gains one only when Fields is non-empty.
func (d *Document) Bytes() ([]byte, error) {
	if !d.HasHeader && len(d.Fields) == 0 {
		return d.Body, nil
	}
	nl := d.newline
	if nl == "" {
		nl = "\n"
	}
	raw, err := SerializeYAML(d.Fields, nl)
	if err != nil {
		return nil, err
	}

	delim := []byte("---" + nl)
	out := make([]byte, 0, 2*len(delim)+len(raw)+len(d.Body))
	out = append(out, delim...)
	out = append(out, raw...)
	out = append(out, delim...)
	out = append(out, d.Body...)
	return out, nil
}

func split(content []byte, nl string) (raw, body []byte, had bool, err error) {
	delim := []byte("---" + nl)
	if !bytes.HasPrefix(content, delim) {
		return nil, content, false, nil
	}

	start := len(delim)
	if bytes.HasPrefix(content[start:], delim) {
		return nil, content[start+len(delim):], true, nil
	}

	closing := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closing)
	if idx < 0 {
		// header closed at end of file without a trailing newline
		if bytes.HasSuffix(content[start:], []byte(nl+"---")) {
			end := len(content) - 3
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closing):], true, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
