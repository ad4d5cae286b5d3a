package frontmatter

import (
	"fmt"
	"strings"
	"time"
)

// LastmodField is the header key holding a page's last modification date.
const LastmodField = "lastmod"

// LastmodLayout is the date format written by Stamp.
const LastmodLayout = time.DateOnly

// Meta is the subset of header fields the site generator understands.
type Meta struct {
	Title       string
	Description string
	// Layout "home" suppresses the sidebar and outline.
	Layout  string
	Lastmod *time.Time
	// Outline overrides the site outline setting for one page.
	Outline string
}

// ParseMeta extracts Meta from header fields.
func ParseMeta(fields map[string]any) (Meta, error) {
	m := Meta{
		Title:       stringField(fields, "title"),
		Description: stringField(fields, "description"),
		Layout:      stringField(fields, "layout"),
		Outline:     stringField(fields, "outline"),
	}
	if raw, ok := fields[LastmodField]; ok && raw != nil {
		t, err := ParseTime(raw)
		if err != nil {
			return m, fmt.Errorf("lastmod: %w", err)
		}
		m.Lastmod = &t
	}
	return m, nil
}

// ParseTime accepts a time.Time, an RFC 3339 string, or a YYYY-MM-DD date.
func ParseTime(v any) (time.Time, error) {
	switch vv := v.(type) {
	case time.Time:
		return vv.UTC(), nil
	case string:
		s := strings.TrimSpace(vv)
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC(), nil
		}
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unsupported date %q", s)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date value of type %T", v)
	}
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
