package sitemap

import (
	"encoding/xml"
	"io"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Entry is one <url> element read back from a sitemap document.
type Entry struct {
	Loc     string
	LastMod *time.Time
}

// Parse reads a sitemap document. <lastmod> accepts a date or an RFC 3339 date-time.
func Parse(r io.Reader) ([]Entry, error) {
	var set urlSet
	if err := xml.NewDecoder(r).Decode(&set); err != nil {
		return nil, errors.ValidationError("malformed sitemap document").WithCause(err).Build()
	}
	if set.Xmlns != Namespace {
		return nil, errors.ValidationError("unexpected sitemap namespace").
			WithContext("namespace", set.Xmlns).
			Build()
	}
	entries := make([]Entry, 0, len(set.URLs))
	for i, u := range set.URLs {
		e := Entry{Loc: strings.TrimSpace(u.Loc)}
		if raw := strings.TrimSpace(u.LastMod); raw != "" {
			t, err := parseLastMod(raw)
			if err != nil {
				return nil, errors.ValidationError("invalid lastmod").
					WithCause(err).
					WithContext("index", i).
					WithContext("loc", e.Loc).
					Build()
			}
			e.LastMod = &t
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseLastMod(raw string) (time.Time, error) {
	if t, err := time.Parse(LastModLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
