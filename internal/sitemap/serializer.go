package sitemap

import (
	"bytes"
	"encoding/xml"
	"io"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Namespace is the sitemap 0.9 schema namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// LastModLayout is the W3C date-time layout used for <lastmod>. Fractional
// seconds are kept when present.
const LastModLayout = time.RFC3339Nano

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// ValidateHostname checks that hostname is an absolute URL usable as the <loc> prefix.
func ValidateHostname(hostname string) error {
	if strings.TrimSpace(hostname) == "" {
		return errors.ConfigError("sitemap hostname is not configured").
			WithContext("setting", "sitemap.hostname").
			Build()
	}
	u, err := url.Parse(hostname)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigError("sitemap hostname must be an absolute URL").
			WithCause(err).
			WithContext("hostname", hostname).
			Build()
	}
	return nil
}

// Loc joins hostname and a relative page URL with exactly one slash between them.
func Loc(hostname, pageURL string) string {
	return strings.TrimSuffix(hostname, "/") + "/" + strings.TrimPrefix(pageURL, "/")
}

// Serialize writes a sitemap document for records to w, preserving their order.
// Nothing is written when hostname is invalid.
func Serialize(w io.Writer, hostname string, records []PageRecord) error {
	if err := ValidateHostname(hostname); err != nil {
		return err
	}
	set := urlSet{Xmlns: Namespace, URLs: make([]urlEntry, 0, len(records))}
	for _, r := range records {
		e := urlEntry{Loc: Loc(hostname, r.URL)}
		if r.LastModified != nil {
			e.LastMod = r.LastModified.UTC().Format(LastModLayout)
		}
		set.URLs = append(set.URLs, e)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Encode is Serialize into a byte slice.
func Encode(hostname string, records []PageRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := Serialize(&buf, hostname, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
