package frontmatter

import (
	"os"
	"strings"
	"time"

	"github.com/inful/mdfp"
)

// Fingerprint hashes the page body and every header field except the
// fingerprint itself and lastmod, so restamping is idempotent.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	hashed := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField || k == LastmodField {
			continue
		}
		hashed[k] = v
	}

	header := ""
	if len(hashed) > 0 {
		raw, err := SerializeYAML(hashed, "\n")
		if err != nil {
			return "", err
		}
		header = strings.TrimSuffix(string(raw), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(header, string(body)), nil
}

// Stamp updates the fingerprint field and, when the content changed since the
// last stamp, sets lastmod to now (UTC date). It reports whether d was modified.
func Stamp(d *Document, now time.Time) (bool, error) {
	fp, err := Fingerprint(d.Fields, d.Body)
	if err != nil {
		return false, err
	}
	if old, ok := d.Fields[mdfp.FingerprintField].(string); ok && strings.TrimSpace(old) == fp {
		return false, nil
	}
	d.Fields[mdfp.FingerprintField] = fp
	d.Fields[LastmodField] = now.UTC().Format(LastmodLayout)
	return true, nil
}

// StampFile stamps the Markdown file at path. With dryRun the file is left
// untouched and only the change decision is returned.
func StampFile(path string, now time.Time, dryRun bool) (bool, error) {
	// #nosec G304 -- path comes from walking the configured content directory
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	doc, err := Parse(content)
	if err != nil {
		return false, err
	}
	changed, err := Stamp(doc, now)
	if err != nil || !changed || dryRun {
		return changed, err
	}
	out, err := doc.Bytes()
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(path, out, info.Mode().Perm())
}
