package sitemap

import "time"

// PageRecord is one sitemap entry.
type PageRecord struct {
	// URL is the page path relative to the published site root.
	URL string
	// LastModified is nil when the modification time is unknown.
	LastModified *time.Time
}

// Accumulator collects page records for a single build in render order.
// It never reorders or deduplicates and is not safe for concurrent use.
type Accumulator struct {
	records []PageRecord
}

// Append adds a record at the end.
func (a *Accumulator) Append(r PageRecord) {
	a.records = append(a.records, r)
}

// Len returns the number of records collected so far.
func (a *Accumulator) Len() int { return len(a.records) }

// Drain returns every collected record in order and empties the accumulator.
func (a *Accumulator) Drain() []PageRecord {
	out := a.records
	a.records = nil
	return out
}
