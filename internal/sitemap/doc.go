// Package sitemap emits sitemap.xml at the end of a site build.
//
// A Plugin is registered with the site generator. For every build it hands out a
// Build whose TransformPage hook records each eligible page (everything except
// the not-found page) in render order, and whose BuildEnd hook serializes the
// recorded pages and writes sitemap.xml into the output directory. BuildEnd
// returns only after the file handle reported the data durable and the file was
// renamed into place, so the process may exit as soon as it returns.
package sitemap
