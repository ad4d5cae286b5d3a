// Package site builds a static documentation site from a tree of Markdown
// pages.
//
// A build runs a fixed sequence of stages against a staging directory that
// sits next to the output directory. Every rendered page is handed to the
// registered hooks in render order; after the last page the hooks' BuildEnd
// runs against the staging directory, and only when all of them succeed is
// the staging directory promoted over the previous output.
package site
