// Package hook defines the callback contract between the site generator and
// build plugins such as the sitemap emitter.
//
// The generator owns a single-threaded, single-pass build. At the start of every
// build it asks each registered Factory for fresh per-build Hooks, calls
// TransformPage once per rendered page in render order, and finally calls
// BuildEnd once with the build output directory. BuildEnd must not return
// before any output it is responsible for is durable on disk.
package hook

import (
	"context"
	"time"
)

// PageContext is the render metadata handed to TransformPage.
type PageContext struct {
	// RelativePath is the page source path relative to the content root,
	// slash separated (e.g. "guide/index.md").
	RelativePath string
	// Title is the resolved page title; informational.
	Title string
	// LastUpdated is the last content modification time, nil when unknown.
	LastUpdated *time.Time
}

// BuildInfo identifies the build a set of Hooks belongs to.
type BuildInfo struct {
	ID      string
	Started time.Time
}

// Hooks is the per-build callback set. Implementations are not safe for
// concurrent use; the generator invokes them sequentially.
type Hooks interface {
	// TransformPage observes one finalized page. It must not block and has
	// no way to fail the build.
	TransformPage(outputID string, page PageContext)
	// BuildEnd runs once after every page was rendered.
	BuildEnd(ctx context.Context, outDir string) error
}

// Factory produces fresh Hooks for each build.
type Factory interface {
	Name() string
	NewBuild(info BuildInfo) Hooks
}
