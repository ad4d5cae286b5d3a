package sitemap

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/gzip"

	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/hook"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
)

// FileName is the name of the emitted document inside the output directory.
const FileName = "sitemap.xml"

// Options configures sitemap emission.
type Options struct {
	// Hostname is the absolute URL of the deployed site root, including any base path.
	Hostname string
	// NotFoundPage is the output filename suffix of the page to exclude.
	NotFoundPage string
	// PageExtension replaces ".md" in page URLs.
	PageExtension string
	// Gzip additionally writes sitemap.xml.gz.
	Gzip bool
}

func (o Options) notFoundPage() string {
	if o.NotFoundPage == "" {
		return DefaultNotFoundPage
	}
	return o.NotFoundPage
}

func (o Options) pageExtension() string {
	if o.PageExtension == "" {
		return DefaultPageExtension
	}
	return o.PageExtension
}

// Plugin creates per-build sitemap hooks.
type Plugin struct {
	opts     Options
	recorder metrics.Recorder
	store    eventstore.Store
	open     OpenFunc
	logger   *slog.Logger
}

// PluginOption customizes a Plugin.
type PluginOption func(*Plugin)

func WithRecorder(r metrics.Recorder) PluginOption {
	return func(p *Plugin) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithEventStore records a SitemapWritten event per successful build.
func WithEventStore(s eventstore.Store) PluginOption {
	return func(p *Plugin) { p.store = s }
}

// WithFileOpener overrides how sitemap files are created; used by tests.
func WithFileOpener(fn OpenFunc) PluginOption {
	return func(p *Plugin) { p.open = fn }
}

func WithLogger(l *slog.Logger) PluginOption {
	return func(p *Plugin) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPlugin returns a sitemap plugin. Options are not validated here; a missing
// hostname surfaces as a configuration error when the build ends.
func NewPlugin(opts Options, options ...PluginOption) *Plugin {
	p := &Plugin{
		opts:     opts,
		recorder: metrics.NoopRecorder{},
		open:     openTemp,
		logger:   slog.Default(),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

func (p *Plugin) Name() string { return "sitemap" }

// NewBuild implements hook.Factory.
func (p *Plugin) NewBuild(info hook.BuildInfo) hook.Hooks {
	return p.Start(info)
}

// Start returns the sitemap state for one build.
func (p *Plugin) Start(info hook.BuildInfo) *Build {
	return &Build{plugin: p, info: info}
}

// Result summarizes a finished sitemap emission.
type Result struct {
	Path    string
	Entries int
	Skipped int
	Bytes   int64
}

// Build holds the sitemap state of one build.
type Build struct {
	plugin  *Plugin
	info    hook.BuildInfo
	links   Accumulator
	skipped int
	result  Result
}

// TransformPage records the page unless it is the not-found page.
func (b *Build) TransformPage(outputID string, page hook.PageContext) {
	rec, ok := Observe(b.plugin.opts, outputID, page)
	b.plugin.recorder.IncSitemapPage(ok)
	if !ok {
		b.skipped++
		b.plugin.logger.Debug("Sitemap skipped page", logfields.Page(outputID))
		return
	}
	b.links.Append(rec)
	b.plugin.logger.Debug("Sitemap recorded page",
		logfields.Page(outputID),
		logfields.URL(rec.URL),
		logfields.Count(b.links.Len()))
}

// Pending returns the records collected so far without draining them.
func (b *Build) Pending() []PageRecord {
	return append([]PageRecord(nil), b.links.records...)
}

// Result reports the outcome of BuildEnd.
func (b *Build) Result() Result { return b.result }

// BuildEnd writes sitemap.xml into outDir and returns once it is durable.
func (b *Build) BuildEnd(ctx context.Context, outDir string) error {
	p := b.plugin
	hostname := p.opts.Hostname
	if err := ValidateHostname(hostname); err != nil {
		return err
	}

	records := b.links.Drain()
	start := time.Now()

	n, path, err := p.emit(ctx, outDir, FileName, func(w io.Writer) error {
		return Serialize(w, hostname, records)
	})
	if err != nil {
		return err
	}
	if p.opts.Gzip {
		if _, _, err := p.emit(ctx, outDir, FileName+".gz", func(w io.Writer) error {
			zw := gzip.NewWriter(w)
			if err := Serialize(zw, hostname, records); err != nil {
				_ = zw.Close()
				return err
			}
			return zw.Close()
		}); err != nil {
			return err
		}
	}

	dur := time.Since(start)
	b.result = Result{Path: path, Entries: len(records), Skipped: b.skipped, Bytes: n}
	p.recorder.ObserveSitemapWrite(dur, n, len(records))
	p.logger.Info("Sitemap written",
		logfields.BuildID(b.info.ID),
		logfields.Path(path),
		logfields.Count(len(records)),
		logfields.DurationMS(float64(dur.Microseconds())/1000))

	if p.store != nil {
		ev, err := eventstore.NewSitemapWritten(b.info.ID, path, len(records), n)
		if err == nil {
			err = eventstore.Record(ctx, p.store, ev)
		}
		if err != nil {
			p.logger.Warn("Failed to record sitemap event",
				logfields.BuildID(b.info.ID),
				logfields.Event(eventstore.TypeSitemapWritten),
				logfields.Error(err))
		}
	}
	return nil
}

// emit streams encode's output into dir/name and waits for the write to be durable.
func (p *Plugin) emit(ctx context.Context, dir, name string, encode func(io.Writer) error) (int64, string, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(encode(pw))
	}()

	pending := NewWriter(name, WithOpenFunc(p.open)).Write(ctx, dir, pr)
	err := pending.Wait(ctx)
	// Unblocks the encoder when the writer stopped reading early.
	_ = pr.Close()
	return pending.Written(), pending.Path(), err
}
