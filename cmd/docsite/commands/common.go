// Package commands implements the docsite command line.
package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/site"
	"git.home.luguber.info/inful/docsite/internal/sitemap"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site and its sitemap"`
	Preview PreviewCmd `cmd:"" help:"Serve the site locally and rebuild on changes"`
	Lastmod LastmodCmd `cmd:"" help:"Update lastmod frontmatter of pages whose content changed"`
	Sitemap SitemapCmd `cmd:"" help:"Print the entries of a sitemap file"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	History HistoryCmd `cmd:"" help:"List recent builds from the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.LogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// buildStack is the generator together with the optional metrics and history
// backends configured for it.
type buildStack struct {
	generator  *site.Generator
	prometheus *metrics.PrometheusRecorder
	store      *eventstore.SQLiteStore
}

// newBuildStack wires the sitemap plugin, metrics and history into a generator.
func newBuildStack(cfg *config.Config, outputDir string, logger *slog.Logger) (*buildStack, error) {
	st := &buildStack{}
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Textfile != "" {
		st.prometheus = metrics.NewPrometheusRecorder(nil)
		recorder = st.prometheus
	}

	pluginOpts := []sitemap.PluginOption{sitemap.WithRecorder(recorder), sitemap.WithLogger(logger)}
	gen := site.NewGenerator(cfg, outputDir).WithRecorder(recorder).WithLogger(logger)
	if cfg.History.Database != "" {
		store, err := eventstore.NewSQLiteStore(cfg.Path(cfg.History.Database))
		if err != nil {
			return nil, err
		}
		st.store = store
		pluginOpts = append(pluginOpts, sitemap.WithEventStore(store))
		gen = gen.WithEventStore(store)
	}

	plugin := sitemap.NewPlugin(sitemap.Options{
		Hostname:      cfg.Sitemap.Hostname,
		NotFoundPage:  cfg.Sitemap.NotFoundPage,
		PageExtension: cfg.Sitemap.PageExtension,
		Gzip:          cfg.Sitemap.Gzip,
	}, pluginOpts...)
	st.generator = gen.WithHooks(plugin)
	return st, nil
}

// flushMetrics writes the metrics textfile when one is configured.
func (st *buildStack) flushMetrics(cfg *config.Config, logger *slog.Logger) {
	if st.prometheus == nil {
		return
	}
	path := cfg.Path(cfg.Metrics.Textfile)
	if err := st.prometheus.WriteTextfile(path); err != nil {
		logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}

func (st *buildStack) Close() {
	if st.store != nil {
		if err := st.store.Close(); err != nil {
			slog.Warn("Failed to close history database", logfields.Error(err))
		}
	}
}
