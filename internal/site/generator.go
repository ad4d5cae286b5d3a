package site

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/hook"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/refdata"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/version"
)

// Generator builds the site described by a configuration.
type Generator struct {
	cfg        *config.Config
	outputDir  string
	contentDir string
	dataDir    string
	publicDir  string

	factories []hook.Factory
	recorder  metrics.Recorder
	store     eventstore.Store
	lastmod   LastmodResolver
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewGenerator creates a generator writing to outputDir. An empty outputDir
// selects the configured output directory. When site.last_updated is set and
// the content lives in a git repository, commit times back up frontmatter
// lastmod values.
func NewGenerator(cfg *config.Config, outputDir string) *Generator {
	if outputDir == "" {
		outputDir = cfg.Path(cfg.Output.Directory)
	}
	g := &Generator{
		cfg:        cfg,
		outputDir:  filepath.Clean(outputDir),
		contentDir: cfg.Path(cfg.Content.Dir),
		dataDir:    cfg.Path(cfg.Content.DataDir),
		publicDir:  cfg.Path(cfg.Content.PublicDir),
		recorder:   metrics.NoopRecorder{},
		lastmod:    FrontmatterLastmod{},
		logger:     slog.Default(),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	if cfg.Site.LastUpdated {
		gitLastmod, err := NewGitLastmod(g.contentDir)
		if err != nil {
			g.logger.Warn("Git last-updated times unavailable", logfields.Path(g.contentDir), logfields.Error(err))
		} else {
			g.lastmod = ChainLastmod{FrontmatterLastmod{}, gitLastmod}
		}
	}
	return g
}

// WithHooks registers hook factories; each build gets fresh hooks from them.
func (g *Generator) WithHooks(factories ...hook.Factory) *Generator {
	g.factories = append(g.factories, factories...)
	return g
}

// WithRecorder sets the metrics recorder.
func (g *Generator) WithRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	g.recorder = r
	return g
}

// WithEventStore records build lifecycle events to s.
func (g *Generator) WithEventStore(s eventstore.Store) *Generator {
	g.store = s
	return g
}

// WithLastmodResolver replaces the last-modified resolution strategy.
func (g *Generator) WithLastmodResolver(r LastmodResolver) *Generator {
	if r != nil {
		g.lastmod = r
	}
	return g
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(l *slog.Logger) *Generator {
	if l != nil {
		g.logger = l
	}
	return g
}

// OutputDir returns the directory the site is promoted to.
func (g *Generator) OutputDir() string { return g.outputDir }

// ContentDir returns the Markdown source directory.
func (g *Generator) ContentDir() string { return g.contentDir }

// WatchDirs returns the source directories a rebuild depends on.
func (g *Generator) WatchDirs() []string {
	return []string{g.contentDir, g.dataDir, g.publicDir}
}

type namedHooks struct {
	name  string
	hooks hook.Hooks
}

// buildState is the mutable state of one build.
type buildState struct {
	g        *Generator
	info     hook.BuildInfo
	report   *BuildReport
	hooks    []namedHooks
	stageDir string
	data     *refdata.Data
	pages    []string
	markdown *render.Markdown
	layout   *render.Layout
}

// Build runs one full build. On failure the previous output is left untouched
// and the returned report describes the failed stage.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	start := g.now()
	info := hook.BuildInfo{ID: g.newID(), Started: start}
	bs := &buildState{g: g, info: info, report: newBuildReport(info.ID, start)}
	for _, f := range g.factories {
		bs.hooks = append(bs.hooks, namedHooks{name: f.Name(), hooks: f.NewBuild(info)})
		bs.report.Hooks = append(bs.report.Hooks, f.Name())
	}

	g.logger.Info("Build started",
		logfields.BuildID(info.ID),
		logfields.Path(g.contentDir),
		logfields.Output(g.outputDir))
	g.record(ctx, info.ID)(eventstore.NewBuildStarted(info.ID, eventstore.BuildStartedPayload{
		ContentDir: g.contentDir,
		OutputDir:  g.outputDir,
		Version:    version.Version,
	}))

	err := runStages(ctx, bs, pipeline())
	if err != nil {
		bs.abortStaging()
	}
	bs.report.finish(g.now(), err)
	g.finish(ctx, bs.report, err)
	return bs.report, err
}

func (g *Generator) finish(ctx context.Context, r *BuildReport, err error) {
	g.recorder.ObserveBuildDuration(r.Duration())
	switch r.Outcome {
	case OutcomeSuccess:
		g.recorder.IncBuildOutcome(metrics.BuildOutcomeSuccess)
		g.logger.Info("Build completed",
			logfields.BuildID(r.BuildID),
			logfields.Count(r.Pages),
			logfields.Output(g.outputDir),
			logfields.DurationMS(float64(r.Duration().Microseconds())/1000))
	case OutcomeCanceled:
		g.recorder.IncBuildOutcome(metrics.BuildOutcomeCanceled)
		g.logger.Warn("Build canceled", logfields.BuildID(r.BuildID), logfields.Stage(string(r.FailedStage)))
	default:
		g.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		g.logger.Error("Build failed",
			logfields.BuildID(r.BuildID),
			logfields.Stage(string(r.FailedStage)),
			logfields.Error(err))
	}

	// history must be written even when the build context is gone
	evCtx := context.WithoutCancel(ctx)
	if err == nil {
		g.record(evCtx, r.BuildID)(eventstore.NewBuildCompleted(r.BuildID, r.Duration(), r.Pages))
	} else {
		g.record(evCtx, r.BuildID)(eventstore.NewBuildFailed(r.BuildID, string(r.FailedStage), err))
	}

	if g.cfg.Output.Report {
		dir := filepath.Dir(g.outputDir)
		if perr := r.Persist(dir); perr != nil {
			g.logger.Warn("Failed to persist build report", logfields.Path(dir), logfields.Error(perr))
		}
	}
}

// record returns a sink for an event constructor's results. Event store
// failures are logged and never fail the build.
func (g *Generator) record(ctx context.Context, buildID string) func(*eventstore.BuildEvent, error) {
	return func(ev *eventstore.BuildEvent, err error) {
		if g.store == nil {
			return
		}
		if err == nil {
			err = eventstore.Record(ctx, g.store, ev)
		}
		if err != nil {
			kind := ""
			if ev != nil {
				kind = ev.Type()
			}
			g.logger.Warn("Failed to record build event",
				logfields.BuildID(buildID),
				logfields.Event(kind),
				logfields.Error(err))
		}
	}
}
