package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docsite"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry       *prom.Registry
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	pagesRendered  prom.Counter
	sitemapPages   *prom.CounterVec
	sitemapWrite   prom.Histogram
	sitemapBytes   prom.Gauge
	sitemapEntries prom.Gauge
}

// NewPrometheusRecorder constructs the build metrics and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pagesRendered: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_rendered_total",
			Help:      "Pages rendered across builds",
		}),
		sitemapPages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Subsystem: "sitemap",
			Name:      "pages_total",
			Help:      "Pages observed by the sitemap hook by decision",
		}, []string{"decision"}),
		sitemapWrite: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sitemap",
			Name:      "write_duration_seconds",
			Help:      "Time from serialization start until sitemap.xml was durable",
			Buckets:   prom.DefBuckets,
		}),
		sitemapBytes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sitemap",
			Name:      "bytes",
			Help:      "Size of the last written sitemap.xml",
		}),
		sitemapEntries: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sitemap",
			Name:      "entries",
			Help:      "Number of <url> entries in the last written sitemap.xml",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.pagesRendered, pr.sitemapPages, pr.sitemapWrite, pr.sitemapBytes, pr.sitemapEntries)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddPagesRendered(n int) {
	p.pagesRendered.Add(float64(n))
}

func (p *PrometheusRecorder) IncSitemapPage(included bool) {
	decision := "skipped"
	if included {
		decision = "included"
	}
	p.sitemapPages.WithLabelValues(decision).Inc()
}

func (p *PrometheusRecorder) ObserveSitemapWrite(d time.Duration, bytes int64, entries int) {
	p.sitemapWrite.Observe(d.Seconds())
	p.sitemapBytes.Set(float64(bytes))
	p.sitemapEntries.Set(float64(entries))
}

// WriteTextfile flushes the registry in the node-exporter textfile format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}
