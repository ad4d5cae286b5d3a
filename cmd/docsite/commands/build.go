package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output   string `short:"o" help:"Output directory (overrides output.directory)"`
	Hostname string `help:"Absolute site URL used in the sitemap (overrides sitemap.hostname and DOCSITE_HOSTNAME)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Hostname != "" {
		cfg.Sitemap.Hostname = b.Hostname
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	_, err = RunBuild(ctx, cfg, b.Output, os.Stdout, g.logger())
	return err
}

// RunBuild performs one build and prints its summary to out. An empty
// outputDir uses the configured output directory.
func RunBuild(ctx context.Context, cfg *config.Config, outputDir string, out io.Writer, logger *slog.Logger) (*site.BuildReport, error) {
	st, err := newBuildStack(cfg, outputDir, logger)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	report, err := st.generator.Build(ctx)
	st.flushMetrics(cfg, logger)
	if report != nil {
		_, _ = fmt.Fprintln(out, report.Summary())
	}
	return report, err
}
