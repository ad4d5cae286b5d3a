package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// HistoryCmd lists recent builds recorded in the history database.
type HistoryCmd struct {
	Limit int `short:"n" name:"limit" default:"10" help:"Maximum number of builds to show."`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if cfg.History.Database == "" {
		return errors.ConfigError("history.database is not configured").UserAction().Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.Path(cfg.History.Database))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return PrintHistory(context.Background(), store, h.Limit, os.Stdout)
}

// PrintHistory writes a table of the newest builds in s.
func PrintHistory(ctx context.Context, s eventstore.Store, limit int, out io.Writer) error {
	builds, err := eventstore.History(ctx, s, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTATUS\tSTARTED\tPAGES\tSITEMAP\tERROR")
	for _, b := range builds {
		errText := "-"
		if b.ErrorMessage != "" {
			errText = b.ErrorStage + ": " + b.ErrorMessage
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			b.BuildID, b.Status, b.StartedAt.UTC().Format(time.RFC3339), b.Pages, b.SitemapEntries, errText)
	}
	return tw.Flush()
}
