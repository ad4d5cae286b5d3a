package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// LastmodCmd refreshes the lastmod frontmatter of changed pages.
type LastmodCmd struct {
	DryRun bool `name:"dry-run" help:"Report pages that would change without writing them."`
}

func (l *LastmodCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	_, err = RunLastmod(context.Background(), cfg, time.Now(), l.DryRun, os.Stdout)
	return err
}

// RunLastmod stamps every content page and prints the ones that changed.
// It returns the number of changed pages.
func RunLastmod(ctx context.Context, cfg *config.Config, now time.Time, dryRun bool, out io.Writer) (int, error) {
	gen := site.NewGenerator(cfg, "")
	sources, err := gen.Sources(ctx)
	if err != nil {
		return 0, err
	}

	verb := "updated"
	if dryRun {
		verb = "would update"
	}
	changed := 0
	for _, rel := range sources {
		path := filepath.Join(gen.ContentDir(), filepath.FromSlash(rel))
		ok, err := frontmatter.StampFile(path, now, dryRun)
		if err != nil {
			return changed, errors.FileSystemError("failed to update lastmod").
				WithCause(err).
				WithContext("path", rel).
				Build()
		}
		if ok {
			changed++
			_, _ = fmt.Fprintf(out, "%s %s\n", verb, rel)
		}
	}
	_, _ = fmt.Fprintf(out, "%d of %d pages changed\n", changed, len(sources))
	return changed, nil
}
