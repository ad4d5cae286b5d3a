package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/sitemap"
)

// SitemapCmd prints the entries of a generated sitemap.
type SitemapCmd struct {
	File string `arg:"" type:"existingfile" help:"Sitemap file to read."`
}

func (s *SitemapCmd) Run(_ *Global, _ *CLI) error {
	// #nosec G304 -- path supplied by the user on the command line
	f, err := os.Open(s.File)
	if err != nil {
		return errors.FileSystemError("failed to open sitemap").WithCause(err).WithContext("path", s.File).Build()
	}
	defer func() { _ = f.Close() }()
	return PrintSitemap(f, os.Stdout)
}

// PrintSitemap writes one "loc lastmod" line per entry; lastmod is "-" when absent.
func PrintSitemap(r io.Reader, out io.Writer) error {
	entries, err := sitemap.Parse(r)
	if err != nil {
		return errors.ValidationError("invalid sitemap").WithCause(err).Build()
	}
	for _, e := range entries {
		lastmod := "-"
		if e.LastMod != nil {
			lastmod = e.LastMod.UTC().Format(time.RFC3339)
		}
		_, _ = fmt.Fprintf(out, "%s %s\n", e.Loc, lastmod)
	}
	return nil
}
