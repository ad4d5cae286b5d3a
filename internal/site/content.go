package site

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/eventstore"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/hook"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/refdata"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/sitemap"
)

// NotFoundSource is the optional content file rendered as the not-found page.
const NotFoundSource = "404.md"

const notFoundBody = "# Page not found\n\nThe page you are looking for does not exist.\n\n[Take me home](/)\n"

func stageLoadData(_ context.Context, bs *buildState) error {
	data, err := refdata.Load(bs.g.dataDir)
	if err != nil {
		return err
	}
	bs.data = data

	cfg := bs.g.cfg
	bs.markdown = render.NewMarkdown(render.Linker{Base: cfg.Site.Base, PageExtension: cfg.Sitemap.PageExtension})
	layout, err := render.NewLayout(cfg)
	if err != nil {
		return errors.InternalError("failed to parse page layout").WithCause(err).Build()
	}
	bs.layout = layout
	return nil
}

// stageDiscoverContent collects the pages to render. The not-found source is
// rendered by its own stage.
func stageDiscoverContent(ctx context.Context, bs *buildState) error {
	sources, err := bs.g.Sources(ctx)
	if err != nil {
		return err
	}
	pages := sources[:0]
	for _, rel := range sources {
		if rel != NotFoundSource {
			pages = append(pages, rel)
		}
	}
	bs.pages = pages
	bs.g.logger.Debug("Discovered pages", logfields.BuildID(bs.info.ID), logfields.Count(len(pages)))
	return nil
}

// Sources lists the Markdown files of the content directory as slash-separated
// relative paths in lexical order. Hidden directories, node_modules and the
// data, public and output trees are skipped.
func (g *Generator) Sources(ctx context.Context) ([]string, error) {
	root := g.contentDir
	if err := g.checkContentDir(); err != nil {
		return nil, err
	}

	skip := map[string]bool{
		filepath.Clean(g.dataDir):             true,
		filepath.Clean(g.publicDir):           true,
		filepath.Clean(g.outputDir):           true,
		filepath.Clean(g.outputDir + "_stage"): true,
		filepath.Clean(g.outputDir + ".prev"):  true,
	}

	var sources []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules" || skip[filepath.Clean(p)]) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != ".md" {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.FileSystemError("failed to scan content directory").
			WithCause(err).
			WithContext("path", root).
			Build()
	}
	sort.Strings(sources)
	return sources, nil
}

func (g *Generator) checkContentDir() error {
	info, err := os.Stat(g.contentDir)
	if err != nil || !info.IsDir() {
		return errors.NotFoundError("content directory not found").
			WithCause(err).
			WithContext("path", g.contentDir).
			Build()
	}
	return nil
}

// OutputPath maps a content path to its file in the output tree:
// "a/index.md" -> "a/index.html", "a/b.md" -> "a/b.html".
func OutputPath(rel string) string {
	return strings.TrimSuffix(rel, ".md") + ".html"
}

func stageRenderPages(ctx context.Context, bs *buildState) error {
	for _, rel := range bs.pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		// #nosec G304 -- rel was discovered under the content directory
		src, err := os.ReadFile(filepath.Join(bs.g.contentDir, filepath.FromSlash(rel)))
		if err != nil {
			return errors.FileSystemError("failed to read page").
				WithCause(err).
				WithContext("page", rel).
				Build()
		}
		if err := bs.renderPage(ctx, rel, src); err != nil {
			return err
		}
	}
	bs.report.Pages = len(bs.pages)
	bs.g.recorder.AddPagesRendered(len(bs.pages))
	bs.g.record(ctx, bs.info.ID)(eventstore.NewPagesRendered(bs.info.ID, len(bs.pages)))
	return nil
}

// stageRenderNotFound renders 404.html from 404.md or a built-in page. It is
// passed through the hooks like any other page.
func stageRenderNotFound(ctx context.Context, bs *buildState) error {
	// #nosec G304 -- fixed name inside the content directory
	src, err := os.ReadFile(filepath.Join(bs.g.contentDir, NotFoundSource))
	if os.IsNotExist(err) {
		src, err = []byte(notFoundBody), nil
	}
	if err != nil {
		return errors.FileSystemError("failed to read not-found page").
			WithCause(err).
			WithContext("page", NotFoundSource).
			Build()
	}
	return bs.renderPage(ctx, NotFoundSource, src)
}

// renderPage converts one source page, writes it to the staging tree and
// notifies every hook.
func (bs *buildState) renderPage(ctx context.Context, rel string, src []byte) error {
	doc, err := frontmatter.Parse(src)
	if err != nil {
		return errors.RenderError("invalid frontmatter").WithCause(err).WithContext("page", rel).Build()
	}
	meta, err := frontmatter.ParseMeta(doc.Fields)
	if err != nil {
		return errors.RenderError("invalid frontmatter").WithCause(err).WithContext("page", rel).Build()
	}

	body, err := bs.markdown.ConvertPage(doc.Body, bs.data)
	if err != nil {
		return errors.RenderError("failed to render markdown").WithCause(err).WithContext("page", rel).Build()
	}

	minLevel, maxLevel := bs.g.cfg.OutlineLevels()
	if meta.Outline != "" {
		minLevel, maxLevel = config.ParseOutline(meta.Outline)
	}
	title := pageTitle(meta, body, rel)
	lastmod := bs.g.lastmod.Lastmod(ctx, rel, meta)
	outRel := OutputPath(rel)

	var buf bytes.Buffer
	// #nosec G203 -- page HTML is produced from site sources
	content := template.HTML(body)
	err = bs.layout.Render(&buf, render.Page{
		URL:         sitemap.PageURL(rel, bs.g.cfg.Sitemap.PageExtension),
		Title:       title,
		Description: meta.Description,
		Content:     content,
		Outline:     render.Outline(body, minLevel, maxLevel),
		LastUpdated: lastmodIfEnabled(bs.g.cfg, lastmod),
		Home:        meta.Layout == "home",
	})
	if err != nil {
		return errors.RenderError("failed to execute layout").WithCause(err).WithContext("page", rel).Build()
	}
	if err := writeStaged(bs.stagePath(outRel), buf.Bytes()); err != nil {
		return err
	}

	page := hook.PageContext{RelativePath: rel, Title: title, LastUpdated: lastmod}
	for _, h := range bs.hooks {
		h.hooks.TransformPage(outRel, page)
	}
	bs.g.logger.Debug("Rendered page", logfields.Page(rel), logfields.Output(outRel))
	return nil
}

func lastmodIfEnabled(cfg *config.Config, t *time.Time) *time.Time {
	if !cfg.Site.LastUpdated {
		return nil
	}
	return t
}

// pageTitle prefers the frontmatter title, then the first h1, then the file name.
func pageTitle(meta frontmatter.Meta, body []byte, rel string) string {
	if meta.Title != "" {
		return meta.Title
	}
	if h := render.Outline(body, 1, 1); len(h) > 0 && h[0].Text != "" {
		return h[0].Text
	}
	base := strings.TrimSuffix(path.Base(rel), ".md")
	if base == "index" {
		if dir := path.Dir(rel); dir != "." {
			return path.Base(dir)
		}
		return ""
	}
	return base
}

// stageBuildEnd runs every hook's BuildEnd against the staging directory,
// stopping at the first failure.
func stageBuildEnd(ctx context.Context, bs *buildState) error {
	for _, h := range bs.hooks {
		if err := h.hooks.BuildEnd(ctx, bs.stageDir); err != nil {
			if errors.IsClassified(err) {
				return err
			}
			return errors.BuildError("build hook failed").
				WithCause(err).
				WithContext("hook", h.name).
				Build()
		}
	}
	return nil
}
