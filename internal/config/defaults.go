package config

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/sitemap"
)

const (
	DefaultTitle         = "Documentation"
	DefaultLang          = "en-US"
	DefaultBase          = "/"
	DefaultOutline       = "2"
	DefaultContentDir    = "docs"
	DefaultNotFoundPage  = sitemap.DefaultNotFoundPage
	DefaultPageExtension = sitemap.DefaultPageExtension
)

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = DefaultTitle
	}
	if c.Site.Lang == "" {
		c.Site.Lang = DefaultLang
	}
	if c.Site.Base == "" {
		c.Site.Base = DefaultBase
	}
	if !strings.HasPrefix(c.Site.Base, "/") {
		c.Site.Base = "/" + c.Site.Base
	}
	if !strings.HasSuffix(c.Site.Base, "/") {
		c.Site.Base += "/"
	}
	if c.Theme.Outline == "" {
		c.Theme.Outline = DefaultOutline
	}
	if c.Content.Dir == "" {
		c.Content.Dir = DefaultContentDir
	}
	if c.Content.DataDir == "" {
		c.Content.DataDir = path.Join(c.Content.Dir, "data")
	}
	if c.Content.PublicDir == "" {
		c.Content.PublicDir = path.Join(c.Content.Dir, "public")
	}
	if c.Output.Directory == "" {
		c.Output.Directory = path.Join(c.Content.Dir, ".site", "dist")
	}
	if c.Sitemap.NotFoundPage == "" {
		c.Sitemap.NotFoundPage = DefaultNotFoundPage
	}
	if c.Sitemap.PageExtension == "" {
		c.Sitemap.PageExtension = DefaultPageExtension
	}
}
