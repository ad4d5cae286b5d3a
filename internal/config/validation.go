package config

import (
	"fmt"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Validate checks structural consistency. The sitemap hostname is deliberately
// not required here; the sitemap hook reports it when a build ends.
func (c *Config) Validate() error {
	for i, n := range c.Theme.Nav {
		if strings.TrimSpace(n.Text) == "" || strings.TrimSpace(n.Link) == "" {
			return invalid(fmt.Sprintf("theme.nav[%d]", i), "nav entries need text and link")
		}
	}
	for gi, g := range c.Theme.Sidebar {
		if len(g.Items) == 0 {
			return invalid(fmt.Sprintf("theme.sidebar[%d]", gi), "sidebar group has no items")
		}
		for ii, it := range g.Items {
			if strings.TrimSpace(it.Text) == "" || strings.TrimSpace(it.Link) == "" {
				return invalid(fmt.Sprintf("theme.sidebar[%d].items[%d]", gi, ii), "sidebar items need text and link")
			}
		}
	}
	if o := c.Theme.Outline; o != "deep" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 1 || n > 6 {
			return invalid("theme.outline", `outline must be "deep" or a heading level between 1 and 6`)
		}
	}
	if strings.Contains(c.Sitemap.NotFoundPage, "/") {
		return invalid("sitemap.not_found_page", "not-found page is a file name, not a path")
	}
	if c.Output.Directory == c.Content.Dir {
		return invalid("output.directory", "output directory must differ from the content directory")
	}
	return nil
}

func invalid(field, msg string) error {
	return errors.ValidationError(msg).WithContext("field", field).Build()
}
