package render

import (
	_ "embed"
	"html/template"
	"io"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
)

// StylesheetPath is where the built-in stylesheet is published, relative to
// the output root.
const StylesheetPath = "assets/docsite.css"

//go:embed assets/layout.html
var layoutHTML string

//go:embed assets/docsite.css
var stylesheet []byte

// Stylesheet returns the built-in stylesheet.
func Stylesheet() []byte { return stylesheet }

// Page is the per-page input to the layout.
type Page struct {
	// URL is the page's canonical relative URL ("" for the site root).
	URL         string
	Title       string
	Description string
	Content     template.HTML
	Outline     []Heading
	LastUpdated *time.Time
	Home        bool
}

type linkView struct {
	Text   string
	Href   string
	Active bool
}

type groupView struct {
	Text  string
	Items []linkView
}

type socialView struct {
	Icon string
	Href string
}

type siteView struct {
	Title          string
	Description    string
	Lang           string
	Base           string
	SearchProvider string
}

type layoutView struct {
	Site        siteView
	Title       string
	Description string
	Stylesheet  string
	Nav         []linkView
	Sidebar     []groupView
	Social      []socialView
	Page        Page
}

// Layout wraps rendered page content in the site chrome.
type Layout struct {
	tmpl   *template.Template
	cfg    *config.Config
	linker Linker
}

// NewLayout parses the built-in layout for cfg.
func NewLayout(cfg *config.Config) (*Layout, error) {
	tmpl, err := template.New("layout").Funcs(template.FuncMap{
		"date":    func(t time.Time) string { return t.UTC().Format("January 2, 2006") },
		"rfc3339": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
	}).Parse(layoutHTML)
	if err != nil {
		return nil, err
	}
	return &Layout{
		tmpl:   tmpl,
		cfg:    cfg,
		linker: Linker{Base: cfg.Site.Base, PageExtension: cfg.Sitemap.PageExtension},
	}, nil
}

// Render writes the complete HTML document for p.
func (l *Layout) Render(w io.Writer, p Page) error {
	return l.tmpl.Execute(w, l.view(p))
}

func (l *Layout) view(p Page) layoutView {
	site := l.cfg.Site
	v := layoutView{
		Site: siteView{
			Title:          site.Title,
			Description:    site.Description,
			Lang:           site.Lang,
			Base:           l.linker.base(),
			SearchProvider: l.cfg.Theme.Search.Provider,
		},
		Title:       site.Title,
		Description: site.Description,
		Stylesheet:  l.linker.base() + StylesheetPath,
		Page:        p,
	}
	if p.Title != "" && p.Title != site.Title {
		v.Title = p.Title + " | " + site.Title
	}
	if p.Description != "" {
		v.Description = p.Description
	}

	current := l.route(p.URL)
	for _, n := range l.cfg.Theme.Nav {
		v.Nav = append(v.Nav, l.link(n, current))
	}
	for _, g := range l.cfg.Theme.Sidebar {
		group := groupView{Text: g.Text}
		for _, it := range g.Items {
			group.Items = append(group.Items, l.link(it, current))
		}
		v.Sidebar = append(v.Sidebar, group)
	}
	for _, s := range l.cfg.Theme.SocialLinks {
		v.Social = append(v.Social, socialView{Icon: s.Icon, Href: s.Link})
	}
	return v
}

func (l *Layout) link(n config.NavLink, current string) linkView {
	return linkView{
		Text:   n.Text,
		Href:   l.linker.Resolve(n.Link),
		Active: isInternal(n.Link) && l.route(n.Link) == current,
	}
}

func isInternal(link string) bool {
	return !strings.Contains(link, "://") && !strings.HasPrefix(link, "//")
}

// route reduces a page URL or nav link to a comparable form.
func (l *Layout) route(s string) string {
	s = strings.TrimPrefix(s, "/")
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if ext := l.linker.PageExtension; ext != "" {
		s = strings.TrimSuffix(s, ext)
	}
	s = strings.TrimSuffix(s, ".md")
	s = strings.TrimSuffix(s, "index")
	return strings.TrimSuffix(s, "/")
}
