package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/refdata"
)

// Shortcodes recognised on a line of their own, e.g. `{{< options >}}`.
const (
	ShortcodeOptions  = "options"
	ShortcodeEvents   = "events"
	ShortcodeCommands = "commands"
)

var shortcodeLine = regexp.MustCompile(`(?m)^[ \t]*\{\{<\s*(options|events|commands)\s*>\}\}[ \t]*\r?$`)

func placeholder(name string) []byte {
	return []byte("<!--docsite:" + name + "-->")
}

// markShortcodes swaps shortcode lines for HTML comments that survive
// Markdown conversion untouched. It returns the shortcodes found.
func markShortcodes(body []byte) ([]byte, []string) {
	var found []string
	out := shortcodeLine.ReplaceAllFunc(body, func(line []byte) []byte {
		name := shortcodeLine.FindSubmatch(line)[1]
		found = append(found, string(name))
		return append(append([]byte("\n"), placeholder(string(name))...), '\n')
	})
	return out, found
}

// expandShortcodes replaces placeholders in rendered HTML with reference tables.
func (m *Markdown) expandShortcodes(rendered []byte, names []string, data *refdata.Data) ([]byte, error) {
	if data == nil {
		data = &refdata.Data{}
	}
	for _, name := range names {
		var buf bytes.Buffer
		var err error
		switch name {
		case ShortcodeOptions:
			err = m.refTemplates().ExecuteTemplate(&buf, "options", data.Options)
		case ShortcodeEvents:
			err = m.refTemplates().ExecuteTemplate(&buf, "events", data.Events)
		case ShortcodeCommands:
			err = m.refTemplates().ExecuteTemplate(&buf, "commands", data.Commands)
		}
		if err != nil {
			return nil, err
		}
		rendered = bytes.ReplaceAll(rendered, placeholder(name), buf.Bytes())
	}
	return rendered, nil
}

// ConvertPage renders a page body, expanding reference shortcodes with data.
func (m *Markdown) ConvertPage(body []byte, data *refdata.Data) ([]byte, error) {
	marked, names := markShortcodes(body)
	out, err := m.Convert(marked)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return out, nil
	}
	return m.expandShortcodes(out, names, data)
}

const refTemplateText = `
{{define "options"}}<div class="refdata refdata-options">
{{range .}}<h3 id="{{slug .Name}}"><code>{{.Name}}</code></h3>
<table>
<tr><th>Default</th><td><code>{{.Default}}</code></td></tr>
<tr><th>Value</th><td>{{inline .Value}}</td></tr>
</table>
{{markdown .Summary}}
{{end}}</div>
{{end}}
{{define "fields"}}{{if .}}<table>
<thead><tr><th>Field</th><th>Description</th></tr></thead>
<tbody>
{{range .}}<tr><td><code>{{.Name}}</code></td><td>{{inline .Description}}</td></tr>
{{end}}</tbody>
</table>
{{end}}{{end}}
{{define "events"}}<div class="refdata refdata-events">
{{range .}}<h3 id="{{slug .Name}}"><code>{{.Name}}</code></h3>
{{markdown .Summary}}
{{template "fields" .Fields}}{{if .Options}}<table>
<thead><tr><th>Field</th><th>Values</th></tr></thead>
<tbody>
{{range .Options}}<tr><td><code>{{.Field}}</code></td><td>{{range $i, $v := .Values}}{{if $i}}, {{end}}<code>{{$v}}</code>{{end}}</td></tr>
{{end}}</tbody>
</table>
{{end}}{{end}}</div>
{{end}}
{{define "commands"}}<div class="refdata refdata-commands">
{{range .}}<h3 id="{{slug .Cmd}}"><code>{{.Cmd}}</code></h3>
{{if .Args}}<pre><code>{{.Cmd}} {{.Args}}</code></pre>
{{end}}{{markdown .Summary}}
{{template "fields" .Fields}}{{end}}</div>
{{end}}
`

func (m *Markdown) refTemplates() *template.Template {
	m.refOnce.Do(func() {
		m.refTmpl = template.Must(template.New("refdata").Funcs(template.FuncMap{
			"slug":     Slug,
			"markdown": m.markdownHTML,
			"inline":   m.inlineHTML,
		}).Parse(refTemplateText))
	})
	return m.refTmpl
}

// markdownHTML renders trusted site data as block HTML.
func (m *Markdown) markdownHTML(s string) (template.HTML, error) {
	out, err := m.Convert([]byte(strings.TrimSpace(s)))
	if err != nil {
		return "", err
	}
	// #nosec G203 -- reference data is part of the site sources
	return template.HTML(out), nil
}

// inlineHTML renders a one-line Markdown snippet without the paragraph wrapper.
func (m *Markdown) inlineHTML(s string) (template.HTML, error) {
	out, err := m.markdownHTML(s)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(string(out))
	if strings.HasPrefix(trimmed, "<p>") && strings.HasSuffix(trimmed, "</p>") && strings.Count(trimmed, "<p>") == 1 {
		trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "<p>"), "</p>")
	}
	// #nosec G203 -- reference data is part of the site sources
	return template.HTML(trimmed), nil
}
