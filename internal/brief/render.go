// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package brief

import (
	htmltemplate "html/template"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/pdiddy/intel-engine/pkg/types"
)

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"label": func(c types.Category) string { return c.Label() },
	"stamp": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 UTC") },
	"hours": func(d time.Duration) int { return int(d / time.Hour) },
	"alert": AlertLabel,
}

var textTmpl = template.Must(template.New("brief").Funcs(funcs).Parse(`INTEL {{.Title}}: {{upper .Target}}
Window:    last {{hours .Window}}h (since {{stamp .Since}})
Generated: {{stamp .Now}}
Items: {{.Stats.Items}} | Critical: {{.Stats.Critical}} | Mean score: {{printf "%.1f" .Stats.MeanScore}}/100
Alert level {{.Stats.AlertLevel}}: {{alert .Stats.AlertLevel}}
{{range .Groups}}
=== {{label .Category}} ({{.Total}} items) ===
{{- if .Lines}}{{range .Lines}}
{{.}}{{end}}{{else}}
No Data{{end}}
{{end}}{{if .Narrative}}
--- ASSESSMENT ---
{{.Narrative}}
{{end}}`))

var htmlTmpl = htmltemplate.Must(htmltemplate.New("report").Funcs(htmltemplate.FuncMap(funcs)).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Intel {{.Title}}: {{.Target}}</title>
<style>
body { font-family: 'Courier New', monospace; background: #0a0a0f; color: #e0e0e0; padding: 40px; }
.header { color: #dc2626; border-bottom: 2px solid #dc2626; padding-bottom: 20px; }
.stats { background: #1a1a24; padding: 15px; border-radius: 8px; margin: 20px 0; }
.content { white-space: pre-wrap; line-height: 1.6; }
h3 { color: #f59e0b; }
</style>
</head>
<body>
<div class="header">
<h1>INTELLIGENCE {{upper .Title}}</h1>
<h2>TARGET: {{upper .Target}}</h2>
<p>Generated: {{stamp .Now}} | Window: last {{hours .Window}}h</p>
</div>
<div class="stats">
<strong>Statistics:</strong> {{.Stats.Items}} items analyzed | {{.Stats.Critical}} critical | Avg Score: {{printf "%.1f" .Stats.MeanScore}}/100 | Alert level {{.Stats.AlertLevel}} ({{alert .Stats.AlertLevel}})
</div>
{{if .Narrative}}<div class="content">{{.Narrative}}</div>{{end}}
{{range .Groups}}{{if .Lines}}<h3>{{label .Category}} ({{.Total}} items)</h3>
<ul>
{{range .Lines}}<li>{{.}}</li>
{{end}}</ul>
{{end}}{{end}}</body>
</html>
`))

type view struct {
	Brief
	Title     string
	Narrative string
}

func newView(b Brief, title, narrative string) view {
	if title == "" {
		title = "BRIEF"
	}
	if b.Target == "" {
		b.Target = "global"
	}
	return view{Brief: b, Title: title, Narrative: strings.TrimSpace(narrative)}
}

// Render writes the brief header, statistics, category groups and the
// optional narrative as plain text. Title names the product ("BRIEF",
// "ASSESSMENT").
func Render(w io.Writer, b Brief, title, narrative string) error {
	return textTmpl.Execute(w, newView(b, title, narrative))
}

// RenderHTML writes a standalone HTML page for the brief. All record text
// is escaped.
func RenderHTML(w io.Writer, b Brief, title, narrative string) error {
	return htmlTmpl.Execute(w, newView(b, title, narrative))
}
