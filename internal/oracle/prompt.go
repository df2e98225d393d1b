// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package oracle

import (
	"bytes"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"join":  strings.Join,
}

var classifyPromptTmpl = template.Must(template.New("classify").Funcs(funcs).Parse(`Analyze the text below and return ONLY a JSON object with these keys:
- summary: one or two factual sentences
- country: the country or region the text is about ("Unknown" if none)
- threat_level: one of LOW, ELEVATED, HIGH, CRITICAL
- threat_score: integer from 0 to 100
- confidence: number from 0.0 to 1.0

No markdown and no explanation outside the JSON object.

TEXT: {{.Text}}
`))

var briefPromptTmpl = template.Must(template.New("brief").Funcs(funcs).Parse(`You are an automated intelligence fusion engine. Synthesize the data below into a strictly factual intelligence briefing on {{upper .Target}}.

FORMAT:
1. Open directly with an Executive Summary.
2. One bullet list per collection domain that has data.
3. Close with a Threat Assessment section. Current alert level: {{.AlertLevel}} (1 is most severe).

DO NOT:
- invent facts that are not in the data
- include next steps, recommendations or action items
- include signatures, sign-offs or placeholders
- use conversational filler

Keep the tone cold, objective and analytical.

INTELLIGENCE DATA:
{{.Context}}`))

var reportPromptTmpl = template.Must(template.New("report").Funcs(funcs).Parse(`You are an automated multi-domain intelligence fusion engine.

TARGET: {{upper .Target}}
COLLECTION TIMESTAMP: {{.Timestamp}}
TOTAL ITEMS ANALYZED: {{.ItemCount}}
CRITICAL INDICATORS: {{.CriticalCount}}
AGGREGATE THREAT SCORE: {{printf "%.1f" .MeanScore}}/100
ALERT LEVEL: {{.AlertLevel}} (1 is most severe)

Write an intelligence assessment with these numbered sections:

1. EXECUTIVE SUMMARY: two or three sentences on the current threat picture.
2. THREAT MATRIX: a table of domain, activity level and confidence for OSINT, SOCMINT, GEOINT, SIGNALS, CYBINT, ADSINT and MARITINT.
3. KEY INTELLIGENCE: findings per domain.
4. THREAT ACTORS AND TTPs: identified or suspected hostile actors and the tactics observed.
5. INDICATORS OF COMPROMISE: CVEs, malware names, hashes or addresses named in the data.
6. ASSESSMENT: overall threat level (LOW, ELEVATED, HIGH, CRITICAL), trend (INCREASING, STABLE, DECREASING) and confidence (LOW, MEDIUM, HIGH).
7. INTELLIGENCE GAPS: what is missing or uncertain.

CONSTRAINTS:
- Use only the data provided and cite it. Do not fabricate.
- A domain with no data is reported as "NO COLLECTION".{{if .EmptyDomains}} Domains with no data in this run: {{join .EmptyDomains ", "}}.{{end}}
- Do not include recommendations or action items.
- Keep the SOURCE of an item separate from its SUBJECT. Reporters, news outlets and social media accounts are sources, not threat actors, TTPs or indicators.
- Stay on the target and the collected data.

INTELLIGENCE DATA:
{{.Context}}`))

var assessPromptTmpl = template.Must(template.New("assess").Funcs(funcs).Parse(`Analyze this intelligence target: "{{.Topic}}"

Return ONLY a JSON object with:
- "type": one of "country", "region", "actor", "threat", "event"
- "keywords": three to five search terms for collection
- "domains": relevant collection domains from ["OSINT", "SOCMINT", "GEOINT", "SIGNALS", "CYBINT", "ADSINT", "MARITINT"]
- "related_countries": countries that may be relevant

Example for "Ukraine conflict":
{"type": "event", "keywords": ["Ukraine", "Russia", "Donbas", "military"], "domains": ["OSINT", "SOCMINT", "GEOINT"], "related_countries": ["Ukraine", "Russia", "Belarus"]}
`))

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type synthesisView struct {
	Synthesis
	Context      string
	EmptyDomains []string
}

func renderSynthesis(s Synthesis) (string, error) {
	view := synthesisView{
		Synthesis:    s,
		Context:      s.Context(),
		EmptyDomains: s.EmptyDomains(),
	}
	if s.Kind == KindReport {
		return render(reportPromptTmpl, view)
	}
	return render(briefPromptTmpl, view)
}
