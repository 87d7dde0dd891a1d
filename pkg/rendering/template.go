package rendering

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// ReportTemplate is the default plan report. It expects the resolver's report data.
const ReportTemplate = `Plan for era {{ .Era }}, sample {{ .Sample }}
{{ repeat 60 "=" }}
{{- range .Scopes }}

scope {{ .Name | upper }}: {{ .Variants }} variants, {{ .Executions }} executions
{{- range .Entries }}
  {{ printf "%-32s" .Shift }} {{ if .AliasOf }}alias of {{ .AliasOf }}{{ else if .Excluded }}excluded, runs nominal{{ else }}{{ .Steps }} steps{{ end }}  [{{ trunc 8 .ExecutionID }}]
{{- end }}
{{- end }}
{{- if .Warnings }}

Warnings:
{{- range .Warnings }}
  - {{ . }}
{{- end }}
{{- end }}
`

// TemplateEngine provides template rendering with Sprig functions
type TemplateEngine struct {
	funcMap template.FuncMap
}

// NewTemplateEngine creates a new template engine with Sprig functions
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		funcMap: sprig.TxtFuncMap(),
	}
}

// Render renders a template with the given data
func (t *TemplateEngine) Render(content string, data any) (string, error) {
	tmpl, err := template.New("report").Funcs(t.funcMap).Option("missingkey=error").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
