package resolver

import (
	"github.com/ethpandaops/shiftgraph/pkg/rendering"
)

// Report summarizes a validated resolution per scope
type Report struct {
	Era      string
	Sample   string
	Scopes   []ScopeReport
	Warnings []string
}

// ScopeReport summarizes the variants of one scope
type ScopeReport struct {
	Name       string
	Variants   int
	Executions int
	Entries    []ReportEntry
}

// ReportEntry describes one variant
type ReportEntry struct {
	Shift       string
	AliasOf     string
	Excluded    bool
	Steps       int
	ExecutionID string
}

// Report returns the summary of the last passing Validate
func (r *Resolution) Report() (*Report, error) {
	plan, err := r.Expand()
	if err != nil {
		return nil, err
	}

	report := &Report{Era: plan.Era, Sample: plan.Sample}

	for _, scope := range r.scopes {
		sr := ScopeReport{Name: scope}

		for _, v := range plan.Variants {
			if v.Scope != scope {
				continue
			}

			sr.Variants++
			if v.AliasOf == "" {
				sr.Executions++
			}

			sr.Entries = append(sr.Entries, ReportEntry{
				Shift:       v.Shift,
				AliasOf:     v.AliasOf,
				Excluded:    v.Excluded,
				Steps:       len(v.Steps),
				ExecutionID: v.ExecutionID,
			})
		}

		report.Scopes = append(report.Scopes, sr)
	}

	for _, w := range r.Warnings() {
		report.Warnings = append(report.Warnings, w.Error())
	}

	return report, nil
}

// Render renders the report with the given text/template, or the default report when
// content is empty
func (rep *Report) Render(content string) (string, error) {
	if content == "" {
		content = rendering.ReportTemplate
	}

	return rendering.NewTemplateEngine().Render(content, rep)
}
