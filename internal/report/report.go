// Package report renders computed DORA metrics as JSON, CSV or HTML.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/opsmetrics/doratracker/internal/dora"
)

// Report is one rendered snapshot of the four metrics together with
// their performance classifications
type Report struct {
	Metrics         dora.Result         `json:"metrics"`
	Classifications dora.Classification `json:"classifications"`
	GeneratedAt     time.Time           `json:"generated_at"`
	PeriodDays      int                 `json:"period_days"`
	Source          string              `json:"source"`
}

// New builds a report for an already-computed result
func New(metrics dora.Result, source string, periodDays int) Report {
	return Report{
		Metrics:         metrics,
		Classifications: dora.Classify(metrics),
		GeneratedAt:     time.Now().UTC(),
		PeriodDays:      periodDays,
		Source:          source,
	}
}

// Generate renders the report in the given format: json, csv or html
func Generate(r Report, format string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		return generateJSON(r)
	case "csv":
		return generateCSV(r)
	case "html":
		return generateHTML(r)
	default:
		return "", fmt.Errorf("unsupported report format %q (expected json, csv or html)", format)
	}
}

// Filename returns a timestamped filename for the report
func Filename(r Report, format string) string {
	return fmt.Sprintf("dora_report_%s.%s", r.GeneratedAt.Format("20060102_150405"), strings.ToLower(format))
}

func generateJSON(r Report) (string, error) {
	wrapper := map[string]any{
		"report_metadata": map[string]any{
			"generated_at": r.GeneratedAt.Format(time.RFC3339),
			"period_days":  r.PeriodDays,
			"source":       r.Source,
		},
		"metrics":         r.Metrics,
		"classifications": r.Classifications,
	}

	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

func generateCSV(r Report) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	generated := r.GeneratedAt.Format(time.RFC3339)
	rows := [][]string{
		{"Metric", "Value", "Unit", "Classification", "Generated At"},
		{"Deployment Frequency", fmt.Sprintf("%.4f", r.Metrics.DeploymentFrequency), "deployments/day", string(r.Classifications.DeploymentFrequency), generated},
		{"Lead Time for Changes", fmt.Sprintf("%.2f", r.Metrics.LeadTimeForChanges), "hours", string(r.Classifications.LeadTimeForChanges), generated},
		{"Change Failure Rate", fmt.Sprintf("%.2f", r.Metrics.ChangeFailureRate), "percent", string(r.Classifications.ChangeFailureRate), generated},
		{"Time to Restore Service", fmt.Sprintf("%.2f", r.Metrics.TimeToRestoreService), "hours", string(r.Classifications.TimeToRestoreService), generated},
	}

	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}

	return buf.String(), nil
}

type htmlMetric struct {
	Name  string
	Value string
	Unit  string
	Tier  dora.Tier
	Badge string
}

type htmlData struct {
	GeneratedAt string
	PeriodDays  int
	Source      string
	Metrics     []htmlMetric
}

func generateHTML(r Report) (string, error) {
	data := htmlData{
		GeneratedAt: r.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		PeriodDays:  r.PeriodDays,
		Source:      r.Source,
		Metrics: []htmlMetric{
			{"Deployment Frequency", fmt.Sprintf("%.2f", r.Metrics.DeploymentFrequency), "deployments/day", r.Classifications.DeploymentFrequency, badgeClass(r.Classifications.DeploymentFrequency)},
			{"Lead Time for Changes", fmt.Sprintf("%.1f", r.Metrics.LeadTimeForChanges), "hours", r.Classifications.LeadTimeForChanges, badgeClass(r.Classifications.LeadTimeForChanges)},
			{"Change Failure Rate", fmt.Sprintf("%.1f", r.Metrics.ChangeFailureRate), "%", r.Classifications.ChangeFailureRate, badgeClass(r.Classifications.ChangeFailureRate)},
			{"Time to Restore Service", fmt.Sprintf("%.1f", r.Metrics.TimeToRestoreService), "hours", r.Classifications.TimeToRestoreService, badgeClass(r.Classifications.TimeToRestoreService)},
		},
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.String(), nil
}

func badgeClass(t dora.Tier) string {
	return strings.ToLower(string(t))
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>DORA Metrics Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem; color: #1f2328; }
h1 { margin-bottom: 0.25rem; }
.meta { color: #57606a; margin-bottom: 2rem; }
.cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 1rem; }
.card { border: 1px solid #d0d7de; border-radius: 8px; padding: 1.25rem; }
.card h2 { font-size: 0.9rem; text-transform: uppercase; color: #57606a; margin: 0 0 0.5rem; }
.value { font-size: 2rem; font-weight: 600; }
.unit { color: #57606a; font-size: 0.9rem; margin-left: 0.25rem; }
.badge { display: inline-block; margin-top: 0.75rem; padding: 0.2rem 0.6rem; border-radius: 999px; font-size: 0.8rem; font-weight: 600; }
.badge.elite { background: #dafbe1; color: #116329; }
.badge.high { background: #ddf4ff; color: #0969da; }
.badge.medium { background: #fff8c5; color: #9a6700; }
.badge.low { background: #ffebe9; color: #cf222e; }
</style>
</head>
<body>
<h1>DORA Metrics Report</h1>
<p class="meta">Generated {{.GeneratedAt}} &middot; last {{.PeriodDays}} days &middot; source: {{.Source}}</p>
<div class="cards">
{{range .Metrics}}<div class="card">
<h2>{{.Name}}</h2>
<span class="value">{{.Value}}</span><span class="unit">{{.Unit}}</span>
<div><span class="badge {{.Badge}}">{{.Tier}}</span></div>
</div>
{{end}}</div>
</body>
</html>
`))
