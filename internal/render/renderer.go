// Package render turns the snapshot series into a self-contained static HTML
// report with an embedded line chart.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	apperrors "github.com/account-tracker/internal/errors"
	"github.com/account-tracker/internal/models"
)

// Renderer produces the published report artifact. Output is reproducible:
// the same series always renders to byte-identical HTML, with no embedded
// wall-clock timestamps.
type Renderer struct {
	title string
	tmpl  *template.Template
}

// NewRenderer creates a renderer with the given page title.
func NewRenderer(title string) *Renderer {
	if title == "" {
		title = "Account Performance"
	}
	return &Renderer{
		title: title,
		tmpl:  template.Must(template.New("report").Parse(reportTemplate)),
	}
}

// Render produces the report for an ordered snapshot series. The headline is
// the chronologically last point. An empty series is ErrNothingToRender.
func (r *Renderer) Render(series []models.Snapshot) ([]byte, error) {
	if len(series) == 0 {
		return nil, apperrors.ErrNothingToRender
	}

	dates := make([]string, len(series))
	values := make([]string, len(series))
	for i, s := range series {
		dates[i] = s.SnapshotDate.Format("2006-01-02")
		values[i] = s.TotalValue.String()
	}

	datesJSON, err := json.Marshal(dates)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dates: %w", err)
	}

	last := series[len(series)-1]

	data := struct {
		Title        string
		CurrentDate  string
		CurrentValue string
		DatesJSON    template.JS
		ValuesJSON   template.JS
	}{
		Title:        r.title,
		CurrentDate:  last.SnapshotDate.Format("2006-01-02"),
		CurrentValue: formatUSD(last.TotalValue.StringFixed(2)),
		DatesJSON:    template.JS(datesJSON),
		ValuesJSON:   template.JS("[" + strings.Join(values, ",") + "]"),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	return buf.Bytes(), nil
}

// formatUSD inserts thousands separators into a fixed-point decimal string.
func formatUSD(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - {{.CurrentDate}}</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1"></script>
    <style>
        body {
            background: linear-gradient(to bottom right, #0f172a, #1e293b);
            color: #e2e8f0;
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            text-align: center;
            padding: 40px;
            margin: 0;
            min-height: 100vh;
        }
        .container {
            max-width: 1000px;
            margin: 0 auto;
            background: rgba(30, 41, 59, 0.8);
            padding: 40px;
            border-radius: 24px;
            box-shadow: 0 20px 40px rgba(0,0,0,0.3);
        }
        h1 {
            font-size: 2.8em;
            margin-bottom: 0.5em;
            background: linear-gradient(to right, #60a5fa, #a78bfa);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
        }
        h2 {
            font-size: 1.6em;
            color: #94a3b8;
            margin: 20px 0 40px;
        }
        canvas {
            background: rgba(51, 65, 85, 0.6);
            border-radius: 16px;
            padding: 20px;
        }
        footer {
            margin-top: 40px;
            color: #64748b;
            font-size: 0.9em;
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <h2>Current Value: ${{.CurrentValue}} USDC <br><small>Updated {{.CurrentDate}}</small></h2>
        <canvas id="chart" height="400"></canvas>
        <footer>Auto-generated daily</footer>
    </div>
    <script>
        const ctx = document.getElementById('chart').getContext('2d');
        new Chart(ctx, {
            type: 'line',
            data: {
                labels: {{.DatesJSON}},
                datasets: [{
                    label: 'Total Account Value (USDC)',
                    data: {{.ValuesJSON}},
                    borderColor: 'rgb(34, 211, 238)',
                    backgroundColor: 'rgba(34, 211, 238, 0.2)',
                    fill: true,
                    tension: 0.4,
                    pointBackgroundColor: 'rgb(34, 211, 238)',
                    pointBorderColor: 'rgb(15, 23, 42)',
                    pointRadius: 5,
                    pointHoverRadius: 8
                }]
            },
            options: {
                responsive: true,
                interaction: { mode: 'index', intersect: false },
                scales: {
                    x: { grid: { color: 'rgba(148, 163, 184, 0.1)' } },
                    y: {
                        beginAtZero: false,
                        grid: { color: 'rgba(148, 163, 184, 0.1)' },
                        ticks: { callback: function(value) { return '$' + value.toLocaleString() } }
                    }
                },
                plugins: {
                    legend: { display: false },
                    tooltip: {
                        callbacks: { label: function(ctx) { return '$' + ctx.raw.toLocaleString(undefined, {minimumFractionDigits: 2}) } }
                    }
                }
            }
        });
    </script>
</body>
</html>
`
