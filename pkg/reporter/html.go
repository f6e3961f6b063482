package reporter

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/acarl005/stripansi"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/labreport/pkg/coverage"
	"github.com/dkoosis/labreport/pkg/notebook"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var legendRanges = map[coverage.Severity]string{
	coverage.Terrible: "below 25%",
	coverage.Low:      "25% to 50%",
	coverage.Medium:   "50% to 75%",
	coverage.High:     "75% and above",
}

type htmlView struct {
	Title          string
	HasCoverage    bool
	Severity       string
	Percent        string
	CoverageGlobal string
	Stats          notebook.Stats
	Duration       int64
	Files          []htmlFile
	Failures       []htmlFailure
	Legend         []htmlLegend
}

type htmlFile struct {
	Filename string
	Severity string
	Percent  string
}

type htmlFailure struct {
	ID      int
	Title   string
	Message string
}

type htmlLegend struct {
	Class string
	Label string
	Range string
}

// HTMLReporter renders an annotated coverage document at the end of the run.
type HTMLReporter struct {
	tmpl           *template.Template
	coverageGlobal string
	seen           []notebook.TestResult
}

// NewHTML returns an HTML reporter. It fails only if the embedded template
// does not parse.
func NewHTML(opts Options) (*HTMLReporter, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/coverage.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing coverage template: %w", err)
	}
	return &HTMLReporter{tmpl: tmpl, coverageGlobal: opts.CoverageGlobal}, nil
}

func (h *HTMLReporter) Incremental() bool { return false }

func (h *HTMLReporter) Start(context.Context, int) error { return nil }

func (h *HTMLReporter) Test(_ context.Context, r notebook.TestResult) error {
	h.seen = append(h.seen, r)
	return nil
}

// End renders the document. A notebook carrying only coverage is enough.
func (h *HTMLReporter) End(_ context.Context, nb *notebook.Notebook) (string, error) {
	if nb.Coverage != nil {
		if err := nb.Coverage.Validate(); err != nil {
			return "", &FormattingError{Reporter: HTML, Err: err}
		}
	}

	view := htmlView{
		Title:          "Test Report",
		CoverageGlobal: h.coverageGlobal,
		Duration:       nb.Duration.Milliseconds(),
	}
	for _, r := range numbered(nb, h.seen) {
		view.Stats.Count(r)
		if r.Failed() {
			msg := r.Outcome.Message()
			if r.Outcome.Kind() == notebook.FailedWithoutMessage {
				msg = "(failed without an error message)"
			}
			view.Failures = append(view.Failures, htmlFailure{
				ID:      r.ID,
				Title:   r.FullTitle(),
				Message: stripansi.Strip(msg),
			})
		}
	}

	if c := nb.Coverage; c != nil {
		view.Title = "Coverage Report"
		view.HasCoverage = true
		view.Severity = coverage.Classify(c.Percent).String()
		view.Percent = coverage.Display(c.Percent)
		for _, f := range c.Files {
			view.Files = append(view.Files, htmlFile{
				Filename: f.Filename,
				Severity: coverage.Classify(f.Percent).String(),
				Percent:  coverage.Display(f.Percent),
			})
		}
		caser := cases.Title(language.English)
		for _, s := range coverage.Severities() {
			view.Legend = append(view.Legend, htmlLegend{
				Class: s.String(),
				Label: caser.String(s.String()),
				Range: legendRanges[s],
			})
		}
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("executing coverage template: %w", err)
	}
	return buf.String(), nil
}
