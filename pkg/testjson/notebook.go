package testjson

import (
	"context"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/dkoosis/labreport/pkg/notebook"
	"github.com/dkoosis/labreport/pkg/racedetect"
)

// Synthetic titles for package-level failures that have no test.
const (
	BuildFailedTitle = "[build failed]"
	PanicTitle       = "[panic]"
)

// ToNotebook converts parsed package results into a notebook. Each package
// becomes a group. Packages that reported coverage become coverage files and
// the aggregate is their mean. Goroutines reported by goleak become leaks.
func ToNotebook(results []TestPackageResult) *notebook.Notebook {
	nb := &notebook.Notebook{}
	for _, pkg := range results {
		for _, t := range pkg.AllTests {
			nb.Add(Convert(pkg.Name, t))
		}
		addPackageFailures(nb, pkg)
		nb.Leaks = append(nb.Leaks, pkg.Leaks...)
		if pkg.Duration > nb.Duration {
			nb.Duration = pkg.Duration
		}
	}
	nb.Coverage = coverageOf(results)
	return nb
}

// Convert maps one go test result to a notebook test result.
func Convert(pkg string, t TestResult) notebook.TestResult {
	r := notebook.TestResult{
		Group:    pkg,
		Title:    t.Name,
		Duration: t.Duration,
	}
	switch t.Status {
	case StatusFail:
		r.Outcome = failure(t.Output)
	case StatusSkip:
		r.Skipped = true
	default:
		r.Outcome = notebook.Pass()
	}
	return r
}

// failure builds an outcome from captured test output. The first line that
// is not go test framing is the message; all such lines form the stack.
// A race detector report replaces the message with a summary of the race.
func failure(output []string) notebook.Outcome {
	var lines []string
	for _, line := range output {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "=== ") || strings.HasPrefix(trimmed, "--- ") {
			continue
		}
		lines = append(lines, trimmed)
	}
	if len(lines) == 0 {
		return notebook.FailWithoutMessage()
	}
	if racedetect.Detected(output) {
		if races := racedetect.Parse(output); len(races) > 0 {
			return notebook.FailWith(races[0].Summary(), lines...)
		}
	}
	return notebook.FailWith(lines[0], lines...)
}

func addPackageFailures(nb *notebook.Notebook, pkg TestPackageResult) {
	switch {
	case pkg.BuildError != "":
		nb.Add(notebook.TestResult{
			Group:   pkg.Name,
			Title:   BuildFailedTitle,
			Outcome: notebook.FailWith(firstLine(pkg.BuildError), strings.Split(pkg.BuildError, "\n")...),
		})
	case pkg.Panicked && pkg.Failed == 0:
		nb.Add(notebook.TestResult{
			Group:   pkg.Name,
			Title:   PanicTitle,
			Outcome: notebook.FailWith(firstLine(strings.Join(pkg.PanicOutput, "\n")), pkg.PanicOutput...),
		})
	}
}

func coverageOf(results []TestPackageResult) *notebook.CoverageReport {
	var report *notebook.CoverageReport
	var sum float64
	for _, pkg := range results {
		if !pkg.HasCoverage {
			continue
		}
		if report == nil {
			report = &notebook.CoverageReport{}
		}
		report.Files = append(report.Files, notebook.FileCoverage{Filename: pkg.Name, Percent: pkg.Coverage})
		sum += pkg.Coverage
	}
	if report != nil {
		report.Percent = sum / float64(len(report.Files))
	}
	return report
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// Collector translates events into completed test results as they arrive
// and assembles the final notebook.
type Collector struct {
	ctx     context.Context
	agg     *aggregator
	emit    func(notebook.TestResult) error
	seq     int
	results []notebook.TestResult
	start   time.Time
	last    time.Time
}

// NewCollector returns a collector that passes each completed test to emit,
// numbered in completion order starting at 1. emit may be nil.
func NewCollector(ctx context.Context, emit func(notebook.TestResult) error) *Collector {
	return &Collector{ctx: ctx, agg: newAggregator(), emit: emit}
}

// Process folds one event in. It satisfies ProcessFunc.
func (c *Collector) Process(e TestEvent) error {
	if !e.Time.IsZero() {
		if c.start.IsZero() || e.Time.Before(c.start) {
			c.start = e.Time
		}
		if e.Time.After(c.last) {
			c.last = e.Time
		}
	}
	ts := c.agg.processEvent(e)
	if ts == nil {
		return nil
	}
	c.seq++
	r := Convert(e.Package, ts.result())
	r.ID = c.seq
	c.results = append(c.results, r)
	clog.FromContext(c.ctx).Debugf("test %d completed: %s %s", r.ID, r.FullTitle(), ts.status)
	if c.emit == nil {
		return nil
	}
	return c.emit(r)
}

// Notebook returns the finished run. Package-level failures are appended as
// synthetic tests and passed to emit as well, so call it once, after the
// stream ends.
func (c *Collector) Notebook() (*notebook.Notebook, error) {
	nb := &notebook.Notebook{}
	for _, r := range c.results {
		nb.Add(r)
	}
	results := c.agg.results()
	for _, pkg := range results {
		before := len(nb.All())
		addPackageFailures(nb, pkg)
		nb.Leaks = append(nb.Leaks, pkg.Leaks...)
		if pkg.Duration > nb.Duration {
			nb.Duration = pkg.Duration
		}
		if len(nb.All()) == before {
			continue
		}
		c.seq++
		g := &nb.Tests[groupIndex(nb, pkg.Name)]
		r := &g.Tests[len(g.Tests)-1]
		r.ID = c.seq
		if c.emit != nil {
			if err := c.emit(*r); err != nil {
				return nil, err
			}
		}
	}
	if wall := c.last.Sub(c.start); wall > nb.Duration {
		nb.Duration = wall
	}
	nb.Coverage = coverageOf(results)
	return nb, nil
}

func groupIndex(nb *notebook.Notebook, title string) int {
	for i, g := range nb.Tests {
		if g.Title == title {
			return i
		}
	}
	return -1
}
