// Package notebook defines the format-agnostic record of a completed test
// run that every reporter renders.
package notebook

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalid is wrapped by every validation and decoding failure.
var ErrInvalid = errors.New("invalid notebook")

// Notebook is the read-only snapshot of a test run.
type Notebook struct {
	Tests    []Group
	Leaks    []string
	Duration time.Duration
	Coverage *CoverageReport // nil when coverage was not collected
}

// Group is an experiment and its tests in execution order.
type Group struct {
	Title string
	Tests []TestResult
}

// TestResult is the outcome of a single test.
type TestResult struct {
	ID       int // executor sequence id, 0 when unassigned
	Group    string
	Title    string
	Outcome  Outcome
	Duration time.Duration
	Skipped  bool
	Todo     bool
}

// CoverageReport is the aggregate and per-file coverage of a run.
type CoverageReport struct {
	Percent float64        `json:"percent"`
	Files   []FileCoverage `json:"files"`
}

// FileCoverage is the coverage of one instrumented file.
type FileCoverage struct {
	Filename string  `json:"filename"`
	Percent  float64 `json:"percent"`
}

// Stats holds run counters derived from a notebook.
type Stats struct {
	Total    int
	Executed int // excludes skipped and todo
	Passed   int
	Failed   int
	Skipped  int
	Todo     int
}

// FullTitle returns the group-qualified title.
func (r TestResult) FullTitle() string {
	if r.Group == "" {
		return r.Title
	}
	return r.Group + " " + r.Title
}

// Failed reports whether r counts as a failure. Skipped and todo tests never do.
func (r TestResult) Failed() bool {
	return !r.Skipped && !r.Todo && r.Outcome.Failed()
}

// Add appends r to the group named r.Group, creating the group on first use.
func (n *Notebook) Add(r TestResult) {
	for i := range n.Tests {
		if n.Tests[i].Title == r.Group {
			n.Tests[i].Tests = append(n.Tests[i].Tests, r)
			return
		}
	}
	n.Tests = append(n.Tests, Group{Title: r.Group, Tests: []TestResult{r}})
}

// All returns every test in group order, then execution order.
func (n *Notebook) All() []TestResult {
	var all []TestResult
	for _, g := range n.Tests {
		all = append(all, g.Tests...)
	}
	return all
}

// Count accumulates r into s.
func (s *Stats) Count(r TestResult) {
	s.Total++
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Todo:
		s.Todo++
	case r.Outcome.Failed():
		s.Executed++
		s.Failed++
	default:
		s.Executed++
		s.Passed++
	}
}

// Stats computes the run counters.
func (n *Notebook) Stats() Stats {
	var s Stats
	for _, g := range n.Tests {
		for _, r := range g.Tests {
			s.Count(r)
		}
	}
	return s
}

// Failed reports whether any test in the notebook failed.
func (n *Notebook) Failed() bool {
	return n.Stats().Failed > 0
}

// Failures returns the failing tests in order.
func (n *Notebook) Failures() []TestResult {
	var out []TestResult
	for _, g := range n.Tests {
		for _, r := range g.Tests {
			if r.Failed() {
				out = append(out, r)
			}
		}
	}
	return out
}

// Validate checks the invariants reporters rely on.
func (n *Notebook) Validate() error {
	if n.Duration < 0 {
		return fmt.Errorf("%w: negative duration %v", ErrInvalid, n.Duration)
	}
	seen := make(map[string]bool, len(n.Tests))
	for _, g := range n.Tests {
		if seen[g.Title] {
			return fmt.Errorf("%w: duplicate group %q", ErrInvalid, g.Title)
		}
		seen[g.Title] = true
		for _, r := range g.Tests {
			if r.Skipped && r.Todo {
				return fmt.Errorf("%w: test %q is both skipped and todo", ErrInvalid, r.FullTitle())
			}
		}
	}
	if n.Coverage != nil {
		return n.Coverage.Validate()
	}
	return nil
}

// Validate checks that every percentage lies in [0,100].
func (c *CoverageReport) Validate() error {
	if !inRange(c.Percent) {
		return fmt.Errorf("%w: coverage percent %v outside [0,100]", ErrInvalid, c.Percent)
	}
	for _, f := range c.Files {
		if !inRange(f.Percent) {
			return fmt.Errorf("%w: coverage percent %v for %s outside [0,100]", ErrInvalid, f.Percent, f.Filename)
		}
	}
	return nil
}

func inRange(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= 100
}
