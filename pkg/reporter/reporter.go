// Package reporter renders a test run into one of several output formats.
//
// Every format implements [Reporter]. The executor drives a reporter through
// a [Session]: one Start, one Test call per completed test in completion
// order, and a final End with the run's notebook. [Report] is the batch form
// that replays a finished notebook through a fresh session.
//
// Built-in formats are console, json, html and tap. Additional formats are
// added with [Register].
package reporter

import (
	"context"
	"io"

	"github.com/dkoosis/labreport/pkg/notebook"
)

// Built-in reporter names.
const (
	Console = "console"
	JSON    = "json"
	HTML    = "html"
	TAP     = "tap"
)

// Reporter renders one run in one format.
type Reporter interface {
	// Incremental reports whether the reporter emits output as events
	// arrive rather than at End.
	Incremental() bool
	// Start is called once before any test event. plan may be 0 when the
	// number of tests is not known in advance.
	Start(ctx context.Context, plan int) error
	// Test is called once per completed test, in completion order.
	Test(ctx context.Context, r notebook.TestResult) error
	// End renders the finished run. Incremental reporters writing to a sink
	// return an empty string.
	End(ctx context.Context, nb *notebook.Notebook) (string, error)
}

// Options selects and configures a reporter.
type Options struct {
	Reporter string
	// Output is the sink. Nil requests the rendered report as a return value.
	Output io.Writer
	// Level is the verbosity; 0 renders summaries only.
	Level int
	// Coverage records that coverage collection was requested for the run.
	Coverage bool
	// CoverageGlobal names the accumulator the coverage was collected under.
	CoverageGlobal string
	NoColor        bool
	Theme          string
	// Width is the console width in cells; 0 disables truncation.
	Width int
}

// Result is the completion contract handed back to the caller.
type Result struct {
	// Code is 0 when no test failed and 1 otherwise.
	Code int
	// Output holds the report when Options.Output was nil.
	Output string
}

// ExitCode returns 0 when no test in nb failed and 1 otherwise. Skipped and
// todo tests never fail a run.
func ExitCode(nb *notebook.Notebook) int {
	if nb != nil && nb.Failed() {
		return 1
	}
	return 0
}

type flusher interface {
	Flush() error
}

// flush flushes w when it buffers.
func flush(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// numbered pairs every test of nb with its run sequence id. Tests that
// arrived through events keep the id they were given.
func numbered(nb *notebook.Notebook, seen []notebook.TestResult) []notebook.TestResult {
	if len(seen) > 0 {
		return seen
	}
	all := nb.All()
	for i := range all {
		if all[i].ID == 0 {
			all[i].ID = i + 1
		}
	}
	return all
}
