// Package markdown adds a "markdown" reporter that renders a run as
// GitHub-flavoured Markdown, suitable for CI job summaries.
//
// Import it for its side effect:
//
//	import _ "github.com/dkoosis/labreport/pkg/reporter/markdown"
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/dkoosis/labreport/pkg/coverage"
	"github.com/dkoosis/labreport/pkg/notebook"
	"github.com/dkoosis/labreport/pkg/reporter"
)

// Name is the format name the reporter is registered under.
const Name = "markdown"

func init() {
	if err := reporter.Register(Name, func(opts reporter.Options) (reporter.Reporter, error) {
		return New(opts), nil
	}); err != nil {
		panic(err)
	}
}

// Reporter renders a Markdown summary at the end of the run.
type Reporter struct {
	level int
	seen  []notebook.TestResult
}

// New returns a Markdown reporter.
func New(opts reporter.Options) *Reporter {
	return &Reporter{level: opts.Level}
}

func (r *Reporter) Incremental() bool { return false }

func (r *Reporter) Start(context.Context, int) error { return nil }

func (r *Reporter) Test(_ context.Context, res notebook.TestResult) error {
	r.seen = append(r.seen, res)
	return nil
}

func (r *Reporter) End(_ context.Context, nb *notebook.Notebook) (string, error) {
	tests := r.seen
	if len(tests) == 0 {
		tests = nb.All()
		for i := range tests {
			if tests[i].ID == 0 {
				tests[i].ID = i + 1
			}
		}
	}
	var stats notebook.Stats
	for _, t := range tests {
		stats.Count(t)
	}

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Test Report")
	doc.PlainText("")
	doc.Table(md.TableSet{
		Header: []string{"Passed", "Failed", "Skipped", "Todo", "Duration"},
		Rows: [][]string{{
			strconv.Itoa(stats.Passed),
			strconv.Itoa(stats.Failed),
			strconv.Itoa(stats.Skipped),
			strconv.Itoa(stats.Todo),
			fmt.Sprintf("%d ms", nb.Duration.Milliseconds()),
		}},
	})
	doc.PlainText("")

	if stats.Failed == 0 {
		doc.Tip(fmt.Sprintf("%d tests complete", stats.Executed))
	} else {
		doc.Cautionf("%d of %d tests failed", stats.Failed, stats.Executed)
	}
	doc.PlainText("")

	if stats.Failed > 0 {
		doc.H2("Failures")
		doc.PlainText("")
		for _, t := range tests {
			if !t.Failed() {
				continue
			}
			doc.H3(fmt.Sprintf("%d) %s", t.ID, t.FullTitle()))
			doc.PlainText("")
			if t.Outcome.Kind() == notebook.FailedWithoutMessage {
				doc.PlainText("_failed without an error message_")
			} else {
				doc.CodeBlocks(md.SyntaxHighlightText, t.Outcome.Message())
			}
			doc.PlainText("")
		}
	}

	if r.level >= 1 && len(tests) > 0 {
		doc.H2("Tests")
		doc.PlainText("")
		rows := make([][]string, 0, len(tests))
		for _, t := range tests {
			rows = append(rows, []string{strconv.Itoa(t.ID), escapeCell(t.FullTitle()), outcome(t)})
		}
		doc.Table(md.TableSet{Header: []string{"#", "Title", "Result"}, Rows: rows})
		doc.PlainText("")
	}

	if len(nb.Leaks) > 0 {
		doc.Warningf("The following leaks were detected: %s", strings.Join(nb.Leaks, ", "))
		doc.PlainText("")
	}

	if c := nb.Coverage; c != nil {
		doc.H2("Coverage")
		doc.PlainText("")
		doc.PlainTextf("**%s%%** (%s)", coverage.Display(c.Percent), coverage.Classify(c.Percent))
		doc.PlainText("")
		if len(c.Files) > 0 {
			rows := make([][]string, 0, len(c.Files))
			for _, f := range c.Files {
				rows = append(rows, []string{
					escapeCell(f.Filename),
					coverage.Display(f.Percent),
					coverage.Classify(f.Percent).String(),
				})
			}
			doc.Table(md.TableSet{Header: []string{"File", "Coverage", "Severity"}, Rows: rows})
			doc.PlainText("")
		}
	}
	return doc.String(), nil
}

func outcome(t notebook.TestResult) string {
	switch {
	case t.Skipped:
		return "skipped"
	case t.Todo:
		return "todo"
	case t.Outcome.Failed():
		return "failed"
	default:
		return "passed"
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
