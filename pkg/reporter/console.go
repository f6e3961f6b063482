package reporter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/labreport/pkg/coverage"
	"github.com/dkoosis/labreport/pkg/notebook"
)

const messageIndent = "      "

// ConsoleReporter renders a human-readable summary at the end of the run.
type ConsoleReporter struct {
	level int
	width int
	theme Theme
	seen  []notebook.TestResult
}

// NewConsole returns a console reporter configured from opts.
func NewConsole(opts Options) *ConsoleReporter {
	r := newStyleRenderer(opts.NoColor)
	return &ConsoleReporter{
		level: opts.Level,
		width: opts.Width,
		theme: ThemeByName(r, opts.Theme),
	}
}

func (c *ConsoleReporter) Incremental() bool { return false }

func (c *ConsoleReporter) Start(context.Context, int) error { return nil }

func (c *ConsoleReporter) Test(_ context.Context, r notebook.TestResult) error {
	c.seen = append(c.seen, r)
	return nil
}

func (c *ConsoleReporter) End(_ context.Context, nb *notebook.Notebook) (string, error) {
	tests := numbered(nb, c.seen)
	var stats notebook.Stats
	for _, r := range tests {
		stats.Count(r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Test duration: %d ms\n\n", nb.Duration.Milliseconds())

	if c.level >= 1 && len(tests) > 0 {
		b.WriteString(c.table(tests))
		b.WriteString("\n\n")
	}

	if stats.Failed == 0 {
		b.WriteString(c.theme.Success.Render(fmt.Sprintf("%d tests complete", stats.Executed)))
		b.WriteString("\n\n")
		if stats.Skipped+stats.Todo > 0 {
			b.WriteString(c.theme.Muted.Render(fmt.Sprintf("%d skipped, %d todo", stats.Skipped, stats.Todo)))
			b.WriteString("\n\n")
		}
	} else {
		b.WriteString(c.theme.Error.Render(fmt.Sprintf("%d of %d tests failed:", stats.Failed, stats.Executed)))
		b.WriteString("\n\n")
		for _, r := range tests {
			if r.Failed() {
				c.writeFailure(&b, r)
			}
		}
		fmt.Fprintf(&b, "%d passed, %d failed, %d skipped, %d todo\n\n",
			stats.Passed, stats.Failed, stats.Skipped, stats.Todo)
	}

	if len(nb.Leaks) == 0 {
		b.WriteString(c.theme.Success.Render(" No global variable leaks detected."))
	} else {
		b.WriteString(c.theme.Error.Render("The following leaks were detected:" + strings.Join(nb.Leaks, ", ")))
	}
	b.WriteString("\n\n")

	if nb.Coverage != nil {
		pct := nb.Coverage.Percent
		sev := coverage.Classify(pct)
		b.WriteString(c.theme.Severity(sev).Render(fmt.Sprintf("Coverage: %s%% (%s)", coverage.Display(pct), sev)))
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

func (c *ConsoleReporter) writeFailure(b *strings.Builder, r notebook.TestResult) {
	prefix := "  " + strconv.Itoa(r.ID) + ") "
	title := r.FullTitle()
	if c.width > 0 {
		title = runewidth.Truncate(title, c.width-runewidth.StringWidth(prefix)-1, "…")
	}
	b.WriteString(prefix + title + ":\n\n")

	switch r.Outcome.Kind() {
	case notebook.FailedWithoutMessage:
		b.WriteString(messageIndent + "(failed without an error message)\n")
	default:
		for _, line := range strings.Split(r.Outcome.Message(), "\n") {
			b.WriteString(messageIndent + c.theme.Error.Render(line) + "\n")
		}
	}
	for _, line := range r.Outcome.Stack() {
		b.WriteString(messageIndent + c.theme.Muted.Render(line) + "\n")
	}
	b.WriteString("\n")
}

func (c *ConsoleReporter) table(tests []notebook.TestResult) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Title", "Result", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, r := range tests {
		t.AppendRow(table.Row{r.ID, r.FullTitle(), result(r), fmt.Sprintf("%d ms", r.Duration.Milliseconds())})
	}
	return t.Render()
}

func result(r notebook.TestResult) string {
	switch {
	case r.Skipped:
		return "skip"
	case r.Todo:
		return "todo"
	case r.Outcome.Failed():
		return "fail"
	default:
		return "pass"
	}
}
