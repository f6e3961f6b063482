package reporter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/dkoosis/labreport/pkg/notebook"
)

// TAPReporter streams Test Anything Protocol lines as events arrive.
//
// With a sink every line is written straight through and End returns "".
// Without one the same lines are accumulated and End returns them.
type TAPReporter struct {
	w       io.Writer
	buf     *strings.Builder
	started bool
	seq     int
	stats   notebook.Stats
}

// NewTAP returns a TAP reporter writing to opts.Output, or to memory when
// opts.Output is nil.
func NewTAP(opts Options) *TAPReporter {
	t := &TAPReporter{w: opts.Output}
	if t.w == nil {
		t.buf = &strings.Builder{}
		t.w = t.buf
	}
	return t
}

func (t *TAPReporter) Incremental() bool { return true }

func (t *TAPReporter) Start(_ context.Context, plan int) error {
	if t.started {
		return nil
	}
	t.started = true
	_, err := fmt.Fprintf(t.w, "1..%d\n", plan)
	return err
}

func (t *TAPReporter) Test(ctx context.Context, r notebook.TestResult) error {
	if err := t.Start(ctx, 0); err != nil {
		return err
	}
	t.seq++
	t.stats.Count(r)
	id := r.ID
	if id == 0 {
		id = t.seq
	}
	title := tapTitle(r.FullTitle())

	var b strings.Builder
	switch {
	case r.Skipped:
		fmt.Fprintf(&b, "ok %d SKIP (%d) %s\n", t.seq, id, title)
	case r.Todo:
		fmt.Fprintf(&b, "ok %d TODO (%d) %s\n", t.seq, id, title)
	case r.Outcome.Failed():
		fmt.Fprintf(&b, "not ok %d (%d) %s\n", t.seq, id, title)
		for _, line := range diagnostics(r.Outcome) {
			b.WriteString("  " + line + "\n")
		}
	default:
		fmt.Fprintf(&b, "ok %d (%d) %s\n", t.seq, id, title)
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// End writes the footer. A notebook whose tests never arrived as events is
// streamed first so End alone yields a complete report.
func (t *TAPReporter) End(ctx context.Context, nb *notebook.Notebook) (string, error) {
	if t.seq == 0 {
		for _, r := range nb.All() {
			if err := t.Test(ctx, r); err != nil {
				return "", err
			}
		}
	}
	if err := t.Start(ctx, 0); err != nil {
		return "", err
	}
	s := t.stats
	// todo tests count toward "# tests"; skipped ones do not
	_, err := fmt.Fprintf(t.w, "# tests %d\n# pass %d\n# fail %d\n# skipped %d\n# todo %d\n",
		s.Total-s.Skipped, s.Passed, s.Failed, s.Skipped, s.Todo)
	if err != nil {
		return "", err
	}
	if t.buf == nil {
		return "", nil
	}
	return t.buf.String(), nil
}

// diagnostics returns the lines printed under a failing result.
func diagnostics(o notebook.Outcome) []string {
	if o.Kind() == notebook.FailedWithoutMessage && len(o.Stack()) == 0 {
		return []string{"failed without an error message"}
	}
	lines := o.Stack()
	if len(lines) == 0 {
		lines = strings.Split(o.Message(), "\n")
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, stripansi.Strip(strings.TrimRight(line, "\r")))
	}
	return out
}

// tapTitle removes directive markers and line breaks from a description.
func tapTitle(s string) string {
	s = strings.ReplaceAll(s, "#", "")
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return strings.TrimSpace(s)
}
