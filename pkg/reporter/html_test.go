package reporter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/labreport/pkg/notebook"
)

func coverageOnly() *notebook.Notebook {
	return &notebook.Notebook{Coverage: &notebook.CoverageReport{
		Percent: 69.23,
		Files: []notebook.FileCoverage{
			{Filename: "lib/a.go", Percent: 10},
			{Filename: "lib/b.go", Percent: 10.1234},
			{Filename: "lib/c.go", Percent: 76},
			{Filename: "lib/d.go", Percent: 26},
			{Filename: "lib/e.go", Percent: 80},
		},
	}}
}

func TestHTML_CoverageOnly(t *testing.T) {
	t.Parallel()

	rep, err := NewHTML(Options{})
	require.NoError(t, err)
	out, err := rep.End(context.Background(), coverageOnly())
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="stats medium">`)
	assert.Contains(t, out, `<span class="cov terrible">10</span>`)
	assert.Contains(t, out, `<span class="cov terrible">10.12</span>`)
	assert.Contains(t, out, `<span class="cov high">76</span>`)
	assert.Contains(t, out, `<span class="cov low">26</span>`)
	assert.Contains(t, out, `<span class="cov high">80</span>`)
	assert.Contains(t, out, `<li class="terrible">Terrible: below 25%</li>`)
	assert.NotContains(t, out, "Failures")
	assert.Less(t, strings.Index(out, "lib/a.go"), strings.Index(out, "lib/e.go"), "file order preserved")
}

func TestHTML_Idempotent(t *testing.T) {
	t.Parallel()

	nb := coverageOnly()
	nb.Tests = labRun().Tests

	first, err := Report(context.Background(), nb, Options{Reporter: HTML})
	require.NoError(t, err)
	second, err := Report(context.Background(), nb, Options{Reporter: HTML})
	require.NoError(t, err)
	assert.Equal(t, first.Output, second.Output)
}

func TestHTML_Failures(t *testing.T) {
	t.Parallel()

	res, err := Report(context.Background(), labRun(), Options{Reporter: HTML, CoverageGlobal: "__cov"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Code)
	assert.Contains(t, res.Output, `<div class="stats">`)
	assert.Contains(t, res.Output, "<h3>4) test fails</h3>")
	assert.Contains(t, res.Output, "(failed without an error message)")
	assert.Contains(t, res.Output, "coverage global: __cov")
	assert.NotContains(t, res.Output, `class="cov`)
}

func TestHTML_EscapesContent(t *testing.T) {
	t.Parallel()

	nb := &notebook.Notebook{}
	nb.Add(notebook.TestResult{Group: "g", Title: "<script>", Outcome: notebook.FailWith("a < b")})
	res, err := Report(context.Background(), nb, Options{Reporter: HTML})
	require.NoError(t, err)
	assert.NotContains(t, res.Output, "<script>")
	assert.Contains(t, res.Output, "a &lt; b")
}

func TestHTML_InvalidCoverage(t *testing.T) {
	t.Parallel()

	rep, err := NewHTML(Options{})
	require.NoError(t, err)
	_, err = rep.End(context.Background(), &notebook.Notebook{Coverage: &notebook.CoverageReport{Percent: -1}})

	var fe *FormattingError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, HTML, fe.Reporter)
}
