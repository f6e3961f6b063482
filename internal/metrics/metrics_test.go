package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/labreport/pkg/notebook"
)

func run() *notebook.Notebook {
	nb := &notebook.Notebook{Duration: 1500 * time.Millisecond, Leaks: []string{"x"}}
	nb.Add(notebook.TestResult{Group: "g", Title: "a", Outcome: notebook.Pass()})
	nb.Add(notebook.TestResult{Group: "g", Title: "b", Outcome: notebook.FailWith("boom")})
	nb.Add(notebook.TestResult{Group: "g", Title: "c", Skipped: true})
	nb.Coverage = &notebook.CoverageReport{Percent: 69.23}
	return nb
}

func TestNew_Zeroed(t *testing.T) {
	r := New()
	assert.Equal(t, 4, testutil.CollectAndCount(r.testsTotal))
	assert.InDelta(t, -1, testutil.ToFloat64(r.coverage), 0)
}

func TestObserve(t *testing.T) {
	r := New()
	r.Observe(run())

	assert.InDelta(t, 1, testutil.ToFloat64(r.testsTotal.WithLabelValues(OutcomePassed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.testsTotal.WithLabelValues(OutcomeFailed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.testsTotal.WithLabelValues(OutcomeSkipped)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(r.testsTotal.WithLabelValues(OutcomeTodo)), 0)
	assert.InDelta(t, 1.5, testutil.ToFloat64(r.duration), 1e-9)
	assert.InDelta(t, 69.23, testutil.ToFloat64(r.coverage), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(r.leaksTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.failedTotal), 0)

	r.Observe(&notebook.Notebook{})
	assert.InDelta(t, 0, testutil.ToFloat64(r.failedTotal), 0)
	assert.InDelta(t, -1, testutil.ToFloat64(r.coverage), 0)
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.Observe(run())

	path := filepath.Join(t.TempDir(), "labreport.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `labreport_tests_total{outcome="failed"} 1`)
	assert.Contains(t, text, "labreport_coverage_percent 69.23")
	assert.True(t, strings.Contains(text, "# HELP labreport_run_duration_seconds"))
}

func TestWriteTextfile_BadPath(t *testing.T) {
	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
