package reporter

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/labreport/pkg/notebook"
)

func TestJSON_Document(t *testing.T) {
	t.Parallel()

	res, err := Report(context.Background(), labRun(), Options{Reporter: JSON})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Code)
	assert.True(t, strings.HasSuffix(res.Output, "}\n"))

	var doc struct {
		Tests map[string][]struct {
			Title string          `json:"title"`
			Err   json.RawMessage `json:"err"`
		} `json:"tests"`
		Leaks    []string         `json:"leaks"`
		Duration *float64         `json:"duration"`
		Coverage *json.RawMessage `json:"coverage"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Output), &doc))

	group := doc.Tests["test"]
	require.Len(t, group, 5)
	var titles, errs []string
	for _, r := range group {
		titles = append(titles, r.Title)
		errs = append(errs, string(r.Err))
	}
	if diff := cmp.Diff([]string{"works", "skip", "todo", "fails", "fails with non-error"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"false", "false", "false", `"Expected true to equal false"`, "true"}, errs); diff != "" {
		t.Errorf("err mismatch (-want +got):\n%s", diff)
	}
	assert.NotNil(t, doc.Leaks)
	assert.Empty(t, doc.Leaks)
	require.NotNil(t, doc.Duration)
	assert.Nil(t, doc.Coverage, "coverage only when collected")
}

func TestJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	in := coverageOnly()
	in.Tests = labRun().Tests
	res, err := Report(context.Background(), in, Options{Reporter: JSON})
	require.NoError(t, err)

	var out notebook.Notebook
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	assert.Equal(t, in.Coverage, out.Coverage)
	assert.Equal(t, in.Stats(), out.Stats())
	assert.Equal(t, ExitCode(in), ExitCode(&out))
}
