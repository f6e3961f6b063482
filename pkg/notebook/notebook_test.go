package notebook

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Notebook {
	nb := &Notebook{Duration: 42 * time.Millisecond}
	nb.Add(TestResult{ID: 1, Group: "group", Title: "works", Outcome: Pass(), Duration: 3 * time.Millisecond})
	nb.Add(TestResult{ID: 2, Group: "group", Title: "fails", Outcome: FailWith("expected true to equal false", "at fails (test.go:12)")})
	nb.Add(TestResult{ID: 3, Group: "group", Title: "fails with non-error", Outcome: FailWithoutMessage()})
	nb.Add(TestResult{ID: 4, Group: "other", Title: "skipped", Skipped: true})
	nb.Add(TestResult{ID: 5, Group: "other", Title: "todo", Todo: true})
	return nb
}

func TestNotebook_Add_GroupsInInsertionOrder(t *testing.T) {
	t.Parallel()

	nb := sample()
	require.Len(t, nb.Tests, 2)
	assert.Equal(t, "group", nb.Tests[0].Title)
	assert.Len(t, nb.Tests[0].Tests, 3)
	assert.Equal(t, "other", nb.Tests[1].Title)
	assert.Len(t, nb.All(), 5)
}

func TestNotebook_Stats(t *testing.T) {
	t.Parallel()

	got := sample().Stats()
	want := Stats{Total: 5, Executed: 3, Passed: 1, Failed: 2, Skipped: 1, Todo: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestNotebook_SkippedFailureIsNotAFailure(t *testing.T) {
	t.Parallel()

	nb := &Notebook{}
	nb.Add(TestResult{Group: "g", Title: "skipped but broken", Skipped: true, Outcome: FailWith("boom")})
	nb.Add(TestResult{Group: "g", Title: "todo", Todo: true, Outcome: FailWithoutMessage()})

	assert.False(t, nb.Failed())
	assert.Empty(t, nb.Failures())
}

func TestNotebook_Failures(t *testing.T) {
	t.Parallel()

	failures := sample().Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "group fails", failures[0].FullTitle())
	assert.Equal(t, FailedWithoutMessage, failures[1].Outcome.Kind())
}

func TestFailWith_EmptyMessageDegrades(t *testing.T) {
	t.Parallel()

	o := FailWith("")
	assert.Equal(t, FailedWithoutMessage, o.Kind())
	assert.True(t, o.Failed())
	assert.Empty(t, o.Message())
}

func TestNotebook_MarshalJSON_TriStateErr(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(sample())
	require.NoError(t, err)

	var doc struct {
		Tests map[string][]struct {
			Title string          `json:"title"`
			Err   json.RawMessage `json:"err"`
		} `json:"tests"`
		Leaks    []string `json:"leaks"`
		Duration float64  `json:"duration"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	group := doc.Tests["group"]
	require.Len(t, group, 3)
	assert.Equal(t, "works", group[0].Title)
	assert.JSONEq(t, `false`, string(group[0].Err))
	assert.JSONEq(t, `"expected true to equal false"`, string(group[1].Err))
	assert.JSONEq(t, `true`, string(group[2].Err))
	assert.NotNil(t, doc.Leaks)
	assert.Empty(t, doc.Leaks)
	assert.InDelta(t, 42, doc.Duration, 0)
	assert.NotContains(t, string(data), "test.go:12", "stack is not part of the document")
	assert.NotContains(t, string(data), "coverage")
}

func TestNotebook_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := sample()
	in.Leaks = []string{"__leaked"}
	in.Coverage = &CoverageReport{Percent: 69.23, Files: []FileCoverage{{Filename: "b.go", Percent: 100}, {Filename: "a.go", Percent: 10.5}}}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Notebook
	require.NoError(t, json.Unmarshal(data, &out))

	require.Len(t, out.Tests, 2)
	assert.Equal(t, "group", out.Tests[0].Title, "group order preserved")
	assert.Equal(t, "other", out.Tests[1].Title)
	assert.Equal(t, "group", out.Tests[0].Tests[1].Group)
	assert.Equal(t, FailedWithMessage, out.Tests[0].Tests[1].Outcome.Kind())
	assert.Equal(t, "expected true to equal false", out.Tests[0].Tests[1].Outcome.Message())
	assert.Equal(t, FailedWithoutMessage, out.Tests[0].Tests[2].Outcome.Kind())
	assert.True(t, out.Tests[1].Tests[0].Skipped)
	assert.True(t, out.Tests[1].Tests[1].Todo)
	assert.Equal(t, 3*time.Millisecond, out.Tests[0].Tests[0].Duration)
	assert.Equal(t, 42*time.Millisecond, out.Duration)
	assert.Equal(t, []string{"__leaked"}, out.Leaks)
	assert.Equal(t, in.Coverage, out.Coverage, "file order preserved")
}

func TestOutcome_UnmarshalJSON_RejectsOtherShapes(t *testing.T) {
	t.Parallel()

	var o Outcome
	err := json.Unmarshal([]byte(`{"message":"x"}`), &o)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestNotebook_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		nb      *Notebook
		wantErr bool
	}{
		{name: "valid", nb: sample()},
		{name: "coverage only", nb: &Notebook{Coverage: &CoverageReport{Percent: 30, Files: []FileCoverage{{Filename: "a", Percent: 10}}}}},
		{name: "percent above 100", nb: &Notebook{Coverage: &CoverageReport{Percent: 101}}, wantErr: true},
		{name: "file percent negative", nb: &Notebook{Coverage: &CoverageReport{Percent: 1, Files: []FileCoverage{{Filename: "a", Percent: -1}}}}, wantErr: true},
		{name: "NaN percent", nb: &Notebook{Coverage: &CoverageReport{Percent: math.NaN()}}, wantErr: true},
		{name: "duplicate group", nb: &Notebook{Tests: []Group{{Title: "a"}, {Title: "a"}}}, wantErr: true},
		{name: "skipped and todo", nb: &Notebook{Tests: []Group{{Title: "a", Tests: []TestResult{{Title: "x", Skipped: true, Todo: true}}}}}, wantErr: true},
		{name: "negative duration", nb: &Notebook{Duration: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.nb.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}
