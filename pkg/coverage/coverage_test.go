package coverage

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		percent float64
		want    Severity
		display string
	}{
		{percent: 0, want: Terrible, display: "0"},
		{percent: 10, want: Terrible, display: "10"},
		{percent: 10.1234, want: Terrible, display: "10.12"},
		{percent: 24.999, want: Terrible, display: "25"},
		{percent: 24.99, want: Terrible, display: "24.99"},
		{percent: 25, want: Low, display: "25"},
		{percent: 26, want: Low, display: "26"},
		{percent: 49.99, want: Low, display: "49.99"},
		{percent: 50, want: Medium, display: "50"},
		{percent: 50.5, want: Medium, display: "50.5"},
		{percent: 69.23, want: Medium, display: "69.23"},
		{percent: 75, want: High, display: "75"},
		{percent: 76, want: High, display: "76"},
		{percent: 80, want: High, display: "80"},
		{percent: 100, want: High, display: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.percent))
			assert.Equal(t, tt.display, Display(tt.percent))
		})
	}
}

func TestClassify_OutOfRangeClamps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Terrible, Classify(-5))
	assert.Equal(t, Terrible, Classify(math.NaN()))
	assert.Equal(t, High, Classify(250))
	assert.Equal(t, "0", Display(-5))
	assert.Equal(t, "100", Display(250))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Validate(0))
	assert.NoError(t, Validate(100))
	assert.True(t, errors.Is(Validate(-0.01), ErrOutOfRange))
	assert.True(t, errors.Is(Validate(100.01), ErrOutOfRange))
	assert.True(t, errors.Is(Validate(math.NaN()), ErrOutOfRange))
}

func TestSeverity_String(t *testing.T) {
	t.Parallel()

	var names []string
	for _, s := range Severities() {
		text, err := s.MarshalText()
		require.NoError(t, err)
		names = append(names, string(text))
	}
	assert.Equal(t, []string{"terrible", "low", "medium", "high"}, names)
	assert.Equal(t, "unknown", Severity(9).String())
}

func TestReadProfile(t *testing.T) {
	t.Parallel()

	profile := strings.Join([]string{
		"mode: set",
		"example.com/m/a.go:3.10,5.2 2 1",
		"example.com/m/a.go:7.10,9.2 2 0",
		"example.com/m/b.go:3.10,5.2 3 1",
		"example.com/m/b.go:6.10,8.2 1 1",
	}, "\n") + "\n"

	report, err := ReadProfile(strings.NewReader(profile))
	require.NoError(t, err)
	require.Len(t, report.Files, 2)

	assert.Equal(t, "example.com/m/a.go", report.Files[0].Filename)
	assert.InDelta(t, 50, report.Files[0].Percent, 1e-9)
	assert.Equal(t, "example.com/m/b.go", report.Files[1].Filename)
	assert.InDelta(t, 100, report.Files[1].Percent, 1e-9)
	assert.InDelta(t, 75, report.Percent, 1e-9)
	assert.Equal(t, High, Classify(report.Percent))
}

func TestReadProfile_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ReadProfile(strings.NewReader("mode: set\nnot a profile line\n"))
	assert.Error(t, err)
}

func TestFromProfiles_Empty(t *testing.T) {
	t.Parallel()

	report := FromProfiles(nil)
	assert.Empty(t, report.Files)
	assert.Zero(t, report.Percent)
}
