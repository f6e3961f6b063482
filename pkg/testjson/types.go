// Package testjson turns go test -json NDJSON streams into test run
// notebooks, either in one pass or incrementally as events arrive.
package testjson

import "time"

// Actions emitted by go test -json that the parser acts on.
const (
	ActionRun    = "run"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
)

// Test statuses recorded on TestResult.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
	StatusSkip = "SKIP"
)

// TestEvent represents a single event from go test -json output.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"` // start, run, pass, fail, skip, output, bench, pause, cont
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// ProcessFunc receives each decoded event. A non-nil error stops the stream.
type ProcessFunc func(TestEvent) error

// TestResult represents a single test with its status.
type TestResult struct {
	Name     string
	Status   string // StatusPass, StatusFail or StatusSkip
	Duration time.Duration
	Output   []string // output lines captured while the test ran
}

// TestPackageResult represents aggregated results for one package.
type TestPackageResult struct {
	Name        string
	Passed      int
	Failed      int
	Skipped     int
	Duration    time.Duration
	Coverage    float64
	HasCoverage bool // a coverage line was reported, possibly 0%
	AllTests    []TestResult
	BuildError  string // non-empty if package failed to build
	Panicked    bool
	PanicOutput []string
	Leaks       []string // leaked goroutines reported by goleak
}

// TotalTests returns the total number of tests in this package.
func (r *TestPackageResult) TotalTests() int {
	return r.Passed + r.Failed + r.Skipped
}

// Status returns "pass", "fail", or "skip" for the package.
func (r *TestPackageResult) Status() string {
	if r.BuildError != "" || r.Panicked || r.Failed > 0 {
		return "fail"
	}
	if r.Passed == 0 && r.Skipped > 0 {
		return "skip"
	}
	return "pass"
}
