package testjson

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dkoosis/labreport/pkg/goleak"
)

const maxLine = 1024 * 1024

// ParseStream parses go test -json NDJSON from a reader, line by line.
// Returns the parsed results, the number of malformed lines skipped, and any error.
func ParseStream(r io.Reader) ([]TestPackageResult, int, error) {
	agg := newAggregator()
	scanner := bufio.NewScanner(r)
	// Allow large lines for verbose test output
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	var malformed int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event TestEvent
		if err := json.Unmarshal(line, &event); err != nil {
			malformed++
			continue
		}
		agg.processEvent(event)
	}
	if err := scanner.Err(); err != nil {
		return nil, malformed, fmt.Errorf("scanning test output: %w", err)
	}
	return agg.results(), malformed, nil
}

// ParseBytes is a convenience for parsing from a byte slice.
func ParseBytes(data []byte) ([]TestPackageResult, int, error) {
	return ParseStream(bytes.NewReader(data))
}

// scanResult carries a scanned line or terminal error from the scanner goroutine.
type scanResult struct {
	line []byte
	err  error
}

// Stream parses go test -json events line by line and calls fn for each one.
// Stops on EOF, on the first error from fn, or when ctx is cancelled. Returns
// the number of malformed lines skipped and any error.
//
// Cancellation: the scanner runs in a background goroutine. On context cancel,
// Stream closes r (if it implements io.Closer) to unblock the scanner. If r
// does not implement io.Closer, the caller must close the underlying reader
// to release the goroutine.
func Stream(ctx context.Context, r io.Reader, fn ProcessFunc) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	lines := make(chan scanResult)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			// Copy bytes; the scanner reuses its buffer.
			cp := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- scanResult{line: cp}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- scanResult{err: fmt.Errorf("scanning test output: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()

	var malformed int
	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return malformed, ctx.Err()
		case res, ok := <-lines:
			if !ok {
				return malformed, nil
			}
			if res.err != nil {
				return malformed, res.err
			}
			if len(res.line) == 0 {
				continue
			}
			var event TestEvent
			if err := json.Unmarshal(res.line, &event); err != nil {
				malformed++
				continue
			}
			if err := fn(event); err != nil {
				return malformed, err
			}
		}
	}
}

type aggregator struct {
	packages map[string]*pkgState
	order    []string
}

type pkgState struct {
	name        string
	passed      int
	failed      int
	skipped     int
	duration    time.Duration
	coverage    float64
	hasCoverage bool
	allTests    map[string]*testState
	testOrder   []string
	buildError  string
	panicked    bool
	panicOutput []string
	leaking     bool
	leakOutput  []string
	// output of tests still running, keyed by test name ("" for the package)
	outputBuf map[string][]string
}

type testState struct {
	name     string
	status   string
	duration time.Duration
	output   []string
}

func newAggregator() *aggregator {
	return &aggregator{
		packages: make(map[string]*pkgState),
	}
}

func (a *aggregator) getOrCreate(name string) *pkgState {
	if pkg, ok := a.packages[name]; ok {
		return pkg
	}
	pkg := &pkgState{
		name:      name,
		allTests:  make(map[string]*testState),
		outputBuf: make(map[string][]string),
	}
	a.packages[name] = pkg
	a.order = append(a.order, name)
	return pkg
}

// processEvent folds e into the aggregate. It returns the test that e
// completed, or nil.
func (a *aggregator) processEvent(e TestEvent) *testState {
	pkg := a.getOrCreate(e.Package)
	elapsed := time.Duration(e.Elapsed * float64(time.Second))

	switch e.Action {
	case ActionPass:
		if e.Test == "" {
			pkg.duration = elapsed
			return nil
		}
		pkg.passed++
		return pkg.finish(e.Test, StatusPass, elapsed)

	case ActionFail:
		if e.Test == "" {
			pkg.duration = elapsed
			// failed with no tests run
			if pkg.passed == 0 && pkg.failed == 0 && pkg.skipped == 0 && !pkg.panicked {
				pkg.buildError = strings.Join(pkg.outputBuf[""], "\n")
				if pkg.buildError == "" {
					pkg.buildError = "package failed without running tests"
				}
			}
			return nil
		}
		pkg.failed++
		return pkg.finish(e.Test, StatusFail, elapsed)

	case ActionSkip:
		if e.Test == "" {
			return nil
		}
		pkg.skipped++
		return pkg.finish(e.Test, StatusSkip, elapsed)

	case ActionOutput:
		output := strings.TrimRight(e.Output, "\n")
		if output == "" {
			return nil
		}
		pkg.outputBuf[e.Test] = append(pkg.outputBuf[e.Test], output)

		if strings.Contains(output, "coverage:") && strings.Contains(output, "% of statements") {
			var cov float64
			trimmed := output[strings.Index(output, "coverage:"):]
			if _, err := fmt.Sscanf(trimmed, "coverage: %f%% of statements", &cov); err == nil {
				pkg.coverage = cov
				pkg.hasCoverage = true
			}
		}

		// goroutine dumps after a goleak report are leaks, not panics
		if strings.Contains(output, goleak.Marker) {
			pkg.leaking = true
		}
		if pkg.leaking {
			pkg.leakOutput = append(pkg.leakOutput, output)
			return nil
		}

		if strings.Contains(output, "panic:") || strings.HasPrefix(output, "goroutine ") {
			pkg.panicked = true
			pkg.panicOutput = append(pkg.panicOutput, output)
		}
	}
	return nil
}

func (pkg *pkgState) finish(name, status string, elapsed time.Duration) *testState {
	ts := pkg.getOrCreateTest(name)
	ts.status = status
	ts.duration = elapsed
	ts.output = pkg.outputBuf[name]
	delete(pkg.outputBuf, name)
	return ts
}

func (pkg *pkgState) getOrCreateTest(name string) *testState {
	if ts, ok := pkg.allTests[name]; ok {
		return ts
	}
	ts := &testState{name: name}
	pkg.allTests[name] = ts
	pkg.testOrder = append(pkg.testOrder, name)
	return ts
}

func (pkg *pkgState) active() bool {
	return pkg.passed+pkg.failed+pkg.skipped > 0 || pkg.buildError != "" || pkg.panicked || pkg.hasCoverage || pkg.leaking
}

func (pkg *pkgState) result() TestPackageResult {
	r := TestPackageResult{
		Name:        pkg.name,
		Passed:      pkg.passed,
		Failed:      pkg.failed,
		Skipped:     pkg.skipped,
		Duration:    pkg.duration,
		Coverage:    pkg.coverage,
		HasCoverage: pkg.hasCoverage,
		BuildError:  pkg.buildError,
		Panicked:    pkg.panicked,
	}
	if pkg.panicked {
		r.PanicOutput = pkg.panicOutput
	}
	if pkg.leaking {
		r.Leaks = goleak.Names(pkg.leakOutput)
	}
	for _, testName := range pkg.testOrder {
		ts := pkg.allTests[testName]
		r.AllTests = append(r.AllTests, ts.result())
	}
	return r
}

func (ts *testState) result() TestResult {
	return TestResult{
		Name:     ts.name,
		Status:   ts.status,
		Duration: ts.duration,
		Output:   ts.output,
	}
}

func (a *aggregator) results() []TestPackageResult {
	results := make([]TestPackageResult, 0, len(a.order))
	for _, name := range a.order {
		pkg := a.packages[name]
		// Skip packages with no test activity
		if !pkg.active() {
			continue
		}
		results = append(results, pkg.result())
	}
	return results
}
