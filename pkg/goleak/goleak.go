// Package goleak reads the goroutine leak reports printed by
// go.uber.org/goleak and names each leaked goroutine.
package goleak

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Marker starts every goleak report.
const Marker = "found unexpected goroutines"

// Goroutine is one leaked goroutine.
type Goroutine struct {
	ID          int
	State       string
	TopFunction string
	CreatedBy   string
	CreatedAt   string // file:line
	Stack       []string
}

// Name identifies the goroutine in a leak list: its top function, or its
// ID when the stack was not captured.
func (g Goroutine) Name() string {
	if g.TopFunction != "" {
		return g.TopFunction
	}
	return "goroutine " + strconv.Itoa(g.ID)
}

var (
	// "goroutine 42 [chan receive]:"
	goroutineHeaderRe = regexp.MustCompile(`^goroutine\s+(\d+)\s+\[([^\]]+)\]:?`)
	// "created by package.Function" with an optional "in goroutine N"
	createdByRe = regexp.MustCompile(`^created by\s+(\S+)`)
	// "    /path/to/file.go:123 +0x1a4"
	fileLineRe = regexp.MustCompile(`^\s+(\S+\.go:\d+)`)
	// "github.com/foo/bar.(*Client).readLoop(...)"
	funcCallRe = regexp.MustCompile(`^(\S+)\(`)
)

// Parse reads goleak output. Lines outside a goroutine block are ignored.
func Parse(r io.Reader) ([]Goroutine, error) {
	var goroutines []Goroutine
	var current *Goroutine
	var seenCreatedBy bool

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if m := goroutineHeaderRe.FindStringSubmatch(trimmed); m != nil {
			if current != nil {
				goroutines = append(goroutines, *current)
			}
			id, _ := strconv.Atoi(m[1])
			current = &Goroutine{ID: id, State: m[2]}
			seenCreatedBy = false
			continue
		}
		if current == nil || trimmed == "" || trimmed == "]" {
			continue
		}

		if m := createdByRe.FindStringSubmatch(trimmed); m != nil {
			current.CreatedBy = m[1]
			seenCreatedBy = true
			continue
		}
		if seenCreatedBy {
			if m := fileLineRe.FindStringSubmatch(line); m != nil {
				current.CreatedAt = m[1]
			}
			seenCreatedBy = false
			continue
		}
		if current.TopFunction == "" {
			if m := funcCallRe.FindStringSubmatch(trimmed); m != nil {
				current.TopFunction = m[1]
			}
		}
		current.Stack = append(current.Stack, line)
	}
	if current != nil {
		goroutines = append(goroutines, *current)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading goleak output: %w", err)
	}
	return goroutines, nil
}

// Names parses lines of goleak output and returns the distinct leak names
// in report order.
func Names(lines []string) []string {
	goroutines, err := Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, g := range goroutines {
		name := g.Name()
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
