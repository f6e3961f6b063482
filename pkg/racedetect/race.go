// Package racedetect reads Go race detector reports out of test output.
package racedetect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Header starts every race report.
const Header = "WARNING: DATA RACE"

// AccessType is the kind of memory access in a race.
type AccessType string

const (
	AccessRead  AccessType = "read"
	AccessWrite AccessType = "write"
)

// Access is one side of a data race.
type Access struct {
	Type       AccessType
	Address    string
	Goroutine  int // 0 for the main goroutine
	Function   string
	File       string
	Line       int
	IsPrevious bool
}

// Location formats the access position as file:line, or the function name
// when no frame was captured.
func (a Access) Location() string {
	if a.File == "" {
		return a.Function
	}
	return a.File + ":" + strconv.Itoa(a.Line)
}

// GoroutineInfo records where a racing goroutine was started.
type GoroutineInfo struct {
	ID       int
	State    string
	Function string
	File     string
	Line     int
}

// Race is a single report.
type Race struct {
	Accesses   []Access
	Goroutines []GoroutineInfo
}

// Summary describes the race on one line.
func (r Race) Summary() string {
	parts := make([]string, 0, len(r.Accesses))
	for _, a := range r.Accesses {
		who := "main goroutine"
		if a.Goroutine != 0 {
			who = "goroutine " + strconv.Itoa(a.Goroutine)
		}
		prefix := ""
		if a.IsPrevious {
			prefix = "previous "
		}
		parts = append(parts, fmt.Sprintf("%s%s at %s by %s", prefix, a.Type, a.Location(), who))
	}
	if len(parts) == 0 {
		return "data race"
	}
	return "data race: " + strings.Join(parts, ", ")
}

var (
	// "Read at 0x00c0001a4018 by goroutine 15:" or "Previous write at ... by main goroutine:"
	accessRe = regexp.MustCompile(`^(Previous )?([Rr]ead|[Ww]rite) at (0x[0-9a-f]+) by (?:goroutine (\d+)|main goroutine):`)
	// "Goroutine 15 (running) created at:"
	createdRe   = regexp.MustCompile(`^Goroutine (\d+) \(([^)]+)\) created at:`)
	funcCallRe  = regexp.MustCompile(`^(\S+)\(`)
	fileLineRe  = regexp.MustCompile(`^(\S+\.go):(\d+)`)
	delimiterRe = regexp.MustCompile(`^={10,}$`)
)

// frame receives the first function and file position after a header.
type frame struct {
	function *string
	file     *string
	line     *int
}

// Parse extracts every race report from lines of output. Unrelated lines
// are ignored.
func Parse(lines []string) []Race {
	var races []Race
	var current *Race
	var target frame

	closeRace := func() {
		if current != nil {
			races = append(races, *current)
			current = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case delimiterRe.MatchString(trimmed):
			closeRace()
			continue
		case strings.Contains(trimmed, Header):
			closeRace()
			current = &Race{}
			continue
		case current == nil:
			continue
		}

		if m := accessRe.FindStringSubmatch(trimmed); m != nil {
			id, _ := strconv.Atoi(m[4])
			current.Accesses = append(current.Accesses, Access{
				Type:       AccessType(strings.ToLower(m[2])),
				Address:    m[3],
				Goroutine:  id,
				IsPrevious: m[1] != "",
			})
			a := &current.Accesses[len(current.Accesses)-1]
			target = frame{&a.Function, &a.File, &a.Line}
			continue
		}
		if m := createdRe.FindStringSubmatch(trimmed); m != nil {
			id, _ := strconv.Atoi(m[1])
			current.Goroutines = append(current.Goroutines, GoroutineInfo{ID: id, State: m[2]})
			g := &current.Goroutines[len(current.Goroutines)-1]
			target = frame{&g.Function, &g.File, &g.Line}
			continue
		}

		if target.function != nil && *target.function == "" {
			if m := funcCallRe.FindStringSubmatch(trimmed); m != nil {
				*target.function = m[1]
				continue
			}
		}
		if target.file != nil && *target.file == "" {
			if m := fileLineRe.FindStringSubmatch(trimmed); m != nil {
				*target.file = m[1]
				*target.line, _ = strconv.Atoi(m[2])
				target = frame{}
			}
		}
	}
	closeRace()
	return races
}

// Detected reports whether any line starts a race report.
func Detected(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, Header) {
			return true
		}
	}
	return false
}
