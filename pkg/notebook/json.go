package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

type wireNotebook struct {
	Tests    wireGroups      `json:"tests"`
	Leaks    []string        `json:"leaks"`
	Duration float64         `json:"duration"`
	Coverage *CoverageReport `json:"coverage,omitempty"`
}

type wireTest struct {
	Title    string  `json:"title"`
	Err      Outcome `json:"err"`
	Duration float64 `json:"duration"`
	Skipped  bool    `json:"skipped,omitempty"`
	Todo     bool    `json:"todo,omitempty"`
}

// wireGroups keeps group order when encoded as a JSON object.
type wireGroups []Group

// MarshalJSON encodes the notebook with durations in milliseconds and
// groups as an ordered object keyed by group title.
func (n Notebook) MarshalJSON() ([]byte, error) {
	leaks := n.Leaks
	if leaks == nil {
		leaks = []string{}
	}
	var cov *CoverageReport
	if n.Coverage != nil {
		c := *n.Coverage
		if c.Files == nil {
			c.Files = []FileCoverage{}
		}
		cov = &c
	}
	return json.Marshal(wireNotebook{
		Tests:    wireGroups(n.Tests),
		Leaks:    leaks,
		Duration: float64(n.Duration.Milliseconds()),
		Coverage: cov,
	})
}

// UnmarshalJSON decodes a notebook document, restoring group order and
// each test's Group field.
func (n *Notebook) UnmarshalJSON(data []byte) error {
	var w wireNotebook
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Duration < 0 {
		return fmt.Errorf("%w: negative duration %v", ErrInvalid, w.Duration)
	}
	*n = Notebook{
		Tests:    []Group(w.Tests),
		Leaks:    w.Leaks,
		Duration: millis(w.Duration),
		Coverage: w.Coverage,
	}
	return nil
}

func (g wireGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(group.Title)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		tests := make([]wireTest, 0, len(group.Tests))
		for _, r := range group.Tests {
			tests = append(tests, wireTest{
				Title:    r.Title,
				Err:      r.Outcome,
				Duration: float64(r.Duration.Milliseconds()),
				Skipped:  r.Skipped,
				Todo:     r.Todo,
			})
		}
		val, err := json.Marshal(tests)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (g *wireGroups) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*g = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: tests must be an object of groups", ErrInvalid)
	}

	var groups []Group
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		title, ok := tok.(string)
		if !ok {
			return fmt.Errorf("%w: group key %v is not a string", ErrInvalid, tok)
		}
		var tests []wireTest
		if err := dec.Decode(&tests); err != nil {
			return fmt.Errorf("decoding group %q: %w", title, err)
		}
		group := Group{Title: title, Tests: make([]TestResult, 0, len(tests))}
		for _, t := range tests {
			group.Tests = append(group.Tests, TestResult{
				Group:    title,
				Title:    t.Title,
				Outcome:  t.Err,
				Duration: millis(t.Duration),
				Skipped:  t.Skipped,
				Todo:     t.Todo,
			})
		}
		groups = append(groups, group)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*g = groups
	return nil
}

func millis(ms float64) time.Duration {
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
