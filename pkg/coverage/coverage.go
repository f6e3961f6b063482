// Package coverage classifies coverage percentages into severity buckets and
// builds coverage reports from Go cover profiles.
package coverage

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Severity is the coverage bucket a percentage falls into.
type Severity int

const (
	Terrible Severity = iota // [0,25)
	Low                      // [25,50)
	Medium                   // [50,75)
	High                     // [75,100]
)

// Bucket lower bounds. Each bound belongs to the upper bucket.
const (
	lowBound    = 25.0
	mediumBound = 50.0
	highBound   = 75.0
)

// ErrOutOfRange is returned by Validate for percentages outside [0,100].
var ErrOutOfRange = errors.New("coverage percentage out of range")

// Severities lists every bucket from worst to best.
func Severities() []Severity {
	return []Severity{Terrible, Low, Medium, High}
}

func (s Severity) String() string {
	switch s {
	case Terrible:
		return "terrible"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity as its class token.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Classify maps a percentage to its severity bucket.
// Values below 0 and NaN classify as Terrible, values above 100 as High.
func Classify(percent float64) Severity {
	percent = clamp(percent)
	switch {
	case percent < lowBound:
		return Terrible
	case percent < mediumBound:
		return Low
	case percent < highBound:
		return Medium
	default:
		return High
	}
}

// Display renders a percentage rounded to two decimals without trailing
// zeros: 76 -> "76", 10.1234 -> "10.12", 50.5 -> "50.5".
// Out-of-range input is clamped as in Classify.
func Display(percent float64) string {
	rounded := math.Round(clamp(percent)*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Validate reports whether percent lies in [0,100].
func Validate(percent float64) error {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return fmt.Errorf("%w: %v", ErrOutOfRange, percent)
	}
	return nil
}

func clamp(percent float64) float64 {
	switch {
	case math.IsNaN(percent), percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}
