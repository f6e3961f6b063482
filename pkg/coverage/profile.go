package coverage

import (
	"fmt"
	"io"

	"golang.org/x/tools/cover"

	"github.com/dkoosis/labreport/pkg/notebook"
)

// FromProfiles computes per-file and aggregate statement coverage.
// Files keep profile order. A file without statements counts as fully covered.
func FromProfiles(profiles []*cover.Profile) *notebook.CoverageReport {
	report := &notebook.CoverageReport{Files: make([]notebook.FileCoverage, 0, len(profiles))}
	var total, covered int64
	for _, p := range profiles {
		var fileTotal, fileCovered int64
		for _, b := range p.Blocks {
			fileTotal += int64(b.NumStmt)
			if b.Count > 0 {
				fileCovered += int64(b.NumStmt)
			}
		}
		total += fileTotal
		covered += fileCovered
		report.Files = append(report.Files, notebook.FileCoverage{
			Filename: p.FileName,
			Percent:  percentOf(fileCovered, fileTotal),
		})
	}
	if len(profiles) > 0 {
		report.Percent = percentOf(covered, total)
	}
	return report
}

// ReadProfile parses a cover profile (go test -coverprofile output).
func ReadProfile(r io.Reader) (*notebook.CoverageReport, error) {
	profiles, err := cover.ParseProfilesFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing cover profile: %w", err)
	}
	return FromProfiles(profiles), nil
}

func percentOf(covered, total int64) float64 {
	if total == 0 {
		return 100
	}
	return float64(covered) / float64(total) * 100
}
