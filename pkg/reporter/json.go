package reporter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkoosis/labreport/pkg/notebook"
)

// JSONReporter serializes the notebook at the end of the run.
type JSONReporter struct{}

// NewJSON returns a JSON reporter.
func NewJSON(Options) *JSONReporter { return &JSONReporter{} }

func (*JSONReporter) Incremental() bool { return false }

func (*JSONReporter) Start(context.Context, int) error { return nil }

func (*JSONReporter) Test(context.Context, notebook.TestResult) error { return nil }

func (*JSONReporter) End(_ context.Context, nb *notebook.Notebook) (string, error) {
	data, err := json.MarshalIndent(nb, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding notebook: %w", err)
	}
	return string(data) + "\n", nil
}
