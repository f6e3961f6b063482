package reporter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownReporter matches every *UnknownReporterError.
var ErrUnknownReporter = errors.New("unknown reporter")

// UnknownReporterError is returned when no reporter is registered under Name.
type UnknownReporterError struct {
	Name  string
	Known []string
}

func (e *UnknownReporterError) Error() string {
	return fmt.Sprintf("unknown reporter %q (expected %s)", e.Name, strings.Join(e.Known, ", "))
}

// Is reports whether target is ErrUnknownReporter.
func (e *UnknownReporterError) Is(target error) bool {
	return target == ErrUnknownReporter
}

// FormattingError is returned when a reporter fails while rendering.
// No partial output is guaranteed.
type FormattingError struct {
	Reporter string
	Err      error
}

func (e *FormattingError) Error() string {
	return fmt.Sprintf("%s reporter: %v", e.Reporter, e.Err)
}

func (e *FormattingError) Unwrap() error { return e.Err }

// formatting wraps err as a FormattingError unless it already is one.
func formatting(name string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FormattingError
	if errors.As(err, &fe) {
		return err
	}
	return &FormattingError{Reporter: name, Err: err}
}
