package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OutcomeKind identifies which variant an Outcome holds.
type OutcomeKind int

const (
	// Passed means the test completed without failure.
	Passed OutcomeKind = iota
	// FailedWithMessage means the test failed with a descriptive error.
	FailedWithMessage
	// FailedWithoutMessage means the test failed with a raised value that
	// carried no descriptive message.
	FailedWithoutMessage
)

func (k OutcomeKind) String() string {
	switch k {
	case Passed:
		return "passed"
	case FailedWithMessage:
		return "failed"
	case FailedWithoutMessage:
		return "failed-without-message"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of a single test. The zero value is Passed.
//
// On the wire an Outcome is false (passed), a string (failed with that
// message) or true (failed without a message).
type Outcome struct {
	kind    OutcomeKind
	message string
	stack   []string
}

// Pass returns a passing outcome.
func Pass() Outcome {
	return Outcome{}
}

// FailWith returns a failure carrying msg and optional diagnostic lines.
// An empty msg degrades to FailWithoutMessage.
func FailWith(msg string, stack ...string) Outcome {
	if msg == "" {
		return Outcome{kind: FailedWithoutMessage, stack: stack}
	}
	return Outcome{kind: FailedWithMessage, message: msg, stack: stack}
}

// FailWithoutMessage returns a failure that has no descriptive message.
func FailWithoutMessage() Outcome {
	return Outcome{kind: FailedWithoutMessage}
}

// Kind reports the variant held by o.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// Failed reports whether o is either failure variant.
func (o Outcome) Failed() bool { return o.kind != Passed }

// Message returns the failure message; empty unless Kind is FailedWithMessage.
func (o Outcome) Message() string { return o.message }

// Stack returns the opaque diagnostic lines attached to a failure.
func (o Outcome) Stack() []string { return o.stack }

// MarshalJSON encodes o as false, the message string, or true.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case Passed:
		return []byte("false"), nil
	case FailedWithMessage:
		return json.Marshal(o.message)
	case FailedWithoutMessage:
		return []byte("true"), nil
	default:
		return nil, fmt.Errorf("%w: unknown outcome kind %d", ErrInvalid, int(o.kind))
	}
}

// UnmarshalJSON decodes false/null, true or a message string.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "false", "null":
		*o = Pass()
		return nil
	case "true":
		*o = FailWithoutMessage()
		return nil
	}
	var msg string
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: err must be false, true or a string: %s", ErrInvalid, data)
	}
	*o = FailWith(msg)
	return nil
}
