// Package detect sniffs stdin to determine the input format.
package detect

import (
	"bytes"
	"encoding/json"
)

// Format represents a recognized input format.
type Format int

const (
	Unknown    Format = iota
	Notebook          // notebook JSON document, as written by the json reporter
	GoTestJSON        // go test -json NDJSON stream
)

func (f Format) String() string {
	switch f {
	case Notebook:
		return "notebook"
	case GoTestJSON:
		return "go-test-json"
	default:
		return "unknown"
	}
}

// notebookKeys are the top-level keys of a notebook document.
var notebookKeys = map[string]bool{
	"tests": true, "leaks": true, "duration": true, "coverage": true,
}

// Sniff examines the first bytes of input to determine format.
// A prefix is enough: the first line decides go test -json, the first
// object key decides a notebook document.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 || data[0] != '{' {
		return Unknown
	}
	if isGoTestJSON(data) {
		return GoTestJSON
	}
	if isNotebook(data) {
		return Notebook
	}
	return Unknown
}

func isGoTestJSON(data []byte) bool {
	firstLine, _, _ := bytes.Cut(data, []byte("\n"))

	var event struct {
		Action  string `json:"Action"`
		Package string `json:"Package"`
	}
	if err := json.Unmarshal(firstLine, &event); err != nil {
		return false
	}

	validActions := map[string]bool{
		"start": true, "run": true, "pause": true, "cont": true,
		"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
	}
	return validActions[event.Action]
}

func isNotebook(data []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return false
	}
	tok, err := dec.Token()
	if err != nil {
		return false
	}
	key, ok := tok.(string)
	return ok && notebookKeys[key]
}
