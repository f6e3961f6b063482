// labreport renders test run results in one of several report formats.
//
// Usage:
//
//	go test -json ./... | labreport -r tap
//	go test -json -coverprofile=c.out ./... | labreport -r html --coverprofile c.out -o report.html
//	labreport -r console < notebook.json
//
// Accepts two input formats on stdin:
//   - a notebook JSON document, as written by the json reporter
//   - go test -json (test execution events)
//
// Exit codes: 0 when no test failed, 1 when any test failed, 2 on usage or
// internal errors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sethvargo/go-envconfig"

	_ "github.com/dkoosis/labreport/pkg/reporter/markdown"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitError  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code. env reads the
// environment; nil means the process environment.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, env envconfig.Lookuper) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, env: env}
	cmd := NewRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "labreport: %v\n", err)
		return exitError
	}
	return a.code
}
