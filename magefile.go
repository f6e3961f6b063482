//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	modulePath = "github.com/dkoosis/labreport"
	binPath    = "bin/labreport"
)

// Default target - build the binary
var Default = Build

// Build builds the labreport binary with version information.
func Build() error {
	version := gitOutput("dev", "describe", "--tags", "--always", "--dirty", "--match=v*")
	commit := gitOutput("unknown", "rev-parse", "--short", "HEAD")
	date := time.Now().UTC().Format(time.RFC3339)

	ldflags := fmt.Sprintf("-s -w -X '%[1]s/internal/version.Version=%[2]s' -X '%[1]s/internal/version.CommitHash=%[3]s' -X '%[1]s/internal/version.BuildDate=%[4]s'",
		modulePath, version, commit, date)
	fmt.Println("Building labreport...")
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath, "./cmd/labreport"); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Printf("Built: %s\n", binPath)
	return nil
}

// Clean removes build artifacts
func Clean() error {
	for _, p := range []string{"bin", "coverage.out", "report.html"} {
		if err := sh.Rm(p); err != nil {
			return err
		}
	}
	return nil
}

// QA runs formatting, vet, tests and the build.
func QA() {
	mg.SerialDeps(Lint.Format, Lint.Vet, Test.All, Build)
}

// Lint namespace for linting commands
type Lint mg.Namespace

// Format fails when any file needs gofmt.
func (Lint) Format() error {
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Vet runs go vet
func (Lint) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Golangci runs golangci-lint
func (Lint) Golangci() error {
	return sh.RunV("golangci-lint", "run", "--timeout=5m", "./...")
}

// Test namespace for testing commands
type Test mg.Namespace

// All runs all tests
func (Test) All() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs tests with race detector
func (Test) Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Report runs the tests with coverage and renders them with labreport.
// LABREPORT_REPORTER selects the format; the default is an HTML report.
func (Test) Report() error {
	mg.Deps(Build)
	reporter := os.Getenv("LABREPORT_REPORTER")
	if reporter == "" {
		reporter = "html"
	}
	script := strings.Join([]string{
		"go test -json -coverprofile=coverage.out ./...",
		binPath + " -r " + reporter + " --coverprofile coverage.out -o report.html",
	}, " | ")
	_, err := sh.Exec(nil, os.Stdout, os.Stderr, "sh", "-c", script)
	return err
}

func gitOutput(fallback string, args ...string) string {
	out, err := sh.Output("git", args...)
	if err != nil || out == "" {
		return fallback
	}
	return strings.TrimSpace(out)
}
