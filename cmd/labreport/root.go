package main

import (
	"io"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/dkoosis/labreport/internal/config"
	"github.com/dkoosis/labreport/internal/version"
)

// app carries the process streams through command execution.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	env    envconfig.Lookuper
	code   int
}

// NewRootCmd creates the root command, which renders stdin.
func NewRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labreport [flags] < input",
		Short: "Render test results as console, JSON, HTML, TAP or Markdown reports",
		Long: `labreport reads a test run from stdin and renders it with the selected reporter.

Input is either a notebook JSON document (as written by the json reporter) or a
go test -json stream. TAP output is streamed live while go test is running.`,
		Version:       version.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags, err := cliFlags(cmd)
			if err != nil {
				return err
			}
			code, err := a.render(cmd.Context(), flags)
			a.code = code
			return err
		},
	}

	f := cmd.Flags()
	f.StringP("reporter", "r", config.DefaultReporter, "Report format (see 'labreport reporters')")
	f.StringP("output", "o", "", "Write the report to this file instead of stdout")
	f.IntP("level", "l", config.DefaultLevel, "Verbosity level")
	f.Bool("coverage", false, "Coverage collection was requested for the run")
	f.String("coverage-global", "", "Name of the coverage accumulator")
	f.String("coverprofile", "", "Go cover profile providing per-file coverage")
	f.String("theme", config.DefaultTheme, "Console theme: default, vibrant, mono")
	f.Bool("no-color", false, "Disable ANSI colors")
	f.String("metrics-textfile", "", "Write Prometheus metrics for the run to this file")
	f.String("config", "", "Config file (default .labreport.yaml, then the XDG config dir)")
	f.Bool("debug", false, "Enable debug logging")

	cmd.AddCommand(NewReportersCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// cliFlags reads the flags and records which ones the user set.
func cliFlags(cmd *cobra.Command) (config.CliFlags, error) {
	f := cmd.Flags()
	var c config.CliFlags
	var err error
	get := func(fn func() error) {
		if err == nil {
			err = fn()
		}
	}
	get(func() (e error) { c.ConfigFile, e = f.GetString("config"); return })
	get(func() (e error) { c.Reporter, e = f.GetString("reporter"); return })
	get(func() (e error) { c.Output, e = f.GetString("output"); return })
	get(func() (e error) { c.Level, e = f.GetInt("level"); return })
	get(func() (e error) { c.Coverage, e = f.GetBool("coverage"); return })
	get(func() (e error) { c.CoverageGlobal, e = f.GetString("coverage-global"); return })
	get(func() (e error) { c.CoverProfile, e = f.GetString("coverprofile"); return })
	get(func() (e error) { c.Theme, e = f.GetString("theme"); return })
	get(func() (e error) { c.NoColor, e = f.GetBool("no-color"); return })
	get(func() (e error) { c.MetricsTextfile, e = f.GetString("metrics-textfile"); return })
	get(func() (e error) { c.Debug, e = f.GetBool("debug"); return })
	if err != nil {
		return c, err
	}

	c.ReporterSet = f.Changed("reporter")
	c.OutputSet = f.Changed("output")
	c.LevelSet = f.Changed("level")
	c.CoverageSet = f.Changed("coverage")
	c.CoverageGlobalSet = f.Changed("coverage-global")
	c.CoverProfileSet = f.Changed("coverprofile")
	c.ThemeSet = f.Changed("theme")
	c.NoColorSet = f.Changed("no-color")
	c.MetricsTextfileSet = f.Changed("metrics-textfile")
	c.DebugSet = f.Changed("debug")
	return c, nil
}
