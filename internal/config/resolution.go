package config

import (
	"context"
	"fmt"
	"slices"

	"github.com/sethvargo/go-envconfig"

	"github.com/dkoosis/labreport/pkg/reporter"
)

// Source records where a resolved value came from.
type Source string

const (
	SourceCLI     Source = "cli"
	SourceEnv     Source = "env"
	SourceFile    Source = "file"
	SourceDefault Source = "default"
)

// Keys of Config.Sources.
const (
	KeyReporter        = "reporter"
	KeyOutput          = "output"
	KeyLevel           = "level"
	KeyCoverage        = "coverage"
	KeyCoverageGlobal  = "coverage_global"
	KeyCoverProfile    = "coverprofile"
	KeyTheme           = "theme"
	KeyNoColor         = "no_color"
	KeyMetricsTextfile = "metrics_textfile"
	KeyDebug           = "debug"
)

// Config is the resolved configuration.
type Config struct {
	Reporter        string
	Output          string // file path; "" or "-" for stdout
	Level           int
	Coverage        bool
	CoverageGlobal  string
	CoverProfile    string
	Theme           string
	NoColor         bool
	MetricsTextfile string
	Debug           bool

	// ConfigFile is the YAML file that was loaded, if any.
	ConfigFile string
	Sources    map[string]Source
}

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	ConfigFile string

	Reporter        string
	Output          string
	Level           int
	Coverage        bool
	CoverageGlobal  string
	CoverProfile    string
	Theme           string
	NoColor         bool
	MetricsTextfile string
	Debug           bool

	// Flags to track if they were explicitly set by the user
	ReporterSet        bool
	OutputSet          bool
	LevelSet           bool
	CoverageSet        bool
	CoverageGlobalSet  bool
	CoverProfileSet    bool
	ThemeSet           bool
	NoColorSet         bool
	MetricsTextfileSet bool
	DebugSet           bool
}

// envVars is filled by envconfig. noinit keeps unset pointers nil.
type envVars struct {
	Reporter        *string `env:"LABREPORT_REPORTER,noinit"`
	Output          *string `env:"LABREPORT_OUTPUT,noinit"`
	Level           *int    `env:"LABREPORT_LEVEL,noinit"`
	Coverage        *bool   `env:"LABREPORT_COVERAGE,noinit"`
	CoverageGlobal  *string `env:"LABREPORT_COVERAGE_GLOBAL,noinit"`
	Theme           *string `env:"LABREPORT_THEME,noinit"`
	NoColor         *bool   `env:"LABREPORT_NO_COLOR,noinit"`
	NoColorStandard string  `env:"NO_COLOR"`
	MetricsTextfile *string `env:"LABREPORT_METRICS_TEXTFILE,noinit"`
	Debug           *bool   `env:"LABREPORT_DEBUG,noinit"`
}

// Resolve merges flags, environment, config file and defaults.
// lookuper reads the environment; nil means the process environment.
func Resolve(ctx context.Context, flags CliFlags, lookuper envconfig.Lookuper) (*Config, error) {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	var env envVars
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if env.NoColor == nil && env.NoColorStandard != "" {
		noColor := true
		env.NoColor = &noColor
	}

	file, path, err := LoadFile(flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{ConfigFile: path, Sources: make(map[string]Source)}
	resolve(cfg, KeyReporter, &cfg.Reporter, DefaultReporter, flags.ReporterSet, flags.Reporter, env.Reporter, file.Reporter)
	resolve(cfg, KeyOutput, &cfg.Output, "", flags.OutputSet, flags.Output, env.Output, file.Output)
	resolve(cfg, KeyLevel, &cfg.Level, DefaultLevel, flags.LevelSet, flags.Level, env.Level, file.Level)
	resolve(cfg, KeyCoverage, &cfg.Coverage, false, flags.CoverageSet, flags.Coverage, env.Coverage, file.Coverage)
	resolve(cfg, KeyCoverageGlobal, &cfg.CoverageGlobal, "", flags.CoverageGlobalSet, flags.CoverageGlobal, env.CoverageGlobal, file.CoverageGlobal)
	resolve(cfg, KeyCoverProfile, &cfg.CoverProfile, "", flags.CoverProfileSet, flags.CoverProfile, nil, file.CoverProfile)
	resolve(cfg, KeyTheme, &cfg.Theme, DefaultTheme, flags.ThemeSet, flags.Theme, env.Theme, file.Theme)
	resolve(cfg, KeyNoColor, &cfg.NoColor, false, flags.NoColorSet, flags.NoColor, env.NoColor, file.NoColor)
	resolve(cfg, KeyMetricsTextfile, &cfg.MetricsTextfile, "", flags.MetricsTextfileSet, flags.MetricsTextfile, env.MetricsTextfile, file.MetricsTextfile)
	resolve(cfg, KeyDebug, &cfg.Debug, false, flags.DebugSet, flags.Debug, env.Debug, file.Debug)

	// a cover profile implies coverage was requested
	if cfg.CoverProfile != "" && !cfg.Coverage && cfg.Sources[KeyCoverage] == SourceDefault {
		cfg.Coverage = true
		cfg.Sources[KeyCoverage] = cfg.Sources[KeyCoverProfile]
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// resolve assigns the highest-priority value to dst and records its source.
func resolve[T any](cfg *Config, key string, dst *T, def T, cliSet bool, cli T, env, file *T) {
	switch {
	case cliSet:
		*dst, cfg.Sources[key] = cli, SourceCLI
	case env != nil:
		*dst, cfg.Sources[key] = *env, SourceEnv
	case file != nil:
		*dst, cfg.Sources[key] = *file, SourceFile
	default:
		*dst, cfg.Sources[key] = def, SourceDefault
	}
}

func validate(cfg *Config) error {
	if cfg.Reporter == "" {
		return fmt.Errorf("reporter cannot be empty")
	}
	if cfg.Level < 0 {
		return fmt.Errorf("level must not be negative, got: %d", cfg.Level)
	}
	if themes := reporter.ThemeNames(); !slices.Contains(themes, cfg.Theme) {
		return fmt.Errorf("invalid theme: %s (must be one of %v)", cfg.Theme, themes)
	}
	return nil
}
