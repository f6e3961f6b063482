package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the working directory and XDG config home at empty
// temporary directories.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func noEnv() envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{})
}

func TestResolve_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Resolve(context.Background(), CliFlags{}, noEnv())
	require.NoError(t, err)
	assert.Equal(t, DefaultReporter, cfg.Reporter)
	assert.Equal(t, DefaultTheme, cfg.Theme)
	assert.Zero(t, cfg.Level)
	assert.False(t, cfg.NoColor)
	assert.Empty(t, cfg.ConfigFile)
	for key, src := range cfg.Sources {
		assert.Equal(t, SourceDefault, src, key)
	}
}

func TestEnvVars_UnsetStayNil(t *testing.T) {
	t.Parallel()

	var env envVars
	require.NoError(t, envconfig.ProcessWith(context.Background(), &envconfig.Config{Target: &env, Lookuper: noEnv()}))
	assert.Nil(t, env.Reporter)
	assert.Nil(t, env.Theme)
	assert.Nil(t, env.Level)
	assert.Nil(t, env.NoColor)

	require.NoError(t, envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &env,
		Lookuper: envconfig.MapLookuper(map[string]string{"LABREPORT_LEVEL": "0"}),
	}))
	require.NotNil(t, env.Level, "explicit zero is still set")
	assert.Zero(t, *env.Level)
}

func TestResolve_UnsetEnvFallsThrough(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, LocalConfigFile), "theme: mono\n")

	cfg, err := Resolve(context.Background(), CliFlags{Reporter: "tap", ReporterSet: true}, noEnv())
	require.NoError(t, err)
	assert.Equal(t, SourceCLI, cfg.Sources[KeyReporter])
	assert.Equal(t, SourceFile, cfg.Sources[KeyTheme])
	assert.Equal(t, "mono", cfg.Theme)
	assert.Equal(t, SourceDefault, cfg.Sources[KeyLevel])
	assert.Equal(t, SourceDefault, cfg.Sources[KeyNoColor])
}

func TestResolve_PriorityOrder(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, LocalConfigFile), "reporter: html\nlevel: 2\ntheme: mono\noutput: report.html\n")

	tests := []struct {
		name       string
		flags      CliFlags
		env        map[string]string
		wantValue  string
		wantSource Source
	}{
		{name: "file over default", wantValue: "html", wantSource: SourceFile},
		{
			name:       "env over file",
			env:        map[string]string{"LABREPORT_REPORTER": "tap"},
			wantValue:  "tap",
			wantSource: SourceEnv,
		},
		{
			name:       "cli over env",
			flags:      CliFlags{Reporter: "json", ReporterSet: true},
			env:        map[string]string{"LABREPORT_REPORTER": "tap"},
			wantValue:  "json",
			wantSource: SourceCLI,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(context.Background(), tt.flags, envconfig.MapLookuper(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, cfg.Reporter)
			assert.Equal(t, tt.wantSource, cfg.Sources[KeyReporter])
			assert.Equal(t, 2, cfg.Level)
			assert.Equal(t, SourceFile, cfg.Sources[KeyLevel])
			assert.Equal(t, LocalConfigFile, cfg.ConfigFile)
		})
	}
}

func TestResolve_NoColor(t *testing.T) {
	isolate(t)

	tests := []struct {
		name       string
		flags      CliFlags
		env        map[string]string
		want       bool
		wantSource Source
	}{
		{name: "NO_COLOR any value", env: map[string]string{"NO_COLOR": "1"}, want: true, wantSource: SourceEnv},
		{name: "LABREPORT_NO_COLOR wins over NO_COLOR", env: map[string]string{"NO_COLOR": "1", "LABREPORT_NO_COLOR": "false"}, want: false, wantSource: SourceEnv},
		{name: "cli wins", flags: CliFlags{NoColor: false, NoColorSet: true}, env: map[string]string{"NO_COLOR": "1"}, want: false, wantSource: SourceCLI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(context.Background(), tt.flags, envconfig.MapLookuper(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.NoColor)
			assert.Equal(t, tt.wantSource, cfg.Sources[KeyNoColor])
		})
	}
}

func TestResolve_UserConfigFile(t *testing.T) {
	isolate(t)
	writeFile(t, UserConfigPath(), "theme: vibrant\n")

	cfg, err := Resolve(context.Background(), CliFlags{}, noEnv())
	require.NoError(t, err)
	assert.Equal(t, "vibrant", cfg.Theme)
	assert.Equal(t, UserConfigPath(), cfg.ConfigFile)
}

func TestResolve_ExplicitConfigMustExist(t *testing.T) {
	dir := isolate(t)

	_, err := Resolve(context.Background(), CliFlags{ConfigFile: filepath.Join(dir, "missing.yaml")}, noEnv())
	assert.Error(t, err)
}

func TestResolve_CoverProfileImpliesCoverage(t *testing.T) {
	isolate(t)

	cfg, err := Resolve(context.Background(), CliFlags{CoverProfile: "c.out", CoverProfileSet: true}, noEnv())
	require.NoError(t, err)
	assert.True(t, cfg.Coverage)
	assert.Equal(t, SourceCLI, cfg.Sources[KeyCoverage])
}

func TestResolve_Invalid(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name  string
		flags CliFlags
		env   map[string]string
		file  string
	}{
		{name: "negative level", flags: CliFlags{Level: -1, LevelSet: true}},
		{name: "unknown theme", env: map[string]string{"LABREPORT_THEME": "neon"}},
		{name: "empty reporter", flags: CliFlags{ReporterSet: true}},
		{name: "bad env int", env: map[string]string{"LABREPORT_LEVEL": "loud"}},
		{name: "bad yaml", file: "level: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := tt.flags
			if tt.file != "" {
				flags.ConfigFile = filepath.Join(dir, tt.name+".yaml")
				writeFile(t, flags.ConfigFile, tt.file)
			}
			_, err := Resolve(context.Background(), flags, envconfig.MapLookuper(tt.env))
			assert.Error(t, err)
		})
	}
}
