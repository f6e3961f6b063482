package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG config subdirectory.
const AppName = "labreport"

// LocalConfigFile is looked up in the working directory first.
const LocalConfigFile = ".labreport.yaml"

// Defaults.
const (
	DefaultReporter = "console"
	DefaultTheme    = "default"
	DefaultLevel    = 0
)

// FileConfig is the YAML config file. Nil fields were not set.
type FileConfig struct {
	Reporter        *string `yaml:"reporter"`
	Output          *string `yaml:"output"`
	Level           *int    `yaml:"level"`
	Coverage        *bool   `yaml:"coverage"`
	CoverageGlobal  *string `yaml:"coverage_global"`
	CoverProfile    *string `yaml:"coverprofile"`
	Theme           *string `yaml:"theme"`
	NoColor         *bool   `yaml:"no_color"`
	MetricsTextfile *string `yaml:"metrics_textfile"`
	Debug           *bool   `yaml:"debug"`
}

// UserConfigPath returns $XDG_CONFIG_HOME/labreport/config.yaml.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// LoadFile reads the config file. An explicit path must exist. Without one
// the local file is tried, then the user file; when neither exists LoadFile
// returns an empty FileConfig and an empty path.
func LoadFile(explicit string) (*FileConfig, string, error) {
	if explicit != "" {
		cfg, err := readFile(explicit)
		return cfg, explicit, err
	}
	for _, path := range []string{LocalConfigFile, UserConfigPath()} {
		cfg, err := readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, path, err
	}
	return &FileConfig{}, "", nil
}

func readFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &cfg, nil
}
