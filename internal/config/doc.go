// Package config handles configuration loading and merging for labreport.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--reporter, --output, --level, --theme, --no-color, etc.)
//  2. Environment variables (LABREPORT_REPORTER, LABREPORT_NO_COLOR, NO_COLOR, ...)
//  3. YAML config file (.labreport.yaml in the working directory, else
//     $XDG_CONFIG_HOME/labreport/config.yaml)
//  4. Hardcoded defaults
//
// When a higher-priority source sets a value, it overrides any lower-priority values.
// The source that won is recorded per key in Config.Sources.
//
// # Environment Variables
//
//   - LABREPORT_REPORTER: output format (console, json, html, tap, ...)
//   - LABREPORT_OUTPUT: report file path; empty or "-" means stdout
//   - LABREPORT_LEVEL: verbosity, 0 or more
//   - LABREPORT_COVERAGE: "true" to request coverage
//   - LABREPORT_THEME: console theme (default, vibrant, mono)
//   - LABREPORT_NO_COLOR: "true" or "1" to disable colors
//   - NO_COLOR: any non-empty value disables colors
//   - LABREPORT_METRICS_TEXTFILE: where to write Prometheus metrics
//   - LABREPORT_DEBUG: "true" to enable debug logging
package config
