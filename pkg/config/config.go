// Package config provides CLI configuration with validation.
//
// Only the command line tool is configurable. Stubification itself has no
// configuration surface: the denylist and the root types are fixed.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// OutputFormat selects how reports are printed.
type OutputFormat string

const (
	// OutputTable prints a human readable table.
	OutputTable OutputFormat = "table"
	// OutputJSON prints the report as JSON.
	OutputJSON OutputFormat = "json"
	// OutputYAML prints the report as YAML.
	OutputYAML OutputFormat = "yaml"
)

// Environment variables read by LoadFromEnv.
const (
	EnvCatalog  = "STUBIFY_CATALOG"
	EnvOutput   = "STUBIFY_OUTPUT"
	EnvLogLevel = "STUBIFY_LOG_LEVEL"
	EnvLogJSON  = "STUBIFY_LOG_JSON"
	EnvCheck    = "STUBIFY_CHECK"
)

// Defaults.
const (
	DefaultCatalog  = "resources.yaml"
	DefaultOutput   = OutputTable
	DefaultLogLevel = "info"
)

// Configuration errors.
var (
	ErrMissingCatalog  = errors.New("STUBIFY_CATALOG is required")
	ErrInvalidOutput   = errors.New("STUBIFY_OUTPUT must be table, json, or yaml")
	ErrInvalidLogLevel = errors.New("STUBIFY_LOG_LEVEL must be debug, info, warn, or error")
)

// wrapErrWithValue wraps an error with an invalid value for context.
func wrapErrWithValue(err error, value string) error {
	return fmt.Errorf("%w: %s", err, value)
}

// Config holds CLI configuration.
type Config struct {
	// CatalogPath is the resource catalog to load.
	CatalogPath string
	// Output is the report format.
	Output OutputFormat
	// LogLevel is the minimum log level.
	LogLevel string
	// LogJSON switches to JSON production logging.
	LogJSON bool
	// Check runs stubify.Check on every stubified type.
	Check bool
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		CatalogPath: getEnvOrDefault(EnvCatalog, DefaultCatalog),
		Output:      OutputFormat(strings.ToLower(getEnvOrDefault(EnvOutput, string(DefaultOutput)))),
		LogLevel:    strings.ToLower(getEnvOrDefault(EnvLogLevel, DefaultLogLevel)),
		LogJSON:     getEnvBool(EnvLogJSON, false),
		Check:       getEnvBool(EnvCheck, false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.CatalogPath == "" {
		errs = append(errs, ErrMissingCatalog)
	}

	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		errs = append(errs, wrapErrWithValue(ErrInvalidOutput, string(c.Output)))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, wrapErrWithValue(ErrInvalidLogLevel, c.LogLevel)
	}
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getEnvBool parses a boolean environment variable.
func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}
