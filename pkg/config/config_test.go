package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv(EnvCatalog, "")
	t.Setenv(EnvOutput, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogJSON, "")
	t.Setenv(EnvCheck, "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog, cfg.CatalogPath)
	assert.Equal(t, OutputTable, cfg.Output)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.False(t, cfg.Check)
}

func TestLoadFromEnvValidConfig(t *testing.T) {
	t.Setenv(EnvCatalog, "testdata/lab.yaml")
	t.Setenv(EnvOutput, "JSON")
	t.Setenv(EnvLogLevel, "Debug")
	t.Setenv(EnvLogJSON, "true")
	t.Setenv(EnvCheck, "1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "testdata/lab.yaml", cfg.CatalogPath)
	assert.Equal(t, OutputJSON, cfg.Output)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
	assert.True(t, cfg.Check)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}

func TestLoadFromEnvInvalidOutput(t *testing.T) {
	t.Setenv(EnvOutput, "xml")
	t.Setenv(EnvLogLevel, "")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.Contains(t, err.Error(), "xml")
}

func TestLoadFromEnvUnparsableBoolFallsBack(t *testing.T) {
	t.Setenv(EnvCheck, "maybe")
	t.Setenv(EnvOutput, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.Check)
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := &Config{Output: "csv", LogLevel: "trace"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCatalog)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{input: "debug", want: zapcore.DebugLevel},
		{input: "info", want: zapcore.InfoLevel},
		{input: "WARN", want: zapcore.WarnLevel},
		{input: "error", want: zapcore.ErrorLevel},
		{input: "verbose", want: zapcore.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := (&Config{LogLevel: tt.input}).Level()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLogLevel)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, level)
		})
	}
}
