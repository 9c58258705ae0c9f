package config

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/fcstm-toolkit/pkg/chartfile"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 50, cfg.UndoLevels)
	assert.Equal(t, chartfile.FormatJSON, cfg.Format)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"FCSTM_LOG_LEVEL":   "DEBUG",
		"FCSTM_FORMAT":      "yml",
		"FCSTM_UNDO_LEVELS": "10",
		"FCSTM_DB_DSN":      "postgres://localhost/charts",
		"FCSTM_PNG_WIDTH":   "1024",
		"FCSTM_PNG_HEIGHT":  "768",
	}))
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, chartfile.FormatYAML, cfg.Format)
	assert.Equal(t, 10, cfg.UndoLevels)
	assert.Equal(t, "postgres://localhost/charts", cfg.DSN)
	assert.Equal(t, 1024, cfg.PNGWidth)
	assert.Equal(t, 768, cfg.PNGHeight)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"FCSTM_LOG_LEVEL":   "loud",
		"FCSTM_FORMAT":      "xml",
		"FCSTM_UNDO_LEVELS": "0",
		"FCSTM_PNG_WIDTH":   "wide",
		"FCSTM_PNG_HEIGHT":  "-3",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := LoadFrom(env(map[string]string{key: val}))
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoggerHonoursLevel(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = slog.LevelWarn

	var buf strings.Builder
	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown", "chart", "door")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "chart=door")
}
