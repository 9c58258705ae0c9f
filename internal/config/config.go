// Package config reads the toolkit settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ha1tch/fcstm-toolkit/pkg/chart"
	"github.com/ha1tch/fcstm-toolkit/pkg/chartfile"
)

// Config holds the settings shared by the command line tools.
type Config struct {
	LogLevel   slog.Level
	Format     chartfile.Format
	UndoLevels int
	DSN        string
	PNGWidth   int
	PNGHeight  int
}

// Default returns the settings used when no variable is set.
func Default() Config {
	png := chartfile.DefaultPNGOptions()
	return Config{
		LogLevel:   slog.LevelInfo,
		Format:     chartfile.FormatJSON,
		UndoLevels: chart.DefaultUndoLevels,
		PNGWidth:   png.Width,
		PNGHeight:  png.Height,
	}
}

// Load reads FCSTM_* variables from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads settings through getenv. Unset or empty variables keep
// their defaults.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := getenv("FCSTM_LOG_LEVEL"); v != "" {
		lvl, err := parseLevel(v)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = lvl
	}
	if v := getenv("FCSTM_FORMAT"); v != "" {
		f, err := chartfile.ParseFormat(v)
		if err != nil {
			return cfg, fmt.Errorf("FCSTM_FORMAT: %w", err)
		}
		cfg.Format = f
	}

	var err error
	if cfg.UndoLevels, err = positiveInt(getenv, "FCSTM_UNDO_LEVELS", cfg.UndoLevels); err != nil {
		return cfg, err
	}
	if cfg.PNGWidth, err = positiveInt(getenv, "FCSTM_PNG_WIDTH", cfg.PNGWidth); err != nil {
		return cfg, err
	}
	if cfg.PNGHeight, err = positiveInt(getenv, "FCSTM_PNG_HEIGHT", cfg.PNGHeight); err != nil {
		return cfg, err
	}

	cfg.DSN = getenv("FCSTM_DB_DSN")
	return cfg, nil
}

// Logger builds a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("FCSTM_LOG_LEVEL: unknown level %q", s)
}

func positiveInt(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("%s: want a positive integer, got %q", key, v)
	}
	return n, nil
}
