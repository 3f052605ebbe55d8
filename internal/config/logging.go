package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a text slog.Logger writing to w at the given level.
// Unknown level strings fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// Log logs the resolved settings in a granular way.
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger.
func LogWithLogger(s *Settings, logger *slog.Logger) {
	logger.Info("Config: repo_url", "value", s.RepoURL)
	logger.Info("Config: root_ref", "value", s.RootRef)
	logger.Info("Config: cache_dir", "value", s.CacheDir)
	logger.Info("Config: output_dir", "value", s.OutputDir)
	logger.Info("Config: window_lines", "value", s.WindowLines)
	logger.Info("Config: overlap_lines", "value", s.OverlapLines)
	logger.Info("Config: force_refresh", "value", s.ForceRefresh)
}
