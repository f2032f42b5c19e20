package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the service logger. LOG_FORMAT=json selects the JSON
// handler, anything else gets the text handler. Unknown LOG_LEVEL values
// fall back to info.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLevel(cfg),
	}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", "nectar-erp"))
}

func parseLevel(cfg *Config) slog.Level {
	if cfg == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
