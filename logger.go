package ignite

import (
	"log/slog"

	"github.com/SavtechSolutions/ignite/internal/logger"
)

// NewSlogLogger adapts a structured slog logger to the grid's Logger
// interface. Key/value pairs pass through unchanged.
//
// Parameters:
//   - base: Configured slog logger
//
// Returns:
//   - Logger: Adapter suitable for WithLogger
//
// Example:
//
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
//	grid, _ := ignite.New(&cfg, bus, feed, ignite.WithLogger(ignite.NewSlogLogger(slog.New(handler))))
func NewSlogLogger(base *slog.Logger) Logger {
	return logger.NewSlog(base)
}

// NewDefaultLogger returns a Logger backed by the default slog logger.
func NewDefaultLogger() Logger {
	return logger.NewSlogDefault()
}
