package logger

import (
	"log/slog"
	"os"

	"github.com/SavtechSolutions/ignite/types"
)

// Slog adapts a *slog.Logger to types.Logger. Key-value pairs pass through
// unchanged, so structured attributes survive the adaptation.
type Slog struct {
	base *slog.Logger
}

var _ types.Logger = (*Slog)(nil)

// NewSlog wraps an existing slog logger.
//
// Parameters:
//   - base: Configured slog logger; its handler decides format and level
//
// Returns:
//   - *Slog: Adapter usable as the grid's logger
func NewSlog(base *slog.Logger) *Slog {
	return &Slog{base: base}
}

// NewSlogDefault wraps slog.Default.
func NewSlogDefault() *Slog {
	return &Slog{base: slog.Default()}
}

func (l *Slog) Debug(msg string, keysAndValues ...any) {
	l.base.Debug(msg, keysAndValues...)
}

func (l *Slog) Info(msg string, keysAndValues ...any) {
	l.base.Info(msg, keysAndValues...)
}

func (l *Slog) Warn(msg string, keysAndValues ...any) {
	l.base.Warn(msg, keysAndValues...)
}

func (l *Slog) Error(msg string, keysAndValues ...any) {
	l.base.Error(msg, keysAndValues...)
}

// Fatal logs at error level and exits; slog has no fatal level of its own.
func (l *Slog) Fatal(msg string, keysAndValues ...any) {
	l.base.Error(msg, keysAndValues...)
	os.Exit(1)
}
