// Package logger holds the types.Logger implementations the grid wires by
// default: a discard logger, an slog adapter and a testing.T adapter.
package logger

import "github.com/SavtechSolutions/ignite/types"

// NopLogger discards every message. It is the fallback when no WithLogger
// option is given, so library code can log unconditionally.
type NopLogger struct{}

var _ types.Logger = (*NopLogger)(nil)

// NewNop returns a logger that drops everything.
func NewNop() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

// Fatal discards the message like the other levels and never exits the
// process.
func (*NopLogger) Fatal(string, ...any) {}
