package logger

import (
	"fmt"
	"strings"
	"testing"

	"github.com/SavtechSolutions/ignite/types"
)

// TestLogger routes messages through testing.T so they show up interleaved
// with test output and only on failure or -v.
type TestLogger struct {
	t *testing.T
}

var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a logger bound to the given test.
func NewTest(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Debug(msg string, keysAndValues ...any) { l.log("DEBUG", msg, keysAndValues) }
func (l *TestLogger) Info(msg string, keysAndValues ...any)  { l.log("INFO", msg, keysAndValues) }
func (l *TestLogger) Warn(msg string, keysAndValues ...any)  { l.log("WARN", msg, keysAndValues) }
func (l *TestLogger) Error(msg string, keysAndValues ...any) { l.log("ERROR", msg, keysAndValues) }

// Fatal fails the test immediately.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.t.Fatalf("FATAL: %s %s", msg, renderPairs(keysAndValues))
}

func (l *TestLogger) log(level, msg string, keysAndValues []any) {
	l.t.Logf("%s: %s %s", level, msg, renderPairs(keysAndValues))
}

// renderPairs formats alternating keys and values as k=v tokens. An odd
// trailing key renders with a placeholder value instead of being dropped.
func renderPairs(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, "%v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, "%v=?", keysAndValues[i])
		}
	}

	return b.String()
}
