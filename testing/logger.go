package testing

import (
	"testing"

	"github.com/SavtechSolutions/ignite/internal/logger"
	"github.com/SavtechSolutions/ignite/types"
)

// NewTestLogger creates a logger that writes through t.Logf, keeping grid
// log output attached to the test that produced it.
func NewTestLogger(t *testing.T) types.Logger {
	return logger.NewTest(t)
}
