package natsbus

import (
	"errors"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/SavtechSolutions/ignite/types"
)

// wireSentinels are the errors a remote handler may return that callers
// match with errors.Is. Reply envelopes carry only the error string, so
// decodeError searches the string for these and restores the chain.
var wireSentinels = []error{
	types.ErrDuplicateName,
	types.ErrConfiguration,
	types.ErrInstanceInit,
	types.ErrServiceUnavailable,
	types.ErrAffinityUnresolved,
	types.ErrFactoryNotRegistered,
	types.ErrNotCoordinator,
}

type remoteError struct {
	msg   string
	cause error
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.cause }

// decodeError turns a remote error string back into an error. When the
// string embeds a known sentinel's message, the returned error unwraps to
// that sentinel.
func decodeError(msg string) error {
	for _, sentinel := range wireSentinels {
		if strings.Contains(msg, sentinel.Error()) {
			return &remoteError{msg: msg, cause: sentinel}
		}
	}

	return errors.New(msg)
}

// IsConnectivityError checks if an error is caused by connectivity issues
// rather than a handler-level failure. Callers use this to distinguish an
// unreachable node from a node that rejected the request.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if error indicates connectivity issue
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrNoResponders) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}
