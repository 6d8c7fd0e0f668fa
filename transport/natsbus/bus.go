// Package natsbus implements the node-to-node message bus over core NATS
// request/reply.
//
// Every node listens on "<prefix>.<nodeID>.<subject>". Requests carry a
// JSON envelope naming the sender; replies carry either the handler's
// payload or its error string. Error strings that embed a known sentinel
// are rehydrated on the caller's side so errors.Is keeps working across
// the wire.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/SavtechSolutions/ignite/internal/logger"
	"github.com/SavtechSolutions/ignite/types"
)

const defaultPrefix = "ignite"

// Bus is a types.Bus backed by a NATS connection.
type Bus struct {
	nc     *nats.Conn
	node   string
	prefix string
	logger types.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs []*nats.Subscription
	wg   sync.WaitGroup
}

var _ types.Bus = (*Bus)(nil)

// Option configures a Bus.
type Option func(*Bus)

// WithPrefix overrides the subject prefix shared by all nodes of one grid.
// Grids with different prefixes can share a NATS cluster without crosstalk.
func WithPrefix(prefix string) Option {
	return func(b *Bus) {
		b.prefix = prefix
	}
}

// WithLogger sets the logger for transport-level failures.
func WithLogger(logger types.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// New creates a bus endpoint for the given node.
//
// Parameters:
//   - nc: NATS connection (owned by the caller)
//   - nodeID: This node's address on the bus
//   - opts: Optional configuration
//
// Returns:
//   - *Bus: Bus endpoint (call Close when done)
func New(nc *nats.Conn, nodeID string, opts ...Option) *Bus {
	b := &Bus{
		nc:     nc,
		node:   nodeID,
		prefix: defaultPrefix,
		logger: logger.NewNop(),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())

	return b
}

// envelope is the request body on the wire.
type envelope struct {
	From string `json:"from"`
	Data []byte `json:"data,omitempty"`
}

// reply is the response body on the wire. Error is the handler's error
// string, empty on success.
type reply struct {
	Data  []byte `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (b *Bus) subject(node, subj string) string {
	return b.prefix + "." + node + "." + subj
}

// Handle subscribes this node to a subject. Handlers run on their own
// goroutine so a slow handler does not stall the connection's dispatcher.
func (b *Bus) Handle(subject string, fn types.BusHandler) error {
	sub, err := b.nc.Subscribe(b.subject(b.node, subject), func(msg *nats.Msg) {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.dispatch(msg, fn)
		}()
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return nil
}

func (b *Bus) dispatch(msg *nats.Msg, fn types.BusHandler) {
	var env envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		b.logger.Warn("dropping malformed bus message", "subject", msg.Subject, "error", err)

		return
	}

	data, err := fn(b.ctx, env.From, env.Data)

	if msg.Reply == "" {
		if err != nil {
			b.logger.Warn("bus handler failed", "subject", msg.Subject, "from", env.From, "error", err)
		}

		return
	}

	out := reply{Data: data}
	if err != nil {
		out.Error = err.Error()
	}

	body, err := json.Marshal(out)
	if err != nil {
		b.logger.Error("failed to marshal bus reply", "subject", msg.Subject, "error", err)

		return
	}

	if err := msg.Respond(body); err != nil {
		b.logger.Warn("failed to send bus reply", "subject", msg.Subject, "error", err)
	}
}

// Request sends a message to a node and waits for its handler's reply.
func (b *Bus) Request(ctx context.Context, node, subject string, data []byte) ([]byte, error) {
	body, err := json.Marshal(envelope{From: b.node, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bus request: %w", err)
	}

	msg, err := b.nc.RequestWithContext(ctx, b.subject(node, subject), body)
	if err != nil {
		return nil, fmt.Errorf("request to %s on %s failed: %w", node, subject, err)
	}

	var out reply
	if err := json.Unmarshal(msg.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bus reply: %w", err)
	}

	if out.Error != "" {
		return nil, decodeError(out.Error)
	}

	return out.Data, nil
}

// Send publishes a message to a node without waiting for a result.
func (b *Bus) Send(_ context.Context, node, subject string, data []byte) error {
	body, err := json.Marshal(envelope{From: b.node, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal bus message: %w", err)
	}

	if err := b.nc.Publish(b.subject(node, subject), body); err != nil {
		return fmt.Errorf("send to %s on %s failed: %w", node, subject, err)
	}

	return nil
}

// Close unsubscribes all handlers and waits for in-flight dispatches.
// The NATS connection itself is left open for the caller.
func (b *Bus) Close() error {
	b.cancel()

	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	var firstErr error
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to unsubscribe: %w", err)
		}
	}

	b.wg.Wait()

	return firstErr
}
