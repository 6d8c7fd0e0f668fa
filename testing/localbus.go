package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/SavtechSolutions/ignite/types"
)

// LocalNetwork is an in-process message bus connecting simulated nodes.
//
// Each node joins the network with Join and receives a bus scoped to its
// node ID. Requests dispatch synchronously on the caller's goroutine;
// sends are queued and dispatched in order by a single network goroutine,
// mirroring the fire-and-forget publish semantics of a real transport.
// Callers asserting on the effects of a send should poll with
// require.Eventually.
type LocalNetwork struct {
	mu    sync.Mutex
	nodes map[string]*LocalBus
	queue []queuedSend
	wake  chan struct{}
	done  chan struct{}
}

type queuedSend struct {
	from    string
	node    string
	subject string
	data    []byte
}

// NewLocalNetwork creates an empty in-process network. Callers must Close
// it to stop the send dispatcher.
func NewLocalNetwork() *LocalNetwork {
	n := &LocalNetwork{
		nodes: make(map[string]*LocalBus),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}

	go n.dispatchLoop()

	return n
}

// Join registers a node on the network and returns its bus. Joining the
// same ID twice replaces the previous bus.
func (n *LocalNetwork) Join(nodeID string) *LocalBus {
	bus := &LocalBus{
		network:  n,
		nodeID:   nodeID,
		handlers: make(map[string]types.BusHandler),
	}

	n.mu.Lock()
	n.nodes[nodeID] = bus
	n.mu.Unlock()

	return bus
}

// Leave removes a node from the network. Messages to it fail afterwards,
// simulating a crashed node.
func (n *LocalNetwork) Leave(nodeID string) {
	n.mu.Lock()
	delete(n.nodes, nodeID)
	n.mu.Unlock()
}

// Close stops the send dispatcher. Queued sends may be dropped.
func (n *LocalNetwork) Close() {
	close(n.done)
}

func (n *LocalNetwork) lookup(nodeID string) (*LocalBus, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	bus, ok := n.nodes[nodeID]

	return bus, ok
}

// enqueue appends a send to the queue. The queue is unbounded so a handler
// running on the dispatcher goroutine can itself send without deadlocking.
func (n *LocalNetwork) enqueue(msg queuedSend) {
	n.mu.Lock()
	n.queue = append(n.queue, msg)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *LocalNetwork) dispatchLoop() {
	for {
		select {
		case <-n.done:
			return
		case <-n.wake:
		}

		for {
			n.mu.Lock()
			if len(n.queue) == 0 {
				n.mu.Unlock()

				break
			}
			msg := n.queue[0]
			n.queue = n.queue[1:]
			n.mu.Unlock()

			target, ok := n.lookup(msg.node)
			if !ok {
				continue
			}

			target.mu.RLock()
			fn, ok := target.handlers[msg.subject]
			target.mu.RUnlock()

			if !ok {
				continue
			}

			_, _ = fn(context.Background(), msg.from, msg.data)
		}
	}
}

// LocalBus is one node's endpoint on a LocalNetwork.
type LocalBus struct {
	network *LocalNetwork
	nodeID  string

	mu       sync.RWMutex
	handlers map[string]types.BusHandler
}

var _ types.Bus = (*LocalBus)(nil)

// Handle registers a handler for a subject.
func (b *LocalBus) Handle(subject string, fn types.BusHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[subject] = fn

	return nil
}

// Request dispatches to the target node's handler and returns its reply.
func (b *LocalBus) Request(ctx context.Context, node, subject string, data []byte) ([]byte, error) {
	fn, err := b.resolve(node, subject)
	if err != nil {
		return nil, err
	}

	return fn(ctx, b.nodeID, data)
}

// Send queues a message for the target node's handler and returns without
// waiting for it to run. Unreachable nodes are reported immediately.
func (b *LocalBus) Send(_ context.Context, node, subject string, data []byte) error {
	if _, err := b.resolve(node, subject); err != nil {
		return err
	}

	b.network.enqueue(queuedSend{from: b.nodeID, node: node, subject: subject, data: data})

	return nil
}

func (b *LocalBus) resolve(node, subject string) (types.BusHandler, error) {
	target, ok := b.network.lookup(node)
	if !ok {
		return nil, fmt.Errorf("node %s not reachable", node)
	}

	target.mu.RLock()
	fn, ok := target.handlers[subject]
	target.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("node %s has no handler for subject %s", node, subject)
	}

	return fn, nil
}
