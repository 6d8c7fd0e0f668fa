package testing

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/SavtechSolutions/ignite/types"
)

// ServiceCounter tracks lifecycle calls across every instance produced by
// one counting factory, no matter which simulated node runs them.
type ServiceCounter struct {
	inits   atomic.Int64
	execs   atomic.Int64
	cancels atomic.Int64
}

// NewServiceCounter creates a zeroed counter.
func NewServiceCounter() *ServiceCounter {
	return &ServiceCounter{}
}

// Inits returns the number of Init calls observed.
func (c *ServiceCounter) Inits() int64 { return c.inits.Load() }

// Execs returns the number of Execute calls observed.
func (c *ServiceCounter) Execs() int64 { return c.execs.Load() }

// Cancels returns the number of Cancel calls observed.
func (c *ServiceCounter) Cancels() int64 { return c.cancels.Load() }

// Live returns started minus cancelled instances.
func (c *ServiceCounter) Live() int64 { return c.inits.Load() - c.cancels.Load() }

// NewCountingFactory returns a factory whose instances record lifecycle
// calls on the given counter. Execute blocks until its context is
// cancelled, like a long-running service body.
func NewCountingFactory(counter *ServiceCounter) types.ServiceFactory {
	return func() types.Service {
		return &countingService{counter: counter}
	}
}

type countingService struct {
	counter *ServiceCounter
}

var _ types.Service = (*countingService)(nil)

func (s *countingService) Init(_ context.Context) error {
	s.counter.inits.Add(1)

	return nil
}

func (s *countingService) Execute(ctx context.Context) error {
	s.counter.execs.Add(1)
	<-ctx.Done()

	return nil
}

func (s *countingService) Cancel() {
	s.counter.cancels.Add(1)
}

// ErrInitRefused is returned by factories from NewFailingFactory.
var ErrInitRefused = errors.New("service refused to initialize")

// NewFailingFactory returns a factory whose instances fail Init. Useful
// for asserting that initialization failures surface through deployment
// futures without wedging sibling instances.
func NewFailingFactory() types.ServiceFactory {
	return func() types.Service {
		return failingService{}
	}
}

type failingService struct{}

var _ types.Service = failingService{}

func (failingService) Init(_ context.Context) error { return ErrInitRefused }

func (failingService) Execute(_ context.Context) error { return nil }

func (failingService) Cancel() {}

// NewEchoFactory returns a factory for a service that also implements
// types.Handler, replying to every request with its own payload prefixed
// by the given tag. Proxy tests use the tag to tell which node's instance
// served a call.
func NewEchoFactory(tag string) types.ServiceFactory {
	return func() types.Service {
		return &echoService{tag: tag}
	}
}

type echoService struct {
	tag string
}

var (
	_ types.Service = (*echoService)(nil)
	_ types.Handler = (*echoService)(nil)
)

func (s *echoService) Init(_ context.Context) error { return nil }

func (s *echoService) Execute(ctx context.Context) error {
	<-ctx.Done()

	return nil
}

func (s *echoService) Cancel() {}

func (s *echoService) Serve(_ context.Context, req []byte) ([]byte, error) {
	out := make([]byte, 0, len(s.tag)+1+len(req))
	out = append(out, s.tag...)
	out = append(out, ':')
	out = append(out, req...)

	return out, nil
}
