package relay

import (
	"context"
	"sync"

	"github.com/ambiyansyah-risyal/relay/internal/gate"
)

// State is the pipeline position of a Call.
type State int

const (
	StateQueuedPre State = iota
	StateBuildingConfig
	StateTransportPending
	StateQueuedPost
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateQueuedPre:
		return "queued_pre"
	case StateBuildingConfig:
		return "building_config"
	case StateTransportPending:
		return "transport_pending"
	case StateQueuedPost:
		return "queued_post"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Call is one in-flight request/response cycle. It settles exactly once.
type Call struct {
	// ID identifies the call in logs, errors and spans.
	ID string

	options Config
	ticket  *gate.Ticket

	mu     sync.Mutex
	state  State
	config Config

	once   sync.Once
	done   chan struct{}
	result any
	err    error
}

func newCall(id string, options Config) *Call {
	return &Call{
		ID:      id,
		options: options,
		state:   StateQueuedPre,
		done:    make(chan struct{}),
	}
}

// Options returns the caller-supplied options.
func (c *Call) Options() Config {
	return c.options
}

// Config returns the effective config once built, or nil before that.
func (c *Call) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// State returns the current pipeline state.
func (c *Call) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed when the call settles.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call settles or ctx is done. Giving up on ctx does
// not stop the call.
func (c *Call) Wait(ctx context.Context) (any, error) {
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QueuePosition returns the call's place in the release order while it waits
// on the locked gate before its config is built, or -1.
func (c *Call) QueuePosition() int {
	return c.ticket.Position()
}

// Result returns the outcome and true once settled.
func (c *Call) Result() (any, error, bool) {
	select {
	case <-c.done:
		return c.result, c.err, true
	default:
		return nil, nil, false
	}
}

func (c *Call) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Call) setConfig(cfg Config) {
	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
}

// settle records the outcome. Only the first call has any effect.
func (c *Call) settle(res any, err error) bool {
	settled := false
	c.once.Do(func() {
		c.setState(StateSettled)
		c.result = res
		c.err = err
		close(c.done)
		settled = true
	})
	return settled
}
