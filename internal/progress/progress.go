// Package progress implements the progress/control plane of spec.md §4.6:
// per-block state transitions, aggregated byte-level progress, and the
// cooperative cancellation flag polled by every engine worker. It is
// renderer-agnostic — it only emits Events on a channel; cmd/padoracle owns
// the consumer that prints them.
package progress

import (
	"sync"
	"sync/atomic"
)

// State is a block's position in the one-way state machine of spec.md §4.6:
// Queued -> Running -> (Solved | Failed | Cancelled).
type State int

const (
	Queued State = iota
	Running
	Solved
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Event is one progress tick or block-state transition, pushed to whatever
// renderer is attached downstream.
type Event struct {
	Block          int
	State          State
	BytesRecovered int
	BlockSize      int
	Err            error
}

// Controller aggregates per-block progress into a non-blocking event stream
// and holds the single shared cancel flag every worker polls (spec.md §5:
// "Cancel flag is checked before each question dispatch").
type Controller struct {
	events    chan Event
	cancelled atomic.Bool

	mu     sync.Mutex
	blocks map[int]State
}

// New creates a Controller. eventBuffer sizes the non-blocking channel; a
// renderer that falls behind drops nothing as long as it drains faster than
// the buffer fills, but a full buffer never blocks a worker — events are
// dropped rather than stalling the attack (the terminal block-result stream
// returned by the engine is the authoritative record, not this channel).
func New(eventBuffer int) *Controller {
	if eventBuffer <= 0 {
		eventBuffer = 256
	}
	return &Controller{
		events: make(chan Event, eventBuffer),
		blocks: map[int]State{},
	}
}

// Events returns the read side of the progress stream.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Close shuts down the event stream. Call once, after every worker has
// stopped emitting.
func (c *Controller) Close() {
	close(c.events)
}

// Cancel requests cooperative cancellation. Safe to call more than once or
// concurrently with workers; idempotent.
func (c *Controller) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called. Workers poll this
// before each oracle question and between byte positions (spec.md §5).
func (c *Controller) Cancelled() bool {
	return c.cancelled.Load()
}

// Transition records a block's new state and emits the corresponding Event.
// Transitions are one-way; callers are trusted not to regress a block's
// state (the engine is the only caller and drives the state machine
// linearly per block).
func (c *Controller) Transition(block, blockSize int, state State, bytesRecovered int, err error) {
	c.mu.Lock()
	c.blocks[block] = state
	c.mu.Unlock()

	select {
	case c.events <- Event{Block: block, State: state, BytesRecovered: bytesRecovered, BlockSize: blockSize, Err: err}:
	default:
		// Renderer is behind; drop rather than block a worker goroutine.
	}
}

// Snapshot returns a copy of every block's last-observed state, for a
// renderer that wants a full picture rather than an incremental stream.
func (c *Controller) Snapshot() map[int]State {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[int]State, len(c.blocks))
	for k, v := range c.blocks {
		out[k] = v
	}
	return out
}
