package events

import (
	"time"

	"github.com/kelindar/event"
)

// Operational event type constants for kelindar/event.
const (
	typeTickOutcome uint32 = iota + 1
	typeControlMutation
	typeUpstreamDisconnected
)

// Operational is the interface kelindar/event requires of published values.
type Operational interface {
	Type() uint32
}

// TickOutcomeEvent reports whether a scheduler tick's upstream POST
// succeeded, driving the status indicator (internal/led).
type TickOutcomeEvent struct {
	Success   bool
	Timestamp time.Time
}

func (TickOutcomeEvent) Type() uint32 { return typeTickOutcome }

// ControlMutationEvent is published whenever the control surface adapter
// mutates a fixture, for operator audit logging.
type ControlMutationEvent struct {
	RequestID string
	Fixture   string
	Action    string
	Timestamp time.Time
}

func (ControlMutationEvent) Type() uint32 { return typeControlMutation }

// UpstreamDisconnectedEvent is published when the event ingester's upstream
// connection is lost.
type UpstreamDisconnectedEvent struct {
	Reason    string
	Timestamp time.Time
}

func (UpstreamDisconnectedEvent) Type() uint32 { return typeUpstreamDisconnected }

// Bus wraps a kelindar/event dispatcher for broadcasting operational events
// between otherwise-decoupled components (scheduler, status indicator,
// control surface).
type Bus struct {
	dispatcher *event.Dispatcher
}

// NewBus creates a new operational event bus.
func NewBus() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish publishes an operational event to all subscribers.
func (b *Bus) Publish(ev Operational) {
	switch e := ev.(type) {
	case TickOutcomeEvent:
		event.Publish(b.dispatcher, e)
	case ControlMutationEvent:
		event.Publish(b.dispatcher, e)
	case UpstreamDisconnectedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to a specific operational event type, inferred from
// the handler's signature, and returns an unsubscribe function.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(TickOutcomeEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ControlMutationEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(UpstreamDisconnectedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
