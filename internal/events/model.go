// Package events defines the asynchronous event model the ingester applies
// to the universe view and routes to programs (spec C2), plus the
// in-process operational event bus used for ambient concerns (tick
// outcomes, control-surface mutations) the way the teacher repo's
// kelindar/event-backed bus fans out its own domain events.
package events

import "github.com/mrd0ll4r/kaleidoscope/internal/values"

// ButtonEventKind identifies the variant of a ButtonEvent.
type ButtonEventKind int

const (
	ButtonUp ButtonEventKind = iota
	ButtonDown
	ButtonClicked
	ButtonLongPress
)

// ButtonEvent is a button gesture reported for an input address.
type ButtonEvent struct {
	Kind            ButtonEventKind
	DurationSeconds float64 // meaningful only for ButtonClicked
	Seconds         int64   // meaningful only for ButtonLongPress
}

// EventKind is the payload of a successfully-decoded event: either an
// update of an address's value, or a button gesture.
type EventKind struct {
	IsButton bool
	Update   values.InputValue // meaningful if !IsButton
	Button   ButtonEvent       // meaningful if IsButton
}

func UpdateKind(v values.InputValue) EventKind { return EventKind{IsButton: false, Update: v} }
func ButtonKind(b ButtonEvent) EventKind       { return EventKind{IsButton: true, Button: b} }

// Event is either a successfully decoded EventKind, or an error string
// reported by upstream for the address (e.g. a sensor read failure).
type Event struct {
	Err  string // non-empty iff this is an error payload
	Kind EventKind
}

func Ok(k EventKind) Event   { return Event{Kind: k} }
func Error(msg string) Event { return Event{Err: msg} }

func (e Event) IsError() bool { return e.Err != "" }

// AddressedEvent pairs an Event with the address it concerns.
type AddressedEvent struct {
	Address values.Address
	Event   Event
}
