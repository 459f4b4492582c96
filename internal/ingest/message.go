package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/mrd0ll4r/kaleidoscope/internal/events"
	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

// wireMessage is the JSON envelope the submarine upstream publishes on the
// AMQP feed: either an Event concerning one address, or a Config message,
// which signals an unrecoverable mid-run reconfiguration (spec §4.8).
type wireMessage struct {
	Type    string            `json:"type"`
	Address values.Address    `json:"address"`
	Payload *wireEventPayload `json:"payload,omitempty"`
}

type wireEventPayload struct {
	Error  string           `json:"error,omitempty"`
	Update *wireInputValue  `json:"update,omitempty"`
	Button *wireButtonEvent `json:"button,omitempty"`
}

type wireInputValue struct {
	Kind  string  `json:"kind"`
	Bool  bool    `json:"bool,omitempty"`
	Value float64 `json:"value,omitempty"`
}

type wireButtonEvent struct {
	Kind            string  `json:"kind"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Seconds         int64   `json:"seconds,omitempty"`
}

func decodeMessage(data []byte) (wireMessage, error) {
	var m wireMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return wireMessage{}, fmt.Errorf("decode message: %w", err)
	}
	return m, nil
}

func (m wireMessage) toAddressedEvent() (events.AddressedEvent, error) {
	if m.Payload == nil {
		return events.AddressedEvent{}, fmt.Errorf("event message %d has no payload", m.Address)
	}
	p := m.Payload

	if p.Error != "" {
		return events.AddressedEvent{Address: m.Address, Event: events.Error(p.Error)}, nil
	}

	if p.Button != nil {
		var kind events.ButtonEventKind
		switch p.Button.Kind {
		case "up":
			kind = events.ButtonUp
		case "down":
			kind = events.ButtonDown
		case "clicked":
			kind = events.ButtonClicked
		case "long_press":
			kind = events.ButtonLongPress
		default:
			return events.AddressedEvent{}, fmt.Errorf("unknown button event kind %q", p.Button.Kind)
		}
		be := events.ButtonEvent{Kind: kind, DurationSeconds: p.Button.DurationSeconds, Seconds: p.Button.Seconds}
		return events.AddressedEvent{Address: m.Address, Event: events.Ok(events.ButtonKind(be))}, nil
	}

	if p.Update != nil {
		var v values.InputValue
		switch p.Update.Kind {
		case "binary":
			v = values.NewBinary(p.Update.Bool)
		case "temperature":
			v = values.NewTemperature(p.Update.Value)
		case "humidity":
			v = values.NewHumidity(p.Update.Value)
		case "pressure":
			v = values.NewPressure(p.Update.Value)
		case "continuous":
			v = values.NewContinuous(p.Update.Value)
		default:
			return events.AddressedEvent{}, fmt.Errorf("unknown update value kind %q", p.Update.Kind)
		}
		return events.AddressedEvent{Address: m.Address, Event: events.Ok(events.UpdateKind(v))}, nil
	}

	return events.AddressedEvent{}, fmt.Errorf("event message %d payload has no variant set", m.Address)
}
