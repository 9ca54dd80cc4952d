// Package daq runs acquisition sessions: it pulls bytes from a trace source,
// steps the ITM decoder and fans the results out to handlers.
package daq

import (
	"time"

	"itmscope/internal/itm"
)

type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventConnectionError
	EventValue
	EventOutcome
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventConnectionError:
		return "connection_error"
	case EventValue:
		return "value"
	case EventOutcome:
		return "outcome"
	default:
		return "unknown"
	}
}

// Event is delivered to handlers on the session goroutine.
// Value is set for EventValue; Err carries the outcome or transport error.
type Event struct {
	Kind   EventKind
	Time   time.Time
	Source string
	Value  itm.DecodedValue
	Err    error
}

// Handler consumes session events. HandleEvent must not block for long:
// it runs on the goroutine that reads the source.
type Handler interface {
	HandleEvent(Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Event)

func (f HandlerFunc) HandleEvent(ev Event) { f(ev) }
