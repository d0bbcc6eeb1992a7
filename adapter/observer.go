package adapter

import (
	"time"

	"github.com/wippyai/hostbridge/attr"
	"github.com/wippyai/hostbridge/host"
)

// EventType classifies an Event.
type EventType uint8

const (
	EventBound        EventType = iota + 1 // context bound to a notification
	EventDisposed                          // callback returned
	EventBodyRead                          // request entity bytes read
	EventChunkFlushed                      // staged bytes handed to the host
	EventResolveMiss                       // attribute or header not present
	EventFailed                            // request failed with an error disposition
)

func (t EventType) String() string {
	switch t {
	case EventBound:
		return "bound"
	case EventDisposed:
		return "disposed"
	case EventBodyRead:
		return "body_read"
	case EventChunkFlushed:
		return "chunk_flushed"
	case EventResolveMiss:
		return "resolve_miss"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event describes one step in a request's lifecycle. Only the fields that
// apply to Type are set.
type Event struct {
	Err         error
	RequestID   string
	Name        string // header name for header misses, method for EventBound
	URL         string // EventBound only
	Type        EventType
	Attr        attr.ID
	Bytes       int
	Disposition host.Disposition
	Duration    time.Duration
}

// Observer receives lifecycle events. Observe runs on the request goroutine
// and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type observers []Observer

func (o observers) Observe(e Event) {
	for _, ob := range o {
		ob.Observe(e)
	}
}
