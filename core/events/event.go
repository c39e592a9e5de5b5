package events

import (
	"sync"

	"launchpad/core/types"
)

// Event represents a structured state change emitted by an engine.
type Event interface {
	EventType() string
}

// Renderable is implemented by events that can be flattened into the generic
// attribute form relayed to RPC clients.
type Renderable interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, metrics).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Render flattens an event. Events without an attribute form render with
// their type only.
func Render(evt Event) *types.Event {
	if evt == nil {
		return nil
	}
	if r, ok := evt.(Renderable); ok {
		return r.Event()
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}

// RenderAll flattens a batch of events, skipping nil entries.
func RenderAll(list []Event) []*types.Event {
	out := make([]*types.Event, 0, len(list))
	for _, evt := range list {
		if rendered := Render(evt); rendered != nil {
			out = append(out, rendered)
		}
	}
	return out
}

// Recorder is an Emitter that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// Events returns a snapshot of the recorded events.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Fanout relays every event to each of its emitters in order.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(evt Event) {
	for _, emitter := range f {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}
