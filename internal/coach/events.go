package coach

import (
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"
)

// EventType classifies coach events.
type EventType string

const (
	EventStarted   EventType = "started"
	EventExercise  EventType = "exercise"
	EventPhase     EventType = "phase"
	EventTick      EventType = "tick"
	EventPaused    EventType = "paused"
	EventResumed   EventType = "resumed"
	EventNavigated EventType = "navigated"
	EventRange     EventType = "range"
	EventRestored  EventType = "restored"
	EventCompleted EventType = "completed"
	EventStopped   EventType = "stopped"
)

// Event is a sequenced snapshot of the presentation model, published after
// every state-affecting change.
type Event struct {
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	View      View      `json:"view"`
	Summary   *Summary  `json:"summary,omitempty"`
}

// Handler receives events synchronously, in publish order. Handlers run
// while the coach is locked and must not call back into it.
type Handler func(Event)

// EventBus keeps a bounded log of recent events for polling clients and
// fans them out to subscribers.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	nextID    int
	handlers  map[int]Handler
	log       *slog.Logger
}

// NewEventBus creates a bus retaining up to maxEvents events.
func NewEventBus(maxEvents int, log *slog.Logger) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 256
	}
	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		handlers:  make(map[int]Handler),
		log:       log,
	}
}

// Publish assigns the next sequence number, records the event and
// dispatches it. A panicking handler is logged and skipped.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	ids := make([]int, 0, len(b.handlers))
	for id := range b.handlers {
		ids = append(ids, id)
	}
	handlers := make([]Handler, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		b.safeCall(h, event)
	}
	return event
}

func (b *EventBus) safeCall(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "event", event.Type, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	h(event)
}

// Subscribe registers h for every future event. The returned func removes it.
func (b *EventBus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[id] = h
	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// Since returns retained events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Latest returns the most recent event.
func (b *EventBus) Latest() (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.events) == 0 {
		return Event{}, false
	}
	return b.events[len(b.events)-1], true
}
