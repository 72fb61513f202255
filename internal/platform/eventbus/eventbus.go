// Package eventbus provides an in-process publish/subscribe channel for
// workflow lifecycle events. Listeners are registered explicitly at startup
// and the bus is passed into the components that publish; there is no
// process-wide singleton. Delivery is fire-and-forget: a panicking listener
// never affects the publisher or other listeners.
package eventbus

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is a single lifecycle signal published on the bus.
type Event struct {
	Name      string                 `json:"name"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// Handler consumes a published event.
type Handler func(Event)

// Wildcard subscribes a handler to every event name.
const Wildcard = "*"

// Bus fans events out to registered listeners.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for the named event. Use Wildcard to
// receive all events.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[name] = append(b.subscribers[name], h)
}

// Publish delivers the event to every matching listener. Listener panics
// are swallowed at the dispatch boundary.
func (b *Bus) Publish(name string, payload map[string]interface{}) {
	evt := Event{Name: name, Timestamp: time.Now().UTC(), Payload: payload}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[name])+len(b.subscribers[Wildcard]))
	handlers = append(handlers, b.subscribers[name]...)
	handlers = append(handlers, b.subscribers[Wildcard]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		invoke(h, evt)
	}
}

func invoke(h Handler, evt Event) {
	defer func() {
		// Listener failures are isolated and non-propagating.
		_ = recover()
	}()
	h(evt)
}

// LogListener returns a handler that records each event with the given
// logger, suitable as a Wildcard subscription at process startup.
func LogListener(logger zerolog.Logger) Handler {
	return func(evt Event) {
		logger.Info().
			Str("event", evt.Name).
			Time("at", evt.Timestamp).
			Interface("payload", evt.Payload).
			Msg("lifecycle event")
	}
}
