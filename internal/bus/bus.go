// Package bus provides a small in-process event bus used to decouple the
// plugin lifecycle from the components that react to it. Handlers are keyed
// by event name and run synchronously on the emitting goroutine.
package bus

import "sync"

// Handler receives the payload published with an event.
type Handler func(payload any)

// Bus distributes named events to subscribed handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

// On registers a handler for the given event name. Multiple handlers may be
// registered for the same event; they run in registration order.
func (b *Bus) On(event string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], h)
}

// Emit invokes every handler registered for the event with the payload.
// Unknown events are silently dropped. Handlers run synchronously; a handler
// that needs to block should spawn its own goroutine.
func (b *Bus) Emit(event string, payload any) {
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	b.mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
}

// HandlerCount returns the number of handlers registered for an event.
func (b *Bus) HandlerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}
