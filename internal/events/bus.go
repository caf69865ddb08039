package events

import (
	"github.com/kelindar/event"
)

// Bus wraps the kelindar/event dispatcher for event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(NetworkEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the concrete type, so unwrap the
	// interface before handing the event over
	switch e := ev.(type) {
	case NetworkEvent:
		event.Publish(b.dispatcher, e)
	case ButtonEvent:
		event.Publish(b.dispatcher, e)
	case LEDStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case SettingChangedEvent:
		event.Publish(b.dispatcher, e)
	case UpdateEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function; the handler's
// parameter type selects which events it receives. Returns an unsubscribe
// function.
// Usage: unsub := bus.Subscribe(func(e NetworkEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(NetworkEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ButtonEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LEDStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SettingChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(UpdateEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Unknown handler signature, nothing will ever be delivered
		return func() {}
	}
}
