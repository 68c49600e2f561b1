package shared

import "context"

// EventHandler consumes domain events, for example the dashboard cache
// invalidator reacting to receipt and void events.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types the handler wants.
	// Empty means every event.
	EventTypes() []string
}

// EventPublisher is the side services see: they publish the events an
// aggregate accumulated and never deal with subscriptions.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers and removes handlers.
type EventSubscriber interface {
	// Subscribe attaches the handler to the given event types, or to
	// all events when none are given.
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is the full bus contract with lifecycle control. Start and
// Stop bracket the background dispatch loop.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
