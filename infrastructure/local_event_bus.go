package infrastructure

import (
	"context"
	"sync"

	"tonflip/domain/events"

	log "github.com/sirupsen/logrus"
)

// EventHandler handles one published event
type EventHandler func(context.Context, events.Event) error

// localHandlers dispatches events to in-process handlers. Handler errors are
// logged and never stop the remaining handlers.
type localHandlers struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]EventHandler
}

func newLocalHandlers() *localHandlers {
	return &localHandlers{handlers: make(map[events.EventType][]EventHandler)}
}

func (l *localHandlers) register(eventType events.EventType, handler EventHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.handlers[eventType] = append(l.handlers[eventType], handler)
	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(l.handlers[eventType]),
	}).Info("Registered local event handler")
}

func (l *localHandlers) dispatch(ctx context.Context, event events.Event) {
	l.mu.RLock()
	handlers := append([]EventHandler(nil), l.handlers[event.Type()]...)
	l.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Local event handler failed")
		}
	}
}

// LocalEventBus delivers events to in-process subscribers only. It backs
// single-instance deployments that run without NATS.
type LocalEventBus struct {
	handlers *localHandlers
}

// NewLocalEventBus creates a new in-process event bus
func NewLocalEventBus() *LocalEventBus {
	return &LocalEventBus{handlers: newLocalHandlers()}
}

// Publish runs every handler subscribed to the event type
func (b *LocalEventBus) Publish(event events.Event) error {
	b.handlers.dispatch(context.Background(), event)
	return nil
}

// Subscribe registers handler for eventType
func (b *LocalEventBus) Subscribe(eventType events.EventType, handler func(context.Context, events.Event) error) error {
	b.handlers.register(eventType, handler)
	return nil
}
