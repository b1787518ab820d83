// Package event dispatches committed domain events to in-process handlers.
package event

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/shared"
)

// DispatchObserver is told how each handler invocation ended
type DispatchObserver func(eventType string, err error)

// InMemoryEventBus delivers events synchronously to the registered handlers.
// Events reach it only after the producing transaction has committed, so a
// failing handler is logged and never reported back to the producer.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	observe  DispatchObserver
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger.Named("event_bus"),
		observe:  func(string, error) {},
	}
}

// WithObserver installs a hook called after every handler invocation
func (b *InMemoryEventBus) WithObserver(observe DispatchObserver) *InMemoryEventBus {
	if observe != nil {
		b.observe = observe
	}
	return b
}

// Publish hands each event to its handlers in registration order
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			err := b.dispatch(ctx, handler, event)
			b.observe(event.EventType(), err)
			if err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.String("business_id", event.BusinessID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for the types the handler
// declares when none are given
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("Handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
