package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	seen   []string
	err    error
	panics bool
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	if h.panics {
		panic("handler bug")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, e.EventType())
	return h.err
}

func lowStockEvent() shared.DomainEvent {
	return &inventory.StockBelowReorderPointEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(inventory.EventTypeStockBelowReorderPoint,
			inventory.AggregateTypeShopInventory, uuid.New(), uuid.New()),
		Quantity:     3,
		ReorderPoint: 20,
	}
}

func transferEvent() shared.DomainEvent {
	return &inventory.StockTransferEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(inventory.EventTypeStockTransferCompleted,
			inventory.AggregateTypeStockTransfer, uuid.New(), uuid.New()),
	}
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	lowStock := &recordingHandler{types: []string{inventory.EventTypeStockBelowReorderPoint}}
	all := &recordingHandler{}
	bus.Subscribe(lowStock)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), lowStockEvent(), transferEvent()))

	assert.Equal(t, []string{inventory.EventTypeStockBelowReorderPoint}, lowStock.seen)
	assert.Equal(t, []string{inventory.EventTypeStockBelowReorderPoint, inventory.EventTypeStockTransferCompleted}, all.seen)
}

func TestInMemoryEventBus_HandlerFailuresDoNotPropagate(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	var outcomes []error
	bus := NewInMemoryEventBus(zap.New(core)).WithObserver(func(_ string, err error) {
		outcomes = append(outcomes, err)
	})
	failing := &recordingHandler{err: errors.New("notifier down")}
	panicking := &recordingHandler{panics: true}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), lowStockEvent())

	require.NoError(t, err)
	assert.Len(t, healthy.seen, 1, "later handlers still run")
	require.Len(t, outcomes, 3)
	assert.Error(t, outcomes[0])
	assert.ErrorContains(t, outcomes[1], "panicked")
	assert.NoError(t, outcomes[2])
	assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{inventory.EventTypeStockBelowReorderPoint}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), lowStockEvent()))
	assert.Empty(t, h.seen)
}
