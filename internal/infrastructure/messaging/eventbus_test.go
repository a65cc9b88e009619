package messaging

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

func quietBusConfig(async bool) InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      async,
		WorkerPoolSize: 4,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		EnableMetrics:  true,
	}
}

func TestInMemoryEventBusDeliversToTypedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(quietBusConfig(false))
	defer bus.Close()

	var got []shared.Event
	err := bus.Subscribe(shared.EventProgressTracked, func(e shared.Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewProgressTrackedEvent("S001", 0, "", 0, "")
	require.NoError(t, bus.Publish(event))

	require.Len(t, got, 1)
	assert.Equal(t, shared.EventProgressTracked, got[0].EventType())
	assert.Equal(t, "S001", got[0].AggregateID())
}

func TestInMemoryEventBusGlobalHandlerSeesAllTypes(t *testing.T) {
	bus := NewInMemoryEventBus(quietBusConfig(false))
	defer bus.Close()

	var mu sync.Mutex
	seen := make(map[shared.EventType]int)
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		mu.Lock()
		seen[e.EventType()]++
		mu.Unlock()
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewAssessmentCompletedEvent("S001", "", 0, "", nil)))
	require.NoError(t, bus.Publish(shared.NewAlertComposedEvent("S002", "", "", "", "")))

	assert.Equal(t, 1, seen[shared.EventAssessmentCompleted])
	assert.Equal(t, 1, seen[shared.EventAlertComposed])
}

func TestInMemoryEventBusAsyncDrainsOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(quietBusConfig(true))

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.Subscribe(shared.EventProgressTracked, func(e shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewProgressTrackedEvent("S001", 0, "", 0, "")))
	}

	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count, "Close must wait for in-flight handlers")
}

func TestInMemoryEventBusRejectsAfterClose(t *testing.T) {
	bus := NewInMemoryEventBus(quietBusConfig(false))
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewProgressTrackedEvent("S001", 0, "", 0, ""))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventProgressTracked, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestInMemoryEventBusMetrics(t *testing.T) {
	bus := NewInMemoryEventBus(quietBusConfig(false))
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventAlertComposed, func(shared.Event) error { return nil }))
	require.NoError(t, bus.Publish(shared.NewAlertComposedEvent("S001", "", "", "", "")))
	require.NoError(t, bus.Publish(shared.NewAlertComposedEvent("S002", "", "", "", "")))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.Equal(t, 1.0, snap.HandlerSuccessRate)
}

func TestDispatcherRecoversFromPanic(t *testing.T) {
	bus := NewInMemoryEventBus(quietBusConfig(false))
	defer bus.Close()

	d := NewDispatcher(bus, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, d.Register(HandlerRegistration{
		Name:      "panicky",
		EventType: shared.EventAlertComposed,
		Handler: func(shared.Event) error {
			panic("boom")
		},
	}))

	// Sync publish surfaces handler errors through the bus logger only;
	// the publish itself must not panic or fail.
	assert.NotPanics(t, func() {
		require.NoError(t, bus.Publish(shared.NewAlertComposedEvent("S001", "", "", "", "")))
	})

	assert.Equal(t, []string{"panicky"}, d.Handlers(shared.EventAlertComposed))
}
