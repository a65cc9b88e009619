// Package messaging implements event bus functionality.
package messaging

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher wraps an event bus and routes events to named handlers with
// panic recovery and execution timing. Application event handlers register
// here instead of on the raw bus so a misbehaving handler cannot take down
// the pipeline that published the event.
type Dispatcher struct {
	eventBus shared.EventBus
	logger   *slog.Logger
	mu       sync.RWMutex
	names    map[shared.EventType][]string
}

// HandlerRegistration contains handler metadata.
type HandlerRegistration struct {
	// Name identifies the handler in logs.
	Name string

	// EventType is the event the handler consumes.
	EventType shared.EventType

	// Handler is the function to invoke.
	Handler shared.EventHandler
}

// NewDispatcher creates a dispatcher on top of the given bus.
func NewDispatcher(eventBus shared.EventBus, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		eventBus: eventBus,
		logger:   logger,
		names:    make(map[shared.EventType][]string),
	}
}

// Register subscribes a named handler for its event type. The handler is
// wrapped so panics become errors and slow executions are logged.
func (d *Dispatcher) Register(reg HandlerRegistration) error {
	if reg.Handler == nil {
		return fmt.Errorf("handler %q cannot be nil", reg.Name)
	}
	if reg.Name == "" {
		reg.Name = string(reg.EventType)
	}

	wrapped := d.wrap(reg.Name, reg.Handler)
	if err := d.eventBus.Subscribe(reg.EventType, wrapped); err != nil {
		return fmt.Errorf("subscribe %q: %w", reg.Name, err)
	}

	d.mu.Lock()
	d.names[reg.EventType] = append(d.names[reg.EventType], reg.Name)
	d.mu.Unlock()

	d.logger.Info("registered event handler", "handler", reg.Name, "event_type", reg.EventType)
	return nil
}

// RegisterAll subscribes a batch of handlers, stopping at the first failure.
func (d *Dispatcher) RegisterAll(regs ...HandlerRegistration) error {
	for _, reg := range regs {
		if err := d.Register(reg); err != nil {
			return err
		}
	}
	return nil
}

// Handlers returns the names of handlers registered for an event type.
func (d *Dispatcher) Handlers(eventType shared.EventType) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, len(d.names[eventType]))
	copy(out, d.names[eventType])
	return out
}

// wrap adds panic recovery and timing around a handler.
func (d *Dispatcher) wrap(name string, handler shared.EventHandler) shared.EventHandler {
	return func(event shared.Event) (err error) {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("event handler panicked",
					"handler", name,
					"event_type", event.EventType(),
					"panic", r,
					"stack", string(debug.Stack()),
				)
				err = fmt.Errorf("handler %q panicked: %v", name, r)
			}
		}()

		start := time.Now()
		err = handler(event)
		elapsed := time.Since(start)

		if elapsed > time.Second {
			d.logger.Warn("slow event handler",
				"handler", name,
				"event_type", event.EventType(),
				"duration", elapsed,
			)
		}

		return err
	}
}
