package event

import (
	"context"
	"log/slog"
	"sync"
)

// Handler consumes one event. Errors are logged, never propagated back to
// the emitter.
type Handler func(ctx context.Context, e Event) error

// Listener fans events out to registered handlers on a single pump
// goroutine. Emitters never block on slow handlers beyond the channel
// buffer.
type Listener struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers []Handler

	ch chan Event
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{
		logger: logger,
		ch:     make(chan Event, 64),
	}
}

// Register adds a handler. Handlers registered after Listen starts receive
// only subsequent events.
func (l *Listener) Register(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, h)
}

// Emit publishes an event to all handlers.
func (l *Listener) Emit(e Event) {
	select {
	case l.ch <- e:
	default:
		l.logger.Warn("Event bus full, dropping event", "event", e.Message())
	}
}

// Listen pumps events until the context is canceled.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-l.ch:
			l.mu.RLock()
			handlers := make([]Handler, len(l.handlers))
			copy(handlers, l.handlers)
			l.mu.RUnlock()

			for _, h := range handlers {
				if err := h(ctx, e); err != nil {
					l.logger.Error("Error running event handler",
						"event", e.Message(), "error", err)
				}
			}
		}
	}
}
