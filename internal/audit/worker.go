package audit

import (
	"context"
	"log/slog"
)

// Worker drains an event channel into a store. The publisher runs one per
// async buffer; it can also be wired standalone against any Event channel.
// Append failures are logged and skipped: the audit trail is best-effort and
// must never wedge the scan path behind a slow sink.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes until the inbox closes or the context is cancelled. On
// cancellation it flushes whatever is already buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.flush()
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.append(ctx, event)
		}
	}
}

func (w *Worker) flush() {
	for {
		select {
		case event, ok := <-w.inbox:
			if !ok {
				return
			}
			w.append(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil && w.logger != nil {
		w.logger.ErrorContext(ctx, "audit append failed",
			"action", event.Action,
			"event_id", event.ID,
			"error", err,
		)
	}
}
