package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Publisher captures structured audit events. Synchronous by default; with an
// async buffer, Emit enqueues and a background worker drains to the store.
// When the buffer is full the event is dropped and counted rather than
// blocking a scan behind the audit sink.
type Publisher struct {
	store  Store
	logger *slog.Logger

	inbox  chan Event
	worker *Worker
	wg     sync.WaitGroup
	once   sync.Once

	mu      sync.Mutex
	dropped int64
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer switches Emit to enqueue-and-return with the given buffer
// capacity.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.worker = NewWorker(store, p.inbox, p.logger)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			_ = p.worker.Run(context.Background())
		}()
	}
	return p
}

// Emit records one event, stamping ID and timestamp when absent.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit buffer full, event dropped",
				"action", event.Action,
				"event_id", event.ID,
			)
		}
		return nil
	}
}

// Dropped reports how many events were lost to a full buffer.
func (p *Publisher) Dropped() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Close stops accepting events and drains the buffer. Safe to call more than
// once; a no-op in synchronous mode.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.once.Do(func() {
		close(p.inbox)
	})
	p.wg.Wait()
}
