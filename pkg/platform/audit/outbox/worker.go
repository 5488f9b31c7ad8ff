// Package outbox moves committed audit rows from Postgres to Kafka. The
// worker only touches already-committed events, so it never affects the
// atomicity of ledger operations.
package outbox

import (
	"context"
	"log/slog"
	"time"
)

// Source yields unpublished audit rows and records publication.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]Row, error)
	MarkPublished(ctx context.Context, ids []string, at time.Time) error
}

// Row mirrors the postgres store's outbox row without importing it, so the
// worker can be tested against a fake source.
type Row struct {
	ID      string
	Payload []byte
}

// Publisher ships one payload.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Worker polls the outbox and publishes rows in insertion order.
type Worker struct {
	source    Source
	publisher Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewWorker(source Source, publisher Publisher, logger *slog.Logger) *Worker {
	return &Worker{
		source:    source,
		publisher: publisher,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// Run polls until ctx is cancelled. Publish failures are logged and retried
// on the next tick; rows stay unpublished until Kafka accepts them.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	rows, err := w.source.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}

	published := make([]string, 0, len(rows))
	for _, row := range rows {
		if err := w.publisher.Publish(ctx, row.ID, row.Payload); err != nil {
			// Stop at the first failure to preserve ordering.
			break
		}
		published = append(published, row.ID)
	}
	if len(published) == 0 {
		return nil
	}
	return w.source.MarkPublished(ctx, published, time.Now())
}
