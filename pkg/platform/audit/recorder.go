package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aurum/pkg/requestcontext"
)

// Store persists audit events. Postgres-backed stores write to the outbox
// table; the outbox worker ships rows to Kafka afterwards.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Recorder emits audit events with synchronous, fail-closed semantics: the
// caller blocks until the write succeeds, and if it fails the calling
// operation MUST fail too. Mutations without an audit record do not exist.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// NewRecorder creates a fail-closed recorder over the given store.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Emit synchronously writes an audit event. Returns an error if persistence
// fails; the caller must then abort its operation.
func (r *Recorder) Emit(ctx context.Context, event Event) error {
	start := time.Now()

	if !event.Action.Known() {
		return fmt.Errorf("audit: unknown action %q", event.Action)
	}
	if event.Actor.IsZero() {
		return fmt.Errorf("audit: event %q requires an actor", event.Action)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := r.store.Append(ctx, event); err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "audit append failed",
				"action", event.Action,
				"token", event.Token.String(),
				"error", err,
			)
		}
		r.metrics.IncFailed(string(event.Action))
		return fmt.Errorf("audit append: %w", err)
	}

	r.metrics.IncEmitted(string(event.Action))
	r.metrics.ObserveEmitLatency(time.Since(start))
	return nil
}
