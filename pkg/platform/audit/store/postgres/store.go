// Package postgres implements audit.Store using the transactional outbox
// pattern. Events land in the audit_outbox table in the same transaction as
// the ledger mutation when the caller carries one in context; the outbox
// worker publishes rows to Kafka afterwards.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	audit "aurum/pkg/platform/audit"
	txcontext "aurum/pkg/platform/tx"
)

// Store writes audit events to the outbox table.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON published to Kafka. Field names match audit.Event
// so the consumer deserializes without a mapping layer.
type outboxPayload struct {
	ID        string `json:"ID"`
	Timestamp string `json:"Timestamp"`
	Action    string `json:"Action"`
	Token     string `json:"Token,omitempty"`
	Actor     string `json:"Actor"`
	From      string `json:"From,omitempty"`
	To        string `json:"To,omitempty"`
	Amount    uint64 `json:"Amount,omitempty"`
	Subject   string `json:"Subject,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
}

// Append writes an audit event to the outbox for publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload := outboxPayload{
		ID:        event.ID,
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    string(event.Action),
		Actor:     event.Actor.String(),
		Amount:    event.Amount,
		Subject:   event.Subject,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	}
	if !event.Token.IsNil() {
		payload.Token = event.Token.String()
	}
	if !event.From.IsZero() {
		payload.From = event.From.String()
	}
	if !event.To.IsZero() {
		payload.To = event.To.String()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	const q = `
		INSERT INTO audit_outbox (id, action, token_id, payload, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)`
	if _, err := s.execer(ctx).ExecContext(ctx, q,
		event.ID, string(event.Action), payload.Token, body, event.Timestamp,
	); err != nil {
		return fmt.Errorf("insert audit outbox: %w", err)
	}
	return nil
}

// FetchUnpublished returns up to limit unpublished outbox rows in insertion
// order. Called by the outbox worker only.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRow, error) {
	const q = `
		SELECT id, payload
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var r OutboxRow
		if err := rows.Scan(&r.ID, &r.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkPublished stamps rows as shipped.
func (s *Store) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `UPDATE audit_outbox SET published_at = $1 WHERE id = ANY($2)`
	if _, err := s.db.ExecContext(ctx, q, at, ids); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// OutboxRow is one unpublished audit record.
type OutboxRow struct {
	ID      string
	Payload []byte
}
