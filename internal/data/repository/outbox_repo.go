package repository

import (
	"context"
	"fmt"

	"smart-bus/internal/data/entity"
	"smart-bus/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OutboxRepository interface {
	Create(ctx context.Context, event *entity.OutboxEvent) error
	// FetchBatch claims up to limit new events, oldest first.
	FetchBatch(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
	// MarkFailed puts events back in the queue and bumps their attempt count.
	MarkFailed(ctx context.Context, ids []uuid.UUID) error
}

type outboxRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOutboxRepository(db database.PgxIface, log *zap.Logger) OutboxRepository {
	return &outboxRepository{
		db:  db,
		log: log.With(zap.String("repository", "outbox")),
	}
}

func (r *outboxRepository) Create(ctx context.Context, e *entity.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		e.ID,
		e.AggregateType,
		e.AggregateID,
		e.EventType,
		e.Payload,
		e.Status,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to insert outbox event",
			zap.Error(err),
			zap.String("event_type", e.EventType),
			zap.String("aggregate_id", e.AggregateID.String()),
		)
		return fmt.Errorf("insert outbox event %s: %w", e.EventType, err)
	}

	return nil
}

func (r *outboxRepository) FetchBatch(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	query := `
		WITH claimed AS (
			SELECT id
			FROM outbox_events
			WHERE status = 'new'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox_events
		SET status = 'processing', updated_at = NOW()
		WHERE id IN (SELECT id FROM claimed)
		RETURNING id, aggregate_type, aggregate_id, event_type, payload, status, attempts, created_at, updated_at
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, limit)
	if err != nil {
		r.log.Error("Failed to claim outbox batch", zap.Error(err))
		return nil, fmt.Errorf("claim outbox batch: %w", err)
	}
	defer rows.Close()

	var events []*entity.OutboxEvent
	for rows.Next() {
		var e entity.OutboxEvent
		if err := rows.Scan(
			&e.ID,
			&e.AggregateType,
			&e.AggregateID,
			&e.EventType,
			&e.Payload,
			&e.Status,
			&e.Attempts,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}

	return events, rows.Err()
}

func (r *outboxRepository) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	query := `UPDATE outbox_events SET status = 'published', updated_at = NOW() WHERE id = ANY($1)`

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, ids); err != nil {
		r.log.Error("Failed to mark outbox events published", zap.Error(err), zap.Int("count", len(ids)))
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, ids []uuid.UUID) error {
	query := `UPDATE outbox_events SET status = 'new', attempts = attempts + 1, updated_at = NOW() WHERE id = ANY($1)`

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, ids); err != nil {
		r.log.Error("Failed to requeue outbox events", zap.Error(err), zap.Int("count", len(ids)))
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}
