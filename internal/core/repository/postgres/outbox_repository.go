package postgres

import (
	"context"
	"fmt"

	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/repository"
	"github.com/jmoiron/sqlx"
)

type outboxRepository struct {
	db  *sqlx.DB
	log logger.Logger
}

func NewOutboxRepository(db *sqlx.DB, log logger.Logger) repository.OutboxRepository {
	return &outboxRepository{db: db, log: log}
}

func (r *outboxRepository) ListPendingOutboxEvents(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	query := `SELECT id, topic, payload, status, created_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2`
	err := r.db.SelectContext(ctx, &events, query, models.OutboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending outbox events: %w", err)
	}

	return events, nil
}

func (r *outboxRepository) MarkOutboxEventSent(ctx context.Context, id int64) error {
	query := `UPDATE outbox_events SET status = $1 WHERE id = $2 AND status = $3`
	_, err := r.db.ExecContext(ctx, query, models.OutboxStatusSent, id, models.OutboxStatusPending)
	if err != nil {
		return fmt.Errorf("mark outbox event sent: %w", err)
	}

	return nil
}
