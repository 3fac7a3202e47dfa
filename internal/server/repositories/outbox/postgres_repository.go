package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/common"
	"github.com/dmitrijs2005/bankledger/internal/dbx"
	"github.com/dmitrijs2005/bankledger/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.OutboxMessage) error {
	query :=
		`INSERT INTO outbox_messages (id, aggregate_id, event_type, payload, status)
		 VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.AggregateID, msg.EventType, msg.Payload, string(models.OutboxStatusPending))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FetchPending locks up to limit pending messages in insertion order. Rows
// locked by another worker are skipped.
func (r *PostgresRepository) FetchPending(ctx context.Context, limit int) ([]models.OutboxMessage, error) {
	query :=
		`SELECT id, aggregate_id, event_type, payload, status, created_at, sent_at
		 FROM outbox_messages
		 WHERE status = $1
		 ORDER BY seq
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`

	rows, err := r.db.QueryContext(ctx, query, string(models.OutboxStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var messages []models.OutboxMessage
	for rows.Next() {
		var (
			msg    models.OutboxMessage
			status string
			sentAt sql.NullTime
		)
		if err := rows.Scan(&msg.ID, &msg.AggregateID, &msg.EventType, &msg.Payload, &status, &msg.CreatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		msg.Status = models.OutboxStatus(status)
		if sentAt.Valid {
			msg.SentAt = &sentAt.Time
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return messages, nil
}

func (r *PostgresRepository) MarkSent(ctx context.Context, id string) error {
	query := `UPDATE outbox_messages SET status = $1, sent_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, string(models.OutboxStatusSent), time.Now(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
