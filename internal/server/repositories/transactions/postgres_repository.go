package transactions

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bankledger/internal/dbx"
	"github.com/dmitrijs2005/bankledger/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) error {
	query :=
		`INSERT INTO transactions (id, user_id, account_id, type, amount, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.UserID, t.AccountID, string(t.Type), t.Amount, t.Description).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func buildListQuery(accountID string, f models.TransactionFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, user_id, account_id, type, amount, description, created_at FROM transactions WHERE account_id = $1`)
	args := []any{accountID}

	if f.Type != "" {
		args = append(args, string(f.Type))
		fmt.Fprintf(&sb, " AND type = $%d", len(args))
	}
	if !f.StartDate.IsZero() {
		args = append(args, f.StartDate)
		fmt.Fprintf(&sb, " AND created_at >= $%d", len(args))
	}
	if !f.EndDate.IsZero() {
		args = append(args, f.EndDate)
		fmt.Fprintf(&sb, " AND created_at <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY created_at, id")

	return sb.String(), args
}

func (r *PostgresRepository) List(ctx context.Context, accountID string, filter models.TransactionFilter) ([]models.Transaction, error) {
	query, args := buildListQuery(accountID, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Transaction, 0)
	for rows.Next() {
		var (
			t   models.Transaction
			typ string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &typ, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		t.Type = models.TransactionType(typ)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
