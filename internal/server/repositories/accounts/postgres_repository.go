package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bankledger/internal/common"
	"github.com/dmitrijs2005/bankledger/internal/dbx"
	"github.com/dmitrijs2005/bankledger/internal/server/models"
)

const accountColumns = `id, user_id, balance, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanAccount(row *sql.Row, notFound error) (*models.Account, error) {
	a := &models.Account{}
	if err := row.Scan(&a.ID, &a.UserID, &a.Balance, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		if dbx.IsNumericOverflow(err) {
			return nil, fmt.Errorf("%w: %v", common.ErrAmountOutOfRange, err)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, user_id, balance)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, account.ID, account.UserID, account.Balance).Scan(&account.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) FindOwned(ctx context.Context, id, userID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2`
	return scanAccount(r.db.QueryRowContext(ctx, query, id, userID), common.ErrorNotFound)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id), common.ErrorNotFound)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Account, 0)
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Balance, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Credit(ctx context.Context, id string, amount float64) (*models.Account, error) {
	query :=
		`UPDATE accounts SET balance = balance + $1
		 WHERE id = $2
		 RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRowContext(ctx, query, amount, id), common.ErrorNotFound)
}

func (r *PostgresRepository) Debit(ctx context.Context, id string, amount float64) (*models.Account, error) {
	query :=
		`UPDATE accounts SET balance = balance - $1
		 WHERE id = $2 AND balance >= $1
		 RETURNING ` + accountColumns
	return scanAccount(r.db.QueryRowContext(ctx, query, amount, id), common.ErrInsufficientFunds)
}
