// Package accounts stores bank accounts and applies balance mutations.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/bankledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	// FindOwned returns the account only when it belongs to userID.
	FindOwned(ctx context.Context, id, userID string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	ListByUser(ctx context.Context, userID string) ([]models.Account, error)
	// Credit adds amount to the balance and returns the updated row.
	Credit(ctx context.Context, id string, amount float64) (*models.Account, error)
	// Debit subtracts amount only if the balance covers it, in one statement.
	// It returns common.ErrInsufficientFunds when no row qualifies.
	Debit(ctx context.Context, id string, amount float64) (*models.Account, error)
}
