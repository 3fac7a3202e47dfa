// Package transactions persists the append-only ledger entries.
package transactions

import (
	"context"

	"github.com/dmitrijs2005/bankledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	// List returns the entries of one account matching filter, oldest first.
	List(ctx context.Context, accountID string, filter models.TransactionFilter) ([]models.Transaction, error)
}
