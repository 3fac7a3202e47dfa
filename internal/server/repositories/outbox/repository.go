// Package outbox stores ledger events until they are published to a broker.
package outbox

import (
	"context"

	"github.com/dmitrijs2005/bankledger/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.OutboxMessage) error
	// FetchPending locks up to limit pending messages, oldest first. It must
	// run inside a transaction for the row locks to hold.
	FetchPending(ctx context.Context, limit int) ([]models.OutboxMessage, error)
	MarkSent(ctx context.Context, id string) error
}
