package events

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/dbx"
	"github.com/dmitrijs2005/bankledger/internal/logging"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/outbox"
)

// OutboxRepositories vends an outbox repository bound to a transaction.
// repomanager.RepositoryManager satisfies it.
type OutboxRepositories interface {
	Outbox(db dbx.DBTX) outbox.Repository
}

// Processor drains the outbox. Each tick locks a batch of pending rows,
// publishes them in order and marks them sent in the same transaction.
// Delivery is at-least-once: a crash between publish and commit republishes.
type Processor struct {
	db        *sql.DB
	repos     OutboxRepositories
	publisher Publisher
	interval  time.Duration
	batchSize int
	log       logging.Logger
}

func NewProcessor(db *sql.DB, repos OutboxRepositories, p Publisher, interval time.Duration, batchSize int, log logging.Logger) *Processor {
	return &Processor{
		db:        db,
		repos:     repos,
		publisher: p,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Run polls until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.log.Info(ctx, "outbox processor started", "interval", p.interval.String(), "batch", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info(context.Background(), "outbox processor stopped")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				p.log.Error(ctx, "outbox batch failed", "error", err)
			}
		}
	}
}

// ProcessBatch publishes up to batchSize pending messages and returns how
// many were marked sent. A publish failure stops the batch so later events
// of the same account are not delivered ahead of it; the failed message
// stays pending.
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	sent := 0
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := p.repos.Outbox(tx)

		messages, err := repo.FetchPending(ctx, p.batchSize)
		if err != nil {
			return err
		}

		for _, msg := range messages {
			if err := p.publisher.Publish(ctx, msg); err != nil {
				p.log.Warn(ctx, "publish failed, will retry", "id", msg.ID, "error", err)
				return nil
			}
			if err := repo.MarkSent(ctx, msg.ID); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if sent > 0 {
		p.log.Debug(ctx, "outbox messages published", "count", sent)
	}
	return sent, nil
}
