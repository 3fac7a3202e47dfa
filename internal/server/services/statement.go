package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/server/models"
	"github.com/google/uuid"
)

// ObjectStore is the subset of storage.S3Store used for exports.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// Statement points at an uploaded CSV export.
type Statement struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// StatementService renders an account's filtered history as CSV and stores
// it in object storage.
type StatementService struct {
	ledger *LedgerService
	store  ObjectStore
	now    func() time.Time
}

func NewStatementService(ledger *LedgerService, store ObjectStore) *StatementService {
	return &StatementService{ledger: ledger, store: store, now: time.Now}
}

func statementKey(userID string, d time.Time) string {
	return fmt.Sprintf("statements/%s/%04d/%02d/%02d/%s.csv", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func renderCSV(txs []models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "timestamp", "type", "amount", "description"}); err != nil {
		return nil, err
	}
	for _, t := range txs {
		row := []string{
			t.ID,
			t.CreatedAt.UTC().Format(time.RFC3339),
			string(t.Type),
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			t.Description,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Export fails with common.ErrorNotFound for accounts the caller does not own.
func (s *StatementService) Export(ctx context.Context, accountID, userID string, filter models.TransactionFilter) (*Statement, error) {
	txs, err := s.ledger.ListTransactions(ctx, accountID, userID, filter)
	if err != nil {
		return nil, err
	}

	body, err := renderCSV(txs)
	if err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}

	key := statementKey(userID, s.now().UTC())
	if err := s.store.Put(ctx, key, body, "text/csv"); err != nil {
		return nil, err
	}

	url, err := s.store.PresignGet(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Statement{Key: key, URL: url}, nil
}
