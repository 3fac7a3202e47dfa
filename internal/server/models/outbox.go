package models

import "time"

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
)

// OutboxMessage is a ledger event waiting to be published. It is written in
// the same transaction as the balance change it describes.
type OutboxMessage struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	SentAt      *time.Time
}

// LedgerEvent is the JSON payload carried by an OutboxMessage.
type LedgerEvent struct {
	EventID          string          `json:"event_id"`
	Type             TransactionType `json:"type"`
	AccountID        string          `json:"account_id"`
	CounterAccountID string          `json:"counter_account_id,omitempty"`
	UserID           string          `json:"user_id"`
	Amount           float64         `json:"amount"`
	Balance          float64         `json:"balance"`
	OccurredAt       time.Time       `json:"occurred_at"`
}
