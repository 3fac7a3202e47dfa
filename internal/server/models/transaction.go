package models

import (
	"fmt"
	"time"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionTransfer   TransactionType = "transfer"
)

// ParseTransactionType accepts exactly one of the three known kinds.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionDeposit, TransactionWithdrawal, TransactionTransfer:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
}

// Transaction is an immutable ledger entry. Transfer legs are signed:
// negative on the sender side, positive on the receiver side.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	AccountID   string          `json:"account_id"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"timestamp"`
}

// TransactionFilter narrows a history query. Zero values mean "no bound".
// Both dates are inclusive.
type TransactionFilter struct {
	Type      TransactionType
	StartDate time.Time
	EndDate   time.Time
}
