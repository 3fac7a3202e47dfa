package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/bankledger/internal/common"
	"github.com/dmitrijs2005/bankledger/internal/dbx"
	"github.com/dmitrijs2005/bankledger/internal/server/models"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// TransferResult holds both accounts after a successful transfer.
type TransferResult struct {
	Sender   *models.Account `json:"sender"`
	Receiver *models.Account `json:"receiver"`
}

// LedgerService moves value between accounts. Every mutation runs in one
// database transaction that covers the balance change, the ledger entries
// and the outbox event, so a failure anywhere leaves no partial state.
type LedgerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	withTx      func(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx dbx.DBTX) error) error
	newID       func() string
	now         func() time.Time
}

func NewLedgerService(db *sql.DB, m repomanager.RepositoryManager) *LedgerService {
	return &LedgerService{
		db:          db,
		repomanager: m,
		withTx:      dbx.WithTx,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// MaxAmount bounds a single deposit, withdrawal or transfer. Below it every
// whole-cent value survives the float64 round trip exactly.
const MaxAmount = 1e13

// ValidateAmount accepts positive amounts in whole cents below MaxAmount.
// Balances are stored as NUMERIC(20,2), so anything finer would be rounded
// by the database instead of rejected.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return common.Validationf("amount must be a positive number")
	}
	if amount >= MaxAmount {
		return common.ErrAmountOutOfRange
	}
	if math.Round(amount*100)/100 != amount {
		return common.Validationf("amount must have at most two decimal places")
	}
	return nil
}

// authorize is the single ownership check shared by every account operation.
// Accounts that exist but belong to someone else are reported as not found.
func (s *LedgerService) authorize(ctx context.Context, db dbx.DBTX, accountID, userID string) (*models.Account, error) {
	return s.repomanager.Accounts(db).FindOwned(ctx, accountID, userID)
}

func (s *LedgerService) OpenAccount(ctx context.Context, userID string) (*models.Account, error) {
	account := &models.Account{ID: s.newID(), UserID: userID}
	created, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return created, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	return s.repomanager.Accounts(s.db).ListByUser(ctx, userID)
}

func (s *LedgerService) Deposit(ctx context.Context, accountID, userID string, amount float64) (*models.Account, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	var updated *models.Account
	err := s.withTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.authorize(ctx, tx, accountID, userID); err != nil {
			return err
		}

		var err error
		updated, err = s.repomanager.Accounts(tx).Credit(ctx, accountID, amount)
		if err != nil {
			return err
		}

		return s.record(ctx, tx, updated, models.TransactionDeposit, amount, "deposit", "")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Withdraw debits the account only if its balance covers amount. The check
// and the decrement are one conditional UPDATE, so concurrent withdrawals
// cannot overdraw.
func (s *LedgerService) Withdraw(ctx context.Context, accountID, userID string, amount float64) (*models.Account, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	var updated *models.Account
	err := s.withTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.authorize(ctx, tx, accountID, userID); err != nil {
			return err
		}

		var err error
		updated, err = s.repomanager.Accounts(tx).Debit(ctx, accountID, amount)
		if err != nil {
			return err
		}

		return s.record(ctx, tx, updated, models.TransactionWithdrawal, amount, "withdrawal", "")
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Transfer moves amount from an owned sender account to any receiver
// account. Rows are locked in ascending id order so opposite transfers
// between the same pair cannot deadlock.
func (s *LedgerService) Transfer(ctx context.Context, senderID, userID, receiverID string, amount float64) (*TransferResult, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, common.ErrSameAccount
	}

	result := &TransferResult{}
	err := s.withTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)

		sender, err := s.authorize(ctx, tx, senderID, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrSenderNotFound
			}
			return err
		}
		receiver, err := accounts.FindByID(ctx, receiverID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrReceiverNotFound
			}
			return err
		}

		debit := func() (err error) {
			result.Sender, err = accounts.Debit(ctx, sender.ID, amount)
			return err
		}
		credit := func() (err error) {
			result.Receiver, err = accounts.Credit(ctx, receiver.ID, amount)
			return err
		}
		steps := []func() error{debit, credit}
		if receiver.ID < sender.ID {
			steps = []func() error{credit, debit}
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}

		if err := s.record(ctx, tx, result.Sender, models.TransactionTransfer, -amount,
			"transfer to "+receiver.ID, receiver.ID); err != nil {
			return err
		}
		return s.record(ctx, tx, result.Receiver, models.TransactionTransfer, amount,
			"transfer from "+sender.ID, sender.ID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LedgerService) GetBalance(ctx context.Context, accountID, userID string) (float64, error) {
	account, err := s.authorize(ctx, s.db, accountID, userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, accountID, userID string, filter models.TransactionFilter) ([]models.Transaction, error) {
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() && filter.EndDate.Before(filter.StartDate) {
		return nil, common.Validationf("endDate is before startDate")
	}
	if _, err := s.authorize(ctx, s.db, accountID, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Transactions(s.db).List(ctx, accountID, filter)
}

// record appends the ledger entry for one leg and queues its event.
func (s *LedgerService) record(ctx context.Context, tx dbx.DBTX, account *models.Account,
	typ models.TransactionType, amount float64, description, counterAccountID string) error {

	entry := &models.Transaction{
		ID:          s.newID(),
		UserID:      account.UserID,
		AccountID:   account.ID,
		Type:        typ,
		Amount:      amount,
		Description: description,
	}
	if err := s.repomanager.Transactions(tx).Create(ctx, entry); err != nil {
		return err
	}

	event := models.LedgerEvent{
		EventID:          s.newID(),
		Type:             typ,
		AccountID:        account.ID,
		CounterAccountID: counterAccountID,
		UserID:           account.UserID,
		Amount:           amount,
		Balance:          account.Balance,
		OccurredAt:       s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal ledger event: %w", err)
	}

	return s.repomanager.Outbox(tx).Create(ctx, &models.OutboxMessage{
		ID:          event.EventID,
		AggregateID: account.ID,
		EventType:   string(typ),
		Payload:     payload,
	})
}
