package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bankledger/internal/common"
	"github.com/dmitrijs2005/bankledger/internal/dbx"
	"github.com/dmitrijs2005/bankledger/internal/server/models"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/outbox"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/bankledger/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// memLedger is an in-memory stand-in for the accounts, transactions and
// outbox tables. snapshot/restore emulate a rollback.
type memLedger struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	txs      []models.Transaction
	outbox   []models.OutboxMessage

	failTxCreate error
	failOutbox   error
	locks        []string
}

type memSnapshot struct {
	accounts map[string]models.Account
	txs      []models.Transaction
	outbox   []models.OutboxMessage
}

func newMemLedger() *memLedger {
	return &memLedger{accounts: map[string]models.Account{}}
}

func (m *memLedger) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc := make(map[string]models.Account, len(m.accounts))
	for k, v := range m.accounts {
		acc[k] = v
	}
	return memSnapshot{
		accounts: acc,
		txs:      append([]models.Transaction(nil), m.txs...),
		outbox:   append([]models.OutboxMessage(nil), m.outbox...),
	}
}

func (m *memLedger) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts, m.txs, m.outbox = s.accounts, s.txs, s.outbox
}

func (m *memLedger) put(a models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
}

func (m *memLedger) balance(id string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Balance
}

func (m *memLedger) entries(accountID string) []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, t := range m.txs {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}

// accounts.Repository

func (m *memLedger) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.CreatedAt = time.Now()
	m.accounts[a.ID] = *a
	return a, nil
}

func (m *memLedger) FindOwned(ctx context.Context, id, userID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (m *memLedger) FindByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (m *memLedger) ListByUser(ctx context.Context, userID string) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Account, 0)
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLedger) Credit(ctx context.Context, id string, amount float64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	m.locks = append(m.locks, id)
	a.Balance += amount
	m.accounts[id] = a
	return &a, nil
}

func (m *memLedger) Debit(ctx context.Context, id string, amount float64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok || a.Balance < amount {
		return nil, common.ErrInsufficientFunds
	}
	m.locks = append(m.locks, id)
	a.Balance -= amount
	m.accounts[id] = a
	return &a, nil
}

type memTransactions struct{ *memLedger }

func (m memTransactions) Create(ctx context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTxCreate != nil {
		return m.failTxCreate
	}
	t.CreatedAt = time.Now()
	m.txs = append(m.txs, *t)
	return nil
}

func (m memTransactions) List(ctx context.Context, accountID string, f models.TransactionFilter) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Transaction, 0)
	for _, t := range m.txs {
		if t.AccountID != accountID || (f.Type != "" && t.Type != f.Type) {
			continue
		}
		if !f.StartDate.IsZero() && t.CreatedAt.Before(f.StartDate) {
			continue
		}
		if !f.EndDate.IsZero() && t.CreatedAt.After(f.EndDate) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type memOutbox struct{ *memLedger }

func (m memOutbox) Create(ctx context.Context, msg *models.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOutbox != nil {
		return m.failOutbox
	}
	msg.Status = models.OutboxStatusPending
	m.outbox = append(m.outbox, *msg)
	return nil
}

func (m memOutbox) FetchPending(ctx context.Context, limit int) ([]models.OutboxMessage, error) {
	return nil, nil
}

func (m memOutbox) MarkSent(ctx context.Context, id string) error { return nil }

type fakeUsersRepo struct {
	createOut *models.User
	createErr error
	created   *models.User

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.created = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "generated"
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr    error
	createErr error
	created   []string
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	return f.delErr
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	r  *fakeRefreshRepo
	ml *memLedger
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository           { return m.ml }
func (m *fakeRepoManager) Transactions(db dbx.DBTX) transactions.Repository   { return memTransactions{m.ml} }
func (m *fakeRepoManager) Outbox(db dbx.DBTX) outbox.Repository               { return memOutbox{m.ml} }
