package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupMockDB(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})
	return db.NewTestDB(sqlDB), mock
}

// memLedger is an in-memory account and transaction store used to check
// ledger properties without a database.
type memLedger struct {
	accounts map[string]*models.Account
	txns     []models.Transaction
	mu       sync.Mutex
}

func newMemLedger() *memLedger {
	return &memLedger{accounts: map[string]*models.Account{}}
}

func (m *memLedger) add(number string, balance string, status models.AccountStatus) *models.Account {
	a := &models.Account{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		AccountNumber: number,
		Balance:       dec(balance),
		Status:        status,
	}
	m.accounts[number] = a
	return a
}

func (m *memLedger) balance(number string) decimal.Decimal {
	return m.accounts[number].Balance
}

func (m *memLedger) entriesFor(accountID uuid.UUID) []models.Transaction {
	var out []models.Transaction
	for _, t := range m.txns {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}

func (m *memLedger) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memLedger) FindByAccountNumber(_ context.Context, number string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[number]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (m *memLedger) FindByAccountNumberForUpdate(ctx context.Context, number string) (*models.Account, error) {
	return m.FindByAccountNumber(ctx, number)
}

func (m *memLedger) FindByUserID(_ context.Context, userID uuid.UUID) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out, nil
}

func (m *memLedger) ExistsByAccountNumber(_ context.Context, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[number]
	return ok, nil
}

func (m *memLedger) Create(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.AccountNumber]; ok {
		return models.ErrDuplicateAccountNumber
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	c := *account
	m.accounts[account.AccountNumber] = &c
	return nil
}

func (m *memLedger) IncrementBalance(_ context.Context, number string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[number]
	if !ok {
		return models.ErrNotFound
	}
	a.Balance = a.Balance.Add(amount)
	return nil
}

func (m *memLedger) DecrementBalance(_ context.Context, number string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[number]
	if !ok || a.Balance.LessThan(amount) {
		return models.ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

func (m *memLedger) GetBalance(_ context.Context, number string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[number]
	if !ok {
		return decimal.Zero, nil
	}
	return a.Balance, nil
}

func (m *memLedger) UpdateStatusByUserID(_ context.Context, userID uuid.UUID, status models.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.UserID == userID {
			a.Status = status
		}
	}
	return nil
}

func (m *memLedger) FindBalanceDrift(context.Context) ([]models.BalanceDrift, error) {
	return nil, nil
}

// memTxns exposes the transaction side of memLedger. It is a separate type
// because both repositories declare Create and FindByID.
type memTxns struct {
	*memLedger
}

func (m memTxns) Create(_ context.Context, txn *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.ReferenceID == txn.ReferenceID {
			return models.ErrDuplicateReference
		}
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.CreatedAt = time.Now()
	m.txns = append(m.txns, *txn)
	return nil
}

func (m memTxns) FindByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.ID == id {
			c := t
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m memTxns) FindByReferenceID(_ context.Context, ref string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.txns {
		if t.ReferenceID == ref {
			c := t
			return &c, nil
		}
	}
	return nil, nil
}

func (m memTxns) ExistsByReferenceID(ctx context.Context, ref string) (bool, error) {
	t, err := m.FindByReferenceID(ctx, ref)
	return t != nil, err
}

func (m memTxns) ListByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]models.Transaction, error) {
	entries := m.entriesFor(accountID)
	if offset >= len(entries) {
		return []models.Transaction{}, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

func (m memTxns) CountByAccount(_ context.Context, accountID uuid.UUID) (int, error) {
	return len(m.entriesFor(accountID)), nil
}

// recordingNotifier captures notices and can be told to fail
type recordingNotifier struct {
	err     error
	notices []Notice
	mu      sync.Mutex
}

func (n *recordingNotifier) Notify(_ context.Context, notice Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

// recordingMailer captures sent messages
type recordingMailer struct {
	err  error
	sent []sentMail
	mu   sync.Mutex
}

type sentMail struct {
	to, subject, body string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return m.err
}
