//nolint:errcheck // unchecked errors are acceptable in test files
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/benx421/ledger-bank/internal/auth"
	"github.com/benx421/ledger-bank/internal/cache"
	"github.com/benx421/ledger-bank/internal/config"
	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/handlers"
	"github.com/benx421/ledger-bank/internal/reference"
	"github.com/benx421/ledger-bank/internal/repository"
	"github.com/benx421/ledger-bank/internal/service"
)

const testPassword = "Str0ng!pass"

// TestServer wraps the HTTP test server and database for integration tests.
type TestServer struct {
	Server   *httptest.Server
	Database *db.DB
	Mail     *outbox
	token    string
}

// SetupTest creates a test server over a freshly migrated and emptied
// database. It skips the test when Postgres is unreachable.
func SetupTest(t *testing.T) *TestServer {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err, "failed to load config")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	require.NoError(t, database.Migrate(ctx), "failed to migrate")
	resetTestData(t, database)

	mail := &outbox{}
	generator := reference.NewGenerator(cfg.App.ReferenceMaxAttempts)
	notifier := service.NewNotificationDispatcher(
		repository.NewAccountRepository(database),
		repository.NewUserRepository(database),
		mail,
		cfg.App.Currency,
	)
	tokens := auth.NewTokenManager("integration-secret", "ledger-bank", time.Hour)

	h := handlers.NewHandler(
		service.NewEngine(database, generator, notifier, logger, time.Second),
		service.NewAccountService(database, generator, mail, logger),
		service.NewUserService(database, generator, nil, newMemCodes(), mail, time.Hour, logger),
		service.NewAuthService(database, tokens, logger),
		database,
		logger,
	)
	router := handlers.NewRouter(h, repository.NewIdempotencyRepository(database), tokens, &cfg.Server, logger)

	token, _, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	ts := &TestServer{
		Server:   httptest.NewServer(router),
		Database: database,
		Mail:     mail,
		token:    token,
	}
	t.Cleanup(ts.Close)
	return ts
}

// Close shuts down the test server and database connection.
func (ts *TestServer) Close() {
	ts.Server.Close()
	_ = ts.Database.Close()
}

// URL returns the full URL for a given path.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

func resetTestData(t *testing.T, database *db.DB) {
	t.Helper()

	_, err := database.ExecContext(context.Background(), `
		TRUNCATE TABLE transactions, accounts, users, idempotency_keys CASCADE;
	`)
	require.NoError(t, err, "failed to reset test data")
}

// SeedHolder inserts a verified user with one active account holding
// balance. The balance is backed by an opening credit so the ledger reconciles.
func (ts *TestServer) SeedHolder(t *testing.T, email, accountNumber, balance string) uuid.UUID {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	userID, accountID := uuid.New(), uuid.New()
	ctx := context.Background()

	_, err = ts.Database.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, phone_number, password, email_verified, nin_verified)
		VALUES ($1, 'Test', 'Holder', $2, $3, $4, TRUE, 'verified')`,
		userID, email, "080"+accountNumber[2:], string(hash))
	require.NoError(t, err)

	_, err = ts.Database.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, account_number, balance, status)
		VALUES ($1, $2, $3, $4, 'active')`,
		accountID, userID, accountNumber, balance)
	require.NoError(t, err)

	_, err = ts.Database.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, amount, balance_after, transaction_type, description, reference_id)
		SELECT $1, $2, $3, $3, 'credit', 'Opening deposit', $4
		WHERE $3::numeric > 0`,
		uuid.New(), accountID, balance, "TH"+accountNumber)
	require.NoError(t, err)

	return userID
}

// Balance reads an account balance straight from the database.
func (ts *TestServer) Balance(t *testing.T, accountNumber string) string {
	t.Helper()

	var balance string
	err := ts.Database.QueryRowContext(context.Background(),
		`SELECT balance::text FROM accounts WHERE account_number = $1`, accountNumber,
	).Scan(&balance)
	require.NoError(t, err)
	return balance
}

// Post sends an authenticated JSON POST.
func (ts *TestServer) Post(t *testing.T, path string, body any, idempotencyKey string) *http.Response {
	t.Helper()
	return ts.do(t, http.MethodPost, path, body, idempotencyKey)
}

func (ts *TestServer) do(t *testing.T, method, path string, body any, idempotencyKey string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, ts.URL(path), reader)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.token)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Fund, Withdraw and Transfer wrap the money-movement endpoints.
func (ts *TestServer) Fund(t *testing.T, account, amount, key string) *http.Response {
	return ts.Post(t, "/transaction/fund-account", map[string]any{"account_number": account, "amount": amount}, key)
}

func (ts *TestServer) Withdraw(t *testing.T, account, amount, key string) *http.Response {
	return ts.Post(t, "/transaction/withdraw-fund", map[string]any{"account_number": account, "amount": amount}, key)
}

func (ts *TestServer) Transfer(t *testing.T, from, to, amount string) *http.Response {
	return ts.Post(t, "/transaction/transfer-fund", map[string]any{
		"sender_account":   from,
		"receiver_account": to,
		"amount":           amount,
	}, "")
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

type email struct {
	to, subject, body string
}

// outbox records every email the services send.
type outbox struct {
	mu   sync.Mutex
	sent []email
}

func (o *outbox) Send(_ context.Context, to, subject, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, email{to: to, subject: subject, body: body})
	return nil
}

func (o *outbox) to(address string) []email {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []email
	for _, e := range o.sent {
		if e.to == address {
			out = append(out, e)
		}
	}
	return out
}

type memCodes struct {
	mu    sync.Mutex
	codes map[string]string
}

func newMemCodes() *memCodes {
	return &memCodes{codes: map[string]string{}}
}

func (m *memCodes) Put(_ context.Context, id, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[id] = code
	return nil
}

func (m *memCodes) Get(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[id]
	if !ok {
		return "", cache.ErrCodeNotFound
	}
	return code, nil
}

func (m *memCodes) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, id)
	return nil
}
