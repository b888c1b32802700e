//nolint:errcheck // unchecked errors are acceptable in test files
package tests

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benx421/ledger-bank/internal/repository"
)

func TestFundWithdrawAndHistory(t *testing.T) {
	ts := SetupTest(t)
	ts.SeedHolder(t, "ada@example.com", "0000000001", "1000.00")

	resp := ts.Withdraw(t, "0000000001", "250", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "750.00", data["balance_after"])
	assert.Equal(t, "250.00", data["amount"])
	assert.Regexp(t, `^THD\d{12}$`, data["reference_id"])

	resp = ts.Fund(t, "0000000001", "1234.56", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, "1984.56", ts.Balance(t, "0000000001"))

	resp = ts.do(t, http.MethodGet, "/transaction/history?account_number=0000000001&page=1&size=2", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, float64(2), history["totalPages"])
	assert.Equal(t, float64(2), history["page"])
	txns := history["transactions"].([]any)
	require.Len(t, txns, 2)
	assert.Equal(t, "credit", txns[0].(map[string]any)["transaction_type"])

	assert.Len(t, ts.Mail.to("ada@example.com"), 2)
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	ts := SetupTest(t)
	ts.SeedHolder(t, "ada@example.com", "0000000001", "100.00")

	resp := ts.Withdraw(t, "0000000001", "100.01", "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Insufficient funds.", decodeBody(t, resp)["message"])

	assert.Equal(t, "100.00", ts.Balance(t, "0000000001"))
}

func TestConcurrentWithdrawals_OnlyOneDrainsTheBalance(t *testing.T) {
	ts := SetupTest(t)
	ts.SeedHolder(t, "ada@example.com", "0000000001", "1000.00")

	const workers = 10
	statuses := make([]int, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := ts.Withdraw(t, "0000000001", "1000", "")
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	created := 0
	for _, status := range statuses {
		if status == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusForbidden, status)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, "0.00", ts.Balance(t, "0000000001"))

	var debits int
	require.NoError(t, ts.Database.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM transactions WHERE transaction_type = 'debit'`).Scan(&debits))
	assert.Equal(t, 1, debits)
}

func TestConcurrentOpposingTransfers_ConserveMoney(t *testing.T) {
	ts := SetupTest(t)
	ts.SeedHolder(t, "ada@example.com", "0000000001", "500.00")
	ts.SeedHolder(t, "bola@example.com", "0000000002", "500.00")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "0000000001", "0000000002"
			if i%2 == 1 {
				from, to = to, from
			}
			resp := ts.Transfer(t, from, to, "10")
			assert.Contains(t, []int{http.StatusCreated, http.StatusForbidden}, resp.StatusCode)
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	var total string
	require.NoError(t, ts.Database.QueryRowContext(context.Background(),
		`SELECT SUM(balance)::text FROM accounts`).Scan(&total))
	assert.Equal(t, "1000.00", total)

	drift, err := repository.NewAccountRepository(ts.Database).FindBalanceDrift(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestTransfer_DormantReceiverLeavesBothUnchanged(t *testing.T) {
	ts := SetupTest(t)
	ts.SeedHolder(t, "ada@example.com", "0000000001", "500.00")
	ts.SeedHolder(t, "bola@example.com", "0000000002", "0.00")

	_, err := ts.Database.ExecContext(context.Background(),
		`UPDATE accounts SET status = 'dormant' WHERE account_number = '0000000002'`)
	require.NoError(t, err)

	resp := ts.Transfer(t, "0000000001", "0000000002", "100")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	assert.Equal(t, "500.00", ts.Balance(t, "0000000001"))
	assert.Equal(t, "0.00", ts.Balance(t, "0000000002"))
}

func TestIdempotentWithdrawal(t *testing.T) {
	ts := SetupTest(t)
	ts.SeedHolder(t, "ada@example.com", "0000000001", "1000.00")

	first := ts.Withdraw(t, "0000000001", "100", "withdraw-once")
	require.Equal(t, http.StatusCreated, first.StatusCode)
	firstBody := decodeBody(t, first)

	second := ts.Withdraw(t, "0000000001", "100", "withdraw-once")
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("X-Idempotent-Replayed"))
	assert.Equal(t, firstBody, decodeBody(t, second))

	assert.Equal(t, "900.00", ts.Balance(t, "0000000001"))
}

func TestConcurrentSameKeyWithdrawals_DebitOnce(t *testing.T) {
	ts := SetupTest(t)
	ts.SeedHolder(t, "ada@example.com", "0000000001", "1000.00")

	const workers = 10
	statuses := make([]int, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := ts.Withdraw(t, "0000000001", "100", "same-key")
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}(i)
	}
	wg.Wait()

	created := 0
	for _, status := range statuses {
		if status == http.StatusCreated {
			created++
		} else {
			assert.Equal(t, http.StatusConflict, status)
		}
	}
	assert.GreaterOrEqual(t, created, 1)
	assert.Equal(t, "900.00", ts.Balance(t, "0000000001"))

	var debits int
	require.NoError(t, ts.Database.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM transactions WHERE transaction_type = 'debit'`).Scan(&debits))
	assert.Equal(t, 1, debits)
}

func TestIdempotencyKey_ReusedWithDifferentAmount(t *testing.T) {
	ts := SetupTest(t)
	ts.SeedHolder(t, "ada@example.com", "0000000001", "1000.00")

	first := ts.Withdraw(t, "0000000001", "100", "withdraw-once")
	require.Equal(t, http.StatusCreated, first.StatusCode)
	first.Body.Close()

	second := ts.Withdraw(t, "0000000001", "500", "withdraw-once")
	require.Equal(t, http.StatusUnprocessableEntity, second.StatusCode)
	second.Body.Close()

	assert.Equal(t, "900.00", ts.Balance(t, "0000000001"))
}

func TestIdempotencyKey_RetryAfterFailure(t *testing.T) {
	ts := SetupTest(t)
	ts.SeedHolder(t, "ada@example.com", "0000000001", "50.00")

	first := ts.Withdraw(t, "0000000001", "100", "retry-me")
	require.Equal(t, http.StatusForbidden, first.StatusCode)
	first.Body.Close()

	resp := ts.Fund(t, "0000000001", "100", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	second := ts.Withdraw(t, "0000000001", "100", "retry-me")
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Empty(t, second.Header.Get("X-Idempotent-Replayed"))
	second.Body.Close()

	assert.Equal(t, "50.00", ts.Balance(t, "0000000001"))
}

var codePattern = regexp.MustCompile(`code is (\d{6})`)

func TestRegisterVerifyLogin(t *testing.T) {
	ts := SetupTest(t)

	resp := ts.Post(t, "/user/register", map[string]any{
		"first_name":       "Chidi",
		"last_name":        "Eze",
		"email":            "chidi@example.com",
		"phone_number":     "+2348031234567",
		"password":         testPassword,
		"confirm_password": testPassword,
		"nin":              "12345678901",
		"dob":              "1990-01-15",
		"initial_deposit":  5000,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	profile := decodeBody(t, resp)["data"].(map[string]any)
	accounts := profile["accounts"].([]any)
	require.Len(t, accounts, 1)
	account := accounts[0].(map[string]any)
	assert.Equal(t, "dormant", account["status"])
	accountNumber := account["account_number"].(string)

	resp = ts.Fund(t, accountNumber, "10", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	var match []string
	for _, m := range ts.Mail.to("chidi@example.com") {
		if found := codePattern.FindStringSubmatch(m.body); found != nil {
			match = found
		}
	}
	require.Len(t, match, 2, "no verification code was emailed")

	resp = ts.do(t, http.MethodPut, "/user/verify-user", map[string]any{
		"email": "chidi@example.com",
		"code":  match[1],
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.Fund(t, accountNumber, "10", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, "5010.00", ts.Balance(t, accountNumber))

	resp = ts.Post(t, "/auth/login", map[string]any{"email": "chidi@example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = ts.Post(t, "/auth/login", map[string]any{"email": "chidi@example.com", "password": testPassword}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeBody(t, resp)["data"].(map[string]any)
	assert.NotEmpty(t, login["token"])
}

func TestCreateAccount_ForExistingUser(t *testing.T) {
	ts := SetupTest(t)
	userID := ts.SeedHolder(t, "ada@example.com", "0000000001", "0.00")

	resp := ts.Post(t, fmt.Sprintf("/account/create-account?user_id=%s", userID), nil, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := decodeBody(t, resp)["data"].(map[string]any)
	assert.Regexp(t, `^\d{10}$`, data["account_number"])

	resp = ts.do(t, http.MethodGet, "/user?user_id="+userID.String(), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody(t, resp)["data"].(map[string]any)
	assert.Len(t, profile["accounts"].([]any), 2)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := SetupTest(t)

	resp, err := http.Post(ts.URL("/transaction/fund-account"), "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := SetupTest(t)

	resp, err := http.Get(ts.URL("/health"))
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", decodeBody(t, resp)["message"])
}
