package jobs

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benx421/ledger-bank/internal/models"
	"github.com/benx421/ledger-bank/internal/repository/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReconcileLedger(t *testing.T) {
	t.Run("logs each drifted account", func(t *testing.T) {
		var buf bytes.Buffer
		accounts := mocks.NewMockAccountRepository(t)
		j := NewJobs(accounts, nil, time.Hour, slog.New(slog.NewJSONHandler(&buf, nil)))

		accounts.On("FindBalanceDrift", mock.Anything).Return([]models.BalanceDrift{{
			AccountID:     uuid.New(),
			AccountNumber: "0123456789",
			Balance:       decimal.RequireFromString("1000"),
			LedgerTotal:   decimal.RequireFromString("750"),
		}}, nil)

		j.ReconcileLedger()

		out := buf.String()
		assert.Contains(t, out, `"level":"ERROR"`)
		assert.Contains(t, out, `"account_number":"0123456789"`)
		assert.Contains(t, out, `"difference":"250.00"`)
		assert.Contains(t, out, `"drifted_accounts":1`)
	})

	t.Run("clean ledger", func(t *testing.T) {
		var buf bytes.Buffer
		accounts := mocks.NewMockAccountRepository(t)
		j := NewJobs(accounts, nil, time.Hour, slog.New(slog.NewJSONHandler(&buf, nil)))

		accounts.On("FindBalanceDrift", mock.Anything).Return(nil, nil)

		j.ReconcileLedger()

		assert.NotContains(t, buf.String(), `"level":"ERROR"`)
		assert.Contains(t, buf.String(), `"drifted_accounts":0`)
	})

	t.Run("query failure", func(t *testing.T) {
		var buf bytes.Buffer
		accounts := mocks.NewMockAccountRepository(t)
		j := NewJobs(accounts, nil, time.Hour, slog.New(slog.NewJSONHandler(&buf, nil)))

		accounts.On("FindBalanceDrift", mock.Anything).Return(nil, errors.New("connection refused"))

		j.ReconcileLedger()

		assert.Contains(t, buf.String(), "ledger reconciliation failed")
	})
}

func TestPurgeIdempotencyKeys(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("deletes keys past the ttl", func(t *testing.T) {
		repo := mocks.NewMockIdempotencyRepository(t)
		j := NewJobs(nil, repo, 24*time.Hour, discardLogger())
		j.now = func() time.Time { return now }

		repo.On("DeleteOlderThan", mock.Anything, now.Add(-24*time.Hour)).Return(int64(3), nil)

		j.PurgeIdempotencyKeys()
	})

	t.Run("store failure is logged", func(t *testing.T) {
		var buf bytes.Buffer
		repo := mocks.NewMockIdempotencyRepository(t)
		j := NewJobs(nil, repo, time.Hour, slog.New(slog.NewJSONHandler(&buf, nil)))
		j.now = func() time.Time { return now }

		repo.On("DeleteOlderThan", mock.Anything, mock.Anything).Return(int64(0), errors.New("timeout"))

		j.PurgeIdempotencyKeys()

		assert.Contains(t, buf.String(), "idempotency purge failed")
	})
}

func TestScheduler_Register(t *testing.T) {
	tests := []struct {
		name      string
		schedules Schedules
		want      int
		wantErr   bool
	}{
		{name: "both jobs", schedules: Schedules{Reconcile: "@hourly", IdempotencyPurge: "0 3 * * *"}, want: 2},
		{name: "purge disabled", schedules: Schedules{Reconcile: "@every 30m"}, want: 1},
		{name: "nothing scheduled", schedules: Schedules{}, want: 0},
		{name: "invalid expression", schedules: Schedules{Reconcile: "every tuesday"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(NewJobs(nil, nil, time.Hour, discardLogger()), discardLogger())

			err := s.Register(tt.schedules)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Entries())
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler(NewJobs(nil, nil, time.Hour, discardLogger()), discardLogger())
	require.NoError(t, s.Register(Schedules{Reconcile: "@daily"}))

	s.Start()
	ctx := s.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
