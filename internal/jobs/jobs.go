// Package jobs runs the periodic maintenance tasks of the ledger.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/benx421/ledger-bank/internal/repository"
)

const jobTimeout = 5 * time.Minute

// Jobs holds the maintenance tasks and their dependencies
type Jobs struct {
	accounts       repository.AccountRepository
	idempotency    repository.IdempotencyRepository
	logger         *slog.Logger
	now            func() time.Time
	idempotencyTTL time.Duration
}

// NewJobs creates a new Jobs
func NewJobs(accounts repository.AccountRepository, idempotency repository.IdempotencyRepository, idempotencyTTL time.Duration, logger *slog.Logger) *Jobs {
	return &Jobs{
		accounts:       accounts,
		idempotency:    idempotency,
		logger:         logger,
		now:            time.Now,
		idempotencyTTL: idempotencyTTL,
	}
}

// ReconcileLedger reports every account whose stored balance differs from
// the signed sum of its transactions.
func (j *Jobs) ReconcileLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	drifts, err := j.accounts.FindBalanceDrift(ctx)
	if err != nil {
		j.logger.Error("ledger reconciliation failed", "error", err)
		return
	}

	for _, d := range drifts {
		j.logger.Error("balance does not match ledger",
			"account_id", d.AccountID,
			"account_number", d.AccountNumber,
			"balance", d.Balance.StringFixed(2),
			"ledger_total", d.LedgerTotal.StringFixed(2),
			"difference", d.Difference().StringFixed(2),
		)
	}
	j.logger.Info("ledger reconciliation complete", "drifted_accounts", len(drifts))
}

// PurgeIdempotencyKeys removes stored responses older than the TTL
func (j *Jobs) PurgeIdempotencyKeys() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cutoff := j.now().Add(-j.idempotencyTTL)
	removed, err := j.idempotency.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("idempotency purge failed", "error", err)
		return
	}
	j.logger.Info("idempotency keys purged", "removed", removed, "cutoff", cutoff)
}
