package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/benx421/ledger-bank/internal/identity"
	"github.com/benx421/ledger-bank/internal/models"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// MoneyMover handles balance-changing operations and history
type MoneyMover interface {
	Fund(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error)
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal, description string) (*TransferResult, error)
	History(ctx context.Context, accountNumber string, page, size int) (*History, error)
}

// AccountCreator opens additional accounts
type AccountCreator interface {
	CreateNewAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
}

// Onboarder handles registration and email verification
type Onboarder interface {
	Register(ctx context.Context, in RegisterInput) (*Profile, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendVerification(ctx context.Context, email string) error
	GetUser(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// Authenticator exchanges credentials for a bearer token
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// IdentityVerifier checks a national identity number with the provider
type IdentityVerifier interface {
	IsBlocklisted(ctx context.Context, nin string) (bool, error)
	Lookup(ctx context.Context, nin string) (*identity.Identity, error)
}

// CodeStore keeps verification codes keyed by email
type CodeStore interface {
	Put(ctx context.Context, id, code string, ttl time.Duration) error
	Get(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// TokenIssuer signs bearer tokens
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

// Ensure concrete types implement interfaces
var (
	_ MoneyMover     = (*Engine)(nil)
	_ AccountCreator = (*AccountService)(nil)
	_ Onboarder      = (*UserService)(nil)
	_ Authenticator  = (*AuthService)(nil)
	_ Notifier       = (*NotificationDispatcher)(nil)
)
