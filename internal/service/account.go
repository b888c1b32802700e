package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/models"
	"github.com/benx421/ledger-bank/internal/reference"
	"github.com/benx421/ledger-bank/internal/repository"
)

// AccountService opens accounts
type AccountService struct {
	db        *db.DB
	generator *reference.Generator
	mailer    Mailer
	logger    *slog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(database *db.DB, generator *reference.Generator, mailer Mailer, logger *slog.Logger) *AccountService {
	return &AccountService{
		db:        database,
		generator: generator,
		mailer:    mailer,
		logger:    logger,
	}
}

// Create inserts an account row with the given number, owner, opening
// balance and status
func (s *AccountService) Create(ctx context.Context, accountNumber string, userID uuid.UUID, initialBalance decimal.Decimal, status models.AccountStatus) (*models.Account, error) {
	return createAccount(ctx, repository.NewAccountRepository(s.db), accountNumber, userID, initialBalance, status)
}

// CreateNewAccount opens an additional active account for an existing user
// and returns it
func (s *AccountService) CreateNewAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	user, err := repository.NewUserRepository(s.db).FindByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodeUserNotFound, Message: "User does not exist."}
	}
	if err != nil {
		return nil, internalError(fmt.Errorf("load user: %w", err))
	}

	accounts := repository.NewAccountRepository(s.db)

	var account *models.Account
	for attempt := 0; attempt < s.generator.MaxAttempts; attempt++ {
		number, err := newAccountNumber(ctx, s.generator, accounts)
		if err != nil {
			return nil, err
		}

		account, err = createAccount(ctx, accounts, number, user.ID, decimal.Zero, models.AccountStatusActive)
		if errors.Is(err, models.ErrDuplicateAccountNumber) {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}
	if account == nil {
		return nil, &ServiceError{Code: ErrCodeGenerationExhausted, Message: MsgInternal, Err: reference.ErrGenerationExhausted}
	}

	s.logger.Info("account created", "user_id", user.ID, "account", account.AccountNumber)

	if s.mailer != nil {
		body := fmt.Sprintf("Hello %s,\n\nA new account %s has been opened for you.", user.FirstName, account.AccountNumber)
		if err := s.mailer.Send(context.WithoutCancel(ctx), user.Email, "New Account Created", body); err != nil {
			s.logger.Warn("account creation notice failed", "account", account.AccountNumber, "error", err)
		}
	}

	return account, nil
}

// generationError keeps generator exhaustion distinguishable from other
// internal failures.
func generationError(what string, err error) error {
	if errors.Is(err, reference.ErrGenerationExhausted) {
		return &ServiceError{Code: ErrCodeGenerationExhausted, Message: MsgInternal, Err: err}
	}
	return internalError(fmt.Errorf("generate %s: %w", what, err))
}

func newAccountNumber(ctx context.Context, generator *reference.Generator, accounts repository.AccountRepository) (string, error) {
	number, err := generator.AccountNumber(ctx, accounts.ExistsByAccountNumber)
	if err != nil {
		return "", generationError("account number", err)
	}
	return number, nil
}

// createAccount passes ErrDuplicateAccountNumber through so callers can
// regenerate the number
func createAccount(
	ctx context.Context,
	accounts repository.AccountRepository,
	accountNumber string,
	userID uuid.UUID,
	initialBalance decimal.Decimal,
	status models.AccountStatus,
) (*models.Account, error) {
	if initialBalance.IsNegative() {
		return nil, &ServiceError{Code: ErrCodeInvalidAmount, Message: "Opening balance cannot be negative."}
	}

	account := &models.Account{
		UserID:        userID,
		AccountNumber: accountNumber,
		Balance:       initialBalance,
		Status:        status,
	}

	err := accounts.Create(ctx, account)
	if errors.Is(err, models.ErrDuplicateAccountNumber) {
		return nil, err
	}
	if err != nil {
		return nil, internalError(fmt.Errorf("create account: %w", err))
	}
	return account, nil
}
