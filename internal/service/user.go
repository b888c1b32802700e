package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/benx421/ledger-bank/internal/cache"
	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/identity"
	"github.com/benx421/ledger-bank/internal/models"
	"github.com/benx421/ledger-bank/internal/reference"
	"github.com/benx421/ledger-bank/internal/repository"
)

const (
	verificationCodeLength = 6
	legalAge               = 18
)

var phonePrefix = regexp.MustCompile(`^(\+234|234)`)

// RegisterInput is the data collected at sign-up
type RegisterInput struct {
	DateOfBirth    time.Time
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	Password       string
	NIN            string
	InitialDeposit decimal.Decimal
}

// Profile is a user together with their accounts
type Profile struct {
	User     *models.User     `json:"user"`
	Accounts []models.Account `json:"accounts"`
}

// UserService registers and verifies account holders
type UserService struct {
	db        *db.DB
	generator *reference.Generator
	identity  IdentityVerifier
	codes     CodeStore
	mailer    Mailer
	logger    *slog.Logger
	now       func() time.Time
	codeTTL   time.Duration
}

// NewUserService creates a new UserService. A nil verifier skips identity checks.
func NewUserService(
	database *db.DB,
	generator *reference.Generator,
	verifier IdentityVerifier,
	codes CodeStore,
	mailer Mailer,
	codeTTL time.Duration,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		db:        database,
		generator: generator,
		identity:  verifier,
		codes:     codes,
		mailer:    mailer,
		codeTTL:   codeTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Register verifies the applicant, then creates the user and a dormant
// account in one unit of work. A non-zero initial deposit is recorded as an
// opening credit. A verification code is emailed after commit.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	if in.InitialDeposit.IsNegative() || (!in.InitialDeposit.IsZero() && ValidateAmount(in.InitialDeposit) != nil) {
		return nil, &ServiceError{Code: ErrCodeInvalidAmount, Message: "Deposit must be greater than zero."}
	}

	if !s.isLegalAge(in.DateOfBirth) {
		return nil, &ServiceError{Code: ErrCodeIdentityRejected, Message: "Your age is below the legal age of 18."}
	}

	ninStatus, err := s.checkIdentity(ctx, in)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber:  normalizePhone(in.PhoneNumber),
		PasswordHash: string(hash),
		NINVerified:  ninStatus,
	}

	account, err := s.createHolder(ctx, user, in.InitialDeposit)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"account", account.AccountNumber,
		"nin_verified", user.NINVerified,
	)

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Warn("verification code delivery failed", "user_id", user.ID, "error", err)
	}

	return &Profile{User: user, Accounts: []models.Account{*account}}, nil
}

// createHolder inserts the user, their first account and, if any, the
// opening credit. Generated values that collide at insert are regenerated.
func (s *UserService) createHolder(ctx context.Context, user *models.User, deposit decimal.Decimal) (*models.Account, error) {
	pool := repository.NewAccountRepository(s.db)
	initials := reference.Initials(user.FirstName, user.LastName)

	for attempt := 0; attempt < s.generator.MaxAttempts; attempt++ {
		number, err := newAccountNumber(ctx, s.generator, pool)
		if err != nil {
			return nil, err
		}

		var ref string
		if deposit.IsPositive() {
			exists := repository.NewTransactionRepository(s.db).ExistsByReferenceID
			ref, err = s.generator.TransactionReference(ctx, initials, models.TransactionTypeCredit.Letter(), exists)
			if err != nil {
				return nil, generationError("opening reference", err)
			}
		}

		var account *models.Account
		err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
			user.ID = uuid.Nil
			if err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
				return err
			}

			var err error
			account, err = createAccount(ctx, repository.NewAccountRepository(tx), number, user.ID, deposit, models.AccountStatusDormant)
			if err != nil {
				return err
			}

			if ref == "" {
				return nil
			}
			return repository.NewTransactionRepository(tx).Create(ctx, &models.Transaction{
				AccountID:    account.ID,
				Amount:       deposit,
				BalanceAfter: deposit,
				Type:         models.TransactionTypeCredit,
				Description:  optional("Opening deposit"),
				ReferenceID:  ref,
			})
		})

		switch {
		case err == nil:
			return account, nil
		case errors.Is(err, models.ErrDuplicateAccountNumber), errors.Is(err, models.ErrDuplicateReference):
			continue
		case errors.Is(err, models.ErrDuplicateUser):
			return nil, &ServiceError{Code: ErrCodeDuplicateUser, Message: "You already have an account."}
		default:
			var svcErr *ServiceError
			if errors.As(err, &svcErr) {
				return nil, svcErr
			}
			return nil, internalError(fmt.Errorf("register user: %w", err))
		}
	}

	return nil, &ServiceError{Code: ErrCodeGenerationExhausted, Message: MsgInternal, Err: reference.ErrGenerationExhausted}
}

// checkIdentity runs the blocklist and NIN checks and returns the resulting
// verification status
func (s *UserService) checkIdentity(ctx context.Context, in RegisterInput) (models.VerificationStatus, error) {
	if s.identity == nil {
		return models.VerificationUnverified, nil
	}

	blocked, err := s.identity.IsBlocklisted(ctx, in.NIN)
	if err != nil {
		return "", internalError(fmt.Errorf("blocklist check: %w", err))
	}
	if blocked {
		return "", &ServiceError{Code: ErrCodeIdentityRejected, Message: "You are barred from using this service."}
	}

	record, err := s.identity.Lookup(ctx, in.NIN)
	if errors.Is(err, identity.ErrNotFound) {
		return "", &ServiceError{Code: ErrCodeIdentityRejected, Message: fmt.Sprintf("%s is not a valid NIN", in.NIN)}
	}
	if err != nil {
		return "", internalError(fmt.Errorf("nin lookup: %w", err))
	}

	if !strings.EqualFold(strings.TrimSpace(in.FirstName), strings.TrimSpace(record.FirstName)) ||
		!strings.EqualFold(strings.TrimSpace(in.LastName), strings.TrimSpace(record.LastName)) ||
		normalizePhone(in.PhoneNumber) != normalizePhone(record.Mobile) {
		return "", &ServiceError{
			Code:    ErrCodeIdentityRejected,
			Message: "NIN verification failed. Mismatched information. Account cannot be created.",
		}
	}

	return models.VerificationVerified, nil
}

func (s *UserService) isLegalAge(dob time.Time) bool {
	if dob.IsZero() {
		return false
	}
	cutoff := s.now().AddDate(-legalAge, 0, 0)
	return !dob.After(cutoff)
}

// VerifyEmail checks the emailed code, marks the email verified and activates
// the user's accounts
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return &ServiceError{Code: ErrCodeInvalidRequest, Message: "User account already verified."}
	}

	stored, err := s.codes.Get(ctx, user.Email)
	if errors.Is(err, cache.ErrCodeNotFound) {
		return &ServiceError{Code: ErrCodeInvalidCode, Message: "Verification code is invalid or has expired."}
	}
	if err != nil {
		return internalError(fmt.Errorf("read verification code: %w", err))
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		return &ServiceError{Code: ErrCodeInvalidCode, Message: "Verification code is invalid or has expired."}
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := repository.NewUserRepository(tx).MarkEmailVerified(ctx, user.ID); err != nil {
			return err
		}
		return repository.NewAccountRepository(tx).UpdateStatusByUserID(ctx, user.ID, models.AccountStatusActive)
	})
	if err != nil {
		return internalError(fmt.Errorf("verify user: %w", err))
	}

	if err := s.codes.Delete(ctx, user.Email); err != nil {
		s.logger.Warn("failed to clear verification code", "user_id", user.ID, "error", err)
	}

	s.logger.Info("user verified", "user_id", user.ID)
	return nil
}

// ResendVerification issues a fresh code to an unverified user
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return &ServiceError{Code: ErrCodeInvalidRequest, Message: "User account already verified."}
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return internalError(err)
	}
	return nil
}

// GetUser returns the user and all their accounts
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := repository.NewUserRepository(s.db).FindByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodeUserNotFound, Message: "User does not exist."}
	}
	if err != nil {
		return nil, internalError(fmt.Errorf("load user: %w", err))
	}

	accounts, err := repository.NewAccountRepository(s.db).FindByUserID(ctx, userID)
	if err != nil {
		return nil, internalError(fmt.Errorf("load accounts: %w", err))
	}

	return &Profile{User: user, Accounts: accounts}, nil
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := repository.NewUserRepository(s.db).FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodeUserNotFound, Message: "User does not exist."}
	}
	if err != nil {
		return nil, internalError(fmt.Errorf("load user: %w", err))
	}
	return user, nil
}

func (s *UserService) sendVerification(ctx context.Context, user *models.User) error {
	code, err := reference.Digits(verificationCodeLength)
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	if err := s.codes.Put(ctx, user.Email, code, s.codeTTL); err != nil {
		return err
	}

	if s.mailer == nil {
		return nil
	}
	body := fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires in %d minutes.",
		user.FirstName, code, int(s.codeTTL.Minutes()))
	return s.mailer.Send(context.WithoutCancel(ctx), user.Email, "Verify your email", body)
}

func normalizePhone(phone string) string {
	return phonePrefix.ReplaceAllString(strings.TrimSpace(phone), "0")
}
