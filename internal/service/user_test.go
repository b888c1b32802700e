package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benx421/ledger-bank/internal/cache"
	"github.com/benx421/ledger-bank/internal/identity"
	"github.com/benx421/ledger-bank/internal/models"
	"github.com/benx421/ledger-bank/internal/reference"
)

type fakeIdentity struct {
	blockErr  error
	lookupErr error
	record    *identity.Identity
	blocked   bool
}

func (f *fakeIdentity) IsBlocklisted(context.Context, string) (bool, error) {
	return f.blocked, f.blockErr
}

func (f *fakeIdentity) Lookup(context.Context, string) (*identity.Identity, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.record, nil
}

type memCodes struct {
	codes map[string]string
}

func newMemCodes() *memCodes {
	return &memCodes{codes: map[string]string{}}
}

func (m *memCodes) Put(_ context.Context, id, code string, _ time.Duration) error {
	m.codes[id] = code
	return nil
}

func (m *memCodes) Get(_ context.Context, id string) (string, error) {
	code, ok := m.codes[id]
	if !ok {
		return "", cache.ErrCodeNotFound
	}
	return code, nil
}

func (m *memCodes) Delete(_ context.Context, id string) error {
	delete(m.codes, id)
	return nil
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func validRegistration() RegisterInput {
	return RegisterInput{
		DateOfBirth:    time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC),
		FirstName:      "Ada",
		LastName:       "Obi",
		Email:          "Ada@Example.com",
		PhoneNumber:    "+2348030000000",
		Password:       "s3cret!",
		NIN:            "12345678901",
		InitialDeposit: decimal.Zero,
	}
}

func matchingIdentity() *fakeIdentity {
	return &fakeIdentity{record: &identity.Identity{FirstName: "ADA", LastName: "obi", Mobile: "08030000000"}}
}

func newTestUserService(t *testing.T, verifier IdentityVerifier) (*UserService, sqlmock.Sqlmock, *memCodes, *recordingMailer) {
	database, m := setupMockDB(t)
	codes := newMemCodes()
	mailer := &recordingMailer{}
	svc := NewUserService(database, reference.NewGenerator(3), verifier, codes, mailer, time.Hour, testLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, m, codes, mailer
}

func userRowWith(id uuid.UUID, email string, verified bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "phone_number", "password", "email_verified", "nin_verified", "created_at", "updated_at",
	}).AddRow(id.String(), "Ada", "Obi", email, "08030000000", "hash", verified, "verified", fixedNow, fixedNow)
}

func timestamps() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(fixedNow, fixedNow)
}

func TestUserService_Register(t *testing.T) {
	t.Run("creates user and dormant account with opening deposit", func(t *testing.T) {
		svc, m, codes, mailer := newTestUserService(t, matchingIdentity())
		in := validRegistration()
		in.InitialDeposit = dec("5000")

		m.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		m.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM transactions").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		m.ExpectBegin()
		m.ExpectQuery("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), "Ada", "Obi", "ada@example.com", "08030000000", sqlmock.AnyArg(), false, "verified").
			WillReturnRows(timestamps())
		m.ExpectQuery("INSERT INTO accounts").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), dec("5000"), "dormant").
			WillReturnRows(timestamps())
		m.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(fixedNow))
		m.ExpectCommit()

		profile, err := svc.Register(context.Background(), in)

		require.NoError(t, err)
		assert.Equal(t, models.VerificationVerified, profile.User.NINVerified)
		assert.Equal(t, "ada@example.com", profile.User.Email)
		assert.NotEqual(t, "s3cret!", profile.User.PasswordHash)
		require.Len(t, profile.Accounts, 1)
		assert.Equal(t, models.AccountStatusDormant, profile.Accounts[0].Status)
		assert.Equal(t, "5000.00", profile.Accounts[0].Balance.StringFixed(2))
		assert.Regexp(t, `^\d{10}$`, profile.Accounts[0].AccountNumber)

		code := codes.codes["ada@example.com"]
		assert.Regexp(t, `^\d{6}$`, code)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "ada@example.com", mailer.sent[0].to)
		assert.Contains(t, mailer.sent[0].body, code)
	})

	t.Run("zero deposit writes no opening entry", func(t *testing.T) {
		svc, m, _, _ := newTestUserService(t, nil)

		m.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		m.ExpectBegin()
		m.ExpectQuery("INSERT INTO users").WillReturnRows(timestamps())
		m.ExpectQuery("INSERT INTO accounts").WillReturnRows(timestamps())
		m.ExpectCommit()

		profile, err := svc.Register(context.Background(), validRegistration())

		require.NoError(t, err)
		assert.Equal(t, models.VerificationUnverified, profile.User.NINVerified)
		assert.True(t, profile.Accounts[0].Balance.IsZero())
	})

	t.Run("regenerates a colliding account number", func(t *testing.T) {
		svc, m, _, _ := newTestUserService(t, nil)

		m.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		m.ExpectBegin()
		m.ExpectQuery("INSERT INTO users").WillReturnRows(timestamps())
		m.ExpectQuery("INSERT INTO accounts").WillReturnError(&pq.Error{Code: "23505"})
		m.ExpectRollback()
		m.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		m.ExpectBegin()
		m.ExpectQuery("INSERT INTO users").WillReturnRows(timestamps())
		m.ExpectQuery("INSERT INTO accounts").WillReturnRows(timestamps())
		m.ExpectCommit()

		_, err := svc.Register(context.Background(), validRegistration())

		require.NoError(t, err)
	})

	t.Run("existing user", func(t *testing.T) {
		svc, m, codes, mailer := newTestUserService(t, nil)

		m.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		m.ExpectBegin()
		m.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
		m.ExpectRollback()

		_, err := svc.Register(context.Background(), validRegistration())

		assertCode(t, err, ErrCodeDuplicateUser)
		assert.Equal(t, "You already have an account.", err.Error())
		assert.Empty(t, codes.codes)
		assert.Empty(t, mailer.sent)
	})

	t.Run("opening reference space exhausted", func(t *testing.T) {
		svc, m, codes, _ := newTestUserService(t, nil)
		in := validRegistration()
		in.InitialDeposit = dec("5000")

		m.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM accounts").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		for i := 0; i < 3; i++ {
			m.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM transactions").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		}

		_, err := svc.Register(context.Background(), in)

		assertCode(t, err, ErrCodeGenerationExhausted)
		assert.ErrorIs(t, err, reference.ErrGenerationExhausted)
		assert.Empty(t, codes.codes)
	})
}

func TestUserService_Register_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*RegisterInput)
		verifier *fakeIdentity
		code     string
		message  string
	}{
		{
			name:    "negative deposit",
			mutate:  func(in *RegisterInput) { in.InitialDeposit = dec("-1") },
			code:    ErrCodeInvalidAmount,
			message: "Deposit must be greater than zero.",
		},
		{
			name:    "underage",
			mutate:  func(in *RegisterInput) { in.DateOfBirth = fixedNow.AddDate(-18, 0, 1) },
			code:    ErrCodeIdentityRejected,
			message: "Your age is below the legal age of 18.",
		},
		{
			name:     "blocklisted",
			verifier: &fakeIdentity{blocked: true},
			code:     ErrCodeIdentityRejected,
			message:  "You are barred from using this service.",
		},
		{
			name:     "unknown nin",
			verifier: &fakeIdentity{lookupErr: identity.ErrNotFound},
			code:     ErrCodeIdentityRejected,
			message:  "12345678901 is not a valid NIN",
		},
		{
			name:     "mismatched name",
			verifier: &fakeIdentity{record: &identity.Identity{FirstName: "Ada", LastName: "Eze", Mobile: "08030000000"}},
			code:     ErrCodeIdentityRejected,
			message:  "NIN verification failed. Mismatched information. Account cannot be created.",
		},
		{
			name:     "mismatched phone",
			verifier: &fakeIdentity{record: &identity.Identity{FirstName: "Ada", LastName: "Obi", Mobile: "08039999999"}},
			code:     ErrCodeIdentityRejected,
			message:  "NIN verification failed. Mismatched information. Account cannot be created.",
		},
		{
			name:     "provider unavailable",
			verifier: &fakeIdentity{blockErr: errors.New("connection refused")},
			code:     ErrCodeInternalError,
			message:  MsgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verifier IdentityVerifier
			if tt.verifier != nil {
				verifier = tt.verifier
			}
			svc, _, _, mailer := newTestUserService(t, verifier)

			in := validRegistration()
			if tt.mutate != nil {
				tt.mutate(&in)
			}

			_, err := svc.Register(context.Background(), in)

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.code, svcErr.Code)
			assert.Equal(t, tt.message, svcErr.Message)
			assert.Empty(t, mailer.sent)
		})
	}
}

func TestUserService_IsLegalAge(t *testing.T) {
	svc := &UserService{now: func() time.Time { return fixedNow }}

	assert.True(t, svc.isLegalAge(fixedNow.AddDate(-18, 0, 0)))
	assert.False(t, svc.isLegalAge(fixedNow.AddDate(-18, 0, 1)))
	assert.False(t, svc.isLegalAge(time.Time{}))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "08030000000", normalizePhone("+2348030000000"))
	assert.Equal(t, "08030000000", normalizePhone("2348030000000"))
	assert.Equal(t, "08030000000", normalizePhone(" 08030000000 "))
}

func TestUserService_VerifyEmail(t *testing.T) {
	userID := uuid.New()
	lookup := regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1)")

	t.Run("activates accounts and clears the code", func(t *testing.T) {
		svc, m, codes, _ := newTestUserService(t, nil)
		codes.codes["ada@example.com"] = "123456"

		m.ExpectQuery(lookup).WithArgs("ada@example.com").WillReturnRows(userRowWith(userID, "ada@example.com", false))
		m.ExpectBegin()
		m.ExpectExec("UPDATE users SET email_verified = TRUE").WithArgs(userID.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		m.ExpectExec("UPDATE accounts SET status = \\$2").WithArgs(userID.String(), "active").
			WillReturnResult(sqlmock.NewResult(0, 1))
		m.ExpectCommit()

		err := svc.VerifyEmail(context.Background(), " ada@example.com ", "123456")

		require.NoError(t, err)
		assert.NotContains(t, codes.codes, "ada@example.com")
	})

	t.Run("wrong code", func(t *testing.T) {
		svc, m, codes, _ := newTestUserService(t, nil)
		codes.codes["ada@example.com"] = "123456"

		m.ExpectQuery(lookup).WillReturnRows(userRowWith(userID, "ada@example.com", false))

		err := svc.VerifyEmail(context.Background(), "ada@example.com", "654321")

		assertCode(t, err, ErrCodeInvalidCode)
		assert.Equal(t, "123456", codes.codes["ada@example.com"])
	})

	t.Run("expired code", func(t *testing.T) {
		svc, m, _, _ := newTestUserService(t, nil)

		m.ExpectQuery(lookup).WillReturnRows(userRowWith(userID, "ada@example.com", false))

		err := svc.VerifyEmail(context.Background(), "ada@example.com", "123456")

		assertCode(t, err, ErrCodeInvalidCode)
	})

	t.Run("already verified", func(t *testing.T) {
		svc, m, _, _ := newTestUserService(t, nil)

		m.ExpectQuery(lookup).WillReturnRows(userRowWith(userID, "ada@example.com", true))

		err := svc.VerifyEmail(context.Background(), "ada@example.com", "123456")

		assertCode(t, err, ErrCodeInvalidRequest)
		assert.Equal(t, "User account already verified.", err.Error())
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, m, _, _ := newTestUserService(t, nil)

		m.ExpectQuery(lookup).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := svc.VerifyEmail(context.Background(), "nobody@example.com", "123456")

		assertCode(t, err, ErrCodeUserNotFound)
	})
}

func TestUserService_ResendVerification(t *testing.T) {
	svc, m, codes, mailer := newTestUserService(t, nil)
	codes.codes["ada@example.com"] = "000000"

	m.ExpectQuery("FROM users WHERE LOWER\\(email\\)").
		WillReturnRows(userRowWith(uuid.New(), "ada@example.com", false))

	require.NoError(t, svc.ResendVerification(context.Background(), "ada@example.com"))

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].body, codes.codes["ada@example.com"])
	assert.Contains(t, mailer.sent[0].body, "60 minutes")
}

func TestUserService_GetUser(t *testing.T) {
	t.Run("returns accounts", func(t *testing.T) {
		svc, m, _, _ := newTestUserService(t, nil)
		userID := uuid.New()

		m.ExpectQuery("FROM users WHERE id = \\$1").WithArgs(userID.String()).
			WillReturnRows(userRowWith(userID, "ada@example.com", true))
		m.ExpectQuery("FROM accounts WHERE user_id = \\$1").WithArgs(userID.String()).
			WillReturnRows(accountRow(uuid.New(), userID, "0123456789", "10.00", models.AccountStatusActive))

		profile, err := svc.GetUser(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, userID, profile.User.ID)
		require.Len(t, profile.Accounts, 1)
		assert.Equal(t, "0123456789", profile.Accounts[0].AccountNumber)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, m, _, _ := newTestUserService(t, nil)

		m.ExpectQuery("FROM users WHERE id = \\$1").WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.GetUser(context.Background(), uuid.New())

		assertCode(t, err, ErrCodeUserNotFound)
	})
}
