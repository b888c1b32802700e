package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/benx421/ledger-bank/internal/db"
	"github.com/benx421/ledger-bank/internal/models"
	"github.com/benx421/ledger-bank/internal/reference"
	"github.com/benx421/ledger-bank/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// party names the role an account plays in a movement so rejections can say
// which side failed
type party int

const (
	partyHolder party = iota
	partySender
	partyReceiver
)

func (p party) notFound() *ServiceError {
	switch p {
	case partySender:
		return &ServiceError{Code: ErrCodeAccountNotFound, Message: "Sender's account does not exist."}
	case partyReceiver:
		return &ServiceError{Code: ErrCodeReceiverNotFound, Message: "Receiver's account does not exist."}
	default:
		return &ServiceError{Code: ErrCodeAccountNotFound, Message: "Account does not exist."}
	}
}

func (p party) inactive() *ServiceError {
	switch p {
	case partySender:
		return &ServiceError{Code: ErrCodeAccountInactive, Message: "Transaction cannot be completed. Sender's account not verified"}
	case partyReceiver:
		return &ServiceError{Code: ErrCodeAccountInactive, Message: "Transaction cannot be completed. Receiver's account not verified"}
	default:
		return &ServiceError{Code: ErrCodeAccountInactive, Message: "Transaction cannot be completed. Account not verified"}
	}
}

// leg is one balance change inside a unit of work
type leg struct {
	description   *string
	accountNumber string
	referenceID   string
	kind          models.TransactionType
	amount        decimal.Decimal
	party         party
}

// TransferResult holds both ledger entries of a committed transfer
type TransferResult struct {
	Debit  *models.Transaction `json:"debit"`
	Credit *models.Transaction `json:"credit"`
}

// History is one page of an account's transactions, newest first
type History struct {
	Account      *models.Account      `json:"account"`
	Transactions []models.Transaction `json:"transactions"`
	TotalPages   int                  `json:"totalPages"`
	CurrentPage  int                  `json:"currentPage"`
	Page         int                  `json:"page"`
}

// Engine moves money. Every movement locks the affected account rows,
// re-checks them, updates balances with store-level arithmetic and appends
// a ledger entry in a single unit of work.
type Engine struct {
	db            *db.DB
	generator     *reference.Generator
	notifier      Notifier
	logger        *slog.Logger
	notifyTimeout time.Duration
}

// NewEngine creates a new Engine
func NewEngine(database *db.DB, generator *reference.Generator, notifier Notifier, logger *slog.Logger, notifyTimeout time.Duration) *Engine {
	return &Engine{
		db:            database,
		generator:     generator,
		notifier:      notifier,
		logger:        logger,
		notifyTimeout: notifyTimeout,
	}
}

// Fund credits amount to the account
func (e *Engine) Fund(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	return e.ApplyMovement(ctx, accountNumber, amount, models.TransactionTypeCredit, description)
}

// Withdraw debits amount from the account
func (e *Engine) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	return e.ApplyMovement(ctx, accountNumber, amount, models.TransactionTypeDebit, description)
}

// ApplyMovement credits or debits a single account and records the entry
func (e *Engine) ApplyMovement(ctx context.Context, accountNumber string, amount decimal.Decimal, kind models.TransactionType, description string) (*models.Transaction, error) {
	if err := validateMovementInput(accountNumber, amount); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, &ServiceError{Code: ErrCodeInvalidRequest, Message: "Unknown transaction type."}
	}

	account, initials, err := e.resolve(ctx, accountNumber, partyHolder)
	if err != nil {
		return nil, err
	}

	m := leg{
		accountNumber: account.AccountNumber,
		amount:        amount,
		kind:          kind,
		description:   optional(description),
		party:         partyHolder,
	}

	var txn *models.Transaction
	err = e.withReferenceRetry(ctx, func() error {
		ref, err := e.newReference(ctx, initials, kind)
		if err != nil {
			return err
		}
		m.referenceID = ref

		return e.db.WithTx(ctx, func(tx *sql.Tx) error {
			var err error
			txn, err = e.performMovement(ctx, repository.NewAccountRepository(tx), repository.NewTransactionRepository(tx), m)
			return err
		})
	})
	if err != nil {
		return nil, e.finish(err, "movement failed", "account", accountNumber, "type", kind)
	}

	e.logger.Info("movement committed",
		"account", accountNumber,
		"type", kind,
		"amount", amount.StringFixed(2),
		"reference", txn.ReferenceID,
	)

	e.notify(ctx, m, txn)
	return txn, nil
}

// Transfer debits from and credits to in one unit of work. Either both
// entries commit or neither does.
func (e *Engine) Transfer(ctx context.Context, from, to string, amount decimal.Decimal, description string) (*TransferResult, error) {
	if err := validateMovementInput(from, amount); err != nil {
		return nil, err
	}
	if err := ValidateAccountNumber(to); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidAccountNumber, Message: "Account number must be 10 digits.", Err: err}
	}
	if from == to {
		return nil, &ServiceError{Code: ErrCodeSameAccount, Message: "Cannot transfer to the same account."}
	}

	_, senderInitials, err := e.resolve(ctx, from, partySender)
	if err != nil {
		return nil, err
	}
	_, receiverInitials, err := e.resolve(ctx, to, partyReceiver)
	if err != nil {
		return nil, err
	}

	desc := optional(description)
	debit := leg{accountNumber: from, amount: amount, kind: models.TransactionTypeDebit, description: desc, party: partySender}
	credit := leg{accountNumber: to, amount: amount, kind: models.TransactionTypeCredit, description: desc, party: partyReceiver}

	var result *TransferResult
	err = e.withReferenceRetry(ctx, func() error {
		var err error
		if debit.referenceID, err = e.newReference(ctx, senderInitials, debit.kind); err != nil {
			return err
		}
		if credit.referenceID, err = e.newReference(ctx, receiverInitials, credit.kind); err != nil {
			return err
		}

		return e.db.WithTx(ctx, func(tx *sql.Tx) error {
			var err error
			result, err = e.performTransfer(ctx, repository.NewAccountRepository(tx), repository.NewTransactionRepository(tx), debit, credit)
			return err
		})
	})
	if err != nil {
		return nil, e.finish(err, "transfer failed", "from", from, "to", to)
	}

	e.logger.Info("transfer committed",
		"from", from,
		"to", to,
		"amount", amount.StringFixed(2),
		"debit_reference", result.Debit.ReferenceID,
		"credit_reference", result.Credit.ReferenceID,
	)

	e.notify(ctx, debit, result.Debit)
	e.notify(ctx, credit, result.Credit)
	return result, nil
}

// History returns one page of the account's transactions. page defaults to 1
// and size to 10, capped at 100.
func (e *Engine) History(ctx context.Context, accountNumber string, page, size int) (*History, error) {
	if err := ValidateAccountNumber(accountNumber); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidAccountNumber, Message: "Account number must be 10 digits.", Err: err}
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	account, err := NewAccountLedger(accountNumber, repository.NewAccountRepository(e.db)).Details(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return nil, partyHolder.notFound()
	}
	if err != nil {
		return nil, err
	}

	txnRepo := repository.NewTransactionRepository(e.db)

	total, err := txnRepo.CountByAccount(ctx, account.ID)
	if err != nil {
		return nil, internalError(fmt.Errorf("count transactions: %w", err))
	}

	txns, err := txnRepo.ListByAccount(ctx, account.ID, size, (page-1)*size)
	if err != nil {
		return nil, internalError(fmt.Errorf("list transactions: %w", err))
	}

	return &History{
		Account:      account,
		Transactions: txns,
		TotalPages:   (total + size - 1) / size,
		CurrentPage:  page,
		Page:         size,
	}, nil
}

// resolve loads the account and its holder's initials outside any unit of work
func (e *Engine) resolve(ctx context.Context, accountNumber string, p party) (*models.Account, string, error) {
	account, err := NewAccountLedger(accountNumber, repository.NewAccountRepository(e.db)).Details(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return nil, "", p.notFound()
	}
	if err != nil {
		return nil, "", err
	}
	if !account.IsActive() {
		return nil, "", p.inactive()
	}

	user, err := repository.NewUserRepository(e.db).FindByID(ctx, account.UserID)
	if err != nil {
		return nil, "", internalError(fmt.Errorf("load account holder: %w", err))
	}

	return account, reference.Initials(user.FirstName, user.LastName), nil
}

func (e *Engine) newReference(ctx context.Context, initials string, kind models.TransactionType) (string, error) {
	exists := repository.NewTransactionRepository(e.db).ExistsByReferenceID
	ref, err := e.generator.TransactionReference(ctx, initials, kind.Letter(), exists)
	if err != nil {
		return "", generationError("reference", err)
	}
	return ref, nil
}

// withReferenceRetry reruns attempt while the store rejects the reference id
// as a duplicate, up to the generator's attempt budget.
func (e *Engine) withReferenceRetry(ctx context.Context, attempt func() error) error {
	for i := 0; i < e.generator.MaxAttempts; i++ {
		err := attempt()
		if !errors.Is(err, models.ErrDuplicateReference) {
			return err
		}
		e.logger.Warn("reference collided at insert, regenerating", "attempt", i+1)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return &ServiceError{Code: ErrCodeGenerationExhausted, Message: MsgInternal, Err: reference.ErrGenerationExhausted}
}

// performMovement contains the core single-account movement logic
func (e *Engine) performMovement(
	ctx context.Context,
	accountRepo repository.AccountRepository,
	txnRepo repository.TransactionRepository,
	m leg,
) (*models.Transaction, error) {
	account, err := e.lockLeg(ctx, accountRepo, m)
	if err != nil {
		return nil, err
	}
	return e.applyLeg(ctx, accountRepo, txnRepo, m, account)
}

// performTransfer locks both accounts in ascending account-number order, then
// applies the debit and the credit
func (e *Engine) performTransfer(
	ctx context.Context,
	accountRepo repository.AccountRepository,
	txnRepo repository.TransactionRepository,
	debit, credit leg,
) (*TransferResult, error) {
	ordered := []leg{debit, credit}
	if credit.accountNumber < debit.accountNumber {
		ordered = []leg{credit, debit}
	}

	locked := make(map[string]*models.Account, 2)
	for _, l := range ordered {
		account, err := e.lockLeg(ctx, accountRepo, l)
		if err != nil {
			return nil, err
		}
		locked[l.accountNumber] = account
	}

	debitTxn, err := e.applyLeg(ctx, accountRepo, txnRepo, debit, locked[debit.accountNumber])
	if err != nil {
		return nil, err
	}
	creditTxn, err := e.applyLeg(ctx, accountRepo, txnRepo, credit, locked[credit.accountNumber])
	if err != nil {
		return nil, err
	}

	return &TransferResult{Debit: debitTxn, Credit: creditTxn}, nil
}

// lockLeg takes the row lock and re-checks the account status under it
func (e *Engine) lockLeg(ctx context.Context, accountRepo repository.AccountRepository, l leg) (*models.Account, error) {
	account, err := NewAccountLedger(l.accountNumber, accountRepo).Lock(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return nil, l.party.notFound()
	}
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, l.party.inactive()
	}
	return account, nil
}

// applyLeg updates the balance of a locked account and appends its entry
func (e *Engine) applyLeg(
	ctx context.Context,
	accountRepo repository.AccountRepository,
	txnRepo repository.TransactionRepository,
	l leg,
	account *models.Account,
) (*models.Transaction, error) {
	if l.kind == models.TransactionTypeDebit && account.Balance.LessThan(l.amount) {
		return nil, &ServiceError{Code: ErrCodeInsufficientFunds, Message: MsgInsufficientFunds}
	}

	ledger := NewAccountLedger(l.accountNumber, accountRepo)

	err := ledger.UpdateBalance(ctx, l.amount, l.kind)
	if errors.Is(err, models.ErrInsufficientFunds) {
		return nil, &ServiceError{Code: ErrCodeInsufficientFunds, Message: MsgInsufficientFunds}
	}
	if errors.Is(err, models.ErrNotFound) {
		return nil, l.party.notFound()
	}
	if err != nil {
		return nil, err
	}

	balanceAfter, err := ledger.Balance(ctx)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		AccountID:    account.ID,
		Amount:       l.amount,
		BalanceAfter: balanceAfter,
		Type:         l.kind,
		Description:  l.description,
		ReferenceID:  l.referenceID,
	}

	if err := txnRepo.Create(ctx, txn); err != nil {
		if errors.Is(err, models.ErrDuplicateReference) {
			return nil, err
		}
		return nil, internalError(fmt.Errorf("record transaction: %w", err))
	}

	return txn, nil
}

// finish converts a failed unit of work into the error returned to callers
// and logs anything that is not a business rejection
func (e *Engine) finish(err error, msg string, attrs ...any) error {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		svcErr = internalError(err)
	}
	if svcErr.Kind() == KindInternal {
		e.logger.Error(msg, append(attrs, "error", err)...)
	}
	return svcErr
}

// notify reports a committed entry. It runs detached from the request's
// cancellation and never fails the movement.
func (e *Engine) notify(ctx context.Context, l leg, txn *models.Transaction) {
	if e.notifier == nil {
		return
	}

	notifyCtx := context.WithoutCancel(ctx)
	if e.notifyTimeout > 0 {
		var cancel context.CancelFunc
		notifyCtx, cancel = context.WithTimeout(notifyCtx, e.notifyTimeout)
		defer cancel()
	}

	err := e.notifier.Notify(notifyCtx, Notice{
		AccountNumber: l.accountNumber,
		Amount:        txn.Amount,
		BalanceAfter:  txn.BalanceAfter,
		ReferenceID:   txn.ReferenceID,
		Description:   txn.Description,
		Kind:          txn.Type,
		At:            txn.CreatedAt,
	})
	if err != nil {
		e.logger.Warn("transaction notification failed",
			"account", l.accountNumber,
			"reference", txn.ReferenceID,
			"error", err,
		)
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
