package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/benx421/ledger-bank/internal/models"
	"github.com/benx421/ledger-bank/internal/repository"
)

const notificationTimeLayout = "2006-01-02 15:04:05"

// Mailer delivers a plain-text email
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Notice describes a committed movement to report to the account holder
type Notice struct {
	At            time.Time
	Description   *string
	AccountNumber string
	ReferenceID   string
	Kind          models.TransactionType
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// Notifier reports committed movements
type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}

// NotificationDispatcher formats transaction notices and hands them to a Mailer
type NotificationDispatcher struct {
	accounts repository.AccountRepository
	users    repository.UserRepository
	mailer   Mailer
	currency string
}

// NewNotificationDispatcher creates a NotificationDispatcher
func NewNotificationDispatcher(accounts repository.AccountRepository, users repository.UserRepository, mailer Mailer, currency string) *NotificationDispatcher {
	return &NotificationDispatcher{
		accounts: accounts,
		users:    users,
		mailer:   mailer,
		currency: currency,
	}
}

// Notify looks up the account holder and emails them the notice
func (d *NotificationDispatcher) Notify(ctx context.Context, notice Notice) error {
	account, err := d.accounts.FindByAccountNumber(ctx, notice.AccountNumber)
	if err != nil {
		return internalError(fmt.Errorf("notify: load account: %w", err))
	}

	user, err := d.users.FindByID(ctx, account.UserID)
	if err != nil {
		return internalError(fmt.Errorf("notify: load user: %w", err))
	}

	subject, body := d.render(user, notice)
	if err := d.mailer.Send(ctx, user.Email, subject, body); err != nil {
		return internalError(fmt.Errorf("notify: send: %w", err))
	}
	return nil
}

func (d *NotificationDispatcher) render(user *models.User, n Notice) (subject, body string) {
	kind := strings.ToUpper(string(n.Kind))

	narration := kind
	if n.Description != nil && strings.TrimSpace(*n.Description) != "" {
		narration = *n.Description
	}

	at := n.At
	if at.IsZero() {
		at = time.Now()
	}

	subject = kind + " Transaction Notification"
	body = fmt.Sprintf("Hello %s,\n\n"+
		"This is to inform you that a transaction has occurred on your account with details below:\n"+
		"Account Number: %s\n"+
		"Amount: %s\n"+
		"Transaction Currency: %s\n"+
		"Balance: %s\n"+
		"Transaction Type: %s\n"+
		"Transaction Narration: %s\n"+
		"Transaction Remarks: %s\n"+
		"Date and Time: %s",
		user.FirstName,
		MaskAccountNumber(n.AccountNumber),
		FormatCurrency(d.currency, n.Amount),
		d.currency,
		FormatCurrency(d.currency, n.BalanceAfter),
		kind,
		narration,
		n.ReferenceID,
		at.Format(notificationTimeLayout),
	)
	return subject, body
}

// MaskAccountNumber hides every digit except the last four
func MaskAccountNumber(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	return strings.Repeat("*", len(accountNumber)-4) + accountNumber[len(accountNumber)-4:]
}

var moneyPrinter = message.NewPrinter(language.English)

// FormatCurrency renders amount as "NGN 1,234.56". The whole part is grouped
// by the printer; the fraction comes from the decimal so no float rounding
// leaks in.
func FormatCurrency(currency string, amount decimal.Decimal) string {
	rounded := amount.Round(2)
	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")
	units, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return fmt.Sprintf("%s %s", currency, rounded.StringFixed(2))
	}

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return moneyPrinter.Sprintf("%s %s%d.%s", currency, sign, units, frac)
}
