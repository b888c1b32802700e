// Package handlers implements the HTTP handlers for the ledger API.
package handlers

import (
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/benx421/ledger-bank/internal/service"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,14}$`)

// Handler serves every ledger endpoint
type Handler struct {
	mover    service.MoneyMover
	accounts service.AccountCreator
	users    service.Onboarder
	auth     service.Authenticator
	health   service.HealthChecker
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(
	mover service.MoneyMover,
	accounts service.AccountCreator,
	users service.Onboarder,
	auth service.Authenticator,
	health service.HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		mover:    mover,
		accounts: accounts,
		users:    users,
		auth:     auth,
		health:   health,
		validate: newValidator(),
		logger:   logger,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	//nolint:errcheck // tag name is static
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return v
}
