package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/benx421/ledger-bank/internal/service"
)

const maxBodyBytes = 1 << 20

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope is the body of every response
type envelope struct {
	Data    any          `json:"data,omitempty"`
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Nothing useful to do if write fails
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Status: statusSuccess, Message: message, Data: data})
}

func writeValidation(w http.ResponseWriter, message string, errs []fieldError) {
	writeJSON(w, http.StatusBadRequest, envelope{Status: statusError, Message: message, Errors: errs})
}

// writeError maps a service error onto its HTTP status. Internal failures are
// logged and answered with a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		svcErr = &service.ServiceError{Code: service.ErrCodeInternalError, Message: service.MsgInternal, Err: err}
	}

	status := statusForKind(svcErr.Kind())
	message := svcErr.Message
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", svcErr.Code,
			"error", err,
		)
		message = service.MsgInternal
	}

	writeJSON(w, status, envelope{Status: statusError, Message: message})
}

func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindBusinessRule:
		return http.StatusForbidden
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether the handler may continue.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeValidation(w, "Invalid request body.", []fieldError{{Field: "body", Message: decodeMessage(err)}})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		writeValidation(w, "Validation failed.", validationErrors(err))
		return false
	}
	return true
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	}
	return "Request body must be valid JSON."
}

func validationErrors(err error) []fieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []fieldError{{Field: "body", Message: err.Error()}}
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return "A valid email is required."
	case "len":
		return fmt.Sprintf("%s must be %s characters long.", fe.Field(), fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain only digits.", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long.", fe.Field(), fe.Param())
	case "eqfield":
		return "Passwords do not match."
	case "datetime":
		return fmt.Sprintf("%s must be a date in the form %s.", fe.Field(), fe.Param())
	case "phone":
		return "A valid phone number is required."
	default:
		return fmt.Sprintf("%s failed the %s check.", fe.Field(), fe.Tag())
	}
}
