package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// CreateAccount handles POST /account/create-account?user_id=
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := bindUserID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.CreateNewAccount(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User account created successfully.", map[string]string{
		"account_number": account.AccountNumber,
	})
}

// bindUserID reads the required user_id query parameter
func bindUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var raw string
	if err := runtime.BindQueryParameter("form", true, true, "user_id", r.URL.Query(), &raw); err != nil {
		writeValidation(w, "Validation failed.", []fieldError{{Field: "user_id", Message: "user_id is required."}})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(raw)
	if err != nil {
		writeValidation(w, "Validation failed.", []fieldError{{Field: "user_id", Message: "user_id must be a valid UUID."}})
		return uuid.Nil, false
	}
	return userID, true
}
