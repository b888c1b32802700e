package handlers

import (
	"net/http"

	"github.com/oapi-codegen/runtime"
	"github.com/shopspring/decimal"
)

type movementRequest struct {
	Amount        *decimal.Decimal `json:"amount" validate:"required"`
	AccountNumber string           `json:"account_number" validate:"required,numeric,len=10"`
	Description   string           `json:"description" validate:"omitempty,max=255"`
}

type transferRequest struct {
	Amount          *decimal.Decimal `json:"amount" validate:"required"`
	SenderAccount   string           `json:"sender_account" validate:"required,numeric,len=10"`
	ReceiverAccount string           `json:"receiver_account" validate:"required,numeric,len=10"`
	Description     string           `json:"description" validate:"omitempty,max=255"`
}

// FundAccount handles POST /transaction/fund-account
func (h *Handler) FundAccount(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	txn, err := h.mover.Fund(r.Context(), req.AccountNumber, *req.Amount, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Account funding successful.", txn)
}

// WithdrawFund handles POST /transaction/withdraw-fund
func (h *Handler) WithdrawFund(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	txn, err := h.mover.Withdraw(r.Context(), req.AccountNumber, *req.Amount, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Fund withdrawal successful.", txn)
}

// TransferFund handles POST /transaction/transfer-fund
func (h *Handler) TransferFund(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.mover.Transfer(r.Context(), req.SenderAccount, req.ReceiverAccount, *req.Amount, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Fund transfer successful.", result)
}

// TransactionHistory handles GET /transaction/history
func (h *Handler) TransactionHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		accountNumber string
		page, size    int
	)
	if err := runtime.BindQueryParameter("form", true, true, "account_number", query, &accountNumber); err != nil {
		writeValidation(w, "Validation failed.", []fieldError{{Field: "account_number", Message: "account_number is required."}})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &page); err != nil {
		writeValidation(w, "Validation failed.", []fieldError{{Field: "page", Message: "page must be a number."}})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "size", query, &size); err != nil {
		writeValidation(w, "Validation failed.", []fieldError{{Field: "size", Message: "size must be a number."}})
		return
	}

	history, err := h.mover.History(r.Context(), accountNumber, page, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Transactions fetched successfully.", history)
}
