package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/benx421/ledger-bank/internal/service"
)

const dateLayout = "2006-01-02"

type registerRequest struct {
	InitialDeposit  *decimal.Decimal `json:"initial_deposit"`
	FirstName       string           `json:"first_name" validate:"required,max=100"`
	LastName        string           `json:"last_name" validate:"required,max=100"`
	Email           string           `json:"email" validate:"required,email"`
	PhoneNumber     string           `json:"phone_number" validate:"required,phone"`
	Password        string           `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string           `json:"confirm_password" validate:"required,eqfield=Password"`
	NIN             string           `json:"nin" validate:"required,numeric,len=11"`
	DateOfBirth     string           `json:"dob" validate:"required,datetime=2006-01-02"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric,len=6"`
}

type resendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RegisterUser handles POST /user/register
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	// Already checked by the datetime tag.
	dob, _ := time.Parse(dateLayout, req.DateOfBirth) //nolint:errcheck // validated above

	deposit := decimal.Zero
	if req.InitialDeposit != nil {
		deposit = *req.InitialDeposit
	}

	profile, err := h.users.Register(r.Context(), service.RegisterInput{
		DateOfBirth:    dob,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		Password:       req.Password,
		NIN:            req.NIN,
		InitialDeposit: deposit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User account created successfully. Check your email for a verification code.", profile)
}

// VerifyUser handles PUT /user/verify-user
func (h *Handler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.users.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Account successfully verified. Proceed to login.", nil)
}

// ResendVerification handles POST /user/resend-verification
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.users.ResendVerification(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Verification code successfully sent to "+req.Email, nil)
}

// GetUser handles GET /user?user_id=
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := bindUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "User account fetched successfully.", profile)
}
