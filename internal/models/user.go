package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus records the outcome of the identity check at registration
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationVerified   VerificationStatus = "verified"
	VerificationFailed     VerificationStatus = "failed"
)

// User is an account holder. PasswordHash is never serialized.
type User struct {
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
	FirstName     string             `db:"first_name" json:"first_name"`
	LastName      string             `db:"last_name" json:"last_name"`
	Email         string             `db:"email" json:"email"`
	PhoneNumber   string             `db:"phone_number" json:"phone_number"`
	PasswordHash  string             `db:"password" json:"-"`
	NINVerified   VerificationStatus `db:"nin_verified" json:"nin_verified"`
	EmailVerified bool               `db:"email_verified" json:"email_verified"`
	ID            uuid.UUID          `db:"id" json:"id"`
}
