package models

import "time"

const (
	CodeTypePhone = "phone"
	CodeTypeEmail = "email"

	CategoryLogin             = "login"
	CategoryPhoneVerification = "phone_verification"
	CategoryEmailVerification = "email_verification"
	CategoryPasswordReset     = "password_reset"
	CategoryWithdrawal        = "withdrawal"

	// Stored statuses. "expired" and "exhausted" are derived, never stored.
	CodeStatusPending   = "pending"
	CodeStatusVerified  = "verified"
	CodeStatusExpired   = "expired"
	CodeStatusExhausted = "exhausted"
)

var (
	CodeTypes      = []string{CodeTypePhone, CodeTypeEmail}
	CodeCategories = []string{
		CategoryLogin,
		CategoryPhoneVerification,
		CategoryEmailVerification,
		CategoryPasswordReset,
		CategoryWithdrawal,
	}
)

// Code is one verification code instance. CodeHash is the bcrypt hash of the
// secret; the plaintext secret never reaches storage.
type Code struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Type        string     `json:"type"`
	Category    string     `json:"category"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	Email       *string    `json:"email,omitempty"`
	CodeHash    string     `json:"-"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func IsValidCodeType(t string) bool {
	return contains(CodeTypes, t)
}

func IsValidCodeCategory(c string) bool {
	return contains(CodeCategories, c)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
