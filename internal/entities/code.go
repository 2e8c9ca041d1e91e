package entities

import (
	"time"

	"kyccodes/internal/models"
)

// Code is the management view of a verification code. The secret hash is
// never part of it.
type Code struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Type        string     `json:"type"`
	Category    string     `json:"category"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	Email       *string    `json:"email,omitempty"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ValidatedAt *time.Time `json:"validated_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewCode presents c with its effective status.
func NewCode(c *models.Code, status string) Code {
	return Code{
		ID:          c.ID,
		UserID:      c.UserID,
		Type:        c.Type,
		Category:    c.Category,
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
		Status:      status,
		Attempts:    c.Attempts,
		ExpiresAt:   c.ExpiresAt,
		ValidatedAt: c.ValidatedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
