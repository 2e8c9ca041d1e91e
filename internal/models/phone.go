package models

import "time"

// Phone is a user's phone record. CodeID points at the code that validates it.
type Phone struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CodeID    *int64    `json:"-"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}
