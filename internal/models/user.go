package models

import "time"

const (
	UserStatePending = "pending"
	UserStateActive  = "active"
	UserStateBanned  = "banned"
)

type User struct {
	ID        int64     `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsActive() bool {
	return u != nil && u.State == UserStateActive
}
