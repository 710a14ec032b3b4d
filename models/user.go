package models

import "time"

type User struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Password        string    `json:"-"` // bcrypt hash
	ActivationToken string    `json:"-"` // Empty once the account is activated
}

// IsActivated reports whether the user has confirmed their email address.
func (u User) IsActivated() bool {
	return u.ActivationToken == ""
}
