package models

import "time"

// AuthToken records an access token handed out at login. It stays valid
// until it expires or is removed at logout.
type AuthToken struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"token"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}
