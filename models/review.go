package models

import "time"

type Review struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	BusinessID string    `json:"business_id"`
	UserID     string    `json:"user_id"`
	Body       string    `json:"review"`
}
