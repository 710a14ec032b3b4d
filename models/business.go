package models

import "time"

type Business struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      string    `json:"user_id"` // Owner
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Country     string    `json:"country"`
	City        string    `json:"city"`
}
