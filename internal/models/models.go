package models

import "time"

// User represents a registered account.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	PreferredName string    `json:"preferred_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// Expense represents a single dated expense record. The ID is an opaque
// string assigned at creation. Date is a calendar date in YYYY-MM-DD form,
// empty when the record carries no date.
type Expense struct {
	ID          string  `json:"id"`
	UserID      *int64  `json:"user_id,omitempty"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date,omitempty"`
}

// Session represents a server-side login session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
