package domain

import "time"

type User struct {
	ID           string
	Email        string // lower-cased, unique
	DisplayName  string
	PasswordHash string // argon2 encoded
	IsAdmin      bool

	// RequireOTP forces step-up on the next login even when the risk
	// checks pass. Cleared by a successful verification.
	RequireOTP bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
