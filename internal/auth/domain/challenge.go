package domain

import "time"

// Challenge is a pending step-up verification. The code is a TOTP derived
// from a secret that exists only for this challenge.
type Challenge struct {
	ID       string
	UserID   string
	DeviceID string

	// Reason is the login status that raised the challenge.
	Reason string

	Secret   string // base32
	Attempts int

	// Context captured when the challenge was raised, applied to the
	// device and session once it is passed.
	IPAddress   string
	Fingerprint string
	Suspicious  bool

	CreatedAt time.Time
	ExpiresAt time.Time
}
