package domain

import "time"

// Device is a client device as seen from one user's account. The same
// device ID under two accounts is two rows.
type Device struct {
	UserID   string
	DeviceID string

	// Fingerprint of the user agent when the device was last verified.
	Fingerprint string

	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
	DeviceType     string
	Vendor         string

	// LastIP is the address of the last verified login.
	LastIP string

	// Trusted is set once the device has passed a step-up challenge (or is
	// the first device of an account created with trust-first-device).
	Trusted bool

	FirstSeenAt time.Time
	LastSeenAt  time.Time
}
