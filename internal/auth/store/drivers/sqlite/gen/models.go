package gen

import (
	"database/sql"
	"time"
)

type Challenge struct {
	ID          string
	UserID      string
	DeviceID    string
	Reason      string
	Secret      string
	Attempts    int64
	IpAddress   string
	Fingerprint string
	Suspicious  bool
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

type Device struct {
	UserID         string
	DeviceID       string
	Fingerprint    string
	Browser        string
	BrowserVersion string
	Os             string
	OsVersion      string
	DeviceType     string
	Vendor         string
	LastIp         string
	Trusted        bool
	FirstSeenAt    time.Time
	LastSeenAt     time.Time
}

type Session struct {
	ID           string
	UserID       string
	DeviceID     string
	IpAddress    string
	UserAgent    string
	IsActive     bool
	IsSuspicious bool
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time
	EndedAt      sql.NullTime
	EndReason    string
}

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	RequireOtp   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
