package domain

import "time"

// Why a session stopped being active.
const (
	EndLogout      = "logout"
	EndTerminated  = "terminated"
	EndReplaced    = "replaced"
	EndIdle        = "idle"
	EndExpired     = "expired"
	EndAdminAction = "admin"
)

type Session struct {
	ID           string
	UserID       string
	DeviceID     string
	IPAddress    string
	UserAgent    string
	IsActive     bool
	IsSuspicious bool
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time
	EndedAt      *time.Time
	EndReason    string
}

// SessionFilter selects sessions. Nil and zero fields match everything.
type SessionFilter struct {
	Active     *bool
	Suspicious *bool
	UserID     string
	From       time.Time
	To         time.Time
	Limit      int
}
