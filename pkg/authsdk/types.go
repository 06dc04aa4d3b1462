package authsdk

import (
	"net/url"
	"strconv"
	"time"
)

// SessionHeader carries the caller's previous session ID on login so the
// server can retire it instead of counting it as a conflict.
const SessionHeader = "X-Session-ID"

// DeviceMetadata is the display and audit fingerprint sent with a login.
type DeviceMetadata struct {
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browserVersion"`
	OS             string `json:"os"`
	OSVersion      string `json:"osVersion"`
	DeviceType     string `json:"deviceType"`
	Vendor         string `json:"vendor,omitempty"`
	UserAgent      string `json:"userAgent,omitempty"`
}

// LoginRequest is the body of POST /login. ChallengeID and Code are set
// only when answering a step-up challenge.
type LoginRequest struct {
	EmailAddress   string         `json:"emailAddress"`
	Password       string         `json:"password"`
	DeviceID       string         `json:"deviceId"`
	DeviceMetadata DeviceMetadata `json:"deviceMetadata"`
	ChallengeID    string         `json:"challengeId,omitempty"`
	Code           string         `json:"code,omitempty"`

	// PreviousSessionID is sent as the X-Session-ID header.
	PreviousSessionID string `json:"-"`
}

// LoginResponse is the 200 body of POST /login.
type LoginResponse struct {
	Status      LoginStatus `json:"status"`
	Message     string      `json:"message"`
	Explanation string      `json:"explanation,omitempty"`

	// OK only.
	Token     string `json:"token,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`

	// NEW_DEVICE, SUSPICIOUS_LOCATION and OTP_REQUIRED only.
	ChallengeID string `json:"challengeId,omitempty"`

	// TOO_MANY_DEVICES only. The resolution token authorizes
	// terminate-others for UserID for a few minutes and nothing else.
	ResolutionToken string `json:"resolutionToken,omitempty"`

	UserID string `json:"userId,omitempty"`
}

// Session is one login session as reported by the server.
type Session struct {
	SessionID    string    `json:"sessionId"`
	UserID       string    `json:"userId"`
	DeviceID     string    `json:"deviceId"`
	IPAddress    string    `json:"ipAddress"`
	UserAgent    string    `json:"userAgent"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	IsActive     bool      `json:"isActive"`
	IsSuspicious bool      `json:"isSuspicious"`
}

// SessionQuery is the server-side filter of GET /sessions. Zero fields are
// not sent.
type SessionQuery struct {
	Active     *bool
	Suspicious *bool
	UserID     string
	From       time.Time
	To         time.Time
}

// Values encodes q as query parameters.
func (q SessionQuery) Values() url.Values {
	v := url.Values{}
	if q.Active != nil {
		v.Set("active", strconv.FormatBool(*q.Active))
	}
	if q.Suspicious != nil {
		v.Set("suspicious", strconv.FormatBool(*q.Suspicious))
	}
	if q.UserID != "" {
		v.Set("userId", q.UserID)
	}
	if !q.From.IsZero() {
		v.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	return v
}

type TerminateOthersRequest struct {
	CurrentSessionID string `json:"currentSessionId,omitempty"`
}

type TerminateOthersResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Terminated int    `json:"terminated"`
}

// ActionResponse acknowledges an admin action.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type CreateUserRequest struct {
	EmailAddress string `json:"emailAddress"`
	Password     string `json:"password"`
	DisplayName  string `json:"displayName"`
	Admin        bool   `json:"admin,omitempty"`
	RequireOTP   bool   `json:"requireOtp,omitempty"`
}

type User struct {
	UserID       string    `json:"userId"`
	EmailAddress string    `json:"emailAddress"`
	DisplayName  string    `json:"displayName"`
	Admin        bool      `json:"admin"`
	RequireOTP   bool      `json:"requireOtp"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BootstrapRequest creates the first administrator.
type BootstrapRequest struct {
	EmailAddress string `json:"emailAddress"`
	Password     string `json:"password"`
	DisplayName  string `json:"displayName"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime,omitempty"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}
