package authsdk

import "errors"

// LoginStatus is the server's classification of a login attempt. Every
// login response carries exactly one.
type LoginStatus string

const (
	StatusOK                 LoginStatus = "OK"
	StatusNewDevice          LoginStatus = "NEW_DEVICE"
	StatusSuspiciousLocation LoginStatus = "SUSPICIOUS_LOCATION"
	StatusTooManyDevices     LoginStatus = "TOO_MANY_DEVICES"
	StatusOTPRequired        LoginStatus = "OTP_REQUIRED"
)

// Statuses lists every LoginStatus.
func Statuses() []LoginStatus {
	return []LoginStatus{
		StatusOK,
		StatusNewDevice,
		StatusSuspiciousLocation,
		StatusTooManyDevices,
		StatusOTPRequired,
	}
}

// Valid reports whether s is one of the known statuses.
func (s LoginStatus) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

// NeedsStepUp reports whether s asks for a verification code.
func (s LoginStatus) NeedsStepUp() bool {
	return s == StatusNewDevice || s == StatusSuspiciousLocation || s == StatusOTPRequired
}

type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// StatusDetails is the user-facing text for a status or failure.
type StatusDetails struct {
	Code        string
	Message     string
	Explanation string
	Severity    Severity
	Recoverable bool
}

var statusTable = map[LoginStatus]StatusDetails{
	StatusOK: {
		Message:     "Login successful.",
		Severity:    SeverityInfo,
		Recoverable: true,
	},
	StatusNewDevice: {
		Code:        "SESS_004",
		Message:     "We detected a login attempt from a new device.",
		Explanation: "Verify your identity to continue using this new device.",
		Severity:    SeverityInfo,
		Recoverable: true,
	},
	StatusSuspiciousLocation: {
		Code:        "SESS_002",
		Message:     "We detected a login attempt from an unusual location.",
		Explanation: "Verify your identity to continue or contact support if you didn't attempt to log in.",
		Severity:    SeverityWarning,
		Recoverable: true,
	},
	StatusTooManyDevices: {
		Code:        "SESS_001",
		Message:     "You are already logged in from another device.",
		Explanation: `Log out from the other device or click "Log Out Other Devices" to continue with this session.`,
		Severity:    SeverityWarning,
		Recoverable: true,
	},
	StatusOTPRequired: {
		Code:        "SESS_005",
		Message:     "Additional verification is required for your security.",
		Explanation: "Please enter the verification code sent to your email or mobile device.",
		Severity:    SeverityInfo,
		Recoverable: true,
	},
}

// Details returns the fixed text for s. Both the server, when writing a
// response, and clients, when rendering one, read from this table so the
// wording is the same everywhere.
func Details(s LoginStatus) (StatusDetails, bool) {
	d, ok := statusTable[s]
	return d, ok
}

// Session lifecycle notices shown outside the login flow.
var (
	SessionTerminatedDetails = StatusDetails{
		Code:        "SESS_003",
		Message:     "Your session was terminated from another device.",
		Explanation: "Please log in again to continue. If you didn't terminate your session, consider changing your password.",
		Severity:    SeverityWarning,
		Recoverable: true,
	}
	MaxDevicesDetails = StatusDetails{
		Code:        "SESS_006",
		Message:     "You have reached the maximum number of allowed devices.",
		Explanation: "Ask an administrator to remove one of your existing devices before adding a new one.",
		Severity:    SeverityWarning,
		Recoverable: true,
	}
	SessionExpiredDetails = StatusDetails{
		Code:        "SESS_007",
		Message:     "Your session has expired due to inactivity.",
		Explanation: "Please log in again to continue.",
		Severity:    SeverityInfo,
		Recoverable: true,
	}
)

var errorTable = map[string]StatusDetails{
	ErrorCodeSessionTerminated: SessionTerminatedDetails,
	ErrorCodeSessionExpired:    SessionExpiredDetails,
	ErrorCodeMaxDevices:        MaxDevicesDetails,
}

// ErrorDetails returns the catalogue entry for an *Error whose code has
// one, such as a 401 saying the session was terminated elsewhere.
func ErrorDetails(err error) (StatusDetails, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return StatusDetails{}, false
	}
	d, ok := errorTable[e.Code]
	return d, ok
}
