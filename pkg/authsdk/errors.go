package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/seroft/pharmhub-auth/pkg/httpx"
)

// Wire error codes.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInsufficientScope  = "insufficient_scope"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeConflict           = "conflict"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeServerError        = "server_error"

	// A 401 on a token whose session ended says how it ended.
	ErrorCodeSessionTerminated = "session_terminated"
	ErrorCodeSessionExpired    = "session_expired"

	// A login from a new device when the user has used up their devices.
	ErrorCodeMaxDevices = "max_devices_reached"
)

// ErrMalformedResponse is returned when a 2xx body cannot be decoded or
// breaks the login response invariants.
var ErrMalformedResponse = errors.New("authsdk: malformed response")

// Error is the JSON error body the server writes and the client decodes.
type Error struct {
	StatusCode  int               `json:"-"`
	Code        string            `json:"error"`
	Description string            `json:"error_description"`
	Fields      map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as the response.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// WithFields returns a copy of e carrying per-field validation reasons.
func (e *Error) WithFields(fields map[string]string) *Error {
	cp := *e
	cp.Fields = fields
	return &cp
}

// WithDescription returns a copy of e with a different description.
func (e *Error) WithDescription(desc string) *Error {
	cp := *e
	cp.Description = desc
	return &cp
}

var (
	ErrInvalidRequest = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required fields",
	}
	ErrInvalidCredentials = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "The username or password you entered is incorrect.",
	}
	ErrInvalidToken = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid, expired or revoked",
	}
	ErrForbidden = &Error{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbidden,
		Description: "you are not allowed to act on this resource",
	}
	ErrNotFound = &Error{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "resource not found",
	}
	ErrConflict = &Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "resource already exists",
	}
	ErrMaxDevices = &Error{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeMaxDevices,
		Description: "the account has reached its device limit",
	}
	ErrServerError = &Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewError builds an Error.
func NewError(status int, code, desc string) *Error {
	return &Error{StatusCode: status, Code: code, Description: desc}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// HasCode reports whether err is an *Error carrying code.
func HasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// parseErrorResponse turns a non-2xx response into an *Error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var e Error
	if err := json.Unmarshal(body, &e); err == nil && e.Code != "" {
		e.StatusCode = resp.StatusCode
		return &e
	}

	code := ErrorCodeServerError
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		code = ErrorCodeRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		code = ErrorCodeInvalidToken
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		code = ErrorCodeInvalidRequest
	}
	return &Error{
		StatusCode:  resp.StatusCode,
		Code:        code,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
