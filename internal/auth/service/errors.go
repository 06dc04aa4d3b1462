package service

import (
	"errors"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
)

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrUserExists         = errors.New("user_exists")

	// ErrInvalidChallenge means the challenge is unknown, expired, or was
	// raised for another user or device.
	ErrInvalidChallenge = errors.New("invalid_challenge")

	// ErrInvalidCode is a wrong code for a live challenge.
	ErrInvalidCode = errors.New("invalid_code")

	// ErrChallengeExhausted means the challenge took too many wrong codes
	// and has been discarded.
	ErrChallengeExhausted = errors.New("challenge_exhausted")

	// ErrSessionInactive rejects a token whose session was ended.
	ErrSessionInactive = errors.New("session_inactive")

	// ErrSessionTerminated and ErrSessionExpired are ErrSessionInactive
	// with the reason: ended by another login or an administrator, or
	// ended by inactivity.
	ErrSessionTerminated error = &sessionEndedError{code: authsdk.ErrorCodeSessionTerminated}
	ErrSessionExpired    error = &sessionEndedError{code: authsdk.ErrorCodeSessionExpired}

	// ErrMaxDevices refuses a device the user has never logged in from
	// once they hold as many devices as allowed.
	ErrMaxDevices = errors.New("max_devices_reached")
)

type sessionEndedError struct {
	code string
}

func (e *sessionEndedError) Error() string     { return e.code }
func (e *sessionEndedError) ErrorCode() string { return e.code }
func (e *sessionEndedError) Unwrap() error     { return ErrSessionInactive }
