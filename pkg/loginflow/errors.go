package loginflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
)

var (
	// ErrSubmitInFlight rejects a submission while one is outstanding.
	ErrSubmitInFlight = errors.New("loginflow: a submission is already in flight")

	// ErrInvalidTransition rejects an operation the current state does not
	// allow.
	ErrInvalidTransition = errors.New("loginflow: operation not allowed in current state")

	// ErrSuperseded is returned to a caller whose response arrived after the
	// flow was cancelled or restarted. The response was discarded.
	ErrSuperseded = errors.New("loginflow: attempt was superseded")

	// ErrTerminationFailed is returned by ConfirmTerminateOthers when the
	// other sessions could not be ended.
	ErrTerminationFailed = errors.New("loginflow: could not terminate other sessions")
)

// ValidationError reports missing input. It never changes state.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return "loginflow: invalid input: " + strings.Join(names, ", ")
}

// Details returns the user-facing text.
func (e *ValidationError) Details() authsdk.StatusDetails {
	return missingInputDetails
}

// FailureKind classifies why a round trip failed.
type FailureKind int

const (
	// KindValidation: the server rejected the request shape (400).
	KindValidation FailureKind = iota + 1
	// KindNetwork: the server could not be reached.
	KindNetwork
	// KindTimeout: no answer within the request timeout.
	KindTimeout
	// KindRejected: wrong credentials or not allowed (401/403/other 4xx).
	KindRejected
	// KindRateLimited: too many attempts (429).
	KindRateLimited
	// KindServer: 5xx, an unreadable answer, or a local device storage
	// failure.
	KindServer
)

func (k FailureKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRejected:
		return "rejected"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	}
	return "unknown"
}

var (
	missingInputDetails = authsdk.StatusDetails{
		Code:        "VAL_002",
		Message:     "Required information is missing.",
		Explanation: "Please fill in all required fields and try again.",
		Severity:    authsdk.SeverityWarning,
		Recoverable: true,
	}

	failureTable = map[FailureKind]authsdk.StatusDetails{
		KindValidation: {
			Code:        "VAL_001",
			Message:     "Some of the information you provided is invalid.",
			Explanation: "Please check the highlighted fields and try again.",
			Severity:    authsdk.SeverityWarning,
			Recoverable: true,
		},
		KindNetwork: {
			Code:        "NET_001",
			Message:     "Unable to connect to the server.",
			Explanation: "Please check your internet connection and try again.",
			Severity:    authsdk.SeverityError,
			Recoverable: true,
		},
		KindTimeout: {
			Code:        "NET_002",
			Message:     "The request timed out.",
			Explanation: "Please try again. If the problem persists, contact support.",
			Severity:    authsdk.SeverityWarning,
			Recoverable: true,
		},
		KindRejected: {
			Code:        "AUTH_001",
			Message:     "The username or password you entered is incorrect.",
			Explanation: "Please check your credentials and try again.",
			Severity:    authsdk.SeverityError,
			Recoverable: true,
		},
		KindRateLimited: {
			Code:        "AUTH_002",
			Message:     "Too many login attempts.",
			Explanation: "Please wait a minute before trying again.",
			Severity:    authsdk.SeverityWarning,
			Recoverable: true,
		},
		KindServer: {
			Code:        "NET_003",
			Message:     "The server encountered an error while processing your request.",
			Explanation: "Please try again later. If the problem persists, contact support.",
			Severity:    authsdk.SeverityError,
			Recoverable: true,
		},
	}
)

// FailureKinds lists every FailureKind.
func FailureKinds() []FailureKind {
	return []FailureKind{KindValidation, KindNetwork, KindTimeout, KindRejected, KindRateLimited, KindServer}
}

// FailureDetails returns the fixed text for kind.
func FailureDetails(kind FailureKind) (authsdk.StatusDetails, bool) {
	d, ok := failureTable[kind]
	return d, ok
}

// Failure is the error held by the Failed state.
type Failure struct {
	Kind    FailureKind
	Details authsdk.StatusDetails
	Err     error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("loginflow: %s failure", f.Kind)
	}
	return fmt.Sprintf("loginflow: %s failure: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func newFailure(kind FailureKind, err error) *Failure {
	d, _ := FailureDetails(kind)
	return &Failure{Kind: kind, Details: d, Err: err}
}

// classify maps a round-trip error to a failure kind. A rejection whose
// code has its own catalogue entry, such as the device limit, carries that
// entry's text instead of the generic one.
func classify(err error) *Failure {
	var apiErr *authsdk.Error
	if errors.As(err, &apiErr) {
		switch code := apiErr.StatusCode; {
		case code == http.StatusBadRequest:
			return newFailure(KindValidation, err)
		case code == http.StatusTooManyRequests:
			return newFailure(KindRateLimited, err)
		case code >= 500:
			return newFailure(KindServer, err)
		default:
			f := newFailure(KindRejected, err)
			if d, ok := authsdk.ErrorDetails(err); ok {
				f.Details = d
			}
			return f
		}
	}

	if errors.Is(err, authsdk.ErrMalformedResponse) {
		return newFailure(KindServer, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newFailure(KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newFailure(KindTimeout, err)
	}
	return newFailure(KindNetwork, err)
}
