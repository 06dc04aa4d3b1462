package authsdk

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	reasonRequired = "required"
	reasonTooLong  = "too long"

	minPasswordLength = 8
	maxPasswordLength = 256
)

// Validate checks the request shape. It returns field name to reason, or
// nil when the request can be sent.
func (r LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.EmailAddress) == "" {
		errs["emailAddress"] = reasonRequired
	}
	switch {
	case r.Password == "":
		errs["password"] = reasonRequired
	case len(r.Password) > maxPasswordLength:
		errs["password"] = reasonTooLong
	}
	if strings.TrimSpace(r.DeviceID) == "" {
		errs["deviceId"] = reasonRequired
	}
	if r.Code != "" && r.ChallengeID == "" {
		errs["challengeId"] = "required with code"
	}
	if r.ChallengeID != "" && strings.TrimSpace(r.Code) == "" {
		errs["code"] = reasonRequired
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Check enforces the response invariants: a known status, a token exactly
// when the status is OK, and a challenge only for step-up statuses.
func (r LoginResponse) Check() error {
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrMalformedResponse, r.Status)
	}
	if (r.Token != "") != (r.Status == StatusOK) {
		return fmt.Errorf("%w: token presence does not match status %s", ErrMalformedResponse, r.Status)
	}
	if r.ChallengeID != "" && !r.Status.NeedsStepUp() {
		return fmt.Errorf("%w: challenge on status %s", ErrMalformedResponse, r.Status)
	}
	if r.Status.NeedsStepUp() && r.ChallengeID == "" {
		return fmt.Errorf("%w: status %s without challenge", ErrMalformedResponse, r.Status)
	}
	if r.Status == StatusTooManyDevices && r.UserID == "" {
		return fmt.Errorf("%w: conflict without user", ErrMalformedResponse)
	}
	return nil
}

func (r CreateUserRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateAccount(errs, r.EmailAddress, r.Password, r.DisplayName)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (r BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateAccount(errs, r.EmailAddress, r.Password, r.DisplayName)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateAccount(errs map[string]string, email, password, displayName string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		errs["emailAddress"] = reasonRequired
	case len(email) > 254:
		errs["emailAddress"] = reasonTooLong
	default:
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			errs["emailAddress"] = "not a valid email address"
		}
	}

	switch {
	case password == "":
		errs["password"] = reasonRequired
	case utf8.RuneCountInString(password) < minPasswordLength:
		errs["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLength)
	case len(password) > maxPasswordLength:
		errs["password"] = reasonTooLong
	}

	if utf8.RuneCountInString(strings.TrimSpace(displayName)) > 64 {
		errs["displayName"] = "too long (max 64)"
	}
}
