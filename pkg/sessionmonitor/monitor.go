// Package sessionmonitor is the view of login sessions. Administrators can
// list them, end any of them and force step-up on a user's next login. A
// signed-in user can list their own devices.
package sessionmonitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
)

// ErrMissingID is returned when a session or user ID is empty.
var ErrMissingID = errors.New("sessionmonitor: id is required")

// AdminAPI is the admin surface of the auth service. *authsdk.AuthClient
// implements it when holding a token with the sessions:admin scope.
type AdminAPI interface {
	ListSessions(ctx context.Context, q authsdk.SessionQuery) ([]authsdk.Session, error)
	TerminateSession(ctx context.Context, sessionID string) error
	RequireOTP(ctx context.Context, userID string) error
}

// Filter selects sessions. Set fields are ANDed; nil or zero fields match
// everything.
type Filter struct {
	Active     *bool
	Suspicious *bool
	UserID     string
	From       time.Time // CreatedAt >= From
	To         time.Time // CreatedAt <= To
}

// Matches reports whether s satisfies every set field of f.
func (f Filter) Matches(s authsdk.Session) bool {
	if f.Active != nil && s.IsActive != *f.Active {
		return false
	}
	if f.Suspicious != nil && s.IsSuspicious != *f.Suspicious {
		return false
	}
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if !f.From.IsZero() && s.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.CreatedAt.After(f.To) {
		return false
	}
	return true
}

func (f Filter) query() authsdk.SessionQuery {
	return authsdk.SessionQuery{
		Active:     f.Active,
		Suspicious: f.Suspicious,
		UserID:     f.UserID,
		From:       f.From,
		To:         f.To,
	}
}

type Monitor struct {
	api AdminAPI
	log *slog.Logger
}

func New(api AdminAPI, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{api: api, log: log}
}

// List returns the sessions matching f, most recently active first. The
// filter is applied again to the server's answer.
func (m *Monitor) List(ctx context.Context, f Filter) ([]authsdk.Session, error) {
	all, err := m.api.ListSessions(ctx, f.query())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]authsdk.Session, 0, len(all))
	for _, s := range all {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	if dropped := len(all) - len(out); dropped > 0 {
		m.log.Warn("server returned sessions outside filter", "dropped", dropped)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActiveAt.After(out[j].LastActiveAt)
	})
	return out, nil
}

// Terminate ends one session whoever owns it.
func (m *Monitor) Terminate(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrMissingID
	}
	if err := m.api.TerminateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("terminate session %s: %w", sessionID, err)
	}
	m.log.Info("session terminated", "session_id", sessionID)
	return nil
}

// RequireOTP makes the user's next login pass step-up verification.
func (m *Monitor) RequireOTP(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingID
	}
	if err := m.api.RequireOTP(ctx, userID); err != nil {
		return fmt.Errorf("require otp for %s: %w", userID, err)
	}
	m.log.Info("otp required on next login", "user_id", userID)
	return nil
}

// SelfAPI is what a user reaches with their own session token.
// *authsdk.AuthClient implements it.
type SelfAPI interface {
	ListUserSessions(ctx context.Context, userID string, q authsdk.SessionQuery) ([]authsdk.Session, error)
}

// Devices is a user's active sessions with the one on this device set apart.
type Devices struct {
	Current *authsdk.Session
	Others  []authsdk.Session
}

// MySessions lists userID's active sessions, most recently active first,
// and sets apart the one named currentID.
func MySessions(ctx context.Context, api SelfAPI, userID, currentID string) (Devices, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Devices{}, ErrMissingID
	}
	f := Filter{Active: Bool(true), UserID: userID}
	all, err := api.ListUserSessions(ctx, userID, f.query())
	if err != nil {
		return Devices{}, fmt.Errorf("list sessions of %s: %w", userID, err)
	}

	kept := make([]authsdk.Session, 0, len(all))
	for _, s := range all {
		if f.Matches(s) {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].LastActiveAt.After(kept[j].LastActiveAt)
	})
	current, others := SplitCurrent(kept, currentID)
	return Devices{Current: current, Others: others}, nil
}

// SessionEnded reports the notice to show when err says the caller's
// session was ended from another device or timed out.
func SessionEnded(err error) (authsdk.StatusDetails, bool) {
	if !authsdk.HasCode(err, authsdk.ErrorCodeSessionTerminated) && !authsdk.HasCode(err, authsdk.ErrorCodeSessionExpired) {
		return authsdk.StatusDetails{}, false
	}
	return authsdk.ErrorDetails(err)
}

// SplitCurrent separates the session named currentID from the rest. current
// is nil when it is not in the list.
func SplitCurrent(sessions []authsdk.Session, currentID string) (current *authsdk.Session, others []authsdk.Session) {
	others = make([]authsdk.Session, 0, len(sessions))
	for i := range sessions {
		if currentID != "" && sessions[i].SessionID == currentID && current == nil {
			s := sessions[i]
			current = &s
			continue
		}
		others = append(others, sessions[i])
	}
	return current, others
}

// Bool returns a pointer to v, for building filters.
func Bool(v bool) *bool { return &v }
