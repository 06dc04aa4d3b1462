package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/metrics"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/pkg/httpx"
	"github.com/seroft/pharmhub-auth/pkg/jwtx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

const defaultIdleTimeout = 30 * time.Minute

type SessionService struct {
	Store   store.Store
	Metrics *metrics.Metrics

	// IdleTimeout ends a session that has not sent a heartbeat for this
	// long. Housekeeping applies it in bulk; token checks apply it at once.
	IdleTimeout time.Duration

	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SessionService) idleTimeout() time.Duration {
	if s.IdleTimeout <= 0 {
		return defaultIdleTimeout
	}
	return s.IdleTimeout
}

// ActiveSessionCheck rejects session tokens whose session has ended or gone
// idle. Resolution tokens carry no session and pass.
func (s *SessionService) ActiveSessionCheck() httpx.ClaimsCheck {
	return func(ctx context.Context, c jwtx.Claims) error {
		if c.SID == "" {
			if c.HasScope(jwtx.ScopeResolve) {
				return nil
			}
			return ErrSessionInactive
		}
		sess, err := s.Store.Sessions().GetSession(ctx, c.SID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSessionInactive
			}
			return err
		}
		if sess.UserID != c.Subject {
			return ErrSessionInactive
		}
		if !sess.IsActive {
			return endedError(sess.EndReason)
		}
		if s.now().Sub(sess.LastActiveAt) > s.idleTimeout() {
			return ErrSessionExpired
		}
		return nil
	}
}

func endedError(reason string) error {
	switch reason {
	case domain.EndTerminated, domain.EndReplaced, domain.EndAdminAction:
		return ErrSessionTerminated
	case domain.EndIdle, domain.EndExpired:
		return ErrSessionExpired
	}
	return ErrSessionInactive
}

// Heartbeat bumps the session's last activity.
func (s *SessionService) Heartbeat(ctx context.Context, sessionID string) error {
	if err := s.Store.Sessions().TouchSession(ctx, sessionID, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionInactive
		}
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// Logout ends the caller's session.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if err := s.Store.Sessions().EndSession(ctx, sessionID, domain.EndLogout, s.now()); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.Metrics.AddSessionsEnded(domain.EndLogout, 1)
	slogx.FromContext(ctx).Info("session logged out", slog.String("session_id", sessionID))
	return nil
}

// TerminateOthers ends every active session of userID except the caller's.
// The caller's own session is the token's sid; a resolution token has none,
// so keepID from the body is used instead, and only when it belongs to
// userID. Calling it with nothing left to end succeeds with zero.
func (s *SessionService) TerminateOthers(ctx context.Context, caller jwtx.Claims, userID, keepID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrInvalidRequest
	}
	if caller.Subject != userID && !caller.HasScope(jwtx.ScopeAdmin) {
		return 0, ErrForbidden
	}
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		return 0, err
	}

	keep := strings.TrimSpace(keepID)
	if caller.Subject == userID && caller.SID != "" {
		keep = caller.SID
	}

	n, err := s.Store.Sessions().EndOtherSessions(ctx, userID, keep, domain.EndTerminated, s.now())
	if err != nil {
		return 0, fmt.Errorf("end other sessions: %w", err)
	}
	s.Metrics.AddSessionsEnded(domain.EndTerminated, n)
	slogx.FromContext(ctx).Info("terminated other sessions",
		slog.String("user_id", userID),
		slog.String("kept_session_id", keep),
		slog.String("by", caller.Subject),
		slog.Int("terminated", n),
	)
	return n, nil
}

// Terminate ends one session on behalf of an administrator.
func (s *SessionService) Terminate(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidRequest
	}
	sess, err := s.Store.Sessions().GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.Store.Sessions().EndSession(ctx, sessionID, domain.EndAdminAction, s.now()); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if sess.IsActive {
		s.Metrics.AddSessionsEnded(domain.EndAdminAction, 1)
	}
	slogx.FromContext(ctx).Info("session terminated by admin",
		slog.String("session_id", sessionID),
		slog.String("user_id", sess.UserID),
	)
	return nil
}

// List returns the sessions matching f, most recently active first.
func (s *SessionService) List(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, ErrInvalidRequest
	}
	return s.Store.Sessions().ListSessions(ctx, f)
}
