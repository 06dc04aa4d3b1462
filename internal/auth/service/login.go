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
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/cryptox"
	"github.com/seroft/pharmhub-auth/pkg/deviceid"
	"github.com/seroft/pharmhub-auth/pkg/idx"
	"github.com/seroft/pharmhub-auth/pkg/jwtx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

const (
	defaultSessionTTL        = 12 * time.Hour
	defaultMaxActiveSessions = 1
)

// LoginInput is one login attempt. IPAddress and UserAgent come from the
// HTTP request, not the body.
type LoginInput struct {
	Email             string
	Password          string
	DeviceID          string
	Metadata          authsdk.DeviceMetadata
	ChallengeID       string
	Code              string
	PreviousSessionID string
	IPAddress         string
	UserAgent         string
}

// LoginService classifies a login into exactly one status and, for OK,
// opens the session.
type LoginService struct {
	Store      store.Store
	Hasher     *cryptox.Hasher
	Tokens     *TokenService
	Challenges *ChallengeService
	Risk       RiskAssessor
	Metrics    *metrics.Metrics

	SessionTTL time.Duration

	// MaxActiveSessions is how many sessions on other devices a user may
	// hold before a login is refused with TOO_MANY_DEVICES.
	MaxActiveSessions int

	// IdleTimeout keeps sessions that stopped sending heartbeats from
	// counting against MaxActiveSessions before housekeeping ends them.
	IdleTimeout time.Duration

	// MaxDevices caps how many devices a user may register. Zero means
	// no cap.
	MaxDevices int

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *LoginService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *LoginService) sessionTTL() time.Duration {
	if s.SessionTTL <= 0 {
		return defaultSessionTTL
	}
	return s.SessionTTL
}

func (s *LoginService) idleTimeout() time.Duration {
	if s.IdleTimeout <= 0 {
		return defaultIdleTimeout
	}
	return s.IdleTimeout
}

func (s *LoginService) maxActive() int {
	if s.MaxActiveSessions <= 0 {
		return defaultMaxActiveSessions
	}
	return s.MaxActiveSessions
}

// Login returns ErrInvalidCredentials for an unknown user or a wrong
// password and a LoginResponse for everything else.
func (s *LoginService) Login(ctx context.Context, in LoginInput) (authsdk.LoginResponse, error) {
	start := time.Now()
	resp, err := s.login(ctx, in)
	switch {
	case err == nil:
		s.Metrics.ObserveLogin(string(resp.Status), start)
	case errors.Is(err, ErrInvalidCredentials):
		s.Metrics.ObserveLogin("invalid_credentials", start)
	case errors.Is(err, ErrMaxDevices):
		s.Metrics.ObserveLogin("max_devices", start)
	}
	return resp, err
}

func (s *LoginService) login(ctx context.Context, in LoginInput) (authsdk.LoginResponse, error) {
	l := slogx.FromContext(ctx)
	now := s.now()

	email := strings.ToLower(strings.TrimSpace(in.Email))
	deviceID := strings.TrimSpace(in.DeviceID)
	if email == "" || in.Password == "" || deviceID == "" {
		return authsdk.LoginResponse{}, ErrInvalidRequest
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.Hasher.VerifyDummy(in.Password)
			l.Info("login for unknown email")
			return authsdk.LoginResponse{}, ErrInvalidCredentials
		}
		return authsdk.LoginResponse{}, fmt.Errorf("load user: %w", err)
	}
	if err := s.Hasher.Verify(in.Password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			l.Error("password verification failed", slog.String("user_id", user.ID), slog.Any("error", err))
		}
		l.Info("login with wrong password", slog.String("user_id", user.ID))
		return authsdk.LoginResponse{}, ErrInvalidCredentials
	}

	ua := in.Metadata.UserAgent
	if ua == "" {
		ua = in.UserAgent
	}
	att := attempt{
		user:        user,
		deviceID:    deviceID,
		meta:        withParsedMetadata(in.Metadata, ua),
		ip:          in.IPAddress,
		userAgent:   ua,
		fingerprint: deviceid.Fingerprint(ua),
		prevSession: strings.TrimSpace(in.PreviousSessionID),
		amr:         []string{jwtx.AMRPassword},
	}

	if in.ChallengeID != "" {
		c, err := s.Challenges.Verify(ctx, user, deviceID, in.ChallengeID, in.Code, now)
		switch {
		case err == nil:
			att.passed = &c
			att.suspicious = c.Suspicious
			att.amr = append(att.amr, jwtx.AMROTP)
			att.trust = true
		case errors.Is(err, ErrInvalidCode):
			l.Info("wrong step-up code", slog.String("user_id", user.ID), slog.Int("attempts", c.Attempts))
			return stepUpResponse(authsdk.StatusOTPRequired, c.ID), nil
		case errors.Is(err, ErrChallengeExhausted):
			l.Warn("step-up attempts exhausted", slog.String("user_id", user.ID))
			return s.challenge(ctx, att, authsdk.StatusOTPRequired, c.Suspicious, now)
		case errors.Is(err, ErrInvalidChallenge):
			l.Info("stale step-up challenge", slog.String("user_id", user.ID))
		default:
			return authsdk.LoginResponse{}, fmt.Errorf("verify challenge: %w", err)
		}
	}

	if att.passed == nil {
		decision, err := s.assess(ctx, att)
		if err != nil {
			return authsdk.LoginResponse{}, err
		}
		if decision.Status != authsdk.StatusOK {
			l.Info("login needs step-up",
				slog.String("user_id", user.ID),
				slog.String("status", string(decision.Status)),
				slog.String("reason", decision.Reason),
			)
			return s.challenge(ctx, att, decision.Status, decision.Suspicious, now)
		}
		att.trust = decision.TrustDevice
	}

	return s.open(ctx, att, now)
}

type attempt struct {
	user        domain.User
	deviceID    string
	meta        authsdk.DeviceMetadata
	ip          string
	userAgent   string
	fingerprint string
	prevSession string
	amr         []string

	passed     *domain.Challenge
	suspicious bool
	trust      bool
}

func (s *LoginService) assess(ctx context.Context, att attempt) (RiskDecision, error) {
	in := RiskInput{
		User:        att.user,
		DeviceID:    att.deviceID,
		IPAddress:   att.ip,
		Fingerprint: att.fingerprint,
	}
	dev, err := s.Store.Devices().GetDevice(ctx, att.user.ID, att.deviceID)
	switch {
	case err == nil:
		in.Device = &dev
	case !errors.Is(err, store.ErrNotFound):
		return RiskDecision{}, fmt.Errorf("load device: %w", err)
	}
	if in.KnownDevices, err = s.Store.Devices().CountDevices(ctx, att.user.ID); err != nil {
		return RiskDecision{}, fmt.Errorf("count devices: %w", err)
	}
	if in.Device == nil && s.MaxDevices > 0 && in.KnownDevices >= s.MaxDevices {
		slogx.FromContext(ctx).Info("login refused, device limit reached",
			slog.String("user_id", att.user.ID),
			slog.Int("devices", in.KnownDevices),
		)
		return RiskDecision{}, ErrMaxDevices
	}
	return s.Risk.Assess(ctx, in), nil
}

func (s *LoginService) challenge(ctx context.Context, att attempt, status authsdk.LoginStatus, suspicious bool, now time.Time) (authsdk.LoginResponse, error) {
	c, err := s.Challenges.Issue(ctx, att.user, ChallengeParams{
		DeviceID:    att.deviceID,
		Reason:      status,
		IPAddress:   att.ip,
		Fingerprint: att.fingerprint,
		Suspicious:  suspicious,
	}, now)
	if err != nil {
		return authsdk.LoginResponse{}, err
	}
	return stepUpResponse(status, c.ID), nil
}

// open records the device, checks the active session budget and either
// refuses with TOO_MANY_DEVICES or creates the session.
func (s *LoginService) open(ctx context.Context, att attempt, now time.Time) (authsdk.LoginResponse, error) {
	l := slogx.FromContext(ctx)

	sess := domain.Session{
		ID:           idx.NewAt(now).String(),
		UserID:       att.user.ID,
		DeviceID:     att.deviceID,
		IPAddress:    att.ip,
		UserAgent:    att.userAgent,
		IsActive:     true,
		IsSuspicious: att.suspicious,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(s.sessionTTL()),
	}

	var (
		conflict bool
		replaced int
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.recordDevice(ctx, tx, att, now); err != nil {
			return err
		}
		if att.passed != nil {
			if att.user.RequireOTP {
				if err := tx.Users().SetRequireOTP(ctx, att.user.ID, false, now); err != nil {
					return fmt.Errorf("clear require otp: %w", err)
				}
			}
			if err := tx.Challenges().DeleteChallenge(ctx, att.passed.ID); err != nil {
				return fmt.Errorf("consume challenge: %w", err)
			}
		}

		active, err := tx.Sessions().ListActiveSessions(ctx, att.user.ID, now, now.Add(-s.idleTimeout()))
		if err != nil {
			return fmt.Errorf("list active sessions: %w", err)
		}
		others, previous := 0, false
		for _, a := range active {
			switch {
			case a.DeviceID == att.deviceID:
			case att.prevSession != "" && a.ID == att.prevSession:
				previous = true
			default:
				others++
			}
		}
		if others >= s.maxActive() {
			conflict = true
			return nil
		}

		n, err := tx.Sessions().EndDeviceSessions(ctx, att.user.ID, att.deviceID, domain.EndReplaced, now)
		if err != nil {
			return fmt.Errorf("end device sessions: %w", err)
		}
		replaced = n
		if previous {
			if err := tx.Sessions().EndSession(ctx, att.prevSession, domain.EndReplaced, now); err != nil {
				return fmt.Errorf("end previous session: %w", err)
			}
			replaced++
		}
		if err := tx.Sessions().CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return authsdk.LoginResponse{}, err
	}

	if conflict {
		tok, err := s.Tokens.IssueResolution(att.user.ID, att.deviceID, now)
		if err != nil {
			return authsdk.LoginResponse{}, fmt.Errorf("sign resolution token: %w", err)
		}
		l.Info("login refused, too many active sessions", slog.String("user_id", att.user.ID))
		d, _ := authsdk.Details(authsdk.StatusTooManyDevices)
		return authsdk.LoginResponse{
			Status:          authsdk.StatusTooManyDevices,
			Message:         d.Message,
			Explanation:     d.Explanation,
			ResolutionToken: tok,
			UserID:          att.user.ID,
		}, nil
	}

	s.Metrics.AddSessionsEnded(domain.EndReplaced, replaced)

	tok, expiresIn, err := s.Tokens.IssueSession(att.user, sess, att.amr, now)
	if err != nil {
		return authsdk.LoginResponse{}, fmt.Errorf("sign session token: %w", err)
	}
	l.Info("session opened",
		slog.String("user_id", att.user.ID),
		slog.String("session_id", sess.ID),
		slog.String("device_id", att.deviceID),
		slog.Bool("suspicious", sess.IsSuspicious),
		slog.Int("replaced", replaced),
	)
	d, _ := authsdk.Details(authsdk.StatusOK)
	return authsdk.LoginResponse{
		Status:    authsdk.StatusOK,
		Message:   d.Message,
		Token:     tok,
		SessionID: sess.ID,
		ExpiresIn: expiresIn,
		UserID:    att.user.ID,
	}, nil
}

// recordDevice trusts a device that just passed step-up (or the first
// device) and refreshes a known one.
func (s *LoginService) recordDevice(ctx context.Context, tx store.Tx, att attempt, now time.Time) error {
	dev, err := tx.Devices().GetDevice(ctx, att.user.ID, att.deviceID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		dev = domain.Device{UserID: att.user.ID, DeviceID: att.deviceID, FirstSeenAt: now}
	default:
		return fmt.Errorf("load device: %w", err)
	}

	dev.Browser = att.meta.Browser
	dev.BrowserVersion = att.meta.BrowserVersion
	dev.OS = att.meta.OS
	dev.OSVersion = att.meta.OSVersion
	dev.DeviceType = att.meta.DeviceType
	dev.Vendor = att.meta.Vendor
	dev.LastSeenAt = now
	if att.ip != "" {
		dev.LastIP = att.ip
	}
	if att.trust {
		dev.Trusted = true
		if att.fingerprint != "" {
			dev.Fingerprint = att.fingerprint
		}
	}
	if err := tx.Devices().UpsertDevice(ctx, dev); err != nil {
		return fmt.Errorf("record device: %w", err)
	}
	return nil
}

func stepUpResponse(status authsdk.LoginStatus, challengeID string) authsdk.LoginResponse {
	d, _ := authsdk.Details(status)
	return authsdk.LoginResponse{
		Status:      status,
		Message:     d.Message,
		Explanation: d.Explanation,
		ChallengeID: challengeID,
	}
}

// withParsedMetadata fills blank metadata fields from the user agent.
func withParsedMetadata(m authsdk.DeviceMetadata, ua string) authsdk.DeviceMetadata {
	if ua == "" || (m.Browser != "" && m.OS != "" && m.DeviceType != "") {
		return m
	}
	info := deviceid.ParseUserAgent(ua)
	if m.Browser == "" {
		m.Browser, m.BrowserVersion = info.Browser.Name, info.Browser.Version
	}
	if m.OS == "" {
		m.OS, m.OSVersion = info.OS.Name, info.OS.Version
	}
	if m.DeviceType == "" {
		m.DeviceType = info.DeviceType
	}
	if m.Vendor == "" {
		m.Vendor = info.Vendor
	}
	m.UserAgent = ua
	return m
}
