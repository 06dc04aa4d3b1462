package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/metrics"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/idx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

const (
	defaultChallengeTTL         = 10 * time.Minute
	defaultChallengeMaxAttempts = 5
)

// CodeSender delivers a step-up code to the user out of band.
type CodeSender interface {
	SendCode(ctx context.Context, u domain.User, c domain.Challenge, code string) error
}

// LogCodeSender writes codes to the log. Development and tests only.
type LogCodeSender struct {
	Logger *slog.Logger
}

func (s LogCodeSender) SendCode(ctx context.Context, u domain.User, c domain.Challenge, code string) error {
	l := s.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}
	l.Info("step-up code issued",
		slog.String("user_id", u.ID),
		slog.String("email", u.Email),
		slog.String("challenge_id", c.ID),
		slog.String("reason", c.Reason),
		slog.String("code", code),
	)
	return nil
}

// ChallengeParams is the login context a challenge is raised for.
type ChallengeParams struct {
	DeviceID    string
	Reason      authsdk.LoginStatus
	IPAddress   string
	Fingerprint string
	Suspicious  bool
}

// ChallengeService issues and checks step-up challenges. Each challenge
// gets its own TOTP secret and its code is the TOTP value at the moment
// the challenge was created, so a code is only good for that challenge.
type ChallengeService struct {
	Store       store.Store
	Sender      CodeSender
	Metrics     *metrics.Metrics
	Issuer      string
	TTL         time.Duration
	MaxAttempts int
}

func (s *ChallengeService) ttl() time.Duration {
	if s.TTL <= 0 {
		return defaultChallengeTTL
	}
	return s.TTL
}

func (s *ChallengeService) maxAttempts() int {
	if s.MaxAttempts <= 0 {
		return defaultChallengeMaxAttempts
	}
	return s.MaxAttempts
}

var codeOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      0,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Issue stores a new challenge for u and sends its code.
func (s *ChallengeService) Issue(ctx context.Context, u domain.User, p ChallengeParams, now time.Time) (domain.Challenge, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      codeOpts.Period,
		Digits:      codeOpts.Digits,
		Algorithm:   codeOpts.Algorithm,
	})
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("generate challenge secret: %w", err)
	}

	now = now.UTC()
	c := domain.Challenge{
		ID:          idx.NewAt(now).String(),
		UserID:      u.ID,
		DeviceID:    p.DeviceID,
		Reason:      string(p.Reason),
		Secret:      key.Secret(),
		IPAddress:   p.IPAddress,
		Fingerprint: p.Fingerprint,
		Suspicious:  p.Suspicious,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl()),
	}
	if err := s.Store.Challenges().CreateChallenge(ctx, c); err != nil {
		return domain.Challenge{}, fmt.Errorf("store challenge: %w", err)
	}

	code, err := totp.GenerateCodeCustom(c.Secret, c.CreatedAt, codeOpts)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("generate challenge code: %w", err)
	}
	if err := s.Sender.SendCode(ctx, u, c, code); err != nil {
		_ = s.Store.Challenges().DeleteChallenge(ctx, c.ID)
		return domain.Challenge{}, fmt.Errorf("send challenge code: %w", err)
	}

	s.Metrics.IncrementChallengeIssued(c.Reason)
	return c, nil
}

// Verify checks code against the challenge. On success the challenge is
// returned and left in place for the caller to consume. A wrong code
// returns the challenge with ErrInvalidCode, or ErrChallengeExhausted once
// the attempt budget is spent.
func (s *ChallengeService) Verify(ctx context.Context, u domain.User, deviceID, challengeID, code string, now time.Time) (domain.Challenge, error) {
	c, err := s.Store.Challenges().GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Challenge{}, ErrInvalidChallenge
		}
		return domain.Challenge{}, err
	}
	if c.UserID != u.ID || c.DeviceID != deviceID {
		return domain.Challenge{}, ErrInvalidChallenge
	}
	if !now.Before(c.ExpiresAt) {
		_ = s.Store.Challenges().DeleteChallenge(ctx, c.ID)
		return domain.Challenge{}, ErrInvalidChallenge
	}
	if c.Attempts >= s.maxAttempts() {
		_ = s.Store.Challenges().DeleteChallenge(ctx, c.ID)
		return c, ErrChallengeExhausted
	}

	ok, err := totp.ValidateCustom(strings.TrimSpace(code), c.Secret, c.CreatedAt, codeOpts)
	if err == nil && ok {
		return c, nil
	}

	s.Metrics.IncrementChallengeFailure()
	c, err = s.Store.Challenges().IncrementChallengeAttempts(ctx, c.ID)
	if err != nil {
		return domain.Challenge{}, err
	}
	if c.Attempts >= s.maxAttempts() {
		_ = s.Store.Challenges().DeleteChallenge(ctx, c.ID)
		return c, ErrChallengeExhausted
	}
	return c, ErrInvalidCode
}
