package service

import (
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/pkg/jwtx"
)

const defaultResolutionTTL = 5 * time.Minute

// TokenService mints the two kinds of bearer token the server hands out.
type TokenService struct {
	KeyManager    *jwtx.KeyManager
	Issuer        string
	Audience      []string
	ResolutionTTL time.Duration
}

// IssueSession signs a token bound to sess that expires with it. It returns
// the token and its lifetime in seconds.
func (s *TokenService) IssueSession(u domain.User, sess domain.Session, amr []string, now time.Time) (string, int, error) {
	scopes := []string{jwtx.ScopeSelf}
	if u.IsAdmin {
		scopes = append(scopes, jwtx.ScopeAdmin)
	}
	ttl := sess.ExpiresAt.Sub(now)

	tok, err := s.KeyManager.Sign(jwtx.NewClaims(jwtx.TokenParams{
		Subject:   u.ID,
		SessionID: sess.ID,
		DeviceID:  sess.DeviceID,
		Scopes:    scopes,
		AMR:       amr,
		TTL:       ttl,
		Issuer:    s.Issuer,
		Audience:  s.Audience,
	}, now))
	if err != nil {
		return "", 0, err
	}
	return tok, int(ttl / time.Second), nil
}

// IssueResolution signs a short-lived token that only allows terminating
// userID's sessions.
func (s *TokenService) IssueResolution(userID, deviceID string, now time.Time) (string, error) {
	ttl := s.ResolutionTTL
	if ttl <= 0 {
		ttl = defaultResolutionTTL
	}
	return s.KeyManager.Sign(jwtx.NewClaims(jwtx.TokenParams{
		Subject:  userID,
		DeviceID: deviceID,
		Scopes:   []string{jwtx.ScopeResolve},
		AMR:      []string{jwtx.AMRPassword},
		TTL:      ttl,
		Issuer:   s.Issuer,
		Audience: s.Audience,
	}, now))
}
