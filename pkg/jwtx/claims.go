package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scopes carried by tokens the auth server issues.
const (
	// ScopeSelf is granted to a normal session token: heartbeat, logout and
	// terminating the holder's other sessions.
	ScopeSelf = "sessions:self"

	// ScopeResolve is the only scope of a resolution token. It allows
	// terminate-others for the subject and nothing else.
	ScopeResolve = "sessions:resolve"

	// ScopeAdmin allows listing and terminating any session and flagging
	// users for step-up.
	ScopeAdmin = "sessions:admin"
)

// Authentication method references.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
)

// Claims are the session and resolution token claims.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID. Empty on resolution tokens.
	SID string `json:"sid,omitempty"`

	// Device the session was opened from.
	DeviceID string `json:"did,omitempty"`

	Scopes []string `json:"scopes,omitempty"`

	// ["pwd"] or ["pwd","otp"] after step-up.
	AMR []string `json:"amr,omitempty"`
}

// TokenParams describes a token to mint.
type TokenParams struct {
	Subject   string
	SessionID string
	DeviceID  string
	Scopes    []string
	AMR       []string
	TTL       time.Duration
	Issuer    string
	Audience  []string
}

// NewClaims builds claims valid from now for p.TTL.
func NewClaims(p TokenParams, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   p.Subject,
			Audience:  jwt.ClaimStrings(p.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.TTL)),
			ID:        NewJTI(),
		},
		SID:      p.SessionID,
		DeviceID: p.DeviceID,
		Scopes:   p.Scopes,
		AMR:      p.AMR,
	}
}

// NewJTI returns a random URL-safe token identifier.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// HasScope reports whether scope was granted.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ValidateIssuer checks iss. An empty expectation accepts anything.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" || c.Issuer == expected {
		return nil
	}
	return ErrIssuer
}

// ValidateAudience passes when any expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}
	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// ValidateExpiry checks exp and nbf, allowing leeway for clock skew.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
