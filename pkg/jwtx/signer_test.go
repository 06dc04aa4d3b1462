package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/seroft/pharmhub-auth/pkg/cryptox"
	"github.com/seroft/pharmhub-auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://auth.pharmhub.test"

func newSigner(t *testing.T, kid string) *jwtx.EdDSASigner {
	t.Helper()
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	s, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	return s
}

func sessionClaims(now time.Time) jwtx.Claims {
	return jwtx.NewClaims(jwtx.TokenParams{
		Subject:   "user-456",
		SessionID: "sess-1",
		DeviceID:  "8d1f5c0e-2f0a-4a0b-9a55-0d8a3c1c6b71",
		Scopes:    []string{jwtx.ScopeSelf},
		AMR:       []string{jwtx.AMRPassword, jwtx.AMROTP},
		TTL:       5 * time.Minute,
		Issuer:    testIssuer,
		Audience:  []string{"pharmhub"},
	}, now)
}

func TestEdDSASignAndVerify(t *testing.T) {
	t.Parallel()

	s := newSigner(t, "k1")
	require.Equal(t, "EdDSA", s.Alg())
	require.Equal(t, "k1", s.KID())

	claims := sessionClaims(time.Now().UTC())
	token, err := s.Sign(claims)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(s))

	v := jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{Issuer: testIssuer, Audience: []string{"pharmhub"}})
	got, err := v.Verify(token)
	require.NoError(t, err)

	require.Equal(t, claims.Subject, got.Subject)
	require.Equal(t, claims.SID, got.SID)
	require.Equal(t, claims.DeviceID, got.DeviceID)
	require.Equal(t, claims.Scopes, got.Scopes)
	require.Equal(t, claims.AMR, got.AMR)
	require.Equal(t, claims.ID, got.ID)
}

func TestEdDSAVerifyRejects(t *testing.T) {
	t.Parallel()

	s := newSigner(t, "k1")
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(s))
	now := time.Now().UTC()

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()
		token, err := s.Sign(sessionClaims(now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{Issuer: "other"}).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		t.Parallel()
		token, err := s.Sign(sessionClaims(now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{Audience: []string{"exam"}}).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		token, err := s.Sign(sessionClaims(now.Add(-time.Hour)))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{}).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("clock override", func(t *testing.T) {
		t.Parallel()
		token, err := s.Sign(sessionClaims(now))
		require.NoError(t, err)
		v := jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{Now: func() time.Time { return now.Add(time.Hour) }})
		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("unknown kid", func(t *testing.T) {
		t.Parallel()
		token, err := newSigner(t, "stranger").Sign(sessionClaims(now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{}).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})

	t.Run("forged signature", func(t *testing.T) {
		t.Parallel()
		// Same kid, different key.
		token, err := newSigner(t, "k1").Sign(sessionClaims(now))
		require.NoError(t, err)
		_, err = jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{}).Verify(token)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{}).Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("tampered payload", func(t *testing.T) {
		t.Parallel()
		token, err := s.Sign(sessionClaims(now))
		require.NoError(t, err)
		parts := strings.Split(token, ".")
		parts[1] = parts[1][:len(parts[1])-2] + "AA"
		_, err = jwtx.NewVerifierEdDSA(keys, jwtx.VerifyOptions{}).Verify(strings.Join(parts, "."))
		require.Error(t, err)
	})
}

func TestNewSignerEdDSAInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewSignerEdDSA("k", []byte("not pem"))
	require.Error(t, err)

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	_, err = jwtx.NewSignerEdDSA("", pemKey)
	require.Error(t, err)
}
