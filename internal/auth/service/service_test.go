package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/store/drivers/sqlite"
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/cryptox"
	"github.com/seroft/pharmhub-auth/pkg/deviceid"
	"github.com/seroft/pharmhub-auth/pkg/jwtx"
)

const (
	testIssuer   = "https://auth.pharmhub.test"
	testPassword = "correct horse battery"

	chromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	firefoxLinux  = "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// captureSender keeps every code it is asked to deliver.
type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *captureSender) SendCode(_ context.Context, _ domain.User, c domain.Challenge, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = map[string]string{}
	}
	s.codes[c.ID] = code
	return nil
}

func (s *captureSender) code(t *testing.T, challengeID string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[challengeID]
	require.True(t, ok, "no code sent for challenge %s", challengeID)
	return code
}

type fixture struct {
	store      *sqlite.Store
	clock      *testClock
	km         *jwtx.KeyManager
	sender     *captureSender
	users      *UserService
	sessions   *SessionService
	challenges *ChallengeService
	login      *LoginService
}

type fixtureOpts struct {
	trustFirstDevice bool
	maxActive        int
	maxAttempts      int
	maxDevices       int
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := &testClock{t: t0}
	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:        testIssuer,
		NumKeys:       1,
		VerifyOptions: jwtx.VerifyOptions{Now: clock.Now},
	})
	require.NoError(t, err)

	hasher, err := cryptox.NewHasher("test-pepper")
	require.NoError(t, err)

	sender := &captureSender{}
	challenges := &ChallengeService{
		Store:       st,
		Sender:      sender,
		Issuer:      "PharmHub",
		TTL:         10 * time.Minute,
		MaxAttempts: opts.maxAttempts,
	}
	f := &fixture{
		store:      st,
		clock:      clock,
		km:         km,
		sender:     sender,
		challenges: challenges,
		users:      &UserService{Store: st, Hasher: hasher},
		sessions: &SessionService{
			Store:       st,
			IdleTimeout: 30 * time.Minute,
			Now:         clock.Now,
		},
	}
	f.login = &LoginService{
		Store:      st,
		Hasher:     hasher,
		Tokens:     &TokenService{KeyManager: km, Issuer: testIssuer},
		Challenges: challenges,
		Risk:       DefaultRiskRules{TrustFirstDevice: opts.trustFirstDevice},
		SessionTTL: 12 * time.Hour,

		MaxActiveSessions: opts.maxActive,
		IdleTimeout:       30 * time.Minute,
		MaxDevices:        opts.maxDevices,
		Now:               clock.Now,
	}
	return f
}

func (f *fixture) createUser(t *testing.T, email string, admin bool) domain.User {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), NewUser{
		Email:       email,
		Password:    testPassword,
		DisplayName: "Test User",
		Admin:       admin,
	})
	require.NoError(t, err)
	return u
}

// trustDevice records deviceID as verified for u from ip with ua.
func (f *fixture) trustDevice(t *testing.T, u domain.User, deviceID, ip, ua string) {
	t.Helper()
	require.NoError(t, f.store.Devices().UpsertDevice(context.Background(), domain.Device{
		UserID:      u.ID,
		DeviceID:    deviceID,
		Fingerprint: deviceid.Fingerprint(ua),
		LastIP:      ip,
		Trusted:     true,
		LastSeenAt:  f.clock.Now(),
	}))
}

func loginInput(email, deviceID, ip, ua string) LoginInput {
	return LoginInput{
		Email:     email,
		Password:  testPassword,
		DeviceID:  deviceID,
		Metadata:  authsdk.DeviceMetadata{UserAgent: ua},
		IPAddress: ip,
	}
}

func (f *fixture) mustLogin(t *testing.T, in LoginInput) authsdk.LoginResponse {
	t.Helper()
	resp, err := f.login.Login(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, resp.Check())
	return resp
}

func (f *fixture) activeSessions(t *testing.T, userID string) []domain.Session {
	t.Helper()
	out, err := f.store.Sessions().ListActiveSessions(context.Background(), userID, f.clock.Now(), time.Time{})
	require.NoError(t, err)
	return out
}
