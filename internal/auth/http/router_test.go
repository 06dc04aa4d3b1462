package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	httpapi "github.com/seroft/pharmhub-auth/internal/auth/http"
	"github.com/seroft/pharmhub-auth/internal/auth/metrics"
	"github.com/seroft/pharmhub-auth/internal/auth/service"
	"github.com/seroft/pharmhub-auth/internal/auth/store/drivers/sqlite"
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/cryptox"
	"github.com/seroft/pharmhub-auth/pkg/jwtx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

const (
	testPassword   = "correct horse battery"
	bootstrapToken = "test-bootstrap-token"

	chromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

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

type testServer struct {
	url    string
	client *authsdk.SDKClient
	sender *captureSender
	users  *service.UserService
}

type serverOpts struct {
	trustFirstDevice bool
	bootstrapToken   string
	maxDevices       int
}

func newTestServer(t *testing.T, opts serverOpts) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{Issuer: "pharmhub-test", NumKeys: 1})
	require.NoError(t, err)

	hasher, err := cryptox.NewHasher("test-pepper")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	sender := &captureSender{}
	users := &service.UserService{Store: st, Hasher: hasher}

	router := httpapi.NewRouter(km, "test", st, slogx.Discard())
	router.Gatherer = reg
	router.UserService = users
	router.LoginService = &service.LoginService{
		Store:  st,
		Hasher: hasher,
		Tokens: &service.TokenService{KeyManager: km, Issuer: "pharmhub-test"},
		Challenges: &service.ChallengeService{
			Store:   st,
			Sender:  sender,
			Metrics: m,
			Issuer:  "PharmHub",
		},
		Risk:       service.DefaultRiskRules{TrustFirstDevice: opts.trustFirstDevice},
		Metrics:    m,
		MaxDevices: opts.maxDevices,
	}
	router.SessionService = &service.SessionService{Store: st, Metrics: m}
	router.BootstrapService = &service.BootstrapService{Store: st, Users: users, Token: opts.bootstrapToken}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{
		url:    srv.URL,
		client: authsdk.NewSDKClient(srv.URL),
		sender: sender,
		users:  users,
	}
}

func (s *testServer) createUser(t *testing.T, email string, admin bool) domain.User {
	t.Helper()
	u, err := s.users.CreateUser(context.Background(), service.NewUser{
		Email:    email,
		Password: testPassword,
		Admin:    admin,
	})
	require.NoError(t, err)
	return u
}

func (s *testServer) login(t *testing.T, email, deviceID string) *authsdk.LoginResponse {
	t.Helper()
	resp, err := s.client.Login(t.Context(), authsdk.LoginRequest{
		EmailAddress:   email,
		Password:       testPassword,
		DeviceID:       deviceID,
		DeviceMetadata: authsdk.DeviceMetadata{UserAgent: chromeWindows},
	})
	require.NoError(t, err)
	return resp
}

// answer resubmits the login with the code sent for challengeID.
func (s *testServer) answer(t *testing.T, email, deviceID, challengeID string) *authsdk.LoginResponse {
	t.Helper()
	resp, err := s.client.Login(t.Context(), authsdk.LoginRequest{
		EmailAddress:   email,
		Password:       testPassword,
		DeviceID:       deviceID,
		DeviceMetadata: authsdk.DeviceMetadata{UserAgent: chromeWindows},
		ChallengeID:    challengeID,
		Code:           s.sender.code(t, challengeID),
	})
	require.NoError(t, err)
	return resp
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, s.url+path, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("first device is trusted", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, serverOpts{trustFirstDevice: true})
		u := s.createUser(t, "pharmacist@example.com", false)

		resp := s.login(t, "pharmacist@example.com", "device-a")
		require.Equal(t, authsdk.StatusOK, resp.Status)
		require.NotEmpty(t, resp.Token)
		require.NotEmpty(t, resp.SessionID)
		require.Equal(t, u.ID, resp.UserID)
		require.Positive(t, resp.ExpiresIn)

		require.NoError(t, s.client.WithBearer(resp.Token).Heartbeat(t.Context()))
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, serverOpts{trustFirstDevice: true})
		s.createUser(t, "pharmacist@example.com", false)

		_, err := s.client.Login(t.Context(), authsdk.LoginRequest{
			EmailAddress: "pharmacist@example.com",
			Password:     "not the password",
			DeviceID:     "device-a",
		})
		require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(err))
	})

	t.Run("malformed request lists fields", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, serverOpts{})

		resp := s.do(t, http.MethodPost, "/login", "", `{"emailAddress":"a@example.com"}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `"password"`)
		require.Contains(t, string(body), `"deviceId"`)

		resp = s.do(t, http.MethodPost, "/login", "", `{not json`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("device limit is 403 max_devices_reached", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, serverOpts{trustFirstDevice: true, maxDevices: 1})
		s.createUser(t, "pharmacist@example.com", false)
		require.Equal(t, authsdk.StatusOK, s.login(t, "pharmacist@example.com", "device-a").Status)

		_, err := s.client.Login(t.Context(), authsdk.LoginRequest{
			EmailAddress: "pharmacist@example.com",
			Password:     testPassword,
			DeviceID:     "device-b",
		})
		require.Equal(t, http.StatusForbidden, authsdk.StatusCode(err))
		require.True(t, authsdk.HasCode(err, authsdk.ErrorCodeMaxDevices))
		d, ok := authsdk.ErrorDetails(err)
		require.True(t, ok)
		require.Equal(t, "SESS_006", d.Code)
	})

	t.Run("new device steps up", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, serverOpts{})
		s.createUser(t, "pharmacist@example.com", false)

		resp := s.login(t, "pharmacist@example.com", "device-a")
		require.Equal(t, authsdk.StatusNewDevice, resp.Status)
		require.NotEmpty(t, resp.ChallengeID)
		require.Empty(t, resp.Token)

		resp = s.answer(t, "pharmacist@example.com", "device-a", resp.ChallengeID)
		require.Equal(t, authsdk.StatusOK, resp.Status)
		require.NotEmpty(t, resp.Token)
	})
}

func TestTooManyDevicesResolution(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOpts{trustFirstDevice: true})
	u := s.createUser(t, "pharmacist@example.com", false)
	other := s.createUser(t, "other@example.com", false)

	first := s.login(t, "pharmacist@example.com", "device-a")
	require.Equal(t, authsdk.StatusOK, first.Status)
	sessionA := s.client.WithBearer(first.Token)

	step := s.login(t, "pharmacist@example.com", "device-b")
	require.Equal(t, authsdk.StatusNewDevice, step.Status)

	conflict := s.answer(t, "pharmacist@example.com", "device-b", step.ChallengeID)
	require.Equal(t, authsdk.StatusTooManyDevices, conflict.Status)
	require.NotEmpty(t, conflict.ResolutionToken)
	require.Equal(t, u.ID, conflict.UserID)

	resolver := s.client.WithBearer(conflict.ResolutionToken)

	// The resolution token reaches nothing but terminate-others for its user.
	err := resolver.Heartbeat(t.Context())
	require.Equal(t, http.StatusForbidden, authsdk.StatusCode(err))
	_, err = resolver.TerminateOtherSessions(t.Context(), other.ID, "")
	require.Equal(t, http.StatusForbidden, authsdk.StatusCode(err))
	_, err = resolver.ListUserSessions(t.Context(), u.ID, authsdk.SessionQuery{})
	require.Equal(t, http.StatusForbidden, authsdk.StatusCode(err))

	out, err := resolver.TerminateOtherSessions(t.Context(), u.ID, "")
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Equal(t, 1, out.Terminated)

	out, err = resolver.TerminateOtherSessions(t.Context(), u.ID, "")
	require.NoError(t, err)
	require.True(t, out.Success)
	require.Zero(t, out.Terminated)

	err = sessionA.Heartbeat(t.Context())
	require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(err))
	require.True(t, authsdk.HasCode(err, authsdk.ErrorCodeSessionTerminated))
	d, ok := authsdk.ErrorDetails(err)
	require.True(t, ok)
	require.Equal(t, "SESS_003", d.Code)

	// Device B was verified by the answered challenge.
	retry := s.login(t, "pharmacist@example.com", "device-b")
	require.Equal(t, authsdk.StatusOK, retry.Status)
	require.NoError(t, s.client.WithBearer(retry.Token).Heartbeat(t.Context()))
}

func TestTerminateOthersWithSessionToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOpts{trustFirstDevice: true})
	u := s.createUser(t, "pharmacist@example.com", false)

	resp := s.login(t, "pharmacist@example.com", "device-a")
	require.Equal(t, authsdk.StatusOK, resp.Status)
	own := s.client.WithBearer(resp.Token)

	out, err := own.TerminateOtherSessions(t.Context(), u.ID, "")
	require.NoError(t, err)
	require.Zero(t, out.Terminated)
	require.Equal(t, "There were no other active sessions.", out.Message)

	// The caller's own session survives.
	require.NoError(t, own.Heartbeat(t.Context()))

	_, err = own.TerminateOtherSessions(t.Context(), "no-such-user", "")
	require.Equal(t, http.StatusForbidden, authsdk.StatusCode(err))
}

func TestLogoutEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOpts{trustFirstDevice: true})
	s.createUser(t, "pharmacist@example.com", false)

	resp := s.login(t, "pharmacist@example.com", "device-a")
	sess := s.client.WithBearer(resp.Token)

	require.NoError(t, sess.Logout(t.Context()))
	err := sess.Heartbeat(t.Context())
	require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(err))
	require.True(t, authsdk.HasCode(err, authsdk.ErrorCodeInvalidToken), "logout is not reported as terminated")
	require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(sess.Logout(t.Context())))

	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/logout", "", "").StatusCode)
	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/logout", "garbage", "").StatusCode)

	// Logging out keeps the device trusted.
	again := s.login(t, "pharmacist@example.com", "device-a")
	require.Equal(t, authsdk.StatusOK, again.Status)
}

func TestAdminEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOpts{trustFirstDevice: true})
	s.createUser(t, "admin@example.com", true)

	adminLogin := s.login(t, "admin@example.com", "admin-device")
	require.Equal(t, authsdk.StatusOK, adminLogin.Status)
	admin := s.client.WithBearer(adminLogin.Token)

	created, err := admin.CreateUser(t.Context(), authsdk.CreateUserRequest{
		EmailAddress: "pharmacist@example.com",
		Password:     testPassword,
		DisplayName:  "Pat",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.UserID)
	require.False(t, created.Admin)

	_, err = admin.CreateUser(t.Context(), authsdk.CreateUserRequest{
		EmailAddress: "pharmacist@example.com",
		Password:     testPassword,
	})
	require.Equal(t, http.StatusConflict, authsdk.StatusCode(err))

	_, err = admin.CreateUser(t.Context(), authsdk.CreateUserRequest{EmailAddress: "bad", Password: "short"})
	require.Equal(t, http.StatusBadRequest, authsdk.StatusCode(err))

	userLogin := s.login(t, "pharmacist@example.com", "device-a")
	require.Equal(t, authsdk.StatusOK, userLogin.Status)
	user := s.client.WithBearer(userLogin.Token)

	t.Run("non-admin is forbidden", func(t *testing.T) {
		_, err := user.ListSessions(t.Context(), authsdk.SessionQuery{})
		require.Equal(t, http.StatusForbidden, authsdk.StatusCode(err))
		require.Equal(t, http.StatusForbidden, authsdk.StatusCode(user.RequireOTP(t.Context(), created.UserID)))
	})

	t.Run("list filters", func(t *testing.T) {
		active := true
		all, err := admin.ListSessions(t.Context(), authsdk.SessionQuery{Active: &active})
		require.NoError(t, err)
		require.Len(t, all, 2)

		mine, err := admin.ListSessions(t.Context(), authsdk.SessionQuery{UserID: created.UserID})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		require.Equal(t, userLogin.SessionID, mine[0].SessionID)
		require.Equal(t, "device-a", mine[0].DeviceID)

		suspicious := true
		none, err := admin.ListSessions(t.Context(), authsdk.SessionQuery{Suspicious: &suspicious})
		require.NoError(t, err)
		require.NotNil(t, none)
		require.Empty(t, none)

		future, err := admin.ListSessions(t.Context(), authsdk.SessionQuery{From: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		require.Empty(t, future)

		resp := s.do(t, http.MethodGet, "/sessions?active=maybe", adminLogin.Token, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("terminate and require otp", func(t *testing.T) {
		require.Equal(t, http.StatusNotFound, authsdk.StatusCode(admin.TerminateSession(t.Context(), "no-such-session")))
		require.Equal(t, http.StatusNotFound, authsdk.StatusCode(admin.RequireOTP(t.Context(), "no-such-user")))

		require.NoError(t, admin.TerminateSession(t.Context(), userLogin.SessionID))
		require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(user.Heartbeat(t.Context())))

		require.NoError(t, admin.RequireOTP(t.Context(), created.UserID))
		resp := s.login(t, "pharmacist@example.com", "device-a")
		require.Equal(t, authsdk.StatusOTPRequired, resp.Status)

		resp = s.answer(t, "pharmacist@example.com", "device-a", resp.ChallengeID)
		require.Equal(t, authsdk.StatusOK, resp.Status)
	})
}

func TestUserSessionsEndpoint(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOpts{trustFirstDevice: true})
	u := s.createUser(t, "pharmacist@example.com", false)
	other := s.createUser(t, "other@example.com", false)
	s.createUser(t, "admin@example.com", true)

	own := s.login(t, "pharmacist@example.com", "device-a")
	require.Equal(t, authsdk.StatusOK, own.Status)
	otherLogin := s.login(t, "other@example.com", "device-x")
	adminLogin := s.login(t, "admin@example.com", "admin-device")

	user := s.client.WithBearer(own.Token)

	t.Run("user sees their own sessions", func(t *testing.T) {
		active := true
		got, err := user.ListUserSessions(t.Context(), u.ID, authsdk.SessionQuery{Active: &active})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, own.SessionID, got[0].SessionID)
		require.Equal(t, "device-a", got[0].DeviceID)
	})

	t.Run("query cannot widen to another user", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/users/"+u.ID+"/sessions?userId="+other.ID, own.Token, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NotContains(t, string(body), otherLogin.SessionID)
	})

	t.Run("another user's sessions are forbidden", func(t *testing.T) {
		_, err := user.ListUserSessions(t.Context(), other.ID, authsdk.SessionQuery{})
		require.Equal(t, http.StatusForbidden, authsdk.StatusCode(err))
	})

	t.Run("admin may list anyone", func(t *testing.T) {
		got, err := s.client.WithBearer(adminLogin.Token).ListUserSessions(t.Context(), other.ID, authsdk.SessionQuery{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, otherLogin.SessionID, got[0].SessionID)
	})

	t.Run("bad filter", func(t *testing.T) {
		resp := s.do(t, http.MethodGet, "/users/"+u.ID+"/sessions?active=maybe", own.Token, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("anonymous is 401", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/users/"+u.ID+"/sessions", "", "").StatusCode)
	})
}

func TestBootstrapEndpoint(t *testing.T) {
	t.Parallel()

	req := authsdk.BootstrapRequest{
		EmailAddress: "admin@example.com",
		Password:     testPassword,
		DisplayName:  "Administrator",
	}

	t.Run("disabled without token", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, serverOpts{})
		_, err := s.client.Bootstrap(t.Context(), "anything", req)
		require.Equal(t, http.StatusNotFound, authsdk.StatusCode(err))
	})

	t.Run("once with the right token", func(t *testing.T) {
		t.Parallel()
		s := newTestServer(t, serverOpts{bootstrapToken: bootstrapToken, trustFirstDevice: true})

		resp := s.do(t, http.MethodPost, "/bootstrap", "", `{}`)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		_, err := s.client.Bootstrap(t.Context(), "wrong-token", req)
		require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(err))

		u, err := s.client.Bootstrap(t.Context(), bootstrapToken, req)
		require.NoError(t, err)
		require.True(t, u.Admin)
		require.Equal(t, "admin@example.com", u.EmailAddress)

		_, err = s.client.Bootstrap(t.Context(), bootstrapToken, req)
		require.Equal(t, http.StatusUnauthorized, authsdk.StatusCode(err))

		login := s.login(t, "admin@example.com", "admin-device")
		require.Equal(t, authsdk.StatusOK, login.Status)
		_, err = s.client.WithBearer(login.Token).ListSessions(t.Context(), authsdk.SessionQuery{})
		require.NoError(t, err)
	})
}

func TestSystemEndpoints(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, serverOpts{trustFirstDevice: true})
	s.createUser(t, "pharmacist@example.com", false)

	live, err := s.client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := s.client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, map[string]string{"database": "ok", "signer": "ok"}, ready.Checks)

	s.login(t, "pharmacist@example.com", "device-a")

	resp := s.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `pharmhub_login_outcomes_total{outcome="OK"} 1`)

	resp = s.do(t, http.MethodGet, "/swagger/doc.json", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
