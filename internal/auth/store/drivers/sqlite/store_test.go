package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/internal/auth/store/drivers/sqlite"
	"github.com/seroft/pharmhub-auth/pkg/idx"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  "Test",
		PasswordHash: "hash",
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func newSession(userID, deviceID string, created time.Time) domain.Session {
	return domain.Session{
		ID:           idx.New().String(),
		UserID:       userID,
		DeviceID:     deviceID,
		IPAddress:    "10.0.0.1",
		UserAgent:    "test",
		IsActive:     true,
		CreatedAt:    created,
		LastActiveAt: created,
		ExpiresAt:    created.Add(12 * time.Hour),
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := seedUser(t, s, "amy@pharmhub.test")

	got, err := s.Users().GetUserByEmail(ctx, "amy@pharmhub.test")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.False(t, got.RequireOTP)
	require.True(t, got.CreatedAt.Equal(t0))

	dup := u
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	require.NoError(t, s.Users().SetRequireOTP(ctx, u.ID, true, t0.Add(time.Minute)))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.RequireOTP)

	require.ErrorIs(t, s.Users().SetRequireOTP(ctx, "nobody", true, t0), store.ErrNotFound)
	_, err = s.Users().GetUserByID(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDevices(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "bo@pharmhub.test")

	_, err := s.Devices().GetDevice(ctx, u.ID, "dev-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	d := domain.Device{UserID: u.ID, DeviceID: "dev-1", Fingerprint: "fp1", Browser: "Chrome", LastIP: "10.0.0.1", LastSeenAt: t0}
	require.NoError(t, s.Devices().UpsertDevice(ctx, d))

	d.Trusted = true
	d.LastIP = "10.0.0.2"
	d.LastSeenAt = t0.Add(time.Hour)
	require.NoError(t, s.Devices().UpsertDevice(ctx, d))

	got, err := s.Devices().GetDevice(ctx, u.ID, "dev-1")
	require.NoError(t, err)
	require.True(t, got.Trusted)
	require.Equal(t, "10.0.0.2", got.LastIP)
	require.True(t, got.FirstSeenAt.Equal(t0), "first seen is kept")
	require.True(t, got.LastSeenAt.Equal(t0.Add(time.Hour)))

	n, err := s.Devices().CountDevices(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, s.Devices().TouchDevice(ctx, u.ID, "dev-1", t0.Add(2*time.Hour)))
	require.ErrorIs(t, s.Devices().TouchDevice(ctx, u.ID, "dev-9", t0), store.ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "cy@pharmhub.test")

	a := newSession(u.ID, "dev-a", t0)
	b := newSession(u.ID, "dev-b", t0.Add(time.Minute))
	c := newSession(u.ID, "dev-c", t0.Add(2*time.Minute))
	for _, sess := range []domain.Session{a, b, c} {
		require.NoError(t, s.Sessions().CreateSession(ctx, sess))
	}

	active, err := s.Sessions().ListActiveSessions(ctx, u.ID, t0.Add(time.Hour), time.Time{})
	require.NoError(t, err)
	require.Len(t, active, 3)

	n, err := s.Sessions().EndOtherSessions(ctx, u.ID, b.ID, domain.EndTerminated, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = s.Sessions().EndOtherSessions(ctx, u.ID, b.ID, domain.EndTerminated, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, n, "second call has nothing left to end")

	got, err := s.Sessions().GetSession(ctx, a.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Equal(t, domain.EndTerminated, got.EndReason)
	require.NotNil(t, got.EndedAt)

	require.NoError(t, s.Sessions().TouchSession(ctx, b.ID, t0.Add(2*time.Hour)))
	require.ErrorIs(t, s.Sessions().TouchSession(ctx, a.ID, t0.Add(2*time.Hour)), store.ErrNotFound)

	require.NoError(t, s.Sessions().EndSession(ctx, b.ID, domain.EndLogout, t0.Add(3*time.Hour)))
	require.NoError(t, s.Sessions().EndSession(ctx, b.ID, domain.EndLogout, t0.Add(3*time.Hour)), "ending twice is a no-op")
	require.ErrorIs(t, s.Sessions().EndSession(ctx, "missing", domain.EndLogout, t0), store.ErrNotFound)

	count, err := s.Sessions().CountActiveSessions(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestEndDeviceSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "di@pharmhub.test")

	require.NoError(t, s.Sessions().CreateSession(ctx, newSession(u.ID, "dev-a", t0)))
	require.NoError(t, s.Sessions().CreateSession(ctx, newSession(u.ID, "dev-b", t0)))

	n, err := s.Sessions().EndDeviceSessions(ctx, u.ID, "dev-a", domain.EndReplaced, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	active, err := s.Sessions().ListActiveSessions(ctx, u.ID, t0.Add(time.Minute), time.Time{})
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "dev-b", active[0].DeviceID)
}

func TestListActiveSessionsSkipsIdle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "id@pharmhub.test")

	stale := newSession(u.ID, "dev-a", t0)
	fresh := newSession(u.ID, "dev-b", t0)
	require.NoError(t, s.Sessions().CreateSession(ctx, stale))
	require.NoError(t, s.Sessions().CreateSession(ctx, fresh))
	require.NoError(t, s.Sessions().TouchSession(ctx, fresh.ID, t0.Add(40*time.Minute)))

	now := t0.Add(45 * time.Minute)
	active, err := s.Sessions().ListActiveSessions(ctx, u.ID, now, now.Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, fresh.ID, active[0].ID)

	all, err := s.Sessions().ListActiveSessions(ctx, u.ID, now, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestListSessionsFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	u1 := seedUser(t, s, "u1@pharmhub.test")
	u2 := seedUser(t, s, "u2@pharmhub.test")

	mk := func(u domain.User, offset time.Duration, active, suspicious bool) domain.Session {
		sess := newSession(u.ID, "dev", t0.Add(offset))
		sess.IsSuspicious = suspicious
		require.NoError(t, s.Sessions().CreateSession(ctx, sess))
		if !active {
			require.NoError(t, s.Sessions().EndSession(ctx, sess.ID, domain.EndLogout, t0.Add(offset+time.Second)))
		}
		return sess
	}
	both := mk(u1, 0, true, true)
	mk(u1, time.Hour, true, false)
	mk(u2, 2*time.Hour, false, true)
	both2 := mk(u2, 3*time.Hour, true, true)

	yes := true
	no := false

	tests := []struct {
		name   string
		filter domain.SessionFilter
		want   int
	}{
		{"all", domain.SessionFilter{}, 4},
		{"active", domain.SessionFilter{Active: &yes}, 3},
		{"inactive", domain.SessionFilter{Active: &no}, 1},
		{"suspicious", domain.SessionFilter{Suspicious: &yes}, 3},
		{"active and suspicious", domain.SessionFilter{Active: &yes, Suspicious: &yes}, 2},
		{"user", domain.SessionFilter{UserID: u2.ID}, 2},
		{"from", domain.SessionFilter{From: t0.Add(90 * time.Minute)}, 2},
		{"to", domain.SessionFilter{To: t0.Add(90 * time.Minute)}, 2},
		{"window", domain.SessionFilter{From: t0.Add(30 * time.Minute), To: t0.Add(150 * time.Minute)}, 2},
		{"limit", domain.SessionFilter{Limit: 1}, 1},
	}
	for _, tt := range tests {
		got, err := s.Sessions().ListSessions(ctx, tt.filter)
		require.NoError(t, err, tt.name)
		require.Len(t, got, tt.want, tt.name)
	}

	got, err := s.Sessions().ListSessions(ctx, domain.SessionFilter{Active: &yes, Suspicious: &yes})
	require.NoError(t, err)
	require.Equal(t, []string{both2.ID, both.ID}, []string{got[0].ID, got[1].ID}, "most recently active first")
}

func TestExpireAndDeleteSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "ed@pharmhub.test")

	idle := newSession(u.ID, "dev-idle", t0)
	expired := newSession(u.ID, "dev-exp", t0)
	expired.LastActiveAt = t0.Add(11 * time.Hour)
	expired.ExpiresAt = t0.Add(time.Hour)
	fresh := newSession(u.ID, "dev-fresh", t0)
	fresh.LastActiveAt = t0.Add(11 * time.Hour)
	for _, sess := range []domain.Session{idle, expired, fresh} {
		require.NoError(t, s.Sessions().CreateSession(ctx, sess))
	}

	now := t0.Add(11*time.Hour + 30*time.Minute)
	n, err := s.Sessions().ExpireSessions(ctx, now.Add(-time.Hour), now)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := s.Sessions().GetSession(ctx, idle.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EndIdle, got.EndReason)
	got, err = s.Sessions().GetSession(ctx, expired.ID)
	require.NoError(t, err)
	require.Equal(t, domain.EndExpired, got.EndReason)
	got, err = s.Sessions().GetSession(ctx, fresh.ID)
	require.NoError(t, err)
	require.True(t, got.IsActive)

	deleted, err := s.Sessions().DeleteEndedSessions(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 2, deleted)
	_, err = s.Sessions().GetSession(ctx, idle.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestChallenges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	u := seedUser(t, s, "fi@pharmhub.test")

	c := domain.Challenge{
		ID:        idx.New().String(),
		UserID:    u.ID,
		DeviceID:  "dev-1",
		Reason:    "NEW_DEVICE",
		Secret:    "JBSWY3DPEHPK3PXP",
		CreatedAt: t0,
		ExpiresAt: t0.Add(5 * time.Minute),
	}
	require.NoError(t, s.Challenges().CreateChallenge(ctx, c))

	got, err := s.Challenges().IncrementChallengeAttempts(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Attempts)
	require.Equal(t, c.Secret, got.Secret)

	_, err = s.Challenges().IncrementChallengeAttempts(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.Challenges().DeleteExpiredChallenges(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = s.Challenges().DeleteExpiredChallenges(ctx, t0.Add(5*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestWithTxRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
			ID: "u-tx", Email: "tx@pharmhub.test", DisplayName: "Tx", PasswordHash: "h", CreatedAt: t0, UpdatedAt: t0,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByID(ctx, "u-tx")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, domain.User{
			ID: "u-tx", Email: "tx@pharmhub.test", DisplayName: "Tx", PasswordHash: "h", CreatedAt: t0, UpdatedAt: t0,
		})
	}))
	_, err = s.Users().GetUserByID(ctx, "u-tx")
	require.NoError(t, err)
}
