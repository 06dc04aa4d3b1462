package store

import (
	"context"
	"errors"
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Sub-repositories are reached
// through methods so a Tx can hand out the same repos bound to the
// transaction, and so nobody opens a transaction inside a transaction.
type Store interface {
	Users() Users
	Devices() Devices
	Sessions() Sessions
	Challenges() Challenges

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or
	// Rollback the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already lower-cased address.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	SetRequireOTP(ctx context.Context, userID string, require bool, at time.Time) error

	IsEmpty(ctx context.Context) (bool, error)
}

type Devices interface {
	GetDevice(ctx context.Context, userID, deviceID string) (domain.Device, error)

	// UpsertDevice inserts the device or refreshes its metadata, fingerprint,
	// address, trust and last-seen time.
	UpsertDevice(ctx context.Context, d domain.Device) error

	// TouchDevice bumps last_seen_at only.
	TouchDevice(ctx context.Context, userID, deviceID string, at time.Time) error

	CountDevices(ctx context.Context, userID string) (int, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// ListSessions returns matching sessions, most recently active first.
	ListSessions(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error)

	// ListActiveSessions returns a user's active sessions not yet expired
	// at now and used at or after idleSince.
	ListActiveSessions(ctx context.Context, userID string, now, idleSince time.Time) ([]domain.Session, error)

	// TouchSession bumps last_active_at of an active session.
	TouchSession(ctx context.Context, id string, at time.Time) error

	// EndSession deactivates one session. ErrNotFound when it does not
	// exist; ending an inactive session is a no-op.
	EndSession(ctx context.Context, id, reason string, at time.Time) error

	// EndOtherSessions deactivates every active session of userID except
	// keepID and reports how many were ended.
	EndOtherSessions(ctx context.Context, userID, keepID, reason string, at time.Time) (int, error)

	// EndDeviceSessions deactivates the active sessions of one device.
	EndDeviceSessions(ctx context.Context, userID, deviceID, reason string, at time.Time) (int, error)

	// ExpireSessions deactivates sessions idle since idleBefore or past
	// their expiry at now.
	ExpireSessions(ctx context.Context, idleBefore, now time.Time) (int, error)

	// DeleteEndedSessions removes inactive sessions that ended before t.
	DeleteEndedSessions(ctx context.Context, before time.Time) (int, error)

	CountActiveSessions(ctx context.Context) (int, error)
}

type Challenges interface {
	CreateChallenge(ctx context.Context, c domain.Challenge) error
	GetChallenge(ctx context.Context, id string) (domain.Challenge, error)

	// IncrementChallengeAttempts records a wrong code and returns the
	// updated challenge.
	IncrementChallengeAttempts(ctx context.Context, id string) (domain.Challenge, error)

	DeleteChallenge(ctx context.Context, id string) error
	DeleteExpiredChallenges(ctx context.Context, now time.Time) (int, error)
}
