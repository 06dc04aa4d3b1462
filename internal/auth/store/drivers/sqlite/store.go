package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/internal/auth/store/drivers/sqlite/gen"
)

// MemoryDSN opens a private in-memory database. Tests use it.
const MemoryDSN = ":memory:"

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

// NewStore opens the database at dsn, a file path (optionally with query
// parameters) or MemoryDSN. Foreign keys and a busy timeout are enabled on
// every connection.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", connString(dsn))
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is a different database.
	if dsn == MemoryDSN {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func connString(dsn string) string {
	const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	switch {
	case dsn == MemoryDSN:
		return dsn + "?" + pragmas
	case strings.Contains(dsn, "?"):
		return dsn + "&" + pragmas
	default:
		return dsn + "?" + pragmas + "&_pragma=journal_mode(WAL)"
	}
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users           { return &usersRepo{q: s.q} }
func (s *Store) Devices() store.Devices       { return &devicesRepo{q: s.q} }
func (s *Store) Sessions() store.Sessions     { return &sessionsRepo{q: s.q} }
func (s *Store) Challenges() store.Challenges { return &challengesRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func mapConstraint(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		}
	}
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

// Times are stored as text, so they must share one zone to compare.
func utc(t time.Time) time.Time { return t.UTC() }

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

func mapUser(row gen.User) domain.User {
	return domain.User{
		ID:           row.ID,
		Email:        row.Email,
		DisplayName:  row.DisplayName,
		PasswordHash: row.PasswordHash,
		IsAdmin:      row.IsAdmin,
		RequireOTP:   row.RequireOtp,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func mapDevice(row gen.Device) domain.Device {
	return domain.Device{
		UserID:         row.UserID,
		DeviceID:       row.DeviceID,
		Fingerprint:    row.Fingerprint,
		Browser:        row.Browser,
		BrowserVersion: row.BrowserVersion,
		OS:             row.Os,
		OSVersion:      row.OsVersion,
		DeviceType:     row.DeviceType,
		Vendor:         row.Vendor,
		LastIP:         row.LastIp,
		Trusted:        row.Trusted,
		FirstSeenAt:    row.FirstSeenAt,
		LastSeenAt:     row.LastSeenAt,
	}
}

func mapSession(row gen.Session) domain.Session {
	return domain.Session{
		ID:           row.ID,
		UserID:       row.UserID,
		DeviceID:     row.DeviceID,
		IPAddress:    row.IpAddress,
		UserAgent:    row.UserAgent,
		IsActive:     row.IsActive,
		IsSuspicious: row.IsSuspicious,
		CreatedAt:    row.CreatedAt,
		LastActiveAt: row.LastActiveAt,
		ExpiresAt:    row.ExpiresAt,
		EndedAt:      mapNullTimePtr(row.EndedAt),
		EndReason:    row.EndReason,
	}
}

func mapSessions(rows []gen.Session) []domain.Session {
	out := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapSession(row))
	}
	return out
}

func mapChallenge(row gen.Challenge) domain.Challenge {
	return domain.Challenge{
		ID:          row.ID,
		UserID:      row.UserID,
		DeviceID:    row.DeviceID,
		Reason:      row.Reason,
		Secret:      row.Secret,
		Attempts:    int(row.Attempts),
		IPAddress:   row.IpAddress,
		Fingerprint: row.Fingerprint,
		Suspicious:  row.Suspicious,
		CreatedAt:   row.CreatedAt,
		ExpiresAt:   row.ExpiresAt,
	}
}
