// Queries from ../queries/sessions.sql.

package gen

import (
	"context"
	"database/sql"
	"time"
)

const countActiveSessions = `-- name: CountActiveSessions :one
SELECT COUNT(*) FROM sessions WHERE is_active = 1
`

func (q *Queries) CountActiveSessions(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countActiveSessions)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createSession = `-- name: CreateSession :exec
INSERT INTO sessions (id, user_id, device_id, ip_address, user_agent, is_active, is_suspicious, created_at, last_active_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateSessionParams struct {
	ID           string
	UserID       string
	DeviceID     string
	IpAddress    string
	UserAgent    string
	IsActive     bool
	IsSuspicious bool
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession,
		arg.ID,
		arg.UserID,
		arg.DeviceID,
		arg.IpAddress,
		arg.UserAgent,
		arg.IsActive,
		arg.IsSuspicious,
		arg.CreatedAt,
		arg.LastActiveAt,
		arg.ExpiresAt,
	)
	return err
}

const deleteEndedSessions = `-- name: DeleteEndedSessions :execrows
DELETE FROM sessions
WHERE is_active = 0 AND ended_at < ?
`

func (q *Queries) DeleteEndedSessions(ctx context.Context, endedAt sql.NullTime) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEndedSessions, endedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const endDeviceSessions = `-- name: EndDeviceSessions :execrows
UPDATE sessions
SET is_active = 0, ended_at = ?, end_reason = ?
WHERE user_id = ? AND device_id = ? AND is_active = 1
`

type EndDeviceSessionsParams struct {
	EndedAt   sql.NullTime
	EndReason string
	UserID    string
	DeviceID  string
}

func (q *Queries) EndDeviceSessions(ctx context.Context, arg EndDeviceSessionsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, endDeviceSessions,
		arg.EndedAt,
		arg.EndReason,
		arg.UserID,
		arg.DeviceID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const endOtherSessions = `-- name: EndOtherSessions :execrows
UPDATE sessions
SET is_active = 0, ended_at = ?, end_reason = ?
WHERE user_id = ? AND id != ? AND is_active = 1
`

type EndOtherSessionsParams struct {
	EndedAt   sql.NullTime
	EndReason string
	UserID    string
	ID        string
}

func (q *Queries) EndOtherSessions(ctx context.Context, arg EndOtherSessionsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, endOtherSessions,
		arg.EndedAt,
		arg.EndReason,
		arg.UserID,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const endSession = `-- name: EndSession :execrows
UPDATE sessions
SET is_active = 0, ended_at = ?, end_reason = ?
WHERE id = ? AND is_active = 1
`

type EndSessionParams struct {
	EndedAt   sql.NullTime
	EndReason string
	ID        string
}

func (q *Queries) EndSession(ctx context.Context, arg EndSessionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, endSession, arg.EndedAt, arg.EndReason, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const expireSessions = `-- name: ExpireSessions :execrows
UPDATE sessions
SET is_active = 0,
    ended_at = ?1,
    end_reason = CASE WHEN expires_at <= ?1 THEN 'expired' ELSE 'idle' END
WHERE is_active = 1
  AND (last_active_at < ?2 OR expires_at <= ?1)
`

type ExpireSessionsParams struct {
	Now        sql.NullTime
	IdleBefore time.Time
}

func (q *Queries) ExpireSessions(ctx context.Context, arg ExpireSessionsParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, expireSessions, arg.Now, arg.IdleBefore)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getSession = `-- name: GetSession :one
SELECT id, user_id, device_id, ip_address, user_agent, is_active, is_suspicious, created_at, last_active_at, expires_at, ended_at, end_reason
FROM sessions
WHERE id = ?
`

func (q *Queries) GetSession(ctx context.Context, id string) (Session, error) {
	row := q.db.QueryRowContext(ctx, getSession, id)
	var i Session
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.DeviceID,
		&i.IpAddress,
		&i.UserAgent,
		&i.IsActive,
		&i.IsSuspicious,
		&i.CreatedAt,
		&i.LastActiveAt,
		&i.ExpiresAt,
		&i.EndedAt,
		&i.EndReason,
	)
	return i, err
}

const listActiveSessionsByUser = `-- name: ListActiveSessionsByUser :many
SELECT id, user_id, device_id, ip_address, user_agent, is_active, is_suspicious, created_at, last_active_at, expires_at, ended_at, end_reason
FROM sessions
WHERE user_id = ?1
  AND is_active = 1
  AND expires_at > ?2
  AND last_active_at >= ?3
ORDER BY last_active_at DESC
`

type ListActiveSessionsByUserParams struct {
	UserID    string
	Now       time.Time
	IdleSince time.Time
}

func (q *Queries) ListActiveSessionsByUser(ctx context.Context, arg ListActiveSessionsByUserParams) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSessionsByUser, arg.UserID, arg.Now, arg.IdleSince)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Session{}
	for rows.Next() {
		var i Session
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.DeviceID,
			&i.IpAddress,
			&i.UserAgent,
			&i.IsActive,
			&i.IsSuspicious,
			&i.CreatedAt,
			&i.LastActiveAt,
			&i.ExpiresAt,
			&i.EndedAt,
			&i.EndReason,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listSessions = `-- name: ListSessions :many
SELECT id, user_id, device_id, ip_address, user_agent, is_active, is_suspicious, created_at, last_active_at, expires_at, ended_at, end_reason
FROM sessions
WHERE (?1 IS NULL OR is_active = ?1)
  AND (?2 IS NULL OR is_suspicious = ?2)
  AND (?3 IS NULL OR user_id = ?3)
  AND (?4 IS NULL OR created_at >= ?4)
  AND (?5 IS NULL OR created_at <= ?5)
ORDER BY last_active_at DESC
LIMIT ?6
`

type ListSessionsParams struct {
	Active      sql.NullBool
	Suspicious  sql.NullBool
	UserID      sql.NullString
	CreatedFrom sql.NullTime
	CreatedTo   sql.NullTime
	Limit       int64
}

func (q *Queries) ListSessions(ctx context.Context, arg ListSessionsParams) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listSessions,
		arg.Active,
		arg.Suspicious,
		arg.UserID,
		arg.CreatedFrom,
		arg.CreatedTo,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Session{}
	for rows.Next() {
		var i Session
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.DeviceID,
			&i.IpAddress,
			&i.UserAgent,
			&i.IsActive,
			&i.IsSuspicious,
			&i.CreatedAt,
			&i.LastActiveAt,
			&i.ExpiresAt,
			&i.EndedAt,
			&i.EndReason,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const touchSession = `-- name: TouchSession :execrows
UPDATE sessions
SET last_active_at = ?
WHERE id = ? AND is_active = 1
`

type TouchSessionParams struct {
	LastActiveAt time.Time
	ID           string
}

func (q *Queries) TouchSession(ctx context.Context, arg TouchSessionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, touchSession, arg.LastActiveAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
