// Queries from ../queries/challenges.sql.

package gen

import (
	"context"
	"time"
)

const createChallenge = `-- name: CreateChallenge :exec
INSERT INTO challenges (id, user_id, device_id, reason, secret, attempts, ip_address, fingerprint, suspicious, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateChallengeParams struct {
	ID          string
	UserID      string
	DeviceID    string
	Reason      string
	Secret      string
	Attempts    int64
	IpAddress   string
	Fingerprint string
	Suspicious  bool
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func (q *Queries) CreateChallenge(ctx context.Context, arg CreateChallengeParams) error {
	_, err := q.db.ExecContext(ctx, createChallenge,
		arg.ID,
		arg.UserID,
		arg.DeviceID,
		arg.Reason,
		arg.Secret,
		arg.Attempts,
		arg.IpAddress,
		arg.Fingerprint,
		arg.Suspicious,
		arg.CreatedAt,
		arg.ExpiresAt,
	)
	return err
}

const deleteChallenge = `-- name: DeleteChallenge :exec
DELETE FROM challenges WHERE id = ?
`

func (q *Queries) DeleteChallenge(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteChallenge, id)
	return err
}

const deleteExpiredChallenges = `-- name: DeleteExpiredChallenges :execrows
DELETE FROM challenges WHERE expires_at <= ?
`

func (q *Queries) DeleteExpiredChallenges(ctx context.Context, expiresAt time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredChallenges, expiresAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getChallenge = `-- name: GetChallenge :one
SELECT id, user_id, device_id, reason, secret, attempts, ip_address, fingerprint, suspicious, created_at, expires_at
FROM challenges
WHERE id = ?
`

func (q *Queries) GetChallenge(ctx context.Context, id string) (Challenge, error) {
	row := q.db.QueryRowContext(ctx, getChallenge, id)
	var i Challenge
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.DeviceID,
		&i.Reason,
		&i.Secret,
		&i.Attempts,
		&i.IpAddress,
		&i.Fingerprint,
		&i.Suspicious,
		&i.CreatedAt,
		&i.ExpiresAt,
	)
	return i, err
}

const incrementChallengeAttempts = `-- name: IncrementChallengeAttempts :one
UPDATE challenges
SET attempts = attempts + 1
WHERE id = ?
RETURNING id, user_id, device_id, reason, secret, attempts, ip_address, fingerprint, suspicious, created_at, expires_at
`

func (q *Queries) IncrementChallengeAttempts(ctx context.Context, id string) (Challenge, error) {
	row := q.db.QueryRowContext(ctx, incrementChallengeAttempts, id)
	var i Challenge
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.DeviceID,
		&i.Reason,
		&i.Secret,
		&i.Attempts,
		&i.IpAddress,
		&i.Fingerprint,
		&i.Suspicious,
		&i.CreatedAt,
		&i.ExpiresAt,
	)
	return i, err
}
