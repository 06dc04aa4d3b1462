// Queries from ../queries/devices.sql.

package gen

import (
	"context"
	"time"
)

const countDevices = `-- name: CountDevices :one
SELECT COUNT(*) FROM devices WHERE user_id = ?
`

func (q *Queries) CountDevices(ctx context.Context, userID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countDevices, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getDevice = `-- name: GetDevice :one
SELECT user_id, device_id, fingerprint, browser, browser_version, os, os_version, device_type, vendor, last_ip, trusted, first_seen_at, last_seen_at
FROM devices
WHERE user_id = ? AND device_id = ?
`

type GetDeviceParams struct {
	UserID   string
	DeviceID string
}

func (q *Queries) GetDevice(ctx context.Context, arg GetDeviceParams) (Device, error) {
	row := q.db.QueryRowContext(ctx, getDevice, arg.UserID, arg.DeviceID)
	var i Device
	err := row.Scan(
		&i.UserID,
		&i.DeviceID,
		&i.Fingerprint,
		&i.Browser,
		&i.BrowserVersion,
		&i.Os,
		&i.OsVersion,
		&i.DeviceType,
		&i.Vendor,
		&i.LastIp,
		&i.Trusted,
		&i.FirstSeenAt,
		&i.LastSeenAt,
	)
	return i, err
}

const touchDevice = `-- name: TouchDevice :execrows
UPDATE devices
SET last_seen_at = ?
WHERE user_id = ? AND device_id = ?
`

type TouchDeviceParams struct {
	LastSeenAt time.Time
	UserID     string
	DeviceID   string
}

func (q *Queries) TouchDevice(ctx context.Context, arg TouchDeviceParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, touchDevice, arg.LastSeenAt, arg.UserID, arg.DeviceID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertDevice = `-- name: UpsertDevice :exec
INSERT INTO devices (user_id, device_id, fingerprint, browser, browser_version, os, os_version, device_type, vendor, last_ip, trusted, first_seen_at, last_seen_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, device_id) DO UPDATE SET
    fingerprint     = excluded.fingerprint,
    browser         = excluded.browser,
    browser_version = excluded.browser_version,
    os              = excluded.os,
    os_version      = excluded.os_version,
    device_type     = excluded.device_type,
    vendor          = excluded.vendor,
    last_ip         = excluded.last_ip,
    trusted         = excluded.trusted,
    last_seen_at    = excluded.last_seen_at
`

type UpsertDeviceParams struct {
	UserID         string
	DeviceID       string
	Fingerprint    string
	Browser        string
	BrowserVersion string
	Os             string
	OsVersion      string
	DeviceType     string
	Vendor         string
	LastIp         string
	Trusted        bool
	FirstSeenAt    time.Time
	LastSeenAt     time.Time
}

func (q *Queries) UpsertDevice(ctx context.Context, arg UpsertDeviceParams) error {
	_, err := q.db.ExecContext(ctx, upsertDevice,
		arg.UserID,
		arg.DeviceID,
		arg.Fingerprint,
		arg.Browser,
		arg.BrowserVersion,
		arg.Os,
		arg.OsVersion,
		arg.DeviceType,
		arg.Vendor,
		arg.LastIp,
		arg.Trusted,
		arg.FirstSeenAt,
		arg.LastSeenAt,
	)
	return err
}
