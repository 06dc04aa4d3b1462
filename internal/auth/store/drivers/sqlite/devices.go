package sqlite

import (
	"context"
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/internal/auth/store/drivers/sqlite/gen"
)

type devicesRepo struct {
	q *gen.Queries
}

func (r *devicesRepo) GetDevice(ctx context.Context, userID, deviceID string) (domain.Device, error) {
	row, err := r.q.GetDevice(ctx, gen.GetDeviceParams{UserID: userID, DeviceID: deviceID})
	if err != nil {
		return domain.Device{}, mapNotFound(err)
	}
	return mapDevice(row), nil
}

func (r *devicesRepo) UpsertDevice(ctx context.Context, d domain.Device) error {
	first := d.FirstSeenAt
	if first.IsZero() {
		first = d.LastSeenAt
	}
	return r.q.UpsertDevice(ctx, gen.UpsertDeviceParams{
		UserID:         d.UserID,
		DeviceID:       d.DeviceID,
		Fingerprint:    d.Fingerprint,
		Browser:        d.Browser,
		BrowserVersion: d.BrowserVersion,
		Os:             d.OS,
		OsVersion:      d.OSVersion,
		DeviceType:     d.DeviceType,
		Vendor:         d.Vendor,
		LastIp:         d.LastIP,
		Trusted:        d.Trusted,
		FirstSeenAt:    utc(first),
		LastSeenAt:     utc(d.LastSeenAt),
	})
}

func (r *devicesRepo) TouchDevice(ctx context.Context, userID, deviceID string, at time.Time) error {
	n, err := r.q.TouchDevice(ctx, gen.TouchDeviceParams{
		LastSeenAt: utc(at),
		UserID:     userID,
		DeviceID:   deviceID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *devicesRepo) CountDevices(ctx context.Context, userID string) (int, error) {
	n, err := r.q.CountDevices(ctx, userID)
	return int(n), err
}
