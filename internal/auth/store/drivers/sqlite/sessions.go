package sqlite

import (
	"context"
	"errors"
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/internal/auth/store/drivers/sqlite/gen"
)

// defaultListLimit caps a session listing when the filter sets no limit.
const defaultListLimit = 500

type sessionsRepo struct {
	q *gen.Queries
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	err := r.q.CreateSession(ctx, gen.CreateSessionParams{
		ID:           s.ID,
		UserID:       s.UserID,
		DeviceID:     s.DeviceID,
		IpAddress:    s.IPAddress,
		UserAgent:    s.UserAgent,
		IsActive:     s.IsActive,
		IsSuspicious: s.IsSuspicious,
		CreatedAt:    utc(s.CreatedAt),
		LastActiveAt: utc(s.LastActiveAt),
		ExpiresAt:    utc(s.ExpiresAt),
	})
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row, err := r.q.GetSession(ctx, id)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return mapSession(row), nil
}

func (r *sessionsRepo) ListSessions(ctx context.Context, f domain.SessionFilter) ([]domain.Session, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.q.ListSessions(ctx, gen.ListSessionsParams{
		Active:      nullBool(f.Active),
		Suspicious:  nullBool(f.Suspicious),
		UserID:      nullString(f.UserID),
		CreatedFrom: nullTime(f.From),
		CreatedTo:   nullTime(f.To),
		Limit:       int64(limit),
	})
	if err != nil {
		return nil, err
	}
	return mapSessions(rows), nil
}

func (r *sessionsRepo) ListActiveSessions(ctx context.Context, userID string, now, idleSince time.Time) ([]domain.Session, error) {
	rows, err := r.q.ListActiveSessionsByUser(ctx, gen.ListActiveSessionsByUserParams{
		UserID:    userID,
		Now:       utc(now),
		IdleSince: utc(idleSince),
	})
	if err != nil {
		return nil, err
	}
	return mapSessions(rows), nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string, at time.Time) error {
	n, err := r.q.TouchSession(ctx, gen.TouchSessionParams{LastActiveAt: utc(at), ID: id})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) EndSession(ctx context.Context, id, reason string, at time.Time) error {
	n, err := r.q.EndSession(ctx, gen.EndSessionParams{
		EndedAt:   nullTime(at),
		EndReason: reason,
		ID:        id,
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// Already ended is fine; unknown is not.
	if _, err := r.q.GetSession(ctx, id); err != nil {
		if errors.Is(mapNotFound(err), store.ErrNotFound) {
			return store.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *sessionsRepo) EndOtherSessions(ctx context.Context, userID, keepID, reason string, at time.Time) (int, error) {
	n, err := r.q.EndOtherSessions(ctx, gen.EndOtherSessionsParams{
		EndedAt:   nullTime(at),
		EndReason: reason,
		UserID:    userID,
		ID:        keepID,
	})
	return int(n), err
}

func (r *sessionsRepo) EndDeviceSessions(ctx context.Context, userID, deviceID, reason string, at time.Time) (int, error) {
	n, err := r.q.EndDeviceSessions(ctx, gen.EndDeviceSessionsParams{
		EndedAt:   nullTime(at),
		EndReason: reason,
		UserID:    userID,
		DeviceID:  deviceID,
	})
	return int(n), err
}

func (r *sessionsRepo) ExpireSessions(ctx context.Context, idleBefore, now time.Time) (int, error) {
	n, err := r.q.ExpireSessions(ctx, gen.ExpireSessionsParams{
		Now:        nullTime(now),
		IdleBefore: utc(idleBefore),
	})
	return int(n), err
}

func (r *sessionsRepo) DeleteEndedSessions(ctx context.Context, before time.Time) (int, error) {
	n, err := r.q.DeleteEndedSessions(ctx, nullTime(before))
	return int(n), err
}

func (r *sessionsRepo) CountActiveSessions(ctx context.Context) (int, error) {
	n, err := r.q.CountActiveSessions(ctx)
	return int(n), err
}
