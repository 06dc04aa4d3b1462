package sqlite

import (
	"context"
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/store/drivers/sqlite/gen"
)

type challengesRepo struct {
	q *gen.Queries
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, c domain.Challenge) error {
	err := r.q.CreateChallenge(ctx, gen.CreateChallengeParams{
		ID:          c.ID,
		UserID:      c.UserID,
		DeviceID:    c.DeviceID,
		Reason:      c.Reason,
		Secret:      c.Secret,
		Attempts:    int64(c.Attempts),
		IpAddress:   c.IPAddress,
		Fingerprint: c.Fingerprint,
		Suspicious:  c.Suspicious,
		CreatedAt:   utc(c.CreatedAt),
		ExpiresAt:   utc(c.ExpiresAt),
	})
	return mapConstraint(err)
}

func (r *challengesRepo) GetChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	row, err := r.q.GetChallenge(ctx, id)
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return mapChallenge(row), nil
}

func (r *challengesRepo) IncrementChallengeAttempts(ctx context.Context, id string) (domain.Challenge, error) {
	row, err := r.q.IncrementChallengeAttempts(ctx, id)
	if err != nil {
		return domain.Challenge{}, mapNotFound(err)
	}
	return mapChallenge(row), nil
}

func (r *challengesRepo) DeleteChallenge(ctx context.Context, id string) error {
	return r.q.DeleteChallenge(ctx, id)
}

func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context, now time.Time) (int, error) {
	n, err := r.q.DeleteExpiredChallenges(ctx, utc(now))
	return int(n), err
}
