package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB  *sql.DB
	now func() time.Time
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db, now: time.Now}
}

func (s *pgStore) Get(ctx context.Context, userID string) (Usage, error) {
	return s.EnsurePeriod(ctx, userID)
}

func (s *pgStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	return s.inTx(ctx, func(tx *sql.Tx) (Usage, error) {
		return s.lockAndEnsure(ctx, tx, userID)
	})
}

func (s *pgStore) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	var exhausted Usage
	u, err := s.inTx(ctx, func(tx *sql.Tx) (Usage, error) {
		u, err := s.lockAndEnsure(ctx, tx, userID)
		if err != nil || n <= 0 {
			return u, err
		}
		if u.Used+n > u.Limit {
			exhausted = u
			return Usage{}, ErrLimitReached
		}
		u.Used += n
		if _, err := tx.ExecContext(ctx, `UPDATE usage SET used = $1 WHERE user_id = $2`, u.Used, userID); err != nil {
			return Usage{}, err
		}
		return u, nil
	})
	if errors.Is(err, ErrLimitReached) {
		return exhausted, err
	}
	return u, err
}

func (s *pgStore) Reset(ctx context.Context, userID string) (Usage, error) {
	resetsAt := s.now().UTC().Add(defaultPeriod)
	return s.inTx(ctx, func(tx *sql.Tx) (Usage, error) {
		var u Usage
		err := tx.QueryRowContext(ctx, `
INSERT INTO usage (user_id, plan, limit_amount, used, resets_at)
VALUES ($1, $2, $3, 0, $4)
ON CONFLICT (user_id) DO UPDATE SET used = 0, resets_at = EXCLUDED.resets_at
RETURNING plan, limit_amount, used, resets_at`,
			userID, defaultPlan, defaultLimit, resetsAt).Scan(&u.Plan, &u.Limit, &u.Used, &u.ResetsAt)
		return u, err
	})
}

func (s *pgStore) inTx(ctx context.Context, fn func(tx *sql.Tx) (Usage, error)) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	u, err := fn(tx)
	if err != nil {
		_ = tx.Rollback()
		return Usage{}, err
	}
	if err := tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (Usage, error) {
	now := s.now().UTC()
	var u Usage
	err := tx.QueryRowContext(ctx, `
SELECT plan, limit_amount, used, resets_at FROM usage WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&u.Plan, &u.Limit, &u.Used, &u.ResetsAt)
	if errors.Is(err, sql.ErrNoRows) {
		u = defaultUsage(now)
		if _, err := tx.ExecContext(ctx, `
INSERT INTO usage (user_id, plan, limit_amount, used, resets_at) VALUES ($1, $2, $3, $4, $5)`,
			userID, u.Plan, u.Limit, u.Used, u.ResetsAt); err != nil {
			return Usage{}, err
		}
		return u, nil
	}
	if err != nil {
		return Usage{}, err
	}

	u, rolled := rollPeriod(u, now)
	if rolled {
		if _, err := tx.ExecContext(ctx, `UPDATE usage SET used = $1, resets_at = $2 WHERE user_id = $3`, u.Used, u.ResetsAt, userID); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}
