// Package push tracks browser push subscriptions and delivers
// notifications. Subscriptions and delivery counters live in Postgres so
// multiple server instances see the same subscriber set.
package push

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("subscription not found")

type Repository interface {
	Save(ctx context.Context, s *Subscription) error
	Remove(ctx context.Context, endpoint string) error
	List(ctx context.Context) ([]Subscription, error)
	Get(ctx context.Context, endpoint string) (*Subscription, error)
	RecordDelivery(ctx context.Context, successful, failed int) error
	Stats(ctx context.Context) (*Stats, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Save(ctx context.Context, s *Subscription) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO push_subscriptions (endpoint, p256dh, auth, created_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (endpoint) DO UPDATE SET p256dh=$2, auth=$3
		RETURNING id, created_at
	`, s.Endpoint, s.P256dh, s.Auth).Scan(&s.ID, &s.CreatedAt)
}

func (r *PGRepo) Remove(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint=$1`, endpoint)
	return err
}

func (r *PGRepo) List(ctx context.Context) ([]Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Subscription{}
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepo) Get(ctx context.Context, endpoint string) (*Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s Subscription
	if err := r.db.QueryRow(ctx, `
		SELECT id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions WHERE endpoint=$1
	`, endpoint).Scan(&s.ID, &s.Endpoint, &s.P256dh, &s.Auth, &s.CreatedAt); err != nil {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *PGRepo) RecordDelivery(ctx context.Context, successful, failed int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE push_stats
		SET total_sent = total_sent + $1 + $2,
		    successful = successful + $1,
		    failed     = failed + $2,
		    last_sent  = NOW()
		WHERE id = 1
	`, successful, failed)
	return err
}

func (r *PGRepo) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var st Stats
	if err := r.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM push_subscriptions),
		       total_sent, successful, failed, last_sent
		FROM push_stats WHERE id = 1
	`).Scan(&st.TotalSubscriptions, &st.TotalSent, &st.Successful, &st.Failed, &st.LastSent); err != nil {
		return nil, err
	}
	return &st, nil
}
