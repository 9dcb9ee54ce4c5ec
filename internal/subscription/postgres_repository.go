package subscription

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// Expected schema:
//
//	CREATE TABLE push_subscriptions (
//	    endpoint    TEXT PRIMARY KEY,
//	    keys        JSONB NOT NULL,
//	    device_name TEXT NOT NULL DEFAULT 'Desconhecido',
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL subscription repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Upsert creates or updates a subscription keyed by endpoint.
// Re-registration refreshes keys and device_name but keeps the original
// created_at, which records first registration.
func (r *PostgresRepository) Upsert(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO push_subscriptions (endpoint, keys, device_name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (endpoint) DO UPDATE SET
			keys = EXCLUDED.keys,
			device_name = EXCLUDED.device_name
	`

	_, err := r.pool.Exec(ctx, query,
		sub.Endpoint,
		sub.Keys,
		sub.DeviceName,
		sub.CreatedAt,
	)
	return err
}

// Delete removes a subscription by endpoint.
func (r *PostgresRepository) Delete(ctx context.Context, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE endpoint = $1`
	_, err := r.pool.Exec(ctx, query, endpoint)
	return err
}

// List retrieves all subscriptions.
func (r *PostgresRepository) List(ctx context.Context) ([]*Subscription, error) {
	query := `
		SELECT endpoint, keys, device_name, created_at
		FROM push_subscriptions
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		var sub Subscription
		err := rows.Scan(
			&sub.Endpoint,
			&sub.Keys,
			&sub.DeviceName,
			&sub.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subs, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
