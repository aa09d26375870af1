package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	*sqlStore
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{
		sqlStore: &sqlStore{db: pgQuerier{pool: pool}, dialect: postgresDialect, now: time.Now},
		pool:     pool,
	}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id BIGSERIAL PRIMARY KEY,
		address_key TEXT NOT NULL UNIQUE,
		address TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		zip_code TEXT NOT NULL DEFAULT '',
		county TEXT NOT NULL DEFAULT '',
		property_type TEXT NOT NULL DEFAULT '',
		bedrooms INTEGER NOT NULL DEFAULT 0,
		bathrooms DOUBLE PRECISION NOT NULL DEFAULT 0,
		sqft INTEGER NOT NULL DEFAULT 0,
		lot_size TEXT NOT NULL DEFAULT '',
		year_built INTEGER NOT NULL DEFAULT 0,
		condition TEXT NOT NULL DEFAULT '',
		parking TEXT NOT NULL DEFAULT '',
		hoa DOUBLE PRECISION NOT NULL DEFAULT 0,
		original_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		auction_price DOUBLE PRECISION NOT NULL DEFAULT 0,
		discount INTEGER NOT NULL DEFAULT 0,
		auction_type TEXT NOT NULL DEFAULT '',
		auction_date TIMESTAMPTZ NOT NULL,
		auction_location TEXT NOT NULL DEFAULT '',
		deposit_required DOUBLE PRECISION NOT NULL DEFAULT 0,
		market_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		monthly_rent DOUBLE PRECISION NOT NULL DEFAULT 0,
		annual_roi DOUBLE PRECISION NOT NULL DEFAULT 0,
		cap_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
		images JSONB NOT NULL DEFAULT '[]',
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'active',
		opportunity_score INTEGER NOT NULL DEFAULT 0,
		lien_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		trustee_phone TEXT NOT NULL DEFAULT '',
		external_id TEXT NOT NULL DEFAULT '',
		data_source TEXT NOT NULL DEFAULT '',
		last_synced TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS saved_properties (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		property_id BIGINT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, property_id)
	);

	CREATE TABLE IF NOT EXISTS sync_logs (
		id BIGSERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		added INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		total_processed INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_properties_state_discount ON properties(state, discount DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_county ON properties(state, county);
	CREATE INDEX IF NOT EXISTS idx_saved_user ON saved_properties(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_sync_logs_type_date ON sync_logs(type, date);
	`
	_, err := s.pool.Exec(ctx, schema)
	return err
}

type pgQuerier struct {
	pool *pgxpool.Pool
}

func (q pgQuerier) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := q.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q pgQuerier) queryRow(ctx context.Context, sql string, args ...any) scanner {
	return pgRow{row: q.pool.QueryRow(ctx, sql, args...)}
}

func (q pgQuerier) query(ctx context.Context, sql string, args ...any) (rowIterator, error) {
	rows, err := q.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type pgRow struct {
	row pgx.Row
}

func (r pgRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return errNoRows
	}
	return err
}
