package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	*sqlStore
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{
		sqlStore: &sqlStore{db: sqliteQuerier{db: db}, dialect: sqliteDialect, now: time.Now},
		db:       db,
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		address_key TEXT NOT NULL UNIQUE,
		address TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		zip_code TEXT NOT NULL DEFAULT '',
		county TEXT NOT NULL DEFAULT '',
		property_type TEXT NOT NULL DEFAULT '',
		bedrooms INTEGER NOT NULL DEFAULT 0,
		bathrooms REAL NOT NULL DEFAULT 0,
		sqft INTEGER NOT NULL DEFAULT 0,
		lot_size TEXT NOT NULL DEFAULT '',
		year_built INTEGER NOT NULL DEFAULT 0,
		condition TEXT NOT NULL DEFAULT '',
		parking TEXT NOT NULL DEFAULT '',
		hoa REAL NOT NULL DEFAULT 0,
		original_price REAL NOT NULL DEFAULT 0,
		auction_price REAL NOT NULL DEFAULT 0,
		discount INTEGER NOT NULL DEFAULT 0,
		auction_type TEXT NOT NULL DEFAULT '',
		auction_date DATETIME NOT NULL,
		auction_location TEXT NOT NULL DEFAULT '',
		deposit_required REAL NOT NULL DEFAULT 0,
		market_value REAL NOT NULL DEFAULT 0,
		monthly_rent REAL NOT NULL DEFAULT 0,
		annual_roi REAL NOT NULL DEFAULT 0,
		cap_rate REAL NOT NULL DEFAULT 0,
		images JSON NOT NULL DEFAULT '[]',
		featured BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'active',
		opportunity_score INTEGER NOT NULL DEFAULT 0,
		lien_amount REAL NOT NULL DEFAULT 0,
		trustee_phone TEXT NOT NULL DEFAULT '',
		external_id TEXT NOT NULL DEFAULT '',
		data_source TEXT NOT NULL DEFAULT '',
		last_synced DATETIME,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS saved_properties (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		property_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE(user_id, property_id),
		FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS sync_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		date DATETIME NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		added INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		total_processed INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_properties_state_discount ON properties(state, discount DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_county ON properties(state, county);
	CREATE INDEX IF NOT EXISTS idx_saved_user ON saved_properties(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_sync_logs_type_date ON sync_logs(type, date);
	`
	_, err := s.db.Exec(schema)
	return err
}

type sqliteQuerier struct {
	db *sql.DB
}

func (q sqliteQuerier) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q sqliteQuerier) queryRow(ctx context.Context, query string, args ...any) scanner {
	return sqliteRow{row: q.db.QueryRowContext(ctx, query, args...)}
}

func (q sqliteQuerier) query(ctx context.Context, query string, args ...any) (rowIterator, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqliteRows{rows}, nil
}

type sqliteRow struct {
	row *sql.Row
}

func (r sqliteRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return errNoRows
	}
	return err
}

type sqliteRows struct {
	*sql.Rows
}

func (r sqliteRows) Close() {
	r.Rows.Close()
}
