package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"casa_subastas/identity"
	"casa_subastas/models"
)

// ErrNotFound is returned by updates that match no row. Lookups return nil, nil instead.
var ErrNotFound = errors.New("not found")

// Store is the persistence layer used by the sync pipeline and the HTTP API.
type Store interface {
	GetPropertyByAddress(ctx context.Context, address, city, state string) (*models.Property, error)
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error)
	UpdateProperty(ctx context.Context, id int64, p *models.Property) (*models.Property, error)
	GetProperties(ctx context.Context, f models.PropertyFilters) ([]models.Property, error)
	GetCountiesByState(ctx context.Context, state string) ([]models.CountyCount, error)

	UpdatePropertyImages(ctx context.Context, id int64, images []models.PropertyImage) error
	GetPropertiesWithRemoteImages(ctx context.Context, urlPrefix string, limit int) ([]models.Property, error)

	GetSavedProperties(ctx context.Context, userID int64) ([]models.SavedProperty, error)
	SaveProperty(ctx context.Context, userID, propertyID int64) (*models.SavedProperty, error)
	UnsaveProperty(ctx context.Context, userID, propertyID int64) (bool, error)
	IsPropertySaved(ctx context.Context, userID, propertyID int64) (bool, error)

	LogSyncResult(ctx context.Context, l *models.SyncLog) error
	GetLatestSyncLog(ctx context.Context, syncType models.SyncType) (*models.SyncLog, error)

	Close() error
}

// sqlStore holds the queries shared by the Postgres and SQLite stores.
type sqlStore struct {
	db      querier
	dialect dialect
	now     func() time.Time
}

// =============================================================================
// Properties
// =============================================================================

func (s *sqlStore) GetPropertyByAddress(ctx context.Context, address, city, state string) (*models.Property, error) {
	q := `SELECT ` + propertyColumns("") + ` FROM properties WHERE address_key = ?`
	return s.queryProperty(ctx, q, identity.AddressKey(address, city, state))
}

func (s *sqlStore) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	q := `SELECT ` + propertyColumns("") + ` FROM properties WHERE id = ?`
	return s.queryProperty(ctx, q, id)
}

func (s *sqlStore) queryProperty(ctx context.Context, q string, args ...any) (*models.Property, error) {
	p, err := scanProperty(s.db.queryRow(ctx, s.dialect.rebind(q), args...))
	if errors.Is(err, errNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *sqlStore) CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error) {
	out := *p
	if out.CreatedAt.IsZero() {
		out.CreatedAt = s.now()
	}
	if out.Status == "" {
		out.Status = models.StatusActive
	}

	vals, err := propertyValues(&out)
	if err != nil {
		return nil, err
	}

	q := `INSERT INTO properties (address_key, ` + writableColumns() + `, created_at)
		VALUES (` + placeholders(len(vals)+2) + `) RETURNING id`
	args := append([]any{identity.AddressKey(out.Address, out.City, out.State)}, vals...)
	args = append(args, out.CreatedAt.UTC())

	if err := s.db.queryRow(ctx, s.dialect.rebind(q), args...).Scan(&out.ID); err != nil {
		return nil, fmt.Errorf("insert property: %w", err)
	}
	return &out, nil
}

// UpdateProperty overwrites every writable column of an existing row.
// created_at is preserved.
func (s *sqlStore) UpdateProperty(ctx context.Context, id int64, p *models.Property) (*models.Property, error) {
	vals, err := propertyValues(p)
	if err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(propertyFields))
	sets = append(sets, "address_key = ?")
	for _, f := range writableFields() {
		sets = append(sets, f+" = ?")
	}
	q := `UPDATE properties SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	args := append([]any{identity.AddressKey(p.Address, p.City, p.State)}, vals...)
	args = append(args, id)

	n, err := s.db.exec(ctx, s.dialect.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("update property %d: %w", id, err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetProperty(ctx, id)
}

func (s *sqlStore) GetProperties(ctx context.Context, f models.PropertyFilters) ([]models.Property, error) {
	q, args := buildPropertiesQuery(s.dialect, f)
	return s.queryProperties(ctx, q, args...)
}

func (s *sqlStore) queryProperties(ctx context.Context, q string, args ...any) ([]models.Property, error) {
	rows, err := s.db.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := []models.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, *p)
	}
	return props, rows.Err()
}

func (s *sqlStore) GetCountiesByState(ctx context.Context, state string) ([]models.CountyCount, error) {
	q := `SELECT county, COUNT(*) FROM properties WHERE state = ? GROUP BY county ORDER BY county`
	rows, err := s.db.query(ctx, s.dialect.rebind(q), state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counties := []models.CountyCount{}
	for rows.Next() {
		var c models.CountyCount
		if err := rows.Scan(&c.County, &c.PropertiesCount); err != nil {
			return nil, err
		}
		counties = append(counties, c)
	}
	return counties, rows.Err()
}

// =============================================================================
// Images
// =============================================================================

func (s *sqlStore) UpdatePropertyImages(ctx context.Context, id int64, images []models.PropertyImage) error {
	data, err := json.Marshal(nonNilImages(images))
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	n, err := s.db.exec(ctx, s.dialect.rebind(`UPDATE properties SET images = ? WHERE id = ?`), string(data), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPropertiesWithRemoteImages returns properties whose image list still
// references urlPrefix, oldest first.
func (s *sqlStore) GetPropertiesWithRemoteImages(ctx context.Context, urlPrefix string, limit int) ([]models.Property, error) {
	q := `SELECT ` + propertyColumns("") + ` FROM properties WHERE ` + s.dialect.imagesText + ` LIKE ? ORDER BY id LIMIT ?`
	return s.queryProperties(ctx, s.dialect.rebind(q), "%"+urlPrefix+"%", limit)
}

// =============================================================================
// Saved properties
// =============================================================================

func (s *sqlStore) GetSavedProperties(ctx context.Context, userID int64) ([]models.SavedProperty, error) {
	q := `SELECT sp.id, sp.user_id, sp.property_id, sp.created_at, ` + propertyColumns("p.") + `
		FROM saved_properties sp
		JOIN properties p ON p.id = sp.property_id
		WHERE sp.user_id = ?
		ORDER BY sp.created_at DESC, sp.id DESC`

	rows, err := s.db.query(ctx, s.dialect.rebind(q), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saved := []models.SavedProperty{}
	for rows.Next() {
		var sp models.SavedProperty
		p, err := scanProperty(rows, &sp.ID, &sp.UserID, &sp.PropertyID, &sp.CreatedAt)
		if err != nil {
			return nil, err
		}
		sp.Property = p
		saved = append(saved, sp)
	}
	return saved, rows.Err()
}

// SaveProperty is idempotent: saving twice returns the existing row.
func (s *sqlStore) SaveProperty(ctx context.Context, userID, propertyID int64) (*models.SavedProperty, error) {
	_, err := s.db.exec(ctx, s.dialect.rebind(`
		INSERT INTO saved_properties (user_id, property_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, property_id) DO NOTHING`),
		userID, propertyID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("save property: %w", err)
	}

	var sp models.SavedProperty
	err = s.db.queryRow(ctx, s.dialect.rebind(`
		SELECT id, user_id, property_id, created_at FROM saved_properties
		WHERE user_id = ? AND property_id = ?`), userID, propertyID).
		Scan(&sp.ID, &sp.UserID, &sp.PropertyID, &sp.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *sqlStore) UnsaveProperty(ctx context.Context, userID, propertyID int64) (bool, error) {
	n, err := s.db.exec(ctx, s.dialect.rebind(`DELETE FROM saved_properties WHERE user_id = ? AND property_id = ?`), userID, propertyID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqlStore) IsPropertySaved(ctx context.Context, userID, propertyID int64) (bool, error) {
	var n int
	err := s.db.queryRow(ctx, s.dialect.rebind(`SELECT COUNT(*) FROM saved_properties WHERE user_id = ? AND property_id = ?`), userID, propertyID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// =============================================================================
// Sync logs
// =============================================================================

func (s *sqlStore) LogSyncResult(ctx context.Context, l *models.SyncLog) error {
	if l.Date.IsZero() {
		l.Date = s.now()
	}
	q := `INSERT INTO sync_logs (run_id, date, type, status, added, updated, errors, total_processed, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	return s.db.queryRow(ctx, s.dialect.rebind(q),
		l.RunID, l.Date.UTC(), string(l.Type), string(l.Status), l.Added, l.Updated, l.Errors, l.TotalProcessed, l.DurationMS,
	).Scan(&l.ID)
}

// GetLatestSyncLog returns the newest log of the given type, or of any type
// when syncType is empty. Returns nil, nil when none exist.
func (s *sqlStore) GetLatestSyncLog(ctx context.Context, syncType models.SyncType) (*models.SyncLog, error) {
	q := `SELECT id, run_id, date, type, status, added, updated, errors, total_processed, duration_ms FROM sync_logs`
	var args []any
	if syncType != "" {
		q += ` WHERE type = ?`
		args = append(args, string(syncType))
	}
	q += ` ORDER BY date DESC, id DESC LIMIT 1`

	var l models.SyncLog
	var typ, status string
	err := s.db.queryRow(ctx, s.dialect.rebind(q), args...).Scan(
		&l.ID, &l.RunID, &l.Date, &typ, &status, &l.Added, &l.Updated, &l.Errors, &l.TotalProcessed, &l.DurationMS)
	if errors.Is(err, errNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.Type = models.SyncType(typ)
	l.Status = models.RunStatus(status)
	return &l, nil
}
