package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"casa_subastas/models"
)

var errNoRows = errors.New("no rows in result set")

type scanner interface {
	Scan(dest ...any) error
}

type rowIterator interface {
	scanner
	Next() bool
	Err() error
	Close()
}

// querier hides the difference between pgxpool and database/sql. queryRow
// reports a missing row as errNoRows.
type querier interface {
	exec(ctx context.Context, q string, args ...any) (int64, error)
	queryRow(ctx context.Context, q string, args ...any) scanner
	query(ctx context.Context, q string, args ...any) (rowIterator, error)
}

type dialect struct {
	name       string
	like       string // case-insensitive LIKE operator
	imagesText string // images column as text
	numbered   bool   // $1 style placeholders
}

var (
	postgresDialect = dialect{name: "postgres", like: "ILIKE", imagesText: "images::text", numbered: true}
	sqliteDialect   = dialect{name: "sqlite", like: "LIKE", imagesText: "images"}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 16)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var propertyFields = []string{
	"id", "address", "city", "state", "zip_code", "county", "property_type",
	"bedrooms", "bathrooms", "sqft", "lot_size", "year_built", "condition", "parking", "hoa",
	"original_price", "auction_price", "discount", "auction_type", "auction_date",
	"auction_location", "deposit_required", "market_value", "monthly_rent", "annual_roi", "cap_rate",
	"images", "featured", "status", "opportunity_score", "lien_amount", "trustee_phone",
	"external_id", "data_source", "last_synced", "created_at",
}

func propertyColumns(prefix string) string {
	cols := make([]string, len(propertyFields))
	for i, f := range propertyFields {
		cols[i] = prefix + f
	}
	return strings.Join(cols, ", ")
}

// writableFields are the columns set on insert and update.
func writableFields() []string {
	return propertyFields[1 : len(propertyFields)-1]
}

func writableColumns() string {
	return strings.Join(writableFields(), ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// propertyValues returns the writable column values in writableFields order.
func propertyValues(p *models.Property) ([]any, error) {
	images, err := json.Marshal(nonNilImages(p.Images))
	if err != nil {
		return nil, fmt.Errorf("marshal images: %w", err)
	}

	var lastSynced *time.Time
	if p.LastSynced != nil {
		t := p.LastSynced.UTC()
		lastSynced = &t
	}

	return []any{
		p.Address, p.City, p.State, p.ZipCode, p.County, p.PropertyType,
		p.Bedrooms, p.Bathrooms, p.Sqft, p.LotSize, p.YearBuilt, p.Condition, p.Parking, p.HOA,
		p.OriginalPrice, p.AuctionPrice, p.Discount, p.AuctionType, p.AuctionDate.UTC(),
		p.AuctionLocation, p.DepositRequired, p.MarketValue, p.MonthlyRent, p.AnnualROI, p.CapRate,
		string(images), p.Featured, p.Status, p.OpportunityScore, p.LienAmount, p.TrusteePhone,
		p.ExternalID, p.DataSource, lastSynced,
	}, nil
}

// scanProperty reads the propertyFields columns, after any leading columns
// the caller selected first.
func scanProperty(row scanner, lead ...any) (*models.Property, error) {
	var p models.Property
	var images []byte

	dest := append(lead,
		&p.ID, &p.Address, &p.City, &p.State, &p.ZipCode, &p.County, &p.PropertyType,
		&p.Bedrooms, &p.Bathrooms, &p.Sqft, &p.LotSize, &p.YearBuilt, &p.Condition, &p.Parking, &p.HOA,
		&p.OriginalPrice, &p.AuctionPrice, &p.Discount, &p.AuctionType, &p.AuctionDate,
		&p.AuctionLocation, &p.DepositRequired, &p.MarketValue, &p.MonthlyRent, &p.AnnualROI, &p.CapRate,
		&images, &p.Featured, &p.Status, &p.OpportunityScore, &p.LienAmount, &p.TrusteePhone,
		&p.ExternalID, &p.DataSource, &p.LastSynced, &p.CreatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	p.Images = []models.PropertyImage{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images for property %d: %w", p.ID, err)
		}
	}
	return &p, nil
}

func nonNilImages(images []models.PropertyImage) []models.PropertyImage {
	if images == nil {
		return []models.PropertyImage{}
	}
	return images
}

var sortColumns = map[models.SortField]string{
	models.SortDiscount:      "discount",
	models.SortPrice:         "auction_price",
	models.SortAuctionDate:   "auction_date",
	models.SortRecentlyAdded: "created_at",
}

// buildPropertiesQuery turns filters into a SELECT. Ties are broken by id so
// the order is stable across calls.
func buildPropertiesQuery(d dialect, f models.PropertyFilters) (string, []any) {
	f = f.Normalized()

	var conds []string
	var args []any
	add := func(cond string, vals ...any) {
		conds = append(conds, cond)
		args = append(args, vals...)
	}

	if f.PropertyID > 0 {
		add("id = ?", f.PropertyID)
	}
	if f.State != "" {
		add("state = ?", f.State)
	}
	if f.County != "" {
		add("county = ?", f.County)
	}
	if f.City != "" {
		add("city "+d.like+" ?", "%"+f.City+"%")
	}
	if f.PriceMin > 0 {
		add("auction_price >= ?", f.PriceMin)
	}
	if f.PriceMax > 0 {
		add("auction_price <= ?", f.PriceMax)
	}
	if len(f.PropertyTypes) > 0 {
		add("property_type IN ("+placeholders(len(f.PropertyTypes))+")", toAny(f.PropertyTypes)...)
	}
	if len(f.AuctionTypes) > 0 {
		add("auction_type IN ("+placeholders(len(f.AuctionTypes))+")", toAny(f.AuctionTypes)...)
	}
	if f.MinDiscount > 0 {
		add("discount >= ?", f.MinDiscount)
	}
	if f.Bedrooms > 0 {
		add("bedrooms = ?", f.Bedrooms)
	}
	if f.Bathrooms > 0 {
		add("bathrooms >= ?", f.Bathrooms)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(propertyColumns(""))
	b.WriteString(" FROM properties")
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	dir := "DESC"
	if f.SortOrder == models.SortAsc {
		dir = "ASC"
	}
	fmt.Fprintf(&b, " ORDER BY %s %s, id ASC LIMIT ? OFFSET ?", sortColumns[f.SortBy], dir)
	args = append(args, f.Limit, f.Offset)

	return d.rebind(b.String()), args
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
