package models

import (
	"time"
)

const (
	StatusActive    = "active"
	StatusSold      = "sold"
	StatusCancelled = "cancelled"

	DataSourceAttom = "ATTOM"
)

// Property is a persisted auction listing. The dedup key is (address, city, state).
type Property struct {
	ID              int64           `json:"id" db:"id"`
	Address         string          `json:"address" db:"address"`
	City            string          `json:"city" db:"city"`
	State           string          `json:"state" db:"state"`
	ZipCode         string          `json:"zipCode" db:"zip_code"`
	County          string          `json:"county" db:"county"`
	PropertyType    string          `json:"propertyType" db:"property_type"`
	Bedrooms        int             `json:"bedrooms" db:"bedrooms"`
	Bathrooms       float64         `json:"bathrooms" db:"bathrooms"`
	Sqft            int             `json:"sqft" db:"sqft"`
	LotSize         string          `json:"lotSize,omitempty" db:"lot_size"`
	YearBuilt       int             `json:"yearBuilt,omitempty" db:"year_built"`
	Condition       string          `json:"condition,omitempty" db:"condition"`
	Parking         string          `json:"parking,omitempty" db:"parking"`
	HOA             float64         `json:"hoa,omitempty" db:"hoa"`
	OriginalPrice   float64         `json:"originalPrice" db:"original_price"`
	AuctionPrice    float64         `json:"auctionPrice" db:"auction_price"`
	Discount        int             `json:"discount" db:"discount"`
	AuctionType     string          `json:"auctionType" db:"auction_type"`
	AuctionDate     time.Time       `json:"auctionDate" db:"auction_date"`
	AuctionLocation string          `json:"auctionLocation,omitempty" db:"auction_location"`
	DepositRequired float64         `json:"depositRequired,omitempty" db:"deposit_required"`
	MarketValue     float64         `json:"marketValue,omitempty" db:"market_value"`
	MonthlyRent     float64         `json:"monthlyRent,omitempty" db:"monthly_rent"`
	AnnualROI       float64         `json:"annualROI,omitempty" db:"annual_roi"`
	CapRate         float64         `json:"capRate,omitempty" db:"cap_rate"`
	Images          []PropertyImage `json:"images" db:"images"`
	Featured        bool            `json:"featured" db:"featured"`
	Status          string          `json:"status" db:"status"`

	// Sync metadata
	OpportunityScore int        `json:"opportunityScore,omitempty" db:"opportunity_score"`
	LienAmount       float64    `json:"lienAmount,omitempty" db:"lien_amount"`
	TrusteePhone     string     `json:"trusteePhone,omitempty" db:"trustee_phone"`
	ExternalID       string     `json:"externalId,omitempty" db:"external_id"`
	DataSource       string     `json:"dataSource,omitempty" db:"data_source"`
	LastSynced       *time.Time `json:"lastSynced,omitempty" db:"last_synced"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
}

// SyncedAt is the reference time for freshness checks. Rows written before
// last_synced existed only carry created_at.
func (p *Property) SyncedAt() time.Time {
	if p.LastSynced != nil && !p.LastSynced.IsZero() {
		return *p.LastSynced
	}
	return p.CreatedAt
}

// EstimatedValue is the market value, or the original price when no market value is known.
func (p *Property) EstimatedValue() float64 {
	if p.MarketValue != 0 {
		return p.MarketValue
	}
	return p.OriginalPrice
}

type ImageType string

const (
	ImageStreetView  ImageType = "street_view"
	ImageAerial      ImageType = "aerial"
	ImagePlaceholder ImageType = "placeholder"
)

type PropertyImage struct {
	URL     string    `json:"url"`
	Type    ImageType `json:"type"`
	Caption string    `json:"caption"`
	Heading *int      `json:"heading,omitempty"`
}

type CountyCount struct {
	County          string `json:"county" db:"county"`
	PropertiesCount int    `json:"propertiesCount" db:"properties_count"`
}

type SavedProperty struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	PropertyID int64     `json:"propertyId" db:"property_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	Property   *Property `json:"property,omitempty"`
}
