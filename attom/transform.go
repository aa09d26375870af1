package attom

import (
	"errors"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"casa_subastas/models"
	"casa_subastas/scoring"
)

const (
	defaultBasePrice   = 200000
	defaultLienRatio   = 0.7
	openingBidRatio    = 0.85
	minDiscountPercent = 15

	defaultBedrooms  = 3
	defaultBathrooms = 2
	defaultSqft      = 1500

	auctionDateWindow = 90 * 24 * time.Hour
)

// ErrMalformedRecord is returned for records that could not be decoded or
// that the sync cannot key on.
var ErrMalformedRecord = errors.New("malformed ATTOM record")

// Transformer converts external records into property drafts. Missing auction
// dates are filled with unseeded randomness.
type Transformer struct {
	now  func() time.Time
	rand func() float64
}

func NewTransformer() *Transformer {
	return &Transformer{now: time.Now, rand: rand.Float64}
}

func NewTransformerWithClock(now func() time.Time, rnd func() float64) *Transformer {
	return &Transformer{now: now, rand: rnd}
}

// Transform maps a record to a property draft. index is used as the external
// id when the record carries none.
func (t *Transformer) Transform(p *Property, index int) (*models.Property, error) {
	if p == nil {
		return nil, ErrMalformedRecord
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	address := strings.TrimSpace(p.Address.OneLine)
	if address == "" {
		return nil, ErrMalformedRecord
	}

	base := firstPositive(p.Assessment.Market.MktTtlValue, p.AVM.Amount.Value, defaultBasePrice)
	lien := base * defaultLienRatio
	if p.Foreclosure != nil && p.Foreclosure.Amount > 0 {
		lien = p.Foreclosure.Amount
	}
	discount := int(math.Round((1 - lien/base) * 100))

	prop := &models.Property{
		Address:          address,
		City:             orDefault(p.Address.Locality, "Unknown"),
		State:            orDefault(p.Address.State, "Unknown"),
		ZipCode:          p.Address.Postal1.String(),
		County:           orDefault(p.Identifier.FIPS.String(), "Unknown"),
		PropertyType:     PropertyTypeForSize(p.Building.Size.BldgSize),
		Bedrooms:         int(firstPositive(p.Building.Rooms.Beds, defaultBedrooms)),
		Bathrooms:        firstPositive(p.Building.Rooms.Baths, defaultBathrooms),
		Sqft:             int(firstPositive(p.Building.Size.LivingSize, p.Building.Size.BldgSize, defaultSqft)),
		YearBuilt:        p.Building.Construction.YearBuilt,
		OriginalPrice:    math.Round(base),
		MarketValue:      math.Round(base),
		AuctionPrice:     math.Round(lien * openingBidRatio),
		LienAmount:       math.Round(lien),
		Discount:         max(discount, minDiscountPercent),
		OpportunityScore: scoring.OpportunityScore(discount, base, lien),
		AuctionType:      string(models.AuctionForeclosure),
		AuctionDate:      t.auctionDate(p.Foreclosure),
		Status:           models.StatusActive,
		DataSource:       models.DataSourceAttom,
		ExternalID:       p.Identifier.ID.String(),
	}

	if prop.ExternalID == "" {
		prop.ExternalID = strconv.Itoa(index)
	}
	if p.Lot.LotSize1 > 0 {
		prop.LotSize = strconv.FormatFloat(p.Lot.LotSize1, 'f', -1, 64)
	}
	if p.Foreclosure != nil {
		if p.Foreclosure.Type != "" {
			prop.AuctionType = p.Foreclosure.Type
		}
		prop.TrusteePhone = p.Foreclosure.TrusteePhone
	}

	return prop, nil
}

func (t *Transformer) auctionDate(f *Foreclosure) time.Time {
	if f != nil && f.Date != "" {
		if d, ok := parseDate(f.Date); ok {
			return d
		}
	}
	return t.now().Add(time.Duration(t.rand() * float64(auctionDateWindow))).UTC()
}

// PropertyTypeForSize labels a building by its square footage.
func PropertyTypeForSize(size float64) string {
	switch {
	case size <= 0:
		return "Casa"
	case size < 800:
		return "Condominio"
	case size < 1500:
		return "Casa"
	case size < 2500:
		return "Casa Grande"
	default:
		return "Casa de Lujo"
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC(), true
		}
	}
	return time.Time{}, false
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
