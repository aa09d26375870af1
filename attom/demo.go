package attom

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DemoStatusMsg   = "Demo Data - ATTOM Integration Pending"
	demoTotal       = 150
	demoDateWindow  = 120 * 24 * time.Hour
	demoPlaceholder = "12345"
)

//go:embed demo_properties.yaml
var demoYAML []byte

type demoTemplate struct {
	Address      string  `yaml:"address"`
	City         string  `yaml:"city"`
	County       string  `yaml:"county"`
	PropertyType string  `yaml:"property_type"`
	Beds         int     `yaml:"beds"`
	Baths        int     `yaml:"baths"`
	Sqft         int     `yaml:"sqft"`
	MarketValue  float64 `yaml:"market_value"`
}

type demoCatalog struct {
	States  map[string][]demoTemplate `yaml:"states"`
	Generic []demoTemplate            `yaml:"generic"`
}

// DemoDataset is the last fallback tier: synthetic foreclosure records built
// from a curated per-state list, padded to fill the requested page.
type DemoDataset struct {
	catalog demoCatalog
	now     func() time.Time
	rand    func() float64
}

func NewDemoDataset(now func() time.Time, rnd func() float64) (*DemoDataset, error) {
	var catalog demoCatalog
	if err := yaml.Unmarshal(demoYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parse demo catalog: %w", err)
	}
	if len(catalog.Generic) == 0 {
		return nil, fmt.Errorf("demo catalog has no generic templates")
	}
	return &DemoDataset{catalog: catalog, now: now, rand: rnd}, nil
}

func (d *DemoDataset) Name() string { return "demo_dataset" }

func (d *DemoDataset) Fetch(ctx context.Context, q Query) (*Response, error) {
	return d.Generate(q.normalized()), nil
}

// Generate always returns exactly PageSize records for page 1. Later pages are
// empty, which ends a paging loop.
func (d *DemoDataset) Generate(q Query) *Response {
	q = q.normalized()
	base := d.templates(q.State, q.City)

	seeds := len(base)
	for len(base) < q.PageSize {
		t := base[len(base)%seeds]
		t.Address = fmt.Sprintf("%d Demo St", 1000+len(base))
		if q.City != "" {
			t.City = q.City
		}
		base = append(base, t)
	}

	start := min((q.Page-1)*q.PageSize, len(base))
	end := min(q.Page*q.PageSize, len(base))
	now := d.now()

	props := make([]Property, 0, end-start)
	for i, t := range base[start:end] {
		props = append(props, d.record(t, q, i, now))
	}

	return &Response{
		Status: Status{
			Version:  "1.0.0",
			Code:     200,
			Msg:      DemoStatusMsg,
			Total:    demoTotal,
			Page:     q.Page,
			PageSize: q.PageSize,
		},
		Property: props,
	}
}

// templates returns a copy of the curated list for the state, filtered by
// city. When the city filter leaves nothing, generic templates in that city
// are used.
func (d *DemoDataset) templates(state, city string) []demoTemplate {
	curated, ok := d.catalog.States[state]
	if !ok {
		curated = d.genericIn(city)
	}

	base := make([]demoTemplate, 0, len(curated))
	needle := strings.ToLower(city)
	for _, t := range curated {
		if city == "" || strings.Contains(strings.ToLower(t.City), needle) {
			base = append(base, t)
		}
	}
	if len(base) == 0 {
		base = d.genericIn(city)
	}
	return base
}

func (d *DemoDataset) genericIn(city string) []demoTemplate {
	out := make([]demoTemplate, len(d.catalog.Generic))
	copy(out, d.catalog.Generic)
	if city != "" {
		for i := range out {
			out[i].City = city
		}
	}
	return out
}

func (d *DemoDataset) record(t demoTemplate, q Query, index int, now time.Time) Property {
	pool := "None"
	yearBuilt := 1980 + int(math.Floor(d.rand()*40))
	postal := 10000 + int(math.Floor(d.rand()*90000))
	lot := math.Round(5000 + d.rand()*10000)
	if d.rand() > 0.7 {
		pool = "Pool"
	}
	amount := math.Round(t.MarketValue * (0.6 + d.rand()*0.2))

	return Property{
		Identifier: Identifier{
			ID:   flexString(strconv.Itoa(index + (q.Page-1)*q.PageSize)),
			FIPS: demoPlaceholder,
			APN:  flexString(fmt.Sprintf("APN%d", index)),
		},
		Address: Address{
			Country:     "US",
			CountryName: "United States",
			State:       q.State,
			Locality:    t.City,
			OneLine:     t.Address,
			Postal1:     flexString(strconv.Itoa(postal)),
		},
		Building: Building{
			Size:         BuildingSize{BldgSize: float64(t.Sqft), LivingSize: float64(t.Sqft)},
			Rooms:        Rooms{Beds: float64(t.Beds), Baths: float64(t.Baths)},
			Construction: Construction{YearBuilt: yearBuilt},
		},
		Lot:        Lot{LotSize1: lot, PoolType: pool},
		Assessment: Assessment{Market: Market{MktTtlValue: t.MarketValue}},
		AVM:        AVM{Amount: AVMAmount{Value: t.MarketValue}},
		Foreclosure: &Foreclosure{
			Amount:       amount,
			Date:         randomFutureDate(now, demoDateWindow, d.rand),
			Type:         "foreclosure",
			TrusteePhone: placeholderTrustee,
		},
	}
}
