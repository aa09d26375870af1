package models

type SortField string

const (
	SortDiscount      SortField = "discount"
	SortPrice         SortField = "price"
	SortAuctionDate   SortField = "auction_date"
	SortRecentlyAdded SortField = "recently_added"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const DefaultPropertyLimit = 50

// PropertyFilters lists every supported property query constraint. Zero
// values mean "no constraint".
type PropertyFilters struct {
	PropertyID    int64
	State         string
	County        string
	City          string // case-insensitive substring
	PriceMin      float64
	PriceMax      float64
	PropertyTypes []string
	AuctionTypes  []string
	MinDiscount   int
	Bedrooms      int     // exact match
	Bathrooms     float64 // minimum
	SortBy        SortField
	SortOrder     SortOrder
	Limit         int
	Offset        int
}

// Normalized fills in the default sort and limit.
func (f PropertyFilters) Normalized() PropertyFilters {
	switch f.SortBy {
	case SortDiscount, SortPrice, SortAuctionDate, SortRecentlyAdded:
	default:
		f.SortBy = SortDiscount
	}
	if f.SortOrder != SortAsc {
		f.SortOrder = SortDesc
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPropertyLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// CandidatePool returns the filters used to source properties for an auction
// event: best discounts first.
func CandidatePool(state string) PropertyFilters {
	return PropertyFilters{
		State:     state,
		SortBy:    SortDiscount,
		SortOrder: SortDesc,
		Limit:     DefaultPropertyLimit,
	}
}
