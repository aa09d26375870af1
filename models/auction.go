package models

type AuctionType string

const (
	AuctionForeclosure AuctionType = "foreclosure"
	AuctionBankruptcy  AuctionType = "bankruptcy"
	AuctionTax         AuctionType = "tax"
)

// AuctionEvent is a synthetic calendar entry. It is never persisted and its ID
// is derived from the state position and event index.
type AuctionEvent struct {
	ID              int         `json:"id"`
	Date            string      `json:"date"`
	State           string      `json:"state"`
	City            string      `json:"city"`
	AuctionType     AuctionType `json:"auctionType"`
	Time            string      `json:"time"`
	PropertiesCount int         `json:"propertiesCount"`
}

// AuctionProperty is a stored property dressed up for a specific auction event.
type AuctionProperty struct {
	Property
	AuctionEventID   int     `json:"auctionEventId"`
	OpportunityScore int     `json:"opportunityScore"`
	AuctionDate      string  `json:"auctionDate,omitempty"`
	LienAmount       float64 `json:"lienAmount"`
	EstimatedValue   float64 `json:"estimatedValue"`
	BidIncrement     int     `json:"bidIncrement"`
	OpeningBid       float64 `json:"openingBid"`
	KevinNotes       string  `json:"kevinNotes"`
}
