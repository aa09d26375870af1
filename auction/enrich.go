package auction

import (
	"math"
	"time"

	"casa_subastas/models"
)

const (
	DefaultAuctionDate = "2025-07-29"
	BidIncrement       = 1000

	offsetScore      = 100
	offsetLien       = 200
	offsetOpeningBid = 300
)

// EventSeed derives the per-auction seed from the event id and the epoch
// milliseconds of the auction date. Unparseable or empty dates use
// DefaultAuctionDate.
func EventSeed(eventID int, auctionDate string) float64 {
	t, ok := parseAuctionDate(auctionDate)
	if !ok {
		t, _ = parseAuctionDate(DefaultAuctionDate)
	}
	return float64(eventID)*1000 + float64(t.UnixMilli())
}

// PropertyCount is how many candidates an auction shows: 5 to 12.
func PropertyCount(seed float64) int {
	return int(math.Floor(SeededRandomFloat(seed, 1)*8)) + 5
}

// Enrich dresses the first candidates for an auction event. Candidates are
// used in the order given; the caller sorts them. Identical inputs give
// identical output.
func Enrich(eventID int, auctionDate string, candidates []models.Property) []models.AuctionProperty {
	if len(candidates) == 0 {
		return []models.AuctionProperty{}
	}

	seed := EventSeed(eventID, auctionDate)
	n := min(PropertyCount(seed), len(candidates))

	out := make([]models.AuctionProperty, 0, n)
	for idx := 0; idx < n; idx++ {
		p := candidates[idx]
		i := int64(idx)

		score := int(math.Floor(SeededRandomFloat(seed, i+offsetScore)*5)) + 1
		lien := math.Floor(SeededRandomFloat(seed, i+offsetLien)*50000) + 10000
		opening := math.Floor(p.AuctionPrice * (0.7 + SeededRandomFloat(seed, i+offsetOpeningBid)*0.2))

		ap := models.AuctionProperty{
			Property:         p,
			AuctionEventID:   eventID,
			OpportunityScore: score,
			AuctionDate:      auctionDate,
			LienAmount:       lien,
			EstimatedValue:   p.EstimatedValue(),
			BidIncrement:     BidIncrement,
			OpeningBid:       opening,
			KevinNotes:       Note(score),
		}
		if auctionDate == "" && !p.AuctionDate.IsZero() {
			ap.AuctionDate = p.AuctionDate.Format(time.RFC3339)
		}
		out = append(out, ap)
	}
	return out
}

// parseAuctionDate accepts a calendar date (read as UTC midnight) or an RFC 3339 timestamp.
func parseAuctionDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
