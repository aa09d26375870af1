package attom

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casa_subastas/config"
)

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(config.AttomConfig{APIKey: "   "}, nil)
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestFetch_SnapshotTier(t *testing.T) {
	c, rec := setupMockClient(t, true)

	fixture := loadFixture(t, "foreclosure_snapshot.json")
	httpmock.RegisterResponder("GET", `=~^https://api\.attom\.test/propertyapi/v1\.0\.0/foreclosure/snapshot`,
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "test-key", q.Get("apikey"))
			assert.Equal(t, "FL", q.Get("state"))
			assert.Equal(t, "2", q.Get("page"))
			assert.Equal(t, "25", q.Get("pagesize"))
			assert.Equal(t, "application/json", req.Header.Get("Accept"))
			assert.Equal(t, "Tu Casa en Subasta/1.0", req.Header.Get("User-Agent"))
			return httpmock.NewStringResponse(http.StatusOK, fixture), nil
		})

	resp, err := c.FetchForeclosureProperties(context.Background(), Query{State: "FL", Page: 2})
	require.NoError(t, err)
	require.Len(t, resp.Property, 2)

	first := resp.Property[0]
	assert.Equal(t, "145223", first.Identifier.ID.String())
	assert.Equal(t, "4529 Winona Ct", first.Address.OneLine)
	assert.Equal(t, "33137", first.Address.Postal1.String())
	assert.Equal(t, 150000.0, first.Foreclosure.Amount)

	second := resp.Property[1]
	assert.Equal(t, "145224", second.Identifier.ID.String())
	assert.Equal(t, "12011", second.Identifier.FIPS.String())
	assert.Equal(t, "33301", second.Address.Postal1.String())
	assert.Nil(t, second.Foreclosure)

	assert.Equal(t, []string{"foreclosure_snapshot"}, rec.tiers)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestFetch_FallsBackToEnhancedSearch(t *testing.T) {
	c, rec := setupMockClient(t, true)

	registerSnapshot(http.StatusNotFound, `{"status":{"msg":"not available"}}`)
	httpmock.RegisterResponder("GET", `=~^https://api\.attom\.test/propertyapi/v1\.0\.0/property/address`,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "10", req.URL.Query().Get("pagesize"))
			return httpmock.NewStringResponse(http.StatusOK, loadFixture(t, "foreclosure_snapshot.json")), nil
		})

	resp, err := c.FetchForeclosureProperties(context.Background(), Query{State: "FL", PageSize: 25})
	require.NoError(t, err)
	assert.Equal(t, EnhancedStatusMsg, resp.Status.Msg)
	require.Len(t, resp.Property, 2)

	// market 400000 * (0.6 + 0.5*0.2)
	f := resp.Property[0].Foreclosure
	require.NotNil(t, f)
	assert.Equal(t, 280000.0, f.Amount)
	assert.Equal(t, "foreclosure", f.Type)
	assert.Equal(t, "1-800-AUCTION", f.TrusteePhone)
	assert.Equal(t, "2025-09-15T12:00:00Z", f.Date)

	// no assessed market value falls back to 300000
	assert.Equal(t, 210000.0, resp.Property[1].Foreclosure.Amount)

	assert.Equal(t, []string{"property_search_enhanced"}, rec.tiers)
	assert.Contains(t, rec.requests, "/foreclosure/snapshot:http_404")
}

func TestFetch_FallsBackToDemoData(t *testing.T) {
	c, rec := setupMockClient(t, true)

	registerSnapshot(http.StatusInternalServerError, "boom")
	registerSearch(http.StatusServiceUnavailable, "down")

	for _, state := range []string{"FL", "NY", "WY"} {
		resp, err := c.FetchForeclosureProperties(context.Background(), Query{State: state, PageSize: 25})
		require.NoError(t, err)
		assert.Equal(t, DemoStatusMsg, resp.Status.Msg)
		assert.Len(t, resp.Property, 25, state)
	}
	assert.Equal(t, "demo_dataset", rec.tiers[0])
}

func TestFetch_AuthFailureDoesNotFallBack(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			c, rec := setupMockClient(t, true)
			registerSnapshot(status, `{"error":"invalid key"}`)
			registerSearch(http.StatusOK, loadFixture(t, "foreclosure_snapshot.json"))

			resp, err := c.FetchForeclosureProperties(context.Background(), Query{State: "TX"})
			require.Nil(t, resp)
			require.ErrorIs(t, err, ErrUpstreamAuth)
			assert.Empty(t, rec.tiers)

			assert.Equal(t, 1, httpmock.GetTotalCallCount())
		})
	}
}

func TestFetch_AllTiersFailWithoutDemo(t *testing.T) {
	c, _ := setupMockClient(t, false)
	registerSnapshot(http.StatusInternalServerError, "boom")
	registerSearch(http.StatusBadGateway, "bad gateway")

	_, err := c.FetchForeclosureProperties(context.Background(), Query{State: "CA"})
	require.ErrorIs(t, err, ErrAllTiersFailed)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "/property/address", statusErr.Endpoint)
}

func TestFetch_MalformedJSONIsUnavailable(t *testing.T) {
	c, rec := setupMockClient(t, true)
	registerSnapshot(http.StatusOK, "{not json")
	registerSearch(http.StatusOK, `{"status":{"total":0},"property":[]}`)

	resp, err := c.FetchForeclosureProperties(context.Background(), Query{State: "GA"})
	require.NoError(t, err)
	assert.Empty(t, resp.Property)
	assert.Contains(t, rec.requests, "/foreclosure/snapshot:decode_error")
}

func TestFetch_BadRecordKeepsPage(t *testing.T) {
	c, rec := setupMockClient(t, true)
	registerSnapshot(http.StatusOK, loadFixture(t, "snapshot_mixed.json"))

	resp, err := c.FetchForeclosureProperties(context.Background(), Query{State: "FL"})
	require.NoError(t, err)
	require.Len(t, resp.Property, 3)
	assert.Equal(t, []string{"foreclosure_snapshot"}, rec.tiers)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	assert.NoError(t, resp.Property[0].Err())
	assert.Equal(t, "10 Coral Way", resp.Property[0].Address.OneLine)
	require.ErrorIs(t, resp.Property[1].Err(), ErrMalformedRecord)
	assert.Equal(t, "30 Coral Way", resp.Property[2].Address.OneLine)

	tr := NewTransformerWithClock(func() time.Time { return testNow }, fixedRand(0.5))
	_, err = tr.Transform(&resp.Property[1], 1)
	require.ErrorIs(t, err, ErrMalformedRecord)
	_, err = tr.Transform(&resp.Property[2], 2)
	require.NoError(t, err)
}

func TestFetch_CancelledContext(t *testing.T) {
	c, _ := setupMockClient(t, true)
	registerSnapshot(http.StatusOK, loadFixture(t, "foreclosure_snapshot.json"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchForeclosureProperties(ctx, Query{State: "FL"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestGetPropertyDetail(t *testing.T) {
	c, _ := setupMockClient(t, true)
	httpmock.RegisterResponder("GET", `=~^https://api\.attom\.test/propertyapi/v1\.0\.0/property/detail`,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "145223", req.URL.Query().Get("id"))
			return httpmock.NewStringResponse(http.StatusOK, loadFixture(t, "foreclosure_snapshot.json")), nil
		})

	p, err := c.GetPropertyDetail(context.Background(), "145223")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "4529 Winona Ct", p.Address.OneLine)
}

func TestRedact(t *testing.T) {
	c := &Client{apiKey: "abc/123"}
	u := testBaseURL + "/foreclosure/snapshot?apikey=abc%2F123&state=FL"
	got := c.redact(u)
	assert.False(t, strings.Contains(got, "abc%2F123"))
	assert.Contains(t, got, "apikey=API_KEY_HIDDEN")
}
