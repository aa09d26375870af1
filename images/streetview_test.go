package images

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casa_subastas/config"
	"casa_subastas/models"
)

const testAddress = "123 Main St, Miami, FL"

func TestEnrich_NoKeyUsesPlaceholder(t *testing.T) {
	e := NewEnricher(config.MapsConfig{}, nil)

	imgs := e.Enrich(context.Background(), testAddress, 3)
	require.Len(t, imgs, 1)
	assert.Equal(t, PlaceholderURL, imgs[0].URL)
	assert.Equal(t, models.ImagePlaceholder, imgs[0].Type)
	assert.Equal(t, FrontCaption, imgs[0].Caption)

	assert.Equal(t, PlaceholderURL, e.StreetViewURL(testAddress, 0))
	assert.Equal(t, PlaceholderURL, e.AerialViewURL(testAddress))
	assert.False(t, e.Available(context.Background(), testAddress))
}

func TestEnrich_NoKeyPremiumKeepsAngles(t *testing.T) {
	e := NewEnricher(config.MapsConfig{}, nil)

	imgs := e.Enrich(context.Background(), testAddress, 5)
	require.Len(t, imgs, 4)

	wantCaptions := []string{FrontCaption, "Vista Este", "Vista Sur", "Vista Oeste"}
	wantHeadings := []int{0, 90, 180, 270}
	for i, img := range imgs {
		assert.Equal(t, PlaceholderURL, img.URL)
		assert.Equal(t, models.ImagePlaceholder, img.Type)
		assert.Equal(t, wantCaptions[i], img.Caption)
		require.NotNil(t, img.Heading)
		assert.Equal(t, wantHeadings[i], *img.Heading)
	}
}

func TestEnrich_FrontViewOnly(t *testing.T) {
	e := NewEnricher(config.MapsConfig{APIKey: "maps-key"}, nil)

	imgs := e.Enrich(context.Background(), testAddress, 3)
	require.Len(t, imgs, 1)
	assert.Equal(t, models.ImageStreetView, imgs[0].Type)
	assert.Equal(t, FrontCaption, imgs[0].Caption)
	require.NotNil(t, imgs[0].Heading)
	assert.Equal(t, 0, *imgs[0].Heading)

	u, err := url.Parse(imgs[0].URL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "maps.googleapis.com", u.Host)
	assert.Equal(t, "/maps/api/streetview", u.Path)
	assert.Equal(t, testAddress, q.Get("location"))
	assert.Equal(t, "640x400", q.Get("size"))
	assert.Equal(t, "maps-key", q.Get("key"))
	assert.Equal(t, "0", q.Get("heading"))
	assert.Equal(t, "-10", q.Get("pitch"))
	assert.Equal(t, "75", q.Get("fov"))
}

func TestEnrich_PremiumAddsAngles(t *testing.T) {
	e := NewEnricher(config.MapsConfig{APIKey: "maps-key"}, nil)

	imgs := e.Enrich(context.Background(), testAddress, 4)
	require.Len(t, imgs, 4)

	wantCaptions := []string{FrontCaption, "Vista Este", "Vista Sur", "Vista Oeste"}
	wantHeadings := []int{0, 90, 180, 270}
	for i, img := range imgs {
		assert.Equal(t, wantCaptions[i], img.Caption)
		require.NotNil(t, img.Heading)
		assert.Equal(t, wantHeadings[i], *img.Heading)

		u, err := url.Parse(img.URL)
		require.NoError(t, err)
		assert.Equal(t, wantHeadings[i], mustInt(t, u.Query().Get("heading")))
	}
}

func TestAerialViewURL(t *testing.T) {
	e := NewEnricher(config.MapsConfig{APIKey: "maps-key"}, nil)

	u, err := url.Parse(e.AerialViewURL(testAddress))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/maps/api/staticmap", u.Path)
	assert.Equal(t, testAddress, q.Get("center"))
	assert.Equal(t, "18", q.Get("zoom"))
	assert.Equal(t, "satellite", q.Get("maptype"))

	img := e.AerialImage(testAddress)
	assert.Equal(t, models.ImageAerial, img.Type)
}

func TestAvailable_CachesMetadata(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	calls := 0
	httpmock.RegisterResponder("GET", `=~^https://maps\.test/streetview/metadata`,
		func(req *http.Request) (*http.Response, error) {
			calls++
			status := "ZERO_RESULTS"
			if req.URL.Query().Get("location") == testAddress {
				status = "OK"
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"status": status})
		})

	e := NewEnricher(config.MapsConfig{APIKey: "maps-key", CheckAvailability: true}, client,
		WithBaseURLs("https://maps.test/streetview", "https://maps.test/staticmap"))

	ctx := context.Background()
	assert.True(t, e.Available(ctx, testAddress))
	assert.True(t, e.Available(ctx, testAddress))
	assert.Equal(t, 1, calls)

	imgs := e.Enrich(ctx, "1 Nowhere Rd, Nowhere, WY", 5)
	require.Len(t, imgs, 1)
	assert.Equal(t, models.ImagePlaceholder, imgs[0].Type)
	assert.Equal(t, 2, calls)
}

func TestAvailable_ErrorIsNotCached(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	calls := 0
	httpmock.RegisterResponder("GET", `=~^https://maps\.test/streetview/metadata`,
		func(req *http.Request) (*http.Response, error) {
			calls++
			return httpmock.NewStringResponse(http.StatusInternalServerError, "oops"), nil
		})

	e := NewEnricher(config.MapsConfig{APIKey: "maps-key", CheckAvailability: true}, client,
		WithBaseURLs("https://maps.test/streetview", "https://maps.test/staticmap"))

	assert.False(t, e.Available(context.Background(), testAddress))
	assert.False(t, e.Available(context.Background(), testAddress))
	assert.Equal(t, 2, calls)
}

func TestDirectionName(t *testing.T) {
	tests := map[int]string{0: "Norte", 44: "Norte", 90: "Este", 180: "Sur", 270: "Oeste", 315: "Norte", 360: "Norte", -90: "Oeste"}
	for heading, want := range tests {
		assert.Equal(t, want, DirectionName(heading), "heading %d", heading)
	}
}

func TestFullAddress(t *testing.T) {
	assert.Equal(t, "1 Main St, Austin, TX", FullAddress("1 Main St", "Austin", "TX"))
}

func mustInt(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
