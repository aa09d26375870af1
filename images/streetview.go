package images

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"casa_subastas/config"
	"casa_subastas/models"
)

const (
	DefaultStreetViewURL = "https://maps.googleapis.com/maps/api/streetview"
	DefaultStaticMapURL  = "https://maps.googleapis.com/maps/api/staticmap"

	PlaceholderURL     = "/api/placeholder-property-image"
	PlaceholderCaption = "Imagen no disponible"
	FrontCaption       = "Vista desde la calle"

	imageSize = "640x400"
	pitch     = -10
	fov       = 75

	// PremiumScore is the opportunity score at which extra angles are added.
	PremiumScore = 4
)

var extraHeadings = []int{90, 180, 270}

// Enricher builds Street View image descriptors for a property address.
// Without an API key the descriptors point at the placeholder image.
type Enricher struct {
	apiKey            string
	streetViewURL     string
	staticMapURL      string
	httpClient        *http.Client
	checkAvailability bool
	available         *cache.Cache
}

type Option func(*Enricher)

// WithBaseURLs points the enricher at different Street View and Static Maps endpoints.
func WithBaseURLs(streetView, staticMap string) Option {
	return func(e *Enricher) {
		e.streetViewURL = strings.TrimRight(streetView, "/")
		e.staticMapURL = strings.TrimRight(staticMap, "/")
	}
}

func NewEnricher(cfg config.MapsConfig, httpClient *http.Client, opts ...Option) *Enricher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	e := &Enricher{
		apiKey:            strings.TrimSpace(cfg.APIKey),
		streetViewURL:     DefaultStreetViewURL,
		staticMapURL:      DefaultStaticMapURL,
		httpClient:        httpClient,
		checkAvailability: cfg.CheckAvailability,
		available:         cache.New(ttl, ttl*2),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.apiKey == "" {
		log.Println("Warning: GOOGLE_MAPS_API_KEY not configured - property images will use placeholders")
	}
	return e
}

// Configured reports whether a Maps API key is set.
func (e *Enricher) Configured() bool {
	return e.apiKey != ""
}

// Enrich returns the front view plus, for premium scores, three more
// headings. It never fails. Without a key every heading gets the placeholder
// URL; an address the metadata check reports as uncovered gets a single
// placeholder.
func (e *Enricher) Enrich(ctx context.Context, address string, score int) []models.PropertyImage {
	imgType := models.ImageStreetView
	if !e.Configured() {
		imgType = models.ImagePlaceholder
	} else if e.checkAvailability && !e.Available(ctx, address) {
		return []models.PropertyImage{Placeholder()}
	}

	front := 0
	images := []models.PropertyImage{{
		URL:     e.StreetViewURL(address, front),
		Type:    imgType,
		Caption: FrontCaption,
		Heading: &front,
	}}

	if score >= PremiumScore {
		for _, h := range extraHeadings {
			heading := h
			images = append(images, models.PropertyImage{
				URL:     e.StreetViewURL(address, heading),
				Type:    imgType,
				Caption: "Vista " + DirectionName(heading),
				Heading: &heading,
			})
		}
	}
	return images
}

// StreetViewURL returns the image URL for one heading, or the placeholder
// URL when no key is configured.
func (e *Enricher) StreetViewURL(address string, heading int) string {
	if !e.Configured() {
		return PlaceholderURL
	}
	v := url.Values{}
	v.Set("location", address)
	v.Set("size", imageSize)
	v.Set("key", e.apiKey)
	v.Set("heading", strconv.Itoa(heading))
	v.Set("pitch", strconv.Itoa(pitch))
	v.Set("fov", strconv.Itoa(fov))
	return e.streetViewURL + "?" + v.Encode()
}

// AerialViewURL returns a satellite Static Maps URL centered on the address.
func (e *Enricher) AerialViewURL(address string) string {
	if !e.Configured() {
		return PlaceholderURL
	}
	v := url.Values{}
	v.Set("center", address)
	v.Set("zoom", "18")
	v.Set("size", imageSize)
	v.Set("maptype", "satellite")
	v.Set("key", e.apiKey)
	return e.staticMapURL + "?" + v.Encode()
}

// AerialImage wraps AerialViewURL as an image descriptor.
func (e *Enricher) AerialImage(address string) models.PropertyImage {
	if !e.Configured() {
		return Placeholder()
	}
	return models.PropertyImage{URL: e.AerialViewURL(address), Type: models.ImageAerial, Caption: "Vista aérea"}
}

type metadataResponse struct {
	Status string `json:"status"`
}

// Available asks the Street View metadata endpoint whether imagery exists.
// Answers are cached per address; request failures count as unavailable and
// are not cached.
func (e *Enricher) Available(ctx context.Context, address string) bool {
	if !e.Configured() {
		return false
	}
	key := strings.ToLower(strings.TrimSpace(address))
	if v, found := e.available.Get(key); found {
		if ok, isBool := v.(bool); isBool {
			return ok
		}
	}

	ok, err := e.fetchAvailability(ctx, address)
	if err != nil {
		log.Printf("Error checking Street View availability: %v", err)
		return false
	}
	e.available.Set(key, ok, cache.DefaultExpiration)
	return ok
}

func (e *Enricher) fetchAvailability(ctx context.Context, address string) (bool, error) {
	v := url.Values{}
	v.Set("location", address)
	v.Set("key", e.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.streetViewURL+"/metadata?"+v.Encode(), nil)
	if err != nil {
		return false, err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("metadata returned %d", resp.StatusCode)
	}
	var meta metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return false, fmt.Errorf("decode metadata: %w", err)
	}
	return meta.Status == "OK", nil
}

// Placeholder is the image used when no real imagery can be produced.
func Placeholder() models.PropertyImage {
	return models.PropertyImage{URL: PlaceholderURL, Type: models.ImagePlaceholder, Caption: PlaceholderCaption}
}

// DirectionName maps a compass heading to its Spanish direction.
func DirectionName(heading int) string {
	h := ((heading % 360) + 360) % 360
	switch {
	case h >= 315 || h < 45:
		return "Norte"
	case h < 135:
		return "Este"
	case h < 225:
		return "Sur"
	default:
		return "Oeste"
	}
}

// FullAddress joins the parts used as the Street View location.
func FullAddress(address, city, state string) string {
	return fmt.Sprintf("%s, %s, %s", address, city, state)
}
