package attom

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"casa_subastas/config"
)

const testBaseURL = "https://api.attom.test/propertyapi/v1.0.0"

var testNow = time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	return string(data)
}

// fixedRand returns the same draw every time
func fixedRand(v float64) func() float64 {
	return func() float64 { return v }
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []string
	tiers    []string
}

func (r *fakeRecorder) UpstreamRequest(source, endpoint, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, endpoint+":"+outcome)
}

func (r *fakeRecorder) FallbackTier(tier string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiers = append(r.tiers, tier)
}

func setupMockClient(t *testing.T, demo bool) (*Client, *fakeRecorder) {
	t.Helper()

	httpClient := &http.Client{Timeout: 5 * time.Second}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	rec := &fakeRecorder{}
	cfg := config.AttomConfig{
		APIKey:       "test-key",
		BaseURL:      testBaseURL,
		DemoFallback: demo,
	}
	c, err := NewClient(cfg, httpClient, WithRecorder(rec), WithClock(func() time.Time { return testNow }, fixedRand(0.5)))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, rec
}

func registerSnapshot(status int, body string) {
	httpmock.RegisterResponder("GET", `=~^https://api\.attom\.test/propertyapi/v1\.0\.0/foreclosure/snapshot`,
		httpmock.NewStringResponder(status, body))
}

func registerSearch(status int, body string) {
	httpmock.RegisterResponder("GET", `=~^https://api\.attom\.test/propertyapi/v1\.0\.0/property/address`,
		httpmock.NewStringResponder(status, body))
}
