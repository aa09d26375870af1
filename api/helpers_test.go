package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"casa_subastas/api/response"
	"casa_subastas/auction"
	"casa_subastas/cache"
	"casa_subastas/config"
	"casa_subastas/images"
	"casa_subastas/models"
	"casa_subastas/scheduler"
	"casa_subastas/storage"
	"casa_subastas/syncer"
)

var testNow = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

type fakeSyncer struct {
	mu      sync.Mutex
	calls   []syncer.Options
	result  models.SyncResult
	err     error
	running bool
	lastRun *models.SyncLog
}

func (f *fakeSyncer) RunManual(ctx context.Context, opts syncer.Options) (models.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, opts)
	return f.result, f.err
}

func (f *fakeSyncer) Running() bool            { return f.running }
func (f *fakeSyncer) LastRun() *models.SyncLog { return f.lastRun }

type fakeScheduler struct {
	enabled bool
}

func (f *fakeScheduler) Status() []scheduler.JobStatus {
	return []scheduler.JobStatus{{Name: scheduler.DailySyncJob, Schedule: "0 2 * * *", Enabled: f.enabled}}
}

func (f *fakeScheduler) EnableJob(name string) (bool, error) {
	if name != scheduler.DailySyncJob {
		return false, nil
	}
	f.enabled = true
	return true, nil
}

func (f *fakeScheduler) DisableJob(name string) bool {
	if name != scheduler.DailySyncJob {
		return false
	}
	f.enabled = false
	return true
}

type routeRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *routeRecorder) HTTPRequest(method, route string, code int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, method+" "+route)
}

type testEnv struct {
	store     *storage.SQLiteStore
	syncer    *fakeSyncer
	scheduler *fakeScheduler
	cache     *cache.MemoryCache
	recorder  *routeRecorder
	handler   http.Handler
}

type envOption func(*Config)

func withAdminKey(key string) envOption {
	return func(c *Config) { c.AdminKey = key }
}

func withoutSync() envOption {
	return func(c *Config) {
		c.Syncer = nil
		c.Scheduler = nil
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		store:     store,
		syncer:    &fakeSyncer{},
		scheduler: &fakeScheduler{enabled: true},
		cache:     cache.NewMemoryCache(time.Minute),
		recorder:  &routeRecorder{},
	}

	cfg := Config{
		Store:     store,
		Events:    auction.NewEventGeneratorAt(func() time.Time { return testNow }),
		Images:    images.NewEnricher(config.MapsConfig{APIKey: "maps-key"}, nil),
		Syncer:    env.syncer,
		Scheduler: env.scheduler,
		Cache:     env.cache,
		CacheTTL:  time.Minute,
		Recorder:  env.recorder,
		Now:       func() time.Time { return testNow },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	env.handler = NewRouter(cfg)
	return env
}

func (e *testEnv) seed(t *testing.T, address, city, state string, discount int, price float64) *models.Property {
	t.Helper()
	p, err := e.store.CreateProperty(context.Background(), &models.Property{
		Address:       address,
		City:          city,
		State:         state,
		County:        city + " County",
		PropertyType:  "Casa",
		Bedrooms:      3,
		Bathrooms:     2,
		Sqft:          1600,
		OriginalPrice: 300000,
		AuctionPrice:  price,
		Discount:      discount,
		AuctionType:   "foreclosure",
		AuctionDate:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		Images:        []models.PropertyImage{images.Placeholder()},
	})
	require.NoError(t, err)
	return p
}

type request struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func (e *testEnv) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != "" {
		body = strings.NewReader(req.body)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func (e *testEnv) get(t *testing.T, path string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, request{method: http.MethodGet, path: path, headers: headerMap(headers)})
}

func headerMap(kv []string) map[string]string {
	m := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    *response.Meta  `json:"meta"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	env := decode(t, rec)
	require.True(t, env.Success, rec.Body.String())
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
