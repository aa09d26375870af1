package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casa_subastas/attom"
	"casa_subastas/config"
	"casa_subastas/models"
	"casa_subastas/storage"
)

var testNow = time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string][][]attom.Property
	errs    map[string]error
	calls   []attom.Query
	onFetch func(q attom.Query)
}

func (f *fakeFetcher) FetchForeclosureProperties(ctx context.Context, q attom.Query) (*attom.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	hook := f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook(q)
	}

	if err := f.errs[q.State]; err != nil {
		return nil, err
	}
	pages := f.pages[q.State]
	if q.Page > len(pages) {
		return &attom.Response{}, nil
	}
	return &attom.Response{Property: pages[q.Page-1]}, nil
}

type fakeImages struct{}

func (fakeImages) Enrich(ctx context.Context, address string, score int) []models.PropertyImage {
	return []models.PropertyImage{{URL: "https://img.test/" + address, Type: models.ImageStreetView, Caption: "Vista desde la calle"}}
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	finished []string
}

func (r *fakeRecorder) SyncProperty(state, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func (r *fakeRecorder) SyncStarted() {}

func (r *fakeRecorder) SyncFinished(syncType, status string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, syncType+":"+status)
}

// failingStore fails CreateProperty for addresses containing failOn.
type failingStore struct {
	*storage.SQLiteStore
	failOn string
}

func (s *failingStore) CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error) {
	if s.failOn != "" && strings.Contains(p.Address, s.failOn) {
		return nil, errors.New("disk full")
	}
	return s.SQLiteStore.CreateProperty(ctx, p)
}

func records(state string, n, offset int) []attom.Property {
	out := make([]attom.Property, n)
	for i := range out {
		out[i] = attom.Property{
			Address: attom.Address{
				OneLine:  fmt.Sprintf("%d Main St", offset+i+1),
				Locality: "Springfield",
				State:    state,
			},
			Assessment:  attom.Assessment{Market: attom.Market{MktTtlValue: 400000}},
			Foreclosure: &attom.Foreclosure{Amount: 200000, Date: "2025-09-01"},
		}
	}
	return out
}

func testConfig() config.SyncConfig {
	return config.SyncConfig{
		States:             []string{"FL", "TX"},
		PageSize:           25,
		MaxProperties:      1000,
		DailyMaxProperties: 500,
		Freshness:          24 * time.Hour,
	}
}

type harness struct {
	syncer   *Syncer
	fetcher  *fakeFetcher
	store    *failingStore
	recorder *fakeRecorder
	now      *time.Time
}

func newHarness(t *testing.T, cfg config.SyncConfig) *harness {
	t.Helper()

	sqlite, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	now := testNow
	h := &harness{
		fetcher:  &fakeFetcher{pages: map[string][][]attom.Property{}, errs: map[string]error{}},
		store:    &failingStore{SQLiteStore: sqlite},
		recorder: &fakeRecorder{},
		now:      &now,
	}
	clock := func() time.Time { return *h.now }
	transformer := attom.NewTransformerWithClock(clock, func() float64 { return 0.5 })
	h.syncer = New(cfg, h.fetcher, transformer, fakeImages{}, h.store, WithRecorder(h.recorder), WithClock(clock))
	return h
}

func TestSyncStates_AddsThenSkipsFresh(t *testing.T) {
	h := newHarness(t, testConfig())
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 3, 0)}
	h.fetcher.pages["TX"] = [][]attom.Property{records("TX", 2, 0)}

	result, err := h.syncer.SyncStates(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Added: 5, TotalProcessed: 5}, result)

	props, err := h.store.GetProperties(context.Background(), models.PropertyFilters{})
	require.NoError(t, err)
	require.Len(t, props, 5)
	for _, p := range props {
		require.Len(t, p.Images, 1)
		require.NotNil(t, p.LastSynced)
	}

	// within the freshness window nothing is written or counted
	*h.now = testNow.Add(time.Hour)
	result, err = h.syncer.SyncStates(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{}, result)
	assert.Equal(t, 5, h.recorder.outcomes["skipped"])

	props, err = h.store.GetProperties(context.Background(), models.PropertyFilters{})
	require.NoError(t, err)
	assert.Len(t, props, 5)
}

func TestSyncStates_UpdatesStaleOrForced(t *testing.T) {
	h := newHarness(t, testConfig())
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 2, 0)}

	_, err := h.syncer.SyncStates(context.Background(), Options{States: []string{"FL"}})
	require.NoError(t, err)

	result, err := h.syncer.SyncStates(context.Background(), Options{States: []string{"FL"}, ForceUpdate: true})
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Updated: 2, TotalProcessed: 2}, result)

	*h.now = testNow.Add(25 * time.Hour)
	result, err = h.syncer.SyncStates(context.Background(), Options{States: []string{"FL"}})
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Updated: 2, TotalProcessed: 2}, result)

	p, err := h.store.GetPropertyByAddress(context.Background(), "1 Main St", "Springfield", "FL")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.LastSynced.Equal(testNow.Add(25*time.Hour)))
	assert.True(t, p.CreatedAt.Equal(testNow))
}

func TestSyncState_PartialFailureIsolation(t *testing.T) {
	h := newHarness(t, testConfig())
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 10, 0)}
	h.store.failOn = "5 Main St"

	result, err := h.syncer.SyncState(context.Background(), "FL", Options{})
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Added: 9, Errors: 1, TotalProcessed: 9}, result)
}

func TestSyncState_MalformedRecordCountsAsError(t *testing.T) {
	h := newHarness(t, testConfig())
	page := records("FL", 3, 0)
	page[1].Address.OneLine = ""
	h.fetcher.pages["FL"] = [][]attom.Property{page}

	result, err := h.syncer.SyncState(context.Background(), "FL", Options{})
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Added: 2, Errors: 1, TotalProcessed: 2}, result)
}

func TestSyncState_UndecodableRecordCountsAsError(t *testing.T) {
	page := `{"status":{"total":3},"property":[
		{"address":{"oneLine":"1 Main St","locality":"Springfield","state":"FL"},"assessment":{"market":{"mktTtlValue":400000}}},
		{"address":{"oneLine":"2 Main St","locality":"Springfield","state":"FL"},"building":{"rooms":{"beds":"3"}}},
		{"address":{"oneLine":"3 Main St","locality":"Springfield","state":"FL"},"assessment":{"market":{"mktTtlValue":250000}}}
	]}`
	var resp attom.Response
	require.NoError(t, json.Unmarshal([]byte(page), &resp))
	require.Len(t, resp.Property, 3)

	h := newHarness(t, testConfig())
	h.fetcher.pages["FL"] = [][]attom.Property{resp.Property}

	result, err := h.syncer.SyncState(context.Background(), "FL", Options{})
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Added: 2, Errors: 1, TotalProcessed: 2}, result)

	missing, err := h.store.GetPropertyByAddress(context.Background(), "2 Main St", "Springfield", "FL")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSyncState_Paging(t *testing.T) {
	cfg := testConfig()
	cfg.PageSize = 5
	h := newHarness(t, cfg)
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 5, 0), records("FL", 5, 5), records("FL", 2, 10)}

	result, err := h.syncer.SyncState(context.Background(), "FL", Options{})
	require.NoError(t, err)
	assert.Equal(t, 12, result.Added)
	// the short third page ends paging without a fourth request
	assert.Len(t, h.fetcher.calls, 3)
	assert.Equal(t, 3, h.fetcher.calls[2].Page)
	assert.Equal(t, 5, h.fetcher.calls[2].PageSize)
}

func TestSyncState_EmptyPageEndsPaging(t *testing.T) {
	cfg := testConfig()
	cfg.PageSize = 2
	h := newHarness(t, cfg)
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 2, 0)}

	result, err := h.syncer.SyncState(context.Background(), "FL", Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Len(t, h.fetcher.calls, 2)
}

func TestSyncState_MaxPropertiesCheckedPerPage(t *testing.T) {
	cfg := testConfig()
	cfg.PageSize = 4
	h := newHarness(t, cfg)
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 4, 0), records("FL", 4, 4), records("FL", 4, 8)}

	result, err := h.syncer.SyncState(context.Background(), "FL", Options{MaxProperties: 6})
	require.NoError(t, err)
	assert.Equal(t, 8, result.TotalProcessed)
	assert.Len(t, h.fetcher.calls, 2)
}

func TestSyncStates_PageErrorStopsOnlyThatState(t *testing.T) {
	h := newHarness(t, testConfig())
	h.fetcher.errs["FL"] = errors.New("connection reset")
	h.fetcher.pages["TX"] = [][]attom.Property{records("TX", 3, 0)}

	result, err := h.syncer.SyncStates(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Added: 3, Errors: 1, TotalProcessed: 3}, result)
}

func TestRunDaily_LogsResult(t *testing.T) {
	cfg := testConfig()
	cfg.DailyMaxProperties = 1
	cfg.PageSize = 2
	h := newHarness(t, cfg)
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 2, 0), records("FL", 2, 2)}
	h.fetcher.pages["TX"] = [][]attom.Property{records("TX", 1, 0)}

	result, err := h.syncer.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SyncResult{Added: 3, TotalProcessed: 3}, result)

	entry, err := h.store.GetLatestSyncLog(context.Background(), models.SyncTypeDaily)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.RunStatusCompleted, entry.Status)
	assert.Equal(t, result, entry.Result())
	assert.NotEmpty(t, entry.RunID)

	require.NotNil(t, h.syncer.LastRun())
	assert.Equal(t, entry.RunID, h.syncer.LastRun().RunID)
	assert.Equal(t, []string{"daily_sync:completed"}, h.recorder.finished)
}

func TestRunDaily_CallsAfterRun(t *testing.T) {
	h := newHarness(t, testConfig())
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 2, 0)}

	var got []*models.SyncLog
	h.syncer.afterRun = func(ctx context.Context, entry *models.SyncLog) {
		require.NoError(t, ctx.Err())
		got = append(got, entry)
	}

	_, err := h.syncer.RunDaily(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.SyncTypeDaily, got[0].Type)
	assert.Equal(t, 2, got[0].Added)

	// bare SyncStates calls are not logged runs
	*h.now = testNow.Add(48 * time.Hour)
	_, err = h.syncer.SyncStates(context.Background(), Options{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRunManual_LogsManualType(t *testing.T) {
	h := newHarness(t, testConfig())
	h.fetcher.pages["GA"] = [][]attom.Property{records("GA", 1, 0)}

	result, err := h.syncer.RunManual(context.Background(), Options{States: []string{"GA"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	entry, err := h.store.GetLatestSyncLog(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.SyncTypeManual, entry.Type)
}

func TestSyncInProgressGuard(t *testing.T) {
	h := newHarness(t, testConfig())
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 1, 0)}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	h.fetcher.onFetch = func(attom.Query) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	done := make(chan error, 1)
	go func() {
		_, err := h.syncer.RunManual(context.Background(), Options{States: []string{"FL"}})
		done <- err
	}()

	<-entered
	assert.True(t, h.syncer.Running())
	_, err := h.syncer.RunDaily(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	_, err = h.syncer.SyncStates(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, h.syncer.Running())
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := testConfig()
	cfg.PropertyDelay = time.Hour
	h := newHarness(t, cfg)
	h.fetcher.pages["FL"] = [][]attom.Property{records("FL", 3, 0)}

	ctx, cancel := context.WithCancel(context.Background())
	h.fetcher.onFetch = func(attom.Query) { cancel() }

	result, err := h.syncer.RunManual(ctx, Options{States: []string{"FL"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.TotalProcessed)

	entry, logErr := h.store.GetLatestSyncLog(context.Background(), models.SyncTypeManual)
	require.NoError(t, logErr)
	require.NotNil(t, entry)
	assert.Equal(t, models.RunStatusCancelled, entry.Status)
}
