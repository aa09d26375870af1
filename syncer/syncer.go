package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"casa_subastas/attom"
	"casa_subastas/config"
	"casa_subastas/images"
	"casa_subastas/models"
)

var ErrSyncInProgress = errors.New("a property sync is already running")

type Fetcher interface {
	FetchForeclosureProperties(ctx context.Context, q attom.Query) (*attom.Response, error)
}

type Transformer interface {
	Transform(p *attom.Property, index int) (*models.Property, error)
}

type ImageSource interface {
	Enrich(ctx context.Context, address string, score int) []models.PropertyImage
}

type Store interface {
	GetPropertyByAddress(ctx context.Context, address, city, state string) (*models.Property, error)
	CreateProperty(ctx context.Context, p *models.Property) (*models.Property, error)
	UpdateProperty(ctx context.Context, id int64, p *models.Property) (*models.Property, error)
	LogSyncResult(ctx context.Context, l *models.SyncLog) error
}

// Recorder receives sync outcomes. metrics.Metrics implements it.
type Recorder interface {
	SyncProperty(state, outcome string)
	SyncStarted()
	SyncFinished(syncType, status string, d time.Duration)
}

// Options control one sync run. Zero values fall back to the configured
// defaults.
type Options struct {
	States        []string `json:"states,omitempty"`
	MaxProperties int      `json:"maxProperties,omitempty"`
	ForceUpdate   bool     `json:"forceUpdate,omitempty"`
}

type outcome string

const (
	outcomeAdded   outcome = "added"
	outcomeUpdated outcome = "updated"
	outcomeSkipped outcome = "skipped"
	outcomeError   outcome = "error"
)

// Syncer pulls foreclosure records state by state and upserts them. Runs are
// sequential and throttled; at most one run is active at a time.
type Syncer struct {
	cfg         config.SyncConfig
	fetcher     Fetcher
	transformer Transformer
	images      ImageSource
	store       Store
	recorder    Recorder
	afterRun    func(ctx context.Context, entry *models.SyncLog)
	now         func() time.Time

	running atomic.Bool
	mu      sync.RWMutex
	lastRun *models.SyncLog
}

type Option func(*Syncer)

func WithRecorder(r Recorder) Option {
	return func(s *Syncer) { s.recorder = r }
}

// WithAfterRun registers fn to be called after every logged run, scheduled or
// manual, once the log record has been written.
func WithAfterRun(fn func(ctx context.Context, entry *models.SyncLog)) Option {
	return func(s *Syncer) { s.afterRun = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

func New(cfg config.SyncConfig, fetcher Fetcher, transformer Transformer, imgs ImageSource, store Store, opts ...Option) *Syncer {
	if cfg.PageSize <= 0 {
		cfg.PageSize = attom.DefaultPageSize
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = 24 * time.Hour
	}

	s := &Syncer{
		cfg:         cfg,
		fetcher:     fetcher,
		transformer: transformer,
		images:      imgs,
		store:       store,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Running reports whether a sync is in progress.
func (s *Syncer) Running() bool {
	return s.running.Load()
}

// LastRun returns the log of the most recent finished run in this process.
func (s *Syncer) LastRun() *models.SyncLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// RunDaily is the scheduled entry point: configured states, the daily cap,
// no forced updates. The result is persisted as a daily_sync log.
func (s *Syncer) RunDaily(ctx context.Context) (models.SyncResult, error) {
	log.Println("Starting daily property data sync...")
	return s.run(ctx, models.SyncTypeDaily, Options{MaxProperties: s.cfg.DailyMaxProperties})
}

// RunManual runs an operator-triggered sync and persists it as a manual_sync log.
func (s *Syncer) RunManual(ctx context.Context, opts Options) (models.SyncResult, error) {
	return s.run(ctx, models.SyncTypeManual, opts)
}

// SyncStates syncs every requested state without writing a log record. It
// only fails when another run is active or ctx is cancelled; per-state and
// per-property failures are counted in the result.
func (s *Syncer) SyncStates(ctx context.Context, opts Options) (models.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.SyncResult{}, ErrSyncInProgress
	}
	defer s.running.Store(false)

	return s.syncStates(ctx, opts)
}

// SyncState syncs a single state.
func (s *Syncer) SyncState(ctx context.Context, state string, opts Options) (models.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.SyncResult{}, ErrSyncInProgress
	}
	defer s.running.Store(false)

	return s.syncState(ctx, state, s.resolve(opts))
}

func (s *Syncer) run(ctx context.Context, syncType models.SyncType, opts Options) (models.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.SyncResult{}, ErrSyncInProgress
	}
	defer s.running.Store(false)

	if s.recorder != nil {
		s.recorder.SyncStarted()
	}

	started := s.now()
	entry := &models.SyncLog{
		RunID:  uuid.New().String(),
		Date:   started,
		Type:   syncType,
		Status: models.RunStatusCompleted,
	}

	result, err := s.syncStates(ctx, opts)
	if err != nil {
		entry.Status = models.RunStatusCancelled
	}

	elapsed := s.now().Sub(started)
	entry.Added = result.Added
	entry.Updated = result.Updated
	entry.Errors = result.Errors
	entry.TotalProcessed = result.TotalProcessed
	entry.DurationMS = elapsed.Milliseconds()

	// the run's ctx may be cancelled; the log write still has to happen
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if logErr := s.store.LogSyncResult(logCtx, entry); logErr != nil {
		log.Printf("Warning: failed to log sync result: %v", logErr)
	}

	s.mu.Lock()
	s.lastRun = entry
	s.mu.Unlock()

	if s.afterRun != nil {
		s.afterRun(logCtx, entry)
	}

	if s.recorder != nil {
		s.recorder.SyncFinished(string(syncType), string(entry.Status), elapsed)
	}

	log.Printf("%s %s: %d added, %d updated, %d errors, %d processed in %s",
		syncType, entry.Status, result.Added, result.Updated, result.Errors, result.TotalProcessed, elapsed.Round(time.Millisecond))
	return result, err
}

func (s *Syncer) syncStates(ctx context.Context, opts Options) (models.SyncResult, error) {
	opts = s.resolve(opts)

	var total models.SyncResult
	for i, state := range opts.States {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		result, err := s.syncState(ctx, state, opts)
		total.Aggregate(result)
		if err != nil {
			return total, err
		}

		if i < len(opts.States)-1 {
			if err := sleep(ctx, s.cfg.StateDelay); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func (s *Syncer) resolve(opts Options) Options {
	if len(opts.States) == 0 {
		opts.States = s.cfg.States
	}
	if opts.MaxProperties <= 0 {
		opts.MaxProperties = s.cfg.MaxProperties
	}
	return opts
}

// syncState pages through one state until an empty or short page, a page
// error, or the processed cap. The cap is checked between pages.
func (s *Syncer) syncState(ctx context.Context, state string, opts Options) (models.SyncResult, error) {
	var result models.SyncResult
	pageSize := s.cfg.PageSize
	s.logf("INFO", state, "Starting sync")

	for page := 1; opts.MaxProperties <= 0 || result.TotalProcessed < opts.MaxProperties; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		resp, err := s.fetcher.FetchForeclosureProperties(ctx, attom.Query{State: state, Page: page, PageSize: pageSize})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			s.logf("ERROR", state, "Error fetching page %d: %v", page, err)
			result.Errors++
			break
		}
		if len(resp.Property) == 0 {
			break
		}

		for i := range resp.Property {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			index := (page-1)*pageSize + i
			out, err := s.syncProperty(ctx, &resp.Property[i], index, opts.ForceUpdate)
			switch out {
			case outcomeAdded:
				result.Added++
				result.TotalProcessed++
			case outcomeUpdated:
				result.Updated++
				result.TotalProcessed++
			case outcomeError:
				s.logf("ERROR", state, "Error syncing property %d: %v", index, err)
				result.Errors++
			}
			if s.recorder != nil {
				s.recorder.SyncProperty(state, string(out))
			}

			if err := sleep(ctx, s.cfg.PropertyDelay); err != nil {
				return result, err
			}
		}

		if len(resp.Property) < pageSize {
			break
		}
	}

	s.logf("INFO", state, "State sync: %d added, %d updated", result.Added, result.Updated)
	return result, nil
}

func (s *Syncer) syncProperty(ctx context.Context, rec *attom.Property, index int, force bool) (outcome, error) {
	draft, err := s.transformer.Transform(rec, index)
	if err != nil {
		return outcomeError, err
	}

	existing, err := s.store.GetPropertyByAddress(ctx, draft.Address, draft.City, draft.State)
	if err != nil {
		return outcomeError, fmt.Errorf("lookup: %w", err)
	}

	now := s.now()
	if existing != nil && !force && now.Sub(existing.SyncedAt()) < s.cfg.Freshness {
		return outcomeSkipped, nil
	}

	draft.Images = s.images.Enrich(ctx, images.FullAddress(draft.Address, draft.City, draft.State), draft.OpportunityScore)
	draft.LastSynced = &now

	if existing != nil {
		draft.ID = existing.ID
		draft.CreatedAt = existing.CreatedAt
		draft.Featured = existing.Featured
		if _, err := s.store.UpdateProperty(ctx, existing.ID, draft); err != nil {
			return outcomeError, fmt.Errorf("update: %w", err)
		}
		return outcomeUpdated, nil
	}

	draft.CreatedAt = now
	if _, err := s.store.CreateProperty(ctx, draft); err != nil {
		return outcomeError, fmt.Errorf("create: %w", err)
	}
	return outcomeAdded, nil
}

func (s *Syncer) logf(level, state, format string, args ...any) {
	log.Printf("[%s] %s: %s", level, state, fmt.Sprintf(format, args...))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
