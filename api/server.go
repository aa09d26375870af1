package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"casa_subastas/api/middleware"
	"casa_subastas/cache"
	"casa_subastas/models"
	"casa_subastas/scheduler"
	"casa_subastas/syncer"
)

// PropertyStore is the part of storage.Store the API reads and writes.
type PropertyStore interface {
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	GetProperties(ctx context.Context, f models.PropertyFilters) ([]models.Property, error)
	GetCountiesByState(ctx context.Context, state string) ([]models.CountyCount, error)

	GetSavedProperties(ctx context.Context, userID int64) ([]models.SavedProperty, error)
	SaveProperty(ctx context.Context, userID, propertyID int64) (*models.SavedProperty, error)
	UnsaveProperty(ctx context.Context, userID, propertyID int64) (bool, error)
	IsPropertySaved(ctx context.Context, userID, propertyID int64) (bool, error)

	GetLatestSyncLog(ctx context.Context, syncType models.SyncType) (*models.SyncLog, error)
}

type EventGenerator interface {
	Generate(state string, year, month int) ([]models.AuctionEvent, error)
}

type AerialImager interface {
	AerialImage(address string) models.PropertyImage
}

// SyncRunner is implemented by syncer.Syncer.
type SyncRunner interface {
	RunManual(ctx context.Context, opts syncer.Options) (models.SyncResult, error)
	Running() bool
	LastRun() *models.SyncLog
}

// JobScheduler is implemented by scheduler.Scheduler.
type JobScheduler interface {
	Status() []scheduler.JobStatus
	EnableJob(name string) (bool, error)
	DisableJob(name string) bool
}

// Config wires the API. Syncer and Scheduler may be nil when the sync is
// disabled; Cache may be nil to disable response caching.
type Config struct {
	Store     PropertyStore
	Events    EventGenerator
	Images    AerialImager
	Syncer    SyncRunner
	Scheduler JobScheduler
	Cache     cache.Cache
	CacheTTL  time.Duration

	Metrics  http.Handler
	Recorder middleware.HTTPRecorder
	AdminKey string

	Now func() time.Time
}

type Server struct {
	store     PropertyStore
	events    EventGenerator
	images    AerialImager
	syncer    SyncRunner
	scheduler JobScheduler
	cache     cache.Cache
	cacheTTL  time.Duration
	now       func() time.Time
	startTime time.Time
}

func NewServer(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Server{
		store:     cfg.Store,
		events:    cfg.Events,
		images:    cfg.Images,
		syncer:    cfg.Syncer,
		scheduler: cfg.Scheduler,
		cache:     cfg.Cache,
		cacheTTL:  ttl,
		now:       now,
		startTime: now(),
	}
}

// NewRouter builds the HTTP handler with the full route table.
func NewRouter(cfg Config) *chi.Mux {
	s := NewServer(cfg)

	r := chi.NewRouter()
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(cfg.Recorder))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "X-Admin-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.UserID)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.Health)
		r.Get("/placeholder-property-image", s.PlaceholderImage)

		r.Get("/auction-events", s.AuctionEvents)
		r.Get("/auction/{eventId}/properties", s.AuctionProperties)

		r.Get("/properties", s.ListProperties)
		r.Get("/properties/{id}", s.GetProperty)
		r.With(middleware.RequireUser).Post("/properties/{id}/favorite", s.ToggleFavorite)
		r.Get("/counties/{state}", s.Counties)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Get("/saved-properties", s.SavedProperties)
			r.Post("/saved-properties", s.SaveProperty)
			r.Delete("/saved-properties/{propertyId}", s.UnsaveProperty)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminKey(cfg.AdminKey))
			r.Post("/sync/trigger", s.TriggerSync)
			r.Get("/sync/status", s.SyncStatus)
			r.Post("/jobs/{name}/enable", s.EnableJob)
			r.Post("/jobs/{name}/disable", s.DisableJob)
		})
	})

	return r
}
