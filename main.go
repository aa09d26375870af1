package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"casa_subastas/api"
	"casa_subastas/attom"
	"casa_subastas/auction"
	"casa_subastas/cache"
	"casa_subastas/config"
	"casa_subastas/httputil"
	"casa_subastas/images"
	"casa_subastas/logging"
	"casa_subastas/metrics"
	"casa_subastas/models"
	"casa_subastas/scheduler"
	"casa_subastas/storage"
	"casa_subastas/syncer"
	"casa_subastas/workers"
)

var (
	syncNow     = flag.Bool("sync", false, "Run a manual sync once and exit")
	syncStates  = flag.String("states", "", "Comma separated states for -sync (default: configured states)")
	forceUpdate = flag.Bool("force", false, "With -sync, update records even when fresh")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting casa_subastas...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	m := metrics.New()
	clients := httputil.NewClients()
	imgs := images.NewEnricher(cfg.Maps, clients.Maps)

	respCache := openCache(ctx, cfg.Cache)
	defer respCache.Close()

	var propertySync *syncer.Syncer
	client, err := attom.NewClient(cfg.Attom, clients.API, attom.WithRecorder(m))
	switch {
	case errors.Is(err, attom.ErrMissingAPIKey):
		log.Println("Warning: ATTOM_API_KEY not configured - property sync disabled")
	case err != nil:
		log.Fatalf("Failed to create ATTOM client: %v", err)
	default:
		propertySync = syncer.New(cfg.Sync, client, attom.NewTransformer(), imgs, store,
			syncer.WithRecorder(m), syncer.WithAfterRun(clearCacheAfterSync(respCache)))
		log.Printf("Sync enabled for %d states: %s", len(cfg.Sync.States), strings.Join(cfg.Sync.States, ","))
	}

	if *syncNow {
		if propertySync == nil {
			log.Fatal("Cannot sync: ATTOM_API_KEY not configured")
		}
		runOnce(ctx, propertySync)
		return
	}

	var sched *scheduler.Scheduler
	if propertySync != nil {
		sched = scheduler.New(cfg.Scheduler, propertySync)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	if cfg.S3.Enabled() {
		uploader, err := storage.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("Failed to set up S3: %v", err)
		}
		mirror := workers.NewImageMirror(store, uploader, clients.Media, m)
		go mirror.Run(ctx, cfg.S3.MirrorBatch, cfg.S3.MirrorInterval)
		mirror.Trigger()
		log.Printf("Image mirror started (bucket %s, every %s)", cfg.S3.Bucket, cfg.S3.MirrorInterval)
	}

	apiCfg := api.Config{
		Store:    store,
		Events:   auction.NewEventGenerator(),
		Images:   imgs,
		Cache:    respCache,
		CacheTTL: cfg.Cache.TTL,
		Metrics:  m.Handler(),
		Recorder: m,
		AdminKey: cfg.Admin.APIKey,
	}
	if propertySync != nil {
		apiCfg.Syncer = propertySync
		apiCfg.Scheduler = sched
	}
	if cfg.Admin.APIKey == "" {
		log.Println("Warning: ADMIN_API_KEY not set - admin routes are open")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      api.NewRouter(apiCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}

func runOnce(ctx context.Context, propertySync *syncer.Syncer) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := syncer.Options{ForceUpdate: *forceUpdate}
	for _, s := range strings.Split(*syncStates, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			opts.States = append(opts.States, s)
		}
	}

	log.Println("Running sync...")
	result, err := propertySync.RunManual(ctx, opts)
	if err != nil {
		log.Fatalf("Sync failed: %v (partial: %+v)", err, result)
	}
	log.Printf("Sync complete: %d added, %d updated, %d errors, %d processed",
		result.Added, result.Updated, result.Errors, result.TotalProcessed)
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
	if cfg.Driver == "postgres" {
		pg, err := storage.NewPostgresStore(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.URL))
		return pg, nil
	}

	sq, err := storage.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	log.Printf("SQLite database: %s", cfg.SQLitePath)
	return sq, nil
}

// clearCacheAfterSync drops cached candidate pools once a run has written new rows.
func clearCacheAfterSync(c cache.Cache) func(context.Context, *models.SyncLog) {
	return func(ctx context.Context, entry *models.SyncLog) {
		if entry.Added+entry.Updated == 0 {
			return
		}
		if err := c.Clear(ctx); err != nil {
			log.Printf("Warning: failed to clear cache after %s: %v", entry.Type, err)
		}
	}
}

// openCache falls back to the in-memory cache when Redis is unreachable.
func openCache(ctx context.Context, cfg config.CacheConfig) cache.Cache {
	if cfg.Type == "redis" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddress(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			return rc
		}
		log.Printf("Warning: Redis unavailable, using memory cache: %v", err)
	}
	return cache.NewMemoryCache(cfg.TTL)
}

// maskConnectionString hides the password in a connection URL.
func maskConnectionString(connStr string) string {
	start := strings.Index(connStr, "://")
	if start < 0 {
		return connStr
	}
	start += 3

	at := strings.Index(connStr[start:], "@")
	if at < 0 {
		return connStr
	}
	at += start

	colon := strings.Index(connStr[start:at], ":")
	if colon < 0 {
		return connStr
	}
	colon += start
	return connStr[:colon+1] + "****" + connStr[at:]
}
