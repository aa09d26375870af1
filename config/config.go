package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Attom     AttomConfig
	Maps      MapsConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	Cache     CacheConfig
	S3        S3Config
	Admin     AdminConfig

	LogPath         string `envconfig:"LOG_PATH" default:"daemon.log"`
	SyncTargetsFile string `envconfig:"SYNC_TARGETS_FILE" default:"config/sync.yaml"`
}

type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15m"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite or postgres
	URL        string `envconfig:"DATABASE_URL"`
	SQLitePath string `envconfig:"DB_PATH" default:"subastas.db"`
}

type AttomConfig struct {
	APIKey            string  `envconfig:"ATTOM_API_KEY"`
	BaseURL           string  `envconfig:"ATTOM_BASE_URL" default:"https://api.gateway.attomdata.com/propertyapi/v1.0.0"`
	RequestsPerSecond float64 `envconfig:"ATTOM_RPS" default:"5"`
	Burst             int     `envconfig:"ATTOM_BURST" default:"2"`
	DemoFallback      bool    `envconfig:"ATTOM_DEMO_FALLBACK" default:"true"`
}

type MapsConfig struct {
	APIKey            string        `envconfig:"GOOGLE_MAPS_API_KEY"`
	CheckAvailability bool          `envconfig:"MAPS_CHECK_AVAILABILITY" default:"false"`
	CacheTTL          time.Duration `envconfig:"MAPS_CACHE_TTL" default:"24h"`
}

// SyncConfig can be overridden by the YAML sync targets file.
type SyncConfig struct {
	States             []string      `envconfig:"SYNC_STATES" default:"FL,CA,TX,NY,PA,IL,OH,GA,NC,MI" yaml:"states"`
	PageSize           int           `envconfig:"SYNC_PAGE_SIZE" default:"25" yaml:"page_size"`
	MaxProperties      int           `envconfig:"SYNC_MAX_PROPERTIES" default:"1000" yaml:"max_properties"`
	DailyMaxProperties int           `envconfig:"SYNC_DAILY_MAX_PROPERTIES" default:"500" yaml:"daily_max_properties"`
	PropertyDelay      time.Duration `envconfig:"SYNC_PROPERTY_DELAY" default:"100ms" yaml:"property_delay"`
	StateDelay         time.Duration `envconfig:"SYNC_STATE_DELAY" default:"2s" yaml:"state_delay"`
	Freshness          time.Duration `envconfig:"SYNC_FRESHNESS" default:"24h" yaml:"freshness"`
}

type SchedulerConfig struct {
	Cron     string        `envconfig:"SYNC_CRON" default:"0 2 * * *"`
	Interval time.Duration `envconfig:"SYNC_INTERVAL"`
}

type CacheConfig struct {
	Type          string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	TTL           time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
}

type S3Config struct {
	Bucket          string        `envconfig:"S3_BUCKET"`
	Region          string        `envconfig:"S3_REGION" default:"us-east-1"`
	Endpoint        string        `envconfig:"S3_ENDPOINT"`
	AccessKeyID     string        `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `envconfig:"S3_SECRET_ACCESS_KEY"`
	MirrorInterval  time.Duration `envconfig:"IMAGE_MIRROR_INTERVAL" default:"5m"`
	MirrorBatch     int           `envconfig:"IMAGE_MIRROR_BATCH" default:"20"`
}

type AdminConfig struct {
	APIKey string `envconfig:"ADMIN_API_KEY"`
}

// Address returns the listen address in host:port form.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Enabled reports whether image mirroring to S3 is configured.
func (s *S3Config) Enabled() bool {
	return s.Bucket != ""
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	if err := cfg.loadSyncTargets(); err != nil {
		return nil, err
	}
	cfg.normalize()

	return &cfg, nil
}

// loadSyncTargets overlays the YAML sync targets file on top of the env values.
// A missing file is not an error.
func (c *Config) loadSyncTargets() error {
	if c.SyncTargetsFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.SyncTargetsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read sync targets: %w", err)
	}

	var targets SyncConfig
	if err := yaml.Unmarshal(data, &targets); err != nil {
		return fmt.Errorf("parse sync targets %s: %w", c.SyncTargetsFile, err)
	}

	if len(targets.States) > 0 {
		c.Sync.States = targets.States
	}
	if targets.PageSize > 0 {
		c.Sync.PageSize = targets.PageSize
	}
	if targets.MaxProperties > 0 {
		c.Sync.MaxProperties = targets.MaxProperties
	}
	if targets.DailyMaxProperties > 0 {
		c.Sync.DailyMaxProperties = targets.DailyMaxProperties
	}
	if targets.PropertyDelay > 0 {
		c.Sync.PropertyDelay = targets.PropertyDelay
	}
	if targets.StateDelay > 0 {
		c.Sync.StateDelay = targets.StateDelay
	}
	if targets.Freshness > 0 {
		c.Sync.Freshness = targets.Freshness
	}
	return nil
}

func (c *Config) normalize() {
	c.Attom.APIKey = strings.TrimSpace(c.Attom.APIKey)
	c.Maps.APIKey = strings.TrimSpace(c.Maps.APIKey)

	states := c.Sync.States[:0]
	for _, s := range c.Sync.States {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			states = append(states, s)
		}
	}
	c.Sync.States = states
}
