/*
Package config loads runtime settings for the travel engine.

PURPOSE:
  One Config value feeds the store, routing stack, scheduler, HTTP server
  and logger. Sources are layered, later wins:

    1. DefaultConfig()
    2. YAML file (optional; a missing file keeps defaults)
    3. .env file (optional; never overrides the real environment)
    4. Environment variables
    5. CLI flags (applied by cmd/server after Load)

ENVIRONMENT:
  TRAVEL_PORT, TRAVEL_DB_DRIVER, TRAVEL_DB_DSN, TRAVEL_TIMEZONE,
  TRAVEL_RECALC_PARALLELISM, TRAVEL_ALLOWED_ORIGINS,
  GOOGLE_MAPS_API_KEY, GOOGLE_MAPS_LANGUAGE, TRAVEL_BAND_TABLE,
  ROUTE_MAX_ATTEMPTS, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB,
  ROUTE_CACHE_TTL, TRAVEL_SCHEDULER_ENABLED, TRAVEL_SCHEDULER_TICK,
  TRAVEL_EXPORT_DIR, LOG_LEVEL, LOG_FORMAT

SEE ALSO:
  - cmd/server/main.go: flag overrides and wiring
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/warp/travel-engine/store/sqldb"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Travel    TravelConfig    `yaml:"travel"`
	Maps      MapsConfig      `yaml:"maps"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres
	DSN    string `yaml:"dsn"`
}

type TravelConfig struct {
	// Timezone defines the calendar day used for sequencing and aggregates.
	Timezone          string `yaml:"timezone"`
	RecalcParallelism int    `yaml:"recalc_parallelism"`
}

// MapsConfig configures the distance provider. An empty APIKey selects
// the offline estimator.
type MapsConfig struct {
	APIKey          string        `yaml:"api_key"`
	Language        string        `yaml:"language"`
	BandTable       string        `yaml:"band_table"` // YAML postcode table; empty uses the built-in one
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	MaxElapsed      time.Duration `yaml:"max_elapsed"`
}

// CacheConfig configures the Redis route cache. Empty RedisAddr disables it.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

type SchedulerConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Tick      time.Duration `yaml:"tick"`
	ExportDir string        `yaml:"export_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "travel.db",
		},
		Travel: TravelConfig{
			Timezone:          "Australia/Sydney",
			RecalcParallelism: 4,
		},
		Maps: MapsConfig{
			Language:        "en-AU",
			MaxAttempts:     4,
			InitialInterval: 250 * time.Millisecond,
			MaxInterval:     4 * time.Second,
			MaxElapsed:      20 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 30 * 24 * time.Hour,
		},
		Scheduler: SchedulerConfig{
			Enabled:   true,
			Tick:      time.Minute,
			ExportDir: "exports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds a Config from defaults, an optional YAML file and the
// environment. envFiles default to ".env"; missing files are skipped.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	dotenv, err := readDotenv(envFiles)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(envLookup(dotenv)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readDotenv(files []string) (map[string]string, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	out := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range vals {
			out[k] = v
		}
	}
	return out, nil
}

// envLookup prefers the process environment over .env values.
func envLookup(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	p := envParser{lookup: lookup}

	p.intVar("TRAVEL_PORT", &c.Server.Port)
	p.listVar("TRAVEL_ALLOWED_ORIGINS", &c.Server.AllowedOrigins)
	p.strVar("TRAVEL_DB_DRIVER", &c.Database.Driver)
	p.strVar("TRAVEL_DB_DSN", &c.Database.DSN)
	p.strVar("TRAVEL_TIMEZONE", &c.Travel.Timezone)
	p.intVar("TRAVEL_RECALC_PARALLELISM", &c.Travel.RecalcParallelism)
	p.strVar("GOOGLE_MAPS_API_KEY", &c.Maps.APIKey)
	p.strVar("GOOGLE_MAPS_LANGUAGE", &c.Maps.Language)
	p.strVar("TRAVEL_BAND_TABLE", &c.Maps.BandTable)
	p.intVar("ROUTE_MAX_ATTEMPTS", &c.Maps.MaxAttempts)
	p.strVar("REDIS_ADDR", &c.Cache.RedisAddr)
	p.strVar("REDIS_PASSWORD", &c.Cache.RedisPassword)
	p.intVar("REDIS_DB", &c.Cache.RedisDB)
	p.durationVar("ROUTE_CACHE_TTL", &c.Cache.TTL)
	p.boolVar("TRAVEL_SCHEDULER_ENABLED", &c.Scheduler.Enabled)
	p.durationVar("TRAVEL_SCHEDULER_TICK", &c.Scheduler.Tick)
	p.strVar("TRAVEL_EXPORT_DIR", &c.Scheduler.ExportDir)
	p.strVar("LOG_LEVEL", &c.Logging.Level)
	p.strVar("LOG_FORMAT", &c.Logging.Format)

	return errors.Join(p.errs...)
}

type envParser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *envParser) get(key string) (string, bool) {
	v, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (p *envParser) strVar(key string, dst *string) {
	if v, ok := p.get(key); ok && v != "" {
		*dst = v
	}
}

func (p *envParser) listVar(key string, dst *[]string) {
	v, ok := p.get(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

func (p *envParser) intVar(key string, dst *int) {
	v, ok := p.get(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return
	}
	*dst = n
}

func (p *envParser) boolVar(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return
	}
	*dst = b
}

func (p *envParser) durationVar(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return
	}
	*dst = d
}

// =============================================================================
// VALIDATION
// =============================================================================

var validLogFormats = []string{"json", "console"}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := sqldb.ParseDialect(c.Database.Driver); err != nil {
		errs = append(errs, fmt.Errorf("database.driver: %w", err))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if _, err := time.LoadLocation(c.Travel.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("travel.timezone: %w", err))
	}
	if c.Travel.RecalcParallelism < 1 {
		errs = append(errs, fmt.Errorf("travel.recalc_parallelism must be at least 1, got %d", c.Travel.RecalcParallelism))
	}
	if c.Maps.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("maps.max_attempts must be at least 1, got %d", c.Maps.MaxAttempts))
	}
	if c.Maps.InitialInterval < 0 || c.Maps.MaxInterval < 0 || c.Maps.MaxElapsed < 0 {
		errs = append(errs, errors.New("maps backoff intervals must not be negative"))
	}
	if c.Cache.RedisAddr != "" && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive when redis is configured"))
	}
	if c.Scheduler.Enabled && c.Scheduler.Tick <= 0 {
		errs = append(errs, errors.New("scheduler.tick must be positive"))
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if !contains(validLogFormats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("invalid logging.format: %s (valid: %v)", c.Logging.Format, validLogFormats))
	}

	return errors.Join(errs...)
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Travel.Timezone)
}

// NewLogger builds a zap logger from the logging section.
func (c LoggingConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if c.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
