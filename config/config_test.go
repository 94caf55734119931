package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Australia/Sydney", loc.String())
}

func TestLoad_MissingFilesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, "nope.env"))
	require.NoError(t, err)
	assert.Equal(t, "en-AU", cfg.Maps.Language)
	assert.Equal(t, time.Minute, cfg.Scheduler.Tick)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "travel.yaml", `
server:
  port: 9000
  allowed_origins: ["https://ops.example.com"]
database:
  driver: postgres
  dsn: postgres://travel@localhost/travel?sslmode=disable
travel:
  timezone: Australia/Perth
maps:
  initial_interval: 500ms
  max_attempts: 2
cache:
  redis_addr: localhost:6379
  ttl: 1h
scheduler:
  enabled: false
logging:
  level: debug
  format: console
`)
	cfg, err := Load(path, filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://ops.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "Australia/Perth", cfg.Travel.Timezone)
	assert.Equal(t, 500*time.Millisecond, cfg.Maps.InitialInterval)
	assert.Equal(t, 2, cfg.Maps.MaxAttempts)
	assert.Equal(t, 4*time.Second, cfg.Maps.MaxInterval, "unset keys keep defaults")
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeFile(t, "travel.yaml", "server: [1, 2")
	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoad_DotenvOverridesYAML(t *testing.T) {
	yamlPath := writeFile(t, "travel.yaml", "server:\n  port: 9000\n")
	envPath := writeFile(t, ".env", "TRAVEL_PORT=7000\nREDIS_ADDR=cache:6379\n")

	cfg, err := Load(yamlPath, envPath)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "cache:6379", cfg.Cache.RedisAddr)
}

func TestLoad_EnvironmentBeatsDotenv(t *testing.T) {
	envPath := writeFile(t, ".env", "TRAVEL_PORT=7000\n")
	t.Setenv("TRAVEL_PORT", "6000")
	t.Setenv("TRAVEL_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load("", envPath)
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
}

func TestApplyEnv_AllKinds(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"TRAVEL_DB_DRIVER":          "pg",
		"TRAVEL_DB_DSN":             "postgres://x",
		"TRAVEL_RECALC_PARALLELISM": "8",
		"GOOGLE_MAPS_API_KEY":       " key ",
		"ROUTE_CACHE_TTL":           "90m",
		"TRAVEL_SCHEDULER_ENABLED":  "false",
		"TRAVEL_SCHEDULER_TICK":     "30s",
		"REDIS_DB":                  "3",
		"LOG_LEVEL":                 "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "pg", cfg.Database.Driver)
	assert.Equal(t, 8, cfg.Travel.RecalcParallelism)
	assert.Equal(t, "key", cfg.Maps.APIKey)
	assert.Equal(t, 90*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.Tick)
	assert.Equal(t, 3, cfg.Cache.RedisDB)
	assert.Equal(t, "info", cfg.Logging.Level, "empty value is ignored")
}

func TestApplyEnv_ReportsEveryBadValue(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.applyEnv(mapLookup(map[string]string{
		"TRAVEL_PORT":              "eighty",
		"ROUTE_CACHE_TTL":          "forever",
		"TRAVEL_SCHEDULER_ENABLED": "maybe",
	}))
	require.Error(t, err)
	assert.ErrorContains(t, err, "TRAVEL_PORT")
	assert.ErrorContains(t, err, "ROUTE_CACHE_TTL")
	assert.ErrorContains(t, err, "TRAVEL_SCHEDULER_ENABLED")
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"timezone", func(c *Config) { c.Travel.Timezone = "Mars/Olympus" }, "travel.timezone"},
		{"parallelism", func(c *Config) { c.Travel.RecalcParallelism = 0 }, "recalc_parallelism"},
		{"attempts", func(c *Config) { c.Maps.MaxAttempts = 0 }, "max_attempts"},
		{"backoff", func(c *Config) { c.Maps.MaxInterval = -time.Second }, "backoff"},
		{"cache ttl", func(c *Config) { c.Cache.RedisAddr = "r:6379"; c.Cache.TTL = 0 }, "cache.ttl"},
		{"tick", func(c *Config) { c.Scheduler.Tick = 0 }, "scheduler.tick"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidate_TickIgnoredWhenSchedulerDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduler.Enabled = false
	cfg.Scheduler.Tick = 0
	assert.NoError(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := LoggingConfig{Level: "warn", Format: format}.NewLogger()
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel), "debug disabled at warn")
	}

	_, err := LoggingConfig{Level: "shout"}.NewLogger()
	assert.Error(t, err)
}
