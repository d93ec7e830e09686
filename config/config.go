package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Locking    LockingConfig    `yaml:"locking"`
	Occupancy  OccupancyConfig  `yaml:"occupancy"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled"`
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec      float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst       int      `yaml:"rate_limit_burst"`
	RateLimitIdleMinutes int      `yaml:"rate_limit_idle_minutes"`
	CacheTTLSeconds      int      `yaml:"cache_ttl_seconds"`
	AllowedOrigins       []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogSQL                 bool   `yaml:"log_sql"`
}

// LockingConfig selects the mutual-exclusion backend for ledger writes.
type LockingConfig struct {
	Backend       string        `yaml:"backend"` // "memory" or "redis"
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTLSeconds    int           `yaml:"ttl_seconds"`
	TTL           time.Duration `yaml:"-"`
}

// OccupancyConfig tunes the occupancy engine.
type OccupancyConfig struct {
	// SingleActiveTenancy rejects a checkin for a student who already has an
	// active one.
	SingleActiveTenancy *bool         `yaml:"single_active_tenancy"`
	CacheTTLSeconds     int           `yaml:"cache_ttl_seconds"`
	CacheTTL            time.Duration `yaml:"-"`
}

// Load reads the configuration from the given path. Variables from a .env
// file in the working directory, if present, override selected fields.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DORM_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DORM_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DORM_REDIS_ADDR"); v != "" {
		cfg.Locking.RedisAddr = v
	}
	if v := os.Getenv("DORM_REDIS_PASSWORD"); v != "" {
		cfg.Locking.RedisPassword = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.RateLimitIdleMinutes <= 0 {
		cfg.Server.RateLimitIdleMinutes = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "file:dormitory.db?_foreign_keys=1&_busy_timeout=5000"
	}

	if cfg.Locking.Backend == "" {
		cfg.Locking.Backend = "memory"
	}
	if cfg.Locking.TTLSeconds <= 0 {
		cfg.Locking.TTLSeconds = 10
	}
	cfg.Locking.TTL = time.Duration(cfg.Locking.TTLSeconds) * time.Second

	if cfg.Occupancy.SingleActiveTenancy == nil {
		enabled := true
		cfg.Occupancy.SingleActiveTenancy = &enabled
	}
	if cfg.Occupancy.CacheTTLSeconds <= 0 {
		cfg.Occupancy.CacheTTLSeconds = 300
	}
	cfg.Occupancy.CacheTTL = time.Duration(cfg.Occupancy.CacheTTLSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}
