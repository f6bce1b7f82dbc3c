// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Key     string        `yaml:"key"`
	Timeout time.Duration `yaml:"timeout"` // per-request HTTP timeout
}

type PollingConfig struct {
	InitialInterval      time.Duration `yaml:"initial_interval"`
	MaxInterval          time.Duration `yaml:"max_interval"`
	Multiplier           float64       `yaml:"multiplier"`
	MaxWait              time.Duration `yaml:"max_wait"`
	MaxTransportFailures int           `yaml:"max_transport_failures"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ServiceKeys    []string      `yaml:"service_keys"` // X-Service-Key values callers may present
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RatePerMinute  int           `yaml:"rate_per_minute"` // 0 disables rate limiting
}

type OpsConfig struct {
	Port        int           `yaml:"port"`
	AdminSecret string        `yaml:"admin_secret"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // empty disables consultation history
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables rate limiting
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WatcherConfig struct {
	Interval time.Duration `yaml:"interval"` // how often tracked jobs are re-checked
	MaxAge   time.Duration `yaml:"max_age"`  // abandon tracked jobs older than this
	Workers  int           `yaml:"workers"`
}

type HybridConfig struct {
	Freshness time.Duration `yaml:"freshness"` // local results younger than this answer directly
}

type Config struct {
	API      APIConfig      `yaml:"api"`
	Polling  PollingConfig  `yaml:"polling"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Ops      OpsConfig      `yaml:"ops"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Watcher  WatcherConfig  `yaml:"watcher"`
	Hybrid   HybridConfig   `yaml:"hybrid"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation. The API key has no default on purpose: a missing
	// credential is a startup error, never a runtime fault.
	if cfg.API.Key == "" {
		return nil, errors.New("api.key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000"
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.Polling.InitialInterval <= 0 {
		cfg.Polling.InitialInterval = 2 * time.Second
	}
	if cfg.Polling.MaxInterval <= 0 {
		cfg.Polling.MaxInterval = 30 * time.Second
	}
	if cfg.Polling.Multiplier <= 1 {
		cfg.Polling.Multiplier = 2.0
	}
	if cfg.Polling.MaxWait <= 0 {
		cfg.Polling.MaxWait = 15 * time.Minute
	}
	if cfg.Polling.MaxTransportFailures <= 0 {
		cfg.Polling.MaxTransportFailures = 5
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		// a consult request legitimately lasts as long as the polling ceiling
		cfg.Server.RequestTimeout = cfg.Polling.MaxWait + time.Minute
	}
	if cfg.Ops.Port == 0 {
		cfg.Ops.Port = 8081
	}
	if cfg.Ops.SessionTTL <= 0 {
		cfg.Ops.SessionTTL = 30 * time.Minute
	}
	if cfg.Watcher.Interval <= 0 {
		cfg.Watcher.Interval = time.Minute
	}
	if cfg.Watcher.MaxAge <= 0 {
		cfg.Watcher.MaxAge = 24 * time.Hour
	}
	if cfg.Watcher.Workers <= 0 {
		cfg.Watcher.Workers = 4
	}
	if cfg.Hybrid.Freshness <= 0 {
		cfg.Hybrid.Freshness = 24 * time.Hour
	}
}
