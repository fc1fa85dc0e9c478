package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Sandbox   SandboxConfig
	Console   ConsoleConfig
	Export    ExportConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" default:"8000"`
	Host        string   `envconfig:"HOST" default:"0.0.0.0"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// StorageConfig selects where the fragment record lives.
type StorageConfig struct {
	Backend       string        `envconfig:"STORAGE_BACKEND" default:"file"`
	Path          string        `envconfig:"STORAGE_PATH" default:"data/code-storage.json"`
	Key           string        `envconfig:"STORAGE_KEY" default:"code-storage"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string        `envconfig:"REDIS_PREFIX" default:"playground:"`
	SaveTimeout   time.Duration `envconfig:"STORAGE_SAVE_TIMEOUT" default:"5s"`
	SeedPath      string        `envconfig:"SEED_PATH"`
}

// SandboxConfig holds headless sandbox configuration.
type SandboxConfig struct {
	Mode             string        `envconfig:"SANDBOX_MODE" default:"headless"`
	Timeout          time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"5s"`
	PoolSize         int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
	MaxCallStackSize int           `envconfig:"SANDBOX_MAX_CALL_STACK" default:"1024"`
	MaxTimerTasks    int           `envconfig:"SANDBOX_MAX_TIMER_TASKS" default:"1000"`
}

// ConsoleConfig holds console buffer configuration.
type ConsoleConfig struct {
	MaxLines int `envconfig:"CONSOLE_MAX_LINES" default:"10000"`
}

// ExportConfig holds export artifact configuration.
type ExportConfig struct {
	Filename     string `envconfig:"EXPORT_FILENAME" default:"project.html"`
	DefaultTitle string `envconfig:"EXPORT_DEFAULT_TITLE" default:"My HTML Page"`
}

// Sandbox modes
const (
	SandboxHeadless = "headless"
	SandboxBrowser  = "browser"
)

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	switch c.Sandbox.Mode {
	case SandboxHeadless, SandboxBrowser:
	default:
		return fmt.Errorf("invalid SANDBOX_MODE %q", c.Sandbox.Mode)
	}
	if c.Console.MaxLines < 0 {
		return fmt.Errorf("CONSOLE_MAX_LINES must not be negative, got %d", c.Console.MaxLines)
	}
	if c.Sandbox.PoolSize < 0 {
		return fmt.Errorf("SANDBOX_POOL_SIZE must not be negative, got %d", c.Sandbox.PoolSize)
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			Host:        "0.0.0.0",
			CORSOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Storage: StorageConfig{
			Backend:     "file",
			Path:        "data/code-storage.json",
			Key:         "code-storage",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "playground:",
			SaveTimeout: 5 * time.Second,
		},
		Sandbox: SandboxConfig{
			Mode:             SandboxHeadless,
			Timeout:          5 * time.Second,
			PoolSize:         4,
			MaxCallStackSize: 1024,
			MaxTimerTasks:    1000,
		},
		Console: ConsoleConfig{
			MaxLines: 10000,
		},
		Export: ExportConfig{
			Filename:     "project.html",
			DefaultTitle: "My HTML Page",
		},
	}
}
