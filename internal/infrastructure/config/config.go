package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables; BEING_CRISIS_ENABLED maps
// to crisis.enabled.
const EnvPrefix = "BEING_"

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Crisis     CrisisConfig     `koanf:"crisis"`
	Audit      AuditConfig      `koanf:"audit"`
	Encryption EncryptionConfig `koanf:"encryption"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	Notifier   NotifierConfig   `koanf:"notifier"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// RequestsPerSecond is the per-client limit; zero disables it.
	RequestsPerSecond int      `koanf:"requests_per_second"`
	AllowedOrigins    []string `koanf:"allowed_origins"`
}

type DatabaseConfig struct {
	// URL is optional; without it audit entries go to the key-value store.
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	MigrateOnStart  bool          `koanf:"migrate_on_start"`
}

type RedisConfig struct {
	// URL is optional; without it an in-process store is used.
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	KeyPrefix    string        `koanf:"key_prefix"`
}

type CrisisConfig struct {
	Enabled           bool          `koanf:"enabled"`
	GraceWindow       time.Duration `koanf:"grace_window"`
	SweepInterval     time.Duration `koanf:"sweep_interval"`
	PerformanceBudget time.Duration `koanf:"performance_budget"`
	ContactsRefresh   time.Duration `koanf:"contacts_refresh"`
}

type AuditConfig struct {
	BufferSize   int           `koanf:"buffer_size"`
	BatchSize    int           `koanf:"batch_size"`
	BatchTimeout time.Duration `koanf:"batch_timeout"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type EncryptionConfig struct {
	// MasterKey is base64 encoded, 32 bytes once decoded.
	MasterKey string `koanf:"master_key"`
}

type TelemetryConfig struct {
	Enabled       bool          `koanf:"enabled"`
	OTLPEndpoint  string        `koanf:"otlp_endpoint"`
	SamplingRate  float64       `koanf:"sampling_rate"`
	ExportTimeout time.Duration `koanf:"export_timeout"`
	BatchTimeout  time.Duration `koanf:"batch_timeout"`
}

type NotifierConfig struct {
	// AMQPURL is optional; without it escalations are only logged.
	AMQPURL string `koanf:"amqp_url"`
	Queue   string `koanf:"queue"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,

			RequestsPerSecond: 50,
			AllowedOrigins:    []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			KeyPrefix:    "being:",
		},
		Crisis: CrisisConfig{
			Enabled:           true,
			GraceWindow:       5 * time.Minute,
			SweepInterval:     2 * time.Minute,
			PerformanceBudget: 200 * time.Millisecond,
			ContactsRefresh:   10 * time.Minute,
		},
		Audit: AuditConfig{
			BufferSize:   4096,
			BatchSize:    64,
			BatchTimeout: 500 * time.Millisecond,
			MaxRetries:   3,
			RetryBackoff: 200 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			OTLPEndpoint:  "localhost:4317",
			SamplingRate:  1.0,
			ExportTimeout: 10 * time.Second,
			BatchTimeout:  5 * time.Second,
		},
		Notifier: NotifierConfig{
			Queue: "crisis_escalations",
		},
	}
}

// Load merges defaults, an optional YAML file and BEING_* environment
// variables, in that order. An empty path skips the file. A .env file in the
// working directory is read into the environment first; variables already
// set win.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps BEING_CRISIS_GRACE_WINDOW to crisis.grace_window: the first
// underscore separates the section, the rest belong to the field name.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, found := strings.Cut(s, "_")
	if !found {
		return section
	}
	switch section {
	case "server", "database", "redis", "crisis", "audit", "encryption", "telemetry", "notifier":
		return section + "." + field
	}
	return s
}

// Validate enforces cross-field invariants.
func (c *Config) Validate() error {
	if c.Crisis.GraceWindow <= 0 {
		return fmt.Errorf("crisis.grace_window must be positive")
	}
	if c.Crisis.SweepInterval <= 0 {
		return fmt.Errorf("crisis.sweep_interval must be positive")
	}
	if c.Audit.BufferSize <= 0 || c.Audit.BatchSize <= 0 {
		return fmt.Errorf("audit.buffer_size and audit.batch_size must be positive")
	}
	if c.Server.RequestsPerSecond < 0 {
		return fmt.Errorf("server.requests_per_second cannot be negative")
	}
	if c.Audit.MaxRetries < 0 {
		return fmt.Errorf("audit.max_retries cannot be negative")
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("telemetry.sampling_rate must be within [0,1]")
	}
	return nil
}

// Key decodes the master key. It is checked when the encryptor is built
// rather than in Validate, so a bad key only disables the crisis engine.
func (e EncryptionConfig) Key() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(e.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("encryption.master_key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption.master_key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
