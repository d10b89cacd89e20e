package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Server captures process level configuration.
type Server struct {
	Addr            string        `env:"REGISTRATIONS_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Store StoreConfig
	Redis RedisConfig
	Audit AuditConfig
}

// StoreConfig selects and tunes the registration store.
type StoreConfig struct {
	Backend string `env:"STORE_BACKEND" envDefault:"memory"`
	// RecordTTL of zero keeps records until the store is cleared or evicts them.
	RecordTTL             time.Duration `env:"REGISTRATION_TTL" envDefault:"0s"`
	MemoryCleanupInterval time.Duration `env:"MEMORY_CLEANUP_INTERVAL" envDefault:"10m"`
}

// RedisConfig configures the Redis connection used by the redis store backend.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	KeyPrefix    string        `env:"REDIS_KEY_PREFIX" envDefault:"registration:"`
}

// AuditConfig configures where registration audit events go. With no
// brokers, events are written to the log.
type AuditConfig struct {
	KafkaBrokers []string `env:"AUDIT_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"AUDIT_KAFKA_TOPIC" envDefault:"registrations.audit"`
}

// KafkaEnabled reports whether a Kafka sink is configured.
func (a AuditConfig) KafkaEnabled() bool {
	return len(a.KafkaBrokers) > 0
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (s Server) Validate() error {
	var errs []error
	switch s.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if s.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when STORE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", s.Store.Backend))
	}
	switch s.LogFormat {
	case LogFormatJSON, LogFormatText:
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", s.LogFormat))
	}
	if s.Store.RecordTTL < 0 {
		errs = append(errs, errors.New("REGISTRATION_TTL must not be negative"))
	}
	if s.Audit.KafkaEnabled() && s.Audit.KafkaTopic == "" {
		errs = append(errs, errors.New("AUDIT_KAFKA_TOPIC is required when AUDIT_KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}
