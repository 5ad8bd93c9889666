// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MinSigningSecretLen mirrors the minimum HMAC key length accepted by the token codec.
const MinSigningSecretLen = 32

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN. Empty selects the in-memory credential repository.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// AccessTokenLifetimeMs is the access token lifetime in milliseconds.
	AccessTokenLifetimeMs int64 `mapstructure:"ACCESS_TOKEN_LIFETIME_MS"`
	// RefreshTokenLifetimeMs is the refresh token lifetime in milliseconds.
	RefreshTokenLifetimeMs int64 `mapstructure:"REFRESH_TOKEN_LIFETIME_MS"`
	// SigningSecret is the shared HMAC secret for session tokens.
	SigningSecret string `mapstructure:"SIGNING_SECRET"`
	// RevocationSweepInterval is how often expired device watermarks are dropped (e.g. "1m").
	RevocationSweepInterval string `mapstructure:"REVOCATION_SWEEP_INTERVAL"`
	// MaxConcurrentHashes bounds in-flight password derivations across signin and signup.
	MaxConcurrentHashes int64 `mapstructure:"MAX_CONCURRENT_HASHES"`
	// AccessPolicyFile is an optional path to a Rego module replacing the built-in access policy.
	AccessPolicyFile string `mapstructure:"ACCESS_POLICY_FILE"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// OTelEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTelInsecure forces a plaintext connection to the collector.
	OTelInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// OTelServiceName is the service.name resource attribute.
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	// When set, session events are also published to Kafka.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// SessionEventsTopic is the Kafka topic for session events.
	SessionEventsTopic string `mapstructure:"SESSION_EVENTS_TOPIC"`

	// Worker-only: Loki URL the session event worker pushes to (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the session event worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Read reads .env (if present), then the environment, and applies defaults without validating.
// cmd/migrate and cmd/worker use it since they need no signing secret.
func Read() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ACCESS_TOKEN_LIFETIME_MS", int64(15*time.Minute/time.Millisecond))
	v.SetDefault("REFRESH_TOKEN_LIFETIME_MS", int64(30*24*time.Hour/time.Millisecond))
	v.SetDefault("SIGNING_SECRET", "")
	v.SetDefault("REVOCATION_SWEEP_INTERVAL", "1m")
	v.SetDefault("MAX_CONCURRENT_HASHES", 8)
	v.SetDefault("ACCESS_POLICY_FILE", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "devicesession")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("SESSION_EVENTS_TOPIC", "session-events")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "session-events-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads config like Read and validates everything the server needs.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the server settings.
func (c *Config) Validate() error {
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	if len(c.SigningSecret) < MinSigningSecretLen {
		return fmt.Errorf("config: SIGNING_SECRET must be at least %d bytes", MinSigningSecretLen)
	}
	if c.AccessTokenLifetimeMs <= 0 || c.RefreshTokenLifetimeMs <= 0 {
		return errors.New("config: token lifetimes must be positive")
	}
	if c.AccessTokenLifetimeMs >= c.RefreshTokenLifetimeMs {
		return errors.New("config: ACCESS_TOKEN_LIFETIME_MS must be less than REFRESH_TOKEN_LIFETIME_MS")
	}
	if c.MaxConcurrentHashes <= 0 {
		return errors.New("config: MAX_CONCURRENT_HASHES must be positive")
	}
	return nil
}

// AccessTTL returns the access token lifetime as a time.Duration.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenLifetimeMs) * time.Millisecond
}

// RefreshTTL returns the refresh token lifetime as a time.Duration.
func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenLifetimeMs) * time.Millisecond
}

// SweepInterval parses RevocationSweepInterval. Returns 1m if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.RevocationSweepInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list disables the Kafka session event sink.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
