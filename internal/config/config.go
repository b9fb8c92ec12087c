// Package config loads the access layer configuration from the environment
// and optional files.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config is the full runtime configuration, decoded from the environment.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Auth      AuthConfig
	Ledger    LedgerConfig
	Store     StoreConfig
	RateLimit RateLimitConfig

	// CatalogPath optionally points at a YAML price catalog; the built-in
	// prices apply when unset.
	CatalogPath string `env:"CATALOG_PATH"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
	Port            int           `env:"SERVER_PORT,default=8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT,default=15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT,default=30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
}

// LoggingConfig controls log level and format.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
	Output string `env:"LOG_OUTPUT,default=stdout"`
}

// AuthConfig controls session token issuance.
type AuthConfig struct {
	TokenSecret string        `env:"ACCESS_TOKEN_SECRET,default=dev-only-access-secret"`
	TokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL,default=12h"`
}

// LedgerConfig controls the ledger RPC client and the payment wallet.
type LedgerConfig struct {
	RPCURL         string        `env:"LEDGER_RPC_URL,default=https://api.devnet.solana.com"`
	Commitment     string        `env:"LEDGER_COMMITMENT,default=confirmed"`
	RequestTimeout time.Duration `env:"LEDGER_REQUEST_TIMEOUT,default=30s"`
	ConfirmTimeout time.Duration `env:"LEDGER_CONFIRM_TIMEOUT,default=60s"`
	SourceAddress  string        `env:"LEDGER_SOURCE_ADDRESS"`
	// Destination defaults to the fixed destination wallet baked into the
	// chain package when empty.
	Destination string `env:"LEDGER_DESTINATION_ADDRESS"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	Backend     string `env:"STORE_BACKEND,default=memory"` // memory, postgres, docstore
	PostgresDSN string `env:"STORE_POSTGRES_DSN"`
	DocstoreURL string `env:"DOCSTORE_URL"`
	DocstoreKey string `env:"DOCSTORE_SERVICE_KEY"`
}

// RateLimitConfig controls the payment endpoint rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond int `env:"RATE_LIMIT_RPS,default=5"`
	Burst             int `env:"RATE_LIMIT_BURST,default=10"`
}

// Load decodes the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	switch cfg.Store.Backend {
	case "memory":
	case "postgres":
		if cfg.Store.PostgresDSN == "" {
			return nil, fmt.Errorf("STORE_POSTGRES_DSN is required for the postgres backend")
		}
	case "docstore":
		if cfg.Store.DocstoreURL == "" {
			return nil, fmt.Errorf("DOCSTORE_URL is required for the docstore backend")
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	return &cfg, nil
}
