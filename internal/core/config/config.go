package config

import (
	"time"

	"github.com/ledgerbridge/asset-gateway/internal/infra/fabric"
	"github.com/ledgerbridge/asset-gateway/internal/infra/storage/postgres"
	redisstore "github.com/ledgerbridge/asset-gateway/internal/infra/storage/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig      `yaml:"server"`
	Fabric   fabric.Config     `yaml:"fabric"`
	Submit   SubmitConfig      `yaml:"submit"`
	Redis    redisstore.Config `yaml:"redis"`
	Database postgres.Config   `yaml:"database"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // clients authenticate with X-Api-Key
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SubmitConfig controls the transaction retry machinery.
type SubmitConfig struct {
	RetryIntervalMS int64 `yaml:"retry_interval_ms"` // delay between retry ticks
	MaxRetries      int   `yaml:"max_retries"`       // abandonment ceiling
}

// RetryInterval returns the retry tick cadence as a duration.
func (c SubmitConfig) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMS) * time.Millisecond
}
