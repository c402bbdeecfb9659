// Package config loads per-server configuration from the environment,
// following the teacher's convention of struct tags + an optional .env file.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Base is embedded by every cmd/*'s Config struct. It carries the fields
// every protohack server needs regardless of wire protocol.
type Base struct {
	Addr string `env:"ADDR" envDefault:":9000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	AuditLogPath string `env:"AUDIT_LOG_PATH" envDefault:""`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9100"`

	MaxConnections int `env:"MAX_CONNECTIONS" envDefault:"2000"`

	CPURejectThreshold float64 `env:"CPU_REJECT_THRESHOLD" envDefault:"90.0"`

	ConnRateLimitIPBurst     int     `env:"CONN_RATE_LIMIT_IP_BURST" envDefault:"20"`
	ConnRateLimitIPRate      float64 `env:"CONN_RATE_LIMIT_IP_RATE" envDefault:"5.0"`
	ConnRateLimitGlobalBurst int     `env:"CONN_RATE_LIMIT_GLOBAL_BURST" envDefault:"1000"`
	ConnRateLimitGlobalRate  float64 `env:"CONN_RATE_LIMIT_GLOBAL_RATE" envDefault:"200.0"`
}

// Load parses environment variables (after an optional .env file) into cfg.
// cfg must be a pointer to a struct embedding Base.
func Load(cfg interface{}) error {
	if err := godotenv.Load(); err != nil {
		// Missing .env is fine; env vars alone are a valid configuration.
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	return nil
}

// Validate checks the fields carried by Base. Callers validate their own
// extra fields after calling this.
func (b Base) Validate() error {
	if b.Addr == "" {
		return fmt.Errorf("ADDR is required")
	}
	if b.MaxConnections < 1 {
		return fmt.Errorf("MAX_CONNECTIONS must be > 0, got %d", b.MaxConnections)
	}
	if b.CPURejectThreshold <= 0 || b.CPURejectThreshold > 100 {
		return fmt.Errorf("CPU_REJECT_THRESHOLD must be in (0,100], got %.1f", b.CPURejectThreshold)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[b.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of debug,info,warn,error (got %s)", b.LogLevel)
	}
	validFormats := map[string]bool{"json": true, "pretty": true}
	if !validFormats[b.LogFormat] {
		return fmt.Errorf("LOG_FORMAT must be one of json,pretty (got %s)", b.LogFormat)
	}
	return nil
}
