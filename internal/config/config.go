// Package config provides configuration loading for mcp-cliniko.
//
// Configuration is loaded from an optional YAML file and environment
// variables, with defaults for everything except the Cliniko API key.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Default values.
const (
	DefaultBaseURL              = "https://api.au4.cliniko.com/v1"
	DefaultUserAgent            = "MCP-Cliniko/1.0"
	DefaultTimeout              = 30 * time.Second
	DefaultRequestInterval      = time.Second
	DefaultDeleteInterval       = 500 * time.Millisecond
	DefaultRateLimitCooldown    = 5 * time.Second
	DefaultTestDomain           = "test.cliniko.com"
	DefaultServerAddr           = "127.0.0.1:9091"
	DefaultServiceName          = "mcp-cliniko"
	DefaultServerShutdownPeriod = 10 * time.Second
)

// ErrMissingAPIKey is returned by Validate when no Cliniko API key is configured.
var ErrMissingAPIKey = errors.New("CLINIKO_API_KEY environment variable is required")

// Config holds the complete mcp-cliniko configuration.
type Config struct {
	Cliniko   ClinikoConfig   `koanf:"cliniko"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Workflow  WorkflowConfig  `koanf:"workflow"`
}

// ClinikoConfig holds remote API settings.
type ClinikoConfig struct {
	APIKey    Secret   `koanf:"api_key"`
	BaseURL   string   `koanf:"base_url"`
	UserAgent string   `koanf:"user_agent"`
	Timeout   Duration `koanf:"timeout"`
}

// ServerConfig holds the optional HTTP sidecar settings.
type ServerConfig struct {
	Enabled         bool     `koanf:"http_enabled"`
	Addr            string   `koanf:"http_addr"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds log level and format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Protocol    string `koanf:"protocol"`
	Insecure    bool   `koanf:"insecure"`
	ServiceName string `koanf:"service_name"`
}

// WorkflowConfig holds the fixed delays used by batch and demo tools.
type WorkflowConfig struct {
	RequestInterval   Duration `koanf:"request_interval"`
	DeleteInterval    Duration `koanf:"delete_interval"`
	RateLimitCooldown Duration `koanf:"rate_limit_cooldown"`
	TestDomain        string   `koanf:"test_domain"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.Cliniko.APIKey.IsSet() {
		return ErrMissingAPIKey
	}

	u, err := url.Parse(c.Cliniko.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid cliniko base url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("invalid cliniko base url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("cliniko base url has no host")
	}

	if c.Cliniko.Timeout.Duration() <= 0 {
		return fmt.Errorf("cliniko timeout must be positive")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format %q (expected json or console)", c.Logging.Format)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Protocol {
		case "grpc", "http/protobuf":
		default:
			return fmt.Errorf("invalid telemetry protocol %q", c.Telemetry.Protocol)
		}
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry endpoint required when telemetry is enabled")
		}
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("server http_addr required when the http server is enabled")
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Cliniko.BaseURL == "" {
		cfg.Cliniko.BaseURL = DefaultBaseURL
	}
	cfg.Cliniko.BaseURL = strings.TrimRight(cfg.Cliniko.BaseURL, "/")
	if cfg.Cliniko.UserAgent == "" {
		cfg.Cliniko.UserAgent = DefaultUserAgent
	}
	if cfg.Cliniko.Timeout == 0 {
		cfg.Cliniko.Timeout = Duration(DefaultTimeout)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(DefaultServerShutdownPeriod)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "http/protobuf"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}

	if cfg.Workflow.RequestInterval == 0 {
		cfg.Workflow.RequestInterval = Duration(DefaultRequestInterval)
	}
	if cfg.Workflow.DeleteInterval == 0 {
		cfg.Workflow.DeleteInterval = Duration(DefaultDeleteInterval)
	}
	if cfg.Workflow.RateLimitCooldown == 0 {
		cfg.Workflow.RateLimitCooldown = Duration(DefaultRateLimitCooldown)
	}
	if cfg.Workflow.TestDomain == "" {
		cfg.Workflow.TestDomain = DefaultTestDomain
	}
}
