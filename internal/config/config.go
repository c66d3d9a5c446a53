// Package config handles TOML configuration loading, CLI/env overrides and
// named configuration lookups.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/gateway-proxy/config.toml",
	"configs/config.toml",
}

// Lookup keys understood by (*Config).String.
const (
	KeyTargetURL      = "TARGET_URL"
	KeyUsersTable     = "USERS_TABLE_NAME"
	KeyAuthClientID   = "AUTH_CLIENT_ID"
	KeyAuthPoolID     = "AUTH_USER_POOL_ID"
	KeyAuthSigningKey = "AUTH_SIGNING_KEY"
)

// ErrMissing is returned by Lookup implementations when a key has no value.
var ErrMissing = errors.New("configuration value missing")

// Lookup reads a string configuration value by name.
type Lookup interface {
	String(key string) (string, error)
}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config    string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Runtime   string `kong:"default='lambda',enum='lambda,http',help='Runtime: lambda|http.',env='PROXY_RUNTIME'"`
	Function  string `kong:"default='proxy',enum='proxy,users,auth',help='Lambda function to serve: proxy|users|auth.',env='PROXY_FUNCTION'"`
	Host      string `kong:"help='Listen host for the http runtime (overrides config).',env='HOST'"`
	Port      int    `kong:"short='p',help='Listen port for the http runtime (overrides config).',env='PORT'"`
	TargetURL string `kong:"help='Upstream base URL (overrides config).'"`
	RedisURL  string `kong:"help='Redis URL for users and auth stores (overrides config).',env='REDIS_URL'"`
	LogLevel  string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Users    UsersConfig    `toml:"users"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds settings for the local http runtime.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8080); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// UpstreamConfig holds upstream connection settings.
type UpstreamConfig struct {
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
}

// UsersConfig holds the user store settings.
type UsersConfig struct {
	TableName string `toml:"table_name"`
	RedisURL  string `toml:"redis_url"`
}

// AuthConfig holds identity provider settings.
type AuthConfig struct {
	ClientID        string `toml:"client_id"`
	UserPoolID      string `toml:"user_pool_id"`
	SigningKey      string `toml:"signing_key"`
	CodeTTLSeconds  int    `toml:"code_ttl_seconds"`
	TokenTTLSeconds int    `toml:"token_ttl_seconds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file, if any, and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/gateway-proxy/config.toml then configs/config.toml. Finding nothing is
// not an error: Lambda deployments are usually configured by environment alone.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.TargetURL != "" {
		c.Upstream.BaseURL = cli.TargetURL
	}
	if cli.RedisURL != "" {
		c.Users.RedisURL = cli.RedisURL
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	// The upstream URL may also arrive via TARGET_URL at request time, so it is
	// only checked here when the file or flags set it.
	if c.Upstream.BaseURL != "" {
		if err := ValidateBaseURL(c.Upstream.BaseURL); err != nil {
			return fmt.Errorf("upstream.base_url: %w", err)
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}
	if c.Auth.CodeTTLSeconds < 0 {
		return fmt.Errorf("auth.code_ttl_seconds must be non-negative; got %d", c.Auth.CodeTTLSeconds)
	}
	if c.Auth.TokenTTLSeconds < 0 {
		return fmt.Errorf("auth.token_ttl_seconds must be non-negative; got %d", c.Auth.TokenTTLSeconds)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	if c.Users.RedisURL != "" {
		u, err := url.Parse(c.Users.RedisURL)
		if err != nil {
			return fmt.Errorf("users.redis_url is not a valid URL: %w", err)
		}
		if u.Scheme != "redis" && u.Scheme != "rediss" {
			return fmt.Errorf("users.redis_url must use redis:// or rediss://; got %q", c.Users.RedisURL)
		}
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range reservedRoutes {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// reservedRoutes are served by the http runtime and cannot host metrics.
var reservedRoutes = []string{"/users", "/signup", "/confirm", "/healthz", "/proxy/status"}

// ValidateBaseURL checks that raw is an absolute http or https URL.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("must use http or https; got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("must include a host; got %q", raw)
	}
	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 6 * 1024 * 1024 // Lambda synchronous payload limit
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 30
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Users.RedisURL == "" {
		c.Users.RedisURL = "redis://localhost:6379/0"
	}
	if c.Auth.CodeTTLSeconds == 0 {
		c.Auth.CodeTTLSeconds = 24 * 60 * 60
	}
	if c.Auth.TokenTTLSeconds == 0 {
		c.Auth.TokenTTLSeconds = 60 * 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// String implements Lookup. The environment variable named key wins over the
// file value; an empty result is reported as ErrMissing.
func (c *Config) String(key string) (string, error) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, nil
	}

	var v string
	switch key {
	case KeyTargetURL:
		v = c.Upstream.BaseURL
	case KeyUsersTable:
		v = c.Users.TableName
	case KeyAuthClientID:
		v = c.Auth.ClientID
	case KeyAuthPoolID:
		v = c.Auth.UserPoolID
	case KeyAuthSigningKey:
		v = c.Auth.SigningKey
	}
	if v == "" {
		return "", fmt.Errorf("%s: %w", key, ErrMissing)
	}
	return v, nil
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
