package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// PathEnv names the environment variable holding an optional config file path.
const PathEnv = "THETA_CONFIG"

// ErrUnsupportedFormat is returned by LoadFile for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server" json:"server"`
	Logging   LogConfig       `yaml:"logging" toml:"logging" json:"logging"`
	Fetch     FetchConfig     `yaml:"fetch" toml:"fetch" json:"fetch"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" toml:"cors" json:"cors"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port" toml:"port" json:"port"`
	Host string `envconfig:"HOST" default:"127.0.0.1" yaml:"host" toml:"host" json:"host"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level" json:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development" json:"development"`
}

// FetchConfig holds the outbound fetch client configuration.
type FetchConfig struct {
	UserAgent         string   `envconfig:"FETCH_USER_AGENT" default:"Theta/1.0" yaml:"user_agent" toml:"user_agent" json:"user_agent"`
	Timeout           Duration `envconfig:"FETCH_TIMEOUT" default:"30s" yaml:"timeout" toml:"timeout" json:"timeout"`
	MaxBodyBytes      int64    `envconfig:"FETCH_MAX_BODY_BYTES" default:"10485760" yaml:"max_body_bytes" toml:"max_body_bytes" json:"max_body_bytes"`
	BlockedHosts      []string `envconfig:"FETCH_BLOCKED_HOSTS" yaml:"blocked_hosts" toml:"blocked_hosts" json:"blocked_hosts"`
	RequestsPerSecond float64  `envconfig:"FETCH_RPS" default:"0" yaml:"requests_per_second" toml:"requests_per_second" json:"requests_per_second"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second" json:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst" json:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled" json:"enabled"`
}

// CORSConfig holds cross-origin configuration for the desktop shell.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*" yaml:"origins" toml:"origins" json:"origins"`
}

// Duration is a time.Duration that reads "30s"-style strings from every
// supported source.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load loads configuration from environment variables. When THETA_CONFIG
// names a file, that file is loaded first and the environment overlays it.
func Load() (*Config, error) {
	if path := os.Getenv(PathEnv); path != "" {
		return LoadFile(path)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads a YAML, TOML or JSON file over the defaults, then applies
// any environment variables that are explicitly set.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".json":
		err = sonic.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := overlayEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Fetch: FetchConfig{
			UserAgent:    "Theta/1.0",
			Timeout:      Duration(30 * time.Second),
			MaxBodyBytes: 10 << 20,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Server.Port == "":
		return errors.New("config: server port is required")
	case c.Fetch.Timeout < 0:
		return errors.New("config: fetch timeout must not be negative")
	case c.Fetch.MaxBodyBytes <= 0:
		return errors.New("config: fetch max body bytes must be positive")
	case c.Fetch.RequestsPerSecond < 0:
		return errors.New("config: fetch requests per second must not be negative")
	case c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0:
		return errors.New("config: rate limit requests per second must be positive when enabled")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// overlayEnv copies every field whose environment variable is set from a
// freshly processed env config into cfg. Unset variables keep the file value.
func overlayEnv(cfg *Config) error {
	var env Config
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overlay(reflect.ValueOf(cfg).Elem(), reflect.ValueOf(&env).Elem())
	return nil
}

func overlay(dst, src reflect.Value) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("envconfig")
		if key == "" {
			if field.Type.Kind() == reflect.Struct {
				overlay(dst.Field(i), src.Field(i))
			}
			continue
		}
		if _, ok := os.LookupEnv(key); ok {
			dst.Field(i).Set(src.Field(i))
		}
	}
}
