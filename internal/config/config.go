package config

import (
	"fmt"
	"time"
)

// Config is the full runtime configuration. It is loaded once at
// bootstrap and passed by reference; nothing in this package holds
// process-global state.
type Config struct {
	Server      ServerConfig     `yaml:"server"`
	Logging     LoggingConfig    `yaml:"logging"`
	Gateway     GatewayConfig    `yaml:"gateway"`
	Provider    ProviderConfig   `yaml:"provider"`
	Credentials CredentialConfig `yaml:"credentials"`
	Cache       CacheConfig      `yaml:"cache"`
	Execution   ExecutionConfig  `yaml:"execution"`
	RateLimit   RateLimitConfig  `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port          string `yaml:"port"`
	BasePath      string `yaml:"base_path"`
	ManagementKey string `yaml:"management_key"`
}

type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file"`
}

// GatewayConfig describes the managed gateway path. An empty BaseURL
// disables the managed path entirely; the router then runs direct-only.
type GatewayConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// ProviderConfig describes the direct-to-provider path. FallbackAPIKey is
// the operator-held credential used when the managed path is unreachable.
type ProviderConfig struct {
	Name           string `yaml:"name"`
	BaseURL        string `yaml:"base_url"`
	FallbackAPIKey string `yaml:"fallback_api_key"`
}

type CredentialConfig struct {
	Backend             string `yaml:"backend"` // memory, redis, postgres
	SecretKey           string `yaml:"secret_key"`
	RedisAddr           string `yaml:"redis_addr"`
	RedisPassword       string `yaml:"redis_password"`
	RedisDB             int    `yaml:"redis_db"`
	RedisPrefix         string `yaml:"redis_prefix"`
	PostgresDSN         string `yaml:"postgres_dsn"`
	RecoveryCooldownMin int    `yaml:"recovery_cooldown_min"`
	RecoveryIntervalMin int    `yaml:"recovery_interval_min"`
}

type CacheConfig struct {
	Backend       string `yaml:"backend"` // memory, redis
	TTLSec        int    `yaml:"ttl_sec"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

type ExecutionConfig struct {
	AttemptTimeoutSec    int `yaml:"attempt_timeout_sec"`
	VideoPollIntervalSec int `yaml:"video_poll_interval_sec"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8085"},
		Provider: ProviderConfig{
			Name:    "genai",
			BaseURL: "https://api.generative.example.com",
		},
		Gateway:     GatewayConfig{TimeoutSec: 120},
		Credentials: CredentialConfig{Backend: "memory", RecoveryCooldownMin: 30, RecoveryIntervalMin: 10},
		Cache:       CacheConfig{Backend: "memory", TTLSec: 3600},
		Execution:   ExecutionConfig{AttemptTimeoutSec: 60, VideoPollIntervalSec: 10},
		RateLimit:   RateLimitConfig{Enabled: true, RPS: 5, Burst: 10},
	}
}

// Validate rejects configurations the process cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	switch c.Credentials.Backend {
	case "memory":
	case "redis":
		if c.Credentials.RedisAddr == "" {
			return fmt.Errorf("credentials.redis_addr is required for the redis backend")
		}
	case "postgres":
		if c.Credentials.PostgresDSN == "" {
			return fmt.Errorf("credentials.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("credentials.backend must be memory, redis, or postgres")
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be memory or redis")
	}
	if c.Credentials.Backend != "memory" && c.Credentials.SecretKey == "" {
		return fmt.Errorf("credentials.secret_key is required for persistent backends")
	}
	return nil
}

func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.Execution.AttemptTimeoutSec) * time.Second
}

func (c *Config) VideoPollInterval() time.Duration {
	return time.Duration(c.Execution.VideoPollIntervalSec) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSec) * time.Second
}
