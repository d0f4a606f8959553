package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads configuration in precedence order: defaults, then the yaml
// file at path (optional), then PROMOGEN_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg. Only settings that
// make sense per-deployment are exposed this way; structural settings
// stay in the file.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PROMOGEN_PORT")
	setString(&cfg.Server.ManagementKey, "PROMOGEN_MANAGEMENT_KEY")
	setBool(&cfg.Logging.Debug, "PROMOGEN_DEBUG")
	setString(&cfg.Logging.File, "PROMOGEN_LOG_FILE")
	setString(&cfg.Gateway.BaseURL, "PROMOGEN_GATEWAY_URL")
	setString(&cfg.Gateway.APIKey, "PROMOGEN_GATEWAY_API_KEY")
	setString(&cfg.Provider.BaseURL, "PROMOGEN_PROVIDER_URL")
	setString(&cfg.Provider.FallbackAPIKey, "PROMOGEN_FALLBACK_API_KEY")
	setString(&cfg.Credentials.Backend, "PROMOGEN_CREDENTIALS_BACKEND")
	setString(&cfg.Credentials.SecretKey, "PROMOGEN_SECRET_KEY")
	setString(&cfg.Credentials.RedisAddr, "PROMOGEN_CREDENTIALS_REDIS_ADDR")
	setString(&cfg.Credentials.RedisPassword, "PROMOGEN_CREDENTIALS_REDIS_PASSWORD")
	setString(&cfg.Credentials.PostgresDSN, "PROMOGEN_POSTGRES_DSN")
	setString(&cfg.Cache.Backend, "PROMOGEN_CACHE_BACKEND")
	setString(&cfg.Cache.RedisAddr, "PROMOGEN_CACHE_REDIS_ADDR")
	setString(&cfg.Cache.RedisPassword, "PROMOGEN_CACHE_REDIS_PASSWORD")
	setInt(&cfg.Cache.TTLSec, "PROMOGEN_CACHE_TTL_SEC")
	setInt(&cfg.Execution.AttemptTimeoutSec, "PROMOGEN_ATTEMPT_TIMEOUT_SEC")
	setInt(&cfg.Execution.VideoPollIntervalSec, "PROMOGEN_VIDEO_POLL_INTERVAL_SEC")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}
