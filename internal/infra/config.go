package infra

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tradingbot_go/internal/domain"
)

const (
	// DefaultBaseURL points at Alpaca's paper endpoint. Live trading requires
	// an explicit override.
	DefaultBaseURL = "https://paper-api.alpaca.markets"

	// DefaultSelftestToken gates POST /selftest when no token is configured.
	DefaultSelftestToken = "let_me_in"
)

// Config holds every application setting. Secrets are overridable via
// environment variables after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr             string `yaml:"addr"`
		ReadTimeoutSec   int    `yaml:"read_timeout_sec"`
		ShutdownGraceSec int    `yaml:"shutdown_grace_sec"`
	} `yaml:"server"`

	Alpaca struct {
		BaseURL       string `yaml:"base_url"`
		KeyID         string `yaml:"key_id"`
		SecretKey     string `yaml:"secret_key"`
		StreamEnabled bool   `yaml:"stream_enabled"`
	} `yaml:"alpaca"`

	Webhook struct {
		Secret        string `yaml:"secret"`         // empty disables auth
		DefaultSymbol string `yaml:"default_symbol"` // symbol fallback for alerts
		SelftestToken string `yaml:"selftest_token"`
	} `yaml:"webhook"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, then applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv takes secrets from the environment when present. Both the
// ALPACA_* names and Alpaca's own APCA_API_* names are honored, first match
// wins.
func overrideWithEnv(cfg *Config) {
	if key := firstEnv("ALPACA_KEY_ID", "APCA_API_KEY_ID"); key != "" {
		cfg.Alpaca.KeyID = key
	}
	if secret := firstEnv("ALPACA_SECRET_KEY", "APCA_API_SECRET_KEY"); secret != "" {
		cfg.Alpaca.SecretKey = secret
	}
	if url := firstEnv("ALPACA_BASE_URL", "APCA_API_BASE_URL"); url != "" {
		cfg.Alpaca.BaseURL = url
	}
	if key := os.Getenv("WEBHOOK_KEY"); key != "" {
		cfg.Webhook.Secret = key
	}
	if token := os.Getenv("SELFTEST_TOKEN"); token != "" {
		cfg.Webhook.SelftestToken = token
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		cfg.Server.ReadTimeoutSec = 10
	}
	if cfg.Server.ShutdownGraceSec <= 0 {
		cfg.Server.ShutdownGraceSec = 5
	}
	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = DefaultBaseURL
	}
	if cfg.Webhook.DefaultSymbol == "" {
		cfg.Webhook.DefaultSymbol = "TSLA"
	}
	if cfg.Webhook.SelftestToken == "" {
		cfg.Webhook.SelftestToken = DefaultSelftestToken
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/tradingbot.db"
	}
}

// Validate checks configuration validity. Missing brokerage credentials are
// fatal: the process must not serve traffic it cannot dispatch.
func (c *Config) Validate() error {
	if c.Alpaca.KeyID == "" {
		return &domain.ConfigError{Field: "alpaca.key_id", Err: errors.New("missing Alpaca API key id")}
	}
	if c.Alpaca.SecretKey == "" {
		return &domain.ConfigError{Field: "alpaca.secret_key", Err: errors.New("missing Alpaca API secret key")}
	}
	if !hasPrefix(c.Alpaca.BaseURL, "http://") && !hasPrefix(c.Alpaca.BaseURL, "https://") {
		return &domain.ConfigError{Field: "alpaca.base_url", Err: fmt.Errorf("invalid base URL: %s", c.Alpaca.BaseURL)}
	}
	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}
