package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds every runtime setting of the ThreatScan server.
type Config struct {
	ListenAddr   string `koanf:"listen_addr"`
	DatabasePath string `koanf:"database_path"`
	ModelsDir    string `koanf:"models_dir"`
	JWTSecret    string `koanf:"jwt_secret"`

	// Threat-intel blocklist feed.
	IntelRepoURL  string `koanf:"intel_repo_url"`
	IntelCacheDir string `koanf:"intel_cache_dir"`
	GitHubToken   string `koanf:"github_token"`

	// Alerting targets; empty disables the channel.
	WebhookURL     string `koanf:"webhook_url"`
	TelegramToken  string `koanf:"telegram_token"`
	TelegramChatID string `koanf:"telegram_chat_id"`

	// HTTPTimeout bounds every outbound OSINT/alerting request.
	HTTPTimeout time.Duration `koanf:"http_timeout"`
}

// Default returns the configuration used for local development.
func Default() *Config {
	return &Config{
		ListenAddr:    ":8080",
		DatabasePath:  "threatscan.db",
		ModelsDir:     "models",
		JWTSecret:     "threatscan-dev-secret",
		IntelCacheDir: ".threatscan-intel",
		HTTPTimeout:   10 * time.Second,
	}
}

// Load reads configuration from the given YAML file (if it exists), then
// overlays environment variable overrides (THREATSCAN_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	// THREATSCAN_LISTEN_ADDR -> listen_addr, and so on.
	if err := k.Load(env.Provider("THREATSCAN_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "THREATSCAN_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Validate checks the handful of settings that have no workable zero value.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive")
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("telegram_token and telegram_chat_id must be set together")
	}
	return nil
}
