// Package config loads and validates runtime configuration.
//
// Configuration comes from an optional YAML file plus SKILLROAD_* environment
// overrides. Fail-fast: a missing required value aborts startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port        string        `mapstructure:"port"`
	DatabaseURL string        `mapstructure:"database-url"`
	RedisURL    string        `mapstructure:"redis-url"`
	LogJSON     bool          `mapstructure:"log-json"`
	Debug       bool          `mapstructure:"debug"`
	Portals     *PortalConfig `mapstructure:"portals"`
	AI          *AIConfig     `mapstructure:"ai"`
	Market      *MarketConfig `mapstructure:"market"`
	SkillsFile  string        `mapstructure:"skills-file"`
}

// PortalConfig carries per-provider credentials. An absent key means the
// adapter is omitted from the aggregator fan-out, not an error.
type PortalConfig struct {
	LinkedInAPIKey    string        `mapstructure:"linkedin-api-key"`
	IndeedPublisherID string        `mapstructure:"indeed-publisher-id"`
	GlassdoorEnabled  bool          `mapstructure:"glassdoor-enabled"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// AIConfig selects and configures the content-generation provider.
type AIConfig struct {
	Provider string        `mapstructure:"provider"` // "gemini" or "openai"
	Gemini   *GeminiConfig `mapstructure:"gemini"`
	OpenAI   *OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api-key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api-key"`
	Model  string `mapstructure:"model"`
}

// MarketConfig tunes the market-analysis pipeline.
type MarketConfig struct {
	SampleSize      int           `mapstructure:"sample-size"`
	RefreshSpec     string        `mapstructure:"refresh-spec"` // cron spec for the background refresh
	FreshnessWindow time.Duration `mapstructure:"freshness-window"`
}

const envPrefix = "SKILLROAD"

// Load reads the config file (if any) and environment, applies defaults and
// returns a validated Config.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("portals.timeout", 15*time.Second)
	v.SetDefault("portals.glassdoor-enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("market.sample-size", 100)
	v.SetDefault("market.refresh-spec", "@every 6h")
	v.SetDefault("market.freshness-window", 24*time.Hour)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper has registered, so every
	// env-overridable key is bound explicitly; without this, SKILLROAD_*
	// variables for keys that have no default are invisible.
	envKeys := []string{
		"port", "database-url", "redis-url", "log-json", "debug", "skills-file",
		"portals.linkedin-api-key", "portals.indeed-publisher-id",
		"portals.glassdoor-enabled", "portals.timeout",
		"ai.provider", "ai.gemini.api-key", "ai.gemini.model",
		"ai.openai.api-key", "ai.openai.model",
		"market.sample-size", "market.refresh-spec", "market.freshness-window",
	}
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database-url is required (SKILLROAD_DATABASE_URL)")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis-url is required (SKILLROAD_REDIS_URL)")
	}
	if cfg.Portals == nil {
		cfg.Portals = &PortalConfig{Timeout: 15 * time.Second}
	}
	if cfg.Portals.Timeout <= 0 {
		cfg.Portals.Timeout = 15 * time.Second
	}
	if cfg.Market == nil {
		cfg.Market = &MarketConfig{}
	}
	if cfg.Market.SampleSize < 1 {
		cfg.Market.SampleSize = 100
	}
	if cfg.Market.RefreshSpec == "" {
		cfg.Market.RefreshSpec = "@every 6h"
	}
	if cfg.Market.FreshnessWindow <= 0 {
		cfg.Market.FreshnessWindow = 24 * time.Hour
	}
	if cfg.AI == nil {
		cfg.AI = &AIConfig{Provider: "gemini"}
	}
	switch cfg.AI.Provider {
	case "gemini", "openai":
	default:
		return nil, fmt.Errorf("ai.provider must be gemini or openai, got %q", cfg.AI.Provider)
	}

	return &cfg, nil
}
