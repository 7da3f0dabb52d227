package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/llm"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port            string
		Mode            string
		ShutdownTimeout time.Duration
	}
	LLM struct {
		APIKey      string
		BaseURL     string
		Model       string
		MaxTokens   int
		Temperature *float64
		Timeout     time.Duration
		StatsWindow time.Duration
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	Persistence struct {
		Enabled bool
	}
	RateLimit struct {
		RPM   int
		Burst int
	}
	Index struct {
		Seed bool
	}
	Search struct {
		CacheTTL time.Duration
	}
	Health struct {
		Interval time.Duration
	}
	Log struct {
		Level string
	}
}

// Load reads config.yaml from the working directory if present, then the
// environment (llm.base_url is LLM_BASE_URL, and so on).
func Load() (*Config, error) {
	return LoadFrom(".")
}

func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.stats_window", "1h")
	v.SetDefault("database.url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("persistence.enabled", false)
	v.SetDefault("ratelimit.rpm", 60)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("index.seed", true)
	v.SetDefault("search.cache_ttl", "5m")
	v.SetDefault("health.interval", "30s")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	config.Server.Port = v.GetString("server.port")
	config.Server.Mode = v.GetString("server.mode")
	config.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")

	config.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	config.LLM.BaseURL = v.GetString("llm.base_url")
	config.LLM.Model = v.GetString("llm.model")
	config.LLM.MaxTokens = v.GetInt("llm.max_tokens")
	if v.IsSet("llm.temperature") && v.GetString("llm.temperature") != "" {
		t := v.GetFloat64("llm.temperature")
		config.LLM.Temperature = &t
	}
	config.LLM.Timeout = v.GetDuration("llm.timeout")
	config.LLM.StatsWindow = v.GetDuration("llm.stats_window")

	config.Database.URL = v.GetString("database.url")
	config.Redis.URL = v.GetString("redis.url")
	config.Persistence.Enabled = v.GetBool("persistence.enabled")
	config.RateLimit.RPM = v.GetInt("ratelimit.rpm")
	config.RateLimit.Burst = v.GetInt("ratelimit.burst")
	config.Index.Seed = v.GetBool("index.seed")
	config.Search.CacheTTL = v.GetDuration("search.cache_ttl")
	config.Health.Interval = v.GetDuration("health.interval")
	config.Log.Level = v.GetString("log.level")

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens cannot be negative")
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.RateLimit.RPM < 0 {
		return fmt.Errorf("ratelimit.rpm cannot be negative")
	}
	return nil
}

// ValidateLLM reports whether the language model credential is present.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	return nil
}

// LLMOverrides returns the explicitly configured generation overrides.
func (c *Config) LLMOverrides() llm.Overrides {
	return llm.Overrides{
		Model:       c.LLM.Model,
		MaxTokens:   c.LLM.MaxTokens,
		Temperature: c.LLM.Temperature,
	}
}

// PersistenceEnabled is true when analytics storage should be attempted.
func (c *Config) PersistenceEnabled() bool {
	return c.Persistence.Enabled && (c.Database.URL != "" || c.Redis.URL != "")
}
