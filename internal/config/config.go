package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Providers []ProviderConfig `mapstructure:"providers"`
	// Routes maps a task type to its ordered provider preference list.
	// Providers absent from the list fall back to catalog priority order.
	Routes    map[string][]string `mapstructure:"routes"`
	Cache     CacheConfig         `mapstructure:"cache"`
	Redis     RedisConfig         `mapstructure:"redis"`
	Usage     UsageConfig         `mapstructure:"usage"`
	Client    ClientConfig        `mapstructure:"client"`
	RateLimit RateLimitConfig     `mapstructure:"rate_limit"`
	Store     StoreConfig         `mapstructure:"store"`
}

type ServerConfig struct {
	Port    string   `mapstructure:"port"`
	Env     string   `mapstructure:"env"`
	APIKeys []string `mapstructure:"api_keys"`
}

// Capabilities flags which task families a provider can serve.
type Capabilities struct {
	Chat        bool `mapstructure:"chat"`
	Vision      bool `mapstructure:"vision"`
	Audio       bool `mapstructure:"audio"`
	Translation bool `mapstructure:"translation"`
}

type ProviderConfig struct {
	// Key is the stable identity used in routes, cooldowns and stats.
	Key          string       `mapstructure:"key"`
	Model        string       `mapstructure:"model"`
	Vendor       string       `mapstructure:"vendor"`
	Priority     int          `mapstructure:"priority"`
	MaxTokens    int          `mapstructure:"max_tokens"`
	Capabilities Capabilities `mapstructure:"capabilities"`
	Active       bool         `mapstructure:"active"`
	BaseURL      string       `mapstructure:"base_url"`
	APIKey       string       `mapstructure:"api_key"`
}

type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type UsageConfig struct {
	Path          string        `mapstructure:"path"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type ClientConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	Referer        string        `mapstructure:"referer"`
	Title          string        `mapstructure:"title"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type StoreConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	if cf := os.Getenv("CONFIG_FILE"); cf != "" {
		v.SetConfigFile(cf)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("cache.ttl", "6h")
	v.SetDefault("cache.capacity", 500)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("usage.path", "data/usage.json")
	v.SetDefault("usage.flush_interval", "60s")
	v.SetDefault("client.timeout", "45s")
	v.SetDefault("client.connect_timeout", "10s")
	v.SetDefault("client.max_retries", 3)
	v.SetDefault("client.referer", "https://beacon-gw.dev")
	v.SetDefault("client.title", "Beacon Gateway")
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("store.path", "data/beacon.db")
	v.SetDefault("store.migrations_path", "migrations")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// Resolve API keys declared as "ENV:VAR_NAME"
	for i, p := range cfg.Providers {
		if strings.HasPrefix(p.APIKey, "ENV:") {
			envVar := strings.TrimPrefix(p.APIKey, "ENV:")
			val := os.Getenv(envVar)
			if val == "" {
				val = v.GetString(envVar)
			}
			cfg.Providers[i].APIKey = val
		}
	}

	return &cfg, nil
}

// HasCredentials reports whether at least one active provider carries an API
// key. A deployment without any key runs the gateway permanently offline.
func (c *Config) HasCredentials() bool {
	for _, p := range c.Providers {
		if p.Active && p.APIKey != "" {
			return true
		}
	}
	return false
}
