// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Narration  NarrationConfig  `mapstructure:"narration"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// DatasetConfig locates the prepared CSV export the core consumes.
type DatasetConfig struct {
	Path       string `mapstructure:"path"`
	DateFormat string `mapstructure:"date_format"` // Go layout, default 02/01/2006
}

// EngineConfig holds dispatcher/classifier tunables.
type EngineConfig struct {
	HistoryLimit    int     `mapstructure:"history_limit"`     // bounded turns per session
	MinIntentScore  float64 `mapstructure:"min_intent_score"`  // below this -> unknown
	DefaultTopLimit int     `mapstructure:"default_top_limit"` // "top products" without a count
	MaxTopLimit     int     `mapstructure:"max_top_limit"`
}

// NarrationConfig holds settings for the external narration service.
type NarrationConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	BaseURL     string   `mapstructure:"base_url"`
	APIKey      string   `mapstructure:"api_key"`
	Models      []string `mapstructure:"models"` // fallback chain, tried in order
	Timeout     int      `mapstructure:"timeout"` // milliseconds
	MaxRetries  int      `mapstructure:"max_retries"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature float64  `mapstructure:"temperature"`
}

// TimeoutDuration returns the narration timeout as a duration.
func (n NarrationConfig) TimeoutDuration() time.Duration {
	if n.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.Timeout) * time.Millisecond
}

// CacheConfig holds settings for the optional redis result cache.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl"` // seconds
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TTLDuration returns the cache TTL as a duration.
func (c CacheConfig) TTLDuration() time.Duration {
	if c.TTL <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.TTL) * time.Second
}

type ServerConfig struct {
	Address        string `mapstructure:"address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
