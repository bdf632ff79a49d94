// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	API           APIConfig          `mapstructure:"api"`
	Catalog       CatalogConfig      `mapstructure:"catalog"`
	Filters       FiltersConfig      `mapstructure:"filters"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Voice         VoiceConfig        `mapstructure:"voice"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig points at the catalog and recommendation service.
type APIConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	CatalogPath   string `mapstructure:"catalog_path"`
	RecommendPath string `mapstructure:"recommend_path"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds, 0 = no timeout
	MaxRetries    int    `mapstructure:"max_retries"`
}

// CatalogURL joins the base URL and the catalog path.
func (a APIConfig) CatalogURL() string {
	return joinURL(a.BaseURL, a.CatalogPath)
}

// RecommendURL joins the base URL and the recommendation path.
func (a APIConfig) RecommendURL() string {
	return joinURL(a.BaseURL, a.RecommendPath)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// CatalogConfig selects where the catalog comes from.
type CatalogConfig struct {
	Source string `mapstructure:"source"` // "http" or "file"
	File   string `mapstructure:"file"`
	Watch  bool   `mapstructure:"watch"`
}

type FiltersConfig struct {
	DefaultBudget int `mapstructure:"default_budget"`
	BudgetMax     int `mapstructure:"budget_max"`
	BudgetStep    int `mapstructure:"budget_step"`
}

type NotificationConfig struct {
	VoiceDismiss int `mapstructure:"voice_dismiss"` // milliseconds
	ErrorDismiss int `mapstructure:"error_dismiss"` // milliseconds
}

// VoiceConfig points at an optional rule table replacing the built-in one.
type VoiceConfig struct {
	RulesFile string `mapstructure:"rules_file"`
}

// CacheConfig configures the optional Redis recommendation cache.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl"` // milliseconds
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func (c *Config) String() string {
	return fmt.Sprintf("%s %s (%s) api=%s catalog=%s cache=%t",
		c.App.Name, c.App.Version, c.App.Environment, c.API.BaseURL, c.Catalog.Source, c.Cache.Enabled)
}
