// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SourceHTTP = "http"
	SourceFile = "file"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top and
// applies environment overrides (MENU_API_BASE_URL style, see bindEnv).
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("MENU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnv(v)
	return v
}

// bindEnv registers every key so AutomaticEnv also applies to keys absent from the file.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"app.name", "app.version", "app.environment",
		"api.base_url", "api.catalog_path", "api.recommend_path", "api.timeout", "api.max_retries",
		"catalog.source", "catalog.file", "catalog.watch",
		"filters.default_budget", "filters.budget_max", "filters.budget_step",
		"notifications.voice_dismiss", "notifications.error_dismiss",
		"voice.rules_file",
		"cache.enabled", "cache.ttl", "cache.redis.address", "cache.redis.password", "cache.redis.db",
		"metrics.enabled", "metrics.address",
		"logging.level", "logging.format", "logging.output",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up to the project root.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// an unset variable expands to "" so applyDefaults can fill the key
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "menu-advisor"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000"
	}
	if cfg.API.CatalogPath == "" {
		cfg.API.CatalogPath = "/api/platillos"
	}
	if cfg.API.RecommendPath == "" {
		cfg.API.RecommendPath = "/api/recomendar"
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = SourceHTTP
	}

	if cfg.Filters.DefaultBudget == 0 {
		cfg.Filters.DefaultBudget = 50
	}
	if cfg.Filters.BudgetMax == 0 {
		cfg.Filters.BudgetMax = 100
	}
	if cfg.Filters.BudgetStep == 0 {
		cfg.Filters.BudgetStep = 5
	}

	if cfg.Notifications.VoiceDismiss == 0 {
		cfg.Notifications.VoiceDismiss = 3000
	}
	if cfg.Notifications.ErrorDismiss == 0 {
		cfg.Notifications.ErrorDismiss = 5000
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 60000
	}
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = "localhost:6379"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	switch cfg.Catalog.Source {
	case SourceHTTP:
	case SourceFile:
		if cfg.Catalog.File == "" {
			return fmt.Errorf("catalog.file is required when catalog.source is %q", SourceFile)
		}
	default:
		return fmt.Errorf("catalog.source must be %q or %q, got %q", SourceHTTP, SourceFile, cfg.Catalog.Source)
	}

	if cfg.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if cfg.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must not be negative")
	}
	if cfg.Filters.DefaultBudget < 0 || cfg.Filters.BudgetMax < cfg.Filters.DefaultBudget {
		return fmt.Errorf("filters.default_budget must be within 0..filters.budget_max")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
