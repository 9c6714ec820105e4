package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	TargetsFile         string        `mapstructure:"targets_file"`
	OutputFile          string        `mapstructure:"output_file"`
	PoolSize            int           `mapstructure:"pool_size"`
	FetchTimeoutSeconds int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout        time.Duration `mapstructure:"-"`
	MaxBodyBytes        int64         `mapstructure:"max_body_bytes"`
	UserAgent           string        `mapstructure:"user_agent"`
	FailOnHTTPStatus    bool          `mapstructure:"fail_on_http_status"`

	PublishersFile string `mapstructure:"publishers_file"`
	MetricsFile    string `mapstructure:"metrics_file"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "pagemeta-crawler")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("targets_file", "./config/config.json")
	v.SetDefault("output_file", "results.csv")
	v.SetDefault("pool_size", 5)
	v.SetDefault("fetch_timeout_seconds", 5)
	v.SetDefault("max_body_bytes", int64(1<<20))
	v.SetDefault("user_agent", "pagemeta-crawler/1.0")
	v.SetDefault("fail_on_http_status", false)
	v.SetDefault("publishers_file", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/outcomes.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.TargetsFile = strings.TrimSpace(cfg.TargetsFile)
	cfg.OutputFile = strings.TrimSpace(cfg.OutputFile)
	cfg.PublishersFile = strings.TrimSpace(cfg.PublishersFile)
	cfg.MetricsFile = strings.TrimSpace(cfg.MetricsFile)

	if cfg.TargetsFile == "" {
		return nil, fmt.Errorf("targets_file is required")
	}
	if cfg.OutputFile == "" {
		return nil, fmt.Errorf("output_file is required")
	}
	if cfg.PoolSize < 1 {
		return nil, fmt.Errorf("invalid pool_size %d (must be at least 1)", cfg.PoolSize)
	}
	if cfg.FetchTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second

	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("invalid max_body_bytes (must be positive)")
	}

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
