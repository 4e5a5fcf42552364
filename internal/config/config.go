// Package config loads jobbrowse settings from an optional config file, the
// environment (JOBAGG_ prefix) and command line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pirate-pro/get-resume-direction/pkg/cache"
	"github.com/pirate-pro/get-resume-direction/pkg/client"
	"github.com/pirate-pro/get-resume-direction/pkg/debounce"
	"github.com/pirate-pro/get-resume-direction/pkg/logging"
	"github.com/pirate-pro/get-resume-direction/pkg/pagination"
	"github.com/pirate-pro/get-resume-direction/pkg/query"
)

// EnvPrefix prefixes every environment variable, e.g. JOBAGG_API_BASE_URL.
const EnvPrefix = "JOBAGG"

// Config is the complete jobbrowse configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	List    ListConfig    `mapstructure:"list"`
	Export  ExportConfig  `mapstructure:"export"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	StaleTime  time.Duration `mapstructure:"stale_time"`
	GCTime     time.Duration `mapstructure:"gc_time"`
	GCInterval time.Duration `mapstructure:"gc_interval"`
}

type ListConfig struct {
	QuietPeriod time.Duration `mapstructure:"quiet_period"`
	PageSize    int           `mapstructure:"page_size"`
	MaxPageSize int           `mapstructure:"max_page_size"`
	Prefetch    bool          `mapstructure:"prefetch"`
}

type ExportConfig struct {
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxPages       int           `mapstructure:"max_pages"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. ":9090".
	Addr string `mapstructure:"addr"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"api-url":      "api.base_url",
	"timeout":      "api.timeout",
	"log-level":    "log.level",
	"pretty":       "log.pretty",
	"metrics-addr": "metrics.addr",
	"page-size":    "list.page_size",
	"no-prefetch":  "list.no_prefetch",
}

func setDefaults(v *viper.Viper) {
	clientDefaults := client.DefaultConfig("http://localhost:8000")
	cacheDefaults := cache.DefaultConfig()
	batchDefaults := pagination.DefaultBatchConfig()

	v.SetDefault("api.base_url", clientDefaults.BaseURL)
	v.SetDefault("api.user_agent", clientDefaults.UserAgent)
	v.SetDefault("api.timeout", clientDefaults.Timeout)

	v.SetDefault("cache.stale_time", cacheDefaults.StaleTime)
	v.SetDefault("cache.gc_time", cacheDefaults.GCTime)
	v.SetDefault("cache.gc_interval", cacheDefaults.GCInterval)

	v.SetDefault("list.quiet_period", debounce.DefaultQuietPeriod)
	v.SetDefault("list.page_size", query.DefaultPageSize)
	v.SetDefault("list.max_page_size", query.MaxPageSize)
	v.SetDefault("list.prefetch", true)
	v.SetDefault("list.no_prefetch", false)

	v.SetDefault("export.max_concurrency", batchDefaults.MaxConcurrency)
	v.SetDefault("export.timeout", batchDefaults.Timeout)
	v.SetDefault("export.max_pages", batchDefaults.MaxPages)

	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)

	v.SetDefault("metrics.addr", "")
}

// Load reads the configuration. path may be empty, in which case
// jobbrowse.yaml is looked up in the working directory and a missing file is
// not an error. flags may be nil; flags that were set on the command line win
// over file and environment.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("jobbrowse")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
		case errors.Is(err, os.ErrNotExist) && path == "":
		default:
			return Config{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if v.GetBool("list.no_prefetch") {
		cfg.List.Prefetch = false
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the components would reject.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) url (got %q)", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive (got %s)", c.API.Timeout)
	}
	if c.Cache.StaleTime < 0 {
		return fmt.Errorf("cache.stale_time must not be negative (got %s)", c.Cache.StaleTime)
	}
	if c.Cache.GCTime < c.Cache.StaleTime {
		return fmt.Errorf("cache.gc_time (%s) must be at least cache.stale_time (%s)", c.Cache.GCTime, c.Cache.StaleTime)
	}
	if c.List.QuietPeriod <= 0 {
		return fmt.Errorf("list.quiet_period must be positive (got %s)", c.List.QuietPeriod)
	}
	if c.List.MaxPageSize <= 0 || c.List.PageSize <= 0 || c.List.PageSize > c.List.MaxPageSize {
		return fmt.Errorf("list.page_size must be between 1 and list.max_page_size (got %d/%d)", c.List.PageSize, c.List.MaxPageSize)
	}
	if c.Export.MaxConcurrency <= 0 {
		return fmt.Errorf("export.max_concurrency must be positive (got %d)", c.Export.MaxConcurrency)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Client returns the API client configuration.
func (c Config) Client() client.Config {
	cfg := client.DefaultConfig(c.API.BaseURL)
	cfg.UserAgent = c.API.UserAgent
	cfg.Timeout = c.API.Timeout
	return cfg
}

// QueryCache returns the query cache configuration.
func (c Config) QueryCache() cache.Config {
	return cache.Config{
		StaleTime:  c.Cache.StaleTime,
		GCTime:     c.Cache.GCTime,
		GCInterval: c.Cache.GCInterval,
	}
}

// Batch returns the export configuration.
func (c Config) Batch() pagination.BatchConfig {
	return pagination.BatchConfig{
		MaxConcurrency: c.Export.MaxConcurrency,
		Timeout:        c.Export.Timeout,
		MaxPages:       c.Export.MaxPages,
	}
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.Log.Pretty
	cfg.Service = "jobbrowse"
	return cfg
}
