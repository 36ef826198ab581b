// Package config loads pokedex settings from defaults, an optional config
// file, POKEDEX_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Sternrassler/pokedex/pkg/fetch"
	"github.com/Sternrassler/pokedex/pkg/logging"
	"github.com/Sternrassler/pokedex/pkg/pokeapi"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. POKEDEX_API_URL.
const EnvPrefix = "POKEDEX"

// Config holds application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	List    ListConfig    `mapstructure:"list"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// APIConfig holds PokeAPI connection settings.
type APIConfig struct {
	URL       string        `mapstructure:"url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ListConfig holds paging for the list view.
type ListConfig struct {
	Limit  int `mapstructure:"limit"`
	Offset int `mapstructure:"offset"`
}

// BatchConfig holds card loading settings for `pokedex list`.
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"`
}

// MetricsConfig holds the Prometheus listener address; empty disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"base-url":     "api.url",
	"limit":        "list.limit",
	"offset":       "list.offset",
	"log-level":    "log.level",
	"log-pretty":   "log.pretty",
	"metrics-addr": "metrics.addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", pokeapi.DefaultBaseURL)
	v.SetDefault("api.user_agent", fetch.DefaultUserAgent)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("list.limit", 9)
	v.SetDefault("list.offset", 0)
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.timeout", 15*time.Second)
	v.SetDefault("log.level", string(logging.LevelInfo))
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.addr", "")
}

// Default returns the configuration with no file, env or flags applied.
func Default() Config {
	c, _ := decode(newViper())
	return c
}

// Load reads configuration. path selects a config file explicitly; when
// empty, config.{yaml,toml,json} is looked up in the user config dir and
// a missing file is not an error. flags may be nil; only flags the user
// actually set override the other sources.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
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

	c, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func searchPaths() []string {
	var dirs []string
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "pokedex"))
	}
	return append(dirs, ".")
}

// Validate checks the configuration the same way client construction does,
// so errors surface before any request is made.
func (c Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("api.url is required")
	}
	u, err := url.Parse(c.API.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.url must be an absolute url (got %q)", c.API.URL)
	}
	if c.API.UserAgent == "" {
		return fmt.Errorf("api.user_agent is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0 (got %s)", c.API.Timeout)
	}
	if c.List.Limit < 0 {
		return fmt.Errorf("list.limit must be >= 0 (got %d)", c.List.Limit)
	}
	if c.List.Offset < 0 {
		return fmt.Errorf("list.offset must be >= 0 (got %d)", c.List.Offset)
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be > 0 (got %d)", c.Batch.Concurrency)
	}
	if c.Batch.Timeout <= 0 {
		return fmt.Errorf("batch.timeout must be > 0 (got %s)", c.Batch.Timeout)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ClientConfig converts the API section for pokeapi.New.
func (c Config) ClientConfig() pokeapi.Config {
	return pokeapi.Config{
		BaseURL:   c.API.URL,
		UserAgent: c.API.UserAgent,
		Timeout:   c.API.Timeout,
	}
}

// BatchLoaderConfig converts the batch section for pokeapi.NewBatchLoader.
func (c Config) BatchLoaderConfig() pokeapi.BatchConfig {
	return pokeapi.BatchConfig{
		MaxConcurrency: c.Batch.Concurrency,
		Timeout:        c.Batch.Timeout,
	}
}

// LoggingConfig converts the log section; the caller picks the output.
func (c Config) LoggingConfig() logging.Config {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.Log.Pretty
	return cfg
}
