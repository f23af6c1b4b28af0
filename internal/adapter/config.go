package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SourceType identifies the remote catalog backend
type SourceType string

const (
	SourceTypeListenNotes SourceType = "listennotes"
)

// StoreDriver identifies the local store backend
type StoreDriver string

const (
	StoreDriverBolt     StoreDriver = "bolt"
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverPostgres StoreDriver = "postgres"
)

const envPrefix = "PODCASTS"

// Config holds all application configuration
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Store   StoreConfig   `mapstructure:"store"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig holds remote catalog configuration
type SourceConfig struct {
	Type              SourceType    `mapstructure:"type"`
	URL               string        `mapstructure:"url"`     // API base URL
	APIKey            string        `mapstructure:"api_key"` // Sent as X-ListenAPI-Key
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 disables client-side limiting
	MaxRetries        int           `mapstructure:"max_retries"`         // Retries for 5xx responses
}

// StoreConfig holds local store configuration
type StoreConfig struct {
	Driver StoreDriver `mapstructure:"driver"`
	Path   string      `mapstructure:"path"` // Directory for bolt and sqlite
	DSN    string      `mapstructure:"dsn"`  // Postgres only
}

// CatalogConfig holds catalog view configuration
type CatalogConfig struct {
	PageLimit int `mapstructure:"page_limit"` // Pages browse loads by default
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Type:              SourceTypeListenNotes,
			URL:               "https://listen-api-test.listennotes.com/api/v2",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 5,
			MaxRetries:        3,
		},
		Store: StoreConfig{
			Driver: StoreDriverBolt,
			Path:   defaultDataPath(),
		},
		Catalog: CatalogConfig{
			PageLimit: 1,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "podcasts.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "podcasts")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "podcasts")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "podcasts")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "podcasts")
	}
}

// DefaultConfigFile returns where SaveConfig writes when no path is given
func DefaultConfigFile() string {
	return filepath.Join(defaultConfigPath(), "config.yaml")
}

// LoadConfig loads configuration from file and environment. An empty path
// searches the default config directory and the working directory; a
// missing file there is not an error. An explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper returns an isolated viper instance with every key registered,
// so PODCASTS_SECTION_KEY environment variables override file values.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range settings(cfg) {
		v.SetDefault(key, value)
	}
	return v
}

// settings flattens cfg into snake_case viper keys
func settings(cfg *Config) map[string]any {
	return map[string]any{
		"source.type":                string(cfg.Source.Type),
		"source.url":                 cfg.Source.URL,
		"source.api_key":             cfg.Source.APIKey,
		"source.timeout":             cfg.Source.Timeout.String(),
		"source.requests_per_second": cfg.Source.RequestsPerSecond,
		"source.max_retries":         cfg.Source.MaxRetries,
		"store.driver":               string(cfg.Store.Driver),
		"store.path":                 cfg.Store.Path,
		"store.dsn":                  cfg.Store.DSN,
		"catalog.page_limit":         cfg.Catalog.PageLimit,
		"logging.file":               cfg.Logging.File,
		"logging.level":              cfg.Logging.Level,
	}
}

// Validate reports configuration that cannot work
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourceTypeListenNotes:
	default:
		return fmt.Errorf("unsupported source type %q", c.Source.Type)
	}
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}

	switch c.Store.Driver {
	case StoreDriverBolt, StoreDriverSQLite:
	case StoreDriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}

	if c.Catalog.PageLimit < 1 {
		return fmt.Errorf("catalog.page_limit must be at least 1, got %d", c.Catalog.PageLimit)
	}
	return nil
}

// SaveConfig writes cfg as YAML. An empty path writes DefaultConfigFile().
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigFile()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	for key, value := range settings(cfg) {
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandHome expands a leading ~ to the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
