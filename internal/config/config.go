// Package config loads the pagebuilder binary configuration from a YAML
// file, PAGEBUILDER_ environment variables and bound command flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/goliatone/go-pagebuilder/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. PAGEBUILDER_SERVER_ADDR.
const EnvPrefix = "PAGEBUILDER"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "pagebuilder.yaml"

// ErrConfigNotFound is returned when an explicitly named file is missing.
var ErrConfigNotFound = errors.New("config: configuration file not found")

// Config is the full binary configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Definitions DefinitionsConfig `mapstructure:"definitions"`
	Resources   ResourcesConfig   `mapstructure:"resources"`
	Editor      EditorConfig      `mapstructure:"editor"`
	Logging     logging.Config    `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required,hostname_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// StorageConfig selects the page store. Path is the database file for the
// sqlite driver and the page directory for the file driver.
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory sqlite file"`
	Path   string `mapstructure:"path" validate:"required_unless=Driver memory"`
}

// DefinitionsConfig points at extension definition files.
type DefinitionsConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

// ResourcesConfig points at the OpenAPI document describing resources.
type ResourcesConfig struct {
	OpenAPI string `mapstructure:"openapi"`
	// AllowHTTP permits fetching OpenAPI from a URL.
	AllowHTTP bool `mapstructure:"allow_http"`
}

// EditorConfig tunes editing sessions.
type EditorConfig struct {
	PreserveUnknownKeys bool `mapstructure:"preserve_unknown_keys"`
	WarnOnOverwrite     bool `mapstructure:"warn_on_overwrite"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"omitempty,startswith=/"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage:   StorageConfig{Driver: "memory"},
		Editor:    EditorConfig{WarnOnOverwrite: true},
		Logging:   logging.Config{Level: "info", Format: "json", Output: "stderr"},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
		Resources: ResourcesConfig{},
	}
}

// New returns a viper instance seeded with defaults and environment
// bindings. Callers bind flags onto it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())
	return v
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("definitions.dir", cfg.Definitions.Dir)
	v.SetDefault("definitions.watch", cfg.Definitions.Watch)
	v.SetDefault("resources.openapi", cfg.Resources.OpenAPI)
	v.SetDefault("resources.allow_http", cfg.Resources.AllowHTTP)
	v.SetDefault("editor.preserve_unknown_keys", cfg.Editor.PreserveUnknownKeys)
	v.SetDefault("editor.warn_on_overwrite", cfg.Editor.WarnOnOverwrite)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

// Load reads file into v and decodes the result. An empty file looks for
// DefaultFile in the working directory and tolerates its absence; a named
// file must exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = New()
	}
	switch {
	case file != "":
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, file)
			}
			return nil, fmt.Errorf("config: stat %s: %w", file, err)
		}
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	default:
		if _, err := os.Stat(DefaultFile); err == nil {
			v.SetConfigFile(DefaultFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", DefaultFile, err)
			}
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return errors.New("config: invalid: metrics.path is required when metrics are enabled")
	}
	return nil
}
