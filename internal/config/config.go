// Package config loads the site configuration file.
//
// The file is YAML (JSON works too). Environment variables are expanded with
// ${VAR} syntax after a .env file next to the config, if any, is loaded.
// A missing file yields Default.
package config

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pub/internal/compiler"
	ferrors "git.home.luguber.info/inful/pub/internal/foundation/errors"
	"git.home.luguber.info/inful/pub/internal/layout"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "_pub.yaml"

// Config is the site configuration.
type Config struct {
	BaseURL         string            `yaml:"base_url"`
	Port            int               `yaml:"port"`
	Host            string            `yaml:"host"`
	Layout          string            `yaml:"layout"`
	JSXImportSource string            `yaml:"jsx_import_source"`
	Alias           map[string]string `yaml:"alias"`
	Exclude         []string          `yaml:"exclude"`
	Minify          bool              `yaml:"minify"`
	LiveReload      bool              `yaml:"live_reload"`
	Watch           WatchConfig       `yaml:"watch"`
	Metrics         MetricsConfig     `yaml:"metrics"`
	History         HistoryConfig     `yaml:"history"`
	Events          EventsConfig      `yaml:"events"`
}

// WatchConfig tunes the dev server's rebuild loop.
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HistoryConfig points at the build history database. Empty disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// EventsConfig configures build event publishing. An empty URL disables it.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		BaseURL:    "/",
		Port:       3000,
		Host:       "localhost",
		Layout:     layout.DefaultFile,
		Exclude:    []string{"node_modules", ".git"},
		Minify:     true,
		LiveReload: true,
		Watch:      WatchConfig{Debounce: 100 * time.Millisecond},
		Events:     EventsConfig{Subject: "pub.builds"},
	}
}

// Load reads the config file at path on top of Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	loadEnvFile(filepath.Dir(path))

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "malformed config file").
			WithContext("path", path).
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFile loads .env from dir. Variables already set are not overridden.
func loadEnvFile(dir string) {
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err != nil {
		return
	}
	_ = godotenv.Load(envPath)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	invalid := func(field, msg string) error {
		return ferrors.ConfigError(msg).WithContext("field", field).Build()
	}
	switch {
	case c.Port < 0 || c.Port > 65535:
		return invalid("port", "port must be between 0 and 65535")
	case c.Host == "":
		return invalid("host", "host must not be empty")
	case c.Layout == "" || filepath.IsAbs(c.Layout):
		return invalid("layout", "layout must be a file name relative to the source root")
	case c.Watch.Debounce < 0:
		return invalid("watch.debounce", "debounce must not be negative")
	case c.Watch.PollInterval < 0:
		return invalid("watch.poll_interval", "poll interval must not be negative")
	case c.Events.NATSURL != "" && c.Events.Subject == "":
		return invalid("events.subject", "subject is required when nats_url is set")
	}
	for _, name := range c.Exclude {
		if name == "" {
			return invalid("exclude", "exclude entries must not be empty")
		}
	}
	return nil
}

// Addr returns the dev server listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// CompileOptions maps the configuration onto compiler options.
func (c *Config) CompileOptions() compiler.Options {
	return compiler.Options{
		LayoutFile:      c.Layout,
		Exclude:         c.Exclude,
		BaseURL:         c.BaseURL,
		JSXImportSource: c.JSXImportSource,
		Alias:           c.Alias,
		DisableMinify:   !c.Minify,
	}
}
