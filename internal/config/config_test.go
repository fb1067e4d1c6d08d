package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagebuilder.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
  read_timeout: 5s
storage:
  driver: sqlite
  path: pages.db
definitions:
  dir: ./types
  watch: true
metrics:
  enabled: false
`)
	t.Setenv("PAGEBUILDER_LOGGING_LEVEL", "debug")

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != 15*time.Second {
		t.Fatalf("unset keys keep defaults, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Path != "pages.db" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if !cfg.Definitions.Watch || cfg.Metrics.Enabled {
		t.Fatalf("unexpected toggles %+v %+v", cfg.Definitions, cfg.Metrics)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env override, got %q", cfg.Logging.Level)
	}
}

func TestLoadMissingNamedFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"sqlite without path":  func(c *Config) { c.Storage.Driver = "sqlite" },
		"unknown driver":       func(c *Config) { c.Storage.Driver = "postgres" },
		"bad addr":             func(c *Config) { c.Server.Addr = "localhost" },
		"zero timeout":         func(c *Config) { c.Server.ReadTimeout = 0 },
		"relative metrics":     func(c *Config) { c.Metrics.Path = "metrics" },
		"metrics without path": func(c *Config) { c.Metrics.Path = "" },
		"bad log level":        func(c *Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
