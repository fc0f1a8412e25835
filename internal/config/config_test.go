package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deskhive/deskhive/internal/app"
)

func validConfig() *Config {
	return &Config{
		Version: "1.0",
		Applications: map[string]*app.Application{
			"editor": {Kind: app.KindDesktop, Command: []string{"editor"}},
			"mail":   {Kind: app.KindWeb, URL: "https://mail.example.com"},
			"docs":   {Kind: app.KindFolder, Path: "/home/user/docs"},
			"panel":  {Kind: app.KindSurface},
		},
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deskhive.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_EDITOR_BIN", "/opt/editor/bin/editor")

	path := writeConfig(t, `
version: "1.0"
global:
  log_level: debug
applications:
  editor:
    kind: desktop
    command: ["${TEST_EDITOR_BIN}", "--new"]
  scratch:
    kind: folder
    path: "${TEST_UNSET_DIR:-/tmp/scratch}"
`)

	cfg, err := LoadWithEnvExpansion(path)
	if err != nil {
		t.Fatalf("LoadWithEnvExpansion() error: %v", err)
	}

	if got := cfg.Applications["editor"].Command[0]; got != "/opt/editor/bin/editor" {
		t.Errorf("expanded command = %q", got)
	}
	if got := cfg.Applications["scratch"].Path; got != "/tmp/scratch" {
		t.Errorf("defaulted path = %q", got)
	}
	if cfg.Global.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.Global.LogLevel)
	}
	// Defaults filled on load.
	if cfg.Global.ReconcileInterval != 5 || cfg.Global.LogFormat != "json" {
		t.Errorf("defaults not applied: %+v", cfg.Global)
	}
	// Application id and name backfilled from the map key.
	if cfg.Applications["editor"].ID != "editor" || cfg.Applications["editor"].Name != "editor" {
		t.Errorf("id/name backfill failed: %+v", cfg.Applications["editor"])
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
applications:
  broken:
    kind: desktop
`)
	if _, err := LoadWithEnvExpansion(path); err == nil {
		t.Error("desktop application without command should fail validation")
	}

	if _, err := LoadWithEnvExpansion(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("DH_TEST_SET", "value")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "x: ${DH_TEST_SET}", "x: value"},
		{"unset without default", "x: ${DH_TEST_UNSET}", "x: "},
		{"unset with default", "x: ${DH_TEST_UNSET:-fallback}", "x: fallback"},
		{"set ignores default", "x: ${DH_TEST_SET:-fallback}", "x: value"},
		{"no reference", "x: plain", "x: plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.in); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{
			"bad log level",
			func(c *Config) { c.Global.LogLevel = "verbose" },
			"log_level",
		},
		{
			"bad log format",
			func(c *Config) { c.Global.LogFormat = "xml" },
			"log_format",
		},
		{
			"kill exceeds close",
			func(c *Config) { c.Global.KillTimeout = 30 },
			"kill_timeout",
		},
		{
			"bad tracing exporter",
			func(c *Config) {
				c.Global.TracingEnabled = true
				c.Global.TracingExporter = "jaeger"
			},
			"tracing_exporter",
		},
		{
			"no applications",
			func(c *Config) { c.Applications = nil },
			"no applications",
		},
		{
			"invalid kind",
			func(c *Config) { c.Applications["editor"].Kind = "plugin" },
			"invalid kind",
		},
		{
			"web without url",
			func(c *Config) { c.Applications["mail"].URL = "" },
			"no url",
		},
		{
			"folder without path",
			func(c *Config) { c.Applications["docs"].Path = "" },
			"no path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.SetDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestCatalogReplace(t *testing.T) {
	cfg := validConfig()
	cfg.SetDefaults()
	cat := NewCatalog(cfg)

	if _, ok := cat.Lookup("editor"); !ok {
		t.Fatal("Lookup(editor) failed after NewCatalog")
	}
	if n := len(cat.All()); n != 4 {
		t.Errorf("All() = %d entries, want 4", n)
	}

	cat.Replace(&Config{
		Applications: map[string]*app.Application{
			"terminal": {ID: "terminal", Kind: app.KindDesktop, Command: []string{"term"}},
		},
	})

	if _, ok := cat.Lookup("editor"); ok {
		t.Error("editor should be gone after Replace")
	}
	if _, ok := cat.Lookup("terminal"); !ok {
		t.Error("terminal should be present after Replace")
	}
}
