// Package config loads and validates the deskhive configuration and
// application catalog.
package config

import (
	"sync"

	"github.com/deskhive/deskhive/internal/app"
)

// Config is the complete deskhive configuration.
type Config struct {
	Version      string                      `yaml:"version" json:"version"`
	Global       GlobalConfig                `yaml:"global" json:"global"`
	Applications map[string]*app.Application `yaml:"applications" json:"applications"`
}

// GlobalConfig contains global settings for the launcher core.
type GlobalConfig struct {
	ReconcileInterval int `yaml:"reconcile_interval" json:"reconcile_interval"` // seconds
	CleanupInterval   int `yaml:"cleanup_interval" json:"cleanup_interval"`     // seconds
	Retention         int `yaml:"retention" json:"retention"`                   // seconds
	CloseTimeout      int `yaml:"close_timeout" json:"close_timeout"`           // seconds
	KillTimeout       int `yaml:"kill_timeout" json:"kill_timeout"`             // seconds
	ShutdownTimeout   int `yaml:"shutdown_timeout" json:"shutdown_timeout"`     // seconds, mass shutdown graceful phase

	LogFormat     string `yaml:"log_format" json:"log_format"` // json | text
	LogLevel      string `yaml:"log_level" json:"log_level"`   // debug | info | warn | error
	LogTimestamps bool   `yaml:"log_timestamps" json:"log_timestamps"`

	AuditEnabled bool `yaml:"audit_enabled" json:"audit_enabled"`

	MetricsEnabled bool   `yaml:"metrics_enabled" json:"metrics_enabled"`
	MetricsAddr    string `yaml:"metrics_addr" json:"metrics_addr"`
	MetricsPath    string `yaml:"metrics_path" json:"metrics_path"`

	APIEnabled bool   `yaml:"api_enabled" json:"api_enabled"`
	APIAddr    string `yaml:"api_addr" json:"api_addr"`
	APIAuth    string `yaml:"api_auth" json:"api_auth"` // bearer token, empty disables auth

	TracingEnabled  bool    `yaml:"tracing_enabled" json:"tracing_enabled"`
	TracingExporter string  `yaml:"tracing_exporter" json:"tracing_exporter"` // otlp-grpc | stdout
	TracingEndpoint string  `yaml:"tracing_endpoint" json:"tracing_endpoint"`
	TracingSample   float64 `yaml:"tracing_sample" json:"tracing_sample"`

	Browser       []string `yaml:"browser" json:"browser"`               // browser command for web apps
	BrowserFamily []string `yaml:"browser_family" json:"browser_family"` // process names for migration
	FolderOpener  []string `yaml:"folder_opener" json:"folder_opener"`
}

// SetDefaults fills unset fields with production defaults.
func (c *Config) SetDefaults() {
	g := &c.Global
	if g.ReconcileInterval <= 0 {
		g.ReconcileInterval = 5
	}
	if g.CleanupInterval <= 0 {
		g.CleanupInterval = 30
	}
	if g.Retention <= 0 {
		g.Retention = 60
	}
	if g.CloseTimeout <= 0 {
		g.CloseTimeout = 5
	}
	if g.KillTimeout <= 0 {
		g.KillTimeout = 2
	}
	if g.ShutdownTimeout <= 0 {
		g.ShutdownTimeout = 10
	}
	if g.LogFormat == "" {
		g.LogFormat = "json"
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	if g.MetricsAddr == "" {
		g.MetricsAddr = ":9180"
	}
	if g.MetricsPath == "" {
		g.MetricsPath = "/metrics"
	}
	if g.APIAddr == "" {
		g.APIAddr = "127.0.0.1:9181"
	}
	if g.TracingSample == 0 {
		g.TracingSample = 1.0
	}

	for id, a := range c.Applications {
		if a == nil {
			continue
		}
		if a.ID == "" {
			a.ID = id
		}
		if a.Name == "" {
			a.Name = id
		}
	}
}

// Catalog is a concurrency-safe view over the application map that can
// be swapped wholesale on reload.
type Catalog struct {
	mu   sync.RWMutex
	apps map[string]*app.Application
}

// NewCatalog builds a catalog from the configuration.
func NewCatalog(cfg *Config) *Catalog {
	c := &Catalog{}
	c.Replace(cfg)
	return c
}

// Lookup returns the application with the given id.
func (c *Catalog) Lookup(id string) (*app.Application, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.apps[id]
	return a, ok
}

// All returns all catalog entries.
func (c *Catalog) All() []*app.Application {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*app.Application, 0, len(c.apps))
	for _, a := range c.apps {
		out = append(out, a)
	}
	return out
}

// Replace swaps the catalog contents from a freshly loaded config.
func (c *Catalog) Replace(cfg *Config) {
	apps := make(map[string]*app.Application, len(cfg.Applications))
	for id, a := range cfg.Applications {
		if a != nil {
			apps[id] = a
		}
	}
	c.mu.Lock()
	c.apps = apps
	c.mu.Unlock()
}
