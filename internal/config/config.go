package config

import (
	"fmt"
	"os"
)

// Load loads configuration from the YAML file at path, falling back to
// the DESKHIVE_CONFIG environment variable and then the default paths.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("DESKHIVE_CONFIG")
	}
	if path == "" {
		path = "/etc/deskhive/deskhive.yaml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = "deskhive.yaml"
		}
	}
	return LoadWithEnvExpansion(path)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	g := &c.Global

	if g.LogLevel != "debug" && g.LogLevel != "info" &&
		g.LogLevel != "warn" && g.LogLevel != "error" {
		return fmt.Errorf("invalid log_level: %s", g.LogLevel)
	}
	if g.LogFormat != "json" && g.LogFormat != "text" {
		return fmt.Errorf("invalid log_format: %s", g.LogFormat)
	}
	if g.KillTimeout > g.CloseTimeout {
		return fmt.Errorf("kill_timeout (%ds) must not exceed close_timeout (%ds)", g.KillTimeout, g.CloseTimeout)
	}
	if g.TracingEnabled {
		if g.TracingExporter != "" && g.TracingExporter != "otlp-grpc" && g.TracingExporter != "stdout" {
			return fmt.Errorf("invalid tracing_exporter: %s", g.TracingExporter)
		}
		if g.TracingSample < 0 || g.TracingSample > 1 {
			return fmt.Errorf("tracing_sample must be within [0,1], got %v", g.TracingSample)
		}
	}

	if len(c.Applications) == 0 {
		return fmt.Errorf("no applications defined")
	}

	for id, a := range c.Applications {
		if a == nil {
			return fmt.Errorf("application %s is empty", id)
		}
		if !a.Kind.Valid() {
			return fmt.Errorf("application %s has invalid kind: %s", id, a.Kind)
		}
		switch a.Kind {
		case "desktop":
			if len(a.Command) == 0 {
				return fmt.Errorf("desktop application %s has no command", id)
			}
		case "web":
			if a.URL == "" {
				return fmt.Errorf("web application %s has no url", id)
			}
		case "folder":
			if a.Path == "" {
				return fmt.Errorf("folder application %s has no path", id)
			}
		}
	}

	return nil
}
