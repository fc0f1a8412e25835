// Package app defines the static application catalog types: what the
// launcher core knows about an application before any instance of it runs.
package app

import "strings"

// Kind classifies how an application is launched and tracked.
type Kind string

const (
	// KindDesktop is a native executable with its own OS process.
	KindDesktop Kind = "desktop"
	// KindWeb is a browser-hosted surface; its UI may outlive the
	// process that was originally launched for it.
	KindWeb Kind = "web"
	// KindFolder opens a filesystem location in the file manager.
	KindFolder Kind = "folder"
	// KindSurface is an in-process rendering surface without its own
	// OS process.
	KindSurface Kind = "surface"
)

// AllowsMultiple reports whether the kind permits several concurrent
// instances of the same application. Desktop and surface applications are
// deduplicated per application id; web and folder instances are not.
func (k Kind) AllowsMultiple() bool {
	switch k {
	case KindWeb, KindFolder:
		return true
	default:
		return false
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDesktop, KindWeb, KindFolder, KindSurface:
		return true
	}
	return false
}

// Application is one entry of the static application catalog.
type Application struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Kind        Kind              `yaml:"kind" json:"kind"`
	Command     []string          `yaml:"command" json:"command"`
	WorkingDir  string            `yaml:"working_dir" json:"working_dir"`
	URL         string            `yaml:"url" json:"url"`
	Path        string            `yaml:"path" json:"path"`
	Env         map[string]string `yaml:"env" json:"env"`
	WindowClass string            `yaml:"window_class" json:"window_class"`
	// HostShell marks applications whose UI lives inside a generic
	// host-process shell, requiring window enumeration to find.
	HostShell bool `yaml:"host_shell" json:"host_shell"`
}

// Executable returns the binary the application is launched with, or ""
// for kinds without a command.
func (a *Application) Executable() string {
	if len(a.Command) == 0 {
		return ""
	}
	return a.Command[0]
}

// TitleHint returns the substring expected in the application's window
// title, used by window resolution and migration ranking.
func (a *Application) TitleHint() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// MatchesProcessName reports whether an OS process name plausibly belongs
// to this application. The comparison is case-insensitive and ignores
// path and extension differences.
func (a *Application) MatchesProcessName(procName string) bool {
	exe := baseName(a.Executable())
	if exe == "" {
		return false
	}
	return strings.EqualFold(trimExt(baseName(procName)), trimExt(exe))
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

func trimExt(n string) string {
	if i := strings.LastIndexByte(n, '.'); i > 0 {
		return n[:i]
	}
	return n
}
