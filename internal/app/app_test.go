package app

import "testing"

func TestKindAllowsMultiple(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindDesktop, false},
		{KindSurface, false},
		{KindWeb, true},
		{KindFolder, true},
		{Kind("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.AllowsMultiple(); got != tt.want {
				t.Errorf("AllowsMultiple() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindDesktop, KindWeb, KindFolder, KindSurface} {
		if !k.Valid() {
			t.Errorf("Valid() = false for %s", k)
		}
	}
	if Kind("").Valid() {
		t.Error("Valid() = true for empty kind")
	}
	if Kind("plugin").Valid() {
		t.Error("Valid() = true for unknown kind")
	}
}

func TestTitleHint(t *testing.T) {
	a := &Application{ID: "code", Name: "Visual Studio Code"}
	if got := a.TitleHint(); got != "Visual Studio Code" {
		t.Errorf("TitleHint() = %q, want name", got)
	}

	a = &Application{ID: "code"}
	if got := a.TitleHint(); got != "code" {
		t.Errorf("TitleHint() = %q, want id fallback", got)
	}
}

func TestMatchesProcessName(t *testing.T) {
	tests := []struct {
		name     string
		command  []string
		procName string
		want     bool
	}{
		{"exact", []string{"firefox"}, "firefox", true},
		{"case insensitive", []string{"Firefox"}, "firefox", true},
		{"windows extension", []string{"firefox"}, "firefox.exe", true},
		{"full path command", []string{"/usr/bin/firefox", "--new-window"}, "firefox", true},
		{"windows path proc", []string{"code"}, `C:\Program Files\VS Code\code.exe`, true},
		{"different binary", []string{"firefox"}, "chrome", false},
		{"no command", nil, "firefox", false},
		{"substring is not a match", []string{"fire"}, "firefox", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Application{ID: "x", Command: tt.command}
			if got := a.MatchesProcessName(tt.procName); got != tt.want {
				t.Errorf("MatchesProcessName(%q) = %v, want %v", tt.procName, got, tt.want)
			}
		})
	}
}
