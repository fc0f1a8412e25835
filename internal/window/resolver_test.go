package window

import "testing"

func TestResolveRanking(t *testing.T) {
	hints := Hints{
		TitleSubstrings: []string{"My Editor"},
		HostClasses:     []string{"ApplicationFrameWindow"},
	}

	tests := []struct {
		name       string
		candidates []Candidate
		pid        int32
		want       uintptr
		wantOK     bool
	}{
		{
			name:   "no candidates",
			pid:    10,
			wantOK: false,
		},
		{
			name: "wrong pid is ignored",
			candidates: []Candidate{
				{Handle: 1, PID: 99, Title: "My Editor", Visible: true},
			},
			pid:    10,
			wantOK: false,
		},
		{
			name: "zero handle is ignored",
			candidates: []Candidate{
				{Handle: 0, PID: 10, Title: "My Editor", Visible: true},
			},
			pid:    10,
			wantOK: false,
		},
		{
			name: "host class plus title beats visible title match",
			candidates: []Candidate{
				{Handle: 1, PID: 10, Title: "My Editor - file.txt", Visible: true},
				{Handle: 2, PID: 10, Title: "My Editor", Class: "ApplicationFrameWindow", Visible: false},
			},
			pid:    10,
			want:   2,
			wantOK: true,
		},
		{
			name: "title match beats plain visible titled",
			candidates: []Candidate{
				{Handle: 1, PID: 10, Title: "Settings", Visible: true},
				{Handle: 2, PID: 10, Title: "my editor - main", Visible: true},
			},
			pid:    10,
			want:   2,
			wantOK: true,
		},
		{
			name: "visible titled beats bare visible",
			candidates: []Candidate{
				{Handle: 1, PID: 10, Title: "   ", Visible: true},
				{Handle: 2, PID: 10, Title: "Untitled", Visible: true},
			},
			pid:    10,
			want:   2,
			wantOK: true,
		},
		{
			name: "invisible untitled only when nothing else",
			candidates: []Candidate{
				{Handle: 1, PID: 10},
			},
			pid:    10,
			want:   1,
			wantOK: true,
		},
		{
			name: "first of equal scores wins",
			candidates: []Candidate{
				{Handle: 1, PID: 10, Title: "A", Visible: true},
				{Handle: 2, PID: 10, Title: "B", Visible: true},
			},
			pid:    10,
			want:   1,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.candidates, tt.pid, hints)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Resolve() = handle %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSelectMigrationTarget(t *testing.T) {
	family := []string{"chrome", "msedge"}

	tests := []struct {
		name       string
		candidates []ProcessCandidate
		family     []string
		titleHint  string
		want       int32
		wantOK     bool
	}{
		{
			name:   "empty family never matches",
			family: nil,
			candidates: []ProcessCandidate{
				{PID: 1, Name: "chrome", HasVisibleWindow: true},
			},
			wantOK: false,
		},
		{
			name:   "no visible window disqualifies",
			family: family,
			candidates: []ProcessCandidate{
				{PID: 1, Name: "chrome", HasVisibleWindow: false},
			},
			wantOK: false,
		},
		{
			name:   "outside family disqualifies",
			family: family,
			candidates: []ProcessCandidate{
				{PID: 1, Name: "firefox", HasVisibleWindow: true},
			},
			wantOK: false,
		},
		{
			name:   "title hint wins over recency",
			family: family,
			candidates: []ProcessCandidate{
				{PID: 1, Name: "chrome", Title: "mail.example.com - Chrome", HasVisibleWindow: true, StartTimeUnixMs: 100},
				{PID: 2, Name: "chrome", Title: "news site", HasVisibleWindow: true, StartTimeUnixMs: 9999},
			},
			titleHint: "mail.example.com",
			want:      1,
			wantOK:    true,
		},
		{
			name:   "no hint match falls back to most recent",
			family: family,
			candidates: []ProcessCandidate{
				{PID: 1, Name: "chrome", Title: "a", HasVisibleWindow: true, StartTimeUnixMs: 100},
				{PID: 2, Name: "msedge.exe", Title: "b", HasVisibleWindow: true, StartTimeUnixMs: 200},
			},
			titleHint: "nothing-matches",
			want:      2,
			wantOK:    true,
		},
		{
			name:   "family match is substring and case-insensitive",
			family: []string{"Chrome"},
			candidates: []ProcessCandidate{
				{PID: 5, Name: "google-chrome-stable", HasVisibleWindow: true},
			},
			want:   5,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectMigrationTarget(tt.candidates, tt.family, tt.titleHint)
			if ok != tt.wantOK {
				t.Fatalf("SelectMigrationTarget() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("SelectMigrationTarget() = pid %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTitleHintFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty", nil, ""},
		{"app flag", []string{"--app=https://mail.example.com/inbox"}, "mail.example.com"},
		{"bare url", []string{"--new-window", "https://news.example.com?q=1"}, "news.example.com"},
		{"plain http", []string{"http://intranet/page#top"}, "intranet"},
		{"last non-flag", []string{"--profile", "work", "document.txt"}, "document.txt"},
		{"only flags", []string{"--headless", "--incognito"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleHintFromArgs(tt.args); got != tt.want {
				t.Errorf("TitleHintFromArgs(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
