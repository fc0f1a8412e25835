package window

import (
	"sort"
	"strings"
)

// Hints guide candidate ranking for a specific application.
type Hints struct {
	// TitleSubstrings are substrings expected in the window title,
	// typically the localized application name.
	TitleSubstrings []string
	// HostClasses are well-known window classes of host-process UI
	// shells the application is known to render inside.
	HostClasses []string
}

// Candidate scores, highest wins. A host-shell class match paired with a
// title match outranks everything; an invisible window is only taken
// when nothing visible exists.
const (
	scoreHostClassTitle = 400
	scoreTitleMatch     = 300
	scoreVisibleTitled  = 200
	scoreVisible        = 100
	scoreAny            = 1
)

// Resolve picks the best window handle for pid from the enumerated
// candidates. It is a pure function so the ranking policy can be tested
// without any OS call. Returns false if no candidate belongs to pid.
func Resolve(candidates []Candidate, pid int32, hints Hints) (uintptr, bool) {
	best := uintptr(0)
	bestScore := 0

	for _, c := range candidates {
		if c.PID != pid || c.Handle == 0 {
			continue
		}
		score := scoreCandidate(c, hints)
		if score > bestScore {
			bestScore = score
			best = c.Handle
		}
	}

	return best, bestScore > 0
}

func scoreCandidate(c Candidate, hints Hints) int {
	titled := strings.TrimSpace(c.Title) != ""
	titleMatch := titled && matchesAny(c.Title, hints.TitleSubstrings)
	classMatch := matchesClass(c.Class, hints.HostClasses)

	switch {
	case classMatch && titleMatch:
		return scoreHostClassTitle
	case titleMatch && c.Visible:
		return scoreTitleMatch
	case c.Visible && titled:
		return scoreVisibleTitled
	case c.Visible:
		return scoreVisible
	default:
		return scoreAny
	}
}

func matchesAny(title string, subs []string) bool {
	lower := strings.ToLower(title)
	for _, s := range subs {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func matchesClass(class string, classes []string) bool {
	for _, c := range classes {
		if c != "" && strings.EqualFold(class, c) {
			return true
		}
	}
	return false
}

// ProcessCandidate is one live process considered by the migration
// search: the original process of a browser-hosted instance exited, but
// the UI may persist under a related successor process.
type ProcessCandidate struct {
	PID              int32
	Name             string
	Title            string
	HasVisibleWindow bool
	StartTimeUnixMs  int64
}

// SelectMigrationTarget picks the successor process for a lost instance.
// family restricts candidates by process name (case-insensitive,
// substring); among those with a visible main window, a title match
// against titleHint wins, falling back to the most recently started.
// Pure function; returns false if no candidate qualifies.
func SelectMigrationTarget(candidates []ProcessCandidate, family []string, titleHint string) (int32, bool) {
	var eligible []ProcessCandidate
	for _, c := range candidates {
		if c.PID <= 0 || !c.HasVisibleWindow {
			continue
		}
		if !nameInFamily(c.Name, family) {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return 0, false
	}

	if titleHint != "" {
		hint := strings.ToLower(titleHint)
		var matched []ProcessCandidate
		for _, c := range eligible {
			if strings.Contains(strings.ToLower(c.Title), hint) {
				matched = append(matched, c)
			}
		}
		if len(matched) > 0 {
			eligible = matched
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].StartTimeUnixMs > eligible[j].StartTimeUnixMs
	})
	return eligible[0].PID, true
}

func nameInFamily(name string, family []string) bool {
	if len(family) == 0 {
		return false
	}
	lower := strings.ToLower(name)
	for _, f := range family {
		if f != "" && strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// TitleHintFromArgs extracts an identifier embedded in launch arguments,
// used as the migration title hint. Recognizes --app=<url> style flags
// and bare URLs, falling back to the last non-flag argument.
func TitleHintFromArgs(args []string) string {
	lastPlain := ""
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "--app="); ok {
			return hostOf(v)
		}
		if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
			return hostOf(a)
		}
		if !strings.HasPrefix(a, "-") {
			lastPlain = a
		}
	}
	return lastPlain
}

func hostOf(rawURL string) string {
	s := rawURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	for _, sep := range []byte{'/', '?', '#'} {
		if i := strings.IndexByte(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	return s
}
