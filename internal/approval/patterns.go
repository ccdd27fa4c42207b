package approval

import (
	"regexp"
	"strings"
)

// PatternSet holds pre-approval patterns supplied at startup (for example
// from a repeated CLI flag). Read-only once constructed; any match approves.
type PatternSet struct {
	exact []string
	globs []*regexp.Regexp
}

// NewPatternSet compiles the given patterns. A pattern containing `*` is
// treated as a glob where only `*` is a wildcard; everything else is
// matched as an exact command or its first token.
func NewPatternSet(patterns []string) *PatternSet {
	set := &PatternSet{}
	for _, pattern := range patterns {
		set.Add(pattern)
	}
	return set
}

// Add registers one pattern.
func (s *PatternSet) Add(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return
	}
	if strings.Contains(pattern, "*") {
		s.globs = append(s.globs, compileGlob(pattern))
		return
	}
	s.exact = append(s.exact, pattern)
}

// Len reports the number of registered patterns.
func (s *PatternSet) Len() int {
	return len(s.exact) + len(s.globs)
}

// IsApproved reports whether the command matches any pattern. Exact
// patterns match the trimmed whole command or its first whitespace token,
// so "ls" approves "ls -la". Matching is case-sensitive.
func (s *PatternSet) IsApproved(command string) bool {
	command = strings.TrimSpace(command)
	if command == "" {
		return false
	}
	firstToken := command
	if idx := strings.IndexAny(command, " \t"); idx >= 0 {
		firstToken = command[:idx]
	}
	for _, exact := range s.exact {
		if command == exact || firstToken == exact {
			return true
		}
	}
	for _, glob := range s.globs {
		if glob.MatchString(command) {
			return true
		}
	}
	return false
}

// compileGlob turns a `*`-glob into an anchored regex, escaping every
// other regex metacharacter.
func compileGlob(pattern string) *regexp.Regexp {
	segments := strings.Split(pattern, "*")
	quoted := make([]string, len(segments))
	for i, segment := range segments {
		quoted[i] = regexp.QuoteMeta(segment)
	}
	return regexp.MustCompile("^" + strings.Join(quoted, ".*") + "$")
}
