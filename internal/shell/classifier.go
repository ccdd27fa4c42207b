package shell

import (
	"regexp"
	"strings"
)

// Category describes the kind of filesystem effect a command has.
type Category string

const (
	// CategoryRead covers pager-style file reads (cat, head, tail, ...).
	CategoryRead Category = "read"
	// CategoryWrite covers single > redirects.
	CategoryWrite Category = "write"
	// CategoryAppend covers >> redirects.
	CategoryAppend Category = "append"
	// CategoryDelete covers rm invocations.
	CategoryDelete Category = "delete"
	// CategoryMove covers mv invocations.
	CategoryMove Category = "move"
	// CategoryCopy covers cp invocations.
	CategoryCopy Category = "copy"
	// CategoryRun covers everything else.
	CategoryRun Category = "run"
)

// ClassifiedCommand is the stateless classification of one command string.
// Recomputed per command, never cached.
type ClassifiedCommand struct {
	// Category is the detected command kind.
	Category Category
	// Display is the human-facing summary shown in approval prompts.
	Display string
	// Dangerous reports whether the command matched a danger heuristic.
	Dangerous bool
	// Reason explains the danger flag when set.
	Reason string
}

// DangerPattern pairs a compiled regex with its canonical reason string.
// Patterns are checked in slice order; the first match supplies the reason.
type DangerPattern struct {
	// Reason is the canonical explanation reported on a match.
	Reason string
	// Pattern matches the full command text.
	Pattern *regexp.Regexp
}

// DefaultDangerPatterns returns the built-in danger heuristics, most
// specific first.
func DefaultDangerPatterns() []DangerPattern {
	return []DangerPattern{
		{Reason: "recursive delete", Pattern: regexp.MustCompile(`\brm\s+(-\w*\s+)*-\w*r\w*\b`)},
		{Reason: "disk formatting", Pattern: regexp.MustCompile(`\b(mkfs(\.\w+)?|fdisk|parted|diskutil\s+eraseDisk)\b`)},
		{Reason: "raw disk device operation", Pattern: regexp.MustCompile(`\bdd\b.*\bof=/dev/\w+|\b/dev/(sd[a-z]|hd[a-z]|nvme\d+n\d+|disk\d+)\b`)},
		{Reason: "privilege escalation", Pattern: regexp.MustCompile(`(^|[;&|]\s*)sudo\b|(^|[;&|]\s*)su\b|\bdoas\b`)},
		{Reason: "pipes download to shell", Pattern: regexp.MustCompile(`\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?\w*sh\b`)},
		{Reason: "mass permission change", Pattern: regexp.MustCompile(`\bch(mod|own)\s+(-\w*\s+)*-\w*R|\bchmod\s+(777|a\+rwx)\b`)},
		// /dev is deliberately absent: /dev/null redirects are harmless and
		// raw device writes are caught by the pattern above.
		{Reason: "writes to system path", Pattern: regexp.MustCompile(`>\s*/(etc|usr|boot|bin|sbin|lib|var|sys)/\S*`)},
	}
}

// CompileDangerPattern builds a custom danger rule from a user-supplied
// regex. An empty reason falls back to a generic one.
func CompileDangerPattern(reason, pattern string) (DangerPattern, error) {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return DangerPattern{}, err
	}
	if reason == "" {
		reason = "matches custom danger pattern"
	}
	return DangerPattern{Reason: reason, Pattern: compiled}, nil
}

// readCommands are pager-style commands whose first path argument is read.
var readCommands = map[string]bool{
	"cat":  true,
	"head": true,
	"tail": true,
	"less": true,
	"more": true,
}

// Classifier categorizes shell commands and flags dangerous ones.
// Pure and deterministic; construct once and share freely.
type Classifier struct {
	patterns []DangerPattern
}

// NewClassifier builds a classifier with the given danger patterns.
// Nil patterns fall back to the defaults.
func NewClassifier(patterns []DangerPattern) *Classifier {
	if patterns == nil {
		patterns = DefaultDangerPatterns()
	}
	return &Classifier{patterns: patterns}
}

// Classify categorizes a command string and applies the danger heuristics.
func (c *Classifier) Classify(command string) ClassifiedCommand {
	trimmed := strings.TrimSpace(command)

	var result ClassifiedCommand
	if strings.Contains(trimmed, "\n") {
		result = classifyMultiline(trimmed)
	} else {
		result = classifySingle(trimmed)
	}

	// The global danger scan ORs with step-level flags; a pattern reason
	// overrides the generic step reason. The /dev/null carve-out applies
	// to the system-path pattern through the write step, not here.
	for _, pattern := range c.patterns {
		if pattern.Pattern.MatchString(trimmed) {
			result.Dangerous = true
			result.Reason = pattern.Reason
			break
		}
	}
	return result
}

// classifyMultiline handles commands that span multiple lines.
func classifyMultiline(command string) ClassifiedCommand {
	lines := strings.Split(command, "\n")
	display := make([]string, 0, len(lines))
	hasWrite := false
	hasDelete := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		display = append(display, line)
		single := classifySingle(line)
		switch single.Category {
		case CategoryWrite, CategoryAppend:
			hasWrite = true
		case CategoryDelete:
			hasDelete = true
		}
	}

	result := ClassifiedCommand{
		Category: CategoryRun,
		Display:  strings.Join(display, "\n"),
	}
	switch {
	case hasDelete:
		result.Dangerous = true
		result.Reason = "contains delete operations"
	case hasWrite:
		result.Dangerous = true
		result.Reason = "contains write operations"
	}
	return result
}

// classifySingle applies the single-line rules in priority order.
func classifySingle(command string) ClassifiedCommand {
	tokens := strings.Fields(command)
	if len(tokens) == 0 {
		return ClassifiedCommand{Category: CategoryRun, Display: command}
	}

	head := tokens[0]

	if readCommands[head] {
		if path := firstNonFlag(tokens[1:]); path != "" {
			return ClassifiedCommand{Category: CategoryRead, Display: path}
		}
	}

	if op, target := findRedirect(command); op != "" {
		if op == ">>" {
			return ClassifiedCommand{
				Category:  CategoryAppend,
				Display:   target,
				Dangerous: true,
				Reason:    "appends to file",
			}
		}
		result := ClassifiedCommand{Category: CategoryWrite, Display: target}
		if !strings.EqualFold(target, "/dev/null") {
			result.Dangerous = true
			result.Reason = "writes to file"
		}
		return result
	}

	switch head {
	case "rm":
		targets := nonFlagArgs(tokens[1:])
		return ClassifiedCommand{
			Category:  CategoryDelete,
			Display:   strings.Join(targets, " "),
			Dangerous: true,
			Reason:    "deletes files",
		}
	case "mv", "cp":
		targets := nonFlagArgs(tokens[1:])
		if len(targets) >= 2 {
			display := targets[0] + " → " + targets[len(targets)-1]
			if head == "mv" {
				return ClassifiedCommand{
					Category:  CategoryMove,
					Display:   display,
					Dangerous: true,
					Reason:    "moves files",
				}
			}
			// cp is dangerous only via the global pattern scan.
			return ClassifiedCommand{Category: CategoryCopy, Display: display}
		}
	}

	return ClassifiedCommand{Category: CategoryRun, Display: command}
}

// findRedirect locates the first unescaped, unquoted output redirect.
// It returns the operator (">" or ">>") and the target token, or empty
// strings when the command has no redirect.
func findRedirect(command string) (string, string) {
	inSingle := false
	inDouble := false
	escaped := false
	for i := 0; i < len(command); i++ {
		ch := command[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '>' && !inSingle && !inDouble:
			op := ">"
			rest := command[i+1:]
			if strings.HasPrefix(rest, ">") {
				op = ">>"
				rest = rest[1:]
			}
			return op, firstToken(rest)
		}
	}
	return "", ""
}

// firstToken returns the first whitespace-delimited token of s.
func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// firstNonFlag returns the first token that is not a dash flag.
func firstNonFlag(tokens []string) string {
	for _, token := range tokens {
		if !strings.HasPrefix(token, "-") {
			return token
		}
	}
	return ""
}

// nonFlagArgs filters out dash flags from an argument list.
func nonFlagArgs(tokens []string) []string {
	var out []string
	for _, token := range tokens {
		if strings.HasPrefix(token, "-") {
			continue
		}
		out = append(out, token)
	}
	return out
}
