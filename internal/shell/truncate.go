package shell

import (
	"fmt"
	"strings"
)

// ContainmentPolicy configures the sandwich truncation thresholds.
type ContainmentPolicy struct {
	// MaxLines triggers truncation when a stream exceeds this line count.
	MaxLines int
	// MaxBytes triggers truncation when a stream exceeds this byte count.
	MaxBytes int
	// HeadLines is the number of leading lines kept.
	HeadLines int
	// TailLines is the number of trailing lines kept.
	TailLines int
}

// DefaultContainmentPolicy returns the standard thresholds.
func DefaultContainmentPolicy() ContainmentPolicy {
	return ContainmentPolicy{
		MaxLines:  200,
		MaxBytes:  10 * 1024,
		HeadLines: 50,
		TailLines: 20,
	}
}

// Contain applies the sandwich policy to one stream: head lines, an
// omission summary, then tail lines. Streams under both thresholds, and
// streams too short to yield a non-empty middle, pass through unchanged.
// The second return reports whether the stream was shortened.
func (p ContainmentPolicy) Contain(stream string) (string, bool) {
	if stream == "" {
		return stream, false
	}

	lines := strings.Split(stream, "\n")
	if len(lines) <= p.MaxLines && len(stream) <= p.MaxBytes {
		return stream, false
	}
	if len(lines) <= p.HeadLines+p.TailLines {
		return stream, false
	}

	head := lines[:p.HeadLines]
	tail := lines[len(lines)-p.TailLines:]
	omitted := lines[p.HeadLines : len(lines)-p.TailLines]

	omittedBytes := 0
	for _, line := range omitted {
		omittedBytes += len(line) + 1
	}
	summary := fmt.Sprintf("[... %d lines omitted (~%s) ...]", len(omitted), approxSize(omittedBytes))

	parts := make([]string, 0, len(head)+len(tail)+1)
	parts = append(parts, head...)
	parts = append(parts, summary)
	parts = append(parts, tail...)
	return strings.Join(parts, "\n"), true
}

// approxSize renders a byte count as a rounded human-readable size.
func approxSize(bytes int) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
