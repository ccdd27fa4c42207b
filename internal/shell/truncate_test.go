package shell

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedLines(count int) string {
	lines := make([]string, count)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return strings.Join(lines, "\n")
}

func TestContainUnderThresholdsPassesThrough(t *testing.T) {
	policy := DefaultContainmentPolicy()

	input := numberedLines(100)
	output, truncated := policy.Contain(input)
	assert.False(t, truncated)
	assert.Equal(t, input, output)
}

func TestContainSandwichesLargeStream(t *testing.T) {
	policy := DefaultContainmentPolicy()

	input := numberedLines(10000)
	output, truncated := policy.Contain(input)
	require.True(t, truncated)

	lines := strings.Split(output, "\n")
	require.Len(t, lines, policy.HeadLines+policy.TailLines+1)

	// Head and tail must be byte-identical to the source lines.
	assert.Equal(t, "line 1", lines[0])
	assert.Equal(t, "line 50", lines[policy.HeadLines-1])
	assert.Equal(t, "line 9981", lines[policy.HeadLines+1])
	assert.Equal(t, "line 10000", lines[len(lines)-1])

	summary := lines[policy.HeadLines]
	assert.Contains(t, summary, "9930 lines omitted")
}

func TestContainByteThresholdAlone(t *testing.T) {
	policy := DefaultContainmentPolicy()

	// 120 long lines: under the line threshold, over the byte threshold.
	long := strings.Repeat("x", 200)
	input := strings.Join(func() []string {
		lines := make([]string, 120)
		for i := range lines {
			lines[i] = long
		}
		return lines
	}(), "\n")

	output, truncated := policy.Contain(input)
	assert.True(t, truncated)
	assert.Contains(t, output, "lines omitted")
}

func TestContainTooShortForSandwich(t *testing.T) {
	policy := ContainmentPolicy{MaxLines: 5, MaxBytes: 10, HeadLines: 50, TailLines: 20}

	// Over both thresholds but too few lines for a non-empty middle.
	input := numberedLines(30)
	output, truncated := policy.Contain(input)
	assert.False(t, truncated)
	assert.Equal(t, input, output)
}

func TestContainEmptyStream(t *testing.T) {
	policy := DefaultContainmentPolicy()
	output, truncated := policy.Contain("")
	assert.False(t, truncated)
	assert.Equal(t, "", output)
}
