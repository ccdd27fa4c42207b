package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPromptFromArgs(t *testing.T) {
	cmd := &cobra.Command{}
	prompt, err := readPrompt(cmd, []string{"list", "the", "files"})
	require.NoError(t, err)
	assert.Equal(t, "list the files", prompt)
}

func TestReadPromptFromStdin(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("  from stdin \n"))
	prompt, err := readPrompt(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", prompt)
}

func TestReadPromptEmpty(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(""))
	_, err := readPrompt(cmd, nil)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "a b c", summarize("a\nb\n  c", 80))
	long := strings.Repeat("x", 200)
	assert.Len(t, summarize(long, 160), 160)
	assert.True(t, strings.HasSuffix(summarize(long, 160), "..."))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "first", firstLine("first\nsecond"))
	assert.Equal(t, "only", firstLine("only"))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "abcdef", padRight("abcdef", 3))
}
