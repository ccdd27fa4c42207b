//go:build !windows

package shell

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func testExecutor(t *testing.T) *Executor {
	t.Helper()
	env := &Environment{Shell: "/bin/sh", Cwd: t.TempDir()}
	return NewExecutor(env, DefaultContainmentPolicy(), nil)
}

func TestExecuteCapturesStreamsSeparately(t *testing.T) {
	executor := testExecutor(t)

	result := executor.Execute(context.Background(), "echo out; echo err 1>&2", "", 0)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
	assert.False(t, result.Truncated)
	assert.False(t, result.TimedOut)
}

func TestExecuteNonZeroExit(t *testing.T) {
	executor := testExecutor(t)

	result := executor.Execute(context.Background(), "exit 3", "", 0)
	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.TimedOut)
}

func TestExecuteHonorsCwdOverride(t *testing.T) {
	executor := testExecutor(t)
	other := t.TempDir()

	result := executor.Execute(context.Background(), "pwd", other, 0)
	assert.Equal(t, other, strings.TrimSpace(result.Stdout))
}

func TestExecuteTruncatesLargeOutput(t *testing.T) {
	executor := testExecutor(t)

	result := executor.Execute(context.Background(), `seq 1 10000 | sed 's/^/line /'`, "", 0)
	require.True(t, result.Truncated)

	lines := strings.Split(result.Stdout, "\n")
	assert.Equal(t, "line 1", lines[0])
	assert.Contains(t, result.Stdout, "lines omitted")
	assert.Contains(t, result.Stdout, "line 10000")
}

func TestExecuteTimeoutKillsProcessTree(t *testing.T) {
	executor := testExecutor(t)

	// The inner sleep is a grandchild; print its pid so the test can
	// verify the whole tree is gone afterwards.
	command := "sleep 60 & echo $!; sleep 60"
	start := time.Now()
	result := executor.Execute(context.Background(), command, "", 1*time.Second)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, result.TimedOut)
	assert.Equal(t, ExitTimeout, result.ExitCode)
	assert.Contains(t, result.Stdout, "[Killed - exceeded 1s timeout]")

	pidLine := strings.TrimSpace(strings.Split(result.Stdout, "\n")[0])
	pid, err := strconv.Atoi(pidLine)
	require.NoError(t, err)

	// Give the kernel a moment to reap, then ensure the child is dead.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if unix.Kill(pid, 0) != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("child process %d survived the timeout kill", pid)
}

func TestExecuteBinaryOutputGuard(t *testing.T) {
	executor := testExecutor(t)

	// Octal escapes: dash's printf has no \xHH support.
	result := executor.Execute(context.Background(), `printf '\377\376\000\001'`, "", 0)
	assert.True(t, result.Binary)
	assert.Equal(t, ExitBinary, result.ExitCode)
	assert.Contains(t, result.Stdout, "Binary output detected")
	assert.Empty(t, result.Stderr)
}

func TestExecuteBinaryOutputKeepsTimeoutFlag(t *testing.T) {
	executor := testExecutor(t)

	result := executor.Execute(context.Background(), `printf '\377\376\000\001'; sleep 60`, "", 1*time.Second)
	assert.True(t, result.Binary)
	assert.Equal(t, ExitBinary, result.ExitCode)
	assert.True(t, result.TimedOut, "a timed-out run stays marked even when its output is binary")
}

func TestExecuteLiteralCommandText(t *testing.T) {
	executor := testExecutor(t)

	// Quotes, variables, and backticks in the command are interpreted by
	// the shell itself, not re-escaped by the executor.
	result := executor.Execute(context.Background(), `printf '%s' "$HOME"`, "", 0)
	assert.Equal(t, 0, result.ExitCode)
	assert.NotEmpty(t, result.Stdout)
}

func TestQuoteForShell(t *testing.T) {
	assert.Equal(t, `'plain'`, QuoteForShell("plain"))
	assert.Equal(t, `'it'\''s'`, QuoteForShell("it's"))
	assert.Equal(t, `'a $b `+"`c`'", QuoteForShell("a $b `c`"))
}
