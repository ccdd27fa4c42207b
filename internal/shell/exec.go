package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// ExitTimeout is the sentinel exit code for a timed-out run.
	// It is not a real process exit status.
	ExitTimeout = -1
	// ExitBinary is the sentinel exit code for binary output detection.
	ExitBinary = -2

	// DefaultTimeout bounds a command run when no timeout is given.
	DefaultTimeout = 30 * time.Second
)

// Result is the outcome of one sandboxed command execution.
type Result struct {
	// Stdout is the captured standard output after containment.
	Stdout string
	// Stderr is the captured standard error after containment.
	Stderr string
	// ExitCode is the process exit status, or a negative sentinel.
	ExitCode int
	// Truncated reports whether either stream was shortened.
	Truncated bool
	// TimedOut reports whether the deadline killed the process tree.
	TimedOut bool
	// Binary reports that output was discarded as non-text.
	Binary bool
}

// Executor runs one command at a time through the platform shell with a
// wall-clock deadline, separate stream capture, and output containment.
type Executor struct {
	// Env supplies the shell binary and the default working directory.
	Env *Environment
	// Policy is the output containment configuration.
	Policy ContainmentPolicy
	// Logger records execution traces. Never nil after NewExecutor.
	Logger *slog.Logger
}

// NewExecutor builds an executor bound to an environment.
func NewExecutor(env *Environment, policy ContainmentPolicy, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{Env: env, Policy: policy, Logger: logger}
}

// Execute runs command through the shell. cwd overrides the environment
// cwd when non-empty; timeout <= 0 selects the default. The command text
// is passed as a single argv element, so the shell receives it literally
// without a string-assembly escaping step.
func (e *Executor) Execute(ctx context.Context, command string, cwd string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	workDir := e.Env.Cwd
	if cwd != "" {
		workDir = e.Env.Resolve(cwd)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.Command(e.Env.Shell, shellArgs(command)...)
	cmd.Dir = workDir
	setProcessGroup(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return spawnFailure(err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return spawnFailure(err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return spawnFailure(err)
	}

	// Drain both streams concurrently with the process; Wait must not run
	// until both readers finish or the pipes close on kill.
	var stdout, stderr strings.Builder
	var readers sync.WaitGroup
	readers.Add(2)
	go drain(&readers, stdoutPipe, &stdout)
	go drain(&readers, stderrPipe, &stderr)

	waitErr := make(chan error, 1)
	go func() {
		readers.Wait()
		waitErr <- cmd.Wait()
	}()

	timedOut := false
	var runErr error
	select {
	case runErr = <-waitErr:
	case <-ctx.Done():
		timedOut = true
		// Kill the whole descendant tree; shells fork children that would
		// otherwise outlive the timeout.
		killTree(cmd)
		runErr = <-waitErr
	}

	e.Logger.Debug("command finished",
		"command", command,
		"dir", workDir,
		"duration", time.Since(start),
		"timed_out", timedOut,
	)

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if timedOut {
		result.TimedOut = true
		result.ExitCode = ExitTimeout
		marker := fmt.Sprintf("[Killed - exceeded %ds timeout]", int(timeout.Seconds()))
		if result.Stdout != "" && !strings.HasSuffix(result.Stdout, "\n") {
			result.Stdout += "\n"
		}
		result.Stdout += marker
	} else {
		result.ExitCode = exitCode(runErr)
	}

	if !utf8.ValidString(result.Stdout) || !utf8.ValidString(result.Stderr) {
		// The binary sentinel replaces the exit code, but a timeout kill
		// is still a timeout.
		return Result{
			Stdout:   "[Binary output detected - output discarded]",
			ExitCode: ExitBinary,
			Binary:   true,
			TimedOut: timedOut,
		}
	}

	var outTruncated, errTruncated bool
	result.Stdout, outTruncated = e.Policy.Contain(result.Stdout)
	result.Stderr, errTruncated = e.Policy.Contain(result.Stderr)
	result.Truncated = outTruncated || errTruncated

	return result
}

// drain copies one stream to its builder until EOF or pipe close.
func drain(group *sync.WaitGroup, reader io.Reader, builder *strings.Builder) {
	defer group.Done()
	_, _ = io.Copy(builder, reader)
}

// spawnFailure wraps a start error as an executable result so the caller
// can feed it back to the model like any other outcome.
func spawnFailure(err error) Result {
	return Result{
		Stderr:   fmt.Sprintf("failed to start command: %v", err),
		ExitCode: 127,
	}
}

// exitCode extracts the process exit status from a Wait error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return 1
}

// QuoteForShell single-quotes a string so the POSIX shell treats it as a
// literal, neutralizing quotes, backslashes, `$` expansion, and backticks.
// Used for command text embedded in display strings.
func QuoteForShell(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
