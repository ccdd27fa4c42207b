package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/loopshell/loopshell/internal/shell"
)

// BashTool runs shell commands inside the resource-bounded sandbox.
type BashTool struct {
	// DefaultTimeout bounds a run when the call names no timeout.
	// Zero falls back to the sandbox default.
	DefaultTimeout time.Duration
}

// Name implements Tool.
func (b *BashTool) Name() string { return "bash" }

// Description implements Tool.
func (b *BashTool) Description() string {
	return "Execute a shell command in the current working directory. " +
		"Output is captured with a line and byte cap; long-running commands are killed at the timeout. " +
		"Use `cd <path>` alone to change the working directory for later commands."
}

// Schema implements Tool.
func (b *BashTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute",
			},
			"cwd": map[string]any{
				"type":        "string",
				"description": "Working directory override for this command",
			},
			"timeout_seconds": map[string]any{
				"type":        "integer",
				"description": "Kill the command after this many seconds (default 30)",
			},
		},
		"required": []string{"command"},
	}
}

type bashArgs struct {
	Command        string `json:"command"`
	Cwd            string `json:"cwd,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// Run implements Tool.
func (b *BashTool) Run(ctx context.Context, input json.RawMessage, toolCtx Context) (Result, error) {
	var args bashArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{IsError: true, Content: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	command := strings.TrimSpace(args.Command)
	if command == "" {
		return Result{IsError: true, Content: "command is required"}, nil
	}

	// A bare `cd` is a directory change for the session, not a subprocess.
	if target, ok := cdTarget(command); ok && args.Cwd == "" {
		if err := toolCtx.Env.SetCwd(target); err != nil {
			return Result{IsError: true, Content: err.Error()}, nil
		}
		return Result{Content: "Changed directory to " + toolCtx.Env.Cwd}, nil
	}

	timeout := b.DefaultTimeout
	if timeout <= 0 {
		timeout = shell.DefaultTimeout
	}
	if args.TimeoutSeconds > 0 {
		timeout = time.Duration(args.TimeoutSeconds) * time.Second
	}
	cwd := args.Cwd
	if cwd != "" {
		cwd = toolCtx.Env.Resolve(cwd)
	}

	res := toolCtx.Exec.Execute(ctx, command, cwd, timeout)
	return Result{Content: formatExecResult(res), IsError: res.ExitCode != 0}, nil
}

// cdTarget reports whether the command is a plain directory change and
// returns its target. Compound commands (cd x && make) are not matched.
func cdTarget(command string) (string, bool) {
	if strings.ContainsAny(command, "&|;\n") {
		return "", false
	}
	fields := strings.Fields(command)
	if len(fields) != 2 || fields[0] != "cd" {
		return "", false
	}
	target := strings.Trim(fields[1], `"'`)
	return target, target != ""
}

// formatExecResult renders a sandbox result as model-readable text.
func formatExecResult(res shell.Result) string {
	var sb strings.Builder
	if res.Stdout != "" {
		sb.WriteString(res.Stdout)
	}
	if res.Stderr != "" {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteString("stderr:\n")
		sb.WriteString(res.Stderr)
	}
	if res.ExitCode != 0 {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "exit code: %d", res.ExitCode)
	}
	if sb.Len() == 0 {
		return "(no output)"
	}
	return sb.String()
}
