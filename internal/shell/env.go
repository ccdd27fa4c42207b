package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// ErrDirectoryNotFound indicates SetCwd was given a path that does not exist.
var ErrDirectoryNotFound = errors.New("directory not found")

// DefaultProbedTools is the utility list probed by Detect when the
// configuration does not override it.
var DefaultProbedTools = []string{
	"git", "curl", "wget", "jq", "rg", "grep", "sed", "awk",
	"tar", "zip", "unzip", "make", "python3", "node",
}

// detectTimeout bounds the whole utility probe pass.
const detectTimeout = 2 * time.Second

// Environment tracks the shell identity and the two working directories:
// the immutable launch root and the mutable execution cwd.
type Environment struct {
	// LaunchDir is the directory the process started in. Never changes;
	// anchors session persistence.
	LaunchDir string
	// Cwd is the current execution directory. Mutated only via SetCwd.
	Cwd string
	// OS is the GOOS family name.
	OS string
	// Shell is the shell binary used for command execution.
	Shell string
	// Arch is the CPU architecture.
	Arch string
	// Username is the current OS user name.
	Username string
	// HomeDir is the user home directory.
	HomeDir string
	// CaseSensitiveFS reports the OS-default filesystem case sensitivity.
	CaseSensitiveFS bool
	// AvailableTools lists probed utilities found on PATH.
	AvailableTools []string
	// MissingTools lists probed utilities absent from PATH.
	MissingTools []string
}

// Detect probes the host and returns a populated Environment.
// Utility probe failures are recorded as missing, never fatal.
func Detect(probeTools []string) (*Environment, error) {
	launchDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve launch directory: %w", err)
	}

	env := &Environment{
		LaunchDir:       launchDir,
		Cwd:             launchDir,
		OS:              runtime.GOOS,
		Shell:           preferredShell(),
		Arch:            runtime.GOARCH,
		CaseSensitiveFS: defaultCaseSensitivity(runtime.GOOS),
	}

	if current, err := user.Current(); err == nil {
		env.Username = current.Username
	}
	if home, err := os.UserHomeDir(); err == nil {
		env.HomeDir = home
	}

	if probeTools == nil {
		probeTools = DefaultProbedTools
	}
	env.AvailableTools, env.MissingTools = probe(probeTools)
	return env, nil
}

// SetCwd resolves path against the current cwd and updates it.
// The launch directory is never touched.
func (e *Environment) SetCwd(path string) error {
	resolved := e.Resolve(path)
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, resolved)
	}
	e.Cwd = resolved
	return nil
}

// Resolve turns a possibly-relative path into an absolute one anchored at
// the current cwd. It performs no filesystem checks.
func (e *Environment) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(e.Cwd, path))
}

// Summary renders the environment for injection into model instructions.
// Pure projection; no side effects.
func (e *Environment) Summary() string {
	caseLabel := "case-insensitive"
	if e.CaseSensitiveFS {
		caseLabel = "case-sensitive"
	}
	var builder strings.Builder
	fmt.Fprintf(&builder, "OS: %s (%s)\n", e.OS, e.Arch)
	fmt.Fprintf(&builder, "Shell: %s\n", e.Shell)
	fmt.Fprintf(&builder, "User: %s\n", e.Username)
	fmt.Fprintf(&builder, "Home: %s\n", e.HomeDir)
	fmt.Fprintf(&builder, "Working directory: %s\n", e.Cwd)
	fmt.Fprintf(&builder, "Filesystem: %s\n", caseLabel)
	if len(e.AvailableTools) > 0 {
		fmt.Fprintf(&builder, "Available tools: %s\n", strings.Join(e.AvailableTools, ", "))
	}
	if len(e.MissingTools) > 0 {
		fmt.Fprintf(&builder, "Missing tools: %s\n", strings.Join(e.MissingTools, ", "))
	}
	return builder.String()
}

// probe checks PATH for each utility under a shared deadline.
func probe(tools []string) (available []string, missing []string) {
	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()

	for _, tool := range tools {
		if ctx.Err() != nil {
			// Deadline hit; remaining tools count as missing.
			missing = append(missing, tool)
			continue
		}
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
			continue
		}
		available = append(available, tool)
	}
	sort.Strings(available)
	sort.Strings(missing)
	return available, missing
}

// preferredShell picks the execution shell for the platform.
func preferredShell() string {
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}
	if envShell := os.Getenv("SHELL"); envShell != "" {
		return envShell
	}
	return "/bin/sh"
}

// defaultCaseSensitivity reports the OS-default filesystem behavior.
func defaultCaseSensitivity(goos string) bool {
	switch goos {
	case "darwin", "windows":
		return false
	default:
		return true
	}
}
