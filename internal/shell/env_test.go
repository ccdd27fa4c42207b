package shell

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPopulatesIdentity(t *testing.T) {
	env, err := Detect([]string{"sh"})
	require.NoError(t, err)

	assert.Equal(t, runtime.GOOS, env.OS)
	assert.Equal(t, runtime.GOARCH, env.Arch)
	assert.NotEmpty(t, env.Shell)
	assert.Equal(t, env.LaunchDir, env.Cwd)
	assert.Contains(t, env.AvailableTools, "sh")
}

func TestDetectMissingToolIsNotFatal(t *testing.T) {
	env, err := Detect([]string{"definitely-not-a-real-utility-name"})
	require.NoError(t, err)
	assert.Contains(t, env.MissingTools, "definitely-not-a-real-utility-name")
	assert.Empty(t, env.AvailableTools)
}

func TestSetCwdRelativeResolution(t *testing.T) {
	base := t.TempDir()
	sub := filepath.Join(base, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))

	env := &Environment{LaunchDir: base, Cwd: base}
	require.NoError(t, env.SetCwd("nested"))
	assert.Equal(t, sub, env.Cwd)
	assert.Equal(t, base, env.LaunchDir)

	require.NoError(t, env.SetCwd(".."))
	assert.Equal(t, base, env.Cwd)
}

func TestSetCwdMissingDirectory(t *testing.T) {
	base := t.TempDir()
	env := &Environment{LaunchDir: base, Cwd: base}

	err := env.SetCwd("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
	assert.Equal(t, base, env.Cwd)
}

func TestSetCwdFileIsNotADirectory(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	env := &Environment{LaunchDir: base, Cwd: base}
	assert.ErrorIs(t, env.SetCwd("file.txt"), ErrDirectoryNotFound)
}

func TestSummaryProjection(t *testing.T) {
	env := &Environment{
		OS:              "linux",
		Arch:            "amd64",
		Shell:           "/bin/sh",
		Username:        "dev",
		HomeDir:         "/home/dev",
		Cwd:             "/srv/app",
		CaseSensitiveFS: true,
		AvailableTools:  []string{"git", "jq"},
		MissingTools:    []string{"rg"},
	}

	summary := env.Summary()
	assert.Contains(t, summary, "OS: linux (amd64)")
	assert.Contains(t, summary, "Working directory: /srv/app")
	assert.Contains(t, summary, "case-sensitive")
	assert.Contains(t, summary, "Available tools: git, jq")
	assert.Contains(t, summary, "Missing tools: rg")
}
