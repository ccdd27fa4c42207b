package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopshell/loopshell/internal/shell"
)

func testContext(t *testing.T) Context {
	t.Helper()
	dir := t.TempDir()
	env := &shell.Environment{
		LaunchDir: dir,
		Cwd:       dir,
		OS:        "linux",
		Shell:     "/bin/sh",
	}
	exec := shell.NewExecutor(env, shell.DefaultContainmentPolicy(), slog.New(slog.DiscardHandler))
	return Context{Env: env, Exec: exec}
}

func TestRunnerDispatch(t *testing.T) {
	r := NewRunner([]Tool{&BashTool{}, &WriteFileTool{}, &BashTool{}})
	assert.Equal(t, []string{"bash", "write_file"}, r.Names())
	assert.True(t, r.Has("bash"))
	assert.False(t, r.Has("missing"))

	res, err := r.Run(context.Background(), "missing", nil, Context{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "tool not found: missing", res.Content)
}

func TestRunnerSpecsOrder(t *testing.T) {
	r := NewRunner([]Tool{&WriteFileTool{}, &BashTool{}})
	specs := r.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "write_file", specs[0].Name)
	assert.Equal(t, "bash", specs[1].Name)
	assert.NotEmpty(t, specs[0].Description)
	assert.NotNil(t, specs[1].Parameters)
}

func TestWriteFileTool(t *testing.T) {
	toolCtx := testContext(t)
	input, _ := json.Marshal(writeFileArgs{Path: "sub/dir/out.txt", Content: "hello"})

	res, err := (&WriteFileTool{}).Run(context.Background(), input, toolCtx)
	require.NoError(t, err)
	require.False(t, res.IsError, res.Content)

	data, err := os.ReadFile(filepath.Join(toolCtx.Env.Cwd, "sub/dir/out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Contains(t, res.Content, "Wrote 5 bytes")
}

func TestWriteFileToolMissingPath(t *testing.T) {
	res, err := (&WriteFileTool{}).Run(context.Background(), json.RawMessage(`{"content":"x"}`), testContext(t))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestBashToolCdChangesSession(t *testing.T) {
	toolCtx := testContext(t)
	sub := filepath.Join(toolCtx.Env.Cwd, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))

	res, err := (&BashTool{}).Run(context.Background(), json.RawMessage(`{"command":"cd nested"}`), toolCtx)
	require.NoError(t, err)
	require.False(t, res.IsError, res.Content)
	assert.Equal(t, sub, toolCtx.Env.Cwd)
	assert.Equal(t, filepath.Dir(sub), toolCtx.Env.LaunchDir)
}

func TestBashToolCdMissingDir(t *testing.T) {
	toolCtx := testContext(t)
	res, err := (&BashTool{}).Run(context.Background(), json.RawMessage(`{"command":"cd nowhere"}`), toolCtx)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestBashToolRunsCommand(t *testing.T) {
	toolCtx := testContext(t)
	res, err := (&BashTool{}).Run(context.Background(), json.RawMessage(`{"command":"echo hi"}`), toolCtx)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, res.Content, "hi")
}

func TestBashToolNonZeroExit(t *testing.T) {
	toolCtx := testContext(t)
	res, err := (&BashTool{}).Run(context.Background(), json.RawMessage(`{"command":"exit 3"}`), toolCtx)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content, "exit code: 3")
}

func TestCdTarget(t *testing.T) {
	cases := []struct {
		command string
		target  string
		ok      bool
	}{
		{"cd foo", "foo", true},
		{"cd '/tmp/x'", "/tmp/x", true},
		{"cd foo && make", "", false},
		{"cd", "", false},
		{"cdedit foo", "", false},
	}
	for _, tc := range cases {
		target, ok := cdTarget(tc.command)
		assert.Equal(t, tc.ok, ok, tc.command)
		assert.Equal(t, tc.target, target, tc.command)
	}
}
