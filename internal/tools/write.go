package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileTool writes model-provided content to a file on disk.
type WriteFileTool struct{}

// Name implements Tool.
func (w *WriteFileTool) Name() string { return "write_file" }

// Description implements Tool.
func (w *WriteFileTool) Description() string {
	return "Write content to a file, creating parent directories as needed. " +
		"Relative paths resolve against the current working directory. " +
		"An existing file is overwritten."
}

// Schema implements Tool.
func (w *WriteFileTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Destination file path",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Full content to write",
			},
		},
		"required": []string{"path", "content"},
	}
}

type writeFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Run implements Tool.
func (w *WriteFileTool) Run(ctx context.Context, input json.RawMessage, toolCtx Context) (Result, error) {
	var args writeFileArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{IsError: true, Content: fmt.Sprintf("invalid arguments: %v", err)}, nil
	}
	if args.Path == "" {
		return Result{IsError: true, Content: "path is required"}, nil
	}

	path := args.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(toolCtx.Env.Cwd, path)
	}
	path = filepath.Clean(path)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{IsError: true, Content: fmt.Sprintf("creating parent directories: %v", err)}, nil
		}
	}
	if err := os.WriteFile(path, []byte(args.Content), 0o644); err != nil {
		return Result{IsError: true, Content: fmt.Sprintf("writing file: %v", err)}, nil
	}
	return Result{Content: fmt.Sprintf("Wrote %d bytes to %s", len(args.Content), path)}, nil
}
