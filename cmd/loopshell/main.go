// Command loopshell is a terminal conversational agent. The model can run
// shell commands, write files, and call remote tools, with every real
// effect gated behind human approval.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/loopshell/loopshell/internal/approval"
	"github.com/loopshell/loopshell/internal/config"
	"github.com/loopshell/loopshell/internal/conversation"
	"github.com/loopshell/loopshell/internal/engine"
	"github.com/loopshell/loopshell/internal/mcp"
	"github.com/loopshell/loopshell/internal/provider"
	"github.com/loopshell/loopshell/internal/session"
	"github.com/loopshell/loopshell/internal/shell"
	"github.com/loopshell/loopshell/internal/tools"
)

// version is the CLI build version.
const version = "0.1.0"

// options holds all CLI flags.
type options struct {
	// Approve adds pre-approval patterns, repeatable.
	Approve []string
	// Config overrides the config file path.
	Config string
	// Continue resumes the most recent session in the current directory.
	Continue bool
	// DebugFile writes debug logs to a file path.
	DebugFile string
	// MaxActions overrides the per-turn action cap.
	MaxActions int
	// Model overrides the configured model.
	Model string
	// BaseURL overrides the configured provider endpoint.
	BaseURL string
	// NoSessionPersistence disables saving transcripts to disk.
	NoSessionPersistence bool
	// Print enables non-interactive one-shot mode.
	Print bool
	// Resume resumes a specific session id.
	Resume string
	// Timeout overrides the default command timeout in seconds.
	Timeout int
	// Version prints the CLI version.
	Version bool
}

func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "loopshell [prompt]",
		Short: "Conversational shell agent with approval-gated tool execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Version {
				fmt.Println(version)
				return nil
			}
			return runRoot(cmd, opts, args)
		},
	}
	rootCmd.Args = cobra.ArbitraryArgs
	applyFlags(rootCmd.Flags(), opts)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyFlags defines all CLI flags.
func applyFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringArrayVar(&opts.Approve, "approve", nil, "Pre-approve a command pattern (exact or * glob); repeatable")
	flags.StringVar(&opts.Config, "config", "", "Config file path (default ~/.loopshell/config.toml)")
	flags.BoolVarP(&opts.Continue, "continue", "c", false, "Continue the most recent session in this directory")
	flags.StringVar(&opts.DebugFile, "debug-file", "", "Write debug logs to a file")
	flags.IntVar(&opts.MaxActions, "max-actions", 0, "Maximum tool calls per turn")
	flags.StringVar(&opts.Model, "model", "", "Model for the current session")
	flags.StringVar(&opts.BaseURL, "base-url", "", "Provider endpoint override")
	flags.BoolVar(&opts.NoSessionPersistence, "no-session-persistence", false, "Disable session persistence")
	flags.BoolVarP(&opts.Print, "print", "p", false, "Print the response and exit (never prompts; unapproved actions fail)")
	flags.StringVarP(&opts.Resume, "resume", "r", "", "Resume a session by id")
	flags.IntVar(&opts.Timeout, "timeout", 0, "Default command timeout in seconds")
	flags.BoolVarP(&opts.Version, "version", "v", false, "Output the version number")
}

// runRoot loads config, assembles the engine, and dispatches by mode.
func runRoot(cmd *cobra.Command, opts *options, args []string) error {
	logger, closeLog, err := buildLogger(opts.DebugFile)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	env, err := shell.Detect(cfg.ProbeTools)
	if err != nil {
		return fmt.Errorf("detect environment: %w", err)
	}

	patterns := approval.NewPatternSet(append(append([]string(nil), cfg.Approve...), opts.Approve...))
	dangerPatterns, err := cfg.ShellDangerPatterns()
	if err != nil {
		return err
	}
	classifier := shell.NewClassifier(dangerPatterns)

	executor := shell.NewExecutor(env, cfg.ContainmentPolicy(), logger)
	bash := &tools.BashTool{DefaultTimeout: time.Duration(cfg.CommandTimeoutSeconds) * time.Second}
	runner := tools.NewRunner([]tools.Tool{bash, &tools.WriteFileTool{}})
	fakes := tools.NewFakeToolManager(cfg.FakeToolDecls())

	remote := mcp.NewManager(logger)
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	remote.Connect(connectCtx, cfg.MCPServerConfigs())
	cancelConnect()
	defer remote.Close()
	fakes.Integrate(remote.Names())
	if replaced := fakes.ReplacedNames(); len(replaced) > 0 {
		logger.Info("stub tools shadow remote tools", "names", replaced)
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	transport, err := provider.NewOpenAITransport(cfg.BaseURL, apiKey, cfg.Model)
	if err != nil {
		return fmt.Errorf("configure model transport: %w", err)
	}

	store, err := session.NewStore()
	if err != nil {
		return err
	}
	sessionID, records, err := resolveSession(store, env.LaunchDir, opts)
	if err != nil {
		return err
	}

	var conv *conversation.Conversation
	if len(records) > 0 {
		conv = conversation.Restore(records)
		conv.SetSystem(systemPrompt(env))
	} else {
		conv = conversation.New(systemPrompt(env))
	}

	eng := engine.New(engine.Options{
		Transport:    transport,
		Conversation: conv,
		Runner:       runner,
		Fakes:        fakes,
		Remote:       remote,
		Classifier:   classifier,
		Patterns:     patterns,
		ToolContext:  tools.Context{Env: env, Exec: executor},
		MaxActions:   cfg.MaxActionsPerTurn,
		Logger:       logger,
	})

	persist := func() {
		if opts.NoSessionPersistence {
			return
		}
		if err := store.SaveSnapshot(sessionID, conv.Snapshot()); err != nil {
			logger.Warn("saving session", "error", err)
			return
		}
		_ = store.SaveLastSession(session.ProjectHash(env.LaunchDir), sessionID)
	}

	if opts.Print {
		return runHeadless(cmd, eng, patterns, persist, args)
	}
	return runInteractiveTUI(tuiParams{
		engine:     eng,
		env:        env,
		model:      cfg.Model,
		sessionID:  sessionID,
		persist:    persist,
		logger:     logger,
		toolNames:  toolNames(eng, fakes),
		maxActions: cfg.MaxActionsPerTurn,
	})
}

// loadConfig resolves the config path and applies flag overrides on top.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.Config
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.Model != "" {
		cfg.Model = opts.Model
	}
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.MaxActions > 0 {
		cfg.MaxActionsPerTurn = opts.MaxActions
	}
	if opts.Timeout > 0 {
		cfg.CommandTimeoutSeconds = opts.Timeout
	}
	return cfg, nil
}

// buildLogger fans debug logs out to an optional file. Without a debug
// file, warnings and errors still reach stderr.
func buildLogger(debugFile string) (*slog.Logger, func(), error) {
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	if debugFile == "" {
		return slog.New(stderrHandler), func() {}, nil
	}

	file, err := os.OpenFile(debugFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
	return logger, func() { file.Close() }, nil
}

// resolveSession determines the session id and loads prior records.
func resolveSession(store *session.Store, launchDir string, opts *options) (string, []conversation.Record, error) {
	if opts.Resume != "" {
		records, err := store.LoadRecords(opts.Resume)
		if err != nil {
			return "", nil, fmt.Errorf("resume session %s: %w", opts.Resume, err)
		}
		return opts.Resume, records, nil
	}
	if opts.Continue {
		lastID, err := store.LoadLastSession(session.ProjectHash(launchDir))
		if err == nil && lastID != "" {
			records, err := store.LoadRecords(lastID)
			if err == nil {
				return lastID, records, nil
			}
		}
	}
	return uuid.NewString(), nil, nil
}

// systemPrompt builds the system message, including a summary of the
// detected shell environment so the model knows what it is working with.
func systemPrompt(env *shell.Environment) string {
	var sb strings.Builder
	sb.WriteString("You are loopshell, a terminal assistant. ")
	sb.WriteString("You can run shell commands with the bash tool, write files with the write_file tool, ")
	sb.WriteString("and call any other declared tools. Commands run in a sandbox with a timeout and ")
	sb.WriteString("truncated output; destructive commands require explicit user approval. ")
	sb.WriteString("Prefer small, verifiable steps.\n\nEnvironment:\n")
	sb.WriteString(env.Summary())
	return sb.String()
}

// toolNames lists declared action names for display, marking canned
// stubs that shadow a remote tool of the same name.
func toolNames(eng *engine.Engine, fakes *tools.FakeToolManager) []string {
	replaced := make(map[string]bool)
	for _, name := range fakes.ReplacedNames() {
		replaced[name] = true
	}
	specs := eng.Specs()
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		if replaced[spec.Name] {
			names = append(names, spec.Name+" (stub, replaces remote tool)")
			continue
		}
		names = append(names, spec.Name)
	}
	return names
}

// readPrompt assembles the one-shot prompt from args or stdin.
func readPrompt(cmd *cobra.Command, args []string) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt != "" {
		return prompt, nil
	}
	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	prompt = strings.TrimSpace(string(input))
	if prompt == "" {
		return "", errors.New("prompt is required")
	}
	return prompt, nil
}
