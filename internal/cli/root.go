// Package cli provides the command-line interface for shadowlet.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/replforge/shadowlet/internal/config"
	"github.com/replforge/shadowlet/internal/session"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store logger in context.
type loggerKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shadowlet",
		Short: "Shadowlet - REPL shadow evaluation",
		Long: `Shadowlet is an interactive evaluator that captures the intermediate values
of let-style binding forms as namespace-level "shadows".

Evaluate any sub-expression of a pipeline with the values of earlier steps
already in scope, inspect them, and persist them across sessions.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				logger.Debug("configuration loaded", "project_root", cfg.ProjectRoot, "namespace", cfg.Namespace)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./shadowlet.yaml)")
	rootCmd.PersistentFlags().StringP("namespace", "n", "", "Namespace to start in")
	rootCmd.PersistentFlags().String("state", "", "Path to the snapshot database")
	rootCmd.PersistentFlags().StringSlice("init", nil, "Source files evaluated at startup")
	rootCmd.PersistentFlags().Bool("watch-init", false, "Re-evaluate init files when they change")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|plain|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "plain", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand(Version))
	rootCmd.AddCommand(newEvalCommand())
	rootCmd.AddCommand(newReplCommand())
	rootCmd.AddCommand(newShadowsCommand())
	rootCmd.AddCommand(newSnapshotCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Namespace:   config.DefaultNamespace,
		StatePath:   config.DefaultStateFile,
		HistoryFile: config.DefaultHistoryFile,
		Prompt:      config.DefaultPrompt,
		Output:      config.DefaultOutput,
	}
}

// getLogger retrieves the logger from the command context.
func getLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSession builds a session from the command's resolved configuration.
// The returned cleanup must be called (typically via defer).
func newSession(cmd *cobra.Command) (*session.Session, func(), error) {
	cfg := getConfig(cmd.Context())
	s, err := session.New(session.Config{
		Namespace: cfg.Namespace,
		StatePath: cfg.StatePath,
		InitFiles: cfg.InitFiles,
		Logger:    getLogger(cmd.Context()),
	})
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

// newCompletionCommand creates the completion command.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for shadowlet.

To load completions:

Bash:
  $ source <(shadowlet completion bash)

Zsh:
  $ shadowlet completion zsh > "${fpath[1]}/_shadowlet"

Fish:
  $ shadowlet completion fish | source

PowerShell:
  PS> shadowlet completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
