package cli

import (
	"github.com/spf13/cobra"

	"github.com/replforge/shadowlet/internal/repl"
)

// newReplCommand creates the repl command.
func newReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Long: `Start the interactive shadowlet REPL.

Input is read as s-expressions with multi-line support. Prefix a line with a
dot for session commands (.help lists them). A "context | expression" input
via .shadow performs a shadow evaluation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := getConfig(cmd.Context())
			return repl.Run(cmd.Context(), s, repl.Options{
				Prompt:      cfg.Prompt,
				HistoryFile: cfg.HistoryFile,
				Output:      cfg.Output,
				WatchInit:   cfg.WatchInit,
				InitFiles:   cfg.InitFiles,
				Logger:      getLogger(cmd.Context()),
				Stdout:      cmd.OutOrStdout(),
				Stderr:      cmd.ErrOrStderr(),
			})
		},
	}
}
