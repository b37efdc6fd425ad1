package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultConfigTemplate = `# shadowlet project configuration
namespace: user

# Source files evaluated at startup, in order.
init_files:
  - init.clj

# Snapshot database and REPL history, relative to this file.
state_path: .shadowlet/state.db
history_file: .shadowlet/history

# Re-evaluate init files when they change on disk.
watch_init: false

# Shadows listing format: table or plain.
output: table
`

const defaultInitFile = `;; Definitions evaluated when the session starts.
(defn sq [n] (* n n))
`

// newInitCommand creates the init command.
func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new shadowlet project",
		Long: `Initialize a shadowlet project with a default configuration.

This creates:
  - shadowlet.yaml configuration file
  - init.clj startup file
  - .shadowlet/ directory for state and history`,
		Example: `  # Initialize in current directory
  shadowlet init

  # Initialize in a new directory
  shadowlet init my-project

  # Force overwrite existing config
  shadowlet init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if err := os.MkdirAll(filepath.Join(dir, ".shadowlet"), 0750); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	cfgPath := filepath.Join(dir, "shadowlet.yaml")
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}
	if err := os.WriteFile(cfgPath, []byte(defaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	initPath := filepath.Join(dir, "init.clj")
	if _, err := os.Stat(initPath); err != nil || force {
		if err := os.WriteFile(initPath, []byte(defaultInitFile), 0o644); err != nil {
			return fmt.Errorf("failed to write init file: %w", err)
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized shadowlet project in %s\n", dir)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'shadowlet repl' to start a session")
	return nil
}
