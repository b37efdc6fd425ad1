package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/replforge/shadowlet/internal/session"
)

// newShadowsCommand creates the shadows command and its subcommands.
func newShadowsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shadows",
		Short: "List the current namespace's shadows",
		Long: `List every shadow in the current namespace with its value.

Shadows are created by eval --context and by the REPL; they persist for the
lifetime of the session (or across sessions via snapshots).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := s.LoadSnapshot(""); err != nil {
				// A fresh project has no snapshot yet; nothing to list.
				getLogger(cmd.Context()).Debug("no snapshot to load", "err", err)
			}

			cfg := getConfig(cmd.Context())
			renderShadows(cmd.OutOrStdout(), s, cfg.Output)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every shadow in the current namespace",
		Long: `Remove every shadow in the current namespace.

The namespace's persisted snapshots are deleted as well, so cleared shadows
do not come back on the next invocation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := s.LoadSnapshot(""); err != nil {
				// A fresh project has no snapshot yet; nothing to clear.
				getLogger(cmd.Context()).Debug("no snapshot to load", "err", err)
			}

			n := s.ClearShadows()
			if _, err := s.PurgeSnapshots(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d shadows in %s\n", n, s.Namespace())
			return nil
		},
	})

	return cmd
}

func renderShadows(w io.Writer, s *session.Session, format string) {
	ns := s.Namespace()
	names := s.Shadows().Names(ns)
	if len(names) == 0 && format != "json" {
		_, _ = fmt.Fprintf(w, "No shadows in %s\n", ns)
		return
	}

	switch format {
	case "plain":
		for _, name := range names {
			v, _ := s.Shadows().Get(ns, name)
			_, _ = fmt.Fprintf(w, "%s\t%s\n", name, v.String())
		}
		return
	case "json":
		out := make(map[string]string, len(names))
		for _, name := range names {
			v, _ := s.Shadows().Get(ns, name)
			out[name] = v.String()
		}
		_ = json.NewEncoder(w).Encode(out)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"NAME", "VALUE"})
	for _, name := range names {
		v, _ := s.Shadows().Get(ns, name)
		t.AppendRow(table.Row{name, v.String()})
	}
	t.Render()
}
