package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// newSnapshotCommand creates the snapshot command and its subcommands.
func newSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage persisted shadow snapshots",
		Long: `Save, restore and list shadow snapshots.

A snapshot is a point-in-time copy of the current namespace's shadows, stored
in the state database so it survives process restarts. Function values cannot
be persisted and are skipped.`,
	}

	var label string
	save := &cobra.Command{
		Use:   "save",
		Short: "Save the current namespace's shadows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := s.LoadSnapshot(""); err != nil {
				getLogger(cmd.Context()).Debug("no snapshot to load", "err", err)
			}

			snap, n, err := s.SaveSnapshot(label)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot %s (%d shadows)\n", snap.ID, n)
			return nil
		},
	}
	save.Flags().StringVar(&label, "label", "", "Label for the snapshot")
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:   "load [id]",
		Short: "Restore shadows from a snapshot (latest when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			n, err := s.LoadSnapshot(id)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Restored %d shadows into %s\n", n, s.Namespace())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.DeleteSnapshot(args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the current namespace's snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			snaps, err := s.ListSnapshots()
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No snapshots for %s\n", s.Namespace())
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "LABEL", "CREATED"})
			for _, snap := range snaps {
				t.AppendRow(table.Row{snap.ID, snap.Label, snap.CreatedAt.Format("2006-01-02 15:04:05")})
			}
			t.Render()
			return nil
		},
	})

	return cmd
}
