package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/replforge/shadowlet/internal/shadow"
)

// newEvalCommand creates the eval command.
func newEvalCommand() *cobra.Command {
	var (
		contextText string
		file        string
		line        int
	)

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression, shadowing its binding",
		Long: `Evaluate one expression against the session.

With --context, the expression is treated as a sub-expression of that binding
form: earlier binding names resolve to their stored shadow values, and the
result is stored under the binding the expression belongs to.

The result is always printed, evaluation failures included (as an
"error: ..." line).

Each invocation restores the namespace's latest snapshot first and, when the
evaluation created shadows, saves an updated one, so shadows carry across
one-shot invocations. Inside the REPL this bookkeeping is manual (.save and
.load).`,
		Example: `  # Plain evaluation
  shadowlet eval '(+ 1 2)'

  # Capture a pipeline step as a shadow
  shadowlet eval '(range 10)' --context '[x1 (range 10)]'

  # Re-run a later step against stored shadows
  shadowlet eval '(map sq x1)' --context '[x1 (range 10) x2 (map sq x1)]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := getLogger(cmd.Context())
			if _, err := s.LoadSnapshot(""); err != nil {
				// First invocation in a fresh project has nothing to restore.
				logger.Debug("no snapshot to restore", "err", err)
			}

			res := s.Eval(shadow.Request{
				Expr:    args[0],
				Context: contextText,
				File:    file,
				Line:    line,
			})
			if getConfig(cmd.Context()).Output == "json" {
				if err := writeResultJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Display())
			}

			if len(res.Entries) > 0 {
				if _, _, err := s.SaveSnapshot("auto"); err != nil {
					logger.Warn("failed to persist shadows", "err", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contextText, "context", "c", "", "Binding context the expression was lifted from")
	cmd.Flags().StringVar(&file, "file", "", "Source file the expression came from")
	cmd.Flags().IntVar(&line, "line", 1, "Source line the expression came from")

	return cmd
}

// writeResultJSON prints a shadow result as a one-line JSON object: the
// name→value entries, {"value": ...} for unbound results, or {"error": ...}.
func writeResultJSON(w io.Writer, res shadow.Result) error {
	out := make(map[string]string)
	switch {
	case res.Err != "":
		out["error"] = res.Err
	case len(res.Entries) > 0:
		for _, e := range res.Entries {
			out[e.Name] = e.Value.String()
		}
	default:
		out["value"] = res.Value.String()
	}

	enc := json.NewEncoder(w)
	return enc.Encode(out)
}
