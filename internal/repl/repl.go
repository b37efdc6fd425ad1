// Package repl implements the interactive shadowlet session on top of
// readline: multi-line s-expression input, dot-commands, and optional
// init-file watching.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/replforge/shadowlet/internal/session"
	"github.com/replforge/shadowlet/internal/shadow"
	"github.com/replforge/shadowlet/pkg/sexp"
)

const continuationPrompt = "   ...> "

// Options configures a REPL run.
type Options struct {
	// Prompt is the prompt template; %s is the current namespace.
	Prompt string
	// HistoryFile is the readline history file ("" disables history).
	HistoryFile string
	// Output selects the .shadows format: table or plain.
	Output string
	// WatchInit re-evaluates init files when they change on disk.
	WatchInit bool
	// InitFiles are the files the watcher observes.
	InitFiles []string
	Logger    *slog.Logger
	Stdout    io.Writer
	Stderr    io.Writer
}

// Run starts the interactive loop and blocks until the user quits.
func Run(ctx context.Context, s *session.Session, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Prompt == "" {
		opts.Prompt = "%s=> "
	}

	if opts.HistoryFile != "" {
		if dir := filepath.Dir(opts.HistoryFile); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create history directory: %w", err)
			}
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf(opts.Prompt, s.Namespace()),
		HistoryFile:     opts.HistoryFile,
		AutoComplete:    newCompleter(s),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	if opts.WatchInit && len(opts.InitFiles) > 0 {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := watchInitFiles(watchCtx, s, opts.InitFiles, opts.Logger); err != nil {
			return err
		}
		opts.Logger.Debug("watching init files", "count", len(opts.InitFiles))
	}

	_, _ = fmt.Fprintf(opts.Stdout, "shadowlet (namespace %s)\n", s.Namespace())
	_, _ = fmt.Fprintln(opts.Stdout, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(opts.Stdout)

	r := &loop{s: s, rl: rl, opts: opts}
	return r.run()
}

type loop struct {
	s    *session.Session
	rl   *readline.Instance
	opts Options
	buf  strings.Builder
}

func (r *loop) mainPrompt() string {
	return fmt.Sprintf(r.opts.Prompt, r.s.Namespace())
}

func (r *loop) setPrompt(p string) {
	if r.rl != nil {
		r.rl.SetPrompt(p)
	}
}

func (r *loop) run() error {
	r.setPrompt(r.mainPrompt())
	for {
		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			r.buf.Reset()
			r.setPrompt(r.mainPrompt())
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if r.buf.Len() == 0 {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ".") {
				if quit := r.dotCommand(trimmed); quit {
					return nil
				}
				continue
			}
		}

		// Accumulate until the parentheses balance out.
		r.buf.WriteString(line)
		r.buf.WriteString("\n")
		if !sexp.Balanced(r.buf.String()) {
			r.setPrompt(continuationPrompt)
			continue
		}
		r.setPrompt(r.mainPrompt())

		src := r.buf.String()
		r.buf.Reset()
		if strings.TrimSpace(src) == "" {
			continue
		}

		v, err := r.s.EvalSource(src, "", 1)
		if err != nil {
			_, _ = fmt.Fprintln(r.opts.Stderr, errorStyle.Render("error: "+err.Error()))
			continue
		}
		_, _ = fmt.Fprintln(r.opts.Stdout, v.String())
	}
}

// dotCommand handles one session command and reports whether to quit.
func (r *loop) dotCommand(line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case ".quit", ".exit":
		return true

	case ".help":
		r.printHelp()

	case ".ns":
		if rest == "" {
			_, _ = fmt.Fprintln(r.opts.Stdout, r.s.Namespace())
			break
		}
		r.s.SetNamespace(rest)
		r.setPrompt(r.mainPrompt())

	case ".shadows":
		r.printShadows()

	case ".clear-shadows":
		n := r.s.ClearShadows()
		_, _ = fmt.Fprintln(r.opts.Stdout, dimStyle.Render(fmt.Sprintf("cleared %d shadows", n)))

	case ".shadow":
		r.shadowEval(rest)

	case ".save":
		snap, n, err := r.s.SaveSnapshot(rest)
		if err != nil {
			_, _ = fmt.Fprintln(r.opts.Stderr, errorStyle.Render("error: "+err.Error()))
			break
		}
		_, _ = fmt.Fprintln(r.opts.Stdout, dimStyle.Render(fmt.Sprintf("saved snapshot %s (%d shadows)", snap.ID, n)))

	case ".load":
		n, err := r.s.LoadSnapshot(rest)
		if err != nil {
			_, _ = fmt.Fprintln(r.opts.Stderr, errorStyle.Render("error: "+err.Error()))
			break
		}
		_, _ = fmt.Fprintln(r.opts.Stdout, dimStyle.Render(fmt.Sprintf("restored %d shadows", n)))

	case ".load-file":
		if rest == "" {
			_, _ = fmt.Fprintln(r.opts.Stderr, "Usage: .load-file <path>")
			break
		}
		if err := r.s.LoadFile(rest); err != nil {
			_, _ = fmt.Fprintln(r.opts.Stderr, errorStyle.Render("error: "+err.Error()))
			break
		}
		_, _ = fmt.Fprintln(r.opts.Stdout, dimStyle.Render("loaded "+rest))

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(r.opts.Stderr, "Unknown command: %s (type .help for commands)\n", cmd)
	}
	return false
}

// shadowEval runs a "context | expression" shadow evaluation.
func (r *loop) shadowEval(input string) {
	ctxText, expr, found := strings.Cut(input, "|")
	if !found || strings.TrimSpace(expr) == "" {
		_, _ = fmt.Fprintln(r.opts.Stderr, "Usage: .shadow [bindings] | <expression>")
		return
	}

	res := r.s.Eval(shadow.Request{
		Expr:    strings.TrimSpace(expr),
		Context: strings.TrimSpace(ctxText),
	})
	if res.Err != "" {
		_, _ = fmt.Fprintln(r.opts.Stderr, errorStyle.Render(res.Err))
		return
	}
	if len(res.Entries) > 0 {
		_, _ = fmt.Fprintln(r.opts.Stdout, shadowStyle.Render(res.Display()))
		return
	}
	_, _ = fmt.Fprintln(r.opts.Stdout, res.Display())
}

func (r *loop) printShadows() {
	ns := r.s.Namespace()
	names := r.s.Shadows().Names(ns)
	if len(names) == 0 {
		_, _ = fmt.Fprintln(r.opts.Stdout, dimStyle.Render("no shadows in "+ns))
		return
	}

	if r.opts.Output == "plain" {
		for _, name := range names {
			v, _ := r.s.Shadows().Get(ns, name)
			_, _ = fmt.Fprintf(r.opts.Stdout, "%s %s\n", shadowStyle.Render(name), v.String())
		}
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.opts.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"NAME", "VALUE"})
	for _, name := range names {
		v, _ := r.s.Shadows().Get(ns, name)
		t.AppendRow(table.Row{name, v.String()})
	}
	t.Render()
}

func (r *loop) printHelp() {
	help := `
Commands:
  .help                     Show this help message
  .ns [name]                Show or switch the current namespace
  .shadows                  List shadows in the current namespace
  .clear-shadows            Remove every shadow in the current namespace
  .shadow [ctx] | <expr>    Evaluate expr with ctx's earlier bindings shadowed
  .save [label]             Persist the current shadows as a snapshot
  .load [id]                Restore shadows from a snapshot (latest by default)
  .load-file <path>         Evaluate a source file
  .clear                    Clear the screen
  .quit / .exit             Exit the REPL

Tips:
  - Expressions may span lines; input runs once the parens balance
  - Use arrow keys to navigate history
  - Tab completion works for defined names and dot-commands
`
	_, _ = fmt.Fprintln(r.opts.Stdout, help)
}

// newCompleter creates a readline completer over the session's visible names
// and the dot-commands.
func newCompleter(s *session.Session) *readline.PrefixCompleter {
	dynamic := readline.PcItemDynamic(func(string) []string {
		return s.VisibleNames()
	})

	return readline.NewPrefixCompleter(
		dynamic,
		readline.PcItem(".help"),
		readline.PcItem(".ns"),
		readline.PcItem(".shadows"),
		readline.PcItem(".clear-shadows"),
		readline.PcItem(".shadow"),
		readline.PcItem(".save"),
		readline.PcItem(".load"),
		readline.PcItem(".load-file"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
