package interp

import (
	"io"
	"os"
	"sort"

	"github.com/replforge/shadowlet/pkg/sexp"
)

// DefaultNamespace is the namespace a fresh runtime starts in.
const DefaultNamespace = "user"

// Namespace is a named var table. Its environment chains to the runtime's
// builtin environment, so namespace vars shadow builtins of the same name.
type Namespace struct {
	name string
	env  *Env
}

// Name returns the namespace name.
func (ns *Namespace) Name() string { return ns.name }

// Env returns the namespace's environment frame.
func (ns *Namespace) Env() *Env { return ns.env }

// Runtime owns the builtin environment and the namespace registry, and is the
// entry point for evaluation. It is not safe for concurrent use; callers that
// evaluate from multiple goroutines serialize access themselves.
type Runtime struct {
	core       *Env
	namespaces map[string]*Namespace
	current    *Namespace
	stdout     io.Writer
}

// NewRuntime returns a runtime with all builtins installed and the default
// namespace selected.
func NewRuntime() *Runtime {
	rt := &Runtime{
		core:       NewEnv(nil),
		namespaces: make(map[string]*Namespace),
		stdout:     os.Stdout,
	}
	registerCoreBuiltins(rt)
	registerSeqBuiltins(rt)
	rt.current = rt.Namespace(DefaultNamespace)
	return rt
}

// SetOutput redirects println output (defaults to os.Stdout).
func (rt *Runtime) SetOutput(w io.Writer) { rt.stdout = w }

// Namespace returns the named namespace, creating it lazily.
func (rt *Runtime) Namespace(name string) *Namespace {
	if ns, ok := rt.namespaces[name]; ok {
		return ns
	}
	ns := &Namespace{name: name, env: NewEnv(rt.core)}
	rt.namespaces[name] = ns
	return ns
}

// Namespaces returns all known namespace names, sorted.
func (rt *Runtime) Namespaces() []string {
	out := make([]string, 0, len(rt.namespaces))
	for name := range rt.namespaces {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Current returns the current namespace.
func (rt *Runtime) Current() *Namespace { return rt.current }

// SetCurrent switches the current namespace, creating it if needed.
func (rt *Runtime) SetCurrent(name string) *Namespace {
	rt.current = rt.Namespace(name)
	return rt.current
}

// VisibleNames returns every name resolvable from the current namespace,
// sorted. Used for completion.
func (rt *Runtime) VisibleNames() []string {
	names := append(rt.core.Names(), rt.current.env.Names()...)
	sort.Strings(names)
	return names
}

func (rt *Runtime) defineBuiltin(name string, fn func(*Runtime, []Value) (Value, error)) {
	rt.core.Define(name, BuiltinValue(&Builtin{Name: name, Fn: fn}))
}

// EvalString reads and evaluates every form in src in the current namespace,
// returning the value of the last form. The file and line seed source
// positions for error reporting.
func (rt *Runtime) EvalString(src, file string, line int) (Value, error) {
	forms, err := sexp.ReadString(src, file, line)
	if err != nil {
		return Nil(), err
	}
	return rt.EvalForms(forms, rt.current.env)
}

// EvalForms evaluates forms in order in env, returning the last value.
func (rt *Runtime) EvalForms(forms []sexp.Form, env *Env) (Value, error) {
	result := Nil()
	for _, f := range forms {
		v, err := rt.EvalForm(f, env)
		if err != nil {
			return Nil(), err
		}
		result = v
	}
	return result, nil
}
