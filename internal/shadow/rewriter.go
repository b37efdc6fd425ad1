package shadow

import (
	"strings"

	"github.com/replforge/shadowlet/internal/interp"
	"github.com/replforge/shadowlet/pkg/sexp"
)

// Request is one shadow evaluation: the expression to run, the binding context
// it was lifted from (optional), and where it came from. File and line seed
// source positions in error messages; nothing else persists them.
type Request struct {
	Expr    string
	Context string
	File    string
	Line    int
}

// Entry is one name bound by a shadow evaluation.
type Entry struct {
	Name  string
	Value interp.Value
}

// Result is what a shadow evaluation produced: a name-to-value mapping when a
// binding name applied, the raw value otherwise, or an error string. Exactly
// one of Entries, Value and Err is meaningful; Display renders whichever it is.
type Result struct {
	Entries []Entry
	Value   interp.Value
	Err     string
}

// Display renders the result the way the REPL shows it.
func (r Result) Display() string {
	if r.Err != "" {
		return r.Err
	}
	if len(r.Entries) > 0 {
		parts := make([]string, len(r.Entries))
		for i, e := range r.Entries {
			parts[i] = e.Name + " " + e.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return r.Value.String()
}

// binding is one (target, expression) pair of a parsed context.
type binding struct {
	pattern sexp.Form
	expr    sexp.Form
}

// Rewriter evaluates expressions against a runtime, scoping in and capturing
// shadows through the store.
type Rewriter struct {
	rt    *interp.Runtime
	store *Store
}

// NewRewriter returns a rewriter over the given runtime and store.
func NewRewriter(rt *interp.Runtime, store *Store) *Rewriter {
	return &Rewriter{rt: rt, store: store}
}

// Store returns the underlying shadow store.
func (rw *Rewriter) Store() *Store { return rw.store }

// Runtime returns the underlying runtime.
func (rw *Rewriter) Runtime() *interp.Runtime { return rw.rt }

// Eval runs one shadow evaluation. The first matching rule wins:
//
//  1. No context: evaluate the expression as-is in the current namespace.
//  2. The context holds exactly one target/expression pair: the whole context
//     is the destructuring target for the expression's value.
//  3. The expression is itself definition-like (def, defn, ns): evaluate it
//     directly, nothing to shadow.
//  4. Otherwise the trailing binding names the destination; every earlier
//     binding name is scoped in from the store before evaluating.
//
// Evaluation failures never propagate: they come back as an Err string so the
// caller always has something displayable. Writing the store is the only
// durable side effect.
func (rw *Rewriter) Eval(req Request) Result {
	bindings := parseContext(req.Context)

	if len(bindings) == 0 {
		v, err := rw.rt.EvalString(req.Expr, req.File, req.Line)
		if err != nil {
			return errResult(err)
		}
		return Result{Value: v}
	}

	expr, err := sexp.ReadOne(req.Expr, req.File, req.Line)
	if err != nil {
		return errResult(err)
	}

	if len(bindings) == 1 {
		return rw.capture(expr, bindings[0].pattern, nil)
	}

	if interp.IsDefinitionForm(expr) {
		v, err := rw.rt.EvalForm(expr, rw.rt.Current().Env())
		if err != nil {
			return errResult(err)
		}
		return Result{Value: v}
	}

	last := len(bindings) - 1
	var prior []string
	for _, b := range bindings[:last] {
		prior = append(prior, interp.PatternNames(b.pattern)...)
	}
	return rw.capture(expr, bindings[last].pattern, prior)
}

// capture evaluates expr with the named prior shadows in scope, destructures
// the value by pattern, and stores each bound name.
func (rw *Rewriter) capture(expr, pattern sexp.Form, prior []string) Result {
	ns := rw.rt.Current().Name()
	env := interp.NewEnv(rw.rt.Current().Env())
	for _, name := range prior {
		if v, ok := rw.store.Get(ns, name); ok {
			env.Define(name, v)
		}
	}

	v, err := rw.rt.EvalForm(expr, env)
	if err != nil {
		return errResult(err)
	}

	bound := interp.NewEnv(nil)
	names, err := interp.BindPattern(bound, pattern, v)
	if err != nil {
		return errResult(err)
	}
	if len(names) == 0 {
		// Pattern bound nothing (e.g. underscore): nothing to store.
		return Result{Value: v}
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		bv, _ := bound.Get(name)
		rw.store.Set(ns, name, bv)
		entries = append(entries, Entry{Name: name, Value: bv})
	}
	return Result{Entries: entries}
}

// parseContext reads a "[target expr target expr ...]" context string into
// binding pairs. Anything that does not parse as such a vector is treated as
// an absent context.
func parseContext(src string) []binding {
	if strings.TrimSpace(src) == "" {
		return nil
	}
	f, err := sexp.ReadOne(src, "", 1)
	if err != nil || f.Kind != sexp.KindVector || len(f.Children)%2 != 0 {
		return nil
	}
	bindings := make([]binding, 0, len(f.Children)/2)
	for i := 0; i+1 < len(f.Children); i += 2 {
		pattern := f.Children[i]
		if len(interp.PatternNames(pattern)) == 0 && !pattern.IsSymbol("_") {
			return nil
		}
		bindings = append(bindings, binding{pattern: pattern, expr: f.Children[i+1]})
	}
	return bindings
}

func errResult(err error) Result {
	return Result{Err: "error: " + err.Error()}
}
