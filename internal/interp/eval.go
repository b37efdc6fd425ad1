package interp

import (
	"fmt"

	"github.com/replforge/shadowlet/pkg/sexp"
)

// definitionForms are the special forms that create or switch namespace-level
// state when evaluated; the shadow rewriter evaluates these directly.
var definitionForms = map[string]bool{
	"def":  true,
	"defn": true,
	"ns":   true,
}

// IsDefinitionForm reports whether f is a definition-like form (def, defn, ns).
func IsDefinitionForm(f sexp.Form) bool {
	head := f.Head()
	return head.Kind == sexp.KindSymbol && definitionForms[head.Text]
}

// EvalForm evaluates a single form in env.
func (rt *Runtime) EvalForm(f sexp.Form, env *Env) (Value, error) {
	switch f.Kind {
	case sexp.KindNil:
		return Nil(), nil
	case sexp.KindBool:
		return BoolValue(f.Bool), nil
	case sexp.KindInt:
		return IntValue(f.Int), nil
	case sexp.KindFloat:
		return FloatValue(f.Float), nil
	case sexp.KindString:
		return StringValue(f.Text), nil
	case sexp.KindKeyword:
		return KeywordValue(f.Text), nil

	case sexp.KindSymbol:
		v, err := env.Get(f.Text)
		if err != nil {
			return Nil(), errf(f.Pos, "%s", err.Error())
		}
		return v, nil

	case sexp.KindVector:
		items := make([]Value, len(f.Children))
		for i, c := range f.Children {
			v, err := rt.EvalForm(c, env)
			if err != nil {
				return Nil(), err
			}
			items[i] = v
		}
		return VectorValue(items...), nil

	case sexp.KindMap:
		m := &MapValue{}
		for i := 0; i+1 < len(f.Children); i += 2 {
			k, err := rt.EvalForm(f.Children[i], env)
			if err != nil {
				return Nil(), err
			}
			v, err := rt.EvalForm(f.Children[i+1], env)
			if err != nil {
				return Nil(), err
			}
			m.Entries = append(m.Entries, MapEntry{Key: k, Val: v})
		}
		return MapVal(m), nil

	case sexp.KindList:
		return rt.evalList(f, env)

	default:
		return Nil(), errf(f.Pos, "cannot evaluate %s form", f.Kind)
	}
}

func (rt *Runtime) evalList(f sexp.Form, env *Env) (Value, error) {
	if len(f.Children) == 0 {
		return ListValue(), nil
	}

	if head := f.Children[0]; head.Kind == sexp.KindSymbol {
		switch head.Text {
		case "quote":
			if len(f.Children) != 2 {
				return Nil(), errf(f.Pos, "quote expects one argument")
			}
			return LiteralValue(f.Children[1]), nil
		case "def":
			return rt.evalDef(f, env)
		case "defn":
			return rt.evalDefn(f, env)
		case "fn":
			return rt.evalFn(f, env)
		case "let":
			return rt.evalLet(f, env)
		case "if":
			return rt.evalIf(f, env)
		case "do":
			return rt.EvalForms(f.Children[1:], env)
		case "and":
			return rt.evalAnd(f, env)
		case "or":
			return rt.evalOr(f, env)
		case "when":
			return rt.evalWhen(f, env)
		case "ns":
			return rt.evalNs(f)
		}
	}

	// Function call: evaluate head and arguments, then apply.
	callee, err := rt.EvalForm(f.Children[0], env)
	if err != nil {
		return Nil(), err
	}
	args := make([]Value, len(f.Children)-1)
	for i, c := range f.Children[1:] {
		v, err := rt.EvalForm(c, env)
		if err != nil {
			return Nil(), err
		}
		args[i] = v
	}
	v, err := rt.Apply(callee, args)
	if err != nil {
		if ee, ok := err.(*EvalError); ok && !ee.Pos.IsValid() {
			ee.Pos = f.Pos
		}
		return Nil(), err
	}
	return v, nil
}

// Apply calls a function value with already-evaluated arguments. Keywords are
// callable and look themselves up in a map argument.
func (rt *Runtime) Apply(callee Value, args []Value) (Value, error) {
	switch callee.Kind {
	case KindBuiltin:
		v, err := callee.Builtin.Fn(rt, args)
		if err != nil {
			if _, ok := err.(*EvalError); !ok {
				err = &EvalError{Msg: callee.Builtin.Name + ": " + err.Error()}
			}
			return Nil(), err
		}
		return v, nil

	case KindFn:
		return rt.applyFn(callee.Fn, args)

	case KindKeyword:
		if len(args) < 1 || len(args) > 2 {
			return Nil(), &EvalError{Msg: "keyword lookup expects a map and optional default"}
		}
		if args[0].Kind == KindMap {
			if v, ok := args[0].Map.Get(callee); ok {
				return v, nil
			}
		}
		if len(args) == 2 {
			return args[1], nil
		}
		return Nil(), nil

	default:
		return Nil(), &EvalError{Msg: "cannot call value of type " + callee.Kind.String()}
	}
}

func (rt *Runtime) applyFn(fn *Fn, args []Value) (Value, error) {
	env := NewEnv(fn.Env)
	if fn.Rest == nil && len(args) != len(fn.Params) {
		return Nil(), &EvalError{Msg: fmt.Sprintf("%s expects %d arguments, got %d", fnName(fn), len(fn.Params), len(args))}
	}
	if fn.Rest != nil && len(args) < len(fn.Params) {
		return Nil(), &EvalError{Msg: fmt.Sprintf("%s expects at least %d arguments, got %d", fnName(fn), len(fn.Params), len(args))}
	}
	for i, p := range fn.Params {
		if _, err := BindPattern(env, p, args[i]); err != nil {
			return Nil(), err
		}
	}
	if fn.Rest != nil {
		rest := ListValue(args[len(fn.Params):]...)
		if _, err := BindPattern(env, *fn.Rest, rest); err != nil {
			return Nil(), err
		}
	}
	return rt.EvalForms(fn.Body, env)
}

func fnName(fn *Fn) string {
	if fn.Name != "" {
		return fn.Name
	}
	return "fn"
}

func (rt *Runtime) evalDef(f sexp.Form, env *Env) (Value, error) {
	if len(f.Children) != 3 {
		return Nil(), errf(f.Pos, "def expects a name and a value")
	}
	name := f.Children[1]
	if name.Kind != sexp.KindSymbol {
		return Nil(), errf(name.Pos, "def expects a symbol name, got %s", name.Kind)
	}
	v, err := rt.EvalForm(f.Children[2], env)
	if err != nil {
		return Nil(), err
	}
	if v.Kind == KindFn && v.Fn.Name == "" {
		v.Fn.Name = name.Text
	}
	// def always lands in the current namespace, even inside a let body.
	rt.current.env.Define(name.Text, v)
	return v, nil
}

func (rt *Runtime) evalDefn(f sexp.Form, env *Env) (Value, error) {
	if len(f.Children) < 4 {
		return Nil(), errf(f.Pos, "defn expects a name, a parameter vector and a body")
	}
	name := f.Children[1]
	if name.Kind != sexp.KindSymbol {
		return Nil(), errf(name.Pos, "defn expects a symbol name, got %s", name.Kind)
	}
	fn, err := rt.makeFn(name.Text, f.Children[2], f.Children[3:], env)
	if err != nil {
		return Nil(), err
	}
	v := FnValue(fn)
	rt.current.env.Define(name.Text, v)
	return v, nil
}

func (rt *Runtime) evalFn(f sexp.Form, env *Env) (Value, error) {
	rest := f.Children[1:]
	name := ""
	if len(rest) > 0 && rest[0].Kind == sexp.KindSymbol {
		name = rest[0].Text
		rest = rest[1:]
	}
	if len(rest) < 2 {
		return Nil(), errf(f.Pos, "fn expects a parameter vector and a body")
	}
	fn, err := rt.makeFn(name, rest[0], rest[1:], env)
	if err != nil {
		return Nil(), err
	}
	return FnValue(fn), nil
}

func (rt *Runtime) makeFn(name string, params sexp.Form, body []sexp.Form, env *Env) (*Fn, error) {
	if params.Kind != sexp.KindVector {
		return nil, errf(params.Pos, "parameter list must be a vector, got %s", params.Kind)
	}
	fn := &Fn{Name: name, Body: body, Env: env}
	for i := 0; i < len(params.Children); i++ {
		p := params.Children[i]
		if p.IsSymbol("&") {
			if i+1 != len(params.Children)-1 {
				return nil, errf(p.Pos, "& must be followed by exactly one rest parameter")
			}
			r := params.Children[i+1]
			fn.Rest = &r
			return fn, nil
		}
		fn.Params = append(fn.Params, p)
	}
	return fn, nil
}

func (rt *Runtime) evalLet(f sexp.Form, env *Env) (Value, error) {
	if len(f.Children) < 2 {
		return Nil(), errf(f.Pos, "let expects a binding vector")
	}
	bindings := f.Children[1]
	if bindings.Kind != sexp.KindVector {
		return Nil(), errf(bindings.Pos, "let bindings must be a vector, got %s", bindings.Kind)
	}
	if len(bindings.Children)%2 != 0 {
		return Nil(), errf(bindings.Pos, "let bindings require an even number of forms")
	}
	local := NewEnv(env)
	for i := 0; i+1 < len(bindings.Children); i += 2 {
		v, err := rt.EvalForm(bindings.Children[i+1], local)
		if err != nil {
			return Nil(), err
		}
		if _, err := BindPattern(local, bindings.Children[i], v); err != nil {
			return Nil(), err
		}
	}
	return rt.EvalForms(f.Children[2:], local)
}

func (rt *Runtime) evalIf(f sexp.Form, env *Env) (Value, error) {
	if len(f.Children) < 3 || len(f.Children) > 4 {
		return Nil(), errf(f.Pos, "if expects a condition, a then branch and an optional else branch")
	}
	cond, err := rt.EvalForm(f.Children[1], env)
	if err != nil {
		return Nil(), err
	}
	if cond.Truthy() {
		return rt.EvalForm(f.Children[2], env)
	}
	if len(f.Children) == 4 {
		return rt.EvalForm(f.Children[3], env)
	}
	return Nil(), nil
}

func (rt *Runtime) evalAnd(f sexp.Form, env *Env) (Value, error) {
	result := BoolValue(true)
	for _, c := range f.Children[1:] {
		v, err := rt.EvalForm(c, env)
		if err != nil {
			return Nil(), err
		}
		if !v.Truthy() {
			return v, nil
		}
		result = v
	}
	return result, nil
}

func (rt *Runtime) evalOr(f sexp.Form, env *Env) (Value, error) {
	for _, c := range f.Children[1:] {
		v, err := rt.EvalForm(c, env)
		if err != nil {
			return Nil(), err
		}
		if v.Truthy() {
			return v, nil
		}
	}
	return Nil(), nil
}

func (rt *Runtime) evalWhen(f sexp.Form, env *Env) (Value, error) {
	if len(f.Children) < 2 {
		return Nil(), errf(f.Pos, "when expects a condition")
	}
	cond, err := rt.EvalForm(f.Children[1], env)
	if err != nil {
		return Nil(), err
	}
	if !cond.Truthy() {
		return Nil(), nil
	}
	return rt.EvalForms(f.Children[2:], env)
}

func (rt *Runtime) evalNs(f sexp.Form) (Value, error) {
	if len(f.Children) != 2 || f.Children[1].Kind != sexp.KindSymbol {
		return Nil(), errf(f.Pos, "ns expects a symbol name")
	}
	rt.SetCurrent(f.Children[1].Text)
	return Nil(), nil
}

// LiteralValue converts a form to the value it denotes as data: lists,
// vectors and maps become collections of their (recursively converted)
// children, and symbols stay symbols. This is quote semantics, and also how
// persisted shadow snapshots are rehydrated.
func LiteralValue(f sexp.Form) Value {
	switch f.Kind {
	case sexp.KindNil:
		return Nil()
	case sexp.KindBool:
		return BoolValue(f.Bool)
	case sexp.KindInt:
		return IntValue(f.Int)
	case sexp.KindFloat:
		return FloatValue(f.Float)
	case sexp.KindString:
		return StringValue(f.Text)
	case sexp.KindSymbol:
		return SymbolValue(f.Text)
	case sexp.KindKeyword:
		return KeywordValue(f.Text)
	case sexp.KindList:
		items := make([]Value, len(f.Children))
		for i, c := range f.Children {
			items[i] = LiteralValue(c)
		}
		return ListValue(items...)
	case sexp.KindVector:
		items := make([]Value, len(f.Children))
		for i, c := range f.Children {
			items[i] = LiteralValue(c)
		}
		return VectorValue(items...)
	case sexp.KindMap:
		m := &MapValue{}
		for i := 0; i+1 < len(f.Children); i += 2 {
			m.Entries = append(m.Entries, MapEntry{
				Key: LiteralValue(f.Children[i]),
				Val: LiteralValue(f.Children[i+1]),
			})
		}
		return MapVal(m)
	default:
		return Nil()
	}
}

// BindPattern binds a parameter pattern to a value in env and returns the
// names bound, in pattern order. Patterns are symbols (the underscore symbol
// binds nothing), or vectors for sequential destructuring with an optional
// trailing `& rest`. Missing elements bind nil, as in Clojure.
func BindPattern(env *Env, pattern sexp.Form, v Value) ([]string, error) {
	switch pattern.Kind {
	case sexp.KindSymbol:
		if pattern.Text == "_" {
			return nil, nil
		}
		env.Define(pattern.Text, v)
		return []string{pattern.Text}, nil

	case sexp.KindVector:
		items, ok := v.Seq()
		if !ok {
			return nil, errf(pattern.Pos, "cannot destructure %s value", v.Kind)
		}
		var names []string
		for i := 0; i < len(pattern.Children); i++ {
			p := pattern.Children[i]
			if p.IsSymbol("&") {
				if i+1 != len(pattern.Children)-1 {
					return nil, errf(p.Pos, "& must be followed by exactly one rest pattern")
				}
				rest := Nil()
				if i < len(items) {
					rest = ListValue(items[i:]...)
				}
				bound, err := BindPattern(env, pattern.Children[i+1], rest)
				if err != nil {
					return nil, err
				}
				return append(names, bound...), nil
			}
			elem := Nil()
			if i < len(items) {
				elem = items[i]
			}
			bound, err := BindPattern(env, p, elem)
			if err != nil {
				return nil, err
			}
			names = append(names, bound...)
		}
		return names, nil

	default:
		return nil, errf(pattern.Pos, "unsupported binding pattern: %s", pattern.Kind)
	}
}

// PatternNames returns the names a pattern would bind, without binding them.
func PatternNames(pattern sexp.Form) []string {
	switch pattern.Kind {
	case sexp.KindSymbol:
		if pattern.Text == "_" {
			return nil
		}
		return []string{pattern.Text}
	case sexp.KindVector:
		var names []string
		for _, p := range pattern.Children {
			if p.IsSymbol("&") {
				continue
			}
			names = append(names, PatternNames(p)...)
		}
		return names
	default:
		return nil
	}
}
