// Package interp implements the embedded evaluator for the shadowlet
// expression language: an eager Clojure-subset over the forms produced by
// pkg/sexp. Values are namespace-scoped; the Runtime owns the namespace
// registry and the builtin environment.
package interp

import (
	"strconv"
	"strings"

	"github.com/replforge/shadowlet/pkg/sexp"
)

// Kind identifies the runtime kind of a Value.
type Kind int

// Value kinds.
const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindKeyword
	KindList
	KindVector
	KindMap
	KindFn
	KindBuiltin
)

var kindNames = map[Kind]string{
	KindNil:     "nil",
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindSymbol:  "symbol",
	KindKeyword: "keyword",
	KindList:    "list",
	KindVector:  "vector",
	KindMap:     "map",
	KindFn:      "fn",
	KindBuiltin: "builtin",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Value is the runtime carrier. The Kind selects which payload field is
// meaningful: Bool, Int, Float, Str (string/symbol/keyword text), Items
// (list/vector elements), Map, Fn or Builtin.
type Value struct {
	Kind    Kind
	Bool    bool
	Int     int64
	Float   float64
	Str     string
	Items   []Value
	Map     *MapValue
	Fn      *Fn
	Builtin *Builtin
}

// MapEntry is a single key/value pair of a MapValue.
type MapEntry struct {
	Key Value
	Val Value
}

// MapValue is an ordered map: entries iterate in insertion order and keys are
// compared with Equals. Sized for REPL work, not bulk data.
type MapValue struct {
	Entries []MapEntry
}

// Get returns the value for key and whether it was present.
func (m *MapValue) Get(key Value) (Value, bool) {
	for _, e := range m.Entries {
		if Equals(e.Key, key) {
			return e.Val, true
		}
	}
	return Nil(), false
}

// Assoc returns a copy of the map with key set to val, preserving the
// position of an existing key.
func (m *MapValue) Assoc(key, val Value) *MapValue {
	out := &MapValue{Entries: make([]MapEntry, len(m.Entries))}
	copy(out.Entries, m.Entries)
	for i, e := range out.Entries {
		if Equals(e.Key, key) {
			out.Entries[i].Val = val
			return out
		}
	}
	out.Entries = append(out.Entries, MapEntry{Key: key, Val: val})
	return out
}

// Fn is a user-defined function: parameter patterns (symbols or destructuring
// vectors), an optional trailing rest parameter after &, body forms and the
// closure environment captured at definition time.
type Fn struct {
	Name   string
	Params []sexp.Form
	Rest   *sexp.Form
	Body   []sexp.Form
	Env    *Env
}

// Builtin is a function implemented in the host.
type Builtin struct {
	Name string
	Fn   func(rt *Runtime, args []Value) (Value, error)
}

// Constructors.

func Nil() Value                 { return Value{Kind: KindNil} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func IntValue(n int64) Value     { return Value{Kind: KindInt, Int: n} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func SymbolValue(s string) Value { return Value{Kind: KindSymbol, Str: s} }
func KeywordValue(s string) Value {
	return Value{Kind: KindKeyword, Str: s}
}
func ListValue(items ...Value) Value {
	return Value{Kind: KindList, Items: items}
}
func VectorValue(items ...Value) Value {
	return Value{Kind: KindVector, Items: items}
}
func MapVal(m *MapValue) Value   { return Value{Kind: KindMap, Map: m} }
func FnValue(f *Fn) Value        { return Value{Kind: KindFn, Fn: f} }
func BuiltinValue(b *Builtin) Value {
	return Value{Kind: KindBuiltin, Builtin: b}
}

// Truthy reports Clojure truthiness: everything except nil and false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindBool:
		return v.Bool
	default:
		return true
	}
}

// IsSeq reports whether the value is a sequential collection (list or vector).
func (v Value) IsSeq() bool {
	return v.Kind == KindList || v.Kind == KindVector
}

// Seq returns the elements of a sequential value. nil yields an empty seq.
func (v Value) Seq() ([]Value, bool) {
	switch v.Kind {
	case KindList, KindVector:
		return v.Items, true
	case KindNil:
		return nil, true
	default:
		return nil, false
	}
}

// Equals compares values structurally. Lists and vectors with equal elements
// are equal to each other, matching Clojure's sequential equality.
func Equals(a, b Value) bool {
	if a.IsSeq() && b.IsSeq() {
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equals(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindString, KindSymbol, KindKeyword:
		return a.Str == b.Str
	case KindMap:
		if len(a.Map.Entries) != len(b.Map.Entries) {
			return false
		}
		for _, e := range a.Map.Entries {
			got, ok := b.Map.Get(e.Key)
			if !ok || !Equals(e.Val, got) {
				return false
			}
		}
		return true
	case KindFn:
		return a.Fn == b.Fn
	case KindBuiltin:
		return a.Builtin == b.Builtin
	default:
		return false
	}
}

// String renders the value in readable (pr-str) notation.
func (v Value) String() string {
	var sb strings.Builder
	printValue(&sb, v, true)
	return sb.String()
}

// Display renders the value for human output (str notation): strings appear
// without quotes, everything else prints as String.
func (v Value) Display() string {
	var sb strings.Builder
	printValue(&sb, v, false)
	return sb.String()
}

func printValue(sb *strings.Builder, v Value, readable bool) {
	switch v.Kind {
	case KindNil:
		sb.WriteString("nil")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		s := strconv.FormatFloat(v.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		sb.WriteString(s)
	case KindString:
		if readable {
			sb.WriteString(strconv.Quote(v.Str))
		} else {
			sb.WriteString(v.Str)
		}
	case KindSymbol:
		sb.WriteString(v.Str)
	case KindKeyword:
		sb.WriteByte(':')
		sb.WriteString(v.Str)
	case KindList:
		printItems(sb, v.Items, "(", ")", readable)
	case KindVector:
		printItems(sb, v.Items, "[", "]", readable)
	case KindMap:
		sb.WriteByte('{')
		for i, e := range v.Map.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			printValue(sb, e.Key, readable)
			sb.WriteByte(' ')
			printValue(sb, e.Val, readable)
		}
		sb.WriteByte('}')
	case KindFn:
		if v.Fn.Name != "" {
			sb.WriteString("#<fn " + v.Fn.Name + ">")
		} else {
			sb.WriteString("#<fn>")
		}
	case KindBuiltin:
		sb.WriteString("#<builtin " + v.Builtin.Name + ">")
	default:
		sb.WriteString("#<unprintable>")
	}
}

func printItems(sb *strings.Builder, items []Value, open, closer string, readable bool) {
	sb.WriteString(open)
	for i, it := range items {
		if i > 0 {
			sb.WriteByte(' ')
		}
		printValue(sb, it, readable)
	}
	sb.WriteString(closer)
}
