// Package sexp implements the reader and printer for the shadowlet expression
// language: Clojure-flavored s-expressions with lists, vectors, maps, symbols,
// keywords, strings, numbers and quote. Forms carry their source positions so
// downstream consumers can report errors against the original file.
package sexp

import "github.com/replforge/shadowlet/pkg/token"

// Kind identifies the kind of a read form.
type Kind int

// Form kinds.
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
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Form is a single read s-expression. Exactly one payload field is meaningful
// for a given Kind: Int for KindInt, Float for KindFloat, Text for
// KindString/KindSymbol/KindKeyword, Bool for KindBool, and Children for
// KindList/KindVector/KindMap (map children alternate key, value).
type Form struct {
	Kind     Kind
	Int      int64
	Float    float64
	Text     string
	Bool     bool
	Children []Form
	Pos      token.Position
}

// Constructors used by the reader and by tests.

func NilForm() Form            { return Form{Kind: KindNil} }
func BoolForm(b bool) Form     { return Form{Kind: KindBool, Bool: b} }
func IntForm(n int64) Form     { return Form{Kind: KindInt, Int: n} }
func FloatForm(f float64) Form { return Form{Kind: KindFloat, Float: f} }
func StringForm(s string) Form { return Form{Kind: KindString, Text: s} }
func SymbolForm(s string) Form { return Form{Kind: KindSymbol, Text: s} }
func KeywordForm(s string) Form {
	return Form{Kind: KindKeyword, Text: s}
}
func ListForm(children ...Form) Form {
	return Form{Kind: KindList, Children: children}
}
func VectorForm(children ...Form) Form {
	return Form{Kind: KindVector, Children: children}
}

// IsSymbol reports whether the form is the symbol named name.
func (f Form) IsSymbol(name string) bool {
	return f.Kind == KindSymbol && f.Text == name
}

// IsCall reports whether the form is a list whose head is the symbol named
// name, e.g. IsCall("def") for (def x 1).
func (f Form) IsCall(name string) bool {
	return f.Kind == KindList && len(f.Children) > 0 && f.Children[0].IsSymbol(name)
}

// Head returns the first child of a list form, or a nil form when the form is
// not a non-empty list.
func (f Form) Head() Form {
	if f.Kind == KindList && len(f.Children) > 0 {
		return f.Children[0]
	}
	return NilForm()
}
