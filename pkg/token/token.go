// Package token defines the lexical tokens of the shadowlet expression
// language, a Clojure-flavored s-expression syntax, together with source
// positions used for error reporting throughout the reader and evaluator.
package token

import "fmt"

// Type identifies the kind of a lexical token.
type Type int

// Token types.
const (
	Illegal Type = iota
	EOF

	LeftParen    // (
	RightParen   // )
	LeftBracket  // [
	RightBracket // ]
	LeftBrace    // {
	RightBrace   // }
	Quote        // '

	Symbol  // foo, my.ns/inc
	Keyword // :name
	Int     // 42
	Float   // 3.14
	String  // "text"

	Comment // ; to end of line
)

var typeNames = map[Type]string{
	Illegal:      "ILLEGAL",
	EOF:          "EOF",
	LeftParen:    "(",
	RightParen:   ")",
	LeftBracket:  "[",
	RightBracket: "]",
	LeftBrace:    "{",
	RightBrace:   "}",
	Quote:        "'",
	Symbol:       "SYMBOL",
	Keyword:      "KEYWORD",
	Int:          "INT",
	Float:        "FLOAT",
	String:       "STRING",
	Comment:      "COMMENT",
}

// String returns a human-readable name for the token type.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Token is a single lexical token with its source span.
// Text holds the literal text as it appeared in the input; for String tokens
// it is the unescaped contents without the surrounding quotes.
type Token struct {
	Type Type
	Text string
	Span Span
}

// Pos returns the start position of the token.
func (t Token) Pos() Position {
	return t.Span.Start
}

// IsDelimiter reports whether the token opens or closes a collection.
func (t Token) IsDelimiter() bool {
	switch t.Type {
	case LeftParen, RightParen, LeftBracket, RightBracket, LeftBrace, RightBrace:
		return true
	}
	return false
}
