package sexp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/replforge/shadowlet/pkg/token"
)

// Lexer tokenizes s-expression source text.
type Lexer struct {
	src    []rune
	file   string
	pos    int // offset into src
	line   int
	column int
}

// NewLexer creates a lexer for src. The file name and starting line are
// carried into every token position so callers evaluating a fragment of a
// larger buffer report positions relative to the original file.
func NewLexer(src, file string, startLine int) *Lexer {
	if startLine < 1 {
		startLine = 1
	}
	return &Lexer{
		src:    []rune(src),
		file:   file,
		line:   startLine,
		column: 1,
	}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) here() token.Position {
	return token.Position{File: l.file, Line: l.line, Column: l.column, Offset: l.pos}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		r := l.peek()
		// Commas are whitespace, as in Clojure.
		if unicode.IsSpace(r) || r == ',' {
			l.advance()
			continue
		}
		break
	}
}

// isSymbolRune reports whether r may appear inside a symbol or keyword.
func isSymbolRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("+-*/!?<>=_.&%$#", r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Next returns the next token. Comments are returned as Comment tokens; the
// reader skips them. At end of input an EOF token is returned.
func (l *Lexer) Next() token.Token {
	l.skipWhitespace()

	start := l.here()
	if l.pos >= len(l.src) {
		return token.Token{Type: token.EOF, Span: token.Span{Start: start, End: start}}
	}

	r := l.peek()
	switch {
	case r == '(':
		l.advance()
		return l.emit(token.LeftParen, "(", start)
	case r == ')':
		l.advance()
		return l.emit(token.RightParen, ")", start)
	case r == '[':
		l.advance()
		return l.emit(token.LeftBracket, "[", start)
	case r == ']':
		l.advance()
		return l.emit(token.RightBracket, "]", start)
	case r == '{':
		l.advance()
		return l.emit(token.LeftBrace, "{", start)
	case r == '}':
		l.advance()
		return l.emit(token.RightBrace, "}", start)
	case r == '\'':
		l.advance()
		return l.emit(token.Quote, "'", start)
	case r == ';':
		var sb strings.Builder
		for l.pos < len(l.src) && l.peek() != '\n' {
			sb.WriteRune(l.advance())
		}
		return l.emit(token.Comment, sb.String(), start)
	case r == '"':
		return l.lexString(start)
	case isDigit(r), r == '-' && isDigit(l.peekAt(1)):
		return l.lexNumber(start)
	case r == ':':
		l.advance()
		var sb strings.Builder
		for l.pos < len(l.src) && isSymbolRune(l.peek()) {
			sb.WriteRune(l.advance())
		}
		if sb.Len() == 0 {
			return l.emit(token.Illegal, ":", start)
		}
		return l.emit(token.Keyword, sb.String(), start)
	case isSymbolRune(r):
		var sb strings.Builder
		for l.pos < len(l.src) && isSymbolRune(l.peek()) {
			sb.WriteRune(l.advance())
		}
		return l.emit(token.Symbol, sb.String(), start)
	default:
		l.advance()
		return l.emit(token.Illegal, string(r), start)
	}
}

func (l *Lexer) emit(t token.Type, text string, start token.Position) token.Token {
	return token.Token{
		Type: t,
		Text: text,
		Span: token.Span{Start: start, End: l.here()},
	}
}

func (l *Lexer) lexString(start token.Position) token.Token {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return l.emit(token.Illegal, sb.String(), start)
		}
		r := l.advance()
		if r == '"' {
			return l.emit(token.String, sb.String(), start)
		}
		if r == '\\' {
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
	}
}

func (l *Lexer) lexNumber(start token.Position) token.Token {
	var sb strings.Builder
	if l.peek() == '-' {
		sb.WriteRune(l.advance())
	}
	isFloat := false
	for l.pos < len(l.src) {
		r := l.peek()
		if isDigit(r) {
			sb.WriteRune(l.advance())
			continue
		}
		if r == '.' && !isFloat && isDigit(l.peekAt(1)) {
			isFloat = true
			sb.WriteRune(l.advance())
			continue
		}
		if (r == 'e' || r == 'E') && (isDigit(l.peekAt(1)) || ((l.peekAt(1) == '+' || l.peekAt(1) == '-') && isDigit(l.peekAt(2)))) {
			isFloat = true
			sb.WriteRune(l.advance())
			if l.peek() == '+' || l.peek() == '-' {
				sb.WriteRune(l.advance())
			}
			continue
		}
		break
	}
	// A number immediately followed by symbol characters is malformed.
	if l.pos < len(l.src) && isSymbolRune(l.peek()) {
		for l.pos < len(l.src) && isSymbolRune(l.peek()) {
			sb.WriteRune(l.advance())
		}
		return l.emit(token.Illegal, sb.String(), start)
	}
	if isFloat {
		return l.emit(token.Float, sb.String(), start)
	}
	return l.emit(token.Int, sb.String(), start)
}

// Tokenize runs the lexer to EOF, returning all tokens including the final
// EOF token. Comment tokens are included.
func Tokenize(src, file string, startLine int) []token.Token {
	l := NewLexer(src, file, startLine)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

// Balanced reports whether every collection delimiter opened in src has been
// closed. It is used by the REPL to decide whether to keep reading lines.
// An excess of closing delimiters reports true; the reader surfaces the error.
func Balanced(src string) bool {
	l := NewLexer(src, "", 1)
	depth := 0
	for {
		tok := l.Next()
		if tok.IsDelimiter() {
			switch tok.Type {
			case token.LeftParen, token.LeftBracket, token.LeftBrace:
				depth++
			default:
				depth--
			}
			continue
		}
		switch tok.Type {
		case token.EOF:
			return depth <= 0
		case token.Illegal:
			// Unterminated string: report balanced so the reader can
			// produce a proper error instead of the REPL waiting forever.
			if l.pos >= len(l.src) {
				return true
			}
		}
	}
}

// ReadError describes a failure to read a form, with its source position.
type ReadError struct {
	Pos token.Position
	Msg string
}

func (e *ReadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("read error at %s: %s", e.Pos, e.Msg)
	}
	return "read error: " + e.Msg
}

func readErrorf(pos token.Position, format string, args ...any) *ReadError {
	return &ReadError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
