package sexp

import (
	"strconv"

	"github.com/replforge/shadowlet/pkg/token"
)

// Reader turns a token stream into forms.
type Reader struct {
	lexer   *Lexer
	current token.Token
}

// NewReader creates a reader over src. The file and startLine seed every
// position, so a fragment lifted from the middle of a buffer reports
// positions relative to the original file.
func NewReader(src, file string, startLine int) *Reader {
	r := &Reader{lexer: NewLexer(src, file, startLine)}
	r.next()
	return r
}

func (r *Reader) next() {
	for {
		r.current = r.lexer.Next()
		if r.current.Type != token.Comment {
			return
		}
	}
}

// Read reads the next form. At end of input it returns (Form{}, false, nil).
func (r *Reader) Read() (Form, bool, error) {
	if r.current.Type == token.EOF {
		return Form{}, false, nil
	}
	f, err := r.readForm()
	if err != nil {
		return Form{}, false, err
	}
	return f, true, nil
}

func (r *Reader) readForm() (Form, error) {
	tok := r.current
	switch tok.Type {
	case token.EOF:
		return Form{}, readErrorf(tok.Pos(), "unexpected end of input")

	case token.Illegal:
		return Form{}, readErrorf(tok.Pos(), "unexpected %q", tok.Text)

	case token.Int:
		r.next()
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return Form{}, readErrorf(tok.Pos(), "invalid integer %q", tok.Text)
		}
		return withPos(IntForm(n), tok.Pos()), nil

	case token.Float:
		r.next()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return Form{}, readErrorf(tok.Pos(), "invalid number %q", tok.Text)
		}
		return withPos(FloatForm(f), tok.Pos()), nil

	case token.String:
		r.next()
		return withPos(StringForm(tok.Text), tok.Pos()), nil

	case token.Keyword:
		r.next()
		return withPos(KeywordForm(tok.Text), tok.Pos()), nil

	case token.Symbol:
		r.next()
		switch tok.Text {
		case "nil":
			return withPos(NilForm(), tok.Pos()), nil
		case "true":
			return withPos(BoolForm(true), tok.Pos()), nil
		case "false":
			return withPos(BoolForm(false), tok.Pos()), nil
		}
		return withPos(SymbolForm(tok.Text), tok.Pos()), nil

	case token.Quote:
		r.next()
		quoted, err := r.readForm()
		if err != nil {
			return Form{}, err
		}
		return withPos(ListForm(SymbolForm("quote"), quoted), tok.Pos()), nil

	case token.LeftParen:
		return r.readDelimited(KindList, token.RightParen, tok.Pos())
	case token.LeftBracket:
		return r.readDelimited(KindVector, token.RightBracket, tok.Pos())
	case token.LeftBrace:
		f, err := r.readDelimited(KindMap, token.RightBrace, tok.Pos())
		if err != nil {
			return Form{}, err
		}
		if len(f.Children)%2 != 0 {
			return Form{}, readErrorf(tok.Pos(), "map literal requires an even number of forms")
		}
		return f, nil

	case token.RightParen, token.RightBracket, token.RightBrace:
		return Form{}, readErrorf(tok.Pos(), "unmatched %s", tok.Type)

	default:
		return Form{}, readErrorf(tok.Pos(), "unexpected token %s", tok.Type)
	}
}

func (r *Reader) readDelimited(kind Kind, closer token.Type, open token.Position) (Form, error) {
	r.next() // consume opener
	var children []Form
	for {
		switch r.current.Type {
		case token.EOF:
			return Form{}, readErrorf(open, "unclosed %s", kind)
		case closer:
			r.next()
			return Form{Kind: kind, Children: children, Pos: open}, nil
		default:
			child, err := r.readForm()
			if err != nil {
				return Form{}, err
			}
			children = append(children, child)
		}
	}
}

func withPos(f Form, pos token.Position) Form {
	f.Pos = pos
	return f
}

// ReadString reads every form in src. The file and startLine seed positions,
// matching the location metadata of an evaluation request.
func ReadString(src, file string, startLine int) ([]Form, error) {
	r := NewReader(src, file, startLine)
	var forms []Form
	for {
		f, ok, err := r.Read()
		if err != nil {
			return nil, err
		}
		if !ok {
			return forms, nil
		}
		forms = append(forms, f)
	}
}

// ReadOne reads exactly one form from src and rejects trailing forms.
func ReadOne(src, file string, startLine int) (Form, error) {
	r := NewReader(src, file, startLine)
	f, ok, err := r.Read()
	if err != nil {
		return Form{}, err
	}
	if !ok {
		return Form{}, readErrorf(token.Position{File: file, Line: startLine, Column: 1}, "no form in input")
	}
	if _, more, err := r.Read(); err != nil {
		return Form{}, err
	} else if more {
		return Form{}, readErrorf(f.Pos, "expected a single form")
	}
	return f, nil
}
