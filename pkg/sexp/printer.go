package sexp

import (
	"strconv"
	"strings"
)

// Print renders a form in readable (pr-str) notation: strings are quoted,
// lists print as (a b), vectors as [a b], maps as {k v}.
func Print(f Form) string {
	var sb strings.Builder
	printForm(&sb, f)
	return sb.String()
}

func printForm(sb *strings.Builder, f Form) {
	switch f.Kind {
	case KindNil:
		sb.WriteString("nil")
	case KindBool:
		sb.WriteString(strconv.FormatBool(f.Bool))
	case KindInt:
		sb.WriteString(strconv.FormatInt(f.Int, 10))
	case KindFloat:
		sb.WriteString(formatFloat(f.Float))
	case KindString:
		sb.WriteString(strconv.Quote(f.Text))
	case KindSymbol:
		sb.WriteString(f.Text)
	case KindKeyword:
		sb.WriteByte(':')
		sb.WriteString(f.Text)
	case KindList:
		printSeq(sb, f.Children, "(", ")")
	case KindVector:
		printSeq(sb, f.Children, "[", "]")
	case KindMap:
		printSeq(sb, f.Children, "{", "}")
	default:
		sb.WriteString("#<unprintable>")
	}
}

func printSeq(sb *strings.Builder, children []Form, open, closer string) {
	sb.WriteString(open)
	for i, c := range children {
		if i > 0 {
			sb.WriteByte(' ')
		}
		printForm(sb, c)
	}
	sb.WriteString(closer)
}

// formatFloat renders a float the way the reader accepts it back, keeping a
// trailing ".0" on whole values so floats stay distinguishable from ints.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
