package interp

import (
	"fmt"

	"github.com/replforge/shadowlet/pkg/token"
)

// EvalError is a runtime evaluation failure with an optional source position.
type EvalError struct {
	Pos token.Position
	Msg string
}

func (e *EvalError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}

func errf(pos token.Position, format string, args ...any) *EvalError {
	return &EvalError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
