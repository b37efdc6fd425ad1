package interp

import (
	"fmt"
	"strings"
)

func arity(name string, args []Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s expects %d arguments, got %d", name, n, len(args))
	}
	return nil
}

func arityBetween(name string, args []Value, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		return fmt.Errorf("%s expects %d to %d arguments, got %d", name, lo, hi, len(args))
	}
	return nil
}

func asNumber(name string, v Value) (float64, bool, error) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true, nil
	case KindFloat:
		return v.Float, false, nil
	default:
		return 0, false, fmt.Errorf("%s expects a number, got %s", name, v.Kind)
	}
}

// numericResult folds ints back to IntValue when every operand was an int.
func numericResult(f float64, allInt bool) Value {
	if allInt {
		return IntValue(int64(f))
	}
	return FloatValue(f)
}

func registerCoreBuiltins(rt *Runtime) {
	rt.defineBuiltin("+", func(_ *Runtime, args []Value) (Value, error) {
		sum, allInt := 0.0, true
		for _, a := range args {
			n, isInt, err := asNumber("+", a)
			if err != nil {
				return Nil(), err
			}
			allInt = allInt && isInt
			sum += n
		}
		return numericResult(sum, allInt), nil
	})

	rt.defineBuiltin("-", func(_ *Runtime, args []Value) (Value, error) {
		if len(args) == 0 {
			return Nil(), fmt.Errorf("- expects at least 1 argument")
		}
		acc, allInt, err := asNumber("-", args[0])
		if err != nil {
			return Nil(), err
		}
		if len(args) == 1 {
			return numericResult(-acc, allInt), nil
		}
		for _, a := range args[1:] {
			n, isInt, err := asNumber("-", a)
			if err != nil {
				return Nil(), err
			}
			allInt = allInt && isInt
			acc -= n
		}
		return numericResult(acc, allInt), nil
	})

	rt.defineBuiltin("*", func(_ *Runtime, args []Value) (Value, error) {
		prod, allInt := 1.0, true
		for _, a := range args {
			n, isInt, err := asNumber("*", a)
			if err != nil {
				return Nil(), err
			}
			allInt = allInt && isInt
			prod *= n
		}
		return numericResult(prod, allInt), nil
	})

	rt.defineBuiltin("/", func(_ *Runtime, args []Value) (Value, error) {
		if len(args) == 0 {
			return Nil(), fmt.Errorf("/ expects at least 1 argument")
		}
		acc, allInt, err := asNumber("/", args[0])
		if err != nil {
			return Nil(), err
		}
		rest := args[1:]
		if len(args) == 1 {
			acc, rest = 1, args // (/ x) is 1/x
			allInt = true
		}
		for _, a := range rest {
			n, isInt, err := asNumber("/", a)
			if err != nil {
				return Nil(), err
			}
			if n == 0 {
				return Nil(), fmt.Errorf("divide by zero")
			}
			allInt = allInt && isInt
			acc /= n
		}
		// Integer division only when it stays exact; 5/2 falls to float.
		if allInt && acc == float64(int64(acc)) {
			return IntValue(int64(acc)), nil
		}
		return FloatValue(acc), nil
	})

	rt.defineBuiltin("mod", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("mod", args, 2); err != nil {
			return Nil(), err
		}
		if args[0].Kind != KindInt || args[1].Kind != KindInt {
			return Nil(), fmt.Errorf("mod expects integers")
		}
		if args[1].Int == 0 {
			return Nil(), fmt.Errorf("divide by zero")
		}
		m := args[0].Int % args[1].Int
		// Clojure mod follows the sign of the divisor.
		if m != 0 && (m < 0) != (args[1].Int < 0) {
			m += args[1].Int
		}
		return IntValue(m), nil
	})

	rt.defineBuiltin("inc", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("inc", args, 1); err != nil {
			return Nil(), err
		}
		n, isInt, err := asNumber("inc", args[0])
		if err != nil {
			return Nil(), err
		}
		return numericResult(n+1, isInt), nil
	})

	rt.defineBuiltin("dec", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("dec", args, 1); err != nil {
			return Nil(), err
		}
		n, isInt, err := asNumber("dec", args[0])
		if err != nil {
			return Nil(), err
		}
		return numericResult(n-1, isInt), nil
	})

	rt.defineBuiltin("abs", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("abs", args, 1); err != nil {
			return Nil(), err
		}
		n, isInt, err := asNumber("abs", args[0])
		if err != nil {
			return Nil(), err
		}
		if n < 0 {
			n = -n
		}
		return numericResult(n, isInt), nil
	})

	rt.defineBuiltin("min", builtinMinMax("min", func(a, b float64) bool { return b < a }))
	rt.defineBuiltin("max", builtinMinMax("max", func(a, b float64) bool { return b > a }))

	rt.defineBuiltin("=", func(_ *Runtime, args []Value) (Value, error) {
		if len(args) < 2 {
			return Nil(), fmt.Errorf("= expects at least 2 arguments")
		}
		for _, a := range args[1:] {
			if !Equals(args[0], a) {
				return BoolValue(false), nil
			}
		}
		return BoolValue(true), nil
	})

	rt.defineBuiltin("not=", func(_ *Runtime, args []Value) (Value, error) {
		if len(args) < 2 {
			return Nil(), fmt.Errorf("not= expects at least 2 arguments")
		}
		for _, a := range args[1:] {
			if !Equals(args[0], a) {
				return BoolValue(true), nil
			}
		}
		return BoolValue(false), nil
	})

	rt.defineBuiltin("<", builtinCompare("<", func(a, b float64) bool { return a < b }))
	rt.defineBuiltin("<=", builtinCompare("<=", func(a, b float64) bool { return a <= b }))
	rt.defineBuiltin(">", builtinCompare(">", func(a, b float64) bool { return a > b }))
	rt.defineBuiltin(">=", builtinCompare(">=", func(a, b float64) bool { return a >= b }))

	rt.defineBuiltin("not", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("not", args, 1); err != nil {
			return Nil(), err
		}
		return BoolValue(!args[0].Truthy()), nil
	})

	rt.defineBuiltin("even?", builtinParity("even?", 0))
	rt.defineBuiltin("odd?", builtinParity("odd?", 1))

	rt.defineBuiltin("nil?", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("nil?", args, 1); err != nil {
			return Nil(), err
		}
		return BoolValue(args[0].Kind == KindNil), nil
	})

	rt.defineBuiltin("empty?", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("empty?", args, 1); err != nil {
			return Nil(), err
		}
		switch args[0].Kind {
		case KindNil:
			return BoolValue(true), nil
		case KindList, KindVector:
			return BoolValue(len(args[0].Items) == 0), nil
		case KindMap:
			return BoolValue(len(args[0].Map.Entries) == 0), nil
		case KindString:
			return BoolValue(args[0].Str == ""), nil
		default:
			return Nil(), fmt.Errorf("empty? expects a collection, got %s", args[0].Kind)
		}
	})

	rt.defineBuiltin("type", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("type", args, 1); err != nil {
			return Nil(), err
		}
		return KeywordValue(args[0].Kind.String()), nil
	})

	rt.defineBuiltin("str", func(_ *Runtime, args []Value) (Value, error) {
		var sb strings.Builder
		for _, a := range args {
			if a.Kind != KindNil {
				sb.WriteString(a.Display())
			}
		}
		return StringValue(sb.String()), nil
	})

	rt.defineBuiltin("pr-str", func(_ *Runtime, args []Value) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		return StringValue(strings.Join(parts, " ")), nil
	})

	rt.defineBuiltin("println", func(rt *Runtime, args []Value) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.Display()
		}
		if _, err := fmt.Fprintln(rt.stdout, strings.Join(parts, " ")); err != nil {
			return Nil(), err
		}
		return Nil(), nil
	})
}

func builtinCompare(name string, cmp func(a, b float64) bool) func(*Runtime, []Value) (Value, error) {
	return func(_ *Runtime, args []Value) (Value, error) {
		if len(args) < 2 {
			return Nil(), fmt.Errorf("%s expects at least 2 arguments", name)
		}
		prev, _, err := asNumber(name, args[0])
		if err != nil {
			return Nil(), err
		}
		for _, a := range args[1:] {
			n, _, err := asNumber(name, a)
			if err != nil {
				return Nil(), err
			}
			if !cmp(prev, n) {
				return BoolValue(false), nil
			}
			prev = n
		}
		return BoolValue(true), nil
	}
}

func builtinMinMax(name string, better func(best, candidate float64) bool) func(*Runtime, []Value) (Value, error) {
	return func(_ *Runtime, args []Value) (Value, error) {
		if len(args) == 0 {
			return Nil(), fmt.Errorf("%s expects at least 1 argument", name)
		}
		best := args[0]
		bestN, _, err := asNumber(name, best)
		if err != nil {
			return Nil(), err
		}
		for _, a := range args[1:] {
			n, _, err := asNumber(name, a)
			if err != nil {
				return Nil(), err
			}
			if better(bestN, n) {
				best, bestN = a, n
			}
		}
		return best, nil
	}
}

func builtinParity(name string, want int64) func(*Runtime, []Value) (Value, error) {
	return func(_ *Runtime, args []Value) (Value, error) {
		if err := arity(name, args, 1); err != nil {
			return Nil(), err
		}
		if args[0].Kind != KindInt {
			return Nil(), fmt.Errorf("%s expects an integer, got %s", name, args[0].Kind)
		}
		m := args[0].Int % 2
		if m < 0 {
			m += 2
		}
		return BoolValue(m == want), nil
	}
}
