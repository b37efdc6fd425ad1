package interp

import "fmt"

func asSeq(name string, v Value) ([]Value, error) {
	items, ok := v.Seq()
	if !ok {
		return nil, fmt.Errorf("%s expects a sequential collection, got %s", name, v.Kind)
	}
	return items, nil
}

func registerSeqBuiltins(rt *Runtime) {
	rt.defineBuiltin("range", func(_ *Runtime, args []Value) (Value, error) {
		if err := arityBetween("range", args, 1, 3); err != nil {
			return Nil(), err
		}
		for _, a := range args {
			if a.Kind != KindInt {
				return Nil(), fmt.Errorf("range expects integers, got %s", a.Kind)
			}
		}
		start, end, step := int64(0), int64(0), int64(1)
		switch len(args) {
		case 1:
			end = args[0].Int
		case 2:
			start, end = args[0].Int, args[1].Int
		case 3:
			start, end, step = args[0].Int, args[1].Int, args[2].Int
		}
		if step == 0 {
			return Nil(), fmt.Errorf("range step must not be zero")
		}
		var items []Value
		if step > 0 {
			for i := start; i < end; i += step {
				items = append(items, IntValue(i))
			}
		} else {
			for i := start; i > end; i += step {
				items = append(items, IntValue(i))
			}
		}
		return ListValue(items...), nil
	})

	rt.defineBuiltin("map", func(rt *Runtime, args []Value) (Value, error) {
		if len(args) < 2 {
			return Nil(), fmt.Errorf("map expects a function and at least one collection")
		}
		seqs := make([][]Value, len(args)-1)
		shortest := -1
		for i, a := range args[1:] {
			items, err := asSeq("map", a)
			if err != nil {
				return Nil(), err
			}
			seqs[i] = items
			if shortest < 0 || len(items) < shortest {
				shortest = len(items)
			}
		}
		out := make([]Value, 0, shortest)
		for i := 0; i < shortest; i++ {
			callArgs := make([]Value, len(seqs))
			for j := range seqs {
				callArgs[j] = seqs[j][i]
			}
			v, err := rt.Apply(args[0], callArgs)
			if err != nil {
				return Nil(), err
			}
			out = append(out, v)
		}
		return ListValue(out...), nil
	})

	rt.defineBuiltin("filter", func(rt *Runtime, args []Value) (Value, error) {
		if err := arity("filter", args, 2); err != nil {
			return Nil(), err
		}
		items, err := asSeq("filter", args[1])
		if err != nil {
			return Nil(), err
		}
		var out []Value
		for _, it := range items {
			keep, err := rt.Apply(args[0], []Value{it})
			if err != nil {
				return Nil(), err
			}
			if keep.Truthy() {
				out = append(out, it)
			}
		}
		return ListValue(out...), nil
	})

	rt.defineBuiltin("reduce", func(rt *Runtime, args []Value) (Value, error) {
		if err := arityBetween("reduce", args, 2, 3); err != nil {
			return Nil(), err
		}
		coll := args[len(args)-1]
		items, err := asSeq("reduce", coll)
		if err != nil {
			return Nil(), err
		}
		var acc Value
		if len(args) == 3 {
			acc = args[1]
		} else {
			if len(items) == 0 {
				return rt.Apply(args[0], nil)
			}
			acc = items[0]
			items = items[1:]
		}
		for _, it := range items {
			acc, err = rt.Apply(args[0], []Value{acc, it})
			if err != nil {
				return Nil(), err
			}
		}
		return acc, nil
	})

	rt.defineBuiltin("partition", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("partition", args, 2); err != nil {
			return Nil(), err
		}
		if args[0].Kind != KindInt || args[0].Int <= 0 {
			return Nil(), fmt.Errorf("partition expects a positive integer size")
		}
		items, err := asSeq("partition", args[1])
		if err != nil {
			return Nil(), err
		}
		n := int(args[0].Int)
		var out []Value
		// Incomplete trailing groups are dropped, as in Clojure.
		for i := 0; i+n <= len(items); i += n {
			group := make([]Value, n)
			copy(group, items[i:i+n])
			out = append(out, ListValue(group...))
		}
		return ListValue(out...), nil
	})

	rt.defineBuiltin("take", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("take", args, 2); err != nil {
			return Nil(), err
		}
		if args[0].Kind != KindInt {
			return Nil(), fmt.Errorf("take expects an integer count")
		}
		items, err := asSeq("take", args[1])
		if err != nil {
			return Nil(), err
		}
		n := int(args[0].Int)
		if n < 0 {
			n = 0
		}
		if n > len(items) {
			n = len(items)
		}
		return ListValue(items[:n]...), nil
	})

	rt.defineBuiltin("drop", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("drop", args, 2); err != nil {
			return Nil(), err
		}
		if args[0].Kind != KindInt {
			return Nil(), fmt.Errorf("drop expects an integer count")
		}
		items, err := asSeq("drop", args[1])
		if err != nil {
			return Nil(), err
		}
		n := int(args[0].Int)
		if n < 0 {
			n = 0
		}
		if n > len(items) {
			n = len(items)
		}
		return ListValue(items[n:]...), nil
	})

	rt.defineBuiltin("first", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("first", args, 1); err != nil {
			return Nil(), err
		}
		items, err := asSeq("first", args[0])
		if err != nil {
			return Nil(), err
		}
		if len(items) == 0 {
			return Nil(), nil
		}
		return items[0], nil
	})

	rt.defineBuiltin("rest", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("rest", args, 1); err != nil {
			return Nil(), err
		}
		items, err := asSeq("rest", args[0])
		if err != nil {
			return Nil(), err
		}
		if len(items) == 0 {
			return ListValue(), nil
		}
		return ListValue(items[1:]...), nil
	})

	rt.defineBuiltin("cons", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("cons", args, 2); err != nil {
			return Nil(), err
		}
		items, err := asSeq("cons", args[1])
		if err != nil {
			return Nil(), err
		}
		out := make([]Value, 0, len(items)+1)
		out = append(out, args[0])
		out = append(out, items...)
		return ListValue(out...), nil
	})

	rt.defineBuiltin("conj", func(_ *Runtime, args []Value) (Value, error) {
		if len(args) < 2 {
			return Nil(), fmt.Errorf("conj expects a collection and at least one value")
		}
		coll := args[0]
		switch coll.Kind {
		case KindNil:
			coll = ListValue()
			fallthrough
		case KindList:
			// Lists grow at the front.
			out := make([]Value, 0, len(coll.Items)+len(args)-1)
			for i := len(args) - 1; i >= 1; i-- {
				out = append(out, args[i])
			}
			out = append(out, coll.Items...)
			return ListValue(out...), nil
		case KindVector:
			out := make([]Value, 0, len(coll.Items)+len(args)-1)
			out = append(out, coll.Items...)
			out = append(out, args[1:]...)
			return VectorValue(out...), nil
		default:
			return Nil(), fmt.Errorf("conj expects a list or vector, got %s", coll.Kind)
		}
	})

	rt.defineBuiltin("nth", func(_ *Runtime, args []Value) (Value, error) {
		if err := arityBetween("nth", args, 2, 3); err != nil {
			return Nil(), err
		}
		items, err := asSeq("nth", args[0])
		if err != nil {
			return Nil(), err
		}
		if args[1].Kind != KindInt {
			return Nil(), fmt.Errorf("nth expects an integer index")
		}
		i := int(args[1].Int)
		if i < 0 || i >= len(items) {
			if len(args) == 3 {
				return args[2], nil
			}
			return Nil(), fmt.Errorf("index %d out of bounds for length %d", i, len(items))
		}
		return items[i], nil
	})

	rt.defineBuiltin("count", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("count", args, 1); err != nil {
			return Nil(), err
		}
		switch args[0].Kind {
		case KindNil:
			return IntValue(0), nil
		case KindList, KindVector:
			return IntValue(int64(len(args[0].Items))), nil
		case KindMap:
			return IntValue(int64(len(args[0].Map.Entries))), nil
		case KindString:
			return IntValue(int64(len([]rune(args[0].Str)))), nil
		default:
			return Nil(), fmt.Errorf("count expects a collection, got %s", args[0].Kind)
		}
	})

	rt.defineBuiltin("reverse", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("reverse", args, 1); err != nil {
			return Nil(), err
		}
		items, err := asSeq("reverse", args[0])
		if err != nil {
			return Nil(), err
		}
		out := make([]Value, len(items))
		for i, it := range items {
			out[len(items)-1-i] = it
		}
		return ListValue(out...), nil
	})

	rt.defineBuiltin("apply", func(rt *Runtime, args []Value) (Value, error) {
		if len(args) < 2 {
			return Nil(), fmt.Errorf("apply expects a function and a collection")
		}
		tail, err := asSeq("apply", args[len(args)-1])
		if err != nil {
			return Nil(), err
		}
		callArgs := make([]Value, 0, len(args)-2+len(tail))
		callArgs = append(callArgs, args[1:len(args)-1]...)
		callArgs = append(callArgs, tail...)
		return rt.Apply(args[0], callArgs)
	})

	rt.defineBuiltin("get", func(_ *Runtime, args []Value) (Value, error) {
		if err := arityBetween("get", args, 2, 3); err != nil {
			return Nil(), err
		}
		missing := Nil()
		if len(args) == 3 {
			missing = args[2]
		}
		switch args[0].Kind {
		case KindMap:
			if v, ok := args[0].Map.Get(args[1]); ok {
				return v, nil
			}
		case KindVector, KindList:
			if args[1].Kind == KindInt {
				i := int(args[1].Int)
				if i >= 0 && i < len(args[0].Items) {
					return args[0].Items[i], nil
				}
			}
		case KindNil:
		default:
			return Nil(), fmt.Errorf("get expects a map or sequential collection, got %s", args[0].Kind)
		}
		return missing, nil
	})

	rt.defineBuiltin("assoc", func(_ *Runtime, args []Value) (Value, error) {
		if len(args) < 3 || len(args)%2 == 0 {
			return Nil(), fmt.Errorf("assoc expects a map and key/value pairs")
		}
		var m *MapValue
		switch args[0].Kind {
		case KindNil:
			m = &MapValue{}
		case KindMap:
			m = args[0].Map
		default:
			return Nil(), fmt.Errorf("assoc expects a map, got %s", args[0].Kind)
		}
		for i := 1; i+1 < len(args); i += 2 {
			m = m.Assoc(args[i], args[i+1])
		}
		return MapVal(m), nil
	})

	rt.defineBuiltin("keys", builtinMapSide("keys", func(e MapEntry) Value { return e.Key }))
	rt.defineBuiltin("vals", builtinMapSide("vals", func(e MapEntry) Value { return e.Val }))

	rt.defineBuiltin("contains?", func(_ *Runtime, args []Value) (Value, error) {
		if err := arity("contains?", args, 2); err != nil {
			return Nil(), err
		}
		switch args[0].Kind {
		case KindMap:
			_, ok := args[0].Map.Get(args[1])
			return BoolValue(ok), nil
		case KindVector:
			if args[1].Kind != KindInt {
				return BoolValue(false), nil
			}
			i := args[1].Int
			return BoolValue(i >= 0 && i < int64(len(args[0].Items))), nil
		case KindNil:
			return BoolValue(false), nil
		default:
			return Nil(), fmt.Errorf("contains? expects a map or vector, got %s", args[0].Kind)
		}
	})
}

func builtinMapSide(name string, pick func(MapEntry) Value) func(*Runtime, []Value) (Value, error) {
	return func(_ *Runtime, args []Value) (Value, error) {
		if err := arity(name, args, 1); err != nil {
			return Nil(), err
		}
		if args[0].Kind == KindNil {
			return ListValue(), nil
		}
		if args[0].Kind != KindMap {
			return Nil(), fmt.Errorf("%s expects a map, got %s", name, args[0].Kind)
		}
		out := make([]Value, len(args[0].Map.Entries))
		for i, e := range args[0].Map.Entries {
			out[i] = pick(e)
		}
		return ListValue(out...), nil
	}
}
