package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replforge/shadowlet/pkg/sexp"
)

// mustRead parses src and returns its single form.
func mustRead(t *testing.T, src string) sexp.Form {
	t.Helper()
	f, err := sexp.ReadOne(src, "", 1)
	require.NoError(t, err)
	return f
}

// evalStr evaluates src in a fresh runtime and returns the printed result.
func evalStr(t *testing.T, src string) string {
	t.Helper()
	rt := NewRuntime()
	v, err := rt.EvalString(src, "", 1)
	require.NoError(t, err, "src: %s", src)
	return v.String()
}

func TestEval_Literals(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"42", "42"},
		{"-3.5", "-3.5"},
		{`"hi"`, `"hi"`},
		{":kw", ":kw"},
		{"nil", "nil"},
		{"true", "true"},
		{"[1 (+ 1 1) 3]", "[1 2 3]"},
		{"{:a (inc 0)}", "{:a 1}"},
		{"'(1 2 3)", "(1 2 3)"},
		{"'sym", "sym"},
		{"()", "()"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalStr(t, tt.src), "src: %s", tt.src)
	}
}

func TestEval_Arithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(+ 1 2 3)", "6"},
		{"(+)", "0"},
		{"(- 10 4 1)", "5"},
		{"(- 3)", "-3"},
		{"(* 2 3 4)", "24"},
		{"(/ 10 2)", "5"},
		{"(/ 5 2)", "2.5"},
		{"(/ 2)", "0.5"},
		{"(+ 1 2.0)", "3.0"},
		{"(mod 7 3)", "1"},
		{"(mod -7 3)", "2"},
		{"(inc 41)", "42"},
		{"(dec 1)", "0"},
		{"(min 3 1 2)", "1"},
		{"(max 3 1 2)", "3"},
		{"(abs -4)", "4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalStr(t, tt.src), "src: %s", tt.src)
	}
}

func TestEval_Comparisons(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(= 1 1)", "true"},
		{"(= 1 2)", "false"},
		{"(= [1 2] '(1 2))", "true"},
		{"(not= 1 2)", "true"},
		{"(< 1 2 3)", "true"},
		{"(< 1 3 2)", "false"},
		{"(<= 1 1 2)", "true"},
		{"(> 3 2 1)", "true"},
		{"(not nil)", "true"},
		{"(even? 4)", "true"},
		{"(odd? 4)", "false"},
		{"(nil? nil)", "true"},
		{"(empty? ())", "true"},
		{"(empty? [1])", "false"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalStr(t, tt.src), "src: %s", tt.src)
	}
}

func TestEval_SpecialForms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(if true 1 2)", "1"},
		{"(if false 1 2)", "2"},
		{"(if nil 1)", "nil"},
		{"(do 1 2 3)", "3"},
		{"(and 1 2 3)", "3"},
		{"(and 1 nil 3)", "nil"},
		{"(and)", "true"},
		{"(or nil false 2)", "2"},
		{"(or nil false)", "nil"},
		{"(when true 1 2)", "2"},
		{"(when false 1)", "nil"},
		{"(let [x 1 y (inc x)] (+ x y))", "3"},
		{"(let [[a b] [1 2]] (+ a b))", "3"},
		{"(let [[a & more] '(1 2 3)] more)", "(2 3)"},
		{"(let [[a b] [1]] b)", "nil"},
		{"(let [_ 1] 2)", "2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalStr(t, tt.src), "src: %s", tt.src)
	}
}

func TestEval_Functions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"((fn [x] (* x x)) 5)", "25"},
		{"((fn [x & rest] rest) 1 2 3)", "(2 3)"},
		{"(do (def x 10) (inc x))", "11"},
		{"(do (defn sq [n] (* n n)) (sq 9))", "81"},
		{"(do (defn add [a b] (+ a b)) (apply add [1 2]))", "3"},
		{"((fn [[a b]] (+ a b)) [3 4])", "7"},
		{"(:a {:a 1 :b 2})", "1"},
		{"(:missing {:a 1} 9)", "9"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalStr(t, tt.src), "src: %s", tt.src)
	}
}

func TestEval_Closures(t *testing.T) {
	src := `(do
	  (defn adder [n] (fn [x] (+ x n)))
	  (def add5 (adder 5))
	  (add5 37))`
	assert.Equal(t, "42", evalStr(t, src))
}

func TestEval_SeqBuiltins(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"(range 5)", "(0 1 2 3 4)"},
		{"(range 2 5)", "(2 3 4)"},
		{"(range 0 10 3)", "(0 3 6 9)"},
		{"(range 3 0 -1)", "(3 2 1)"},
		{"(map inc '(1 2 3))", "(2 3 4)"},
		{"(map + '(1 2) '(10 20))", "(11 22)"},
		{"(filter even? (range 10))", "(0 2 4 6 8)"},
		{"(reduce + (range 5))", "10"},
		{"(reduce + 100 [1 2 3])", "106"},
		{"(partition 2 (range 6))", "((0 1) (2 3) (4 5))"},
		{"(partition 2 (range 5))", "((0 1) (2 3))"},
		{"(take 3 (range 10))", "(0 1 2)"},
		{"(drop 7 (range 10))", "(7 8 9)"},
		{"(first [1 2])", "1"},
		{"(first ())", "nil"},
		{"(rest [1 2 3])", "(2 3)"},
		{"(cons 0 '(1 2))", "(0 1 2)"},
		{"(conj [1 2] 3)", "[1 2 3]"},
		{"(conj '(2 3) 1)", "(1 2 3)"},
		{"(nth [10 20 30] 1)", "20"},
		{"(nth [10] 5 :none)", ":none"},
		{"(count (range 4))", "4"},
		{"(count {})", "0"},
		{"(reverse [1 2 3])", "(3 2 1)"},
		{"(get {:a 1} :a)", "1"},
		{"(get {:a 1} :b :dflt)", ":dflt"},
		{"(get [5 6 7] 2)", "7"},
		{"(assoc {:a 1} :b 2)", "{:a 1, :b 2}"},
		{"(keys {:a 1 :b 2})", "(:a :b)"},
		{"(vals {:a 1 :b 2})", "(1 2)"},
		{"(contains? {:a 1} :a)", "true"},
		{"(contains? [9 9] 1)", "true"},
		{"(contains? [9 9] 5)", "false"},
		{"(str 1 \"-\" :b)", `"1-:b"`},
		{"(pr-str [1 \"a\"])", `"[1 \"a\"]"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evalStr(t, tt.src), "src: %s", tt.src)
	}
}

func TestEval_SquarePipeline(t *testing.T) {
	// The canonical shadow-eval pipeline evaluated directly.
	src := `(do
	  (defn sq [n] (* n n))
	  (partition 2 (map sq (range 10))))`
	assert.Equal(t, "((0 1) (4 9) (16 25) (36 49) (64 81))", evalStr(t, src))
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string // substring of the error
	}{
		{"undefined symbol", "missing", "undefined symbol: missing"},
		{"call non-function", "(1 2)", "cannot call"},
		{"divide by zero", "(/ 1 0)", "divide by zero"},
		{"bad arity", "(do (defn f [a] a) (f 1 2))", "expects 1 arguments, got 2"},
		{"bad argument type", "(+ 1 :k)", "expects a number"},
		{"destructure non-seq", "(let [[a] 5] a)", "cannot destructure"},
		{"def non-symbol", "(def 1 2)", "def expects a symbol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRuntime()
			_, err := rt.EvalString(tt.src, "", 1)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEval_ErrorPositions(t *testing.T) {
	rt := NewRuntime()
	_, err := rt.EvalString("(inc\n  missing)", "scratch.clj", 7)
	require.Error(t, err)
	var ee *EvalError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "scratch.clj", ee.Pos.File)
	assert.Equal(t, 8, ee.Pos.Line)
}

func TestRuntime_Namespaces(t *testing.T) {
	rt := NewRuntime()
	require.Equal(t, DefaultNamespace, rt.Current().Name())

	_, err := rt.EvalString("(def x 1)", "", 1)
	require.NoError(t, err)

	_, err = rt.EvalString("(ns scratch)", "", 1)
	require.NoError(t, err)
	assert.Equal(t, "scratch", rt.Current().Name())

	// x is not visible from the scratch namespace.
	_, err = rt.EvalString("x", "", 1)
	assert.Error(t, err)

	// Builtins are.
	_, err = rt.EvalString("(inc 1)", "", 1)
	assert.NoError(t, err)

	// Switching back restores visibility.
	_, err = rt.EvalString("(ns user)", "", 1)
	require.NoError(t, err)
	v, err := rt.EvalString("x", "", 1)
	require.NoError(t, err)
	assert.Equal(t, "1", v.String())

	assert.Equal(t, []string{"scratch", "user"}, rt.Namespaces())
}

func TestRuntime_DefInsideLetIsNamespaceLevel(t *testing.T) {
	rt := NewRuntime()
	_, err := rt.EvalString("(let [local 5] (def captured local))", "", 1)
	require.NoError(t, err)

	v, err := rt.EvalString("captured", "", 1)
	require.NoError(t, err)
	assert.Equal(t, "5", v.String())

	// The let-local itself did not leak.
	_, err = rt.EvalString("local", "", 1)
	assert.Error(t, err)
}

func TestRuntime_Println(t *testing.T) {
	rt := NewRuntime()
	var buf bytes.Buffer
	rt.SetOutput(&buf)

	v, err := rt.EvalString(`(println "x =" 42)`, "", 1)
	require.NoError(t, err)
	assert.Equal(t, KindNil, v.Kind)
	assert.Equal(t, "x = 42\n", buf.String())
}

func TestBindPattern_Names(t *testing.T) {
	forms := mustRead(t, "[a [b & c] _]")
	assert.Equal(t, []string{"a", "b", "c"}, PatternNames(forms))
}

func TestLiteralValue(t *testing.T) {
	f := mustRead(t, "((0 1) (4 9))")
	v := LiteralValue(f)
	assert.Equal(t, "((0 1) (4 9))", v.String())
}
