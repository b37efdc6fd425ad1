package interp

import "fmt"

// Env is a lexical environment frame with a parent link. Lookups walk
// parent-ward; Define always binds in the current frame.
type Env struct {
	parent *Env
	table  map[string]Value
}

// NewEnv creates a new frame with the given parent (which may be nil).
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, table: make(map[string]Value)}
}

// Define binds name in the current frame, shadowing any outer binding.
func (e *Env) Define(name string, v Value) {
	e.table[name] = v
}

// Get retrieves the nearest visible binding for name.
func (e *Env) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.table[name]; ok {
			return v, nil
		}
	}
	return Value{}, fmt.Errorf("undefined symbol: %s", name)
}

// Has reports whether name resolves in this environment chain.
func (e *Env) Has(name string) bool {
	_, err := e.Get(name)
	return err == nil
}

// Names returns the names bound directly in this frame, in unspecified order.
func (e *Env) Names() []string {
	out := make([]string, 0, len(e.table))
	for name := range e.table {
		out = append(out, name)
	}
	return out
}
