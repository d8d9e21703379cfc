package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/hugr-lab/geofilter/feature"
)

// Function is a named scalar function callable from a FunctionExpression.
type Function struct {
	// Name is the lookup key. Lookups are case-insensitive.
	// REQUIRED.
	Name string

	// MinArgs is the minimum number of arguments.
	MinArgs int

	// MaxArgs is the maximum number of arguments, -1 for no limit.
	MaxArgs int

	// Call computes the result from the evaluated arguments.
	// REQUIRED. Panics are recovered and reported as errors.
	Call func(args []Value) (Value, error)
}

func (fn Function) checkArity(n int) error {
	if n < fn.MinArgs || (fn.MaxArgs >= 0 && n > fn.MaxArgs) {
		return fmt.Errorf("%w: %s takes %s arguments, got %d", ErrArityMismatch, fn.Name, fn.arity(), n)
	}
	return nil
}

func (fn Function) arity() string {
	switch {
	case fn.MaxArgs < 0:
		return fmt.Sprintf("at least %d", fn.MinArgs)
	case fn.MinArgs == fn.MaxArgs:
		return fmt.Sprintf("%d", fn.MinArgs)
	default:
		return fmt.Sprintf("%d to %d", fn.MinArgs, fn.MaxArgs)
	}
}

// FunctionRegistry maps function names to implementations.
// Safe for concurrent use.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewFunctionRegistry creates a registry holding the built-in functions
// min and max.
func NewFunctionRegistry() *FunctionRegistry {
	r := &FunctionRegistry{funcs: make(map[string]Function)}
	for _, fn := range builtinFunctions() {
		r.funcs[fn.Name] = fn
	}
	return r
}

var defaultFunctions = NewFunctionRegistry()

// DefaultFunctions returns the process-wide function registry.
func DefaultFunctions() *FunctionRegistry {
	return defaultFunctions
}

// Register adds or replaces a function.
func (r *FunctionRegistry) Register(fn Function) error {
	if fn.Name == "" {
		return fmt.Errorf("function name cannot be empty")
	}
	if fn.Call == nil {
		return fmt.Errorf("function %s has nil implementation", fn.Name)
	}
	if fn.MinArgs < 0 || (fn.MaxArgs >= 0 && fn.MaxArgs < fn.MinArgs) {
		return fmt.Errorf("function %s has invalid arity %d..%d", fn.Name, fn.MinArgs, fn.MaxArgs)
	}

	fn.Name = strings.ToLower(fn.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[fn.Name] = fn
	return nil
}

// Unregister removes a function.
func (r *FunctionRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.funcs, strings.ToLower(name))
}

// Lookup returns the function registered under name. A nil registry
// resolves against DefaultFunctions.
func (r *FunctionRegistry) Lookup(name string) (Function, bool) {
	if r == nil {
		r = defaultFunctions
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[strings.ToLower(name)]
	return fn, ok
}

// Names returns the registered function names in sorted order.
func (r *FunctionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func builtinFunctions() []Function {
	return []Function{
		{Name: "min", MinArgs: 2, MaxArgs: -1, Call: extremum("min", func(c int) bool { return c < 0 })},
		{Name: "max", MinArgs: 2, MaxArgs: -1, Call: extremum("max", func(c int) bool { return c > 0 })},
	}
}

// extremum builds min/max. Integer arguments keep integer results; any
// double argument widens the result to double. A null argument yields null.
func extremum(name string, better func(c int) bool) func(args []Value) (Value, error) {
	return func(args []Value) (Value, error) {
		allInt := true
		for i, a := range args {
			if a.IsNull {
				return NullValue, nil
			}
			if !a.IsNumeric() {
				return Value{}, mismatch("%s argument %d is %s", name, i+1, a.Kind)
			}
			if a.Kind != feature.KindInteger {
				allInt = false
			}
		}

		if allInt {
			best, _ := args[0].Int()
			for _, a := range args[1:] {
				v, _ := a.Int()
				if better(cmp.Compare(v, best)) {
					best = v
				}
			}
			return IntegerValue(best), nil
		}

		best, _ := args[0].Float()
		for _, a := range args[1:] {
			v, _ := a.Float()
			if better(cmp.Compare(v, best)) {
				best = v
			}
		}
		return DoubleValue(best), nil
	}
}
