package hypergraph

import "fmt"

// Args are the named arguments given to a relation or a guard for one edge application.
// Arguments keep the order in which the edge declared its sources.
type Args struct {
	names  []string
	values []any
}

// NewArgs builds an Args from parallel slices of names and values.
// It is mostly useful to test relations on their own.
func NewArgs(names []string, values []any) Args {
	if len(names) != len(values) {
		panic("hypergraph: NewArgs called with slices of different lengths")
	}
	return Args{names: append([]string(nil), names...), values: append([]any(nil), values...)}
}

// Len is the number of arguments.
func (a Args) Len() int { return len(a.names) }

// Names returns the argument names, in declaration order.
func (a Args) Names() []string { return append([]string(nil), a.names...) }

// Values returns the argument values, in declaration order.
func (a Args) Values() []any { return append([]any(nil), a.values...) }

// Get returns the value of the named argument.
func (a Args) Get(name string) (any, bool) {
	for i, n := range a.names {
		if n == name {
			return a.values[i], true
		}
	}
	return nil, false
}

// Float returns the named argument as a float64.
func (a Args) Float(name string) (float64, error) {
	v, ok := a.Get(name)
	if !ok {
		return 0, fmt.Errorf("missing argument %q", name)
	}
	f, ok := ToFloat(v)
	if !ok {
		return 0, fmt.Errorf("argument %q is not numeric: %v (%T)", name, v, v)
	}
	return f, nil
}

// Floats returns every argument as a float64, in declaration order.
func (a Args) Floats() ([]float64, error) {
	res := make([]float64, len(a.values))
	for i, v := range a.values {
		f, ok := ToFloat(v)
		if !ok {
			return nil, fmt.Errorf("argument %q is not numeric: %v (%T)", a.names[i], v, v)
		}
		res[i] = f
	}
	return res, nil
}

// Map returns a copy of the arguments as a map.
func (a Args) Map() map[string]any {
	res := make(map[string]any, len(a.names))
	for i, n := range a.names {
		res[n] = a.values[i]
	}
	return res
}

func (a *Args) add(name string, value any) {
	a.names = append(a.names, name)
	a.values = append(a.values, value)
}

// ToFloat converts any Go numeric value to a float64.
// ok is false if v is not a number.
func ToFloat(v any) (f float64, ok bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
