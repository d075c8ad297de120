// Package rel provides common relations to be used with hypergraph edges.
//
// Relations that treat one argument specially (Subtract, Divide, First) use the
// argument named "s1" if there is one, and the first argument otherwise.
// Every relation returns a float64 and fails if an argument is not a number.
package rel

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/crillab/gopherhg/hypergraph"
)

// Sum sums all arguments.
func Sum(args hypergraph.Args) (any, error) {
	fs, err := args.Floats()
	if err != nil {
		return nil, err
	}
	res := 0.0
	for _, f := range fs {
		res += f
	}
	return res, nil
}

// Multiply multiplies all arguments together.
func Multiply(args hypergraph.Args) (any, error) {
	fs, err := args.Floats()
	if err != nil {
		return nil, err
	}
	res := 1.0
	for _, f := range fs {
		res *= f
	}
	return res, nil
}

// Subtract subtracts all other arguments from s1.
func Subtract(args hypergraph.Args) (any, error) {
	first, others, err := splitFirst(args, "s1")
	if err != nil {
		return nil, err
	}
	for _, f := range others {
		first -= f
	}
	return first, nil
}

// Divide divides s1 by all other arguments.
// Dividing by zero is undefined.
func Divide(args hypergraph.Args) (any, error) {
	first, others, err := splitFirst(args, "s1")
	if err != nil {
		return nil, err
	}
	for _, f := range others {
		if f == 0 {
			return nil, hypergraph.ErrUndefined
		}
		first /= f
	}
	return first, nil
}

// Negate returns the opposite of the first argument.
func Negate(args hypergraph.Args) (any, error) {
	fs, err := nonEmpty(args)
	if err != nil {
		return nil, err
	}
	return -fs[0], nil
}

// Invert returns the inverse of the first argument.
// The inverse of zero is undefined.
func Invert(args hypergraph.Args) (any, error) {
	fs, err := nonEmpty(args)
	if err != nil {
		return nil, err
	}
	if fs[0] == 0 {
		return nil, hypergraph.ErrUndefined
	}
	return 1 / fs[0], nil
}

// Mean returns the arithmetic mean of all arguments.
func Mean(args hypergraph.Args) (any, error) {
	fs, err := nonEmpty(args)
	if err != nil {
		return nil, err
	}
	return mean(fs), nil
}

// Max returns the greatest argument.
func Max(args hypergraph.Args) (any, error) {
	fs, err := nonEmpty(args)
	if err != nil {
		return nil, err
	}
	return maxOf(fs), nil
}

// Min returns the lowest argument.
func Min(args hypergraph.Args) (any, error) {
	fs, err := nonEmpty(args)
	if err != nil {
		return nil, err
	}
	res := fs[0]
	for _, f := range fs[1:] {
		res = math.Min(res, f)
	}
	return res, nil
}

// Increment returns the greatest argument plus one.
func Increment(args hypergraph.Args) (any, error) {
	fs, err := nonEmpty(args)
	if err != nil {
		return nil, err
	}
	return maxOf(fs) + 1, nil
}

// First returns s1.
func First(args hypergraph.Args) (any, error) {
	first, _, err := splitFirst(args, "s1")
	if err != nil {
		return nil, err
	}
	return first, nil
}

// Equal returns a relation that returns the argument with the given name, unchanged.
// Unlike the other relations, it accepts values of any type.
func Equal(name string) hypergraph.Relation {
	return func(args hypergraph.Args) (any, error) {
		v, ok := args.Get(name)
		if !ok {
			return nil, fmt.Errorf("missing argument %q", name)
		}
		return v, nil
	}
}

// Sin returns the sine of the mean of all arguments.
func Sin(args hypergraph.Args) (any, error) {
	fs, err := nonEmpty(args)
	if err != nil {
		return nil, err
	}
	return math.Sin(mean(fs)), nil
}

var builtins = map[string]hypergraph.Relation{
	"sum":       Sum,
	"multiply":  Multiply,
	"subtract":  Subtract,
	"divide":    Divide,
	"negate":    Negate,
	"invert":    Invert,
	"mean":      Mean,
	"max":       Max,
	"min":       Min,
	"increment": Increment,
	"first":     First,
	"sin":       Sin,
}

// Builtin returns the relation with the given name, case insensitive.
// "equal:NAME" returns Equal(NAME).
func Builtin(name string) (hypergraph.Relation, bool) {
	if arg, ok := strings.CutPrefix(name, "equal:"); ok && arg != "" {
		return Equal(arg), true
	}
	r, ok := builtins[strings.ToLower(name)]
	return r, ok
}

// Names returns the sorted names of the builtin relations.
func Names() []string {
	res := make([]string, 0, len(builtins)+1)
	for n := range builtins {
		res = append(res, n)
	}
	res = append(res, "equal:NAME")
	sort.Strings(res)
	return res
}

func nonEmpty(args hypergraph.Args) ([]float64, error) {
	if args.Len() == 0 {
		return nil, errors.New("no argument")
	}
	return args.Floats()
}

// splitFirst returns the argument with the given name, or the first one, and all the other ones.
func splitFirst(args hypergraph.Args, name string) (first float64, others []float64, err error) {
	fs, err := nonEmpty(args)
	if err != nil {
		return 0, nil, err
	}
	idx := 0
	for i, n := range args.Names() {
		if n == name {
			idx = i
			break
		}
	}
	others = make([]float64, 0, len(fs)-1)
	others = append(others, fs[:idx]...)
	others = append(others, fs[idx+1:]...)
	return fs[idx], others, nil
}

func mean(fs []float64) float64 {
	sum := 0.0
	for _, f := range fs {
		sum += f
	}
	return sum / float64(len(fs))
}

func maxOf(fs []float64) float64 {
	res := fs[0]
	for _, f := range fs[1:] {
		res = math.Max(res, f)
	}
	return res
}
