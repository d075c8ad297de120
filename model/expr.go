package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/crillab/gopherhg/hypergraph"
)

// An expression is an HCL expression computing a relation or a guard from the arguments of an edge.
type expression struct {
	src  string
	expr hclsyntax.Expression
}

// functions are available in every expression.
var functions = map[string]function.Function{
	"abs":   stdlib.AbsoluteFunc,
	"ceil":  stdlib.CeilFunc,
	"floor": stdlib.FloorFunc,
	"log":   stdlib.LogFunc,
	"max":   stdlib.MaxFunc,
	"min":   stdlib.MinFunc,
	"pow":   stdlib.PowFunc,
	"sign":  stdlib.SignumFunc,
	"sin":   mathFunc(math.Sin),
	"cos":   mathFunc(math.Cos),
	"tan":   mathFunc(math.Tan),
	"sqrt":  mathFunc(math.Sqrt),
	"exp":   mathFunc(math.Exp),
}

func mathFunc(f func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "x", Type: cty.Number}},
		Type:   function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			x, _ := args[0].AsBigFloat().Float64()
			res := f(x)
			if math.IsNaN(res) || math.IsInf(res, 0) {
				return cty.NilVal, hypergraph.ErrUndefined
			}
			return cty.NumberFloatVal(res), nil
		},
	})
}

// compileExpression parses src and checks it only refers to the given argument names.
func compileExpression(name, src string, argNames []string) (*expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), name, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}
	known := make(map[string]bool, len(argNames))
	for _, n := range argNames {
		known[n] = true
	}
	for _, trav := range expr.Variables() {
		if root := trav.RootName(); !known[root] {
			sorted := append([]string(nil), argNames...)
			sort.Strings(sorted)
			return nil, fmt.Errorf("%s: unknown variable %q, expected one of %v", name, root, sorted)
		}
	}
	for fn := range functionCalls(expr) {
		if _, ok := functions[fn]; !ok {
			return nil, fmt.Errorf("%s: unknown function %q", name, fn)
		}
	}
	return &expression{src: src, expr: expr}, nil
}

// functionCalls returns the names of the functions called in expr.
func functionCalls(expr hclsyntax.Expression) map[string]bool {
	res := make(map[string]bool)
	_ = hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
			res[call.Name] = true
		}
		return nil
	})
	return res
}

func (e *expression) eval(args hypergraph.Args) (cty.Value, error) {
	vars := make(map[string]cty.Value, args.Len())
	names, values := args.Names(), args.Values()
	for i, n := range names {
		v, err := toCty(values[i])
		if err != nil {
			return cty.NilVal, fmt.Errorf("argument %q: %w", n, err)
		}
		vars[n] = v
	}
	ctx := &hcl.EvalContext{Variables: vars, Functions: functions}
	v, diags := e.expr.Value(ctx)
	if diags.HasErrors() {
		for _, d := range diags {
			extra, ok := hcl.DiagnosticExtra[hclsyntax.FunctionCallDiagExtra](d)
			if ok && errors.Is(extra.FunctionCallError(), hypergraph.ErrUndefined) {
				return cty.NilVal, hypergraph.ErrUndefined
			}
		}
		return cty.NilVal, fmt.Errorf("evaluating %q: %w", e.src, diags)
	}
	if !v.IsKnown() {
		return cty.NilVal, fmt.Errorf("evaluating %q: unknown result", e.src)
	}
	return v, nil
}

// relation returns a relation evaluating the expression. A null result means the relation is undefined.
func (e *expression) relation() hypergraph.Relation {
	return func(args hypergraph.Args) (any, error) {
		v, err := e.eval(args)
		if err != nil {
			return nil, err
		}
		return fromCty(v)
	}
}

// guard returns a guard evaluating the expression, which must be a boolean.
func (e *expression) guard() hypergraph.Guard {
	return func(args hypergraph.Args) (bool, error) {
		v, err := e.eval(args)
		if errors.Is(err, hypergraph.ErrUndefined) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if v.IsNull() {
			return false, nil
		}
		if !v.Type().Equals(cty.Bool) {
			return false, fmt.Errorf("guard %q returned a %s, not a bool", e.src, v.Type().FriendlyName())
		}
		return v.True(), nil
	}
}

func toCty(v any) (cty.Value, error) {
	switch v := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case bool:
		return cty.BoolVal(v), nil
	case string:
		return cty.StringVal(v), nil
	}
	if f, ok := hypergraph.ToFloat(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return cty.NilVal, fmt.Errorf("non finite number %v", f)
		}
		return cty.NumberFloatVal(f), nil
	}
	return cty.NilVal, fmt.Errorf("unsupported value %v (%T)", v, v)
}

func fromCty(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch ty := v.Type(); {
	case ty.Equals(cty.Number):
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, hypergraph.ErrUndefined
		}
		return f, nil
	case ty.Equals(cty.Bool):
		return v.True(), nil
	case ty.Equals(cty.String):
		return v.AsString(), nil
	default:
		return nil, fmt.Errorf("unsupported result type %s", ty.FriendlyName())
	}
}
