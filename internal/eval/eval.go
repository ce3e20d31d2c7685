// Package eval implements the stack-based postfix evaluator.
package eval

import (
	"nps/internal/ast"
	"nps/internal/model"
	"nps/internal/nerrors"
)

// Eval evaluates a compiled postfix item list over the current variable
// state, reading cell values, marking referenced cells Consumed, and
// returning the single residual stack value. Returns *nerrors.NPSError
// (KindEval) on stack underflow or a non-singleton residual.
func Eval(items []model.Item) (float64, error) {
	stack := make([]float64, 0, len(items))

	pop := func() (float64, error) {
		if len(stack) == 0 {
			return 0, nerrors.Eval("stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	for _, it := range items {
		switch it.Kind {
		case model.ItemInteger:
			stack = append(stack, float64(it.Int))
		case model.ItemReal:
			stack = append(stack, it.Real)
		case model.ItemVarRef:
			if it.Cell == nil {
				return 0, nerrors.Eval("unresolved variable reference %q", it.Name)
			}
			stack = append(stack, it.Cell.Value)
			it.Cell.Consumed = true
		case model.ItemOp:
			op, ok := ast.Catalog[it.Op]
			if !ok {
				return 0, nerrors.Eval("unknown operator %q", it.Op)
			}
			if op.Arity == 1 {
				a, err := pop()
				if err != nil {
					return 0, err
				}
				stack = append(stack, op.EvalUn(a))
			} else {
				b, err := pop()
				if err != nil {
					return 0, err
				}
				a, err := pop()
				if err != nil {
					return 0, err
				}
				stack = append(stack, op.EvalBin(a, b))
			}
		}
	}

	if len(stack) != 1 {
		return 0, nerrors.Eval("malformed expression: %d values left on stack, expected 1", len(stack))
	}
	return stack[0], nil
}
