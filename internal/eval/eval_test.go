package eval_test

import (
	"math"
	"testing"

	"nps/internal/ast"
	"nps/internal/eval"
	"nps/internal/model"
	"nps/internal/nerrors"
)

func TestEvalStackUnderflow(t *testing.T) {
	items := []model.Item{model.OpItem(ast.OpAdd)}
	_, err := eval.Eval(items)
	if !nerrors.Is(err, nerrors.KindEval) {
		t.Fatalf("got %v, want EvalError", err)
	}
}

func TestEvalMalformedResidual(t *testing.T) {
	items := []model.Item{model.IntegerItem(1), model.IntegerItem(2)}
	_, err := eval.Eval(items)
	if !nerrors.Is(err, nerrors.KindEval) {
		t.Fatalf("got %v, want EvalError", err)
	}
}

func TestEvalMarksConsumed(t *testing.T) {
	cell := model.NewCell("x")
	cell.Value = 4
	items := []model.Item{{Kind: model.ItemVarRef, Name: "x", Cell: cell}}
	v, err := eval.Eval(items)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v != 4 {
		t.Fatalf("got %v, want 4", v)
	}
	if !cell.Consumed {
		t.Fatal("expected cell to be marked consumed")
	}
}

func TestEvalDegreeFunctions(t *testing.T) {
	items := []model.Item{model.RealItem(90), model.OpItem(ast.OpSinD)}
	v, err := eval.Eval(items)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if v < 0.999999 || v > 1.000001 {
		t.Fatalf("sind(90): got %v, want ~1", v)
	}
}

func TestEvalCot(t *testing.T) {
	items := []model.Item{model.RealItem(1), model.OpItem(ast.OpCot)}
	v, err := eval.Eval(items)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	want := 1 / math.Tan(1)
	if v != want {
		t.Fatalf("cot(1): got %v, want %v", v, want)
	}
}
