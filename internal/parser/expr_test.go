package parser

import (
	"testing"

	"nps/internal/eval"
	"nps/internal/lexer"
	"nps/internal/model"
)

func compile(t *testing.T, src string) *model.ProductionFunction {
	t.Helper()
	toks, err := lexer.New(src, nil).Tokenize()
	if err != nil {
		t.Fatalf("tokenize(%q): %v", src, err)
	}
	p := New(toks, "")
	pf, _ := p.compileExpr(lexer.TokenEOF)
	return pf
}

func resolve(pf *model.ProductionFunction, env map[string]float64) {
	for i, it := range pf.Items {
		if it.Kind == model.ItemVarRef {
			c := model.NewCell(it.Name)
			c.Value = env[it.Name]
			pf.Items[i].Cell = c
		}
	}
}

func evalExpr(t *testing.T, src string, env map[string]float64) float64 {
	t.Helper()
	pf := compile(t, src)
	resolve(pf, env)
	v, err := eval.Eval(pf.Items)
	if err != nil {
		t.Fatalf("eval(%q): %v", src, err)
	}
	return v
}

func TestPrecedencePostfix(t *testing.T) {
	pf := compile(t, "2 + 3 * 4 ^ 2")
	want := "2 3 4 2 ^ * +"
	got := ""
	for i, it := range pf.Items {
		if i > 0 {
			got += " "
		}
		switch it.Kind {
		case model.ItemInteger:
			got += itoa(it.Int)
		case model.ItemOp:
			got += string(it.Op)
		}
	}
	if got != want {
		t.Fatalf("got postfix %q, want %q", got, want)
	}
	if v := evalExpr(t, "2 + 3 * 4 ^ 2", nil); v != 50 {
		t.Fatalf("got %v, want 50", v)
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestRightAssociativePower(t *testing.T) {
	if v := evalExpr(t, "2 ^ 3 ^ 2", nil); v != 512 {
		t.Fatalf("got %v, want 512", v)
	}
}

func TestParenAndUnaryNegate(t *testing.T) {
	if v := evalExpr(t, "~(1 + 2) * 4", nil); v != -12 {
		t.Fatalf("got %v, want -12", v)
	}
}

func TestNestedUnaryNegate(t *testing.T) {
	if v := evalExpr(t, "~~5", nil); v != 5 {
		t.Fatalf("got %v, want 5", v)
	}
}

func TestComparisonsAsNumbers(t *testing.T) {
	v := evalExpr(t, "(a > b) + (a == b)", map[string]float64{"a": 5, "b": 3})
	if v != 1 {
		t.Fatalf("got %v, want 1", v)
	}
}

func TestFunctionCallPrecedence(t *testing.T) {
	v := evalExpr(t, "sqrt(16) + 1", nil)
	if v != 5 {
		t.Fatalf("got %v, want 5", v)
	}
}

func TestMismatchedParenIsError(t *testing.T) {
	toks, err := lexer.New("(1 + 2", nil).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	p := New(toks, "")
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on unmatched '('")
		}
	}()
	p.compileExpr(lexer.TokenEOF)
}
