package model_test

import (
	"testing"

	"nps/internal/lexer"
	"nps/internal/model"
	"nps/internal/nerrors"
	"nps/internal/parser"
)

func parse(t *testing.T, src string) (*model.System, error) {
	t.Helper()
	toks, err := lexer.New(src, nil).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	p := parser.New(toks, "")
	return p.Parse()
}

func TestLinkResolvesSharedCell(t *testing.T) {
	sys, err := parse(t, `num_ps = {
		H = { m1 };
		m1 = {
			var = { x };
			var0 = { 1 };
			pr = { x -> 1|x };
		};
	};`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := model.Link(sys); err != nil {
		t.Fatalf("link: %v", err)
	}

	m := sys.Membranes["m1"]
	prog := m.Programs[0]
	ref := prog.Prod.Items[0]
	if ref.Cell == nil {
		t.Fatal("production reference unresolved")
	}
	if ref.Cell != prog.Distrib.Rules[0].Target {
		t.Fatal("production reference and distribution target should share one cell")
	}
}

func TestLinkUnresolvedIdentifier(t *testing.T) {
	sys, err := parse(t, `num_ps = {
		H = { m1 };
		m1 = {
			var = { x };
			var0 = { 1 };
			pr = { y -> 1|x };
		};
	};`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = model.Link(sys)
	if !nerrors.Is(err, nerrors.KindUnresolved) {
		t.Fatalf("got %v, want UnresolvedIdentifier", err)
	}
}

func TestStructureBuildsParentChild(t *testing.T) {
	sys, err := parse(t, `num_ps = {
		H = { m1, m2 };
		structure = [ m1 [ m2 ] m2 ] m1;
		m1 = {
			var = { x };
			var0 = { 1 };
			pr = { x -> 1|x };
		};
		m2 = {
			var = { y };
			var0 = { 1 };
			pr = { y -> 1|y };
		};
	};`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := model.Link(sys); err != nil {
		t.Fatalf("link: %v", err)
	}

	if sys.RootName != "m1" {
		t.Fatalf("got root %q, want m1", sys.RootName)
	}
	m2 := sys.Membranes["m2"]
	if m2.ParentName != "m1" {
		t.Fatalf("got m2 parent %q, want m1", m2.ParentName)
	}
	if sys.Membranes["m1"].Children["m2"] != m2 {
		t.Fatal("m1 should have m2 registered as a child")
	}
}

func TestDuplicateMembraneInH(t *testing.T) {
	_, err := parse(t, `num_ps = {
		H = { m1, m1 };
		m1 = {
			var = { x };
			pr = { x -> 1|x };
		};
	};`)
	if !nerrors.Is(err, nerrors.KindDuplicate) {
		t.Fatalf("got %v, want DuplicateMembrane", err)
	}
}
