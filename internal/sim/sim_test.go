package sim_test

import (
	"testing"

	"nps/internal/lexer"
	"nps/internal/model"
	"nps/internal/parser"
	"nps/internal/sim"
)

// fixedRNG always returns 0, making non-enzymatic multi-program choices
// deterministic in tests that don't care which program fires.
type fixedRNG struct{}

func (fixedRNG) Intn(n int) int { return 0 }

func build(t *testing.T, src string) *model.System {
	t.Helper()
	toks, err := lexer.New(src, nil).Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	p := parser.New(toks, "")
	sys, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := model.Link(sys); err != nil {
		t.Fatalf("link: %v", err)
	}
	return sys
}

func TestSmokeSingleMembraneStep(t *testing.T) {
	src := `num_ps = {
		H = { m1 };
		m1 = {
			var = { x };
			var0 = { 3 };
			pr = { x * 2 -> 1|x };
		};
	};`
	sys := build(t, src)

	if err := sim.Step(sys, fixedRNG{}); err != nil {
		t.Fatalf("step 1: %v", err)
	}
	x := sys.Membranes["m1"].FindVar("x")
	if x.Value != 6 {
		t.Fatalf("after 1 step: got x=%v, want 6", x.Value)
	}

	if err := sim.Step(sys, fixedRNG{}); err != nil {
		t.Fatalf("step 2: %v", err)
	}
	if x.Value != 12 {
		t.Fatalf("after 2 steps: got x=%v, want 12", x.Value)
	}
}

func TestProportionalSplit(t *testing.T) {
	src := `num_ps = {
		H = { m1 };
		m1 = {
			var = { x, y, z };
			var0 = { 10, 0, 0 };
			pr = { x -> 1|y + 3|z };
		};
	};`
	sys := build(t, src)

	if err := sim.Step(sys, fixedRNG{}); err != nil {
		t.Fatalf("step: %v", err)
	}
	m := sys.Membranes["m1"]
	if v := m.FindVar("x").Value; v != 0 {
		t.Fatalf("x: got %v, want 0", v)
	}
	if v := m.FindVar("y").Value; v != 2.5 {
		t.Fatalf("y: got %v, want 2.5", v)
	}
	if v := m.FindVar("z").Value; v != 7.5 {
		t.Fatalf("z: got %v, want 7.5", v)
	}
}

func TestEnzymaticMultiFire(t *testing.T) {
	src := `num_ps = {
		H = { m1 };
		m1 = {
			var = { x, y };
			E = { e };
			var0 = { 2, 5 };
			E0 = { 10 };
			pr = { x [ e -> ] 1|y };
			pr = { y [ e -> ] 1|x };
		};
	};`
	sys := build(t, src)

	if err := sim.Step(sys, fixedRNG{}); err != nil {
		t.Fatalf("step: %v", err)
	}
	m := sys.Membranes["m1"]
	if v := m.FindVar("x").Value; v != 5 {
		t.Fatalf("x: got %v, want 5", v)
	}
	if v := m.FindVar("y").Value; v != 2 {
		t.Fatalf("y: got %v, want 2", v)
	}
}

func TestRunnerStopsAtMaxSteps(t *testing.T) {
	src := `num_ps = {
		H = { m1 };
		m1 = {
			var = { x };
			var0 = { 1 };
			pr = { x + 1 -> 1|x };
		};
	};`
	sys := build(t, src)

	steps := 0
	r := &sim.Runner{
		Sys:      sys,
		RNG:      fixedRNG{},
		MaxSteps: 3,
		Hooks: sim.Hooks{
			PostStep: func(_ *model.System, step int) error {
				steps = step
				return nil
			},
		},
	}
	if err := r.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if steps != 3 {
		t.Fatalf("got %d steps, want 3", steps)
	}
}
