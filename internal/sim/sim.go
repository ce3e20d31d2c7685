// Package sim implements the two-phase synchronous simulation engine:
// production, global reset, then distribution, plus the run loop that
// drives repeated steps under step/time limits.
package sim

import (
	"time"

	"nps/internal/eval"
	"nps/internal/model"
)

// RNG is the uniform integer source used for non-enzymatic program
// selection. *math/rand.Rand satisfies this directly, so callers inject
// a seeded generator for reproducible runs.
type RNG interface {
	Intn(n int) int
}

// Step runs one full production/reset/distribution cycle over sys,
// mutating every cell in place. It is the single unit of simulation
// time; the caller decides how many to run and when to stop.
func Step(sys *model.System, rng RNG) error {
	if err := produce(sys, rng); err != nil {
		return err
	}
	reset(sys.AllVars)
	reset(sys.AllEnzymes)
	distribute(sys)
	return nil
}

func produce(sys *model.System, rng RNG) error {
	for _, name := range sys.H {
		m := sys.Membranes[name]
		if len(m.Programs) == 0 {
			continue
		}
		if len(m.Enzymes) == 0 {
			idx := 0
			if len(m.Programs) > 1 {
				idx = rng.Intn(len(m.Programs))
			}
			val, err := eval.Eval(m.Programs[idx].Prod.Items)
			if err != nil {
				return err
			}
			m.Chosen = model.Choice{IsMulti: false, Index: idx, Value: val}
			continue
		}

		var indices []int
		var values []float64
		for i, pr := range m.Programs {
			if !pr.Activated() {
				continue
			}
			val, err := eval.Eval(pr.Prod.Items)
			if err != nil {
				return err
			}
			indices = append(indices, i)
			values = append(values, val)
		}
		m.Chosen = model.Choice{IsMulti: true, Indices: indices, Values: values}
	}
	return nil
}

// reset clears every consumed cell to zero, uniformly across the whole
// system. Cells that are never read by a production function (pure
// distribution targets) are never marked consumed and so survive this
// sweep — they accumulate across steps by design.
func reset(cells []*model.Cell) {
	for _, c := range cells {
		if c.Consumed {
			c.Value = 0
			c.Consumed = false
		}
	}
}

func distribute(sys *model.System) {
	for _, name := range sys.H {
		m := sys.Membranes[name]
		if len(m.Programs) == 0 {
			continue
		}
		if m.Chosen.IsMulti {
			for k, idx := range m.Chosen.Indices {
				m.Programs[idx].Distrib.Distribute(m.Chosen.Values[k])
			}
			continue
		}
		m.Programs[m.Chosen.Index].Distrib.Distribute(m.Chosen.Value)
	}
}

// Hooks are the engine's only extension points: everything observational
// (printing, CSV rows, recorder writes, websocket broadcast, interactive
// confirmation) happens through these, off the critical simulation path.
// A nil hook is skipped.
type Hooks struct {
	// PreRun fires once, before the first production phase — used to
	// emit the header and the pre-step snapshot of a CSV sink.
	PreRun func(sys *model.System) error
	// PostStep fires once after every completed step, with the 1-based
	// step number.
	PostStep func(sys *model.System, step int) error
	// Confirm fires after PostStep and blocks the run loop until it
	// returns; used for interactive --step mode. A returned error aborts
	// the run (e.g. on interrupt).
	Confirm func() error
}

// Runner drives repeated Step calls under step count and wall-clock
// limits. Zero MaxSteps or MaxTime means that limit is disabled; at
// least one of them should be set or the run never stops on its own.
type Runner struct {
	Sys      *model.System
	RNG      RNG
	MaxSteps int
	MaxTime  time.Duration
	Hooks    Hooks
}

// Run executes the step loop to completion, honoring whichever of
// MaxSteps/MaxTime is reached first. The step counter increments only after
// the stop condition is checked and found false, so the final completed
// step always satisfies the limit rather than overrunning it.
func (r *Runner) Run() error {
	if r.Hooks.PreRun != nil {
		if err := r.Hooks.PreRun(r.Sys); err != nil {
			return err
		}
	}

	start := time.Now()
	step := 1
	for {
		if err := Step(r.Sys, r.RNG); err != nil {
			return err
		}
		if r.Hooks.PostStep != nil {
			if err := r.Hooks.PostStep(r.Sys, step); err != nil {
				return err
			}
		}
		if r.Hooks.Confirm != nil {
			if err := r.Hooks.Confirm(); err != nil {
				return err
			}
		}

		stop := false
		if r.MaxSteps > 0 && step >= r.MaxSteps {
			stop = true
		}
		if r.MaxTime > 0 && time.Since(start) >= r.MaxTime {
			stop = true
		}
		if stop {
			return nil
		}
		step++
	}
}
