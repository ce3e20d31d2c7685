package model

// ProductionFunction holds the original infix source text (for display)
// and the compiled postfix item list.
type ProductionFunction struct {
	Infix string
	Items []Item
}

// ReferencedCells returns the distinct cells read by this production
// function. Used by the simulator to compute enzyme activation: the
// minimum of its production's referenced variable cells.
func (pf *ProductionFunction) ReferencedCells() []*Cell {
	var out []*Cell
	seen := map[*Cell]bool{}
	for _, it := range pf.Items {
		if it.Kind == ItemVarRef && it.Cell != nil && !seen[it.Cell] {
			seen[it.Cell] = true
			out = append(out, it.Cell)
		}
	}
	return out
}

// DistributionRule is one (proportion, target) pair of a distribution
// function.
type DistributionRule struct {
	Proportion int64
	TargetName string // pre-link
	Target     *Cell  // resolved, post-link
}

// DistributionFunction is an ordered list of distribution rules plus the
// cached proportion total and a printable expression string.
type DistributionFunction struct {
	Rules           []*DistributionRule
	ProportionTotal int64
	Expr            string // printable "p1|v1 + p2|v2 + ..."
}

// Distribute adds (rule.Proportion / ProportionTotal) * value to every
// rule's target cell, in rule order. The sum of all deltas equals value
// within floating-point rounding (invariant I1).
func (df *DistributionFunction) Distribute(value float64) {
	for _, r := range df.Rules {
		r.Target.Value += (float64(r.Proportion) / float64(df.ProportionTotal)) * value
	}
}

// Program pairs a production function with a distribution function and an
// optional gating enzyme cell.
type Program struct {
	Prod       *ProductionFunction
	Distrib    *DistributionFunction
	EnzymeName string // pre-link, empty if non-enzymatic
	Enzyme     *Cell  // resolved, post-link; nil if non-enzymatic
}

// Enzymatic reports whether this program is gated by an enzyme.
func (p *Program) Enzymatic() bool { return p.EnzymeName != "" }

// Activated reports whether p fires this step under enzyme gating: the
// enzyme's value must exceed the minimum of the production function's
// referenced cells, or the program fires unconditionally if it references
// no variables or carries no enzyme gate of its own. A membrane's E
// declaration only gates the programs that name one of its cells in a
// `[ e -> ]` prefix; an enzyme-free program in the same membrane is
// unconditional.
func (p *Program) Activated() bool {
	if !p.Enzymatic() {
		return true
	}
	cells := p.Prod.ReferencedCells()
	if len(cells) == 0 {
		return true
	}
	min := cells[0].Value
	for _, c := range cells[1:] {
		if c.Value < min {
			min = c.Value
		}
	}
	return p.Enzyme.Value > min
}
