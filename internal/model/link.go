package model

import "nps/internal/nerrors"

// Link resolves every identifier string left by the parser into a shared
// cell reference, and builds the membrane tree from the structure token
// list. It must run exactly once, after
// parsing and before simulation.
func Link(sys *System) error {
	collectCells(sys)

	for _, name := range sys.H {
		m := sys.Membranes[name]
		for _, pr := range m.Programs {
			if err := linkProduction(m, pr.Prod); err != nil {
				return err
			}
			if err := linkDistribution(m, pr.Distrib); err != nil {
				return err
			}
			if pr.Enzymatic() {
				cell := m.FindEnzyme(pr.EnzymeName)
				if cell == nil {
					return nerrors.Unresolved(m.Name, pr.EnzymeName)
				}
				pr.Enzyme = cell
			}
		}
	}

	return linkStructure(sys)
}

// collectCells builds the deduplicated global variable/enzyme lists used
// by the reset sweep and by observers.
func collectCells(sys *System) {
	sys.AllVars = nil
	sys.AllEnzymes = nil
	for _, name := range sys.H {
		m := sys.Membranes[name]
		sys.AllVars = append(sys.AllVars, m.Vars...)
		sys.AllEnzymes = append(sys.AllEnzymes, m.Enzymes...)
	}
}

func resolveLocal(m *Membrane, name string) *Cell {
	if c := m.FindVar(name); c != nil {
		return c
	}
	return m.FindEnzyme(name)
}

func linkProduction(m *Membrane, pf *ProductionFunction) error {
	for i, it := range pf.Items {
		if it.Kind != ItemVarRef || it.Cell != nil {
			continue
		}
		cell := resolveLocal(m, it.Name)
		if cell == nil {
			return nerrors.Unresolved(m.Name, it.Name)
		}
		pf.Items[i].Cell = cell
	}
	return nil
}

func linkDistribution(m *Membrane, df *DistributionFunction) error {
	for _, r := range df.Rules {
		if r.Target != nil {
			continue
		}
		cell := resolveLocal(m, r.TargetName)
		if cell == nil {
			return nerrors.Unresolved(m.Name, r.TargetName)
		}
		r.Target = cell
	}
	return nil
}

// linkStructure walks the flat structure token list with a
// current-membrane cursor, registering children and ascending on close,
// pairing each bracket with the name token that follows it.
func linkStructure(sys *System) error {
	var cursor *Membrane

	var pendingOpen, pendingClose bool
	for _, tok := range sys.Structure {
		switch tok.Kind {
		case StructOpen:
			pendingOpen = true
		case StructClose:
			pendingClose = true
		case StructName:
			switch {
			case pendingOpen:
				child := sys.Membranes[tok.Name]
				if child == nil {
					return nerrors.Structure("structure references unknown membrane " + tok.Name)
				}
				if cursor == nil {
					sys.RootName = tok.Name
				} else {
					cursor.Children[tok.Name] = child
					child.ParentName = cursor.Name
				}
				cursor = child
				pendingOpen = false
			case pendingClose:
				if cursor == nil {
					return nerrors.Structure("ascended above the root membrane")
				}
				if cursor.ParentName == "" {
					cursor = nil
				} else {
					cursor = sys.Membranes[cursor.ParentName]
				}
				pendingClose = false
			default:
				return nerrors.Structure("name token without a preceding bracket in structure")
			}
		}
	}
	return nil
}
