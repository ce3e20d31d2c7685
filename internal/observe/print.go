// Package observe holds the simulator's observational sinks: a
// pretty-printer, a CSV row emitter, a websocket broadcaster and the
// platform SIGINT handling used by interactive runs. None of these
// affect engine semantics; they only read state after a step completes.
package observe

import (
	"fmt"
	"io"

	"nps/internal/model"
)

// PrintState writes a nested, indented, per-membrane dump of sys: each
// membrane's var block, its E block, and one line per program showing
// the infix production and its distribution, enzyme-gated programs
// displayed as "infix [ enzyme -> ] distrib".
func PrintState(w io.Writer, sys *model.System) {
	for _, name := range sys.H {
		m := sys.Membranes[name]
		fmt.Fprintf(w, "%s = {\n", m.Name)

		fmt.Fprint(w, "  var = { ")
		for i, c := range m.Vars {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%s: %.2f", c.Name, c.Value)
		}
		fmt.Fprint(w, " }\n")

		if len(m.Enzymes) > 0 {
			fmt.Fprint(w, "  E = { ")
			for i, c := range m.Enzymes {
				if i > 0 {
					fmt.Fprint(w, ", ")
				}
				fmt.Fprintf(w, "%s: %.2f", c.Name, c.Value)
			}
			fmt.Fprint(w, " }\n")
		}

		for i, pr := range m.Programs {
			fmt.Fprintf(w, "  pr_%d = { %s ", i, pr.Prod.Infix)
			if pr.Enzymatic() {
				fmt.Fprintf(w, " [ %s -> ] ", pr.EnzymeName)
			} else {
				fmt.Fprint(w, " -> ")
			}
			fmt.Fprintf(w, "%s }\n", pr.Distrib.Expr)
		}

		fmt.Fprintln(w, "}")
	}
}
