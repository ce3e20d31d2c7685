package cliutil

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kr/text"

	"nps/internal/model"
	"nps/internal/observe"
)

// WriteSummary prints the final run report: step count, elapsed
// wall-clock time, and the indented final membrane state.
func WriteSummary(w io.Writer, sys *model.System, steps int, elapsed time.Duration) {
	fmt.Fprintf(w, "Simulation finished after %s (%s elapsed)\n",
		humanize.Comma(int64(steps))+" steps", humanize.RelTime(time.Now().Add(-elapsed), time.Now(), "", ""))

	var state strings.Builder
	observe.PrintState(&state, sys)
	fmt.Fprint(w, text.Indent(state.String(), "  "))
}
