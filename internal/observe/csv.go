package observe

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/ncruces/go-strftime"

	"nps/internal/model"
	"nps/internal/nerrors"
)

// CSVSink writes one header row plus one row per step to a CSV file
// named pep_DD-MM-YYYY_HH-MM-SS.csv, the variable and enzyme columns
// separated by a single blank field.
type CSVSink struct {
	f      *os.File
	w      *csv.Writer
	header bool
}

// DefaultCSVName renders the timestamped filename for a new run, using
// the current wall-clock time.
func DefaultCSVName(now time.Time) string {
	return strftime.Format("pep_%d-%m-%Y_%H-%M-%S", now) + ".csv"
}

// OpenCSV creates (or truncates) path and writes the free-text
// description line. The header row is written lazily by WriteHeader, once
// the system's variable/enzyme names are known.
func OpenCSV(path, description string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nerrors.IO("opening CSV sink", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{description}); err != nil {
		f.Close()
		return nil, nerrors.IO("writing CSV description line", err)
	}
	return &CSVSink{f: f, w: w}, nil
}

// WriteHeader writes the "step, <var names>, ,<enzyme names>" row. It is
// a no-op after the first call.
func (s *CSVSink) WriteHeader(sys *model.System) error {
	if s.header {
		return nil
	}
	s.header = true

	row := make([]string, 0, len(sys.AllVars)+len(sys.AllEnzymes)+2)
	row = append(row, "step")
	for _, c := range sys.AllVars {
		row = append(row, c.Name)
	}
	row = append(row, "")
	for _, c := range sys.AllEnzymes {
		row = append(row, c.Name)
	}
	if err := s.w.Write(row); err != nil {
		return nerrors.IO("writing CSV header", err)
	}
	s.w.Flush()
	return s.w.Error()
}

// WriteRow appends one data row for step.
func (s *CSVSink) WriteRow(sys *model.System, step int) error {
	row := make([]string, 0, len(sys.AllVars)+len(sys.AllEnzymes)+2)
	row = append(row, fmt.Sprintf("%d", step))
	for _, c := range sys.AllVars {
		row = append(row, fmt.Sprintf("%g", c.Value))
	}
	row = append(row, "")
	for _, c := range sys.AllEnzymes {
		row = append(row, fmt.Sprintf("%g", c.Value))
	}
	if err := s.w.Write(row); err != nil {
		return nerrors.IO("writing CSV row", err)
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return nerrors.IO("flushing CSV sink", err)
	}
	return s.f.Close()
}
