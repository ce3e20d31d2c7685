// Command npsim runs a Numerical P system simulation described by an
// input file, with an optional CSV trace, interactive stepping, and
// verbosity control. Flags are parsed by hand, the way a small CLI
// assembles a resolved options struct before handing it to the engine.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"nps/internal/cliutil"
	"nps/internal/lexer"
	"nps/internal/model"
	"nps/internal/nerrors"
	"nps/internal/observe"
	"nps/internal/parser"
	"nps/internal/recorder"
	"nps/internal/sim"
)

// RunOptions collects every resolved CLI flag before the engine starts;
// no flags framework is introduced, the options are walked out of
// os.Args by hand.
type RunOptions struct {
	InputPath   string
	MaxSteps    int
	StepConfirm bool
	CSVEnabled  bool
	DBDSN       string
	WatchAddr   string
	LogLevel    cliutil.Level
}

// errInterrupted is returned by a Hooks closure when a SIGINT arrives
// mid-run; the caller treats it as a clean stop, not a fatal error.
var errInterrupted = errors.New("interrupted")

func main() {
	os.Exit(npsimMain())
}

// npsimMain runs the CLI and returns a process exit code, split out of
// main so a testscript TestMain can register it as an in-process command.
func npsimMain() int {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		showUsage()
		return 1
	}

	logger := cliutil.NewLogger(os.Stderr, opts.LogLevel)

	if err := run(opts, logger); err != nil {
		logger.Error("%v", err)
		return exitCodeFor(err)
	}
	return 0
}

func exitCodeFor(err error) int {
	if nerrors.Is(err, nerrors.KindLex) || nerrors.Is(err, nerrors.KindParse) {
		return 2
	}
	return 3
}

func parseArgs(args []string) (RunOptions, error) {
	opts := RunOptions{LogLevel: cliutil.LevelInfo}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-n":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("-n requires a step count")
			}
			var n int
			if _, err := fmt.Sscanf(args[i], "%d", &n); err != nil {
				return opts, fmt.Errorf("invalid step count %q", args[i])
			}
			opts.MaxSteps = n
		case "--step":
			opts.StepConfirm = true
		case "--csv":
			opts.CSVEnabled = true
		case "--db":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--db requires a DSN")
			}
			opts.DBDSN = args[i]
		case "--watch":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--watch requires an address")
			}
			opts.WatchAddr = args[i]
		case "-v", "--debug":
			opts.LogLevel = cliutil.LevelDebug
		case "-v0", "--error":
			opts.LogLevel = cliutil.LevelError
		default:
			if opts.InputPath != "" {
				return opts, fmt.Errorf("unexpected argument %q", a)
			}
			opts.InputPath = a
		}
	}

	if opts.InputPath == "" {
		return opts, fmt.Errorf("missing input file argument")
	}
	return opts, nil
}

func showUsage() {
	fmt.Fprintln(os.Stderr, "usage: npsim <file> [-n N] [--step] [--csv] [--db DSN] [--watch ADDR] [-v|--debug] [-v0|--error]")
}

func run(opts RunOptions, logger *cliutil.Logger) error {
	src, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return nerrors.IO("reading input file", err)
	}

	lx := lexer.New(string(src), logger.Debug)
	tokens, err := lx.Tokenize()
	if err != nil {
		return err
	}

	p := parser.New(tokens, opts.InputPath)
	sys, err := p.Parse()
	if err != nil {
		return err
	}
	if err := model.Link(sys); err != nil {
		return err
	}

	var csvSink *observe.CSVSink
	if opts.CSVEnabled {
		csvSink, err = observe.OpenCSV(observe.DefaultCSVName(time.Now()), "npsim run of "+opts.InputPath)
		if err != nil {
			return err
		}
		defer csvSink.Close()
	}

	var rec *recorder.Recorder
	if opts.DBDSN != "" {
		rec, err = recorder.Open(opts.DBDSN)
		if err != nil {
			return err
		}
		defer rec.Close()
		logger.Info("recording to %s (run %s)", opts.DBDSN, rec.RunID())
	}

	var broadcaster *observe.LiveBroadcaster
	if opts.WatchAddr != "" {
		broadcaster = observe.NewLiveBroadcaster(opts.WatchAddr)
		defer broadcaster.Close()
		logger.Info("watch server listening on %s", opts.WatchAddr)
	}

	sigCh := make(chan os.Signal, 1)
	observe.NotifyInterrupt(sigCh)

	stdinReader := bufio.NewReader(os.Stdin)
	stdinLines := make(chan error, 1)
	finalStep := 0

	runner := &sim.Runner{
		Sys:      sys,
		RNG:      rand.New(rand.NewSource(time.Now().UnixNano())),
		MaxSteps: opts.MaxSteps,
		Hooks: sim.Hooks{
			PreRun: func(sys *model.System) error {
				if csvSink == nil {
					return nil
				}
				if err := csvSink.WriteHeader(sys); err != nil {
					return err
				}
				return csvSink.WriteRow(sys, 0)
			},
			PostStep: func(sys *model.System, step int) error {
				finalStep = step
				logger.Info("step %d finished", step)
				if csvSink != nil {
					if err := csvSink.WriteRow(sys, step); err != nil {
						return err
					}
				}
				if rec != nil {
					if err := rec.WriteStep(sys, step); err != nil {
						return err
					}
				}
				if broadcaster != nil {
					if err := broadcaster.Broadcast(sys, step); err != nil {
						return err
					}
				}
				if opts.LogLevel <= cliutil.LevelDebug {
					observe.PrintState(os.Stdout, sys)
				}
				select {
				case <-sigCh:
					return errInterrupted
				default:
					return nil
				}
			},
			Confirm: func() error {
				if !opts.StepConfirm {
					return nil
				}
				fmt.Fprint(os.Stderr, "press enter to continue, Ctrl-C to stop> ")
				go func() {
					_, err := stdinReader.ReadString('\n')
					stdinLines <- err
				}()
				select {
				case err := <-stdinLines:
					return err
				case <-sigCh:
					return errInterrupted
				}
			},
		},
	}

	start := time.Now()
	if err := runner.Run(); err != nil && !errors.Is(err, errInterrupted) {
		return err
	}

	cliutil.WriteSummary(os.Stdout, sys, finalStep, time.Since(start))
	return nil
}

func init() {
	log.SetFlags(0)
}
