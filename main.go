package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/crillab/pipeplace/engine"
	"github.com/crillab/pipeplace/explain"
	"github.com/crillab/pipeplace/formula"
	"github.com/crillab/pipeplace/placement"
	"github.com/crillab/pipeplace/problem"
)

// Exit codes.
const (
	exitOK      = 0
	exitInvalid = 1
	exitFailure = 2
)

func main() {
	_ = flag.Set("logtostderr", "true")
	cfg := placement.DefaultConfig()
	var (
		verbose bool
		dump    string
		why     bool
	)
	flag.Var(&cfg.Representation, "strategy", "representation of the problem (boolean|arithmetic)")
	flag.Var(&cfg.Engine.Kind, "engine", "solving engine (gophersat|gini)")
	flag.Var(&cfg.Engine.Encoding, "encoding", "encoding of cardinality constraints (auto|native|seqcounter)")
	flag.DurationVar(&cfg.Engine.Timeout, "timeout", 0, "time budget of the solver, 0 for no limit")
	flag.Var(&cfg.Engine.Policy, "on-timeout", "what to do when the time budget is exhausted (fail|best)")
	flag.BoolVar(&cfg.Parallel, "parallel", false, "generates constraint families concurrently")
	flag.BoolVar(&cfg.Verify, "verify", true, "checks the solution against the instance before printing it")
	flag.StringVar(&dump, "dump", "", "writes the boolean formula to the given .opb or .wcnf file")
	flag.BoolVar(&why, "explain", false, "when there is no solution, lists a minimal set of conflicting constraints on stderr")
	flag.BoolVar(&verbose, "verbose", false, "sets verbose mode on")
	flag.Parse()
	if verbose {
		_ = flag.Set("v", "1")
	}
	code := run(cfg, dump, why)
	glog.Flush()
	os.Exit(code)
}

func run(cfg placement.Config, dump string, why bool) int {
	if len(flag.Args()) > 1 {
		fmt.Fprintf(os.Stderr, "Syntax : %s [options] [file]\n", os.Args[0])
		flag.PrintDefaults()
		return exitInvalid
	}
	inst, err := readInstance(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not parse instance: %v\n", err)
		return exitInvalid
	}
	if dump != "" {
		if err := dumpFormula(dump, inst, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "could not dump formula: %v\n", err)
			return exitFailure
		}
	}
	ctx := context.Background()
	sol, err := placement.Solve(ctx, inst, cfg)
	var verr *problem.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(os.Stderr, "invalid instance: %v\n", err)
		return exitInvalid
	case errors.Is(err, engine.ErrInfeasible):
		glog.V(1).Infof("c %v", err)
		if err := problem.WriteNoSolution(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitFailure
		}
		if why {
			explainInfeasibility(ctx, inst)
		}
		return exitOK
	case err != nil:
		fmt.Fprintf(os.Stderr, "could not solve instance: %v\n", err)
		return exitFailure
	}
	if err := problem.Write(os.Stdout, sol); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitOK
}

func readInstance(args []string) (*problem.Instance, error) {
	var r io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("could not open %q: %v", args[0], err)
		}
		defer f.Close()
		r = f
	}
	return problem.Parse(r)
}

func dumpFormula(path string, inst *problem.Instance, cfg placement.Config) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	enc := cfg.Engine.EncodingFor(engine.New(cfg.Engine).Caps())
	write := formula.WriteOPB
	switch {
	case strings.HasSuffix(path, ".wcnf"):
		write = formula.WriteWCNF
		if enc == formula.Native {
			enc = formula.SeqCounter
		}
	case !strings.HasSuffix(path, ".opb"):
		return fmt.Errorf("invalid file format for %q", path)
	}
	m := placement.BuildBoolean(inst, enc, cfg.Parallel)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %q: %v", path, err)
	}
	if err := write(f, m.Formula, m.Name); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func explainInfeasibility(ctx context.Context, inst *problem.Instance) {
	mus, err := placement.Explain(ctx, inst)
	if errors.Is(err, explain.ErrSatisfiable) {
		fmt.Fprintln(os.Stderr, "c the boolean model is satisfiable, the instance was rejected before solving")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not explain infeasibility: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, "c conflicting constraints:")
	for _, label := range mus {
		fmt.Fprintf(os.Stderr, "c   %s\n", label)
	}
}
