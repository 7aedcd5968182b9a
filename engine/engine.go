// Package engine wraps the external solvers used to find optimal placements.
//
// A BoolSolver accepts a formula.Formula, made of hard constraints and weighted soft clauses,
// and returns a model of the hard constraints minimizing the weight of falsified soft clauses.
// Two engines are available: gophersat, which handles pseudo-boolean constraints natively,
// and gini, a pure SAT solver driven through a cardinality network over the soft clauses.
//
// An IntSolver accepts an arith.Model. The only implementation, Linear, lowers
// integer variables to one-hot boolean encodings and delegates to a BoolSolver.
//
// All engines are configured through a Config record, including a wall-clock budget
// and the policy to apply when that budget is exhausted.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/crillab/pipeplace/formula"
)

var (
	// ErrInfeasible is returned when the hard constraints cannot be satisfied.
	ErrInfeasible = errors.New("problem is infeasible")
	// ErrTimeout is returned when the time budget was exhausted before a result could be returned.
	ErrTimeout = errors.New("solver timed out")
	// ErrUnsupported is returned when a solver is given a constraint it cannot handle.
	ErrUnsupported = errors.New("unsupported constraint")
)

// A Kind is a solving engine.
type Kind int

const (
	// Gophersat is the CDCL SAT/PB solver from github.com/crillab/gophersat.
	Gophersat Kind = iota
	// Gini is the SAT solver from github.com/go-air/gini.
	Gini
)

var kindNames = []string{"gophersat", "gini"}

func (k Kind) String() string { return enumString(kindNames, int(k), "Kind") }

// Set implements flag.Value.
func (k *Kind) Set(s string) error { return enumSet(kindNames, (*int)(k), s, "engine") }

// A Policy is what to do when a solver exhausts its time budget.
type Policy int

const (
	// Fail returns ErrTimeout, even if a non-optimal solution was found.
	Fail Policy = iota
	// Best returns the best solution found so far, with the Feasible status.
	// ErrTimeout is still returned if no solution was found at all.
	Best
)

var policyNames = []string{"fail", "best"}

func (p Policy) String() string { return enumString(policyNames, int(p), "Policy") }

// Set implements flag.Value.
func (p *Policy) Set(s string) error { return enumSet(policyNames, (*int)(p), s, "timeout policy") }

func enumString(names []string, val int, typ string) string {
	if val < 0 || val >= len(names) {
		return fmt.Sprintf("%s(%d)", typ, val)
	}
	return names[val]
}

func enumSet(names []string, dst *int, s, what string) error {
	for i, name := range names {
		if name == s {
			*dst = i
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q, expected one of %v", what, s, names)
}

// Config is the configuration of a solver.
type Config struct {
	Kind     Kind
	Encoding formula.Encoding // How cardinality constraints are expressed.
	Timeout  time.Duration    // Wall-clock budget, or 0 for no limit.
	Policy   Policy           // What to do when Timeout is reached.
}

// EncodingFor returns the effective encoding for a solver with the given capabilities.
func (cfg Config) EncodingFor(caps Caps) formula.Encoding {
	if cfg.Encoding != formula.Auto {
		return cfg.Encoding
	}
	if caps.NativePB {
		return formula.Native
	}
	return formula.SeqCounter
}

// withTimeout returns a context bounded by the configured budget.
func (cfg Config) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.Timeout)
}

// A Status is the outcome of a call to a solver.
type Status int

const (
	// Unknown means no conclusion was reached.
	Unknown Status = iota
	// Optimal means the model minimizes the cost.
	Optimal
	// Feasible means the model satisfies hard constraints but was not proved optimal.
	Feasible
	// Infeasible means there is no model.
	Infeasible
)

var statusNames = []string{"UNKNOWN", "OPTIMUM FOUND", "SATISFIABLE", "UNSATISFIABLE"}

func (s Status) String() string { return enumString(statusNames, int(s), "Status") }

// Result is a model returned by a BoolSolver.
type Result struct {
	Status Status
	Model  []bool // Model[v-1] is the value of var v.
	Cost   int
}

// Caps describes what constraints a solver accepts.
type Caps struct {
	NativePB bool // Hard constraints can be arbitrary pseudo-boolean constraints, not only clauses.
}

// A BoolSolver solves weighted partial MaxSAT/PB problems.
type BoolSolver interface {
	// Caps returns the capabilities of the solver.
	Caps() Caps
	// Solve returns an optimal model for f.
	// It returns ErrInfeasible if there is no model, and ErrTimeout if the budget
	// was exhausted, unless the Best policy applies.
	// The gophersat search cannot be stopped: when ctx is done, Solve returns at once
	// but the search keeps running in the background until it completes.
	// No search is started if ctx is already done.
	Solve(ctx context.Context, f *formula.Formula) (*Result, error)
}

// New returns the solver described by cfg.
func New(cfg Config) BoolSolver {
	if cfg.Kind == Gini {
		return &giniSolver{cfg: cfg}
	}
	return &gophersatSolver{cfg: cfg}
}

// incumbent keeps track of the best model found so far.
type incumbent struct {
	f    *formula.Formula
	best *Result
}

// offer records model if it is better than the current best one and returns its cost.
func (inc *incumbent) offer(model []bool) int {
	cost := inc.f.Cost(model)
	if inc.best == nil || cost < inc.best.Cost {
		inc.best = &Result{Status: Feasible, Model: model, Cost: cost}
		glog.V(3).Infof("c new incumbent, cost %d", cost)
	}
	return cost
}

// optimal returns the best model as an optimal one.
func (inc *incumbent) optimal() (*Result, error) {
	if inc.best == nil {
		return nil, ErrInfeasible
	}
	inc.best.Status = Optimal
	return inc.best, nil
}

// interrupted applies the timeout policy.
func (inc *incumbent) interrupted(policy Policy, cause error) (*Result, error) {
	if policy == Best && inc.best != nil {
		glog.Warningf("solver interrupted (%v), returning a solution of cost %d that may not be optimal", cause, inc.best.Cost)
		return inc.best, nil
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		return nil, ErrTimeout
	}
	return nil, fmt.Errorf("%w: %v", ErrTimeout, cause)
}
