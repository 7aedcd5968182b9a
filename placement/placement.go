// Package placement builds and solves the constraint models of the rule placement problem.
//
// Given a problem.Instance, a Strategy builds a model of the instance, hands it to an engine,
// and decodes the optimal assignment into a problem.Solution. Two strategies exist:
// the boolean one, suited to SAT and MaxSAT engines, and the arithmetic one,
// working on integer variables.
package placement

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/crillab/pipeplace/engine"
	"github.com/crillab/pipeplace/explain"
	"github.com/crillab/pipeplace/formula"
	"github.com/crillab/pipeplace/problem"
)

// A Strategy solves placement instances using a given representation.
type Strategy interface {
	// Name returns the name of the representation used by the strategy.
	Name() string
	// Solve returns an optimal solution for inst, which must be valid.
	Solve(ctx context.Context, inst *problem.Instance) (*problem.Solution, error)
}

// NewStrategy returns the strategy described by cfg.
func NewStrategy(cfg Config) Strategy {
	if cfg.Representation == Arithmetic {
		return &arithmeticStrategy{cfg: cfg}
	}
	return &booleanStrategy{cfg: cfg}
}

type booleanStrategy struct {
	cfg Config
}

func (*booleanStrategy) Name() string { return Boolean.String() }

func (s *booleanStrategy) Solve(ctx context.Context, inst *problem.Instance) (*problem.Solution, error) {
	bs := s.cfg.solver()
	m := BuildBoolean(inst, s.cfg.Engine.EncodingFor(bs.Caps()), s.cfg.Parallel)
	res, err := bs.Solve(ctx, m.Formula)
	if err != nil {
		return nil, err
	}
	sol, err := m.DecodeBoolean(res.Model)
	if err != nil {
		return nil, err
	}
	sol.Optimal = res.Status == engine.Optimal
	if sol.Optimal && sol.Cost != res.Cost {
		return nil, fmt.Errorf("%w: placement costs %d, model costs %d", ErrInconsistent, sol.Cost, res.Cost)
	}
	return sol, nil
}

type arithmeticStrategy struct {
	cfg Config
}

func (*arithmeticStrategy) Name() string { return Arithmetic.String() }

func (s *arithmeticStrategy) Solve(ctx context.Context, inst *problem.Instance) (*problem.Solution, error) {
	m := BuildArithmetic(inst)
	is := &engine.Linear{Solver: s.cfg.solver(), Encoding: s.cfg.Engine.Encoding}
	res, err := is.SolveModel(ctx, m.Model)
	if err != nil {
		return nil, err
	}
	sol, err := m.DecodeArithmetic(res.Values)
	if err != nil {
		return nil, err
	}
	sol.Optimal = res.Status == engine.Optimal
	if sol.Cost != res.Cost {
		return nil, fmt.Errorf("%w: placement costs %d, model costs %d", ErrInconsistent, sol.Cost, res.Cost)
	}
	return sol, nil
}

// Solve validates inst and returns an optimal solution for it, using the strategy described by cfg.
// It returns an error wrapping engine.ErrInfeasible if inst has no solution.
func Solve(ctx context.Context, inst *problem.Instance, cfg Config) (*problem.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if reason, ok := inst.Infeasible(); ok {
		glog.V(1).Infof("c trivially infeasible: %s", reason)
		return nil, fmt.Errorf("%w: %s", engine.ErrInfeasible, reason)
	}
	strategy := NewStrategy(cfg)
	glog.V(1).Infof("c solving %d groups on %d switches with the %s strategy, engine %v",
		inst.NbGroups(), inst.NbSwitches(), strategy.Name(), cfg.Engine.Kind)
	sol, err := strategy.Solve(ctx, inst)
	if err != nil {
		return nil, err
	}
	if !sol.Optimal {
		glog.Warningf("solution of cost %d may not be optimal", sol.Cost)
	}
	if cfg.Verify {
		if err := problem.Verify(inst, sol); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInconsistent, err)
		}
	}
	return sol, nil
}

// Explain returns the labels of a minimal set of constraints of the boolean model of inst
// that cannot be satisfied together, structural constraints excluded.
// It returns explain.ErrSatisfiable if inst has a solution.
func Explain(ctx context.Context, inst *problem.Instance) ([]string, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	m := BuildBoolean(inst, formula.Native, false)
	return explain.MUS(ctx, m.Formula, Background)
}
