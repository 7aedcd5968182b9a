package engine

import (
	"context"

	"github.com/crillab/gophersat/solver"
	"github.com/golang/glog"

	"github.com/crillab/pipeplace/formula"
)

// gophersatSolver solves formulas with gophersat.
// Each soft clause gets a relaxation literal, and the weighted sum of relaxation
// literals is given to the solver as its cost function.
type gophersatSolver struct {
	cfg Config
}

func (*gophersatSolver) Caps() Caps { return Caps{NativePB: true} }

// problem translates f into a gophersat problem.
func problem(f *formula.Formula) *solver.Problem {
	constrs := make([]solver.PBConstr, 0, len(f.Hard)+len(f.Soft))
	for _, c := range f.Hard {
		constr := solver.PBConstr{Lits: c.Ints(), AtLeast: c.AtLeast}
		if c.Weights != nil {
			constr.Weights = append([]int(nil), c.Weights...)
		}
		constrs = append(constrs, constr)
	}
	relaxLits := make([]solver.Lit, len(f.Soft))
	weights := make([]int, len(f.Soft))
	for i, s := range f.Soft {
		relaxLit := f.NbVars + i + 1
		lits := make([]int, len(s.Lits)+1)
		for j, lit := range s.Lits {
			lits[j] = int(lit)
		}
		lits[len(s.Lits)] = relaxLit
		constrs = append(constrs, solver.PropClause(lits...))
		relaxLits[i] = solver.IntToLit(int32(relaxLit))
		weights[i] = s.Weight
	}
	pb := solver.ParsePBConstrs(constrs)
	if len(f.Soft) > 0 {
		pb.SetCostFunc(relaxLits, weights)
	}
	return pb
}

// model returns the values of the vars of f in a gophersat model.
func model(f *formula.Formula, res []bool) []bool {
	m := make([]bool, f.NbVars)
	copy(m, res)
	return m
}

func (g *gophersatSolver) Solve(ctx context.Context, f *formula.Formula) (*Result, error) {
	ctx, cancel := g.cfg.withTimeout(ctx)
	defer cancel()
	pb := problem(f)
	if glog.V(1) {
		glog.Infof("c nb vars: %d", pb.NbVars)
		glog.Infof("c nb hard constraints: %d", len(f.Hard))
		glog.Infof("c nb soft clauses: %d", len(f.Soft))
	}
	inc := &incumbent{f: f}
	if pb.Status == solver.Unsat {
		return inc.optimal()
	}
	if err := ctx.Err(); err != nil {
		return inc.interrupted(g.cfg.Policy, err)
	}
	s := solver.New(pb)
	results := make(chan solver.Result)
	go s.Optimal(results, nil)
	for {
		select {
		case res, ok := <-results:
			if !ok {
				return inc.optimal()
			}
			if res.Status == solver.Sat {
				inc.offer(model(f, res.Model))
			}
		case <-ctx.Done():
			// The search cannot be interrupted: let it run to completion in the background.
			go func() {
				for range results {
				}
			}()
			return inc.interrupted(g.cfg.Policy, ctx.Err())
		}
	}
}
