package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/golang/glog"

	"github.com/crillab/pipeplace/formula"
)

// pollInterval is how often an interruptible gini search checks its context.
const pollInterval = 10 * time.Millisecond

// giniSolver solves clausal formulas with gini.
// The cost of a model is bounded through a sorting network over the relaxation literals
// of soft clauses, each one repeated as many times as its weight. Successive calls
// assume a strictly lower bound until the problem becomes unsatisfiable.
type giniSolver struct {
	cfg Config
}

func (*giniSolver) Caps() Caps { return Caps{} }

// litMapping maps formula variables to gini literals.
type litMapping struct {
	c    *logic.C
	lits []z.Lit // lits[v] is the gini literal of var v; lits[0] is unused
}

func newLitMapping(nbVars, nbSoft int) *litMapping {
	lm := &litMapping{c: logic.NewCCap(nbVars + nbSoft + 2), lits: make([]z.Lit, nbVars+1)}
	for v := 1; v <= nbVars; v++ {
		lm.lits[v] = lm.c.Lit()
	}
	return lm
}

func (lm *litMapping) lit(l formula.Lit) z.Lit {
	m := lm.lits[l.Var()]
	if l.IsPositive() {
		return m
	}
	return m.Not()
}

func (lm *litMapping) model(g *gini.Gini) []bool {
	maxVar := g.MaxVar()
	res := make([]bool, len(lm.lits)-1)
	for v := range res {
		m := lm.lits[v+1]
		res[v] = m.Var() <= maxVar && g.Value(m)
	}
	return res
}

func (s *giniSolver) Solve(ctx context.Context, f *formula.Formula) (*Result, error) {
	for i, c := range f.Hard {
		if !c.IsClause() {
			return nil, fmt.Errorf("gini: hard constraint #%d (%s): %w", i, c.Label, ErrUnsupported)
		}
	}
	ctx, cancel := s.cfg.withTimeout(ctx)
	defer cancel()
	lm := newLitMapping(f.NbVars, len(f.Soft))
	g := gini.New()
	for _, c := range f.Hard {
		for _, lit := range c.Lits {
			g.Add(lm.lit(lit))
		}
		g.Add(z.LitNull)
	}
	var relax []z.Lit
	for _, soft := range f.Soft {
		r := lm.c.Lit()
		for _, lit := range soft.Lits {
			g.Add(lm.lit(lit))
		}
		g.Add(r)
		g.Add(z.LitNull)
		for i := 0; i < soft.Weight; i++ {
			relax = append(relax, r)
		}
	}
	cs := lm.c.CardSort(relax)
	bounds := make([]z.Lit, cs.N())
	for b := range bounds {
		bounds[b] = cs.Leq(b)
	}
	_, nbNodes := lm.c.CnfSince(g, nil, bounds...)
	if glog.V(1) {
		glog.Infof("c nb vars: %d", g.MaxVar())
		glog.Infof("c nb hard clauses: %d", len(f.Hard))
		glog.Infof("c nb soft clauses: %d, total weight %d", len(f.Soft), cs.N())
		glog.Infof("c nb sorting network gates: %d", nbNodes)
	}
	inc := &incumbent{f: f}
	for {
		if inc.best != nil {
			g.Assume(cs.Leq(inc.best.Cost - 1))
		}
		switch solve(ctx, g) {
		case 1:
			if cost := inc.offer(lm.model(g)); cost == 0 {
				return inc.optimal()
			}
		case -1:
			return inc.optimal()
		default:
			return inc.interrupted(s.cfg.Policy, ctx.Err())
		}
	}
}

// solve runs g until it returns a result or ctx is done.
// It returns 1 if sat, -1 if unsat, 0 if interrupted.
func solve(ctx context.Context, g *gini.Gini) int {
	if ctx.Err() != nil {
		return 0
	}
	if ctx.Done() == nil {
		return g.Solve()
	}
	s := g.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if res, done := s.Test(); done {
			return res
		}
		select {
		case <-ctx.Done():
			return s.Stop()
		case <-ticker.C:
		}
	}
}
