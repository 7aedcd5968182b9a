package engine

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/crillab/pipeplace/arith"
	"github.com/crillab/pipeplace/formula"
	"github.com/crillab/pipeplace/pool"
)

// IntResult is an assignment returned by an IntSolver.
type IntResult struct {
	Status Status
	Values []int // Values[v] is the value of var v.
	Cost   int
}

// An IntSolver solves integer optimization models.
type IntSolver interface {
	SolveModel(ctx context.Context, m *arith.Model) (*IntResult, error)
}

// NewInt returns an integer solver built on top of the solver described by cfg.
func NewInt(cfg Config) IntSolver {
	return &Linear{Solver: New(cfg), Encoding: cfg.Encoding}
}

// Linear solves integer models by lowering them to pseudo-boolean formulas.
// Each integer variable is represented by one literal per value of its domain,
// exactly one of which is true.
type Linear struct {
	Solver   BoolSolver
	Encoding formula.Encoding
}

// A Lowered is the boolean translation of an integer model.
type Lowered struct {
	Formula *formula.Formula
	Pool    *pool.Pool
	model   *arith.Model
	values  [][]formula.Lit // values[v][i] is true iff var v takes value Lo+i
}

// Values returns the integer values encoded in a model of the lowered formula.
func (l *Lowered) Values(model []bool) ([]int, error) {
	res := make([]int, len(l.values))
	for v, lits := range l.values {
		found := false
		for i, lit := range lits {
			if formula.Value(model, lit) {
				if found {
					return nil, fmt.Errorf("var %s has several values", l.model.Names[v])
				}
				res[v] = l.model.Vars[v].Lo + i
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("var %s has no value", l.model.Names[v])
		}
	}
	return res, nil
}

// atom returns the literal true iff a holds, or false if a can never hold.
func (l *Lowered) atom(a arith.Atom) (formula.Lit, bool) {
	d := l.model.Vars[a.Var]
	if a.Val < d.Lo || a.Val > d.Hi {
		return 0, false
	}
	return l.values[a.Var][a.Val-d.Lo], true
}

// atoms returns the literals of the given atoms, or false if one of them can never hold.
func (l *Lowered) atoms(as []arith.Atom) ([]formula.Lit, bool) {
	res := make([]formula.Lit, len(as))
	for i, a := range as {
		lit, ok := l.atom(a)
		if !ok {
			return nil, false
		}
		res[i] = lit
	}
	return res, true
}

// Lower translates m into a formula, using enc for cardinality constraints.
func Lower(m *arith.Model, enc formula.Encoding) *Lowered {
	l := &Lowered{Pool: pool.New(pool.Bool), model: m, values: make([][]formula.Lit, len(m.Vars))}
	for v, d := range m.Vars {
		l.values[v] = make([]formula.Lit, d.Size())
		for i := range l.values[v] {
			l.values[v][i] = formula.Lit(l.Pool.ID(pool.ValueOf(v, m.Names[v], d.Lo+i)))
		}
	}
	encoder := formula.NewEncoder(enc)
	domains := formula.NewBuffer("domains")
	for v, lits := range l.values {
		encoder.Exactly(domains, "domain "+m.Names[v], lits, nil, 1)
	}
	alldiff := formula.NewBuffer("alldiff")
	for i, vars := range m.AllDiff {
		byVal := make(map[int][]formula.Lit)
		var vals []int
		for _, v := range vars {
			d := m.Vars[v]
			for val := d.Lo; val <= d.Hi; val++ {
				if _, ok := byVal[val]; !ok {
					vals = append(vals, val)
				}
				byVal[val] = append(byVal[val], l.values[v][val-d.Lo])
			}
		}
		label := fmt.Sprintf("alldiff %d", i)
		for _, val := range vals {
			if lits := byVal[val]; len(lits) > 1 {
				encoder.AtMost(alldiff, label, lits, nil, 1)
			}
		}
	}
	rules := formula.NewBuffer("rules")
	for _, r := range m.Rules {
		l.rule(rules, encoder, r, nil)
	}
	sums := formula.NewBuffer("sums")
	for i, s := range m.Sums {
		l.sum(sums, encoder, i, s)
	}
	soft := formula.NewBuffer("soft")
	for i, s := range m.Soft {
		r := formula.Lit(l.Pool.ID(pool.Key{Kind: pool.Relax, A: i}))
		for _, rule := range s.Rules {
			l.rule(soft, encoder, rule, []formula.Lit{-r})
		}
		soft.AddSoft(formula.Soft{Lits: []formula.Lit{-r}, Weight: s.Weight, Label: s.Label})
	}
	l.Formula = formula.Merge(l.Pool, domains, alldiff, rules, sums, soft)
	return l
}

// rule adds the constraints for r, which only applies when all atoms of r and all lits of extra hold.
// sum(coeff*x) <= bound is expressed over value literals; each false condition relaxes it
// by the largest possible excess.
func (l *Lowered) rule(s formula.Sink, enc formula.Encoder, r arith.Rule, extra []formula.Lit) {
	conds, ok := l.atoms(r.When)
	if !ok {
		return
	}
	conds = append(conds, extra...)
	expr := newLinear()
	maxSum := 0
	for _, t := range r.Terms {
		d := l.model.Vars[t.Var]
		best := t.Coeff * d.Lo
		for i, lit := range l.values[t.Var] {
			w := t.Coeff * (d.Lo + i)
			if w > best {
				best = w
			}
			expr.add(lit, w)
		}
		maxSum += best
	}
	excess := maxSum - r.Bound
	if excess <= 0 {
		return
	}
	// sum(w*x) + excess*sum(conds) <= bound + excess*len(conds)
	for _, cond := range conds {
		expr.add(cond, excess)
	}
	c := expr.atMost(r.Bound + excess*len(conds))
	enc.AtLeast(s, r.Label, c.Lits, c.Weights, c.AtLeast)
}

// sum adds the constraints for s. A term with several atoms is represented by a fresh literal
// implied by the conjunction of its atoms when it counts positively, or implying them otherwise.
func (l *Lowered) sum(s formula.Sink, enc formula.Encoder, idx int, sum arith.Sum) {
	expr := newLinear()
	for i, t := range sum.Terms {
		conds, ok := l.atoms(t.When)
		if !ok || t.Coeff == 0 {
			continue
		}
		var lit formula.Lit
		if len(conds) == 1 {
			lit = conds[0]
		} else {
			lit = formula.Lit(l.Pool.ID(pool.Key{Kind: pool.Cond, A: idx, B: i, Tag: sum.Label}))
			if t.Coeff > 0 {
				clause := make([]formula.Lit, 0, len(conds)+1)
				for _, cond := range conds {
					clause = append(clause, -cond)
				}
				s.Add(formula.Constr{Lits: append(clause, lit), AtLeast: 1, Label: sum.Label})
			} else {
				for _, cond := range conds {
					s.Add(formula.Constr{Lits: []formula.Lit{-lit, cond}, AtLeast: 1, Label: sum.Label})
				}
			}
		}
		expr.add(lit, t.Coeff)
	}
	c := expr.atMost(sum.Bound)
	enc.AtLeast(s, sum.Label, c.Lits, c.Weights, c.AtLeast)
}

// linear is a weighted sum of literals plus a constant.
// Coefficients are kept on positive literals, so that a var appearing several times,
// possibly with both polarities, only appears once in the resulting constraint.
type linear struct {
	coeffs   map[int]int
	vars     []int // vars in order of first appearance
	constant int
}

func newLinear() *linear {
	return &linear{coeffs: make(map[int]int)}
}

func (e *linear) add(lit formula.Lit, w int) {
	v := lit.Var()
	if _, ok := e.coeffs[v]; !ok {
		e.vars = append(e.vars, v)
	}
	if lit.IsPositive() {
		e.coeffs[v] += w
	} else { // w*(1-x)
		e.constant += w
		e.coeffs[v] -= w
	}
}

// atMost returns the constraint e <= bound, with positive weights only.
func (e *linear) atMost(bound int) formula.Constr {
	var lits []formula.Lit
	var weights []int
	for _, v := range e.vars {
		if w := e.coeffs[v]; w != 0 {
			lits = append(lits, formula.Lit(v))
			weights = append(weights, w)
		}
	}
	return formula.LtEq(lits, weights, bound-e.constant)
}

// SolveModel lowers m and solves it.
func (lin *Linear) SolveModel(ctx context.Context, m *arith.Model) (*IntResult, error) {
	enc := Config{Encoding: lin.Encoding}.EncodingFor(lin.Solver.Caps())
	l := Lower(m, enc)
	glog.V(1).Infof("c integer model: %d vars lowered to %d boolean vars, %d constraints", len(m.Vars), l.Formula.NbVars, len(l.Formula.Hard))
	res, err := lin.Solver.Solve(ctx, l.Formula)
	if err != nil {
		return nil, err
	}
	values, err := l.Values(res.Model)
	if err != nil {
		return nil, fmt.Errorf("could not decode integer values: %w", err)
	}
	return &IntResult{Status: res.Status, Values: values, Cost: m.Cost(values)}, nil
}
