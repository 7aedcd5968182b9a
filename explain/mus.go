// Package explain provides facilities to understand why a formula is unsatisfiable.
//
// Hard constraints of a formula.Formula are grouped by label. A Minimal Unsatisfiable Subset (MUS)
// is a set of groups that cannot be satisfied together, such that removing any of its groups
// makes the rest satisfiable. Some groups can be declared as background: they are always part
// of the problem and never reported.
package explain

import (
	"context"
	"errors"

	"github.com/crillab/gophersat/solver"
	"github.com/golang/glog"

	"github.com/crillab/pipeplace/formula"
)

// ErrSatisfiable is returned when trying to explain a satisfiable formula.
var ErrSatisfiable = errors.New("cannot extract MUS from satisfiable problem")

// A problem is a formula where each non-background group of constraints can be disabled
// through a selector variable: when the selector is true, the constraints of the group are satisfied.
type problem struct {
	labels  []string          // Labels of the groups that can be disabled.
	constrs []solver.PBConstr // Constraints, with their selector lits.
	nbVars  int               // Vars of the original formula; selector of group i is nbVars+i+1.
}

func newProblem(f *formula.Formula, background func(label string) bool) *problem {
	pb := &problem{nbVars: f.NbVars}
	idx := make(map[string]int)
	for _, c := range f.Hard {
		constr := solver.PBConstr{Lits: c.Ints(), AtLeast: c.AtLeast}
		if c.Weights != nil {
			constr.Weights = append([]int(nil), c.Weights...)
		}
		if !background(c.Label) {
			i, ok := idx[c.Label]
			if !ok {
				i = len(pb.labels)
				idx[c.Label] = i
				pb.labels = append(pb.labels, c.Label)
			}
			if constr.Weights == nil {
				constr.Weights = make([]int, len(constr.Lits))
				for j := range constr.Weights {
					constr.Weights[j] = 1
				}
			}
			constr.Lits = append(constr.Lits, pb.selector(i))
			constr.Weights = append(constr.Weights, max(c.AtLeast, 1))
		}
		pb.constrs = append(pb.constrs, constr)
	}
	return pb
}

func (pb *problem) selector(i int) int {
	return pb.nbVars + i + 1
}

// sat returns true iff the problem is satisfiable when only the groups marked in active are enabled.
func (pb *problem) sat(active []bool) bool {
	constrs := make([]solver.PBConstr, 0, len(pb.constrs)+len(active))
	for _, c := range pb.constrs {
		c2 := solver.PBConstr{Lits: append([]int(nil), c.Lits...), AtLeast: c.AtLeast}
		if c.Weights != nil {
			c2.Weights = append([]int(nil), c.Weights...)
		}
		constrs = append(constrs, c2)
	}
	for i, act := range active {
		sel := pb.selector(i)
		if act {
			sel = -sel
		}
		constrs = append(constrs, solver.PropClause(sel))
	}
	prob := solver.ParsePBConstrs(constrs)
	if prob.Status == solver.Unsat {
		return false
	}
	return solver.New(prob).Solve() == solver.Sat
}

// MUS returns the labels of a minimal unsatisfiable set of groups of hard constraints of f.
// Constraints whose label is accepted by background are always enabled and never reported.
// Soft clauses are ignored.
//
// The deletion algorithm is used: each group is disabled in turn, and enabled back
// if the problem became satisfiable. It is guaranteed to call exactly n+1 SAT solvers,
// where n is the number of groups.
func MUS(ctx context.Context, f *formula.Formula, background func(label string) bool) ([]string, error) {
	pb := newProblem(f, background)
	active := make([]bool, len(pb.labels))
	for i := range active {
		active[i] = true
	}
	if pb.sat(active) {
		return nil, ErrSatisfiable
	}
	for i, label := range pb.labels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		active[i] = false
		if pb.sat(active) {
			// It is now sat: the group is part of the MUS
			active[i] = true
			glog.V(1).Infof("c group %d/%d (%s): kept", i+1, len(pb.labels), label)
		} else {
			glog.V(1).Infof("c group %d/%d (%s): removed", i+1, len(pb.labels), label)
		}
	}
	var mus []string
	for i, act := range active {
		if act {
			mus = append(mus, pb.labels[i])
		}
	}
	return mus, nil
}
