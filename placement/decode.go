package placement

import (
	"fmt"

	"github.com/crillab/pipeplace/formula"
	"github.com/crillab/pipeplace/pool"
	"github.com/crillab/pipeplace/problem"
)

// DecodeBoolean translates a model of m.Formula into a solution.
// The switch order is recovered from the precedence relation and checked against the positions.
func (m *BoolModel) DecodeBoolean(model []bool) (*problem.Solution, error) {
	inst := m.Inst
	n := inst.NbSwitches()
	val := func(k pool.Key) bool { return formula.Value(model, m.lit(k)) }
	byPos := make([]int, n)
	for pos := range byPos {
		byPos[pos] = -1
	}
	for sw := 0; sw < n; sw++ {
		found := -1
		for pos := 0; pos < n; pos++ {
			if !val(pool.At(sw, pos)) {
				continue
			}
			if found != -1 || byPos[pos] != -1 {
				return nil, fmt.Errorf("%w: switch %d is not in exactly one free position", ErrInconsistent, sw+1)
			}
			found = pos
			byPos[pos] = sw
		}
		if found == -1 {
			return nil, fmt.Errorf("%w: switch %d has no position", ErrInconsistent, sw+1)
		}
	}
	order := []int{0}
	if n > 1 {
		var err error
		order, err = topoOrder(n, func(a, b int) bool { return val(pool.Behind(a, b)) })
		if err != nil {
			return nil, err
		}
	}
	for pos, sw := range order {
		if byPos[pos] != sw {
			return nil, fmt.Errorf("%w: switch %d is in position %d but precedence puts switch %d there", ErrInconsistent, byPos[pos]+1, pos+1, sw+1)
		}
	}
	sol := &problem.Solution{Order: order, Stages: emptyStages(inst)}
	for g := range inst.Required {
		placed := false
		for sw, nbStages := range inst.Stages {
			for stage := 0; stage < nbStages; stage++ {
				if !val(pool.In(sw, stage, g)) {
					continue
				}
				if placed {
					return nil, fmt.Errorf("%w: group %d is placed several times", ErrInconsistent, g+1)
				}
				placed = true
				sol.Stages[sw][stage] = append(sol.Stages[sw][stage], g)
			}
		}
		if !placed {
			return nil, fmt.Errorf("%w: group %d is not placed", ErrInconsistent, g+1)
		}
	}
	sol.Cost = problem.Cost(inst, sol)
	return sol, nil
}

// DecodeArithmetic translates the values of the variables of m.Model into a solution.
func (m *IntModel) DecodeArithmetic(values []int) (*problem.Solution, error) {
	inst := m.Inst
	n := inst.NbSwitches()
	if len(values) != len(m.Model.Vars) {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInconsistent, len(m.Model.Vars), len(values))
	}
	order := make([]int, n)
	for pos := range order {
		order[pos] = -1
	}
	for sw := 0; sw < n; sw++ {
		pos := values[m.id(pool.PositionOf(sw))]
		if pos < 0 || pos >= n || order[pos] != -1 {
			return nil, fmt.Errorf("%w: invalid position %d for switch %d", ErrInconsistent, pos+1, sw+1)
		}
		order[pos] = sw
	}
	sol := &problem.Solution{Order: order, Stages: emptyStages(inst)}
	for g := range inst.Required {
		sw := values[m.id(pool.SwitchOf(g))]
		stage := values[m.id(pool.StageOf(g))]
		if sw < 0 || sw >= n || stage < 0 || stage >= inst.Stages[sw] {
			return nil, fmt.Errorf("%w: group %d in stage %d of switch %d", ErrInconsistent, g+1, stage+1, sw+1)
		}
		sol.Stages[sw][stage] = append(sol.Stages[sw][stage], g)
	}
	sol.Cost = problem.Cost(inst, sol)
	return sol, nil
}

func emptyStages(inst *problem.Instance) [][][]int {
	res := make([][][]int, inst.NbSwitches())
	for sw, nbStages := range inst.Stages {
		res[sw] = make([][]int, nbStages)
	}
	return res
}
