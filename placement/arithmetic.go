package placement

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/crillab/pipeplace/arith"
	"github.com/crillab/pipeplace/pool"
	"github.com/crillab/pipeplace/problem"
)

// An IntModel is the arithmetic representation of an instance.
type IntModel struct {
	Inst  *problem.Instance
	Pool  *pool.Pool
	Model *arith.Model
}

// intVar declares the variable for k, with domain [lo, hi].
func (m *IntModel) intVar(k pool.Key, lo, hi int) int {
	id := m.Pool.ID(k)
	if v := m.Model.NewVar(k.String(), lo, hi); v != id {
		panic(fmt.Errorf("variable %q has index %d in the model but id %d in the pool", k, v, id))
	}
	return id
}

func (m *IntModel) id(k pool.Key) int {
	id, ok := m.Pool.Lookup(k)
	if !ok {
		panic(fmt.Errorf("undeclared variable %q", k))
	}
	return id
}

// BuildArithmetic returns the arithmetic model of inst, which must be valid.
func BuildArithmetic(inst *problem.Instance) *IntModel {
	m := &IntModel{Inst: inst, Pool: pool.New(pool.Int), Model: &arith.Model{}}
	nbSwitches := inst.NbSwitches()
	maxStage := inst.MaxStages() - 1
	if maxStage < 0 {
		maxStage = 0
	}
	for g := range inst.Required {
		m.intVar(pool.SwitchOf(g), 0, nbSwitches-1)
		m.intVar(pool.StageOf(g), 0, maxStage)
	}
	positions := make([]int, nbSwitches)
	for sw := range positions {
		positions[sw] = m.intVar(pool.PositionOf(sw), 0, nbSwitches-1)
	}
	m.Model.AllDiff = [][]int{positions}
	m.stageRanges()
	m.capacity()
	m.dependencies()
	m.objective()
	glog.V(1).Infof("c arithmetic model: %d vars, %d rules, %d sums, %d soft constraints",
		len(m.Model.Vars), len(m.Model.Rules), len(m.Model.Sums), len(m.Model.Soft))
	return m
}

// stageRanges states that a group on a switch is in one of its stages.
func (m *IntModel) stageRanges() {
	inst := m.Inst
	maxStages := inst.MaxStages()
	for g := range inst.Required {
		for sw, nbStages := range inst.Stages {
			if nbStages >= maxStages && nbStages > 0 {
				continue
			}
			m.Model.Rules = append(m.Model.Rules, arith.Rule{
				When:  []arith.Atom{{Var: m.id(pool.SwitchOf(g)), Val: sw}},
				Terms: []arith.Term{{Coeff: 1, Var: m.id(pool.StageOf(g))}},
				Bound: nbStages - 1,
				Label: placementLabel(g),
			})
		}
	}
}

// capacity states that the memory required by the groups of each stage does not exceed its capacity.
func (m *IntModel) capacity() {
	inst := m.Inst
	for sw, nbStages := range inst.Stages {
		for stage := 0; stage < nbStages; stage++ {
			sum := arith.Sum{Bound: inst.Capacity[sw], Label: capacityLabel(sw, stage)}
			for g, mem := range inst.Required {
				sum.Terms = append(sum.Terms, arith.CondTerm{Coeff: mem, When: []arith.Atom{
					{Var: m.id(pool.SwitchOf(g)), Val: sw},
					{Var: m.id(pool.StageOf(g)), Val: stage},
				}})
			}
			m.Model.Sums = append(m.Model.Sums, sum)
		}
	}
}

// dependencies states that the switch of a consumer is never before the switch of its producer.
func (m *IntModel) dependencies() {
	inst := m.Inst
	n := inst.NbSwitches()
	for i, dep := range inst.Deps {
		for sp := 0; sp < n; sp++ {
			for sc := 0; sc < n; sc++ {
				if sp == sc {
					continue
				}
				m.Model.Rules = append(m.Model.Rules, arith.Rule{
					When: []arith.Atom{
						{Var: m.id(pool.SwitchOf(dep.Producer)), Val: sp},
						{Var: m.id(pool.SwitchOf(dep.Consumer)), Val: sc},
					},
					Terms: []arith.Term{
						{Coeff: 1, Var: m.id(pool.PositionOf(sp))},
						{Coeff: -1, Var: m.id(pool.PositionOf(sc))},
					},
					Bound: 0,
					Label: dependencyLabel(inst, i),
				})
			}
		}
	}
}

// objective adds a unit penalty for each dependency whose producer and consumer share a switch,
// with the producer's stage not before the consumer's.
func (m *IntModel) objective() {
	inst := m.Inst
	for i, dep := range inst.Deps {
		soft := arith.Soft{Weight: 1, Label: dependencyLabel(inst, i)}
		for sw := range inst.Stages {
			soft.Rules = append(soft.Rules, arith.Rule{
				When: []arith.Atom{
					{Var: m.id(pool.SwitchOf(dep.Producer)), Val: sw},
					{Var: m.id(pool.SwitchOf(dep.Consumer)), Val: sw},
				},
				Terms: []arith.Term{
					{Coeff: 1, Var: m.id(pool.StageOf(dep.Producer))},
					{Coeff: -1, Var: m.id(pool.StageOf(dep.Consumer))},
				},
				Bound: -1,
			})
		}
		m.Model.Soft = append(m.Model.Soft, soft)
	}
}
