package placement

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/crillab/pipeplace/formula"
	"github.com/crillab/pipeplace/pool"
	"github.com/crillab/pipeplace/problem"
)

// Labels of the structural constraints of the boolean model.
// They are always kept when explaining infeasibility.
const (
	labelPositions  = "switch positions"
	labelSwitchOrd  = "switch order"
	labelGroupLinks = "group links"
	labelGroupOrd   = "group order"
)

// Background returns true iff label names structural constraints, that cannot be
// the cause of an infeasibility by themselves.
func Background(label string) bool {
	switch label {
	case labelPositions, labelSwitchOrd, labelGroupLinks, labelGroupOrd:
		return true
	default:
		return false
	}
}

func placementLabel(g int) string { return fmt.Sprintf("placement of group %d", g+1) }

func capacityLabel(sw, stage int) string {
	return fmt.Sprintf("capacity of stage %d of switch %d", stage+1, sw+1)
}

func dependencyLabel(inst *problem.Instance, i int) string {
	dep := inst.Deps[i]
	return fmt.Sprintf("dependency %d -> %d", dep.Producer+1, dep.Consumer+1)
}

// A BoolModel is the boolean representation of an instance.
type BoolModel struct {
	Inst    *problem.Instance
	Pool    *pool.Pool
	Formula *formula.Formula
	// pairs lists the (consumer, producer) pairs for which a group precedence variable exists.
	pairs [][2]int
}

// lit returns the literal associated with k, which must have been declared.
func (m *BoolModel) lit(k pool.Key) formula.Lit {
	id, ok := m.Pool.Lookup(k)
	if !ok {
		panic(fmt.Errorf("undeclared variable %q", k))
	}
	return formula.Lit(id)
}

// Name returns a description of var v, with 1-based ids.
func (m *BoolModel) Name(v int) string {
	k, ok := m.Pool.Describe(v)
	if !ok {
		return ""
	}
	switch k.Kind {
	case pool.SwitchAt:
		return fmt.Sprintf("Switch %d in position %d", k.A+1, k.B+1)
	case pool.GroupIn:
		return fmt.Sprintf("Switch %d in stage %d has group %d", k.A+1, k.B+1, k.C+1)
	case pool.GroupOn:
		return fmt.Sprintf("Switch %d has group %d", k.A+1, k.B+1)
	case pool.SwitchBehind:
		return fmt.Sprintf("Switch %d is behind switch %d", k.A+1, k.B+1)
	case pool.GroupBehind:
		return fmt.Sprintf("Group %d is behind group %d", k.A+1, k.B+1)
	default:
		return k.String()
	}
}

// declare allocates all primary variables, in a fixed order.
func (m *BoolModel) declare() {
	inst := m.Inst
	nbSwitches := inst.NbSwitches()
	for sw := 0; sw < nbSwitches; sw++ {
		for pos := 0; pos < nbSwitches; pos++ {
			m.Pool.ID(pool.At(sw, pos))
		}
	}
	for sw, nbStages := range inst.Stages {
		for stage := 0; stage < nbStages; stage++ {
			for g := range inst.Required {
				m.Pool.ID(pool.In(sw, stage, g))
			}
		}
	}
	for sw := 0; sw < nbSwitches; sw++ {
		for g := range inst.Required {
			m.Pool.ID(pool.On(sw, g))
		}
	}
	for a := 0; a < nbSwitches; a++ {
		for b := 0; b < nbSwitches; b++ {
			if a != b {
				m.Pool.ID(pool.Behind(a, b))
			}
		}
	}
	seen := make(map[[2]int]bool)
	for _, dep := range inst.Deps {
		pair := [2]int{dep.Consumer, dep.Producer}
		if !seen[pair] {
			seen[pair] = true
			m.pairs = append(m.pairs, pair)
			m.Pool.ID(pool.GroupsBehind(pair[0], pair[1]))
		}
	}
}

// BuildBoolean returns the boolean model of inst, which must be valid.
// Cardinality and capacity constraints are expressed with enc.
// If parallel is true, constraint families are generated concurrently; the result does not depend on it.
func BuildBoolean(inst *problem.Instance, enc formula.Encoding, parallel bool) *BoolModel {
	m := &BoolModel{Inst: inst, Pool: pool.New(pool.Bool)}
	m.declare()
	encoder := formula.NewEncoder(enc)
	families := []struct {
		name  string
		build func(*formula.Buffer)
	}{
		{"positions", func(b *formula.Buffer) { m.positions(b, encoder) }},
		{"placement", func(b *formula.Buffer) { m.placement(b, encoder) }},
		{"precedence", m.precedence},
		{"capacity", func(b *formula.Buffer) { m.capacity(b, encoder) }},
		{"dependency", m.dependencies},
		{"objective", m.objective},
	}
	bufs := make([]*formula.Buffer, len(families))
	for i, fam := range families {
		bufs[i] = formula.NewBuffer(fam.name)
	}
	if parallel {
		var wg sync.WaitGroup
		for i, fam := range families {
			wg.Add(1)
			go func(build func(*formula.Buffer), b *formula.Buffer) {
				defer wg.Done()
				build(b)
			}(fam.build, bufs[i])
		}
		wg.Wait()
	} else {
		for i, fam := range families {
			fam.build(bufs[i])
		}
	}
	if glog.V(2) {
		for _, b := range bufs {
			glog.Infof("c family %s: %d constraints", b.Name(), b.Len())
		}
	}
	m.Formula = formula.Merge(m.Pool, bufs...)
	glog.V(1).Infof("c boolean model: %d vars, %d hard constraints, %d soft clauses", m.Formula.NbVars, len(m.Formula.Hard), len(m.Formula.Soft))
	return m
}

// positions states that the position matrix is a permutation.
func (m *BoolModel) positions(b *formula.Buffer, enc formula.Encoder) {
	n := m.Inst.NbSwitches()
	for sw := 0; sw < n; sw++ {
		row := make([]formula.Lit, n)
		for pos := range row {
			row[pos] = m.lit(pool.At(sw, pos))
		}
		enc.Exactly(b, labelPositions, row, nil, 1)
	}
	for pos := 0; pos < n; pos++ {
		col := make([]formula.Lit, n)
		for sw := range col {
			col[sw] = m.lit(pool.At(sw, pos))
		}
		enc.Exactly(b, labelPositions, col, nil, 1)
	}
}

// placement states that each group is in exactly one stage, and links
// stage-level and switch-level placement propositions.
func (m *BoolModel) placement(b *formula.Buffer, enc formula.Encoder) {
	inst := m.Inst
	for g := range inst.Required {
		var lits []formula.Lit
		for sw, nbStages := range inst.Stages {
			for stage := 0; stage < nbStages; stage++ {
				lits = append(lits, m.lit(pool.In(sw, stage, g)))
			}
		}
		enc.Exactly(b, placementLabel(g), lits, nil, 1)
	}
	for sw, nbStages := range inst.Stages {
		for g := range inst.Required {
			on := m.lit(pool.On(sw, g))
			some := []formula.Lit{-on}
			for stage := 0; stage < nbStages; stage++ {
				in := m.lit(pool.In(sw, stage, g))
				b.AddClause(labelGroupLinks, -in, on)
				some = append(some, in)
			}
			b.AddClause(labelGroupLinks, some...)
		}
	}
}

// precedence links positions to the switch precedence relation, and derives the group
// precedence relation for pairs of groups involved in a dependency.
// Switch a is behind switch b iff a's position is lower than b's.
// Group x is behind group y iff x is not after y in the pipeline: either x's switch
// is behind y's switch, or both share a switch and x's stage is not after y's.
func (m *BoolModel) precedence(b *formula.Buffer) {
	inst := m.Inst
	n := inst.NbSwitches()
	for sa := 0; sa < n; sa++ {
		for sb := 0; sb < n; sb++ {
			if sa == sb {
				continue
			}
			behind := m.lit(pool.Behind(sa, sb))
			for pa := 0; pa < n; pa++ {
				for pb := pa + 1; pb < n; pb++ {
					b.AddClause(labelSwitchOrd, -m.lit(pool.At(sa, pa)), -m.lit(pool.At(sb, pb)), behind)
				}
			}
			if sa < sb {
				other := m.lit(pool.Behind(sb, sa))
				b.AddClause(labelSwitchOrd, behind, other)
				b.AddClause(labelSwitchOrd, -behind, -other)
			}
		}
	}
	for _, pair := range m.pairs {
		x, y := pair[0], pair[1]
		gb := m.lit(pool.GroupsBehind(x, y))
		for sw, nbStages := range inst.Stages {
			for sx := 0; sx < nbStages; sx++ {
				for sy := sx; sy < nbStages; sy++ {
					b.AddClause(labelGroupOrd, -m.lit(pool.In(sw, sx, x)), -m.lit(pool.In(sw, sy, y)), gb)
				}
			}
		}
		for sa := 0; sa < n; sa++ {
			for sb := 0; sb < n; sb++ {
				if sa != sb {
					b.AddClause(labelGroupOrd, -m.lit(pool.Behind(sa, sb)), -m.lit(pool.On(sa, x)), -m.lit(pool.On(sb, y)), gb)
				}
			}
		}
	}
}

// capacity states that the memory required by the groups of each stage does not exceed its capacity.
func (m *BoolModel) capacity(b *formula.Buffer, enc formula.Encoder) {
	inst := m.Inst
	for sw, nbStages := range inst.Stages {
		for stage := 0; stage < nbStages; stage++ {
			lits := make([]formula.Lit, inst.NbGroups())
			for g := range lits {
				lits[g] = m.lit(pool.In(sw, stage, g))
			}
			enc.AtMost(b, capacityLabel(sw, stage), lits, inst.Required, inst.Capacity[sw])
		}
	}
}

// dependencies forbids placing a consumer on a switch behind the switch of its producer.
func (m *BoolModel) dependencies(b *formula.Buffer) {
	inst := m.Inst
	n := inst.NbSwitches()
	for i, dep := range inst.Deps {
		label := dependencyLabel(inst, i)
		for sp := 0; sp < n; sp++ {
			for sc := 0; sc < n; sc++ {
				if sp != sc {
					b.AddClause(label, -m.lit(pool.Behind(sc, sp)), -m.lit(pool.On(sc, dep.Consumer)), -m.lit(pool.On(sp, dep.Producer)))
				}
			}
		}
	}
}

// objective adds a unit penalty for each dependency whose consumer is behind its producer.
func (m *BoolModel) objective(b *formula.Buffer) {
	for i, dep := range m.Inst.Deps {
		gb := m.lit(pool.GroupsBehind(dep.Consumer, dep.Producer))
		b.AddSoft(formula.Soft{Lits: []formula.Lit{-gb}, Weight: 1, Label: dependencyLabel(m.Inst, i)})
	}
}
