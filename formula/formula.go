package formula

import (
	"github.com/crillab/pipeplace/pool"
)

// A Formula is a set of hard constraints and weighted soft clauses
// over variables 1..NbVars.
type Formula struct {
	NbVars int
	Hard   []Constr
	Soft   []Soft
}

// Clausal is true iff all hard constraints of f are propositional clauses.
func (f *Formula) Clausal() bool {
	for _, c := range f.Hard {
		if !c.IsClause() {
			return false
		}
	}
	return true
}

// Eval returns true iff all hard constraints are satisfied by model.
func (f *Formula) Eval(model []bool) bool {
	return len(f.Violated(model)) == 0
}

// Violated returns the indices of the hard constraints falsified by model.
func (f *Formula) Violated(model []bool) []int {
	var res []int
	for i, c := range f.Hard {
		if !c.Sat(model) {
			res = append(res, i)
		}
	}
	return res
}

// Cost returns the sum of the weights of the soft clauses falsified by model.
func (f *Formula) Cost(model []bool) int {
	cost := 0
	for _, s := range f.Soft {
		if !s.Sat(model) {
			cost += s.Weight
		}
	}
	return cost
}

// MaxCost returns the sum of all soft weights.
func (f *Formula) MaxCost() int {
	res := 0
	for _, s := range f.Soft {
		res += s.Weight
	}
	return res
}

// Labels returns the distinct labels of the hard constraints, in order of first appearance.
func (f *Formula) Labels() []string {
	var res []string
	seen := make(map[string]bool)
	for _, c := range f.Hard {
		if !seen[c.Label] {
			seen[c.Label] = true
			res = append(res, c.Label)
		}
	}
	return res
}

// A Sink receives constraints.
type Sink interface {
	// Add adds a hard constraint.
	Add(c Constr)
	// AddSoft adds a soft clause.
	AddSoft(s Soft)
	// Aux returns a new auxiliary variable, as a positive literal.
	Aux() Lit
}

// auxBase is the first identifier used for buffer-local auxiliary variables.
// Merge maps them to identifiers reserved in the pool.
const auxBase = 1 << 30

// A Buffer is an isolated Sink. Its constraints only reach a Formula through Merge.
type Buffer struct {
	name  string
	hard  []Constr
	soft  []Soft
	nbAux int
}

// NewBuffer returns an empty buffer. Its name identifies its auxiliary variables
// and must be unique among the buffers merged together.
func NewBuffer(name string) *Buffer {
	return &Buffer{name: name}
}

// Name returns the name of the buffer.
func (b *Buffer) Name() string { return b.name }

// Len returns the number of hard constraints in b.
func (b *Buffer) Len() int { return len(b.hard) }

// Add adds c to the buffer.
// Clauses are simplified: duplicate literals are removed and tautologies are ignored.
func (b *Buffer) Add(c Constr) {
	if c.IsClause() {
		var ok bool
		if c.Lits, ok = simplify(c.Lits); !ok {
			return
		}
		c.Weights = nil
	}
	b.hard = append(b.hard, c)
}

// AddClause adds a hard clause made of lits, with the given label.
func (b *Buffer) AddClause(label string, lits ...Lit) {
	b.Add(Constr{Lits: lits, AtLeast: 1, Label: label})
}

// AddSoft adds s to the buffer.
func (b *Buffer) AddSoft(s Soft) {
	b.soft = append(b.soft, s)
}

// Aux returns a buffer-local auxiliary variable.
func (b *Buffer) Aux() Lit {
	b.nbAux++
	return Lit(auxBase + b.nbAux - 1)
}

// simplify removes duplicate lits from a clause.
// It returns false if the clause is a tautology.
func simplify(lits []Lit) ([]Lit, bool) {
	res := make([]Lit, 0, len(lits))
	seen := make(map[Lit]bool, len(lits))
	for _, lit := range lits {
		if seen[-lit] {
			return nil, false
		}
		if !seen[lit] {
			seen[lit] = true
			res = append(res, lit)
		}
	}
	return res, true
}

// Merge builds a formula from the content of the buffers, in the given order.
// Auxiliary variables of each buffer are given consecutive identifiers reserved in p,
// so the result only depends on the order of bufs, not on the order the buffers were filled in.
func Merge(p *pool.Pool, bufs ...*Buffer) *Formula {
	var f Formula
	for _, b := range bufs {
		start := 0
		if b.nbAux > 0 {
			start = p.Reserve(b.name, b.nbAux)
		}
		rename := func(lits []Lit) []Lit {
			res := make([]Lit, len(lits))
			for i, lit := range lits {
				res[i] = renumber(lit, start)
			}
			return res
		}
		for _, c := range b.hard {
			c.Lits = rename(c.Lits)
			f.Hard = append(f.Hard, c)
		}
		for _, s := range b.soft {
			s.Lits = rename(s.Lits)
			f.Soft = append(f.Soft, s)
		}
	}
	f.NbVars = p.Top()
	return &f
}

func renumber(lit Lit, start int) Lit {
	v := lit.Var()
	if v < auxBase {
		return lit
	}
	res := Lit(start + v - auxBase)
	if lit < 0 {
		return -res
	}
	return res
}
