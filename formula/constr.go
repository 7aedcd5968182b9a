package formula

import (
	"fmt"
	"strings"
)

// A Lit is a potentially negated boolean variable, in DIMACS format.
type Lit int

// Var returns the variable of the literal.
func (l Lit) Var() int {
	if l < 0 {
		return int(-l)
	}
	return int(l)
}

// Negation returns the logical negation of l.
func (l Lit) Negation() Lit { return -l }

// IsPositive is true iff l is not negated.
func (l Lit) IsPositive() bool { return l > 0 }

// Value returns the value of l in model, where model[v-1] is the value of var v.
// Vars outside the model are false.
func Value(model []bool, l Lit) bool {
	v := l.Var()
	val := v <= len(model) && model[v-1]
	return val == l.IsPositive()
}

// A Constr is a pseudo-boolean constraint: the weighted sum of its true literals
// must be at least AtLeast. If Weights is nil, all weights are 1.
// A propositional clause is a Constr with unit weights and AtLeast == 1.
type Constr struct {
	Lits    []Lit
	Weights []int
	AtLeast int
	Label   string // Name of the constraint group it belongs to.
}

// Clause returns a constraint stating that at least one of the lits must be true.
func Clause(lits ...Lit) Constr {
	return Constr{Lits: lits, AtLeast: 1}
}

// AtLeast returns a cardinality constraint stating that at least k of the lits must be true.
func AtLeast(lits []Lit, k int) Constr {
	return Constr{Lits: lits, AtLeast: k}
}

// AtMost returns a cardinality constraint stating that at most k of the lits can be true.
func AtMost(lits []Lit, k int) Constr {
	neg := make([]Lit, len(lits))
	for i, lit := range lits {
		neg[i] = -lit
	}
	return Constr{Lits: neg, AtLeast: len(lits) - k}
}

// GtEq returns a PB constraint stating that the sum of all literals multiplied by their weight
// must be at least n.
// Negative weights are removed by negating their literal, null weights are dropped.
// Input slices are not modified.
// Will panic if weights is not nil and len(weights) != len(lits).
func GtEq(lits []Lit, weights []int, n int) Constr {
	if weights == nil {
		res := make([]Lit, len(lits))
		copy(res, lits)
		return Constr{Lits: res, AtLeast: n}
	}
	if len(lits) != len(weights) {
		panic("not as many lits as weights")
	}
	resLits := make([]Lit, 0, len(lits))
	resWeights := make([]int, 0, len(weights))
	for i, w := range weights {
		switch {
		case w < 0:
			resLits = append(resLits, -lits[i])
			resWeights = append(resWeights, -w)
			n -= w
		case w > 0:
			resLits = append(resLits, lits[i])
			resWeights = append(resWeights, w)
		}
	}
	return Constr{Lits: resLits, Weights: resWeights, AtLeast: n}
}

// LtEq returns a PB constraint stating that the sum of all literals multiplied by their weight
// must be at most n.
func LtEq(lits []Lit, weights []int, n int) Constr {
	neg := make([]int, len(lits))
	for i := range lits {
		neg[i] = -weight(weights, i)
	}
	return GtEq(lits, neg, -n)
}

// Eq returns two PB constraints stating that the sum of all literals multiplied by their weight
// must be exactly n.
func Eq(lits []Lit, weights []int, n int) []Constr {
	return []Constr{GtEq(lits, weights, n), LtEq(lits, weights, n)}
}

func weight(weights []int, i int) int {
	if weights == nil {
		return 1
	}
	return weights[i]
}

// WeightSum returns the sum of the weights of c.
func (c Constr) WeightSum() int {
	if c.Weights == nil {
		return len(c.Lits)
	}
	sum := 0
	for _, w := range c.Weights {
		sum += w
	}
	return sum
}

// IsClause is true iff c is a propositional clause.
func (c Constr) IsClause() bool {
	if c.AtLeast != 1 {
		return false
	}
	for _, w := range c.Weights {
		if w != 1 {
			return false
		}
	}
	return true
}

// Sat returns true iff c is satisfied by model.
func (c Constr) Sat(model []bool) bool {
	sum := 0
	for i, lit := range c.Lits {
		if Value(model, lit) {
			sum += weight(c.Weights, i)
		}
	}
	return sum >= c.AtLeast
}

// Ints returns the lits of c as plain ints.
func (c Constr) Ints() []int {
	res := make([]int, len(c.Lits))
	for i, lit := range c.Lits {
		res[i] = int(lit)
	}
	return res
}

// String returns c in OPB syntax, without the final semicolon.
func (c Constr) String() string {
	terms := make([]string, len(c.Lits))
	for i, lit := range c.Lits {
		terms[i] = fmt.Sprintf("+%d %s", weight(c.Weights, i), opbLit(lit))
	}
	return fmt.Sprintf("%s >= %d", strings.Join(terms, " "), c.AtLeast)
}

func opbLit(lit Lit) string {
	if lit < 0 {
		return fmt.Sprintf("~x%d", -lit)
	}
	return fmt.Sprintf("x%d", lit)
}

// A Soft is a weighted clause: if none of its lits is true, Weight is added to the cost.
type Soft struct {
	Lits   []Lit
	Weight int
	Label  string
}

// Sat returns true iff s is satisfied by model.
func (s Soft) Sat(model []bool) bool {
	for _, lit := range s.Lits {
		if Value(model, lit) {
			return true
		}
	}
	return false
}
