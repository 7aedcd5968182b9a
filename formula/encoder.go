package formula

import (
	"fmt"
)

// An Encoding is a way to express cardinality and pseudo-boolean constraints.
type Encoding int

const (
	// Auto lets the engine choose: Native if it accepts PB constraints, SeqCounter otherwise.
	Auto Encoding = iota
	// Native emits one PB constraint per cardinality constraint.
	Native
	// SeqCounter emits propositional clauses only, through a weighted sequential counter.
	SeqCounter
)

var encodingNames = []string{"auto", "native", "seqcounter"}

func (e Encoding) String() string {
	if e < 0 || int(e) >= len(encodingNames) {
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
	return encodingNames[e]
}

// Set implements flag.Value.
func (e *Encoding) Set(s string) error {
	for i, name := range encodingNames {
		if name == s {
			*e = Encoding(i)
			return nil
		}
	}
	return fmt.Errorf("invalid encoding %q, expected one of %v", s, encodingNames)
}

// An Encoder translates constraints on the weighted sum of a multiset of lits into constraints
// accepted by a Sink. If weights is nil, all weights are 1. Weights must be positive.
// All emitted constraints are labelled with label.
type Encoder interface {
	// AtMost states that the weighted sum of the true lits is at most k.
	AtMost(s Sink, label string, lits []Lit, weights []int, k int)
	// AtLeast states that the weighted sum of the true lits is at least k.
	AtLeast(s Sink, label string, lits []Lit, weights []int, k int)
	// Exactly states that the weighted sum of the true lits is exactly k.
	Exactly(s Sink, label string, lits []Lit, weights []int, k int)
}

// NewEncoder returns the encoder for e. Auto is resolved to Native.
func NewEncoder(e Encoding) Encoder {
	if e == SeqCounter {
		return seqCounter{}
	}
	return native{}
}

type native struct{}

func (native) AtMost(s Sink, label string, lits []Lit, weights []int, k int) {
	c := LtEq(lits, weights, k)
	if c.AtLeast <= 0 {
		return
	}
	c.Label = label
	s.Add(c)
}

func (native) AtLeast(s Sink, label string, lits []Lit, weights []int, k int) {
	if k <= 0 {
		return
	}
	c := GtEq(lits, weights, k)
	c.Label = label
	s.Add(c)
}

func (n native) Exactly(s Sink, label string, lits []Lit, weights []int, k int) {
	n.AtLeast(s, label, lits, weights, k)
	n.AtMost(s, label, lits, weights, k)
}

// seqCounter is the weighted sequential counter of Hölldobler, Manthey and Steinke.
// Register bit r[i][j] means "the weighted sum of the first i+1 lits is at least j+1".
type seqCounter struct{}

func (seqCounter) AtMost(s Sink, label string, lits []Lit, weights []int, k int) {
	if k < 0 {
		falsum(s, label)
		return
	}
	var xs []Lit
	var ws []int
	total := 0
	for i, lit := range lits {
		w := weight(weights, i)
		switch {
		case w <= 0:
		case w > k:
			s.Add(Constr{Lits: []Lit{-lit}, AtLeast: 1, Label: label})
		default:
			xs = append(xs, lit)
			ws = append(ws, w)
			total += w
		}
	}
	if total <= k {
		return
	}
	clause := func(lits ...Lit) {
		s.Add(Constr{Lits: lits, AtLeast: 1, Label: label})
	}
	var prev []Lit
	for i, x := range xs {
		w := ws[i]
		if prev != nil {
			// Adding x to a sum already greater than k-w exceeds the bound.
			clause(-x, -prev[k-w])
		}
		if i == len(xs)-1 {
			break
		}
		cur := make([]Lit, k)
		for j := range cur {
			cur[j] = s.Aux()
		}
		for j := 0; j < w; j++ {
			clause(-x, cur[j])
		}
		if prev != nil {
			for j := 0; j < k; j++ {
				clause(-prev[j], cur[j])
				if j+w < k {
					clause(-x, -prev[j], cur[j+w])
				}
			}
		}
		prev = cur
	}
}

func (sc seqCounter) AtLeast(s Sink, label string, lits []Lit, weights []int, k int) {
	if k <= 0 {
		return
	}
	total := 0
	maxW := 0
	for i := range lits {
		w := weight(weights, i)
		if w > 0 {
			total += w
		}
		if w > maxW {
			maxW = w
		}
	}
	if total < k {
		falsum(s, label)
		return
	}
	if k == 1 || allAtLeast(weights, len(lits), k) {
		var clause []Lit
		for i, lit := range lits {
			if weight(weights, i) > 0 {
				clause = append(clause, lit)
			}
		}
		s.Add(Constr{Lits: clause, AtLeast: 1, Label: label})
		return
	}
	// At least k of the weight is true iff at most total-k of the weight is false.
	neg := make([]Lit, len(lits))
	for i, lit := range lits {
		neg[i] = -lit
	}
	sc.AtMost(s, label, neg, weights, total-k)
}

func (sc seqCounter) Exactly(s Sink, label string, lits []Lit, weights []int, k int) {
	sc.AtLeast(s, label, lits, weights, k)
	sc.AtMost(s, label, lits, weights, k)
}

// allAtLeast is true iff every positive weight is at least k.
func allAtLeast(weights []int, n, k int) bool {
	for i := 0; i < n; i++ {
		if w := weight(weights, i); w > 0 && w < k {
			return false
		}
	}
	return true
}

// falsum adds an unsatisfiable pair of clauses to s.
func falsum(s Sink, label string) {
	a := s.Aux()
	s.Add(Constr{Lits: []Lit{a}, AtLeast: 1, Label: label})
	s.Add(Constr{Lits: []Lit{-a}, AtLeast: 1, Label: label})
}
