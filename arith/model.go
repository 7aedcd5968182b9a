// Package arith describes integer optimization models: bounded integer variables,
// all-different constraints, conditional linear inequalities, indicator sums
// and weighted soft rules.
//
// It is the representation used by the arithmetic placement strategy.
// A Model does not solve anything by itself: engines lower it to whatever they accept.
package arith

import (
	"fmt"
	"strings"
)

// A Domain is the inclusive range of values of a variable.
type Domain struct {
	Lo, Hi int
}

// Size returns the number of values in d.
func (d Domain) Size() int {
	if d.Hi < d.Lo {
		return 0
	}
	return d.Hi - d.Lo + 1
}

// An Atom is the condition "Var == Val".
type Atom struct {
	Var, Val int
}

// A Term is Coeff * Var.
type Term struct {
	Coeff, Var int
}

// A Rule states that, if all atoms of When hold, sum(Terms) <= Bound.
// A Rule with no atoms is unconditional.
type Rule struct {
	When  []Atom
	Terms []Term
	Bound int
	Label string
}

// A CondTerm contributes Coeff to a Sum when all its atoms hold.
type CondTerm struct {
	Coeff int
	When  []Atom
}

// A Sum states that the total contribution of its terms is at most Bound.
type Sum struct {
	Terms []CondTerm
	Bound int
	Label string
}

// A Soft costs Weight if any of its rules is violated.
type Soft struct {
	Rules  []Rule
	Weight int
	Label  string
}

// A Model is a set of integer variables and constraints over them.
// Variables are identified by their index in Vars.
type Model struct {
	Vars    []Domain
	Names   []string
	AllDiff [][]int
	Rules   []Rule
	Sums    []Sum
	Soft    []Soft
}

// NewVar adds a variable to m and returns its index.
func (m *Model) NewVar(name string, lo, hi int) int {
	m.Vars = append(m.Vars, Domain{Lo: lo, Hi: hi})
	m.Names = append(m.Names, name)
	return len(m.Vars) - 1
}

func (a Atom) holds(values []int) bool {
	return values[a.Var] == a.Val
}

func allHold(atoms []Atom, values []int) bool {
	for _, a := range atoms {
		if !a.holds(values) {
			return false
		}
	}
	return true
}

// Sat returns true iff r is satisfied by values.
func (r Rule) Sat(values []int) bool {
	if !allHold(r.When, values) {
		return true
	}
	sum := 0
	for _, t := range r.Terms {
		sum += t.Coeff * values[t.Var]
	}
	return sum <= r.Bound
}

// Total returns the contribution of all terms of s whose atoms hold.
func (s Sum) Total(values []int) int {
	total := 0
	for _, t := range s.Terms {
		if allHold(t.When, values) {
			total += t.Coeff
		}
	}
	return total
}

// Sat returns true iff s is satisfied by values.
func (s Soft) Sat(values []int) bool {
	for _, r := range s.Rules {
		if !r.Sat(values) {
			return false
		}
	}
	return true
}

// Check returns an error describing every hard constraint violated by values.
func (m *Model) Check(values []int) error {
	if len(values) != len(m.Vars) {
		return fmt.Errorf("expected %d values, got %d", len(m.Vars), len(values))
	}
	var errs []string
	for i, d := range m.Vars {
		if values[i] < d.Lo || values[i] > d.Hi {
			errs = append(errs, fmt.Sprintf("%s=%d out of [%d, %d]", m.name(i), values[i], d.Lo, d.Hi))
		}
	}
	for _, vars := range m.AllDiff {
		seen := make(map[int]int)
		for _, v := range vars {
			if w, ok := seen[values[v]]; ok {
				errs = append(errs, fmt.Sprintf("%s and %s are both %d", m.name(w), m.name(v), values[v]))
			}
			seen[values[v]] = v
		}
	}
	for _, r := range m.Rules {
		if !r.Sat(values) {
			errs = append(errs, fmt.Sprintf("rule %q violated", r.Label))
		}
	}
	for _, s := range m.Sums {
		if total := s.Total(values); total > s.Bound {
			errs = append(errs, fmt.Sprintf("sum %q is %d, more than %d", s.Label, total, s.Bound))
		}
	}
	if len(errs) != 0 {
		return fmt.Errorf("invalid assignment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Cost returns the total weight of the soft constraints violated by values.
func (m *Model) Cost(values []int) int {
	cost := 0
	for _, s := range m.Soft {
		if !s.Sat(values) {
			cost += s.Weight
		}
	}
	return cost
}

func (m *Model) name(v int) string {
	if v < len(m.Names) && m.Names[v] != "" {
		return m.Names[v]
	}
	return fmt.Sprintf("x%d", v)
}
