package placement

import (
	"errors"
	"fmt"
)

// ErrInconsistent is returned when a model returned by a solver does not describe a valid placement.
// It is always the sign of a bug in the model or in the solver.
var ErrInconsistent = errors.New("inconsistent model")

// topoOrder returns the nodes 0..n-1 sorted so that a appears before b whenever before(a, b).
// Ties are broken by increasing id. It fails if the relation has a cycle.
func topoOrder(n int, before func(a, b int) bool) ([]int, error) {
	succ := make([][]int, n)
	indegree := make([]int, n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			if a != b && before(a, b) {
				succ[a] = append(succ[a], b)
				indegree[b]++
			}
		}
	}
	var ready []int
	for v := 0; v < n; v++ {
		if indegree[v] == 0 {
			ready = append(ready, v)
		}
	}
	order := make([]int, 0, n)
	for len(ready) > 0 {
		v := ready[0]
		ready = ready[1:]
		order = append(order, v)
		for _, w := range succ[v] {
			indegree[w]--
			if indegree[w] == 0 {
				ready = insertSorted(ready, w)
			}
		}
	}
	if len(order) != n {
		var cycle []int
		for v := 0; v < n; v++ {
			if indegree[v] > 0 {
				cycle = append(cycle, v+1)
			}
		}
		return nil, fmt.Errorf("%w: precedence relation has a cycle through switches %v", ErrInconsistent, cycle)
	}
	return order, nil
}

func insertSorted(vals []int, v int) []int {
	i := 0
	for i < len(vals) && vals[i] < v {
		i++
	}
	vals = append(vals, 0)
	copy(vals[i+1:], vals[i:])
	vals[i] = v
	return vals
}
