package problem

import (
	"fmt"
	"strings"
)

// An InvariantError lists the properties a solution fails to respect.
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invalid solution: %s", strings.Join(e.Violations, "; "))
}

// Verify checks that sol is a valid solution for inst:
// every group is in exactly one stage, the order is a permutation of the switches,
// no stage is over capacity, no consumer is on a switch before its producer's switch,
// and the announced cost is the actual number of recirculations.
func Verify(inst *Instance, sol *Solution) error {
	var errs []string
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}
	nbSwitches := inst.NbSwitches()
	pos := make([]int, nbSwitches)
	for s := range pos {
		pos[s] = -1
	}
	if len(sol.Order) != nbSwitches {
		fail("order has %d switches, expected %d", len(sol.Order), nbSwitches)
	}
	for p, s := range sol.Order {
		switch {
		case s < 0 || s >= nbSwitches:
			fail("unknown switch %d in position %d", s+1, p+1)
		case pos[s] != -1:
			fail("switch %d in positions %d and %d", s+1, pos[s]+1, p+1)
		default:
			pos[s] = p
		}
	}
	if len(sol.Stages) != nbSwitches {
		fail("placement describes %d switches, expected %d", len(sol.Stages), nbSwitches)
		return &InvariantError{Violations: errs}
	}
	seen := make([]int, inst.NbGroups())
	for s, stages := range sol.Stages {
		if len(stages) != inst.Stages[s] {
			fail("switch %d has %d stages, expected %d", s+1, len(stages), inst.Stages[s])
		}
		for i, groups := range stages {
			mem := 0
			for _, g := range groups {
				if g < 0 || g >= inst.NbGroups() {
					fail("unknown group %d in stage %d of switch %d", g+1, i+1, s+1)
					continue
				}
				seen[g]++
				mem += inst.Required[g]
			}
			if mem > inst.Capacity[s] {
				fail("stage %d of switch %d holds %d, capacity is %d", i+1, s+1, mem, inst.Capacity[s])
			}
		}
	}
	for g, n := range seen {
		if n != 1 {
			fail("group %d placed %d times", g+1, n)
		}
	}
	if len(errs) == 0 {
		sw, _ := sol.Locate(inst.NbGroups())
		for _, dep := range inst.Deps {
			if pos[sw[dep.Consumer]] < pos[sw[dep.Producer]] {
				fail("group %d on switch %d is before group %d on switch %d", dep.Consumer+1, sw[dep.Consumer]+1, dep.Producer+1, sw[dep.Producer]+1)
			}
		}
		if cost := Cost(inst, sol); cost != sol.Cost {
			fail("announced cost is %d, actual cost is %d", sol.Cost, cost)
		}
	}
	if len(errs) != 0 {
		return &InvariantError{Violations: errs}
	}
	return nil
}
