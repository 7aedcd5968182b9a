package problem

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// A Solution is a placement of all groups and an order of all switches.
type Solution struct {
	Cost    int       // Number of recirculations.
	Order   []int     // Order[p] is the switch in position p.
	Stages  [][][]int // Stages[s][i] lists the groups in stage i of switch s, in increasing order.
	Optimal bool      // False if the solver was interrupted before proving optimality.
}

// Recirculates returns true iff dep needs a recirculation when its producer
// is in stage prodStage of switch prodSw and its consumer in stage consStage of switch consSw.
func Recirculates(prodSw, prodStage, consSw, consStage int) bool {
	return prodSw == consSw && prodStage >= consStage
}

// Locate returns, for each group, the switch and stage it is placed in.
// Unplaced groups are at (-1, -1).
func (sol *Solution) Locate(nbGroups int) (sw, stage []int) {
	sw = make([]int, nbGroups)
	stage = make([]int, nbGroups)
	for g := range sw {
		sw[g], stage[g] = -1, -1
	}
	for s, stages := range sol.Stages {
		for i, groups := range stages {
			for _, g := range groups {
				if g >= 0 && g < nbGroups {
					sw[g], stage[g] = s, i
				}
			}
		}
	}
	return sw, stage
}

// Cost returns the number of recirculations induced by the placement of sol.
func Cost(inst *Instance, sol *Solution) int {
	sw, stage := sol.Locate(inst.NbGroups())
	return lo.CountBy(inst.Deps, func(dep Dependency) bool {
		return sw[dep.Producer] >= 0 && Recirculates(sw[dep.Producer], stage[dep.Producer], sw[dep.Consumer], stage[dep.Consumer])
	})
}

func joinIDs(ids []int) string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	return strings.Join(lo.Map(sorted, func(id int, _ int) string { return strconv.Itoa(id + 1) }), " ")
}

// Write writes sol in the text format: cost, switch order, then one line per switch,
// by increasing switch id, listing the groups of each stage.
func Write(w io.Writer, sol *Solution) error {
	if _, err := fmt.Fprintf(w, "%d\n%s\n", sol.Cost, strings.Join(lo.Map(sol.Order, func(s int, _ int) string {
		return strconv.Itoa(s + 1)
	}), " ")); err != nil {
		return fmt.Errorf("could not write solution: %w", err)
	}
	for _, stages := range sol.Stages {
		line := strings.Join(lo.Map(stages, func(groups []int, _ int) string { return joinIDs(groups) }), ", ")
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("could not write solution: %w", err)
		}
	}
	return nil
}

// WriteNoSolution writes the answer for an infeasible instance.
func WriteNoSolution(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "No solution"); err != nil {
		return fmt.Errorf("could not write solution: %w", err)
	}
	return nil
}
