// Package problem describes placement instances and their solutions.
//
// An instance is a set of groups of forwarding rules, each with a memory requirement,
// to be placed in the stages of a set of switches whose relative order in the pipeline
// is free. Dependencies between groups should be satisfied without sending packets
// through the pipeline a second time (a recirculation).
//
// All ids are 0-based in this package. Text input and output use 1-based ids.
package problem

import (
	"fmt"

	"github.com/samber/lo"
)

// A Group is an indivisible set of rules.
type Group struct {
	ID     int
	Memory int
}

// A Stage is a slot of a switch.
type Stage struct {
	Switch   int
	Index    int
	Capacity int
}

// A Switch is an ordered sequence of stages.
type Switch struct {
	ID     int
	Stages []Stage
}

// A Dependency states that Producer must be reachable no later than Consumer.
type Dependency struct {
	Producer, Consumer int
}

// An Instance is a placement problem.
type Instance struct {
	Required []int        // Required[g] is the memory needed by group g.
	Stages   []int        // Stages[s] is the number of stages of switch s.
	Capacity []int        // Capacity[s] is the capacity of each stage of switch s.
	Deps     []Dependency // Dependencies between groups.
}

// NbGroups returns the number of groups of the instance.
func (inst *Instance) NbGroups() int { return len(inst.Required) }

// NbSwitches returns the number of switches of the instance.
func (inst *Instance) NbSwitches() int { return len(inst.Stages) }

// Groups returns all groups of the instance.
func (inst *Instance) Groups() []Group {
	return lo.Map(inst.Required, func(mem int, g int) Group {
		return Group{ID: g, Memory: mem}
	})
}

// Switches returns all switches of the instance, with their stages.
func (inst *Instance) Switches() []Switch {
	return lo.Map(inst.Stages, func(n int, s int) Switch {
		return Switch{ID: s, Stages: lo.Times(n, func(i int) Stage {
			return Stage{Switch: s, Index: i, Capacity: inst.Capacity[s]}
		})}
	})
}

// TotalMemory returns the memory required by all groups.
func (inst *Instance) TotalMemory() int { return lo.Sum(inst.Required) }

// TotalCapacity returns the memory available in all stages.
func (inst *Instance) TotalCapacity() int {
	total := 0
	for s, n := range inst.Stages {
		total += n * inst.Capacity[s]
	}
	return total
}

// MaxStages returns the greatest number of stages of a switch.
func (inst *Instance) MaxStages() int {
	if len(inst.Stages) == 0 {
		return 0
	}
	return lo.Max(inst.Stages)
}

// Infeasible returns a reason why inst obviously has no solution, if any.
// A false result does not mean the instance is feasible.
func (inst *Instance) Infeasible() (reason string, ok bool) {
	if mem, capa := inst.TotalMemory(), inst.TotalCapacity(); mem > capa {
		return fmt.Sprintf("total required memory %d exceeds total capacity %d", mem, capa), true
	}
	largest := 0
	for s, n := range inst.Stages {
		if n > 0 && inst.Capacity[s] > largest {
			largest = inst.Capacity[s]
		}
	}
	for g, mem := range inst.Required {
		if mem > largest {
			return fmt.Sprintf("group %d needs %d, more than any stage can hold", g+1, mem), true
		}
	}
	return "", false
}

// A ValidationError is returned when an instance does not respect the input format.
type ValidationError struct {
	Line int    // Line of the input where the error was found, or 0.
	Msg  string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func invalid(line int, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks the structure of the instance.
func (inst *Instance) Validate() error {
	if inst.NbGroups() <= 1 {
		return invalid(0, "Number of groups of rules must be greater than 1")
	}
	if inst.NbSwitches() < 1 {
		return invalid(0, "Number of switches must be positive")
	}
	if len(inst.Capacity) != inst.NbSwitches() {
		return invalid(0, "expected %d capacities, got %d", inst.NbSwitches(), len(inst.Capacity))
	}
	for g, mem := range inst.Required {
		if mem <= 0 {
			return invalid(0, "group %d: required memory must be positive, got %d", g+1, mem)
		}
	}
	for s := range inst.Stages {
		if inst.Stages[s] < 0 {
			return invalid(0, "switch %d: number of stages must not be negative, got %d", s+1, inst.Stages[s])
		}
		if inst.Capacity[s] < 0 {
			return invalid(0, "switch %d: capacity must not be negative, got %d", s+1, inst.Capacity[s])
		}
	}
	for _, dep := range inst.Deps {
		if dep.Producer < 0 || dep.Producer >= inst.NbGroups() || dep.Consumer < 0 || dep.Consumer >= inst.NbGroups() {
			return invalid(0, "invalid dependency %d %d: groups must be between 1 and %d", dep.Producer+1, dep.Consumer+1, inst.NbGroups())
		}
	}
	return nil
}
