package placement

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/pipeplace/engine"
	"github.com/crillab/pipeplace/explain"
	"github.com/crillab/pipeplace/formula"
	"github.com/crillab/pipeplace/problem"
)

// configs lists all supported combinations of representation, engine and encoding.
func configs() []Config {
	var res []Config
	for _, repr := range []Representation{Boolean, Arithmetic} {
		for _, kind := range []engine.Kind{engine.Gophersat, engine.Gini} {
			for _, enc := range []formula.Encoding{formula.Auto, formula.SeqCounter} {
				if kind == engine.Gini && enc == formula.SeqCounter {
					continue // Same as Auto
				}
				cfg := DefaultConfig()
				cfg.Representation = repr
				cfg.Engine = engine.Config{Kind: kind, Encoding: enc}
				res = append(res, cfg)
			}
		}
	}
	return res
}

func name(cfg Config) string {
	return fmt.Sprintf("%v/%v/%v", cfg.Representation, cfg.Engine.Kind, cfg.Engine.Encoding)
}

func parse(t *testing.T, text string) *problem.Instance {
	t.Helper()
	inst, err := problem.Parse(strings.NewReader(text))
	require.NoError(t, err)
	return inst
}

func write(t *testing.T, sol *problem.Solution) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, problem.Write(&buf, sol))
	return buf.String()
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cost  int
		want  string // Expected output, if the optimum is unique
	}{
		{"scenario A", "2\n1\n1 1\n1\n2\n0\n", 0, "0\n1\n1 2\n"},
		{"scenario C", "2\n1\n1 1\n1\n2\n1\n2 1\n", 1, "1\n1\n1 2\n"},
		{"sequential stages", "2\n1\n1 1\n2\n1\n1\n1 2\n", 0, "0\n1\n1, 2\n"},
		{"shared stage", "2\n1\n1 1\n1\n2\n1\n1 2\n", 1, "1\n1\n1 2\n"},
		{"scenario B", "2\n2\n1 1\n1 1\n1 1\n1\n1 2\n", 0, ""},
		{"self dependency", "2\n1\n1 1\n2\n1\n1\n1 1\n", 1, ""},
		{"empty switch", "3\n2\n1 1 1\n0 3\n5 1\n2\n1 2\n2 3\n", 0, ""},
		{"forced recirculation", "2\n1\n1 1\n2\n1\n2\n1 2\n2 1\n", 1, ""},
	}
	for _, test := range tests {
		inst := parse(t, test.input)
		for _, cfg := range configs() {
			t.Run(test.name+"/"+name(cfg), func(t *testing.T) {
				sol, err := Solve(context.Background(), inst, cfg)
				require.NoError(t, err)
				assert.True(t, sol.Optimal)
				assert.Equal(t, test.cost, sol.Cost)
				assert.NoError(t, problem.Verify(inst, sol))
				if test.want != "" {
					assert.Equal(t, test.want, write(t, sol))
				}
			})
		}
	}
}

func TestSolveUpstreamOrder(t *testing.T) {
	inst := parse(t, "2\n2\n1 1\n1 1\n1 1\n1\n1 2\n")
	for _, cfg := range configs() {
		t.Run(name(cfg), func(t *testing.T) {
			sol, err := Solve(context.Background(), inst, cfg)
			require.NoError(t, err)
			sw, _ := sol.Locate(inst.NbGroups())
			require.NotEqual(t, sw[0], sw[1])
			assert.Equal(t, sw[0], sol.Order[0], "producer must be on the first switch")
		})
	}
}

func TestSolveInfeasible(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too much memory", "2\n1\n3 3\n1\n5\n0\n"},
		{"group too large", "2\n2\n1 4\n2 2\n3 3\n0\n"},
		{"opposite dependencies", "2\n2\n1 1\n1 1\n1 1\n2\n1 2\n2 1\n"},
		{"no stage", "2\n2\n1 1\n0 0\n1 1\n0\n"},
	}
	for _, test := range tests {
		inst := parse(t, test.input)
		for _, cfg := range configs() {
			t.Run(test.name+"/"+name(cfg), func(t *testing.T) {
				_, err := Solve(context.Background(), inst, cfg)
				assert.ErrorIs(t, err, engine.ErrInfeasible)
			})
		}
	}
}

// degradedSolver runs a real engine, then alters the status and cost it reports.
type degradedSolver struct {
	engine.BoolSolver
	status engine.Status
	shift  int
}

func (s degradedSolver) Solve(ctx context.Context, f *formula.Formula) (*engine.Result, error) {
	res, err := s.BoolSolver.Solve(ctx, f)
	if err != nil {
		return nil, err
	}
	res.Status = s.status
	res.Cost += s.shift
	return res, nil
}

func TestSolveNotOptimal(t *testing.T) {
	inst := parse(t, "2\n1\n1 1\n1\n2\n1\n2 1\n")
	for _, repr := range []Representation{Boolean, Arithmetic} {
		t.Run(repr.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Representation = repr
			cfg.Solver = degradedSolver{BoolSolver: engine.New(cfg.Engine), status: engine.Feasible, shift: 1}
			sol, err := Solve(context.Background(), inst, cfg)
			require.NoError(t, err)
			assert.False(t, sol.Optimal)
			assert.Equal(t, 1, sol.Cost)
			assert.NoError(t, problem.Verify(inst, sol))
		})
	}
}

func TestSolveCostMismatch(t *testing.T) {
	inst := parse(t, "2\n1\n1 1\n1\n2\n1\n2 1\n")
	cfg := DefaultConfig()
	cfg.Solver = degradedSolver{BoolSolver: engine.New(cfg.Engine), status: engine.Optimal, shift: 1}
	_, err := Solve(context.Background(), inst, cfg)
	assert.ErrorIs(t, err, ErrInconsistent)
}

func TestSolveInvalid(t *testing.T) {
	inst := &problem.Instance{Required: []int{1}, Stages: []int{1}, Capacity: []int{1}}
	_, err := Solve(context.Background(), inst, DefaultConfig())
	var verr *problem.ValidationError
	assert.ErrorAs(t, err, &verr)
}

// bruteForce returns the optimal cost of inst, or -1 if it is infeasible.
func bruteForce(inst *problem.Instance) int {
	type slot struct{ sw, stage int }
	var slots []slot
	for sw, n := range inst.Stages {
		for stage := 0; stage < n; stage++ {
			slots = append(slots, slot{sw, stage})
		}
	}
	best := -1
	for _, order := range permutations(inst.NbSwitches()) {
		pos := make([]int, len(order))
		for p, sw := range order {
			pos[sw] = p
		}
		choice := make([]int, inst.NbGroups())
		var rec func(g int)
		rec = func(g int) {
			if g < len(choice) {
				for i := range slots {
					choice[g] = i
					rec(g + 1)
				}
				return
			}
			used := make(map[slot]int)
			for g, i := range choice {
				used[slots[i]] += inst.Required[g]
				if used[slots[i]] > inst.Capacity[slots[i].sw] {
					return
				}
			}
			cost := 0
			for _, dep := range inst.Deps {
				p, c := slots[choice[dep.Producer]], slots[choice[dep.Consumer]]
				if pos[c.sw] < pos[p.sw] {
					return
				}
				if problem.Recirculates(p.sw, p.stage, c.sw, c.stage) {
					cost++
				}
			}
			if best == -1 || cost < best {
				best = cost
			}
		}
		rec(0)
	}
	return best
}

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var res [][]int
	for _, perm := range permutations(n - 1) {
		for i := 0; i <= len(perm); i++ {
			p := make([]int, 0, n)
			p = append(p, perm[:i]...)
			p = append(p, n-1)
			p = append(p, perm[i:]...)
			res = append(res, p)
		}
	}
	return res
}

func randomInstance(rng *rand.Rand) *problem.Instance {
	nbGroups := 2 + rng.Intn(2)
	nbSwitches := 1 + rng.Intn(2)
	inst := &problem.Instance{}
	for g := 0; g < nbGroups; g++ {
		inst.Required = append(inst.Required, 1+rng.Intn(2))
	}
	for sw := 0; sw < nbSwitches; sw++ {
		inst.Stages = append(inst.Stages, 1+rng.Intn(2))
		inst.Capacity = append(inst.Capacity, 1+rng.Intn(3))
	}
	nbDeps := rng.Intn(4)
	for i := 0; i < nbDeps; i++ {
		inst.Deps = append(inst.Deps, problem.Dependency{Producer: rng.Intn(nbGroups), Consumer: rng.Intn(nbGroups)})
	}
	return inst
}

func TestRandomAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 15; i++ {
		inst := randomInstance(rng)
		want := bruteForce(inst)
		for _, cfg := range configs() {
			sol, err := Solve(context.Background(), inst, cfg)
			if want == -1 {
				assert.ErrorIs(t, err, engine.ErrInfeasible, "instance %d, %s", i, name(cfg))
				continue
			}
			if assert.NoError(t, err, "instance %d, %s", i, name(cfg)) {
				assert.Equal(t, want, sol.Cost, "instance %d, %s", i, name(cfg))
			}
		}
	}
}

func TestParallelBuildIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		inst := randomInstance(rng)
		for _, enc := range []formula.Encoding{formula.Native, formula.SeqCounter} {
			seq := BuildBoolean(inst, enc, false)
			par := BuildBoolean(inst, enc, true)
			assert.Equal(t, seq.Formula, par.Formula)
		}
	}
}

func TestDecodeInconsistent(t *testing.T) {
	inst := parse(t, "2\n2\n1 1\n1 1\n1 1\n0\n")
	m := BuildBoolean(inst, formula.Native, false)
	_, err := m.DecodeBoolean(make([]bool, m.Formula.NbVars))
	assert.ErrorIs(t, err, ErrInconsistent)

	im := BuildArithmetic(inst)
	_, err = im.DecodeArithmetic([]int{0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrInconsistent)
	_, err = im.DecodeArithmetic(nil)
	assert.ErrorIs(t, err, ErrInconsistent)
}

func TestTopoOrder(t *testing.T) {
	edges := map[[2]int]bool{{2, 0}: true, {0, 1}: true, {3, 1}: true}
	order, err := topoOrder(4, func(a, b int) bool { return edges[[2]int{a, b}] })
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 3, 1}, order)

	edges[[2]int{1, 2}] = true
	_, err = topoOrder(4, func(a, b int) bool { return edges[[2]int{a, b}] })
	assert.ErrorIs(t, err, ErrInconsistent)
}

func TestExplain(t *testing.T) {
	inst := parse(t, "2\n2\n1 1\n1 1\n1 1\n2\n1 2\n2 1\n")
	mus, err := Explain(context.Background(), inst)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"placement of group 1",
		"placement of group 2",
		"capacity of stage 1 of switch 1",
		"capacity of stage 1 of switch 2",
		"dependency 1 -> 2",
		"dependency 2 -> 1",
	}, mus)

	_, err = Explain(context.Background(), parse(t, "2\n1\n1 1\n2\n1\n1\n1 2\n"))
	assert.ErrorIs(t, err, explain.ErrSatisfiable)
}

func TestRepresentationFlag(t *testing.T) {
	var r Representation
	require.NoError(t, r.Set("arithmetic"))
	assert.Equal(t, Arithmetic, r)
	assert.Equal(t, "arithmetic", r.String())
	assert.Error(t, r.Set("integer"))
	assert.Equal(t, "Representation(5)", Representation(5).String())
}

func ExampleSolve() {
	input := "3\n1\n2 1 1\n2\n2\n2\n1 2\n1 3\n"
	inst, err := problem.Parse(strings.NewReader(input))
	if err != nil {
		fmt.Printf("could not parse instance: %v", err)
		return
	}
	sol, err := Solve(context.Background(), inst, DefaultConfig())
	if err != nil {
		fmt.Printf("could not solve instance: %v", err)
		return
	}
	if err := problem.Write(os.Stdout, sol); err != nil {
		fmt.Printf("could not write solution: %v", err)
	}
	// Output:
	// 0
	// 1
	// 1, 2 3
}
