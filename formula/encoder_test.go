package formula

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/gophersat/solver"
	"github.com/crillab/pipeplace/pool"
)

// satisfiable returns true iff f is satisfiable when its first vars are given the values of primary.
func satisfiable(f *Formula, primary []bool) bool {
	constrs := make([]solver.PBConstr, len(f.Hard))
	for i, c := range f.Hard {
		constrs[i] = solver.PBConstr{Lits: c.Ints(), AtLeast: c.AtLeast}
		if c.Weights != nil {
			constrs[i].Weights = append([]int(nil), c.Weights...)
		}
	}
	for i, val := range primary {
		lit := i + 1
		if !val {
			lit = -lit
		}
		constrs = append(constrs, solver.PropClause(lit))
	}
	pb := solver.ParsePBConstrs(constrs)
	if pb.Status == solver.Unsat {
		return false
	}
	return solver.New(pb).Solve() == solver.Sat
}

type encoderTest struct {
	weights []int
	k       int
}

var encoderTests = []encoderTest{
	{nil, 0},
	{nil, 1},
	{nil, 2},
	{nil, 4},
	{[]int{1, 2, 1, 3}, 3},
	{[]int{2, 2, 2, 2}, 5},
	{[]int{4, 1, 1, 1}, 2},
	{[]int{1, 1, 1, 1}, -1},
	{[]int{3, 3, 1, 2}, 9},
}

func encode(t *testing.T, enc Encoding, weights []int, k int, op func(Encoder, Sink, string, []Lit, []int, int)) *Formula {
	t.Helper()
	p := pool.New(pool.Bool)
	lits := make([]Lit, 4)
	for i := range lits {
		lits[i] = Lit(p.ID(pool.At(i, 0)))
	}
	b := NewBuffer("card")
	op(NewEncoder(enc), b, "card", lits, weights, k)
	f := Merge(p, b)
	return f
}

func checkEncoding(t *testing.T, name string, pred func(sum, k int) bool, op func(Encoder, Sink, string, []Lit, []int, int)) {
	for _, enc := range []Encoding{Native, SeqCounter} {
		for _, test := range encoderTests {
			f := encode(t, enc, test.weights, test.k, op)
			if enc == SeqCounter {
				assert.True(t, f.Clausal(), "%s with %v should only produce clauses", name, enc)
			}
			for mask := 0; mask < 16; mask++ {
				primary := make([]bool, 4)
				sum := 0
				for i := range primary {
					if mask&(1<<i) != 0 {
						primary[i] = true
						sum += weight(test.weights, i)
					}
				}
				expected := pred(sum, test.k)
				got := satisfiable(f, primary)
				if got != expected {
					t.Errorf("%s %v weights=%v k=%d model=%v: expected %t, got %t", name, enc, test.weights, test.k, primary, expected, got)
				}
			}
		}
	}
}

func TestAtMost(t *testing.T) {
	checkEncoding(t, "AtMost", func(sum, k int) bool { return sum <= k }, Encoder.AtMost)
}

func TestAtLeast(t *testing.T) {
	checkEncoding(t, "AtLeast", func(sum, k int) bool { return sum >= k }, Encoder.AtLeast)
}

func TestExactly(t *testing.T) {
	checkEncoding(t, "Exactly", func(sum, k int) bool { return sum == k }, Encoder.Exactly)
}

func TestEncoderLabels(t *testing.T) {
	f := encode(t, SeqCounter, []int{1, 2, 1, 3}, 3, Encoder.AtMost)
	require.NotEmpty(t, f.Hard)
	for _, c := range f.Hard {
		assert.Equal(t, "card", c.Label)
	}
	assert.Equal(t, []string{"card"}, f.Labels())
}

func TestEncodingFlag(t *testing.T) {
	var e Encoding
	require.NoError(t, e.Set("seqcounter"))
	assert.Equal(t, SeqCounter, e)
	assert.Equal(t, "seqcounter", e.String())
	assert.Error(t, e.Set("totalizer"))
	assert.Equal(t, "Encoding(7)", fmt.Sprint(Encoding(7)))
}
