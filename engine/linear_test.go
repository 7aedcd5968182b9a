package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/pipeplace/arith"
	"github.com/crillab/pipeplace/formula"
)

var configs = []Config{
	{Kind: Gophersat},
	{Kind: Gophersat, Encoding: formula.SeqCounter},
	{Kind: Gini},
}

func sampleModel() *arith.Model {
	var m arith.Model
	x := m.NewVar("x", 0, 2)
	y := m.NewVar("y", 0, 2)
	m.AllDiff = [][]int{{x, y}}
	m.Rules = []arith.Rule{{When: []arith.Atom{{Var: x, Val: 2}}, Terms: []arith.Term{{Coeff: 1, Var: y}}, Bound: 0, Label: "x2"}}
	m.Sums = []arith.Sum{{
		Terms: []arith.CondTerm{
			{Coeff: 3, When: []arith.Atom{{Var: x, Val: 1}}},
			{Coeff: 2, When: []arith.Atom{{Var: y, Val: 1}, {Var: x, Val: 0}}},
		},
		Bound: 2,
		Label: "cap",
	}}
	m.Soft = []arith.Soft{{Rules: []arith.Rule{{Terms: []arith.Term{{Coeff: 1, Var: x}, {Coeff: -1, Var: y}}, Bound: -1}}, Weight: 1}}
	return &m
}

func TestLinear(t *testing.T) {
	for _, cfg := range configs {
		m := sampleModel()
		res, err := NewInt(cfg).SolveModel(context.Background(), m)
		require.NoError(t, err, "config %+v", cfg)
		assert.NoError(t, m.Check(res.Values), "config %+v", cfg)
		assert.Equal(t, Optimal, res.Status)
		assert.Equal(t, 0, res.Cost, "config %+v", cfg)
		assert.Equal(t, 0, res.Values[0], "config %+v", cfg)
	}
}

func TestLinearForcedCost(t *testing.T) {
	for _, cfg := range configs {
		m := sampleModel()
		m.Rules = append(m.Rules, arith.Rule{Terms: []arith.Term{{Coeff: 1, Var: 1}}, Bound: 0, Label: "y0"})
		m.Soft[0].Weight = 2
		res, err := NewInt(cfg).SolveModel(context.Background(), m)
		require.NoError(t, err, "config %+v", cfg)
		assert.NoError(t, m.Check(res.Values))
		assert.Equal(t, []int{2, 0}, res.Values, "config %+v", cfg)
		assert.Equal(t, 2, res.Cost, "config %+v", cfg)
	}
}

func TestLinearInfeasible(t *testing.T) {
	for _, cfg := range configs {
		var m arith.Model
		vars := []int{m.NewVar("x", 0, 1), m.NewVar("y", 0, 1), m.NewVar("z", 0, 1)}
		m.AllDiff = [][]int{vars}
		_, err := NewInt(cfg).SolveModel(context.Background(), &m)
		assert.ErrorIs(t, err, ErrInfeasible, "config %+v", cfg)
	}
}

func TestLowerValues(t *testing.T) {
	l := Lower(sampleModel(), formula.Native)
	k, ok := l.Pool.Describe(1)
	require.True(t, ok)
	assert.Equal(t, "x = 0", k.String())
	model := make([]bool, l.Formula.NbVars)
	model[0] = true // x = 0
	model[5] = true // y = 2
	values, err := l.Values(model)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, values)
	model[4] = true
	_, err = l.Values(model)
	assert.Error(t, err)
	model[4], model[5] = false, false
	_, err = l.Values(model)
	assert.Error(t, err)
}
