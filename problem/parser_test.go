package problem

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `4
2
1 2 1 3
2 1

3 4
2
1 2
4 3
`

func TestParse(t *testing.T) {
	inst, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1, 3}, inst.Required)
	assert.Equal(t, []int{2, 1}, inst.Stages)
	assert.Equal(t, []int{3, 4}, inst.Capacity)
	assert.Equal(t, []Dependency{{0, 1}, {3, 2}}, inst.Deps)
	assert.Equal(t, 7, inst.TotalMemory())
	assert.Equal(t, 10, inst.TotalCapacity())
	assert.Equal(t, 2, inst.MaxStages())
	sws := inst.Switches()
	require.Len(t, sws, 2)
	assert.Equal(t, []Stage{{0, 0, 3}, {0, 1, 3}}, sws[0].Stages)
	assert.Equal(t, Group{ID: 3, Memory: 3}, inst.Groups()[3])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"one group", "1\n1\n1\n1\n1\n0\n", "Number of groups of rules must be greater than 1"},
		{"no switch", "2\n0\n1 1\n\n\n0\n", "Number of switches must be positive"},
		{"negative deps", "2\n1\n1 1\n1\n2\n-1\n", "Number of dependencies must not be negative"},
		{"missing memory", "2\n1\n1\n1\n2\n0\n", "expected 2 values for required memory, got 1"},
		{"not a number", "2\n1\n1 x\n1\n2\n0\n", `invalid value "x" for required memory`},
		{"truncated", "2\n1\n1 1\n1\n", "unexpected end of input, expected capacities"},
		{"missing dependency", "2\n1\n1 1\n1\n2\n1\n", "unexpected end of input, expected dependency"},
		{"bad dependency", "2\n1\n1 1\n1\n2\n1\n1 3\n", "invalid group 3 in dependency"},
		{"huge dependency count", "2\n1\n1 1\n1\n2\n9223372036854775807\n1 2\n", "unexpected end of input, expected dependency"},
		{"null memory", "2\n1\n0 1\n1\n2\n0\n", "group 1: required memory must be positive"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(test.input))
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
			assert.Contains(t, err.Error(), test.msg)
		})
	}
}

func TestParseLongLine(t *testing.T) {
	const nbGroups = 20000
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n1\n", nbGroups)
	sb.WriteString(strings.TrimSpace(strings.Repeat("100 ", nbGroups)))
	sb.WriteString("\n1\n1000000000\n0\n")
	inst, err := Parse(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, nbGroups, inst.NbGroups())
	assert.Equal(t, 100*nbGroups, inst.TotalMemory())
}

func TestSelfDependencyIsValid(t *testing.T) {
	inst, err := Parse(strings.NewReader("2\n1\n1 1\n1\n2\n1\n2 2\n"))
	require.NoError(t, err)
	assert.Equal(t, []Dependency{{1, 1}}, inst.Deps)
}

func TestInfeasible(t *testing.T) {
	tests := []struct {
		inst       Instance
		infeasible bool
	}{
		{Instance{Required: []int{1, 1}, Stages: []int{1}, Capacity: []int{2}}, false},
		{Instance{Required: []int{2, 1}, Stages: []int{1}, Capacity: []int{2}}, true},
		{Instance{Required: []int{3, 1}, Stages: []int{2, 1}, Capacity: []int{2, 2}}, true},
		{Instance{Required: []int{3, 1}, Stages: []int{2, 0}, Capacity: []int{2, 5}}, true},
		{Instance{Required: []int{3, 1}, Stages: []int{2, 1}, Capacity: []int{2, 3}}, false},
	}
	for i, test := range tests {
		reason, got := test.inst.Infeasible()
		if got != test.infeasible {
			t.Errorf("test #%d: expected %t, got %t (%s)", i, test.infeasible, got, reason)
		}
	}
}
