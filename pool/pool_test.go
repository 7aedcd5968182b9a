package pool

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDIsIdempotent(t *testing.T) {
	p := New(Bool)
	a := p.ID(At(0, 1))
	b := p.ID(In(1, 0, 2))
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, a, p.ID(At(0, 1)))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 2, p.Top())
}

func TestDescribe(t *testing.T) {
	p := New(Bool)
	id := p.ID(Behind(2, 1))
	k, ok := p.Describe(id)
	require.True(t, ok)
	assert.Equal(t, Behind(2, 1), k)
	assert.Equal(t, "switch 2 is behind switch 1", k.String())
	_, ok = p.Describe(0)
	assert.False(t, ok)
	_, ok = p.Describe(id + 1)
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	p := New(Int)
	_, ok := p.Lookup(SwitchOf(3))
	assert.False(t, ok)
	id := p.ID(SwitchOf(3))
	assert.Equal(t, 0, id)
	got, ok := p.Lookup(SwitchOf(3))
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, 0, p.Top())
}

func TestMixedSortsPanic(t *testing.T) {
	assert.Panics(t, func() { New(Bool).ID(PositionOf(0)) })
	assert.Panics(t, func() { New(Int).ID(At(0, 0)) })
	assert.Panics(t, func() { New(Int).Reserve("x", 2) })
}

func TestReserve(t *testing.T) {
	p := New(Bool)
	p.ID(On(0, 0))
	start := p.Reserve("card", 3)
	assert.Equal(t, 2, start)
	assert.Equal(t, 4, p.Top())
	k, ok := p.Describe(3)
	require.True(t, ok)
	assert.Equal(t, Key{Kind: Aux, B: 1, Tag: "card"}, k)
	assert.Equal(t, 5, p.ID(On(1, 0)))
	assert.Panics(t, func() { p.Reserve("card", 1) })
}

func TestConcurrentID(t *testing.T) {
	p := New(Bool)
	const n = 50
	ids := make([][]int, 8)
	var wg sync.WaitGroup
	for w := range ids {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids[w] = make([]int, n)
			for i := 0; i < n; i++ {
				ids[w][i] = p.ID(At(i, i))
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, n, p.Len())
	for w := 1; w < len(ids); w++ {
		assert.Equal(t, ids[0], ids[w])
	}
}

func ExamplePool() {
	p := New(Bool)
	for _, k := range []Key{At(0, 0), In(0, 1, 3), At(0, 0), GroupsBehind(3, 2)} {
		fmt.Println(p.ID(k), k)
	}
	// Output:
	// 1 switch 0 in position 0
	// 2 switch 0 in stage 1 has group 3
	// 1 switch 0 in position 0
	// 3 group 3 is behind group 2
}
