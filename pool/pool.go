// Package pool allocates the decision variables of a placement model.
//
// Every variable is identified by a semantic Key ("switch 2 is in position 0",
// "group 4 is in stage 1 of switch 3"...). Asking twice for the same key
// yields the same identifier, and identifiers can be mapped back to their key
// when a model has to be decoded or explained.
//
// A Pool only holds keys of a single Sort: boolean propositions for the
// positional strategy, integer variables for the arithmetic one.
// Mixing both in the same pool is a programming error and panics.
package pool

import (
	"fmt"
	"sync"
)

// A Sort is the kind of value a variable can take.
type Sort int

const (
	// Bool variables are propositions, identified by positive DIMACS indices.
	Bool Sort = iota
	// Int variables are integer decision variables, identified from 0.
	Int
)

func (s Sort) String() string {
	switch s {
	case Bool:
		return "bool"
	case Int:
		return "int"
	default:
		return fmt.Sprintf("Sort(%d)", int(s))
	}
}

// A Kind is the semantic family of a variable.
type Kind int

// Boolean kinds.
const (
	SwitchAt     Kind = iota // Switch A is in position B.
	GroupIn                  // Switch A in stage B has group C.
	GroupOn                  // Switch A has group B.
	SwitchBehind             // Switch A is behind switch B: A comes first in the pipeline.
	GroupBehind              // Group A is behind group B: A is not after B in the pipeline.
	Aux                      // Auxiliary variable B of block Tag, created by an encoder.
	Relax                    // Relaxation variable of soft term A.
	IntValue                 // Integer variable A takes value B.
	Cond                     // Conjunction of the conditions of term B of constraint A.
)

// Integer kinds.
const (
	GroupSwitch    Kind = iota + 64 // Index of the switch holding group A.
	GroupStage                      // Index of the stage holding group A.
	SwitchPosition                  // Position of switch A in the pipeline.
)

// Sort returns the sort of the variables of that kind.
func (k Kind) Sort() Sort {
	if k >= GroupSwitch {
		return Int
	}
	return Bool
}

// A Key identifies a variable by its meaning.
// Unused fields must be left to their zero value.
type Key struct {
	Kind    Kind
	A, B, C int
	Tag     string
}

// String returns a human-readable description of the key, with 0-based ids.
func (k Key) String() string {
	switch k.Kind {
	case SwitchAt:
		return fmt.Sprintf("switch %d in position %d", k.A, k.B)
	case GroupIn:
		return fmt.Sprintf("switch %d in stage %d has group %d", k.A, k.B, k.C)
	case GroupOn:
		return fmt.Sprintf("switch %d has group %d", k.A, k.B)
	case SwitchBehind:
		return fmt.Sprintf("switch %d is behind switch %d", k.A, k.B)
	case GroupBehind:
		return fmt.Sprintf("group %d is behind group %d", k.A, k.B)
	case Aux:
		return fmt.Sprintf("aux %s#%d", k.Tag, k.B)
	case Relax:
		return fmt.Sprintf("relax %d", k.A)
	case IntValue:
		return fmt.Sprintf("%s = %d", k.Tag, k.B)
	case Cond:
		return fmt.Sprintf("condition %d of %s", k.B, k.Tag)
	case GroupSwitch:
		return fmt.Sprintf("switch of group %d", k.A)
	case GroupStage:
		return fmt.Sprintf("stage of group %d", k.A)
	case SwitchPosition:
		return fmt.Sprintf("position of switch %d", k.A)
	default:
		return fmt.Sprintf("var(%d,%d,%d,%d,%q)", int(k.Kind), k.A, k.B, k.C, k.Tag)
	}
}

// At is the key of "switch sw is in position pos".
func At(sw, pos int) Key { return Key{Kind: SwitchAt, A: sw, B: pos} }

// In is the key of "group is in stage of switch sw".
func In(sw, stage, group int) Key { return Key{Kind: GroupIn, A: sw, B: stage, C: group} }

// On is the key of "group is on switch sw".
func On(sw, group int) Key { return Key{Kind: GroupOn, A: sw, B: group} }

// Behind is the key of "switch sw1 is behind switch sw2", i.e sw1 comes before sw2 in the pipeline.
func Behind(sw1, sw2 int) Key { return Key{Kind: SwitchBehind, A: sw1, B: sw2} }

// GroupsBehind is the key of "group g1 is behind group g2".
func GroupsBehind(g1, g2 int) Key { return Key{Kind: GroupBehind, A: g1, B: g2} }

// ValueOf is the key of "integer variable v, named name, takes value val".
func ValueOf(v int, name string, val int) Key { return Key{Kind: IntValue, A: v, B: val, Tag: name} }

// SwitchOf is the key of the integer holding the switch of group.
func SwitchOf(group int) Key { return Key{Kind: GroupSwitch, A: group} }

// StageOf is the key of the integer holding the stage of group.
func StageOf(group int) Key { return Key{Kind: GroupStage, A: group} }

// PositionOf is the key of the integer holding the position of switch sw.
func PositionOf(sw int) Key { return Key{Kind: SwitchPosition, A: sw} }

// A Pool is a variable space. The zero value is not usable: use New.
// A Pool is safe for concurrent use.
type Pool struct {
	sort Sort
	mu   sync.Mutex
	ids  map[Key]int
	keys []Key // keys[i] is the key of the i-th allocated variable
}

// New returns an empty pool for variables of the given sort.
func New(sort Sort) *Pool {
	return &Pool{sort: sort, ids: make(map[Key]int)}
}

// Sort returns the sort of the variables of the pool.
func (p *Pool) Sort() Sort { return p.sort }

// first returns the identifier of the first allocated variable.
func (p *Pool) first() int {
	if p.sort == Bool {
		return 1
	}
	return 0
}

func (p *Pool) check(k Key) {
	if s := k.Kind.Sort(); s != p.sort {
		panic(fmt.Errorf("pool: %s key %q requested in a %s pool", s, k, p.sort))
	}
}

// ID returns the identifier associated with k, allocating a new one if needed.
func (p *Pool) ID(k Key) int {
	p.check(k)
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.ids[k]; ok {
		return id
	}
	id := p.first() + len(p.keys)
	p.ids[k] = id
	p.keys = append(p.keys, k)
	return id
}

// Lookup returns the identifier of k, if it was already allocated.
func (p *Pool) Lookup(k Key) (id int, ok bool) {
	p.check(k)
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok = p.ids[k]
	return id, ok
}

// Describe returns the key id was allocated for.
func (p *Pool) Describe(id int) (Key, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := id - p.first()
	if idx < 0 || idx >= len(p.keys) {
		return Key{}, false
	}
	return p.keys[idx], true
}

// Len returns the number of allocated variables.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Top returns the greatest allocated identifier, or first-1 if the pool is empty.
func (p *Pool) Top() int {
	return p.first() + p.Len() - 1
}

// Reserve allocates n consecutive auxiliary variables tagged with tag
// and returns the identifier of the first one.
// Reserving twice the same tag panics.
func (p *Pool) Reserve(tag string, n int) int {
	if p.sort != Bool {
		panic(fmt.Errorf("pool: cannot reserve auxiliary variables in a %s pool", p.sort))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.ids[Key{Kind: Aux, Tag: tag}]; ok {
		panic(fmt.Errorf("pool: auxiliary block %q reserved twice", tag))
	}
	start := p.first() + len(p.keys)
	for i := 0; i < n; i++ {
		k := Key{Kind: Aux, B: i, Tag: tag}
		p.ids[k] = start + i
		p.keys = append(p.keys, k)
	}
	return start
}
