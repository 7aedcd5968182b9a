package problem

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	maxLineSize = math.MaxInt32 // Longest accepted input line, in bytes.
	maxPrealloc = 1024          // Dependencies allocated before they are actually read.
)

// lineReader returns the non-empty lines of its input, one at a time.
type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func (r *lineReader) next(what string) ([]string, error) {
	for r.sc.Scan() {
		r.line++
		if fields := strings.Fields(r.sc.Text()); len(fields) > 0 {
			return fields, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read input: %w", err)
	}
	return nil, invalid(r.line+1, "unexpected end of input, expected %s", what)
}

// ints reads a line made of exactly n integers.
func (r *lineReader) ints(n int, what string) ([]int, error) {
	fields, err := r.next(what)
	if err != nil {
		return nil, err
	}
	if len(fields) != n {
		return nil, invalid(r.line, "expected %d values for %s, got %d", n, what, len(fields))
	}
	res := make([]int, n)
	for i, field := range fields {
		if res[i], err = strconv.Atoi(field); err != nil {
			return nil, invalid(r.line, "invalid value %q for %s", field, what)
		}
	}
	return res, nil
}

func (r *lineReader) int(what string) (int, error) {
	vals, err := r.ints(1, what)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// Parse reads an instance in the text format:
//
//	N                  number of groups, > 1
//	M                  number of switches, >= 1
//	N integers         required memory of each group
//	M integers         number of stages of each switch
//	M integers         capacity of each stage of each switch
//	D                  number of dependencies, >= 0
//	D lines "i j"      group i must be reachable before group j, 1-based
//
// Blank lines are ignored. The returned instance uses 0-based ids
// and has been validated.
func Parse(r io.Reader) (*Instance, error) {
	lr := &lineReader{sc: bufio.NewScanner(r)}
	lr.sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n, err := lr.int("number of groups")
	if err != nil {
		return nil, err
	}
	if n <= 1 {
		return nil, invalid(lr.line, "Number of groups of rules must be greater than 1")
	}
	m, err := lr.int("number of switches")
	if err != nil {
		return nil, err
	}
	if m < 1 {
		return nil, invalid(lr.line, "Number of switches must be positive")
	}
	var inst Instance
	if inst.Required, err = lr.ints(n, "required memory"); err != nil {
		return nil, err
	}
	if inst.Stages, err = lr.ints(m, "number of stages"); err != nil {
		return nil, err
	}
	if inst.Capacity, err = lr.ints(m, "capacities"); err != nil {
		return nil, err
	}
	d, err := lr.int("number of dependencies")
	if err != nil {
		return nil, err
	}
	if d < 0 {
		return nil, invalid(lr.line, "Number of dependencies must not be negative")
	}
	inst.Deps = make([]Dependency, 0, min(d, maxPrealloc))
	for i := 0; i < d; i++ {
		pair, err := lr.ints(2, "dependency")
		if err != nil {
			return nil, err
		}
		for _, g := range pair {
			if g < 1 || g > n {
				return nil, invalid(lr.line, "invalid group %d in dependency, expected a value between 1 and %d", g, n)
			}
		}
		inst.Deps = append(inst.Deps, Dependency{Producer: pair[0] - 1, Consumer: pair[1] - 1})
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &inst, nil
}
