package formula

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNotClausal is returned when a formula containing PB constraints is written in a clausal format.
var ErrNotClausal = errors.New("formula contains pseudo-boolean constraints")

// A Namer returns a description of a variable, or "" if it has none.
type Namer func(v int) string

func writeNames(w io.Writer, nbVars int, name Namer, prefix string) error {
	if name == nil {
		return nil
	}
	for v := 1; v <= nbVars; v++ {
		if desc := name(v); desc != "" {
			if _, err := fmt.Fprintf(w, "%s %d=%s\n", prefix, v, desc); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteOPB writes f in the OPB format. Soft clauses are expressed through the objective function:
// each soft clause gets a fresh relaxation variable numbered after f.NbVars.
func WriteOPB(w io.Writer, f *Formula, name Namer) error {
	if _, err := fmt.Fprintf(w, "* #variable= %d #constraint= %d\n", f.NbVars+len(f.Soft), len(f.Hard)+len(f.Soft)); err != nil {
		return fmt.Errorf("could not write OPB output: %v", err)
	}
	if err := writeNames(w, f.NbVars, name, "*"); err != nil {
		return fmt.Errorf("could not write OPB output: %v", err)
	}
	if len(f.Soft) > 0 {
		terms := make([]string, len(f.Soft))
		for i, s := range f.Soft {
			terms[i] = fmt.Sprintf("+%d x%d", s.Weight, f.NbVars+i+1)
		}
		if _, err := fmt.Fprintf(w, "min: %s ;\n", strings.Join(terms, " ")); err != nil {
			return fmt.Errorf("could not write OPB output: %v", err)
		}
	}
	for _, c := range f.Hard {
		if _, err := fmt.Fprintf(w, "%s ;\n", c); err != nil {
			return fmt.Errorf("could not write OPB output: %v", err)
		}
	}
	for i, s := range f.Soft {
		c := Clause(append(s.Lits[:len(s.Lits):len(s.Lits)], Lit(f.NbVars+i+1))...)
		if _, err := fmt.Fprintf(w, "%s ;\n", c); err != nil {
			return fmt.Errorf("could not write OPB output: %v", err)
		}
	}
	return nil
}

// WriteWCNF writes f in the weighted partial MaxSAT DIMACS format.
// It fails with ErrNotClausal if f contains PB constraints.
func WriteWCNF(w io.Writer, f *Formula, name Namer) error {
	if !f.Clausal() {
		return ErrNotClausal
	}
	top := f.MaxCost() + 1
	if _, err := fmt.Fprintf(w, "p wcnf %d %d %d\n", f.NbVars, len(f.Hard)+len(f.Soft), top); err != nil {
		return fmt.Errorf("could not write WCNF output: %v", err)
	}
	if err := writeNames(w, f.NbVars, name, "c"); err != nil {
		return fmt.Errorf("could not write WCNF output: %v", err)
	}
	line := func(weight int, lits []Lit) error {
		strs := make([]string, len(lits)+2)
		strs[0] = strconv.Itoa(weight)
		for i, lit := range lits {
			strs[i+1] = strconv.Itoa(int(lit))
		}
		strs[len(strs)-1] = "0"
		_, err := fmt.Fprintln(w, strings.Join(strs, " "))
		return err
	}
	for _, c := range f.Hard {
		if err := line(top, c.Lits); err != nil {
			return fmt.Errorf("could not write WCNF output: %v", err)
		}
	}
	for _, s := range f.Soft {
		if err := line(s.Weight, s.Lits); err != nil {
			return fmt.Errorf("could not write WCNF output: %v", err)
		}
	}
	return nil
}
