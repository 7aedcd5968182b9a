package placement

import (
	"fmt"

	"github.com/crillab/pipeplace/engine"
)

// A Representation is the way placement variables are encoded.
type Representation int

const (
	// Boolean uses propositions "switch s is in position p" and "group g is in stage i of switch s".
	Boolean Representation = iota
	// Arithmetic uses one integer per group for its switch, one for its stage,
	// and one integer per switch for its position.
	Arithmetic
)

var representationNames = []string{"boolean", "arithmetic"}

func (r Representation) String() string {
	if r < 0 || int(r) >= len(representationNames) {
		return fmt.Sprintf("Representation(%d)", int(r))
	}
	return representationNames[r]
}

// Set implements flag.Value.
func (r *Representation) Set(s string) error {
	for i, name := range representationNames {
		if name == s {
			*r = Representation(i)
			return nil
		}
	}
	return fmt.Errorf("invalid strategy %q, expected one of %v", s, representationNames)
}

// Config is the configuration of the whole placement pipeline.
type Config struct {
	Representation Representation
	Engine         engine.Config
	// If Parallel is true, independent constraint families are generated concurrently.
	Parallel bool
	// If Verify is true, every solution is checked against the instance before being returned.
	Verify bool
	// If Solver is not nil, it replaces the solver described by Engine.
	Solver engine.BoolSolver
}

func (cfg Config) solver() engine.BoolSolver {
	if cfg.Solver != nil {
		return cfg.Solver
	}
	return engine.New(cfg.Engine)
}

// DefaultConfig returns the default configuration: boolean representation,
// gophersat engine, no timeout, sequential build and verification.
func DefaultConfig() Config {
	return Config{Verify: true}
}
