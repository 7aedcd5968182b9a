// Package formula describes the boolean side of a placement model:
// hard pseudo-boolean constraints, weighted soft clauses, and the encoders
// used to express cardinality and weighted capacity constraints.
//
// Literals use the DIMACS convention: variable v is the literal v,
// its negation is -v. Variables are allocated by a pool.Pool.
//
// Constraints are never added to a Formula directly. Each constraint family
// writes to its own Buffer; buffers are then merged, in a fixed order,
// into the final Formula. Auxiliary variables created by an encoder are
// local to their buffer until the merge gives them their final identifier,
// so independent buffers can be filled concurrently.
package formula
