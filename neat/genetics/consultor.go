package genetics

import (
	"fmt"

	"github.com/foxforge/neat-go/neat"
)

// linkKey canonically identifies a directed (in, out) connection.
type linkKey struct {
	in, out int
}

// Consultor is the innovation registry shared by every genome bred within a
// single run: a monotonic counter and the list of canonical (in, out)
// pairs it has assigned innovation numbers to. It also carries the
// speciation coefficients and the shared mutation parameter block, since
// spec.md treats those as process-wide configuration alongside the
// registry itself (section 3 "Consultor").
//
// Concurrency contract: Acquire must only be called from the reproduction
// phase of a single generation; it is never called concurrently with
// evaluation. Read-only accessors are safe to call from any goroutine at
// any time (spec.md section 5).
type Consultor struct {
	Options *neat.Options

	nextInnovation int64
	pairs          []linkKey
	index          map[linkKey]int64
}

// NewConsultor creates an empty registry bound to the given options.
func NewConsultor(opts *neat.Options) *Consultor {
	return &Consultor{
		Options: opts,
		index:   make(map[linkKey]int64),
	}
}

// NewPrimedConsultor creates a registry pre-populated with one innovation
// per (input, output) pair, assigned in input-major, output-minor order
// (0..numInputs*numOutputs-1), as required to prime a freshly constructed
// primitive genome (spec.md section 4.1).
func NewPrimedConsultor(opts *neat.Options, numInputs, numOutputs int) *Consultor {
	c := NewConsultor(opts)
	for i := 0; i < numInputs; i++ {
		for o := 0; o < numOutputs; o++ {
			c.Acquire(i, numInputs+o)
		}
	}
	return c
}

// Acquire returns the innovation number for the (in, out) pair, assigning a
// fresh one the first time the pair is seen anywhere in the run.
func (c *Consultor) Acquire(inNodeId, outNodeId int) int64 {
	key := linkKey{inNodeId, outNodeId}
	if innov, ok := c.index[key]; ok {
		return innov
	}
	innov := c.nextInnovation
	c.index[key] = innov
	c.pairs = append(c.pairs, key)
	c.nextInnovation++
	return innov
}

// Exists reports whether the (in, out) pair has ever been assigned an
// innovation number in this run, without allocating one.
func (c *Consultor) Exists(inNodeId, outNodeId int) bool {
	_, ok := c.index[linkKey{inNodeId, outNodeId}]
	return ok
}

// PairCount returns the number of distinct (in, out) pairs known to the registry.
func (c *Consultor) PairCount() int {
	return len(c.pairs)
}

// NextInnovationNumber returns the counter value that the next Acquire call
// on a novel pair would return, without consuming it.
func (c *Consultor) NextInnovationNumber() int64 {
	return c.nextInnovation
}

// Pairs returns a copy of every (in, out) pair known to the registry, in
// assignment order (index i holds the pair assigned innovation number i,
// since Acquire hands out innovations sequentially).
func (c *Consultor) Pairs() [][2]int {
	pairs := make([][2]int, len(c.pairs))
	for i, p := range c.pairs {
		pairs[i] = [2]int{p.in, p.out}
	}
	return pairs
}

// Prime records a known (in, out) -> innovation assignment, as read back
// from a persisted packet. It is idempotent for a pair already assigned the
// same innovation number, and errors if the pair or the innovation number
// is already bound to something else.
func (c *Consultor) Prime(inNodeId, outNodeId int, innovation int64) error {
	key := linkKey{inNodeId, outNodeId}
	if existing, ok := c.index[key]; ok {
		if existing != innovation {
			return fmt.Errorf("pair (%d,%d) already has innovation %d, cannot prime with %d",
				inNodeId, outNodeId, existing, innovation)
		}
		return nil
	}
	for pair, innov := range c.index {
		if innov == innovation {
			return fmt.Errorf("innovation %d already assigned to pair (%d,%d)", innovation, pair.in, pair.out)
		}
	}
	c.index[key] = innovation
	c.pairs = append(c.pairs, key)
	if innovation >= c.nextInnovation {
		c.nextInnovation = innovation + 1
	}
	return nil
}

func (c *Consultor) String() string {
	return fmt.Sprintf("Consultor(pairs=%d, next=%d)", len(c.pairs), c.nextInnovation)
}
