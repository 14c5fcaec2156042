// Package genetics implements the genotype side of NEAT: connection genes,
// the innovation registry, genome construction/mutation/crossover, and the
// population/species structures that drive reproduction.
package genetics

import "fmt"

// Gene is a connection between two nodes in a genome. Two genes are equal
// iff they share the same (InNodeId, OutNodeId) pair; the innovation
// number is a per-(in,out) identity assigned once, globally, by a
// Consultor.
type Gene struct {
	InnovationNum int64
	InNodeId      int
	OutNodeId     int
	Weight        float64
	Active        bool
}

// NewGene creates a new active gene for the given link and innovation number.
func NewGene(innovation int64, inNodeId, outNodeId int, weight float64) *Gene {
	return &Gene{
		InnovationNum: innovation,
		InNodeId:      inNodeId,
		OutNodeId:     outNodeId,
		Weight:        weight,
		Active:        true,
	}
}

// Copy deep-copies this gene, preserving its innovation number and state.
func (g *Gene) Copy() *Gene {
	cp := *g
	return &cp
}

// SameLink reports whether both genes connect the same (in, out) pair.
func (g *Gene) SameLink(o *Gene) bool {
	return g.InNodeId == o.InNodeId && g.OutNodeId == o.OutNodeId
}

func (g *Gene) String() string {
	state := "enabled"
	if !g.Active {
		state = "disabled"
	}
	return fmt.Sprintf("Gene(innov=%d, %d->%d, w=%.4f, %s)",
		g.InnovationNum, g.InNodeId, g.OutNodeId, g.Weight, state)
}
