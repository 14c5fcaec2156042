package genetics

import (
	"math/rand"

	"github.com/foxforge/neat-go/neat"
	"github.com/foxforge/neat-go/neat/network"
)

// classify tags an alignment entry per spec.md section 4.4's
// state-perturbation table.
func classify(entry AlignmentEntry) neat.GeneComparison {
	switch {
	case entry.A != nil && entry.B != nil:
		switch {
		case entry.A.Active && entry.B.Active:
			return neat.BothActive
		case !entry.A.Active && !entry.B.Active:
			return neat.BothInactive
		default:
			return neat.Inversed
		}
	case entry.A != nil:
		if entry.A.Active {
			return neat.DominantActive
		}
		return neat.DominantInactive
	default:
		if entry.B.Active {
			return neat.DominantActive
		}
		return neat.DominantInactive
	}
}

// Crossover produces an offspring genome from two parents, per spec.md
// section 4.4: matching genes are inherited from a uniformly random parent,
// excess/disjoint genes are inherited only from the fitter parent (ties
// favor a), and every inherited gene's active state is perturbed with the
// CrossChance probability configured for its comparison tag. The offspring's
// node list is copied from whichever parent has more nodes.
func Crossover(a, b *Genome, params neat.MutationParams) *Genome {
	dominant := a
	if b.Fitness > a.Fitness {
		dominant = b
	}

	alignment := Align(a, b)
	child := NewEmptyGenome(a.Registry, a.NumInputs, a.NumOutputs)

	for _, entry := range alignment.Entries {
		cmp := classify(entry)

		var source *Gene
		switch {
		case entry.A != nil && entry.B != nil:
			if rand.Intn(2) == 0 {
				source = entry.A
			} else {
				source = entry.B
			}
		case entry.A != nil && dominant == a:
			source = entry.A
		case entry.B != nil && dominant == b:
			source = entry.B
		default:
			continue
		}

		gene := source.Copy()
		if rand.Float64() < params.CrossChance(cmp) {
			switch cmp {
			case neat.BothInactive:
				gene.Active = false
			case neat.Inversed:
				gene.Active = true
			default:
				gene.Active = !gene.Active
			}
		}
		child.insertGene(gene)
	}

	nodeDonor := a
	if len(b.Nodes) > len(a.Nodes) {
		nodeDonor = b
	}
	child.Nodes = make([]*network.Node, len(nodeDonor.Nodes))
	for i, n := range nodeDonor.Nodes {
		nCopy := *n
		child.Nodes[i] = &nCopy
	}

	return child
}
