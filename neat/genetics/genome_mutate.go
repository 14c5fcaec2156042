package genetics

import (
	"math/rand"

	"github.com/foxforge/neat-go/neat"
	nmath "github.com/foxforge/neat-go/neat/math"
	"github.com/foxforge/neat-go/neat/network"
)

// Mutate applies, in order: a single topology mutation attempt (gated by
// TopologyMutateChance) and then weight mutation over every gene (gated
// per-gene by GeneMutateChance). Per spec.md section 4.2, weight mutation
// always runs, regardless of whether a topology mutation fired.
func (g *Genome) Mutate(params neat.MutationParams) {
	if rand.Float64() < params.TopologyMutateChance {
		if !g.mutateAddConnection() {
			g.mutateAddNode()
		}
	}
	g.mutateWeights(params)
}

// mutateWeights visits every gene independently; with probability
// GeneMutateChance it applies one uniformly chosen enabled flag from
// GeneMutateFlags.
func (g *Genome) mutateWeights(params neat.MutationParams) {
	if len(params.GeneMutateFlags) == 0 {
		return
	}
	for _, gene := range g.Genes {
		if rand.Float64() >= params.GeneMutateChance {
			continue
		}
		flag := params.GeneMutateFlags[rand.Intn(len(params.GeneMutateFlags))]
		applyGeneMutation(gene, flag)
	}
}

func applyGeneMutation(gene *Gene, flag neat.GeneMutationFlag) {
	switch flag {
	case neat.FlipSign:
		gene.Weight = -gene.Weight
	case neat.ToggleState:
		gene.Active = !gene.Active
	case neat.SetRandom:
		gene.Weight = nmath.RandWeight()
	case neat.ScaleUp:
		gene.Weight *= 1 + rand.Float64()
	case neat.ScaleDown:
		gene.Weight *= rand.Float64()
	}
}

// mutateAddConnection tries up to |nodes|^2 times to find an unconnected
// (a, b) pair: a is any node (including inputs), b is any non-input node.
// If (a->b) doesn't exist it is created; otherwise, if a is not itself an
// input, (b->a) is tried instead. New genes default to weight 1.0, active.
// Returns false if no pair could be found within the attempt budget.
func (g *Genome) mutateAddConnection() bool {
	n := len(g.Nodes)
	if n == 0 {
		return false
	}
	maxAttempts := n * n
	for attempt := 0; attempt < maxAttempts; attempt++ {
		a := g.Nodes[rand.Intn(n)]
		b := g.pickNonInputNode()
		if b == nil {
			return false
		}

		if !g.HasGene(a.Id, b.Id) {
			g.addConnectionGene(a.Id, b.Id)
			return true
		}
		if !a.IsInput() && !g.HasGene(b.Id, a.Id) {
			g.addConnectionGene(b.Id, a.Id)
			return true
		}
	}
	return false
}

func (g *Genome) pickNonInputNode() *network.Node {
	var candidates []*network.Node
	for _, n := range g.Nodes {
		if !n.IsInput() {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.Intn(len(candidates))]
}

func (g *Genome) addConnectionGene(inId, outId int) {
	innov := g.Registry.Acquire(inId, outId)
	gene := NewGene(innov, inId, outId, 1.0)
	g.insertGene(gene)
}

// mutateAddNode chooses a random currently-active gene, deactivates it,
// and splits it with a new hidden node: (oldIn -> new) at weight 1.0 and
// (new -> oldOut) at the disabled gene's old weight. Returns false if the
// genome has no active gene to split.
func (g *Genome) mutateAddNode() bool {
	var activeGenes []*Gene
	for _, gene := range g.Genes {
		if gene.Active {
			activeGenes = append(activeGenes, gene)
		}
	}
	if len(activeGenes) == 0 {
		return false
	}

	splitGene := activeGenes[rand.Intn(len(activeGenes))]
	splitGene.Active = false

	newNodeId := g.nextHiddenNodeId()
	g.insertNode(network.NewNode(newNodeId, network.HiddenNode))

	inInnov := g.Registry.Acquire(splitGene.InNodeId, newNodeId)
	outInnov := g.Registry.Acquire(newNodeId, splitGene.OutNodeId)

	g.insertGene(NewGene(inInnov, splitGene.InNodeId, newNodeId, 1.0))
	g.insertGene(NewGene(outInnov, newNodeId, splitGene.OutNodeId, splitGene.Weight))

	return true
}
