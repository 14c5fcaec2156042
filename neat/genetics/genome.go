package genetics

import (
	"sort"

	"github.com/foxforge/neat-go/neat/math"
	"github.com/foxforge/neat-go/neat/network"
)

// ElapsedFunc reads the elapsed lifetime of the current evaluation window.
// Installed on a genome by the runner at activation time and cleared when
// the generation ends (spec.md section 9's "cyclic reference" note: the
// capability is passed in, not held as a back-reference to the runner).
type ElapsedFunc func() int64

// Genome is a network phenotype specification: the registry it was built
// against, its input/output counts, an ordered node list, an
// ascending-innovation-ordered gene list, and its current fitness.
type Genome struct {
	Id int

	Registry *Consultor

	NumInputs  int
	NumOutputs int

	Nodes []*network.Node
	Genes []*Gene

	Fitness float64

	elapsed ElapsedFunc
}

var nextGenomeId int

func allocateGenomeId() int {
	nextGenomeId++
	return nextGenomeId
}

// NewPrimitiveGenome builds the primitive fully-connected input->output
// wiring: numInputs input nodes (the last being bias), numOutputs output
// nodes, and one gene per (input, output) pair with a random weight in
// [-1, 1]. The registry must already be primed (or will be lazily
// extended) with the matching (in, out) innovation assignments.
func NewPrimitiveGenome(registry *Consultor, numInputs, numOutputs int) *Genome {
	g := &Genome{
		Id:         allocateGenomeId(),
		Registry:   registry,
		NumInputs:  numInputs,
		NumOutputs: numOutputs,
	}

	for i := 0; i < numInputs; i++ {
		kind := network.InputNode
		if i == numInputs-1 {
			kind = network.InputBiasNode
		}
		g.Nodes = append(g.Nodes, network.NewNode(i, kind))
	}
	for o := 0; o < numOutputs; o++ {
		g.Nodes = append(g.Nodes, network.NewNode(numInputs+o, network.OutputNode))
	}

	for i := 0; i < numInputs; i++ {
		for o := 0; o < numOutputs; o++ {
			outId := numInputs + o
			innov := registry.Acquire(i, outId)
			gene := NewGene(innov, i, outId, math.RandWeight())
			g.insertGene(gene)
		}
	}

	return g
}

// NewEmptyGenome creates a genome with no genes/nodes yet, for use by
// crossover and packet decoding, which populate Nodes/Genes directly.
func NewEmptyGenome(registry *Consultor, numInputs, numOutputs int) *Genome {
	return &Genome{
		Id:         allocateGenomeId(),
		Registry:   registry,
		NumInputs:  numInputs,
		NumOutputs: numOutputs,
	}
}

// SetElapsedFunc installs the time-lived accessor for the current
// evaluation window. Pass nil to clear it when the generation ends.
func (g *Genome) SetElapsedFunc(f ElapsedFunc) {
	g.elapsed = f
}

// Elapsed returns the elapsed lifetime of the current evaluation, or 0 if
// no accessor is installed.
func (g *Genome) Elapsed() int64 {
	if g.elapsed == nil {
		return 0
	}
	return g.elapsed()
}

// InsertGene adds a gene to this genome, keeping Genes ordered ascending by
// innovation number. Exported for use by the persist package when
// reconstructing a genome from a decoded packet.
func (g *Genome) InsertGene(gene *Gene) {
	g.insertGene(gene)
}

// InsertNode appends a node to this genome. Exported for use by the persist
// package when reconstructing a genome from a decoded packet.
func (g *Genome) InsertNode(node *network.Node) {
	g.insertNode(node)
}

// insertGene performs the ordered binary-search insert that keeps Genes
// strictly ascending by innovation number. Duplicates cannot occur because
// the registry guarantees a unique innovation per (in, out) pair.
func (g *Genome) insertGene(gene *Gene) {
	idx := sort.Search(len(g.Genes), func(i int) bool {
		return g.Genes[i].InnovationNum >= gene.InnovationNum
	})
	g.Genes = append(g.Genes, nil)
	copy(g.Genes[idx+1:], g.Genes[idx:])
	g.Genes[idx] = gene
}

// insertNode appends a node without sorting or checking its id. Callers
// append in id order (persist rebuilds inputs, outputs, then hidden nodes
// this way; AddNode appends each new hidden node), which keeps hidden node
// ids contiguous in creation order.
func (g *Genome) insertNode(node *network.Node) {
	g.Nodes = append(g.Nodes, node)
}

// HasGene reports whether a gene already exists for the (in, out) pair,
// counting both active and inactive genes (spec.md section 9: inactive
// genes block re-adding the same connection).
func (g *Genome) HasGene(inNodeId, outNodeId int) bool {
	for _, gene := range g.Genes {
		if gene.InNodeId == inNodeId && gene.OutNodeId == outNodeId {
			return true
		}
	}
	return false
}

// HasNode reports whether a node with the given id exists in this genome.
func (g *Genome) HasNode(id int) bool {
	for _, n := range g.Nodes {
		if n.Id == id {
			return true
		}
	}
	return false
}

// NodeById returns the node with the given id, or nil if absent.
func (g *Genome) NodeById(id int) *network.Node {
	for _, n := range g.Nodes {
		if n.Id == id {
			return n
		}
	}
	return nil
}

// Build derives this genome's feed-forward evaluator, per spec.md section
// 4.3: one neuron per node id 0..H-1, active genes projected into their
// out-node's incoming list, frozen and sorted ascending by in-id.
func (g *Genome) Build() (*network.Evaluator, error) {
	edgesByOutNode := make(map[int][]network.Edge)
	for _, gene := range g.Genes {
		if !gene.Active {
			continue
		}
		edgesByOutNode[gene.OutNodeId] = append(edgesByOutNode[gene.OutNodeId],
			network.Edge{InNodeId: gene.InNodeId, Weight: gene.Weight})
	}
	return network.Build(g.NumInputs, g.NumOutputs, edgesByOutNode)
}

// Copy deep-copies this genome under a freshly allocated id, fitness reset
// to zero. Used for elite carry-over and as the basis for crossover
// offspring assembly.
func (g *Genome) Copy() *Genome {
	cp := &Genome{
		Id:         allocateGenomeId(),
		Registry:   g.Registry,
		NumInputs:  g.NumInputs,
		NumOutputs: g.NumOutputs,
	}
	cp.Nodes = make([]*network.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		nCopy := *n
		cp.Nodes[i] = &nCopy
	}
	cp.Genes = make([]*Gene, len(g.Genes))
	for i, gn := range g.Genes {
		cp.Genes[i] = gn.Copy()
	}
	return cp
}

// nextHiddenNodeId returns the id the next AddNode mutation should assign:
// the current node count, per spec.md section 4.2.
func (g *Genome) nextHiddenNodeId() int {
	return len(g.Nodes)
}
