package network

import (
	"fmt"
	"sort"

	nmath "github.com/foxforge/neat-go/neat/math"
)

// Edge is the minimal connection record the evaluator needs to build a
// neuron's incoming list: which neuron it reads from and at what weight.
// It is a narrowed, evaluator-local view of a genetics.Gene — the
// evaluator package never imports genetics, so genes are projected into
// Edge values by the genome's Build step.
type Edge struct {
	InNodeId int
	Weight   float64
}

// Evaluator is the built, sparse feed-forward view derived from a genome:
// one neuron per node id, each carrying a frozen, ascending-by-in-id array
// of incoming edges. Evaluation is a single snapshot-then-update pass —
// every neuron computed in a Fire call reads the values all neurons held
// once the inputs and bias were written, never another neuron's output
// computed within the same call. Neuron values persist between calls, so
// downstream neurons read a hidden neuron's value from the previous Fire
// (zero before the first). This is a deliberate limitation (spec.md
// section 4.3/9): the engine has no multi-hop hidden propagation within
// one call.
type Evaluator struct {
	numInputs  int
	numOutputs int
	neurons    []Node
	incoming   [][]Edge
}

// Build constructs an Evaluator from a genome's dimensions and active
// connection genes, projected to Edge values in ascending-innovation gene
// order by the caller. numInputs includes the trailing bias input.
func Build(numInputs, numOutputs int, edgesByOutNode map[int][]Edge) (*Evaluator, error) {
	if numInputs <= 0 {
		return nil, fmt.Errorf("network: numInputs must be positive, got %d", numInputs)
	}
	if numOutputs <= 0 {
		return nil, fmt.Errorf("network: numOutputs must be positive, got %d", numOutputs)
	}

	maxId := numInputs + numOutputs - 1
	for outId, edges := range edgesByOutNode {
		if outId > maxId {
			maxId = outId
		}
		for _, e := range edges {
			if e.InNodeId > maxId {
				maxId = e.InNodeId
			}
		}
	}
	h := maxId + 1

	neurons := make([]Node, h)
	for i := 0; i < h; i++ {
		kind := HiddenNode
		switch {
		case i == numInputs-1:
			kind = InputBiasNode
		case i < numInputs:
			kind = InputNode
		case i >= numInputs && i < numInputs+numOutputs:
			kind = OutputNode
		}
		neurons[i] = *NewNode(i, kind)
	}

	incoming := make([][]Edge, h)
	for outId, edges := range edgesByOutNode {
		cp := make([]Edge, len(edges))
		copy(cp, edges)
		sort.Slice(cp, func(i, j int) bool { return cp[i].InNodeId < cp[j].InNodeId })
		incoming[outId] = cp
	}

	return &Evaluator{
		numInputs:  numInputs,
		numOutputs: numOutputs,
		neurons:    neurons,
		incoming:   incoming,
	}, nil
}

// Fire runs one single-pass forward activation. inputs must have exactly
// numInputs elements (the last of which is conventionally ignored — the
// bias slot is always forced to 1.0 regardless of caller input).
func (e *Evaluator) Fire(inputs []float64) ([]float64, error) {
	if len(inputs) != e.numInputs {
		return nil, fmt.Errorf("network: expected %d inputs, got %d", e.numInputs, len(inputs))
	}

	for i := 0; i < e.numInputs; i++ {
		e.neurons[i].SetValue(inputs[i])
	}
	e.neurons[e.numInputs-1].SetValue(1.0) // bias, redundant with SetValue's own guard but explicit per spec

	// Snapshot every neuron's value before computing any activation: this
	// is what defines the single-pass semantics. Every neuron this call
	// computes reads only this frozen snapshot, never another neuron's
	// freshly computed value.
	snapshot := make([]float64, len(e.neurons))
	for i, n := range e.neurons {
		snapshot[i] = n.Value
	}

	for i := range e.neurons {
		edges := e.incoming[i]
		if len(edges) == 0 {
			continue
		}
		sum := 0.0
		for _, edge := range edges {
			sum += edge.Weight * snapshot[edge.InNodeId]
		}
		e.neurons[i].Value = nmath.Activate(sum)
	}

	outputs := make([]float64, e.numOutputs)
	for i := 0; i < e.numOutputs; i++ {
		outputs[i] = e.neurons[e.numInputs+i].Value
	}
	return outputs, nil
}

// NeuronValue returns the current value held by the neuron at the given id,
// mainly useful for tests and debugging tools.
func (e *Evaluator) NeuronValue(id int) float64 {
	return e.neurons[id].Value
}

// Size returns the number of neurons (H in spec.md's build algorithm).
func (e *Evaluator) Size() int {
	return len(e.neurons)
}
