package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S6 Evaluator bias: genome with only bias->output gene of weight w returns
// tanh(w) at that output for any input vector.
func TestFire_BiasOnly(t *testing.T) {
	// 3 inputs (last is bias), 1 output.
	edges := map[int][]Edge{
		3: {{InNodeId: 2, Weight: 0.75}},
	}
	ev, err := Build(3, 1, edges)
	require.NoError(t, err)

	out, err := ev.Fire([]float64{5, -3, 999}) // bias slot content is irrelevant
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, math.Tanh(0.75), out[0], 1e-12)
}

// Invariant 5: all-zero weights yield zero outputs regardless of topology.
func TestFire_ZeroWeights_YieldsZeroOutputs(t *testing.T) {
	edges := map[int][]Edge{
		2: {{InNodeId: 0, Weight: 0}, {InNodeId: 1, Weight: 0}},
		3: {{InNodeId: 0, Weight: 0}, {InNodeId: 4, Weight: 0}},
		4: {{InNodeId: 0, Weight: 0}, {InNodeId: 1, Weight: 0}}, // hidden node 4
	}
	ev, err := Build(2, 2, edges)
	require.NoError(t, err)

	out, err := ev.Fire([]float64{3.2, 1.0})
	require.NoError(t, err)
	for _, v := range out {
		assert.Equal(t, 0.0, v)
	}
}

func TestFire_SinglePass_HiddenDoesNotSeeOtherHiddenSameCall(t *testing.T) {
	// node 4 is hidden, fed only from input 0. Output node 3 is fed from
	// hidden node 4 *and* input 0 directly; because of the single-pass
	// snapshot, node 3 must read node 4's PRE-activation (zero) value, not
	// whatever node 4 computes in this same call.
	edges := map[int][]Edge{
		4: {{InNodeId: 0, Weight: 1.0}},
		3: {{InNodeId: 4, Weight: 1.0}, {InNodeId: 0, Weight: 0.5}},
	}
	ev, err := Build(2, 2, edges)
	require.NoError(t, err)

	out, err := ev.Fire([]float64{1.0, 1.0})
	require.NoError(t, err)
	// node 3 only sees snapshot value of node 4 (0.0, pre-activation) plus 0.5*1.0
	assert.InDelta(t, math.Tanh(0.5), out[1], 1e-12)
}

func TestFire_WrongInputCount(t *testing.T) {
	ev, err := Build(2, 1, map[int][]Edge{})
	require.NoError(t, err)
	_, err = ev.Fire([]float64{1})
	assert.Error(t, err)
}

func TestBuild_RejectsNonPositiveDims(t *testing.T) {
	_, err := Build(0, 1, nil)
	assert.Error(t, err)
	_, err = Build(1, 0, nil)
	assert.Error(t, err)
}

func TestBuild_SizeAccountsForHiddenNodes(t *testing.T) {
	edges := map[int][]Edge{
		5: {{InNodeId: 4, Weight: 1}},
	}
	ev, err := Build(2, 2, edges)
	require.NoError(t, err)
	assert.Equal(t, 6, ev.Size())
}
