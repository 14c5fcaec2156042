package genetics

import (
	"testing"

	"github.com/foxforge/neat-go/neat"
	"github.com/stretchr/testify/assert"
)

func testDistanceOptions() *neat.Options {
	return &neat.Options{
		DisjointCoefficient:                1.0,
		ExcessCoefficient:                  1.0,
		AverageWeightDifferenceCoefficient: 0.4,
		DeltaThreshold:                     3.0,
	}
}

func TestAlign_IdenticalGenomes_AllEqualEntries(t *testing.T) {
	registry := NewPrimedConsultor(nil, 2, 1)
	a := NewPrimitiveGenome(registry, 2, 1)
	b := a.Copy()

	alignment := Align(a, b)
	assert.Len(t, alignment.Entries, len(a.Genes))
	for _, e := range alignment.Entries {
		assert.NotNil(t, e.A)
		assert.NotNil(t, e.B)
	}
}

func TestDistance_IdenticalGenomes_IsZero(t *testing.T) {
	registry := NewPrimedConsultor(nil, 2, 1)
	a := NewPrimitiveGenome(registry, 2, 1)
	b := a.Copy()

	assert.Equal(t, 0.0, Distance(a, b, testDistanceOptions()))
}

func TestDistance_ExcessGeneIncreasesDistance(t *testing.T) {
	registry := NewPrimedConsultor(nil, 2, 1)
	a := NewPrimitiveGenome(registry, 2, 1)
	b := a.Copy()

	// b gains a structural mutation a doesn't have: a fresh excess gene.
	require := b.mutateAddNode()
	assert.True(t, require)

	d := Distance(a, b, testDistanceOptions())
	assert.Greater(t, d, 0.0)
}

// Resolves the equal-size/equal-last-innovation edge case: when neither
// genome's highest innovation number exceeds the other's, every
// single-parent entry must be classified disjoint, never excess.
func TestDistance_EqualLastInnovation_ClassifiesDisjointNotExcess(t *testing.T) {
	registry := NewConsultor(nil)
	a := NewEmptyGenome(registry, 1, 1)
	b := NewEmptyGenome(registry, 1, 1)

	// a has innovations 0,1,3; b has innovations 0,2,3 -- same max (3), each
	// has one gene the other lacks at an innovation below that shared max.
	a.insertGene(NewGene(0, 0, 1, 1))
	a.insertGene(NewGene(1, 0, 2, 1))
	a.insertGene(NewGene(3, 0, 3, 1))

	b.insertGene(NewGene(0, 0, 1, 1))
	b.insertGene(NewGene(2, 0, 4, 1))
	b.insertGene(NewGene(3, 0, 3, 1))

	alignment := Align(a, b)
	maxA := lastInnovation(a.Genes)
	maxB := lastInnovation(b.Genes)
	assert.Equal(t, maxA, maxB)

	for _, e := range alignment.Entries {
		if e.A == nil || e.B == nil {
			if e.A != nil {
				assert.LessOrEqual(t, e.Innovation, maxB)
			} else {
				assert.LessOrEqual(t, e.Innovation, maxA)
			}
		}
	}

	// Innovations 1 and 2 are both disjoint and nothing is excess: with
	// N=3, equal weights and an excess coefficient of 10, only 1*2/3 remains.
	opts := testDistanceOptions()
	opts.ExcessCoefficient = 10
	assert.InDelta(t, 2.0/3.0, Distance(a, b, opts), 1e-12)
}

func TestSameSpecies_IdenticalCopiesMatch(t *testing.T) {
	registry := NewPrimedConsultor(nil, 2, 1)
	a := NewPrimitiveGenome(registry, 2, 1)
	b := a.Copy()

	opts := testDistanceOptions()
	assert.True(t, SameSpecies(a, b, opts))
}
