package stats_test

import (
	"bytes"
	"testing"

	"github.com/foxforge/neat-go/neat"
	"github.com/foxforge/neat-go/neat/genetics"
	"github.com/foxforge/neat-go/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSpecies(t *testing.T, fitnesses ...float64) *genetics.Species {
	t.Helper()
	opts := &neat.Options{DeltaThreshold: 3.0, DisjointCoefficient: 1, ExcessCoefficient: 1, AverageWeightDifferenceCoefficient: 0.4}
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)

	var genomes []*genetics.Genome
	for _, f := range fitnesses {
		g := genetics.NewPrimitiveGenome(registry, 2, 1)
		g.Fitness = f
		genomes = append(genomes, g)
	}
	species.Speciate(genomes)
	return species
}

func TestTracker_Record_ComputesBestAndAverage(t *testing.T) {
	tracker := stats.NewTracker()
	species := buildSpecies(t, 1, 3, 5)

	tracker.Record(0, species)

	require.Len(t, tracker.Summaries, 1)
	assert.Equal(t, 5.0, tracker.Summaries[0].BestFitness)
	assert.Equal(t, 3.0, tracker.Summaries[0].AverageFitness)
	assert.Equal(t, 1, tracker.Summaries[0].SpeciesCount)
}

func TestTracker_Series_TrackAcrossGenerations(t *testing.T) {
	tracker := stats.NewTracker()
	tracker.Record(0, buildSpecies(t, 1, 2))
	tracker.Record(1, buildSpecies(t, 5, 7))

	assert.Equal(t, stats.Floats{2, 7}, tracker.BestFitness())
	assert.Equal(t, stats.Floats{1.5, 6}, tracker.AverageFitness())
	assert.Equal(t, stats.Floats{1, 1}, tracker.Diversity())
}

func TestTracker_WriteNPZ_NoError(t *testing.T) {
	tracker := stats.NewTracker()
	tracker.Record(0, buildSpecies(t, 1, 2, 3))

	var buf bytes.Buffer
	err := tracker.WriteNPZ(&buf)
	require.NoError(t, err)
	assert.Greater(t, buf.Len(), 0)
}

func TestFloats_MeanVariance(t *testing.T) {
	x := stats.Floats{1, 2, 3}
	mv := x.MeanVariance()
	assert.InDelta(t, 2.0, mv[0], 1e-9)
	assert.InDelta(t, 1.0, mv[1], 1e-9)
}
