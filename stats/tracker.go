// Package stats records per-generation summary statistics for a run: best
// and average fitness, and species diversity, and can dump them to an NPZ
// file for offline analysis. It never feeds back into evolution.
package stats

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"

	"github.com/foxforge/neat-go/neat/genetics"
)

// GenerationSummary captures one generation's fitness landscape and species count.
type GenerationSummary struct {
	Generation     int
	BestFitness    float64
	AverageFitness float64
	SpeciesCount   int
}

// Tracker accumulates one GenerationSummary per generation across a run.
// Grounded on _examples/yaricom-goNEAT/experiment/experiment.go's
// Trials/Generations accumulation, collapsed to a single run (this module
// has no multi-trial experiment concept).
type Tracker struct {
	Summaries []GenerationSummary
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record computes and appends the summary for one completed generation: the
// best genome's fitness across every population, the mean fitness across
// every genome in every population, and the current population count.
func (t *Tracker) Record(generation int, species *genetics.Species) {
	summary := GenerationSummary{Generation: generation, SpeciesCount: species.PopulationCount()}

	if best := species.BestGenome(); best != nil {
		summary.BestFitness = best.Fitness
	}

	var all Floats
	for _, pop := range species.Populations {
		for _, g := range pop.Genomes {
			all = append(all, g.Fitness)
		}
	}
	summary.AverageFitness = all.Mean()

	t.Summaries = append(t.Summaries, summary)
}

// BestFitness returns the best-fitness series across every recorded generation.
func (t *Tracker) BestFitness() Floats {
	x := make(Floats, len(t.Summaries))
	for i, s := range t.Summaries {
		x[i] = s.BestFitness
	}
	return x
}

// AverageFitness returns the average-fitness series across every recorded generation.
func (t *Tracker) AverageFitness() Floats {
	x := make(Floats, len(t.Summaries))
	for i, s := range t.Summaries {
		x[i] = s.AverageFitness
	}
	return x
}

// Diversity returns the species-count series across every recorded generation.
func (t *Tracker) Diversity() Floats {
	x := make(Floats, len(t.Summaries))
	for i, s := range t.Summaries {
		x[i] = float64(s.SpeciesCount)
	}
	return x
}

// WriteNPZ dumps the recorded run to an NPZ file: one vector each for best
// fitness, average fitness, and diversity, indexed by generation number.
// Grounded on _examples/yaricom-goNEAT/experiment/experiment.go's WriteNPZ.
func (t *Tracker) WriteNPZ(w io.Writer) error {
	out := npz.NewWriter(w)

	bestFitness := mat.NewVecDense(len(t.Summaries), t.BestFitness())
	averageFitness := mat.NewVecDense(len(t.Summaries), t.AverageFitness())
	diversity := mat.NewVecDense(len(t.Summaries), t.Diversity())

	if err := out.Write("best_fitness", bestFitness); err != nil {
		return errors.Wrap(err, "writing best_fitness")
	}
	if err := out.Write("average_fitness", averageFitness); err != nil {
		return errors.Wrap(err, "writing average_fitness")
	}
	if err := out.Write("diversity", diversity); err != nil {
		return errors.Wrap(err, "writing diversity")
	}
	return out.Close()
}
