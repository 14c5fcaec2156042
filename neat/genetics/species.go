package genetics

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/foxforge/neat-go/neat"
	nmath "github.com/foxforge/neat-go/neat/math"
)

// Species is the list of Populations that makes up a single run (spec.md's
// naming is the inverse of the teacher's, see population.go). It owns the
// shared innovation registry and configuration, and drives generation
// assembly: removal, fitness sharing, reproductive quotas, reproduction,
// and re-speciation of the resulting offspring.
type Species struct {
	Registry    *Consultor
	Options     *neat.Options
	Populations []*Population
}

// NewSpecies creates an empty species container bound to the given registry
// and configuration.
func NewSpecies(registry *Consultor, opts *neat.Options) *Species {
	return &Species{Registry: registry, Options: opts}
}

// Speciate buckets every genome into a population: added to the first
// population whose representative is within compatibility distance, or into
// a freshly created population otherwise.
func (s *Species) Speciate(genomes []*Genome) {
	for _, g := range genomes {
		s.addGenome(g)
	}
}

func (s *Species) addGenome(g *Genome) {
	for _, pop := range s.Populations {
		rep := pop.Representative()
		if rep != nil && SameSpecies(rep, g, s.Options) {
			pop.Add(g)
			return
		}
	}
	pop := NewPopulation(newPopulationId())
	pop.Add(g)
	s.Populations = append(s.Populations, pop)
}

// newPopulationId mints a human-readable population label: a hex color
// code, following the teacher's convention for naming same-species clusters.
func newPopulationId() string {
	return fmt.Sprintf("#%06x", rand.Intn(1<<24))
}

// GenerateNewGeneration runs one full reproduction cycle: remove-worst on
// every population, fitness-sharing-weighted quota assignment, elite
// copy-through plus mutated crossover offspring per population, and
// re-speciation of the resulting genomes into (possibly new) populations.
// Returns the full offspring list.
func (s *Species) GenerateNewGeneration(populationSize int) []*Genome {
	for _, pop := range s.Populations {
		pop.RemoveWorst(s.Options.RemoveWorst)
	}

	var active []*Population
	for _, pop := range s.Populations {
		if len(pop.Genomes) > 0 {
			active = append(active, pop)
		}
	}
	s.Populations = active
	if len(s.Populations) == 0 {
		return nil
	}

	popShared := make([]float64, len(s.Populations))
	var totalShared float64
	for i, pop := range s.Populations {
		popShared[i] = pop.totalSharedFitness(s.Options.Beta)
		totalShared += popShared[i]
	}

	quotas := s.computeQuotas(popShared, totalShared, populationSize)

	var offspring []*Genome
	for i, pop := range s.Populations {
		offspring = append(offspring, s.reproducePopulation(pop, quotas[i])...)
	}

	s.Populations = nil
	for _, g := range offspring {
		s.addGenome(g)
	}

	return offspring
}

// computeQuotas distributes populationSize proportional to each
// population's shared fitness sum, rounding down. Rounding down means
// Σ quotas may fall short of populationSize (or, when every population's
// shared fitness is 0, start entirely at 0); the shortfall is corrected by
// repeatedly incrementing a random index in the upper half of the
// population list until the sum matches. An overshoot (which rounding
// down alone cannot cause, but a future rounding scheme might) is
// corrected symmetrically by decrementing a random index whose quota is
// still positive. Per spec.md's reproduction open question, only the
// upper half ever gains seats from the under-fill correction; this biases
// growth toward later-indexed populations, preserved as specified rather
// than fixed.
func (s *Species) computeQuotas(popShared []float64, totalShared float64, populationSize int) []int {
	n := len(popShared)
	quotas := make([]int, n)
	if totalShared > 0 {
		for i, shared := range popShared {
			quotas[i] = int(math.Floor(float64(populationSize) * shared / totalShared))
		}
	}

	sum := func() int {
		total := 0
		for _, q := range quotas {
			total += q
		}
		return total
	}

	half := n / 2
	for sum() < populationSize {
		idx := half + rand.Intn(n-half)
		quotas[idx]++
	}
	for sum() > populationSize {
		idx := rand.Intn(n)
		if quotas[idx] > 0 {
			quotas[idx]--
		}
	}
	return quotas
}

// reproducePopulation fills one population's quota: first with deep copies
// of its single best member, then with mutated crossover offspring until
// the quota is met.
func (s *Species) reproducePopulation(pop *Population, quota int) []*Genome {
	if quota <= 0 {
		return nil
	}
	pop.SortByFitnessDescending()

	var children []*Genome
	eliteCount := int(float64(quota) * s.Options.Elite)
	if eliteCount > len(pop.Genomes) {
		eliteCount = len(pop.Genomes)
	}
	for i := 0; i < eliteCount; i++ {
		children = append(children, pop.Genomes[0].Copy())
	}

	for len(children) < quota {
		parentA := pop.Genomes[rand.Intn(len(pop.Genomes))]
		parentB := s.selectParent(pop)
		child := Crossover(parentA, parentB, s.Options.MutationParams)
		child.Mutate(s.Options.MutationParams)
		children = append(children, child)
	}

	return children
}

// selectParent draws a mate from pop per the configured SelectionMode. pop
// must already be sorted descending by fitness. LogRankedIndex is defined
// over an ascending-sorted slice (fittest at the high index), so its result
// is mirrored before indexing into pop's descending order.
func (s *Species) selectParent(pop *Population) *Genome {
	n := len(pop.Genomes)
	if n == 1 {
		return pop.Genomes[0]
	}
	switch s.Options.SelectionMode {
	case neat.SelectionLogarithmicRankedPick:
		idx := nmath.LogRankedIndex(n)
		return pop.Genomes[n-1-idx]
	default:
		return pop.Genomes[rand.Intn(n)]
	}
}

// BestGenome returns the fittest genome across every population currently tracked.
func (s *Species) BestGenome() *Genome {
	var best *Genome
	for _, pop := range s.Populations {
		candidate := pop.BestGenome()
		if candidate == nil {
			continue
		}
		if best == nil || candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best
}

// PopulationCount returns the number of distinct populations currently tracked.
func (s *Species) PopulationCount() int {
	return len(s.Populations)
}
