package genetics

import (
	"math"
	"sort"
)

// Population is a same-species bucket of genomes: spec.md's naming is the
// inverse of the teacher's (there, Population is the whole run and Species
// a cluster within it; here Population is the cluster and Species, defined
// in species.go, is the list of Populations that makes up a run).
type Population struct {
	Id      string
	Genomes []*Genome
}

// NewPopulation creates an empty population bucket under the given id.
func NewPopulation(id string) *Population {
	return &Population{Id: id}
}

// Add appends a genome to this population.
func (p *Population) Add(g *Genome) {
	p.Genomes = append(p.Genomes, g)
}

// Representative returns the population's matching reference genome: the
// first genome added, by convention, since a new generation's first
// surviving member is what subsequent genomes are compared against.
func (p *Population) Representative() *Genome {
	if len(p.Genomes) == 0 {
		return nil
	}
	return p.Genomes[0]
}

// SortByFitnessDescending orders this population's genomes from fittest to
// least fit, in place.
func (p *Population) SortByFitnessDescending() {
	sort.Slice(p.Genomes, func(i, j int) bool {
		return p.Genomes[i].Fitness > p.Genomes[j].Fitness
	})
}

// RemoveWorst drops the bottom fraction of this population by fitness,
// sorting descending first so the survivors are the fittest.
func (p *Population) RemoveWorst(fraction float64) {
	p.SortByFitnessDescending()
	keep := len(p.Genomes) - int(float64(len(p.Genomes))*fraction)
	if keep < 1 {
		keep = 1
	}
	if keep < len(p.Genomes) {
		p.Genomes = p.Genomes[:keep]
	}
}

// AverageFitness returns the mean raw fitness of this population's genomes.
func (p *Population) AverageFitness() float64 {
	if len(p.Genomes) == 0 {
		return 0
	}
	var sum float64
	for _, g := range p.Genomes {
		sum += g.Fitness
	}
	return sum / float64(len(p.Genomes))
}

// BestGenome returns the fittest genome in this population.
func (p *Population) BestGenome() *Genome {
	if len(p.Genomes) == 0 {
		return nil
	}
	best := p.Genomes[0]
	for _, g := range p.Genomes[1:] {
		if g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// sharedFitness applies NEAT's explicit fitness-sharing function:
// max(0, fitness)^beta divided by this population's own size, per spec.md
// section 4.6. A population protects its members from being crowded out by
// a single dominant species by diluting credit across its own members.
func (p *Population) sharedFitness(g *Genome, beta float64) float64 {
	raw := math.Max(0, g.Fitness)
	size := len(p.Genomes)
	if size < 1 {
		size = 1
	}
	return math.Pow(raw, beta) / float64(size)
}

// totalSharedFitness sums sharedFitness across every genome in this population.
func (p *Population) totalSharedFitness(beta float64) float64 {
	var sum float64
	for _, g := range p.Genomes {
		sum += p.sharedFitness(g, beta)
	}
	return sum
}
