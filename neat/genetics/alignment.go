package genetics

import (
	"math"

	"github.com/foxforge/neat-go/neat"
)

// AlignmentEntry pairs up to one gene from each parent under a shared
// innovation number. A nil side means the other parent has no gene at that
// innovation number at all.
type AlignmentEntry struct {
	Innovation int64
	A, B       *Gene
}

// Alignment is the innovation-ordered merge of two genomes' gene lists,
// ascending, as used by both Distance and Crossover.
type Alignment struct {
	Entries []AlignmentEntry
}

// Align merges a's and b's (already innovation-ordered) gene lists into a
// single ascending table.
func Align(a, b *Genome) *Alignment {
	alignment := &Alignment{}
	i, j := 0, 0
	for i < len(a.Genes) || j < len(b.Genes) {
		switch {
		case i >= len(a.Genes):
			alignment.Entries = append(alignment.Entries, AlignmentEntry{Innovation: b.Genes[j].InnovationNum, B: b.Genes[j]})
			j++
		case j >= len(b.Genes):
			alignment.Entries = append(alignment.Entries, AlignmentEntry{Innovation: a.Genes[i].InnovationNum, A: a.Genes[i]})
			i++
		case a.Genes[i].InnovationNum == b.Genes[j].InnovationNum:
			alignment.Entries = append(alignment.Entries, AlignmentEntry{Innovation: a.Genes[i].InnovationNum, A: a.Genes[i], B: b.Genes[j]})
			i++
			j++
		case a.Genes[i].InnovationNum < b.Genes[j].InnovationNum:
			alignment.Entries = append(alignment.Entries, AlignmentEntry{Innovation: a.Genes[i].InnovationNum, A: a.Genes[i]})
			i++
		default:
			alignment.Entries = append(alignment.Entries, AlignmentEntry{Innovation: b.Genes[j].InnovationNum, B: b.Genes[j]})
			j++
		}
	}
	return alignment
}

// lastInnovation returns the highest innovation number present in genes, or
// -1 if genes is empty.
func lastInnovation(genes []*Gene) int64 {
	if len(genes) == 0 {
		return -1
	}
	return genes[len(genes)-1].InnovationNum
}

// Distance computes the genomic compatibility distance between a and b,
// per spec.md section 4.5:
//
//	delta = avgWeightCoefficient*(sum(|dw|)/equalCount)
//	      + disjointCoefficient*disjointCount/N
//	      + excessCoefficient*excessCount/N
//
// where N is the larger parent's gene count (at least 1), and a single-parent
// entry is excess if its innovation number exceeds the other parent's
// highest innovation number, disjoint otherwise. When both genomes share the
// same highest innovation number, every single-parent entry is necessarily
// disjoint (the shared maximum is itself an equal entry).
func Distance(a, b *Genome, opts *neat.Options) float64 {
	alignment := Align(a, b)
	maxA := lastInnovation(a.Genes)
	maxB := lastInnovation(b.Genes)

	var excess, disjoint, equalCount int
	var weightDiffSum float64

	for _, entry := range alignment.Entries {
		switch {
		case entry.A != nil && entry.B != nil:
			equalCount++
			weightDiffSum += math.Abs(entry.A.Weight - entry.B.Weight)
		case entry.A != nil:
			if entry.Innovation > maxB {
				excess++
			} else {
				disjoint++
			}
		default:
			if entry.Innovation > maxA {
				excess++
			} else {
				disjoint++
			}
		}
	}

	n := len(a.Genes)
	if len(b.Genes) > n {
		n = len(b.Genes)
	}
	if n == 0 {
		n = 1
	}

	var avgWeightTerm float64
	if equalCount > 0 {
		avgWeightTerm = opts.AverageWeightDifferenceCoefficient * (weightDiffSum / float64(equalCount))
	}

	return avgWeightTerm +
		opts.DisjointCoefficient*float64(disjoint)/float64(n) +
		opts.ExcessCoefficient*float64(excess)/float64(n)
}

// SameSpecies reports whether a and b are within the configured
// compatibility threshold of one another.
func SameSpecies(a, b *Genome, opts *neat.Options) bool {
	return Distance(a, b, opts) < opts.DeltaThreshold
}
