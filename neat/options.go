package neat

import (
	"fmt"
	"strings"
)

// SelectionMode controls how the second parent is picked during crossover
// reproduction.
type SelectionMode string

const (
	// SelectionRandom draws both parents uniformly at random from the population.
	SelectionRandom SelectionMode = "random"
	// SelectionLogarithmicRankedPick draws parent A uniformly and biases parent
	// B logarithmically toward the fitter end of the fitness-sorted population.
	SelectionLogarithmicRankedPick SelectionMode = "log_ranked"
)

// GeneMutationFlag names a single weight-mutation operator a gene may be
// subjected to when its per-gene mutation chance fires.
type GeneMutationFlag string

const (
	// FlipSign negates the gene's weight.
	FlipSign GeneMutationFlag = "flip_sign"
	// ToggleState flips the gene's active flag.
	ToggleState GeneMutationFlag = "toggle_state"
	// SetRandom replaces the weight with a fresh U(-1,1) draw.
	SetRandom GeneMutationFlag = "set_random"
	// ScaleUp multiplies the weight by 1+U(0,1).
	ScaleUp GeneMutationFlag = "scale_up"
	// ScaleDown multiplies the weight by U(0,1).
	ScaleDown GeneMutationFlag = "scale_down"
)

// GeneComparison tags how a crossover-chosen gene relates to its counterpart
// in the other parent, per the perturbation table in spec.md section 4.4.
type GeneComparison string

const (
	BothActive       GeneComparison = "both_active"
	BothInactive     GeneComparison = "both_inactive"
	Inversed         GeneComparison = "inversed"
	DominantActive   GeneComparison = "dominant_active"
	DominantInactive GeneComparison = "dominant_inactive"
	None             GeneComparison = ""
)

// MutationParams is the process-wide mutation parameter block shared by
// every genome bred in a run (spec.md section 6).
type MutationParams struct {
	// TopologyMutateChance is the chance, per Mutate() call, that a topology
	// mutation (AddConnection/AddNode) is attempted.
	TopologyMutateChance float64 `yaml:"topology_mutate_chance"`
	// GeneMutateChance is the per-gene chance of a weight mutation firing.
	GeneMutateChance float64 `yaml:"gene_mutate_chance"`
	// GeneMutateFlags is the set of weight-mutation operators enabled for
	// selection when a gene's mutation chance fires.
	GeneMutateFlags []GeneMutationFlag `yaml:"gene_mutate_flags"`
	// ParentGeneCrossChanceDefault is the state-perturbation chance applied
	// to a crossed-over gene when its comparison tag has no explicit lookup entry.
	ParentGeneCrossChanceDefault float64 `yaml:"parent_gene_cross_chance_default"`
	// ParentGeneCrossChanceLookup overrides ParentGeneCrossChanceDefault per comparison tag.
	ParentGeneCrossChanceLookup map[GeneComparison]float64 `yaml:"parent_gene_cross_chance_lookup"`
}

// Options is the process-wide NEAT configuration surface: mutation
// parameters, LSES (lifecycle/speciation/evaluation/selection) parameters,
// and the species compatibility coefficients. All networks bred within a
// single run share one Options value.
type Options struct {
	MutationParams `yaml:",inline"`

	// SelectionMode picks how mates are drawn during reproduction.
	SelectionMode SelectionMode `yaml:"selection_mode"`
	// PopulationSize is the fixed total organism count maintained across generations.
	PopulationSize int `yaml:"population_size"`
	// GenerationTestTimeMs bounds how long a generation evaluation window lasts.
	GenerationTestTimeMs int64 `yaml:"generation_test_time_ms"`
	// NumberOfInputPerceptrons includes the trailing bias input.
	NumberOfInputPerceptrons int `yaml:"number_of_input_perceptrons"`
	// NumberOfOutputPerceptrons is the output layer width.
	NumberOfOutputPerceptrons int `yaml:"number_of_output_perceptrons"`
	// Elite is the fraction of each population's quota filled by champion clones.
	Elite float64 `yaml:"elite"`
	// Beta is the fitness-sharing exponent applied to positive fitness.
	Beta float64 `yaml:"beta"`
	// RemoveWorst is the fraction of each population dropped before reproduction.
	RemoveWorst float64 `yaml:"remove_worst"`
	// DeltaThreshold is the compatibility distance under which two genomes are same-species.
	DeltaThreshold float64 `yaml:"delta_threshold"`
	// DisjointCoefficient weighs disjoint genes in the distance formula.
	DisjointCoefficient float64 `yaml:"disjoint_coefficient"`
	// ExcessCoefficient weighs excess genes in the distance formula.
	ExcessCoefficient float64 `yaml:"excess_coefficient"`
	// AverageWeightDifferenceCoefficient weighs matching-gene weight divergence.
	AverageWeightDifferenceCoefficient float64 `yaml:"average_weight_difference_coefficient"`

	// LogLevel configures the package logger ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`
}

// Validate checks that the configuration is internally consistent. Fatal at
// construction time per spec.md section 7's Configuration error class.
func (o *Options) Validate() error {
	if o.NumberOfInputPerceptrons <= 0 {
		return fmt.Errorf("number_of_input_perceptrons must be positive, got %d", o.NumberOfInputPerceptrons)
	}
	if o.NumberOfOutputPerceptrons <= 0 {
		return fmt.Errorf("number_of_output_perceptrons must be positive, got %d", o.NumberOfOutputPerceptrons)
	}
	if o.PopulationSize <= 0 {
		return fmt.Errorf("population_size must be positive, got %d", o.PopulationSize)
	}
	if o.GenerationTestTimeMs <= 0 {
		return fmt.Errorf("generation_test_time_ms must be positive, got %d", o.GenerationTestTimeMs)
	}
	if o.Elite < 0 || o.Elite > 1 {
		return fmt.Errorf("elite must be within [0,1], got %f", o.Elite)
	}
	if o.RemoveWorst < 0 || o.RemoveWorst > 1 {
		return fmt.Errorf("remove_worst must be within [0,1], got %f", o.RemoveWorst)
	}
	if len(o.GeneMutateFlags) == 0 {
		return fmt.Errorf("gene_mutate_flags must not be empty")
	}
	switch o.SelectionMode {
	case SelectionRandom, SelectionLogarithmicRankedPick:
	case "":
		o.SelectionMode = SelectionRandom
	default:
		return fmt.Errorf("unsupported selection_mode: %q", o.SelectionMode)
	}
	return nil
}

// CrossChance returns the configured state-perturbation chance for the given
// comparison tag, falling back to ParentGeneCrossChanceDefault when no
// per-tag override is present.
func (m MutationParams) CrossChance(cmp GeneComparison) float64 {
	if v, ok := m.ParentGeneCrossChanceLookup[cmp]; ok {
		return v
	}
	return m.ParentGeneCrossChanceDefault
}

func (s SelectionMode) String() string {
	return string(s)
}

func parseSelectionMode(s string) (SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return SelectionRandom, nil
	case "log_ranked", "logarithmic_ranked_pick":
		return SelectionLogarithmicRankedPick, nil
	default:
		return "", fmt.Errorf("unsupported selection mode: %q", s)
	}
}
