package neat

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// LoadYAMLOptions loads NEAT options encoded as a YAML document.
func LoadYAMLOptions(r io.Reader) (*Options, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read YAML options")
	}
	var opts Options
	if err = yaml.Unmarshal(content, &opts); err != nil {
		return nil, errors.Wrap(err, "failed to decode NEAT options from YAML")
	}
	if err = InitLogger(opts.LogLevel); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	if err = opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid NEAT options")
	}
	return &opts, nil
}

// LoadNeatOptions loads NEAT options from a flat "name value" text format,
// one parameter per line.
func LoadNeatOptions(r io.Reader) (*Options, error) {
	c := &Options{
		ParentGeneCrossChanceLookup: make(map[GeneComparison]float64),
	}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.Errorf("malformed config line %d: %q", lineNum, line)
		}
		name, param := fields[0], fields[1]
		if err := c.setField(name, param); err != nil {
			return nil, errors.Wrapf(err, "at line %d", lineNum)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read NEAT options")
	}

	if err := InitLogger(c.LogLevel); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid NEAT options")
	}
	return c, nil
}

func (c *Options) setField(name, param string) (err error) {
	switch name {
	case "topology_mutate_chance":
		c.TopologyMutateChance, err = cast.ToFloat64E(param)
	case "gene_mutate_chance":
		c.GeneMutateChance, err = cast.ToFloat64E(param)
	case "gene_mutate_flags":
		for _, f := range strings.Split(param, ",") {
			c.GeneMutateFlags = append(c.GeneMutateFlags, GeneMutationFlag(f))
		}
	case "parent_gene_cross_chance_default":
		c.ParentGeneCrossChanceDefault, err = cast.ToFloat64E(param)
	case "selection_mode":
		c.SelectionMode, err = parseSelectionMode(param)
	case "population_size":
		c.PopulationSize, err = cast.ToIntE(param)
	case "generation_test_time_ms":
		c.GenerationTestTimeMs, err = cast.ToInt64E(param)
	case "number_of_input_perceptrons":
		c.NumberOfInputPerceptrons, err = cast.ToIntE(param)
	case "number_of_output_perceptrons":
		c.NumberOfOutputPerceptrons, err = cast.ToIntE(param)
	case "elite":
		c.Elite, err = cast.ToFloat64E(param)
	case "beta":
		c.Beta, err = cast.ToFloat64E(param)
	case "remove_worst":
		c.RemoveWorst, err = cast.ToFloat64E(param)
	case "delta_threshold":
		c.DeltaThreshold, err = cast.ToFloat64E(param)
	case "disjoint_coefficient":
		c.DisjointCoefficient, err = cast.ToFloat64E(param)
	case "excess_coefficient":
		c.ExcessCoefficient, err = cast.ToFloat64E(param)
	case "average_weight_difference_coefficient":
		c.AverageWeightDifferenceCoefficient, err = cast.ToFloat64E(param)
	case "log_level":
		c.LogLevel = param
	default:
		return errors.Errorf("unknown configuration parameter found: %s = %s", name, param)
	}
	return err
}

// ReadOptionsFromFile reads NEAT options from configFilePath, automatically
// resolving the config file encoding from its extension.
func ReadOptionsFromFile(configFilePath string) (*Options, error) {
	configFile, err := os.Open(configFilePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer configFile.Close()

	if strings.HasSuffix(configFilePath, "yml") || strings.HasSuffix(configFilePath, "yaml") {
		return LoadYAMLOptions(configFile)
	}
	return LoadNeatOptions(configFile)
}
