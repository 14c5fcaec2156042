// Package persist implements the plain-text packet codec spec.md section 6
// uses to snapshot a genome's full evolutionary state: its genes, its node
// count, and the innovation registry it was bred against. Grounded on
// _examples/yaricom-goNEAT's genome_reader.go / genome_writer.go /
// population_io.go "one gene per token-run" idiom.
package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/foxforge/neat-go/neat/genetics"
	"github.com/foxforge/neat-go/neat/network"
)

const (
	geneSeparator  = ";"
	fieldSeparator = "_"
)

// Packet is the flattened, plain-text form of a single genome plus the
// innovation registry it was bred against.
type Packet struct {
	Fitness    float64
	TotalNodes int
	Inputs     int
	Outputs    int
	TotalGenes int

	// Genome is the ";"-separated, "_"-joined 4-tuple gene encoding:
	// innovation_in_out_weight per gene. An inactive gene's innovation
	// number is encoded as -(innovation+1) so the active flag survives the
	// round trip without a fifth field.
	Genome string

	ConsultorGenes  int
	ConsultorGenome string
}

// Encode flattens a genome and its registry into a Packet.
func Encode(g *genetics.Genome) Packet {
	return Packet{
		Fitness:         g.Fitness,
		TotalNodes:      len(g.Nodes),
		Inputs:          g.NumInputs,
		Outputs:         g.NumOutputs,
		TotalGenes:      len(g.Genes),
		Genome:          encodeGenes(g.Genes),
		ConsultorGenes:  g.Registry.PairCount(),
		ConsultorGenome: EncodeConsultor(g.Registry),
	}
}

func encodeGenes(genes []*genetics.Gene) string {
	tokens := make([]string, len(genes))
	for i, gene := range genes {
		innov := gene.InnovationNum
		if !gene.Active {
			innov = -(innov + 1)
		}
		tokens[i] = strings.Join([]string{
			strconv.FormatInt(innov, 10),
			strconv.Itoa(gene.InNodeId),
			strconv.Itoa(gene.OutNodeId),
			strconv.FormatFloat(gene.Weight, 'g', -1, 64),
		}, fieldSeparator)
	}
	return strings.Join(tokens, geneSeparator)
}

// Decode reconstructs a genome from a Packet against the given registry,
// priming the registry with every gene's (in, out, innovation) triple so
// that subsequent mutation on the decoded genome sees a consistent
// innovation history. Returns a Configuration-class error (spec.md section
// 7) on any malformed token.
func Decode(p Packet, registry *genetics.Consultor) (*genetics.Genome, error) {
	if p.Inputs <= 0 || p.Outputs <= 0 {
		return nil, errors.Errorf("invalid packet dimensions: inputs=%d outputs=%d", p.Inputs, p.Outputs)
	}
	if p.TotalNodes < p.Inputs+p.Outputs {
		return nil, errors.Errorf("packet total_nodes=%d is too small for inputs=%d outputs=%d",
			p.TotalNodes, p.Inputs, p.Outputs)
	}

	g := genetics.NewEmptyGenome(registry, p.Inputs, p.Outputs)
	buildNodes(g, p)

	if err := decodeGenes(g, registry, p.Genome); err != nil {
		return nil, errors.Wrap(err, "decoding packet genome")
	}
	if len(g.Genes) != p.TotalGenes {
		return nil, errors.Errorf("packet declared %d genes but genome string held %d", p.TotalGenes, len(g.Genes))
	}

	g.Fitness = p.Fitness
	return g, nil
}

// buildNodes rebuilds the node list purely from the input/output/total
// counts, relying on the kind-ordered-block invariant spec.md section 4.1
// guarantees: inputs (last is bias), then outputs, then hidden nodes in
// creation order.
func buildNodes(g *genetics.Genome, p Packet) {
	for i := 0; i < p.Inputs; i++ {
		kind := network.InputNode
		if i == p.Inputs-1 {
			kind = network.InputBiasNode
		}
		g.InsertNode(network.NewNode(i, kind))
	}
	for o := 0; o < p.Outputs; o++ {
		g.InsertNode(network.NewNode(p.Inputs+o, network.OutputNode))
	}
	for h := p.Inputs + p.Outputs; h < p.TotalNodes; h++ {
		g.InsertNode(network.NewNode(h, network.HiddenNode))
	}
}

func decodeGenes(g *genetics.Genome, registry *genetics.Consultor, encoded string) error {
	if encoded == "" {
		return nil
	}
	for _, token := range strings.Split(encoded, geneSeparator) {
		fields := strings.Split(token, fieldSeparator)
		if len(fields) != 4 {
			return errors.Errorf("malformed gene token %q: expected 4 fields, got %d", token, len(fields))
		}

		encodedInnov, err := cast.ToInt64E(fields[0])
		if err != nil {
			return errors.Wrapf(err, "gene token %q: invalid innovation field", token)
		}
		inId, err := cast.ToIntE(fields[1])
		if err != nil {
			return errors.Wrapf(err, "gene token %q: invalid in-node field", token)
		}
		outId, err := cast.ToIntE(fields[2])
		if err != nil {
			return errors.Wrapf(err, "gene token %q: invalid out-node field", token)
		}
		weight, err := cast.ToFloat64E(fields[3])
		if err != nil {
			return errors.Wrapf(err, "gene token %q: invalid weight field", token)
		}

		active := true
		innov := encodedInnov
		if encodedInnov < 0 {
			active = false
			innov = -encodedInnov - 1
		}

		if err := registry.Prime(inId, outId, innov); err != nil {
			return errors.Wrapf(err, "gene token %q", token)
		}

		gene := genetics.NewGene(innov, inId, outId, weight)
		gene.Active = active
		g.InsertGene(gene)
	}
	return nil
}

// EncodeConsultor flattens the registry's assigned pairs into a
// ";"-separated, "_"-joined "in_out" list. The position in the list is the
// pair's innovation number, since Acquire assigns innovations sequentially.
func EncodeConsultor(c *genetics.Consultor) string {
	pairs := c.Pairs()
	tokens := make([]string, len(pairs))
	for i, pair := range pairs {
		tokens[i] = fmt.Sprintf("%d%s%d", pair[0], fieldSeparator, pair[1])
	}
	return strings.Join(tokens, geneSeparator)
}

// DecodeConsultor rebuilds a fresh registry from an EncodeConsultor string,
// priming pairs with sequential innovation numbers in encoded order.
func DecodeConsultor(encoded string) (*genetics.Consultor, error) {
	registry := genetics.NewConsultor(nil)
	if encoded == "" {
		return registry, nil
	}
	for i, token := range strings.Split(encoded, geneSeparator) {
		fields := strings.Split(token, fieldSeparator)
		if len(fields) != 2 {
			return nil, errors.Errorf("malformed consultor pair %q: expected 2 fields, got %d", token, len(fields))
		}
		inId, err := cast.ToIntE(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "consultor pair %q: invalid in-node field", token)
		}
		outId, err := cast.ToIntE(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "consultor pair %q: invalid out-node field", token)
		}
		if err := registry.Prime(inId, outId, int64(i)); err != nil {
			return nil, errors.Wrapf(err, "consultor pair %q", token)
		}
	}
	return registry, nil
}
