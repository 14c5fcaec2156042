// Command xorrun demonstrates the runner package end to end: it breeds a
// population of feed-forward networks against the XOR truth table until a
// solver is found or the generation budget runs out.
//
// Grounded on _examples/yaricom-goNEAT/experiments/xor/XOR.go (the fitness
// function: summed absolute error against the truth table, converted to a
// maximization score) and _examples/yaricom-goNEAT/executor.go (flag
// parsing, YAML config load, signal-based cancellation).
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/foxforge/neat-go/neat"
	"github.com/foxforge/neat-go/neat/genetics"
	"github.com/foxforge/neat-go/neat/network"
	"github.com/foxforge/neat-go/runner"
	"github.com/foxforge/neat-go/stats"
)

const fitnessThreshold = 15.5

// xorInputs holds the four input rows (x1, x2, bias-slot-placeholder) and
// xorTargets their expected outputs.
var xorInputs = [][]float64{
	{0, 0, 1},
	{0, 1, 1},
	{1, 0, 1},
	{1, 1, 1},
}
var xorTargets = []float64{0, 1, 1, 0}

func main() {
	configPath := flag.String("config", "./data/xor.neat.yml", "NEAT options configuration file.")
	generations := flag.Int("generations", 100, "Maximum number of generations to run.")
	statsOutPath := flag.String("stats-out", "", "If set, write an NPZ dump of run statistics to this path.")
	logLevel := flag.String("log-level", "", "Overrides the log_level set in the configuration file.")
	flag.Parse()

	rand.Seed(time.Now().UnixNano())

	opts, err := neat.ReadOptionsFromFile(*configPath)
	if err != nil {
		log.Fatalf("failed to load NEAT options: %v", err)
	}
	if *logLevel != "" {
		if err := neat.InitLogger(*logLevel); err != nil {
			log.Fatalf("failed to apply log level override: %v", err)
		}
	}

	registry := genetics.NewPrimedConsultor(opts, opts.NumberOfInputPerceptrons, opts.NumberOfOutputPerceptrons)
	species := genetics.NewSpecies(registry, opts)
	species.Speciate(seedPopulation(registry, opts))

	env := &xorEnvironment{}
	r := runner.NewGenerationRunner(registry, opts, species, env)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-signals
		fmt.Println("\nstopping the run")
		r.Stop()
	}()

	if !r.ActionGeneration(*generations) {
		log.Fatal("a run is already in progress")
	}
	for r.GenerationsRemaining() > 0 {
		if env.isSolved() {
			r.Stop()
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err := r.Err(); err != nil {
		neat.WarnLog(fmt.Sprintf("run ended early: %v", err))
	}

	printResult(r, env)

	if *statsOutPath != "" {
		writeStats(r, *statsOutPath)
	}
}

func seedPopulation(registry *genetics.Consultor, opts *neat.Options) []*genetics.Genome {
	genomes := make([]*genetics.Genome, opts.PopulationSize)
	for i := range genomes {
		genomes[i] = genetics.NewPrimitiveGenome(registry, opts.NumberOfInputPerceptrons, opts.NumberOfOutputPerceptrons)
	}
	return genomes
}

func printResult(r *runner.GenerationRunner, env *xorEnvironment) {
	if env.isSolved() {
		fmt.Printf("solved in %d generations\n", r.GenerationNumber())
	} else {
		fmt.Printf("no solver found within %d generations\n", r.GenerationNumber())
	}
	net, err := r.GetBestNetwork()
	if err != nil {
		neat.WarnLog(fmt.Sprintf("no evaluated network to report: %v", err))
		return
	}
	for _, row := range xorInputs {
		out, err := net.Fire(row)
		if err != nil {
			neat.ErrorLog(fmt.Sprintf("failed to activate best network: %v", err))
			return
		}
		fmt.Printf("%.0f xor %.0f -> %.4f\n", row[0], row[1], out[0])
	}
}

func writeStats(r *runner.GenerationRunner, path string) {
	file, err := os.Create(path)
	if err != nil {
		neat.ErrorLog(fmt.Sprintf("failed to create stats output file: %v", err))
		return
	}
	defer file.Close()
	if err := r.Tracker.WriteNPZ(file); err != nil {
		neat.ErrorLog(fmt.Sprintf("failed to write run statistics: %v", err))
	}
}

// xorEnvironment wires the runner against the XOR truth table: every agent
// finishes voluntarily the instant it has read all four of its outputs, rather than
// waiting out the generation timeout.
type xorEnvironment struct {
	mu     sync.Mutex
	solved bool
}

func (e *xorEnvironment) isSolved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.solved
}

func (e *xorEnvironment) BeforeGeneration() error {
	return nil
}

func (e *xorEnvironment) CreateAgent(specieId string, spawnIndex int) (runner.Agent, error) {
	return &xorAgent{}, nil
}

func (e *xorEnvironment) AfterGeneration() error {
	return nil
}

func (e *xorEnvironment) OnGenerationComplete(summary stats.GenerationSummary) {
	neat.InfoLog(fmt.Sprintf("generation %d: best=%.4f average=%.4f species=%d",
		summary.Generation, summary.BestFitness, summary.AverageFitness, summary.SpeciesCount))
	if summary.BestFitness > fitnessThreshold {
		e.mu.Lock()
		e.solved = true
		e.mu.Unlock()
	}
}

// xorAgent evaluates its network against all four XOR truth-table rows and
// converts summed absolute error into a maximization score.
type xorAgent struct {
	fitness float64
}

func (a *xorAgent) Activate(specieId string, cb runner.FinishCallback, net *network.Evaluator) error {
	var errorSum float64
	for i, row := range xorInputs {
		out, err := net.Fire(row)
		if err != nil {
			return err
		}
		errorSum += math.Abs(xorTargets[i] - out[0])
	}
	a.fitness = math.Pow(4.0-errorSum, 2.0)
	cb.OnFinished(a)
	return nil
}

func (a *xorAgent) CalculateFitness() float64 {
	return a.fitness
}
