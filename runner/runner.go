// Package runner self-drives a run of generations: ActionGeneration(n)
// kicks off up to n generations on an internal goroutine and returns
// immediately, refusing a second run while one is in progress. Each
// generation spawns one agent per genome, lets every agent run
// concurrently against a wall-clock deadline, collects fitness under a
// single lock, and hands the result to the genetics package to breed the
// next generation.
//
// Grounded on _examples/yaricom-goNEAT/neat/genetics/population_epoch.go's
// prepare/reproduce/finalize staging and
// _examples/yaricom-goNEAT/experiment/experiment_execute.go's generation
// loop and ctx.Done() cancellation idiom. The teacher's loop calls a single
// synchronous GenerationEvaluator once per generation; this package instead
// spawns one agent per network and races them against a timeout, which has
// no direct teacher analogue and is written fresh in the teacher's
// locking/logging style.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/foxforge/neat-go/neat"
	"github.com/foxforge/neat-go/neat/genetics"
	"github.com/foxforge/neat-go/neat/network"
	"github.com/foxforge/neat-go/stats"
)

// Agent is one evaluated network instance for a generation.
type Agent interface {
	// Activate runs the agent's behavior against its network. It may
	// return before the generation's timeout elapses by calling
	// cb.OnFinished(agent); agents that never call it are simply cut off
	// when the timeout fires.
	Activate(specieId string, cb FinishCallback, net *network.Evaluator) error
	// CalculateFitness returns this agent's fitness, read once Activate has
	// returned or the generation timeout has elapsed, whichever is first.
	CalculateFitness() float64
}

// FinishCallback lets an Agent signal voluntary early completion.
type FinishCallback interface {
	OnFinished(agent Agent)
}

// Environment supplies agents and observes generation boundaries.
type Environment interface {
	// BeforeGeneration is called once before any agent is activated.
	BeforeGeneration() error
	// CreateAgent builds the agent for one genome spawned into specieId,
	// spawnIndex being this agent's position within the generation.
	CreateAgent(specieId string, spawnIndex int) (Agent, error)
	// AfterGeneration is called once every agent has finished or been cut off.
	AfterGeneration() error
	// OnGenerationComplete reports the generation's fitness summary.
	OnGenerationComplete(summary stats.GenerationSummary)
}

// GenerationRunner advances a Species through successive generations,
// activating one agent per genome each round.
type GenerationRunner struct {
	Registry    *genetics.Consultor
	Options     *neat.Options
	Species     *genetics.Species
	Environment Environment
	Tracker     *stats.Tracker

	// SeedGenomes, when non-nil, supplies Reset's initial population
	// instead of fresh primitive-mutated-once genomes -- e.g. genomes
	// recovered via persist.Decode from a saved packet.
	SeedGenomes []*genetics.Genome

	mu     sync.Mutex
	origin map[Agent]*genetics.Genome

	generationNumber int
	remaining        int
	cancel           context.CancelFunc
	runErr           error
}

// NewGenerationRunner creates a runner bound to an already-speciated run.
func NewGenerationRunner(registry *genetics.Consultor, opts *neat.Options, species *genetics.Species, env Environment) *GenerationRunner {
	return &GenerationRunner{
		Registry:    registry,
		Options:     opts,
		Species:     species,
		Environment: env,
		Tracker:     stats.NewTracker(),
	}
}

// OnFinished implements FinishCallback; it is handed to every agent so an
// agent can report early completion instead of running out the timeout.
func (r *GenerationRunner) OnFinished(agent Agent) {
	// Voluntary finish carries no extra bookkeeping beyond letting the
	// agent's own goroutine return; fitness is read from CalculateFitness
	// uniformly once every agent has returned or the deadline fires.
	neat.DebugLog(fmt.Sprintf("agent %v finished voluntarily", agent))
}

// ActionGeneration starts a run of up to n generations, driven one at a
// time on an internal goroutine until the budget is exhausted, a
// generation fails, or Stop is called. If a run is already in progress
// (GenerationsRemaining() > 0) it returns false instead of raising an
// error (spec.md's State error: reported by returning false, not
// raised); otherwise it begins the run and returns true immediately --
// callers observe progress through Environment.OnGenerationComplete,
// GenerationNumber, and GenerationsRemaining, and any run-ending error
// through Err.
func (r *GenerationRunner) ActionGeneration(n int) bool {
	r.mu.Lock()
	if r.remaining > 0 {
		r.mu.Unlock()
		return false
	}
	r.remaining = n
	r.runErr = nil
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	go r.driveGenerations(ctx)
	return true
}

// Stop cancels any run started by ActionGeneration. Cancellation is
// observed while a generation waits on its agents: that generation
// returns with the context's error without its fitness sweep or breeding
// step, and the run ends with that error recorded on Err.
func (r *GenerationRunner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Err returns the error, if any, that halted the most recently started run.
func (r *GenerationRunner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runErr
}

func (r *GenerationRunner) driveGenerations(ctx context.Context) {
	for {
		r.mu.Lock()
		remaining := r.remaining
		r.mu.Unlock()
		if remaining <= 0 {
			return
		}

		genCtx := neat.NewContext(ctx, r.Options)
		err := r.runGeneration(genCtx)

		r.mu.Lock()
		if err != nil {
			r.runErr = err
			r.remaining = 0
		} else {
			r.remaining--
		}
		r.mu.Unlock()

		if err != nil {
			return
		}
	}
}

// runGeneration runs exactly one generation: spawn, activate, collect,
// breed. The caller supplies this generation's options via
// neat.NewContext, mirroring the teacher's Experiment.Execute; a context
// with no options attached is rejected rather than silently falling back
// to stale configuration. Returns early with ctx.Err() if ctx is
// cancelled before the generation's agents finish.
func (r *GenerationRunner) runGeneration(ctx context.Context) error {
	opts, found := neat.FromContext(ctx)
	if !found {
		return neat.ErrNEATOptionsNotFound
	}
	r.Options = opts

	if err := r.Environment.BeforeGeneration(); err != nil {
		return errors.Wrap(err, "before generation")
	}

	r.mu.Lock()
	r.origin = make(map[Agent]*genetics.Genome)
	r.mu.Unlock()

	var agents []Agent
	var wg sync.WaitGroup
	spawnIndex := 0

	for _, pop := range r.Species.Populations {
		for _, genome := range pop.Genomes {
			agent, net, err := r.spawn(pop, genome, spawnIndex)
			spawnIndex++
			if err != nil {
				neat.ErrorLog(fmt.Sprintf("failed to spawn agent for genome %d: %v", genome.Id, err))
				genome.Fitness = 0
				continue
			}

			r.mu.Lock()
			r.origin[agent] = genome
			r.mu.Unlock()
			agents = append(agents, agent)

			wg.Add(1)
			go r.runAgent(&wg, agent, pop.Id, net)
		}
	}

	if err := r.awaitGeneration(ctx, &wg); err != nil {
		return err
	}

	r.collectFitness(agents)

	if err := r.Environment.AfterGeneration(); err != nil {
		return errors.Wrap(err, "after generation")
	}

	r.mu.Lock()
	generationNumber := r.generationNumber
	r.mu.Unlock()

	r.Tracker.Record(generationNumber, r.Species)
	r.Environment.OnGenerationComplete(r.Tracker.Summaries[len(r.Tracker.Summaries)-1])

	r.Species.GenerateNewGeneration(r.Options.PopulationSize)

	r.mu.Lock()
	r.generationNumber++
	r.mu.Unlock()
	return nil
}

func (r *GenerationRunner) spawn(pop *genetics.Population, genome *genetics.Genome, spawnIndex int) (Agent, *network.Evaluator, error) {
	agent, err := r.Environment.CreateAgent(pop.Id, spawnIndex)
	if err != nil {
		return nil, nil, err
	}
	net, err := genome.Build()
	if err != nil {
		return nil, nil, err
	}
	start := time.Now()
	genome.SetElapsedFunc(func() int64 { return time.Since(start).Milliseconds() })
	return agent, net, nil
}

// runAgent activates an agent, recovering from any panic so one broken
// agent cannot take down the rest of the generation (spec.md section 9's
// error-handling design: a panicking agent degrades to fitness 0 rather
// than propagating).
func (r *GenerationRunner) runAgent(wg *sync.WaitGroup, agent Agent, specieId string, net *network.Evaluator) {
	defer wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			neat.ErrorLog(fmt.Sprintf("agent activation panicked: %v", rec))
			r.mu.Lock()
			if genome, ok := r.origin[agent]; ok {
				genome.Fitness = 0
				genome.SetElapsedFunc(nil)
				delete(r.origin, agent)
			}
			r.mu.Unlock()
		}
	}()
	if err := agent.Activate(specieId, r, net); err != nil {
		neat.WarnLog(fmt.Sprintf("agent activation returned error: %v", err))
	}
}

// awaitGeneration blocks until every agent has returned, the generation
// timeout elapses, or ctx is cancelled, whichever comes first.
func (r *GenerationRunner) awaitGeneration(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(time.Duration(r.Options.GenerationTestTimeMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		neat.DebugLog("generation timeout reached, collecting partial results")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// collectFitness reads every agent's fitness under a single lock, guarding
// against a panicking CalculateFitness the same way runAgent guards Activate.
func (r *GenerationRunner) collectFitness(agents []Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, agent := range agents {
		genome, ok := r.origin[agent]
		if !ok {
			continue
		}
		genome.Fitness = safeCalculateFitness(agent)
		genome.SetElapsedFunc(nil)
	}
}

func safeCalculateFitness(agent Agent) (fitness float64) {
	defer func() {
		if rec := recover(); rec != nil {
			neat.ErrorLog(fmt.Sprintf("CalculateFitness panicked: %v", rec))
			fitness = 0
		}
	}()
	return agent.CalculateFitness()
}

// Reset restarts the run at generation 0: rebuilds the species and seeds
// populationSize initial networks, each either a primitive genome mutated
// once or -- if SeedGenomes is set -- a caller-supplied genome (e.g. one
// recovered via persist.Decode), then speciates them into the rebuilt
// species.
func (r *GenerationRunner) Reset() {
	r.mu.Lock()
	r.generationNumber = 0
	r.remaining = 0
	r.runErr = nil
	r.mu.Unlock()

	r.Tracker = stats.NewTracker()
	r.Species = genetics.NewSpecies(r.Registry, r.Options)

	seeds := r.SeedGenomes
	if seeds == nil {
		seeds = make([]*genetics.Genome, r.Options.PopulationSize)
		for i := range seeds {
			g := genetics.NewPrimitiveGenome(r.Registry, r.Options.NumberOfInputPerceptrons, r.Options.NumberOfOutputPerceptrons)
			g.Mutate(r.Options.MutationParams)
			seeds[i] = g
		}
	}
	r.Species.Speciate(seeds)
}

// GenerationNumber returns the number of generations completed so far.
func (r *GenerationRunner) GenerationNumber() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generationNumber
}

// GenerationsRemaining returns how many generations remain in the run
// currently in progress, or 0 if none is.
func (r *GenerationRunner) GenerationsRemaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// GetBestNetwork builds and returns the fittest genome's evaluator.
func (r *GenerationRunner) GetBestNetwork() (*network.Evaluator, error) {
	best := r.Species.BestGenome()
	if best == nil {
		return nil, errors.New("no genome has been evaluated yet")
	}
	return best.Build()
}

// GetSpeciesInfo returns the current populations, for reporting.
func (r *GenerationRunner) GetSpeciesInfo() []*genetics.Population {
	return r.Species.Populations
}
