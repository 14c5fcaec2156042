package runner_test

import (
	"sync"
	"testing"
	"time"

	"github.com/foxforge/neat-go/neat"
	"github.com/foxforge/neat-go/neat/genetics"
	"github.com/foxforge/neat-go/neat/network"
	"github.com/foxforge/neat-go/runner"
	"github.com/foxforge/neat-go/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedFitnessAgent finishes immediately and reports a constant fitness.
type fixedFitnessAgent struct {
	fitness float64
}

func (a *fixedFitnessAgent) Activate(specieId string, cb runner.FinishCallback, net *network.Evaluator) error {
	cb.OnFinished(a)
	return nil
}

func (a *fixedFitnessAgent) CalculateFitness() float64 {
	return a.fitness
}

// panickingAgent exercises the runner's panic-recovery path.
type panickingAgent struct{}

func (a *panickingAgent) Activate(specieId string, cb runner.FinishCallback, net *network.Evaluator) error {
	panic("boom")
}

func (a *panickingAgent) CalculateFitness() float64 {
	return 0
}

type testEnvironment struct {
	mu         sync.Mutex
	nextAgent  func(spawnIndex int) runner.Agent
	beforeHits int
	afterHits  int
	summaries  []stats.GenerationSummary
}

func (e *testEnvironment) BeforeGeneration() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.beforeHits++
	return nil
}

func (e *testEnvironment) CreateAgent(specieId string, spawnIndex int) (runner.Agent, error) {
	return e.nextAgent(spawnIndex), nil
}

func (e *testEnvironment) AfterGeneration() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.afterHits++
	return nil
}

func (e *testEnvironment) OnGenerationComplete(summary stats.GenerationSummary) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.summaries = append(e.summaries, summary)
}

func (e *testEnvironment) summaryCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.summaries)
}

func testOptions() *neat.Options {
	return &neat.Options{
		MutationParams: neat.MutationParams{
			GeneMutateFlags: []neat.GeneMutationFlag{neat.SetRandom},
		},
		SelectionMode:                      neat.SelectionRandom,
		PopulationSize:                     4,
		GenerationTestTimeMs:               200,
		Elite:                              0.25,
		Beta:                               1.0,
		RemoveWorst:                        0,
		DeltaThreshold:                     3.0,
		DisjointCoefficient:                1,
		ExcessCoefficient:                  1,
		AverageWeightDifferenceCoefficient: 0.4,
	}
}

func seedGenomes(n int) []*genetics.Genome {
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	var genomes []*genetics.Genome
	for i := 0; i < n; i++ {
		genomes = append(genomes, genetics.NewPrimitiveGenome(registry, 2, 1))
	}
	return genomes
}

// awaitIdle polls until the runner has no run in progress, or fails the
// test if that never happens within the deadline.
func awaitIdle(t *testing.T, r *runner.GenerationRunner) {
	t.Helper()
	require.Eventually(t, func() bool {
		return r.GenerationsRemaining() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestActionGeneration_CollectsFitnessAndAdvancesGeneration(t *testing.T) {
	opts := testOptions()
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)
	species.Speciate(seedGenomes(4))

	env := &testEnvironment{nextAgent: func(spawnIndex int) runner.Agent {
		return &fixedFitnessAgent{fitness: float64(spawnIndex + 1)}
	}}

	r := runner.NewGenerationRunner(registry, opts, species, env)
	require.True(t, r.ActionGeneration(1))
	awaitIdle(t, r)

	require.NoError(t, r.Err())
	assert.Equal(t, 1, r.GenerationNumber())
	assert.Equal(t, 1, env.beforeHits)
	assert.Equal(t, 1, env.afterHits)
	assert.Equal(t, 1, env.summaryCount())
}

func TestActionGeneration_RunInProgress_SecondCallRejected(t *testing.T) {
	opts := testOptions()
	opts.GenerationTestTimeMs = 5000
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)
	species.Speciate(seedGenomes(2))

	blocker := make(chan struct{})
	env := &testEnvironment{nextAgent: func(spawnIndex int) runner.Agent {
		return &blockingAgent{unblock: blocker}
	}}

	r := runner.NewGenerationRunner(registry, opts, species, env)
	require.True(t, r.ActionGeneration(3))
	assert.False(t, r.ActionGeneration(1))

	close(blocker)
	awaitIdle(t, r)
}

func TestActionGeneration_MultipleGenerations_CountsDown(t *testing.T) {
	opts := testOptions()
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)
	species.Speciate(seedGenomes(4))

	env := &testEnvironment{nextAgent: func(spawnIndex int) runner.Agent {
		return &fixedFitnessAgent{fitness: float64(spawnIndex + 1)}
	}}

	r := runner.NewGenerationRunner(registry, opts, species, env)
	require.True(t, r.ActionGeneration(3))
	awaitIdle(t, r)

	require.NoError(t, r.Err())
	assert.Equal(t, 3, r.GenerationNumber())
	assert.Equal(t, 3, env.summaryCount())
}

func TestActionGeneration_PanickingAgentDegradesToZeroFitness(t *testing.T) {
	opts := testOptions()
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)
	species.Speciate(seedGenomes(2))

	env := &testEnvironment{nextAgent: func(spawnIndex int) runner.Agent {
		return &panickingAgent{}
	}}

	r := runner.NewGenerationRunner(registry, opts, species, env)
	require.True(t, r.ActionGeneration(1))
	awaitIdle(t, r)

	require.NoError(t, r.Err())
	assert.Equal(t, 1, r.GenerationNumber())
}

func TestStop_CancelsRunBetweenGenerations(t *testing.T) {
	opts := testOptions()
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)
	species.Speciate(seedGenomes(2))

	env := &testEnvironment{nextAgent: func(spawnIndex int) runner.Agent {
		return &fixedFitnessAgent{fitness: 1}
	}}

	r := runner.NewGenerationRunner(registry, opts, species, env)
	require.True(t, r.ActionGeneration(1000))
	r.Stop()
	awaitIdle(t, r)

	assert.Error(t, r.Err())
	assert.Less(t, r.GenerationNumber(), 1000)
}

type blockingAgent struct {
	unblock chan struct{}
}

func (a *blockingAgent) Activate(specieId string, cb runner.FinishCallback, net *network.Evaluator) error {
	<-a.unblock
	return nil
}

func (a *blockingAgent) CalculateFitness() float64 {
	return 0
}

func TestGenerationsRemaining_ZeroWhenIdle(t *testing.T) {
	opts := testOptions()
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)
	species.Speciate(seedGenomes(2))

	r := runner.NewGenerationRunner(registry, opts, species, &testEnvironment{
		nextAgent: func(spawnIndex int) runner.Agent { return &fixedFitnessAgent{fitness: 1} },
	})
	assert.Equal(t, 0, r.GenerationsRemaining())
}

func TestReset_RestartsAtGenerationZero(t *testing.T) {
	opts := testOptions()
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)
	species.Speciate(seedGenomes(4))

	env := &testEnvironment{nextAgent: func(spawnIndex int) runner.Agent {
		return &fixedFitnessAgent{fitness: 1}
	}}
	r := runner.NewGenerationRunner(registry, opts, species, env)
	require.True(t, r.ActionGeneration(1))
	awaitIdle(t, r)
	require.NoError(t, r.Err())
	assert.Equal(t, 1, r.GenerationNumber())

	r.Reset()
	assert.Equal(t, 0, r.GenerationNumber())
	assert.Len(t, r.GetSpeciesInfo(), 1)
}

func TestReset_UsesSeedGenomesWhenSet(t *testing.T) {
	opts := testOptions()
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)

	r := runner.NewGenerationRunner(registry, opts, species, &testEnvironment{
		nextAgent: func(spawnIndex int) runner.Agent { return &fixedFitnessAgent{fitness: 1} },
	})
	r.SeedGenomes = seedGenomes(3)
	r.Reset()

	var total int
	for _, pop := range r.GetSpeciesInfo() {
		total += len(pop.Genomes)
	}
	assert.Equal(t, 3, total)
}

func TestGetBestNetwork_ReturnsFittestGenomeEvaluator(t *testing.T) {
	opts := testOptions()
	registry := genetics.NewPrimedConsultor(nil, 2, 1)
	species := genetics.NewSpecies(registry, opts)
	species.Speciate(seedGenomes(3))

	env := &testEnvironment{nextAgent: func(spawnIndex int) runner.Agent {
		return &fixedFitnessAgent{fitness: float64(spawnIndex)}
	}}
	r := runner.NewGenerationRunner(registry, opts, species, env)
	require.True(t, r.ActionGeneration(1))
	awaitIdle(t, r)
	require.NoError(t, r.Err())

	net, err := r.GetBestNetwork()
	require.NoError(t, err)
	assert.NotNil(t, net)
}
