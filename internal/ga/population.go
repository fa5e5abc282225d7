package ga

import (
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"dispatchsim/internal/network"
	"dispatchsim/internal/telemetry"
)

// Config is the rolling GA's single construction-time configuration value
// (spec §9's "Factory builders with many optional setters -> a single
// Config{...}"): every tunable named in spec §4.9/§4.10 in one place.
type Config struct {
	Net *network.Network

	PopSize        int
	SelectionSize  int
	Elitism        float64 // fraction of PopSize marked for survival each generation
	AllowSurvivors bool
	MaxGen         int
	ConCutoff      int
	TournamentK    int // default 4

	BucketSize   int
	ResampleRate int
	ResampleSize int

	Fitness  FitnessConfig
	Operator OperatorConfig

	InitialShovelStringLen int // starting length for complex-network shovel strings

	Rand   *rand.Rand
	Logger *slog.Logger

	// Progress, if set, is called after each generation with the
	// generation index and the best-ever fitness so far. internal/api uses
	// this to stream GA progress over its /ws/ga/{id} endpoint without the
	// core loop knowing anything about HTTP.
	Progress func(gen int, bestFitness float64)
}

func (cfg Config) tournamentK() int {
	if cfg.TournamentK > 0 {
		return cfg.TournamentK
	}
	return 4
}

// Result is the GA's return value: the best genome found, and the
// best-ever fitness at each generation (monotonically non-decreasing, spec
// §8 law 11).
type Result struct {
	Best        *Genome
	BestPerGen  []float64
	Generations int
}

// Run executes the rolling GA loop from spec §4.9.
func Run(cfg Config) Result {
	logger := telemetry.Logger(cfg.Logger)
	l := buildLayout(cfg.Net)

	pop := make([]*Genome, cfg.PopSize)
	for i := range pop {
		pop[i] = newGenome(cfg.Net, l, cfg.Rand, cfg.InitialShovelStringLen)
		fillBucket(cfg, l, pop[i])
	}

	var best *Genome
	var bestFitness float64
	var bestHistory []float64
	noImprove := 0

	for gen := 0; gen < cfg.MaxGen; gen++ {
		genStart := time.Now()
		sort.Slice(pop, func(i, j int) bool {
			fi, fj := pop[i].bucket.mean(), pop[j].bucket.mean()
			if fi != fj {
				return fi > fj
			}
			return pop[i].age > pop[j].age
		})

		eliteCount := int(cfg.Elitism * float64(cfg.PopSize))
		if eliteCount < 1 {
			eliteCount = 1
		}
		if eliteCount > len(pop) {
			eliteCount = len(pop)
		}
		elites := pop[:eliteCount]
		for _, e := range elites {
			e.age++
			maybeResample(cfg, l, e)
		}

		seen := map[string]bool{}
		for _, e := range elites {
			seen[e.key()] = true
		}

		var pool []*Genome
		offspring := breedOffspring(cfg, l, pop, seen)
		pool = append(pool, offspring...)

		if cfg.AllowSurvivors {
			for _, g := range pop[eliteCount:] {
				g.age++
				maybeResample(cfg, l, g)
				pool = append(pool, g)
			}
		}

		need := cfg.PopSize - eliteCount
		selected := tournamentSelect(cfg, pool, need)

		next := make([]*Genome, 0, cfg.PopSize)
		next = append(next, elites...)
		next = append(next, selected...)
		pop = next

		genBest := pop[0]
		for _, g := range pop {
			if g.bucket.mean() > genBest.bucket.mean() {
				genBest = g
			}
		}
		if best == nil || genBest.bucket.mean() > bestFitness {
			best = genBest
			bestFitness = genBest.bucket.mean()
			noImprove = 0
		} else {
			noImprove++
		}
		bestHistory = append(bestHistory, bestFitness)

		logger.Debug("ga generation", "gen", gen, "best_fitness", bestFitness, "pop_size", len(pop))
		telemetry.GAGenerationBestFitness.Set(bestFitness)
		telemetry.GAGenerationDuration.Observe(time.Since(genStart).Seconds())
		if cfg.Progress != nil {
			cfg.Progress(gen, bestFitness)
		}

		if cfg.ConCutoff > 0 && noImprove >= cfg.ConCutoff {
			return Result{Best: best, BestPerGen: bestHistory, Generations: gen + 1}
		}
	}

	return Result{Best: best, BestPerGen: bestHistory, Generations: cfg.MaxGen}
}

// fillBucket evaluates a genome until its rolling bucket holds BucketSize
// samples (spec §4.9 step 1 "fill each bucket").
func fillBucket(cfg Config, l layout, g *Genome) {
	for g.bucket.len() < cfg.BucketSize {
		g.bucket.add(evaluate(cfg.Fitness, l, g, cfg.Rand), cfg.BucketSize)
	}
}

// maybeResample appends ResampleSize new evaluations when a surviving
// genome's age crosses a ResampleRate boundary (spec §4.9).
func maybeResample(cfg Config, l layout, g *Genome) {
	if cfg.ResampleRate <= 0 || g.age%cfg.ResampleRate != 0 {
		return
	}
	for i := 0; i < cfg.ResampleSize; i++ {
		g.bucket.add(evaluate(cfg.Fitness, l, g, cfg.Rand), cfg.BucketSize)
	}
}

// breedOffspring produces SelectionSize unique offspring via the §4.10
// pipeline, discarding duplicates against seen until the target is reached
// or attempts are exhausted.
func breedOffspring(cfg Config, l layout, pop []*Genome, seen map[string]bool) []*Genome {
	var out []*Genome
	const maxAttempts = 200
	attempts := 0
	for len(out) < cfg.SelectionSize && attempts < maxAttempts*cfg.SelectionSize {
		attempts++
		a := pop[cfg.Rand.Intn(len(pop))]
		b := pop[cfg.Rand.Intn(len(pop))]
		child := breed(cfg.Operator, a, b, cfg.Rand)
		key := child.key()
		if seen[key] {
			continue
		}
		seen[key] = true
		fillBucket(cfg, l, child)
		out = append(out, child)
	}
	return out
}

// tournamentSelect runs k-tournament selection against pool need times to
// fill the next generation (spec §4.9 step e).
func tournamentSelect(cfg Config, pool []*Genome, need int) []*Genome {
	if len(pool) == 0 || need <= 0 {
		return nil
	}
	k := cfg.tournamentK()
	out := make([]*Genome, 0, need)
	for i := 0; i < need; i++ {
		bestIdx := cfg.Rand.Intn(len(pool))
		for j := 1; j < k; j++ {
			cand := cfg.Rand.Intn(len(pool))
			if pool[cand].bucket.mean() > pool[bestIdx].bucket.mean() {
				bestIdx = cand
			}
		}
		out = append(out, pool[bestIdx])
	}
	return out
}
