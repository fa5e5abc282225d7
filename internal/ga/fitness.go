package ga

import (
	"math"
	"math/rand"

	"dispatchsim/internal/distribution"
	"dispatchsim/internal/network"
	"dispatchsim/internal/simkernel"
)

// FitnessConfig fixes the simulation parameters a fitness evaluation runs
// under: the network, shift length, number of independent shift samples
// averaged per evaluation, and the length-penalty terms from spec §4.9
// ("penalized by discount^(len-threshold) when the schedule exceeds a
// length threshold").
type FitnessConfig struct {
	Net                *network.Network
	ShiftLength        float64
	NumSamples         int
	Discount           float64
	ShovelLenThreshold int // IDEAL_SC_LEN; no default, the caller sets it
}

// evaluate runs NumSamples independent shifts of the genome's decoded
// schedule and returns the mean truckloads-per-shift, penalized for
// oversized strings. A genome with any zero-length string scores 0 per
// spec §4.9.
func evaluate(cfg FitnessConfig, l layout, genome *Genome, rng *rand.Rand) float64 {
	if genome.hasZeroLengthString() {
		return 0
	}

	thresholds := l.lengthThresholds(cfg.Net, cfg.ShovelLenThreshold)
	penalty := 1.0
	for i, s := range genome.Strings {
		over := len(s.Genes) - thresholds[i]
		if over > 0 {
			penalty *= math.Pow(cfg.Discount, float64(over))
		}
	}

	n := cfg.NumSamples
	if n <= 0 {
		n = 1
	}
	var total float64
	for i := 0; i < n; i++ {
		total += float64(runShift(cfg, l, genome, rng))
	}
	return penalty * total / float64(n)
}

func runShift(cfg FitnessConfig, l layout, genome *Genome, rng *rand.Rand) int {
	sampler := distribution.SymmetricUniform{Rand: rand.New(rand.NewSource(rng.Int63()))}
	routing := newGenomeRouting(cfg.Net, genome, l)
	k := simkernel.NewKernel(cfg.Net, sampler, routing, nil)
	k.Start()
	k.Simulate(cfg.ShiftLength)
	return k.NumEmpties()
}
