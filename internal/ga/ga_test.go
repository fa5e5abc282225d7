package ga

import (
	"math/rand"
	"testing"

	"dispatchsim/internal/network"
)

func simpleScenarioA() *network.Network {
	crushers := []network.Crusher{{EmptyMean: 1}}
	shovels := []network.Shovel{{FillMean: 2}}
	c0 := network.NodeRef{Kind: network.NodeCrusher, Index: 0}
	s0 := network.NodeRef{Kind: network.NodeShovel, Index: 0}
	roads := []network.Road{{Index: 0, A: c0, B: s0, TravelMean: 5, Kind: network.TwoLane}}
	return &network.Network{
		Simple: true, NumTrucks: 2, FullSlowdown: 1,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.EnumerateRoutes(crushers, shovels, roads),
	}
}

func twoShovelComplexNetwork() *network.Network {
	crushers := []network.Crusher{{EmptyMean: 1}}
	shovels := []network.Shovel{{FillMean: 1}, {FillMean: 2}}
	c0 := network.NodeRef{Kind: network.NodeCrusher, Index: 0}
	s0 := network.NodeRef{Kind: network.NodeShovel, Index: 0}
	s1 := network.NodeRef{Kind: network.NodeShovel, Index: 1}
	roads := []network.Road{
		{Index: 0, A: c0, B: s0, TravelMean: 4, Kind: network.TwoLane},
		{Index: 1, A: c0, B: s1, TravelMean: 4, Kind: network.TwoLane},
	}
	return &network.Network{
		NumTrucks: 5, FullSlowdown: 1.1,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.EnumerateRoutes(crushers, shovels, roads),
	}
}

func baseConfig(net *network.Network) Config {
	return Config{
		Net:                    net,
		PopSize:                6,
		SelectionSize:          6,
		Elitism:                0.2,
		AllowSurvivors:         true,
		MaxGen:                 5,
		ConCutoff:              3,
		TournamentK:            3,
		BucketSize:             3,
		ResampleRate:           2,
		ResampleSize:           1,
		InitialShovelStringLen: 4,
		Fitness: FitnessConfig{
			Net: net, ShiftLength: 60, NumSamples: 2,
			Discount: 0.9, ShovelLenThreshold: 8,
		},
		Operator: OperatorConfig{
			PXover: 0.7, PValue: 0.3, PInvert: 0.1, PSwap: 0.1,
			PMove: 0.1, PInsert: 0.1, PDelete: 0.1, N: 2, SMFactor: 1,
		},
		Rand: rand.New(rand.NewSource(42)),
	}
}

func TestRunProducesNonDecreasingBestHistory(t *testing.T) {
	cfg := baseConfig(simpleScenarioA())
	res := Run(cfg)
	if res.Best == nil {
		t.Fatal("expected a best genome")
	}
	for i := 1; i < len(res.BestPerGen); i++ {
		if res.BestPerGen[i] < res.BestPerGen[i-1] {
			t.Fatalf("best-ever fitness decreased at generation %d: %v", i, res.BestPerGen)
		}
	}
}

func TestRunHandlesComplexNetworkLayout(t *testing.T) {
	net := twoShovelComplexNetwork()
	cfg := baseConfig(net)
	res := Run(cfg)
	if res.Best == nil {
		t.Fatal("expected a best genome")
	}
	l := buildLayout(net)
	if l.numStrings != len(net.Crushers)+len(net.Shovels) {
		t.Fatalf("layout has %d strings, want %d", l.numStrings, len(net.Crushers)+len(net.Shovels))
	}
	if len(res.Best.Strings) != l.numStrings {
		t.Fatalf("best genome has %d strings, want %d", len(res.Best.Strings), l.numStrings)
	}
}

func TestFitnessBucketCapsAtSize(t *testing.T) {
	var b fitnessBucket
	for i := 0; i < 10; i++ {
		b.add(float64(i), 3)
	}
	if b.len() != 3 {
		t.Fatalf("bucket length = %d, want 3", b.len())
	}
	want := (7.0 + 8.0 + 9.0) / 3.0
	if b.mean() != want {
		t.Fatalf("bucket mean = %v, want %v", b.mean(), want)
	}
}

func TestZeroLengthGenomeScoresZero(t *testing.T) {
	net := simpleScenarioA()
	l := buildLayout(net)
	g := &Genome{Strings: []GeneString{{Genes: nil, Alphabet: 1}}}
	fc := FitnessConfig{Net: net, ShiftLength: 30, NumSamples: 1, Discount: 0.9, ShovelLenThreshold: 8}
	score := evaluate(fc, l, g, rand.New(rand.NewSource(1)))
	if score != 0 {
		t.Fatalf("expected 0-length genome to score 0, got %v", score)
	}
}

func TestBreedProducesValidGenome(t *testing.T) {
	net := simpleScenarioA()
	l := buildLayout(net)
	rng := rand.New(rand.NewSource(9))
	a := newGenome(net, l, rng, 4)
	b := newGenome(net, l, rng, 4)
	opCfg := OperatorConfig{PXover: 1, PValue: 1, PInvert: 1, PSwap: 1, PMove: 1, PInsert: 1, PDelete: 1, N: 2, SMFactor: 1}
	child := breed(opCfg, a, b, rng)
	if len(child.Strings) != len(a.Strings) {
		t.Fatalf("child has %d strings, want %d", len(child.Strings), len(a.Strings))
	}
	for _, s := range child.Strings {
		if len(s.Genes) == 0 {
			t.Fatal("delete operator should never shrink a string below length 1")
		}
	}
}
