package api

import (
	"log/slog"
	"math/rand"

	"dispatchsim/internal/ga"
	"dispatchsim/internal/network"
)

// defaultGAConfig fills in the rolling GA's many tunables (spec §4.9/§4.10)
// with conservative defaults scaled to the submitted network and shift
// length, since the HTTP request surface only exposes NumSamples and
// ShiftLength rather than every GA knob.
func defaultGAConfig(net *network.Network, req Request, logger *slog.Logger) ga.Config {
	return ga.Config{
		Net:                    net,
		PopSize:                20,
		SelectionSize:          16,
		Elitism:                0.15,
		AllowSurvivors:         true,
		MaxGen:                 60,
		ConCutoff:              15,
		TournamentK:            4,
		BucketSize:             5,
		ResampleRate:           3,
		ResampleSize:           1,
		InitialShovelStringLen: 6,
		Fitness: ga.FitnessConfig{
			Net: net, ShiftLength: req.ShiftLength, NumSamples: req.NumSamples,
			Discount: 0.95, ShovelLenThreshold: 8,
		},
		Operator: ga.OperatorConfig{
			PXover: 0.75, PValue: 0.2, PInvert: 0.1, PSwap: 0.1,
			PMove: 0.1, PInsert: 0.05, PDelete: 0.05, N: 2, SMFactor: 1,
		},
		Rand:   rand.New(rand.NewSource(1)),
		Logger: logger,
	}
}
