package simkernel

import (
	"testing"

	"dispatchsim/internal/distribution"
	"dispatchsim/internal/network"
)

// alwaysRoute0 always sends a truck back out on route 0 / returns on the
// route matching its current shovel; used to drive simple-network tests.
type alwaysRoute0 struct {
	net *network.Network
}

func (r alwaysRoute0) NextFromCrusher(truck, crusher int) RouteChoice {
	for _, rt := range r.net.Routes {
		if rt.Crusher == crusher {
			return Route(rt.Index)
		}
	}
	invariantf("no route from crusher %d", crusher)
	return RouteChoice{}
}

func (r alwaysRoute0) NextFromShovel(truck, shovel int) RouteChoice {
	for _, rt := range r.net.Routes {
		if rt.Shovel == shovel {
			return Route(rt.Index)
		}
	}
	invariantf("no route into shovel %d", shovel)
	return RouteChoice{}
}

func simpleNetwork(nt int, emptyMean, travelMean, fillMean float64) *network.Network {
	crushers := []network.Crusher{{EmptyMean: emptyMean}}
	shovels := []network.Shovel{{FillMean: fillMean}}
	roads := []network.Road{{
		Index: 0,
		A:     network.NodeRef{Kind: network.NodeCrusher, Index: 0},
		B:     network.NodeRef{Kind: network.NodeShovel, Index: 0},
		TravelMean: travelMean,
		Kind:       network.TwoLane,
	}}
	n := &network.Network{
		Simple: true, NumTrucks: nt, FullSlowdown: 1,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.SimpleRoutes(roads),
	}
	return n
}

// TestScenarioADeterministicCycle reproduces spec §8 scenario A: single
// crusher, single shovel, NT=2, deterministic (zero-variance) durations.
func TestScenarioADeterministicCycle(t *testing.T) {
	net := simpleNetwork(2, 1, 5, 2)
	net.FullSlowdown = 1.2
	k := NewKernel(net, distribution.DeterministicMean{}, alwaysRoute0{net: net}, nil)
	k.Start()
	k.Simulate(30)

	cycle := 2.0 + 1.0 + 5.0 + net.FullSlowdown*5.0 // fill + empty + travel_back + slowed travel_out
	expectedPerTruck := int(30.0 / cycle)
	expected := expectedPerTruck * net.NumTrucks
	if k.NumEmpties() < expected-net.NumTrucks || k.NumEmpties() > expected+net.NumTrucks {
		t.Fatalf("empties %d far from expected ~%d (cycle=%.2f)", k.NumEmpties(), expected, cycle)
	}
}

// TestTruckCountInvariant checks, as a proxy for spec §8 property 1, that
// every emitted StateChange carries a progress entry for each of the
// NumTrucks trucks.
func TestTruckCountInvariant(t *testing.T) {
	net := simpleNetwork(5, 1, 3, 2)
	seen := 0
	k := NewKernel(net, distribution.DeterministicMean{}, alwaysRoute0{net: net}, nil)
	k.Observer = func(sc StateChange) {
		if len(sc.Progress) != net.NumTrucks {
			t.Fatalf("progress slice length %d != NumTrucks %d", len(sc.Progress), net.NumTrucks)
		}
		seen++
	}
	k.Start()
	k.Simulate(50)
	if seen == 0 {
		t.Fatal("expected at least one emitted transition")
	}
}

// TestAntiOvertaking checks spec §8 property 3: road completions in a
// fixed direction produce a non-decreasing time sequence. It runs under
// the deterministic sampler, so every truck draws the same travel time.
func TestAntiOvertaking(t *testing.T) {
	net := simpleNetwork(3, 1, 10, 1)
	k := NewKernel(net, distribution.DeterministicMean{}, alwaysRoute0{net: net}, nil)

	var arrivals []float64
	k.Observer = func(sc StateChange) {
		if sc.Transition.To == ApproachingShovel {
			arrivals = append(arrivals, sc.Transition.Time)
		}
	}
	k.Start()
	k.Simulate(15)

	for i := 1; i < len(arrivals); i++ {
		if arrivals[i] < arrivals[i-1] {
			t.Fatalf("arrival sequence not non-decreasing: %v", arrivals)
		}
	}
}

func TestEmptiesMonotonic(t *testing.T) {
	net := simpleNetwork(3, 1, 2, 1)
	k := NewKernel(net, distribution.DeterministicMean{}, alwaysRoute0{net: net}, nil)
	last := 0
	k.Observer = func(sc StateChange) {
		if k.NumEmpties() < last {
			t.Fatalf("num_empties decreased")
		}
		last = k.NumEmpties()
	}
	k.Start()
	k.Simulate(100)
}
