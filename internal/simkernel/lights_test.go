package simkernel

import (
	"testing"

	"dispatchsim/internal/distribution"
	"dispatchsim/internal/network"
)

func oneLaneNetwork(nt int, travelMean float64) *network.Network {
	crushers := []network.Crusher{{EmptyMean: 1}}
	shovels := []network.Shovel{{FillMean: 1}}
	c0 := network.NodeRef{Kind: network.NodeCrusher, Index: 0}
	s0 := network.NodeRef{Kind: network.NodeShovel, Index: 0}
	roads := []network.Road{{
		Index: 0, A: c0, B: s0, TravelMean: travelMean, Kind: network.OneLane,
	}}
	return &network.Network{
		NumTrucks: nt, FullSlowdown: 1,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.EnumerateRoutes(crushers, shovels, roads),
	}
}

// TestOneLaneFairness uses the spec §8 scenario B setup (one crusher, one
// shovel, one one-lane road, NT=4, travel 10): at every emitted transition
// the road must not be occupied in both directions, and trucks must keep
// cycling through the light in both directions.
func TestOneLaneFairness(t *testing.T) {
	net := oneLaneNetwork(4, 10)
	k := NewKernel(net, distribution.DeterministicMean{}, alwaysRoute0{net: net}, nil)

	var bothDirections []bool
	k.Observer = func(sc StateChange) {
		bothDirections = append(bothDirections, len(k.roadQueues[0][0]) > 0 && len(k.roadQueues[0][1]) > 0)
	}
	k.Start()
	k.Simulate(200)

	// Invariant 4: never both directions occupied between events.
	for i := range bothDirections {
		if bothDirections[i] {
			t.Fatalf("one-lane road occupied in both directions at step %d", i)
		}
	}
	if k.NumEmpties() == 0 {
		t.Fatal("expected at least one empty cycle to complete")
	}
}

func TestLightNeverBothRed(t *testing.T) {
	net := oneLaneNetwork(6, 5)
	k := NewKernel(net, distribution.DeterministicMean{}, alwaysRoute0{net: net}, nil)
	k.Observer = func(sc StateChange) {
		st := k.lights[0].State
		if colorOnSide(st, 0) == colorRed && colorOnSide(st, 1) == colorRed {
			t.Fatalf("light %s is red on both sides", st)
		}
	}
	k.Start()
	k.Simulate(100)
}

type parkAfterFirst struct {
	net     *network.Network
	parked  map[int]bool
}

func (r *parkAfterFirst) NextFromCrusher(truck, crusher int) RouteChoice {
	if r.parked == nil {
		r.parked = map[int]bool{}
	}
	if r.parked[truck] {
		return Park()
	}
	r.parked[truck] = true
	for _, rt := range r.net.Routes {
		if rt.Crusher == crusher {
			return Route(rt.Index)
		}
	}
	return Park()
}

func (r *parkAfterFirst) NextFromShovel(truck, shovel int) RouteChoice {
	for _, rt := range r.net.Routes {
		if rt.Shovel == shovel {
			return Route(rt.Index)
		}
	}
	return Park()
}

func TestParkSentinelStopsTruckPermanently(t *testing.T) {
	net := oneLaneNetwork(2, 3)
	routing := &parkAfterFirst{net: net}
	k := NewKernel(net, distribution.DeterministicMean{}, routing, nil)
	k.Start()
	k.Simulate(200)

	parkedCount := 0
	for _, tr := range k.Trucks() {
		if tr.Location == Unused {
			parkedCount++
		}
	}
	if parkedCount == 0 {
		t.Fatal("expected at least one truck to be parked after its first cycle")
	}
}
