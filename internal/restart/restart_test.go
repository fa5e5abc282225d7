package restart

import (
	"math/rand"
	"testing"

	"dispatchsim/internal/distribution"
	"dispatchsim/internal/network"
	"dispatchsim/internal/simkernel"
)

type alwaysFirstRoute struct {
	net *network.Network
}

func (r alwaysFirstRoute) NextFromCrusher(truck, crusher int) simkernel.RouteChoice {
	for _, rt := range r.net.Routes {
		if rt.Crusher == crusher {
			return simkernel.Route(rt.Index)
		}
	}
	return simkernel.Park()
}

func (r alwaysFirstRoute) NextFromShovel(truck, shovel int) simkernel.RouteChoice {
	for _, rt := range r.net.Routes {
		if rt.Shovel == shovel {
			return simkernel.Route(rt.Index)
		}
	}
	return simkernel.Park()
}

func smallNetwork(nt int) *network.Network {
	crushers := []network.Crusher{{EmptyMean: 1, EmptySD: 0.2}}
	shovels := []network.Shovel{{FillMean: 2, FillSD: 0.3}}
	roads := []network.Road{{
		Index: 0,
		A:     network.NodeRef{Kind: network.NodeCrusher, Index: 0},
		B:     network.NodeRef{Kind: network.NodeShovel, Index: 0},
		TravelMean: 4, TravelSD: 0.5,
		Kind: network.TwoLane,
	}}
	return &network.Network{
		Simple: true, NumTrucks: nt, FullSlowdown: 1.1,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.SimpleRoutes(roads),
	}
}

func TestCaptureAndReadyPreservesTruckCount(t *testing.T) {
	net := smallNetwork(4)
	sampler := distribution.SymmetricUniform{Rand: rand.New(rand.NewSource(7))}
	k := simkernel.NewKernel(net, sampler, alwaysFirstRoute{net: net}, nil)
	k.Start()
	k.Simulate(20)

	cp := Capture(k)
	if len(cp.Snapshot.Trucks) != net.NumTrucks {
		t.Fatalf("snapshot has %d trucks, want %d", len(cp.Snapshot.Trucks), net.NumTrucks)
	}

	resumed := Ready(cp, alwaysFirstRoute{net: net})
	if len(resumed.Trucks()) != net.NumTrucks {
		t.Fatalf("resumed kernel has %d trucks, want %d", len(resumed.Trucks()), net.NumTrucks)
	}
	if resumed.Now() != k.Now() {
		t.Fatalf("resumed clock %.3f != captured clock %.3f", resumed.Now(), k.Now())
	}
	if resumed.NumEmpties() != k.NumEmpties() {
		t.Fatalf("resumed empties %d != captured empties %d", resumed.NumEmpties(), k.NumEmpties())
	}

	resumed.Simulate(40)
	if resumed.NumEmpties() < k.NumEmpties() {
		t.Fatal("resumed simulation lost empties relative to its starting point")
	}
}

func TestVerifyReplayStaysInSameOrderOfMagnitude(t *testing.T) {
	net := smallNetwork(6)
	newKernel := func() *simkernel.Kernel {
		s := distribution.SymmetricUniform{Rand: rand.New(rand.NewSource(11))}
		return simkernel.NewKernel(net, s, alwaysFirstRoute{net: net}, nil)
	}

	live, resumed := VerifyReplay(newKernel, alwaysFirstRoute{net: net}, 50, 150)
	if live == 0 || resumed == 0 {
		t.Fatalf("expected both paths to record empties, got live=%d resumed=%d", live, resumed)
	}
	ratio := float64(resumed) / float64(live)
	if ratio < 0.5 || ratio > 2.0 {
		t.Fatalf("resumed empties %d diverged too far from live empties %d", resumed, live)
	}
}

func TestRecorderCapturesLightFlips(t *testing.T) {
	crushers := []network.Crusher{{EmptyMean: 1}}
	shovels := []network.Shovel{{FillMean: 1}}
	roads := []network.Road{{
		Index: 0,
		A:     network.NodeRef{Kind: network.NodeCrusher, Index: 0},
		B:     network.NodeRef{Kind: network.NodeShovel, Index: 0},
		TravelMean: 5, Kind: network.OneLane,
	}}
	net := &network.Network{
		NumTrucks: 4, FullSlowdown: 1,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.EnumerateRoutes(crushers, shovels, roads),
	}
	k := simkernel.NewKernel(net, distribution.DeterministicMean{}, alwaysFirstRoute{net: net}, nil)
	rec := NewRecorder(k)
	rec.Attach(k)
	k.Start()
	k.Simulate(200)

	if len(rec.Events) == 0 {
		t.Fatal("expected recorded transitions")
	}
	if len(rec.Lights) == 0 {
		t.Fatal("expected recorded light changes")
	}
}
