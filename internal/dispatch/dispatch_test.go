package dispatch

import (
	"math/rand"
	"testing"

	"dispatchsim/internal/distribution"
	"dispatchsim/internal/network"
	"dispatchsim/internal/simkernel"
)

func twoRouteSimpleNetwork(nt int) *network.Network {
	crushers := []network.Crusher{{EmptyMean: 1, EmptySD: 0.2}}
	shovels := []network.Shovel{{FillMean: 2, FillSD: 0.3}, {FillMean: 3, FillSD: 0.4}}
	c0 := network.NodeRef{Kind: network.NodeCrusher, Index: 0}
	s0 := network.NodeRef{Kind: network.NodeShovel, Index: 0}
	s1 := network.NodeRef{Kind: network.NodeShovel, Index: 1}
	roads := []network.Road{
		{Index: 0, A: c0, B: s0, TravelMean: 4, TravelSD: 0.5, Kind: network.TwoLane},
		{Index: 1, A: c0, B: s1, TravelMean: 6, TravelSD: 0.5, Kind: network.TwoLane},
	}
	return &network.Network{
		Simple: true, NumTrucks: nt, FullSlowdown: 1.1,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.EnumerateRoutes(crushers, shovels, roads),
	}
}

func TestNewControllerRejectsMismatchedFlows(t *testing.T) {
	net := twoRouteSimpleNetwork(5)
	_, err := NewController(net, [][2]float64{{1, 1}}, nil)
	if err == nil {
		t.Fatal("expected an error for a flow matrix shorter than the route list")
	}
}

func TestControllerAssignsRoutesAndProducesThroughput(t *testing.T) {
	net := twoRouteSimpleNetwork(6)
	flows := [][2]float64{{0.1, 0.1}, {0.05, 0.05}}
	ctrl, err := NewController(net, flows, nil)
	if err != nil {
		t.Fatal(err)
	}
	sampler := distribution.SymmetricUniform{Rand: rand.New(rand.NewSource(3))}
	k := simkernel.NewKernel(net, sampler, ctrl, InitialCrusherAssignment(net, flows))
	ctrl.SetKernel(k)
	k.Start()
	k.Simulate(500)

	seen := map[int]bool{}
	for _, tr := range k.Trucks() {
		if tr.AssignedRoute >= 0 {
			seen[tr.AssignedRoute] = true
		}
	}
	if len(seen) == 0 {
		t.Fatal("expected at least one route to be assigned over the run")
	}
	if k.NumEmpties() == 0 {
		t.Fatal("expected throughput over a 500-unit run")
	}
}

func TestInitialCrusherAssignmentCoversAllTrucks(t *testing.T) {
	net := twoRouteSimpleNetwork(9)
	flows := [][2]float64{{0.2, 0.2}, {0.1, 0.1}}
	assign := InitialCrusherAssignment(net, flows)
	if len(assign) != net.NumTrucks {
		t.Fatalf("got %d assignments, want %d", len(assign), net.NumTrucks)
	}
	for _, c := range assign {
		if c < 0 || c >= len(net.Crushers) {
			t.Fatalf("assignment %d out of range", c)
		}
	}
}

func TestGreedyProducesThroughput(t *testing.T) {
	net := twoRouteSimpleNetwork(4)
	underlying := alwaysFirstShovelRoute{net: net}
	g := NewGreedy(net, underlying, MTST, nil)
	g.Samples = 3
	g.Horizon = 60

	sampler := distribution.SymmetricUniform{Rand: rand.New(rand.NewSource(5))}
	k := simkernel.NewKernel(net, sampler, g, nil)
	g.SetKernel(k)
	k.Start()
	k.Simulate(120)

	if k.NumEmpties() == 0 {
		t.Fatal("expected some throughput under the greedy heuristic")
	}
}

func TestHeuristicStringNames(t *testing.T) {
	names := map[Heuristic]string{MTCT: "MTCT", MTST: "MTST", MTWT: "MTWT", MSWT: "MSWT"}
	for h, want := range names {
		if h.String() != want {
			t.Errorf("Heuristic(%d).String() = %q, want %q", h, h.String(), want)
		}
	}
}

// alwaysFirstShovelRoute is the underlying routing used once a greedy fork
// has committed the requesting truck's candidate: it sends every truck onto
// the first network route that leaves its crusher or reaches its shovel.
type alwaysFirstShovelRoute struct {
	net *network.Network
}

func (r alwaysFirstShovelRoute) NextFromCrusher(truck, crusher int) simkernel.RouteChoice {
	for _, rt := range r.net.Routes {
		if rt.Crusher == crusher {
			return simkernel.Route(rt.Index)
		}
	}
	return simkernel.Park()
}

func (r alwaysFirstShovelRoute) NextFromShovel(truck, shovel int) simkernel.RouteChoice {
	for _, rt := range r.net.Routes {
		if rt.Shovel == shovel {
			return simkernel.Route(rt.Index)
		}
	}
	return simkernel.Park()
}
