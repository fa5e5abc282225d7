package lp

import (
	"strings"
	"testing"

	"dispatchsim/internal/network"
)

func twoShovelNetwork() *network.Network {
	crushers := []network.Crusher{{EmptyMean: 1}}
	shovels := []network.Shovel{{FillMean: 1}, {FillMean: 2}}
	c0 := network.NodeRef{Kind: network.NodeCrusher, Index: 0}
	s0 := network.NodeRef{Kind: network.NodeShovel, Index: 0}
	s1 := network.NodeRef{Kind: network.NodeShovel, Index: 1}
	roads := []network.Road{
		{Index: 0, A: c0, B: s0, TravelMean: 5, Kind: network.TwoLane},
		{Index: 1, A: c0, B: s1, TravelMean: 5, Kind: network.TwoLane},
	}
	return &network.Network{
		NumTrucks: 10, FullSlowdown: 1.2,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.EnumerateRoutes(crushers, shovels, roads),
	}
}

func TestBuildDeclaresCoreVariables(t *testing.T) {
	net := twoShovelNetwork()
	m := Build(net, VariantBase)

	want := []string{"C_0", "S_0", "S_1", "Rd_0_0", "Rd_0_1", "Rd_1_0", "Rd_1_1", "T"}
	have := map[string]bool{}
	for _, v := range m.Vars() {
		have[v] = true
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("missing variable %s", w)
		}
	}
}

func TestBuildHasTruckCapConstraint(t *testing.T) {
	net := twoShovelNetwork()
	m := Build(net, VariantBase)
	found := false
	for _, c := range m.Constraints {
		if c.Name == "truck_cap" {
			found = true
			if c.Op != LE || c.RHS != float64(net.NumTrucks) {
				t.Fatalf("truck_cap constraint wrong: %+v", c)
			}
		}
	}
	if !found {
		t.Fatal("expected a truck_cap constraint")
	}
}

func TestRestrictVariantAddsBinariesOnOneLaneRoadsOnly(t *testing.T) {
	crushers := []network.Crusher{{EmptyMean: 1}}
	shovels := []network.Shovel{{FillMean: 1}}
	c0 := network.NodeRef{Kind: network.NodeCrusher, Index: 0}
	s0 := network.NodeRef{Kind: network.NodeShovel, Index: 0}
	roads := []network.Road{
		{Index: 0, A: c0, B: s0, TravelMean: 5, Kind: network.OneLane},
	}
	net := &network.Network{
		NumTrucks: 5, FullSlowdown: 1,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.EnumerateRoutes(crushers, shovels, roads),
	}
	m := Build(net, VariantRestrict)
	if !m.Binaries["d_0"] {
		t.Fatal("expected d_0 to be binary in restrict variant")
	}
	if len(m.Binaries) != 1 {
		t.Fatalf("expected exactly one binary variable, got %d", len(m.Binaries))
	}
}

func TestWriteProducesWellFormedSections(t *testing.T) {
	net := twoShovelNetwork()
	m := Build(net, VariantBase)
	var b strings.Builder
	if err := Write(&b, m); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, section := range []string{"Maximize", "Subject To", "Bounds", "End"} {
		if !strings.Contains(out, section) {
			t.Errorf("missing section %q in:\n%s", section, out)
		}
	}
}

func TestScaleVariantIncreasesInventoryTimeOnCongestedOneLaneRoad(t *testing.T) {
	crushers := []network.Crusher{{EmptyMean: 1}}
	shovels := []network.Shovel{{FillMean: 0.1}} // high demand -> saturated
	c0 := network.NodeRef{Kind: network.NodeCrusher, Index: 0}
	s0 := network.NodeRef{Kind: network.NodeShovel, Index: 0}
	roads := []network.Road{{Index: 0, A: c0, B: s0, TravelMean: 5, Kind: network.OneLane}}
	net := &network.Network{
		NumTrucks: 5, FullSlowdown: 1,
		Crushers: crushers, Shovels: shovels, Roads: roads,
		Routes: network.EnumerateRoutes(crushers, shovels, roads),
	}
	rt := net.Routes[0]
	base := routeTime(net, rt, true, VariantBase)
	scaled := routeTime(net, rt, true, VariantScale)
	if scaled <= base {
		t.Fatalf("expected scale variant to inflate route time: base=%.3f scaled=%.3f", base, scaled)
	}
}
