// Package network holds the immutable structural description of a mine:
// crushers, shovels, roads, and the routes precomputed between them. Nothing
// in this package mutates after construction; runtime truck/queue/light
// state lives in internal/simkernel.
package network

import "fmt"

// RoadKind distinguishes a two-lane road (both directions concurrently
// traversable) from a one-lane road (arbitrated by a traffic light).
type RoadKind int

const (
	TwoLane RoadKind = iota
	OneLane
)

func (k RoadKind) String() string {
	if k == OneLane {
		return "one_lane"
	}
	return "two_lane"
}

// NodeKind tags which side of the network graph a node belongs to.
type NodeKind int

const (
	NodeCrusher NodeKind = iota
	NodeShovel
	NodeIntermediate
)

// NodeRef identifies a node in the road graph: a crusher, a shovel, or an
// intermediate junction with no service capability of its own.
type NodeRef struct {
	Kind  NodeKind
	Index int
}

func (n NodeRef) String() string {
	switch n.Kind {
	case NodeCrusher:
		return fmt.Sprintf("c%d", n.Index)
	case NodeShovel:
		return fmt.Sprintf("s%d", n.Index)
	default:
		return fmt.Sprintf("n%d", n.Index)
	}
}

// Crusher is a dump point: processes full trucks at a sampled rate.
type Crusher struct {
	EmptyMean float64
	EmptySD   float64
}

// Shovel is a load point: fills empty trucks at a sampled rate.
type Shovel struct {
	FillMean float64
	FillSD   float64
}

// Road is a one-way-sampled travel segment between two nodes. Direction 0
// means travel from A to B, direction 1 means B to A.
type Road struct {
	Index      int
	A, B       NodeRef
	TravelMean float64
	TravelSD   float64
	Kind       RoadKind
}

// Other returns the node on the far side of the road from the given side.
func (r Road) Other(from NodeRef) (NodeRef, bool) {
	switch {
	case from == r.A:
		return r.B, true
	case from == r.B:
		return r.A, true
	default:
		return NodeRef{}, false
	}
}

// DirectionFrom returns the direction index (0 = A->B, 1 = B->A) for
// travel starting at the given node.
func (r Road) DirectionFrom(from NodeRef) (int, bool) {
	switch {
	case from == r.A:
		return 0, true
	case from == r.B:
		return 1, true
	default:
		return 0, false
	}
}

// Route is an ordered crusher->shovel path: a sequence of (road, direction)
// hops describing the loaded leg. The empty leg is the reverse traversal.
type Route struct {
	Index      int
	Crusher    int
	Shovel     int
	Roads      []int
	Directions []int
}

// Len reports the number of road hops in the route.
func (rt Route) Len() int { return len(rt.Roads) }

// Network is the immutable structural description of a mine.
type Network struct {
	Simple       bool // true for the single-crusher/single-road-per-shovel form
	NumTrucks    int
	FullSlowdown float64

	Crushers []Crusher
	Shovels  []Shovel
	Roads    []Road
	Routes   []Route
}

// RoutesFromCrusher returns the indices of routes originating at crusher c.
func (n *Network) RoutesFromCrusher(c int) []int {
	var out []int
	for _, rt := range n.Routes {
		if rt.Crusher == c {
			out = append(out, rt.Index)
		}
	}
	return out
}

// RoutesIntoShovel returns the indices of routes terminating at shovel s.
func (n *Network) RoutesIntoShovel(s int) []int {
	var out []int
	for _, rt := range n.Routes {
		if rt.Shovel == s {
			out = append(out, rt.Index)
		}
	}
	return out
}

// MeanRouteTime sums the mean travel time of a route's road hops, optionally
// scaled by fullSlowdown for the loaded direction.
func (n *Network) MeanRouteTime(rt Route, loaded bool) float64 {
	var total float64
	for _, ri := range rt.Roads {
		m := n.Roads[ri].TravelMean
		if loaded {
			m *= n.FullSlowdown
		}
		total += m
	}
	return total
}

// RoadHop is one directed traversal of a road within a route's hop sequence.
type RoadHop struct {
	Road      int
	Direction int
}

// RouteHops returns the ordered sequence of road hops a truck follows for
// the given route, in the loaded (crusher->shovel) direction when loaded is
// true, or reversed with flipped directions for the empty return trip.
func RouteHops(rt Route, loaded bool) []RoadHop {
	n := len(rt.Roads)
	hops := make([]RoadHop, n)
	if loaded {
		for i := 0; i < n; i++ {
			hops[i] = RoadHop{Road: rt.Roads[i], Direction: rt.Directions[i]}
		}
		return hops
	}
	for i := 0; i < n; i++ {
		j := n - 1 - i
		hops[i] = RoadHop{Road: rt.Roads[j], Direction: 1 - rt.Directions[j]}
	}
	return hops
}

// Validate checks the structural invariants from spec.md §3: a route must
// originate at its claimed crusher and terminate at its claimed shovel, and
// indices must be in range.
func (n *Network) Validate() error {
	for _, rt := range n.Routes {
		if rt.Crusher < 0 || rt.Crusher >= len(n.Crushers) {
			return fmt.Errorf("network: route %d has out-of-range crusher %d", rt.Index, rt.Crusher)
		}
		if rt.Shovel < 0 || rt.Shovel >= len(n.Shovels) {
			return fmt.Errorf("network: route %d has out-of-range shovel %d", rt.Index, rt.Shovel)
		}
		if len(rt.Roads) == 0 {
			return fmt.Errorf("network: route %d has no road hops", rt.Index)
		}
		if len(rt.Roads) != len(rt.Directions) {
			return fmt.Errorf("network: route %d roads/directions length mismatch", rt.Index)
		}
		for _, ri := range rt.Roads {
			if ri < 0 || ri >= len(n.Roads) {
				return fmt.Errorf("network: route %d references out-of-range road %d", rt.Index, ri)
			}
		}
	}
	return nil
}
