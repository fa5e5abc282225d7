// Package dispatch implements the minimum-lost-tons flow-based DISPATCH
// controller (spec §4.7) and the four forward-simulation greedy heuristics
// (spec §4.8), all as simkernel.Routing implementations so they plug into
// the kernel the same way any other controller would.
package dispatch

import (
	"container/heap"
	"fmt"
	"log/slog"

	"dispatchsim/internal/network"
	"dispatchsim/internal/simkernel"
	"dispatchsim/internal/telemetry"
)

// Controller implements the lost-tons DISPATCH policy. It must be attached
// to its owning Kernel via SetKernel once the kernel exists, since the
// outbound decision forward-estimates incoming trucks from live kernel
// state (spec §4.7 step 1).
type Controller struct {
	net    *network.Network
	flows  [][2]float64 // [route][0] = crusher->shovel flow, [route][1] = shovel->crusher flow
	logger *slog.Logger
	kernel *simkernel.Kernel

	allocated    [][2]float64
	lastDispatch [][2]float64

	requiredTrucks   float64
	totalDiggingRate float64
	minRouteTime     []float64 // per crusher, min mean_route_time(k,0) over its routes
}

// NewController validates flows against net (spec §7 "configuration error"
// class: fail fast at construction) and precomputes the lost-tons
// formula's fixed terms.
func NewController(net *network.Network, flows [][2]float64, logger *slog.Logger) (*Controller, error) {
	if net.Simple && len(net.Crushers) != 1 {
		return nil, fmt.Errorf("dispatch: simple-network DISPATCH requires exactly one crusher, got %d", len(net.Crushers))
	}
	if len(flows) != len(net.Routes) {
		return nil, fmt.Errorf("dispatch: flow matrix has %d rows, network has %d routes", len(flows), len(net.Routes))
	}

	c := &Controller{
		net: net, flows: flows, logger: telemetry.Logger(logger),
		allocated:    make([][2]float64, len(net.Routes)),
		lastDispatch: make([][2]float64, len(net.Routes)),
		minRouteTime: make([]float64, len(net.Crushers)),
	}

	for _, rt := range net.Routes {
		loadedTime := net.MeanRouteTime(rt, true)
		emptyTime := net.MeanRouteTime(rt, false)
		sh := net.Shovels[rt.Shovel]
		cr := net.Crushers[rt.Crusher]
		c.requiredTrucks += (loadedTime+sh.FillMean)*flows[rt.Index][0] + (emptyTime+cr.EmptyMean)*flows[rt.Index][1]
		c.totalDiggingRate += flows[rt.Index][0]
	}
	for c0 := range net.Crushers {
		best := -1.0
		for _, ri := range net.RoutesFromCrusher(c0) {
			t := net.MeanRouteTime(net.Routes[ri], true)
			if best < 0 || t < best {
				best = t
			}
		}
		if best < 0 {
			best = 0
		}
		c.minRouteTime[c0] = best
	}
	if c.requiredTrucks <= 0 {
		c.requiredTrucks = 1
	}

	return c, nil
}

// SetKernel wires the live kernel the controller is routing for. It must be
// called once, after the kernel is constructed with this controller as its
// Routing.
func (c *Controller) SetKernel(k *simkernel.Kernel) { c.kernel = k }

// InitialCrusherAssignment distributes trucks across crushers proportional
// to each crusher's contribution to required_trucks (spec §4.7).
func InitialCrusherAssignment(net *network.Network, flows [][2]float64) []int {
	weight := make([]float64, len(net.Crushers))
	var total float64
	for _, rt := range net.Routes {
		loadedTime := net.MeanRouteTime(rt, true)
		emptyTime := net.MeanRouteTime(rt, false)
		sh := net.Shovels[rt.Shovel]
		cr := net.Crushers[rt.Crusher]
		w := (loadedTime+sh.FillMean)*flows[rt.Index][0] + (emptyTime+cr.EmptyMean)*flows[rt.Index][1]
		weight[rt.Crusher] += w
		total += w
	}
	out := make([]int, net.NumTrucks)
	if total <= 0 {
		for t := range out {
			out[t] = t % len(net.Crushers)
		}
		return out
	}
	idx := 0
	for c, w := range weight {
		n := int(w / total * float64(net.NumTrucks))
		for i := 0; i < n && idx < len(out); i++ {
			out[idx] = c
			idx++
		}
	}
	for idx < len(out) {
		out[idx] = idx % len(net.Crushers)
		idx++
	}
	return out
}

// recordDispatch applies the allocated/last_dispatch update from spec §4.7:
// "allocated <- max(0, allocated - (now-last_dispatch)*flow) + 1;
// last_dispatch <- now".
func (c *Controller) recordDispatch(route, direction int, now float64) {
	flow := c.flows[route][direction]
	elapsed := now - c.lastDispatch[route][direction]
	a := c.allocated[route][direction] - elapsed*flow
	if a < 0 {
		a = 0
	}
	c.allocated[route][direction] = a + 1
	c.lastDispatch[route][direction] = now

	telemetry.DispatchDecisionsTotal.WithLabelValues(fmt.Sprint(route), fmt.Sprint(direction)).Inc()
}

// NextFromShovel implements inbound (shovel->crusher) routing: pick the
// eligible route out of the shovel minimizing allocated/desired.
func (c *Controller) NextFromShovel(truck, shovel int) simkernel.RouteChoice {
	now := c.now()
	best, bestScore := -1, 0.0
	for _, ri := range c.net.RoutesIntoShovel(shovel) {
		if c.flows[ri][0] <= 0 {
			continue // only routes with live outbound flow are eligible
		}
		rt := c.net.Routes[ri]
		flow := c.flows[ri][1]
		if flow <= 0 {
			continue
		}
		desired := c.net.MeanRouteTime(rt, false) * flow
		if desired <= 0 {
			continue
		}
		score := c.allocated[ri][1] / desired
		if best == -1 || score < bestScore {
			best, bestScore = ri, score
		}
	}
	if best == -1 {
		candidates := c.net.RoutesIntoShovel(shovel)
		if len(candidates) == 0 {
			return simkernel.Park()
		}
		best = candidates[0]
	}
	c.recordDispatch(best, 1, now)
	return simkernel.Route(best)
}

func (c *Controller) now() float64 {
	if c.kernel == nil {
		return 0
	}
	return c.kernel.Now()
}

// needHeap orders routes by ascending need time (spec §4.7 step 2).
type needTimeEntry struct {
	route int
	need  float64
}

type needHeap []needTimeEntry

func (h needHeap) Len() int            { return len(h) }
func (h needHeap) Less(i, j int) bool  { return h[i].need < h[j].need }
func (h needHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *needHeap) Push(x any)         { *h = append(*h, x.(needTimeEntry)) }
func (h *needHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

func (c *Controller) needTime(route int) float64 {
	rt := c.net.Routes[route]
	flow := c.flows[route][0]
	if flow <= 0 {
		return 1e18 // never needed; sink to the back of the heap
	}
	return c.lastDispatch[route][0] + c.allocated[route][0]/flow - c.net.MeanRouteTime(rt, true)
}

func newNeedHeap(routes []int, need func(int) float64) *needHeap {
	h := make(needHeap, 0, len(routes))
	for _, r := range routes {
		h = append(h, needTimeEntry{route: r, need: need(r)})
	}
	heap.Init(&h)
	return &h
}
