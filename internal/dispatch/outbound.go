package dispatch

import (
	"container/heap"
	"math"

	"dispatchsim/internal/simkernel"
)

// incomingTruck is one forward-estimated arrival at a crusher: a truck
// assigned to it (waiting there, in its service queue, or returning to it),
// together with the free-flow time it is expected to become available
// (spec §4.7 step 1).
type incomingTruck struct {
	id int
	at float64
}

// estimateIncoming approximates "forward-simulate the mine deterministically
// ... to estimate incoming" by reading each candidate truck's own
// already-scheduled IntendedTime off the live kernel, which is exact under
// the deterministic-mean distribution spec's DISPATCH scenarios are defined
// against, and a reasonable forward estimate otherwise.
func (c *Controller) estimateIncoming(crusher int) []incomingTruck {
	if c.kernel == nil {
		return nil
	}
	var out []incomingTruck
	for _, tr := range c.kernel.Trucks() {
		if tr.AssignedCrusher != crusher || tr.Location == simkernel.Unused {
			continue
		}
		switch tr.Location {
		case simkernel.Waiting, simkernel.WaitingAtCrusher, simkernel.Emptying,
			simkernel.ApproachingCrusher, simkernel.TravelToCrusher,
			simkernel.ApproachingTLSS, simkernel.StoppedAtTLSS:
			out = append(out, incomingTruck{id: tr.ID, at: tr.IntendedTime})
		}
	}
	return out
}

// lostTons is the marginal cost formula from spec §4.7 step 3, evaluated for
// assigning a truck expected at `incomingAt` to a route whose current need
// time is `need`.
func (c *Controller) lostTons(route int, need, incomingAt float64) float64 {
	rt := c.net.Routes[route]
	flow := c.flows[route][0]
	baseLoss := c.totalDiggingRate * (c.net.MeanRouteTime(rt, true) - c.minRouteTime[rt.Crusher]) / c.requiredTrucks
	truckWait := math.Max(0, need-incomingAt)
	shovelWait := math.Max(0, incomingAt-need)
	return baseLoss + truckWait*c.totalDiggingRate/c.requiredTrucks + shovelWait*flow
}

// greedySingle implements step 5's fallback: the single-truck greedy choice
// minimizing marginal lost tons for the actual current requester, arriving
// effectively "now".
func (c *Controller) greedySingle(routes []int, now float64) int {
	best, bestCost := routes[0], math.Inf(1)
	for _, r := range routes {
		cost := c.lostTons(r, c.needTime(r), now)
		if cost < bestCost {
			best, bestCost = r, cost
		}
	}
	return best
}

// NextFromCrusher implements outbound (crusher->shovel) routing: spec §4.7's
// iterative neediest-route / cheapest-incoming-truck assignment loop.
func (c *Controller) NextFromCrusher(truck, crusher int) simkernel.RouteChoice {
	now := c.now()
	routes := c.net.RoutesFromCrusher(crusher)
	if len(routes) == 0 {
		return simkernel.Park()
	}

	incoming := c.estimateIncoming(crusher)
	workAllocated := make(map[int]float64, len(routes))
	workLastDispatch := make(map[int]float64, len(routes))
	for _, r := range routes {
		workAllocated[r] = c.allocated[r][0]
		workLastDispatch[r] = c.lastDispatch[r][0]
	}
	needOf := func(r int) float64 {
		flow := c.flows[r][0]
		if flow <= 0 {
			return math.MaxFloat64
		}
		return workLastDispatch[r] + workAllocated[r]/flow - c.net.MeanRouteTime(c.net.Routes[r], true)
	}
	h := newNeedHeap(routes, needOf)

	assigned := map[int]bool{}
	for h.Len() > 0 {
		top := heap.Pop(h).(needTimeEntry)
		need := needOf(top.route)

		bestTruck, bestCost, bestAt := -1, math.Inf(1), 0.0
		for _, inc := range incoming {
			if assigned[inc.id] {
				continue
			}
			cost := c.lostTons(top.route, need, inc.at)
			if cost < bestCost {
				bestTruck, bestCost, bestAt = inc.id, cost, inc.at
			}
		}

		if bestTruck == -1 {
			c.recordDispatch(top.route, 0, now)
			return simkernel.Route(top.route)
		}
		if bestTruck == truck {
			c.recordDispatch(top.route, 0, now)
			return simkernel.Route(top.route)
		}
		if bestAt < workLastDispatch[top.route] {
			route := c.greedySingle(routes, now)
			c.recordDispatch(route, 0, now)
			return simkernel.Route(route)
		}

		assigned[bestTruck] = true
		flow := c.flows[top.route][0]
		elapsed := now - workLastDispatch[top.route]
		a := workAllocated[top.route] - elapsed*flow
		if a < 0 {
			a = 0
		}
		workAllocated[top.route] = a + 1
		workLastDispatch[top.route] = now
		heap.Push(h, needTimeEntry{route: top.route, need: needOf(top.route)})
	}

	route := c.greedySingle(routes, now)
	c.recordDispatch(route, 0, now)
	return simkernel.Route(route)
}
