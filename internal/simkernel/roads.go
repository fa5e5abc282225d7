package simkernel

import (
	"container/heap"

	"dispatchsim/internal/network"
)

// beginTravel starts a truck moving along its assigned route's first hop,
// from whatever state it is currently in (Waiting or LeavingShovel). If the
// first hop is a one-lane road it first approaches the light; otherwise it
// starts traveling immediately (§4.2).
func (k *Kernel) beginTravel(truckID int) {
	tr := &k.trucks[truckID]
	rt := k.Net.Routes[tr.AssignedRoute]
	hops := network.RouteHops(rt, tr.Loaded)
	if len(hops) == 0 {
		invariantf("route %d has no hops", tr.AssignedRoute)
	}
	k.advanceToHop(truckID, hops)
}

// advanceToHop dispatches truck onto the hop at its current RoutePoint:
// straight onto the road if two-lane, or to the approaching-light state
// first if one-lane.
func (k *Kernel) advanceToHop(truckID int, hops []network.RoadHop) {
	tr := &k.trucks[truckID]
	h := hops[tr.RoutePoint]
	road := k.Net.Roads[h.Road]
	if road.Kind == network.OneLane {
		k.approachLight(truckID, hops, h)
		return
	}
	k.travelOnRoad(truckID, hops, h)
}

// travelOnRoad samples the free-flow travel time, applies anti-overtaking
// (§4.3), and schedules the arrival event.
func (k *Kernel) travelOnRoad(truckID int, hops []network.RoadHop, h network.RoadHop) {
	tr := &k.trucks[truckID]
	road := k.Net.Roads[h.Road]

	tau := sample(k.Sampler, road.TravelMean, road.TravelSD)
	if tr.Loaded {
		tau *= k.Net.FullSlowdown
	}

	arrival := k.now + tau
	if arrival < k.roadAvailable[h.Road][h.Direction] {
		arrival = k.roadAvailable[h.Road][h.Direction]
	}
	k.roadAvailable[h.Road][h.Direction] = arrival
	k.roadQueues[h.Road][h.Direction] = append(k.roadQueues[h.Road][h.Direction], truckID)
	k.roadCounter[h.Road][h.Direction]++

	toState := TravelToShovel
	if !tr.Loaded {
		toState = TravelToCrusher
	}
	from := tr.Location
	tr.Location = toState
	tr.LastTransitionTime = k.now
	tr.IntendedTime = arrival
	priority := priorityFor(toState, k.roadCounter[h.Road][h.Direction])
	k.emit(truckID, from, toState, priority)

	heap.Push(&k.events, scheduledEvent{
		kind: evRoadArrival, truck: truckID, road: h.Road, direction: h.Direction,
		time: arrival, priority: priority,
	})
}

// onRoadArrival fires when a truck's travel-completion event is popped off
// the timed event queue. It validates the anti-overtaking FIFO invariant,
// advances RoutePoint, checks for a one-lane road clearing, and either
// continues to the next hop or arrives at the route's terminal node.
func (k *Kernel) onRoadArrival(ev scheduledEvent) {
	truckID := ev.truck
	tr := &k.trucks[truckID]

	q := k.roadQueues[ev.road][ev.direction]
	if len(q) == 0 || q[0] != truckID {
		invariantf("road %d direction %d queue head mismatch on arrival of truck %d", ev.road, ev.direction, truckID)
	}
	k.roadQueues[ev.road][ev.direction] = q[1:]
	k.checkLightFlip(ev.road)

	tr.RoutePoint++
	rt := k.Net.Routes[tr.AssignedRoute]
	hops := network.RouteHops(rt, tr.Loaded)

	if tr.RoutePoint < len(hops) {
		k.advanceToHop(truckID, hops)
		return
	}

	if tr.Loaded {
		k.approachShovel(truckID)
	} else {
		k.approachCrusher(truckID)
	}
}

func (k *Kernel) fireScheduled(ev scheduledEvent) {
	switch ev.kind {
	case evRoadArrival:
		k.onRoadArrival(ev)
	case evFillDone:
		k.onFillDone(ev.truck)
	case evEmptyDone:
		k.onEmptyDone(ev.truck)
	default:
		invariantf("unknown scheduled event kind %d", ev.kind)
	}
}
