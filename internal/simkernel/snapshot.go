package simkernel

import (
	"container/heap"

	"dispatchsim/internal/network"
)

// TruckSnapshot is the minimal, public truck state needed to resume a
// simulation from a paused point (spec §4.5).
type TruckSnapshot struct {
	ID              int
	Location        State
	AssignedRoute   int
	AssignedCrusher int
	AssignedShovel  int
	RoutePoint      int
	Loaded          bool
	Progress        float64
}

// Snapshot is a point-in-time, restartable capture of a Kernel. It holds no
// unexported state: everything in it is derived from the Kernel's public
// surface, so a Snapshot can be produced and consumed entirely from outside
// package simkernel (internal/restart does exactly that).
type Snapshot struct {
	Now        float64
	NumEmpties int
	Trucks     []TruckSnapshot
	Lights     []Light
}

// Snapshot captures the kernel's current state. It must only be called at a
// quiescent point (after Simulate returns and the instant queue is empty),
// so every truck is in one of the nine "stable" states: WAITING_AT_CRUSHER,
// EMPTYING, WAITING_AT_SHOVEL, FILLING, TRAVEL_TO_SHOVEL, TRAVEL_TO_CRUSHER,
// STOPPED_AT_TL_CS, STOPPED_AT_TL_SS, or UNUSED.
func (k *Kernel) Snapshot() Snapshot {
	s := Snapshot{
		Now:        k.now,
		NumEmpties: k.numEmpties,
		Trucks:     make([]TruckSnapshot, len(k.trucks)),
		Lights:     k.Lights(),
	}
	for i, tr := range k.trucks {
		s.Trucks[i] = TruckSnapshot{
			ID:              tr.ID,
			Location:        tr.Location,
			AssignedRoute:   tr.AssignedRoute,
			AssignedCrusher: tr.AssignedCrusher,
			AssignedShovel:  tr.AssignedShovel,
			RoutePoint:      tr.RoutePoint,
			Loaded:          tr.Loaded,
			Progress:        tr.Progress(k.now),
		}
	}
	return s
}

// Restore re-arms the kernel from a snapshot: queue membership is rebuilt
// from each truck's recorded state, and every in-progress timed task
// (filling, emptying, travel) is given a freshly sampled remaining duration
// scaled by (1-progress) rather than replaying the original draw exactly.
// This is the "re_ready" forward-replay described in spec §4.5: it lets a
// dispatcher fork a live simulation to evaluate a candidate decision without
// making that evaluation a deterministic repeat of what already happened.
//
// Restore approximates queue order: trucks resuming into the same crusher,
// shovel, or light queue are ordered by ascending truck ID rather than their
// true original arrival order, which is not recoverable from a Snapshot.
func (k *Kernel) Restore(s Snapshot) {
	nc := len(k.Net.Crushers)
	ns := len(k.Net.Shovels)
	nr := len(k.Net.Roads)

	k.now = s.Now
	k.numEmpties = s.NumEmpties
	k.terminate = false
	k.events = newEventHeap()
	k.instant = instantQueue{}
	k.lights = make([]Light, len(s.Lights))
	copy(k.lights, s.Lights)

	k.trucks = make([]Truck, len(s.Trucks))
	k.crusherQueues = make([][]int, nc)
	k.shovelQueues = make([][]int, ns)
	k.roadQueues = make([][2][]int, nr)
	k.roadAvailable = make([][2]float64, nr)
	k.roadCounter = make([][2]int, nr)
	k.lightQueues = make([][2][]int, nr)

	ordered := make([]TruckSnapshot, len(s.Trucks))
	copy(ordered, s.Trucks)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].ID < ordered[j-1].ID; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	for _, ts := range ordered {
		tr := &k.trucks[ts.ID]
		tr.ID = ts.ID
		tr.Location = ts.Location
		tr.AssignedRoute = ts.AssignedRoute
		tr.AssignedCrusher = ts.AssignedCrusher
		tr.AssignedShovel = ts.AssignedShovel
		tr.RoutePoint = ts.RoutePoint
		tr.Loaded = ts.Loaded
		tr.LastTransitionTime = k.now

		switch ts.Location {
		case Unused:
			tr.IntendedTime = k.now

		case WaitingAtCrusher:
			c := ts.AssignedCrusher
			k.crusherQueues[c] = append(k.crusherQueues[c], ts.ID)
			tr.IntendedTime = k.now

		case Emptying:
			c := ts.AssignedCrusher
			k.crusherQueues[c] = append([]int{ts.ID}, k.crusherQueues[c]...)
			cr := k.Net.Crushers[c]
			remaining := (1 - ts.Progress) * sample(k.Sampler, cr.EmptyMean, cr.EmptySD)
			k.scheduleResumedEvent(evEmptyDone, ts.ID, 0, 0, remaining)

		case WaitingAtShovel:
			sh := ts.AssignedShovel
			k.shovelQueues[sh] = append(k.shovelQueues[sh], ts.ID)
			tr.IntendedTime = k.now

		case Filling:
			sh := ts.AssignedShovel
			k.shovelQueues[sh] = append([]int{ts.ID}, k.shovelQueues[sh]...)
			shv := k.Net.Shovels[sh]
			remaining := (1 - ts.Progress) * sample(k.Sampler, shv.FillMean, shv.FillSD)
			k.scheduleResumedEvent(evFillDone, ts.ID, 0, 0, remaining)

		case TravelToShovel, TravelToCrusher:
			rt := k.Net.Routes[ts.AssignedRoute]
			hops := network.RouteHops(rt, ts.Loaded)
			h := hops[ts.RoutePoint]
			road := k.Net.Roads[h.Road]
			tau := sample(k.Sampler, road.TravelMean, road.TravelSD)
			if ts.Loaded {
				tau *= k.Net.FullSlowdown
			}
			remaining := (1 - ts.Progress) * tau
			arrival := k.now + remaining
			if arrival < k.roadAvailable[h.Road][h.Direction] {
				arrival = k.roadAvailable[h.Road][h.Direction]
			}
			k.roadAvailable[h.Road][h.Direction] = arrival
			k.roadQueues[h.Road][h.Direction] = append(k.roadQueues[h.Road][h.Direction], ts.ID)
			k.roadCounter[h.Road][h.Direction]++
			k.scheduleResumedEvent(evRoadArrival, ts.ID, h.Road, h.Direction, arrival-k.now)

		case StoppedAtTLCS, StoppedAtTLSS:
			rt := k.Net.Routes[ts.AssignedRoute]
			hops := network.RouteHops(rt, ts.Loaded)
			h := hops[ts.RoutePoint]
			k.lightQueues[h.Road][h.Direction] = append(k.lightQueues[h.Road][h.Direction], ts.ID)
			tr.IntendedTime = k.now

		default:
			invariantf("cannot restore truck %d from non-stable state %s", ts.ID, ts.Location)
		}
	}
}

func (k *Kernel) scheduleResumedEvent(kind eventKind, truckID, road, direction int, remaining float64) {
	if remaining < 0 {
		remaining = 0
	}
	when := k.now + remaining
	k.trucks[truckID].IntendedTime = when
	priority := priorityFor(k.trucks[truckID].Location, truckID)
	if kind == evRoadArrival {
		priority = priorityFor(k.trucks[truckID].Location, k.roadCounter[road][direction])
	}
	heap.Push(&k.events, scheduledEvent{
		kind: kind, truck: truckID, road: road, direction: direction,
		time: when, priority: priority,
	})
}
