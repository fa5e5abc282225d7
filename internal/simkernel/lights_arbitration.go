package simkernel

import "dispatchsim/internal/network"

// approachLight fires when a truck reaches a one-lane road's light. A
// truck approaching on the green side proceeds immediately; a truck on the
// red (or clearing yellow) side stops and queues, and its arrival may
// trigger the green side to begin clearing (§4.4).
func (k *Kernel) approachLight(truckID int, hops []network.RoadHop, h network.RoadHop) {
	tr := &k.trucks[truckID]
	approachState, stoppedState := ApproachingTLCS, StoppedAtTLCS
	if !tr.Loaded {
		approachState, stoppedState = ApproachingTLSS, StoppedAtTLSS
	}

	k.pushInstant(truckID, approachState, func() {
		light := &k.lights[h.Road]
		side := h.Direction
		color := colorOnSide(light.State, side)

		if color == colorGreen {
			k.travelOnRoad(truckID, hops, h)
			return
		}

		k.lightQueues[h.Road][side] = append(k.lightQueues[h.Road][side], truckID)
		k.pushInstant(truckID, stoppedState, func() { k.checkLightFlip(h.Road) })

		if color == colorRed && greenSide(light.State) == 1-side {
			k.setLightState(h.Road, beginClearing(light.State))
		}
	})
}

// checkLightFlip runs after any truck clears a one-lane road and after a
// truck stops at a one-lane road's light. If the light
// is in a clearing (yellow) phase and the road is now empty in both
// directions, it flips to steady green on the opposite side, releases
// every truck queued there, and — if the newly red side already has
// waiting trucks — immediately re-arms the yellow clearing phase to
// prepare the next flip (§4.4).
func (k *Kernel) checkLightFlip(road int) {
	r := k.Net.Roads[road]
	if r.Kind != network.OneLane {
		return
	}
	light := &k.lights[road]
	if greenSide(light.State) != -1 {
		return // steady green, nothing pending
	}
	if len(k.roadQueues[road][0]) != 0 || len(k.roadQueues[road][1]) != 0 {
		return // still clearing
	}

	k.setLightState(road, completeFlip(light.State))
	newGreen := greenSide(light.State)
	newRed := 1 - newGreen

	released := k.lightQueues[road][newGreen]
	k.lightQueues[road][newGreen] = nil
	for _, truckID := range released {
		k.releaseFromLight(truckID, road, newGreen)
	}

	if len(k.lightQueues[road][newRed]) > 0 {
		k.setLightState(road, beginClearing(light.State))
	}
}

// releaseFromLight sends a truck that was stopped at a light straight onto
// the road, without re-entering the approaching state (it already passed
// through it).
func (k *Kernel) releaseFromLight(truckID int, road, direction int) {
	tr := &k.trucks[truckID]
	rt := k.Net.Routes[tr.AssignedRoute]
	hops := network.RouteHops(rt, tr.Loaded)
	h := hops[tr.RoutePoint]
	if h.Road != road || h.Direction != direction {
		invariantf("truck %d queued at light for road %d dir %d but route hop is road %d dir %d",
			truckID, road, direction, h.Road, h.Direction)
	}
	k.travelOnRoad(truckID, hops, h)
}
