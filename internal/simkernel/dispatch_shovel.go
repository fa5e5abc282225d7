package simkernel

import "container/heap"

// approachShovel fires when a truck arrives at its assigned shovel after
// the loaded trip (§4.2 APPROACHING_SHOVEL -> FILLING or WAITING_AT_SHOVEL).
func (k *Kernel) approachShovel(truckID int) {
	k.pushInstant(truckID, ApproachingShovel, func() {
		tr := &k.trucks[truckID]
		s := tr.AssignedShovel
		seq := append(k.shovelQueues[s], truckID)
		k.shovelQueues[s] = seq
		if len(seq) == 1 {
			k.startFilling(truckID)
		} else {
			k.pushInstant(truckID, WaitingAtShovel, nil)
		}
	})
}

func (k *Kernel) startFilling(truckID int) {
	tr := &k.trucks[truckID]
	sh := k.Net.Shovels[tr.AssignedShovel]
	duration := sample(k.Sampler, sh.FillMean, sh.FillSD)
	k.enterTimedState(truckID, Filling, duration)
	heap.Push(&k.events, scheduledEvent{
		kind: evFillDone, truck: truckID,
		time: k.now + duration, priority: priorityFor(Filling, truckID),
	})
}

func (k *Kernel) onFillDone(truckID int) {
	tr := &k.trucks[truckID]
	s := tr.AssignedShovel
	if len(k.shovelQueues[s]) == 0 || k.shovelQueues[s][0] != truckID {
		invariantf("shovel %d queue head mismatch on fill-done for truck %d", s, truckID)
	}
	k.shovelQueues[s] = k.shovelQueues[s][1:]

	if len(k.shovelQueues[s]) > 0 {
		k.startFilling(k.shovelQueues[s][0])
	}

	k.pushInstant(truckID, LeavingShovel, func() {
		k.onLeaveShovel(truckID)
	})
}

// onLeaveShovel fires once a truck has left the shovel and needs a return
// route home (§4.2 LEAVING_SHOVEL -> TRAVEL_TO_CRUSHER or APPROACHING_TL_SS).
func (k *Kernel) onLeaveShovel(truckID int) {
	tr := &k.trucks[truckID]
	choice := k.Routing.NextFromShovel(truckID, tr.AssignedShovel)
	switch choice.Kind {
	case ChoiceRoute:
		rt := k.Net.Routes[choice.Route]
		if rt.Shovel != tr.AssignedShovel {
			invariantf("routing returned route %d shovel %d for truck %d at shovel %d",
				choice.Route, rt.Shovel, truckID, tr.AssignedShovel)
		}
		tr.AssignedRoute = choice.Route
		tr.AssignedCrusher = rt.Crusher
		tr.Loaded = false
		tr.RoutePoint = 0
		k.beginTravel(truckID)
	case ChoicePark:
		k.pushInstant(truckID, Unused, nil)
	case ChoiceStopSimulation:
		k.terminate = true
	default:
		invariantf("routing returned unknown choice kind %d for truck %d", choice.Kind, truckID)
	}
}
