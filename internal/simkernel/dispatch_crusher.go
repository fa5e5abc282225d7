package simkernel

import (
	"container/heap"

	"dispatchsim/internal/telemetry"
)

// dispatchFromCrusher fires when a truck is WAITING at a crusher and asks
// the Routing capability for an outbound route (§4.2 WAITING -> ...).
func (k *Kernel) dispatchFromCrusher(truckID int) {
	tr := &k.trucks[truckID]
	choice := k.Routing.NextFromCrusher(truckID, tr.AssignedCrusher)
	switch choice.Kind {
	case ChoiceRoute:
		rt := k.Net.Routes[choice.Route]
		if rt.Crusher != tr.AssignedCrusher {
			invariantf("routing returned route %d crusher %d for truck %d at crusher %d",
				choice.Route, rt.Crusher, truckID, tr.AssignedCrusher)
		}
		tr.AssignedRoute = choice.Route
		tr.AssignedShovel = rt.Shovel
		tr.Loaded = true
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

// approachCrusher fires when a truck arrives at its assigned crusher after
// the return trip (§4.2 APPROACHING_CRUSHER -> EMPTYING or WAITING_AT_CRUSHER).
func (k *Kernel) approachCrusher(truckID int) {
	k.pushInstant(truckID, ApproachingCrusher, func() {
		tr := &k.trucks[truckID]
		c := tr.AssignedCrusher
		seq := append(k.crusherQueues[c], truckID)
		k.crusherQueues[c] = seq
		if len(seq) == 1 {
			k.startEmptying(truckID)
		} else {
			k.pushInstant(truckID, WaitingAtCrusher, nil)
		}
	})
}

func (k *Kernel) startEmptying(truckID int) {
	tr := &k.trucks[truckID]
	c := k.Net.Crushers[tr.AssignedCrusher]
	duration := sample(k.Sampler, c.EmptyMean, c.EmptySD)
	k.enterTimedState(truckID, Emptying, duration)
	heap.Push(&k.events, scheduledEvent{
		kind: evEmptyDone, truck: truckID,
		time: k.now + duration, priority: priorityFor(Emptying, truckID),
	})
}

func (k *Kernel) onEmptyDone(truckID int) {
	tr := &k.trucks[truckID]
	c := tr.AssignedCrusher
	if len(k.crusherQueues[c]) == 0 || k.crusherQueues[c][0] != truckID {
		invariantf("crusher %d queue head mismatch on empty-done for truck %d", c, truckID)
	}
	k.crusherQueues[c] = k.crusherQueues[c][1:]
	k.numEmpties++
	telemetry.TruckEmptiesTotal.Inc()

	if len(k.crusherQueues[c]) > 0 {
		k.startEmptying(k.crusherQueues[c][0])
	}

	k.pushInstant(truckID, Waiting, func() {
		k.dispatchFromCrusher(truckID)
	})
}
