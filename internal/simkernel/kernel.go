// Package simkernel implements the event-driven truck/crusher/shovel state
// machine described in spec §4.1-§4.4: a priority-ordered event scheduler,
// anti-overtaking road queues, and (for networks with one-lane roads)
// traffic-light arbitration. One Kernel implementation serves both the
// "simple" and "complex" network forms from spec §3 — a simple network
// simply never contains a one-lane road, so the light-arbitration branches
// are never exercised for it.
package simkernel

import (
	"container/heap"
	"time"

	"dispatchsim/internal/distribution"
	"dispatchsim/internal/network"
	"dispatchsim/internal/telemetry"
)

// Kernel is the live, running discrete-event simulator for one mine.
type Kernel struct {
	Net     *network.Network
	Sampler distribution.Sampler
	Routing Routing
	Observer Observer

	// LightObserver, if set, is notified every time a traffic light changes
	// state. internal/restart's Recorder registers here to build the
	// record_light trail described by spec §4.5.
	LightObserver func(road int, state LightState)

	trucks []Truck
	lights []Light // indexed by road index; only one-lane roads have meaningful entries

	crusherQueues [][]int
	shovelQueues  [][]int
	roadQueues    [][2][]int
	roadAvailable [][2]float64
	roadCounter   [][2]int
	lightQueues   [][2][]int

	events  eventHeap
	instant instantQueue

	now        float64
	numEmpties int
	terminate  bool
}

// NewKernel builds a Kernel over net, with trucks initially distributed to
// crushers per initialCrusher (or round-robin across crushers if nil).
func NewKernel(net *network.Network, sampler distribution.Sampler, routing Routing, initialCrusher []int) *Kernel {
	k := &Kernel{Net: net, Sampler: sampler, Routing: routing}
	k.Reset(initialCrusher)
	return k
}

// Reset clears all runtime state: queues are emptied, trucks are placed
// WAITING at their initial crushers, lights default to GR, and the clock
// is zeroed (spec §3 Lifecycle).
func (k *Kernel) Reset(initialCrusher []int) {
	nc := len(k.Net.Crushers)
	ns := len(k.Net.Shovels)
	nr := len(k.Net.Roads)
	nt := k.Net.NumTrucks

	k.trucks = make([]Truck, nt)
	for t := 0; t < nt; t++ {
		crusher := t % nc
		if initialCrusher != nil {
			crusher = initialCrusher[t]
		}
		k.trucks[t] = Truck{ID: t, Location: Waiting, AssignedCrusher: crusher}
	}

	k.lights = make([]Light, nr)
	for i, r := range k.Net.Roads {
		if r.Kind == network.OneLane {
			k.lights[i] = Light{Road: i, State: LightGR}
		}
	}

	k.crusherQueues = make([][]int, nc)
	k.shovelQueues = make([][]int, ns)
	k.roadQueues = make([][2][]int, nr)
	k.roadAvailable = make([][2]float64, nr)
	k.roadCounter = make([][2]int, nr)
	k.lightQueues = make([][2][]int, nr)

	k.events = newEventHeap()
	k.instant = instantQueue{}
	k.now = 0
	k.numEmpties = 0
	k.terminate = false
}

// Now returns the current simulation clock.
func (k *Kernel) Now() float64 { return k.now }

// NumEmpties returns the count of completed dump cycles so far.
func (k *Kernel) NumEmpties() int { return k.numEmpties }

// Trucks returns a read-only snapshot of every truck's state.
func (k *Kernel) Trucks() []Truck {
	out := make([]Truck, len(k.trucks))
	copy(out, k.trucks)
	return out
}

// Lights returns a read-only snapshot of every traffic light's state.
func (k *Kernel) Lights() []Light {
	out := make([]Light, len(k.lights))
	copy(out, k.lights)
	return out
}

// Start dispatches every truck currently WAITING at a crusher for the
// first time, kicking off the shift.
func (k *Kernel) Start() {
	for t := range k.trucks {
		if k.trucks[t].Location == Waiting {
			k.dispatchFromCrusher(t)
		}
	}
}

// Simulate advances the clock, processing events, until the next timed
// event would exceed `until`, or the routing callback requests
// termination (complex networks only). The instant queue is always fully
// drained before the next timed event is examined (§4.1).
func (k *Kernel) Simulate(until float64) {
	start := time.Now()
	defer func() { telemetry.SimTickLatency.Observe(time.Since(start).Seconds()) }()

	for {
		k.drainInstant()
		if k.terminate {
			return
		}
		if len(k.events) == 0 {
			return
		}
		next := k.events[0]
		if next.time > until {
			return
		}
		heap.Pop(&k.events)
		k.now = next.time
		telemetry.SimEventsTotal.WithLabelValues(k.kernelLabel()).Inc()
		k.fireScheduled(next)
	}
}

func (k *Kernel) kernelLabel() string {
	if k.Net.Simple {
		return "simple"
	}
	return "complex"
}

func (k *Kernel) drainInstant() {
	for !k.instant.empty() {
		it := k.instant.pop()
		it.action()
		if k.terminate {
			return
		}
	}
}

func (k *Kernel) progressSnapshot() []float64 {
	out := make([]float64, len(k.trucks))
	for i, t := range k.trucks {
		out[i] = t.Progress(k.now)
	}
	return out
}

func (k *Kernel) emit(truckID int, from, to State, priority int) {
	tr := &k.trucks[truckID]
	change := StateChange{
		Transition: Transition{
			Truck:    truckID,
			From:     from,
			To:       to,
			Time:     k.now,
			Priority: priority,
		},
		NewRoute:      tr.AssignedRoute,
		NewRoutePoint: tr.RoutePoint,
		Progress:      k.progressSnapshot(),
	}
	if k.Observer != nil {
		k.Observer(change)
	}
}

// pushInstant enqueues a zero-duration rename into state `to`, running
// `action` once it is popped and processed in (time, priority) order
// against every other pending instant transition.
func (k *Kernel) pushInstant(truckID int, to State, action func()) {
	tr := &k.trucks[truckID]
	from := tr.Location
	priority := priorityFor(to, truckID)
	k.instant.push(instantTransition{
		truck: truckID, from: from, to: to, priority: priority,
		action: func() {
			tr.Location = to
			tr.LastTransitionTime = k.now
			tr.IntendedTime = k.now
			k.emit(truckID, from, to, priority)
			if action != nil {
				action()
			}
		},
	})
}

// enterTimedState transitions truck into `to` now, to last until
// `k.now + duration`, and returns the intended completion time.
func (k *Kernel) enterTimedState(truckID int, to State, duration float64) float64 {
	tr := &k.trucks[truckID]
	from := tr.Location
	tr.Location = to
	tr.LastTransitionTime = k.now
	tr.IntendedTime = k.now + duration
	k.emit(truckID, from, to, priorityFor(to, truckID))
	return tr.IntendedTime
}

// setLightState changes a light's state and notifies LightObserver, if set.
func (k *Kernel) setLightState(road int, s LightState) {
	k.lights[road].State = s
	if k.LightObserver != nil {
		k.LightObserver(road, s)
	}
}

func sample(s distribution.Sampler, mean, sd float64) float64 {
	v, err := s.Sample(mean, sd)
	if err != nil {
		panic(&SamplerError{Cause: err})
	}
	return v
}
