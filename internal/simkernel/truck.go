package simkernel

// Truck is the mutable runtime state of one simulated vehicle (spec §3).
type Truck struct {
	ID                 int
	Location           State
	AssignedRoute      int
	AssignedCrusher    int
	AssignedShovel     int
	RoutePoint         int
	Loaded             bool
	LastTransitionTime float64
	IntendedTime       float64 // free-flow completion time of the current task
}

// Progress returns how far through its current task the truck is, in
// [0,1], given the current simulation clock.
func (t Truck) Progress(now float64) float64 {
	span := t.IntendedTime - t.LastTransitionTime
	if span <= 0 {
		return 1
	}
	p := (now - t.LastTransitionTime) / span
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Transition records one truck's move from one state to another, the event
// that caused it, and the priority used to order it against simultaneous
// events (§4.1, §4.2).
type Transition struct {
	Truck    int
	From     State
	To       State
	Time     float64
	Priority int
}

// StateChange is the snapshot emitted to observers after each transition
// (§3): the Transition itself, the truck's resulting route/route-point, and
// a progress fraction for every truck in the simulation.
type StateChange struct {
	Transition    Transition
	NewRoute      int
	NewRoutePoint int
	Progress      []float64
}

// Observer receives every StateChange as the kernel's clock advances. The
// state-restartable simulator in internal/restart, and internal/api's
// WebSocket stream, both register as Observers.
type Observer func(StateChange)
