package simkernel

// ChoiceKind distinguishes the three things a routing callback may answer
// with, replacing the "negative route index" sentinel from the original
// implementation with an explicit sum type (design notes §9).
type ChoiceKind int

const (
	ChoiceRoute ChoiceKind = iota
	ChoicePark                 // complex network only: park the truck out of use
	ChoiceStopSimulation       // complex network only: request simulation termination
)

// RouteChoice is what a Routing capability returns in response to a
// dispatch request.
type RouteChoice struct {
	Kind  ChoiceKind
	Route int
}

// Route builds a RouteChoice selecting the given route index.
func Route(idx int) RouteChoice { return RouteChoice{Kind: ChoiceRoute, Route: idx} }

// Park builds the "park out of use" sentinel choice.
func Park() RouteChoice { return RouteChoice{Kind: ChoicePark} }

// StopSimulation builds the "terminate the simulation now" sentinel choice.
func StopSimulation() RouteChoice { return RouteChoice{Kind: ChoiceStopSimulation} }

// Routing is the capability a controller implements to plug into the
// kernel's dispatch points (design notes §9: "capability composition"
// replacing the original's abstract next_route/next_shovel base-class
// methods). DISPATCH, the greedy heuristics, and the GA's cycle controller
// are all Routing implementations.
type Routing interface {
	// NextFromCrusher is invoked when truck becomes idle (WAITING) at
	// crusher. It must return a route whose Crusher equals crusher, or a
	// Park/StopSimulation sentinel.
	NextFromCrusher(truck, crusher int) RouteChoice

	// NextFromShovel is invoked when truck finishes FILLING at shovel and
	// needs a return route. It must return a route whose Shovel equals
	// shovel, or a Park/StopSimulation sentinel.
	NextFromShovel(truck, shovel int) RouteChoice
}
