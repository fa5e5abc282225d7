package api

import (
	"dispatchsim/internal/dispatch"
	"dispatchsim/internal/network"
	"dispatchsim/internal/simkernel"
)

// roundRobinRouting is the "all other trucks keep doing what they were
// doing" baseline a dispatch.Greedy forks against: at each crusher/shovel
// it picks the candidate route indexed by the truck ID modulo the number of
// candidates, so a given truck always gets the same route there.
type roundRobinRouting struct {
	net *network.Network
}

func (r roundRobinRouting) NextFromCrusher(truck, crusher int) simkernel.RouteChoice {
	routes := r.net.RoutesFromCrusher(crusher)
	if len(routes) == 0 {
		return simkernel.Park()
	}
	return simkernel.Route(routes[truck%len(routes)])
}

func (r roundRobinRouting) NextFromShovel(truck, shovel int) simkernel.RouteChoice {
	routes := r.net.RoutesIntoShovel(shovel)
	if len(routes) == 0 {
		return simkernel.Park()
	}
	return simkernel.Route(routes[truck%len(routes)])
}

// heuristicName names the four forward-simulation heuristics at the HTTP
// boundary; toDispatch maps them onto dispatch.Heuristic.
type heuristicName int

const (
	hMTCT heuristicName = iota
	hMTST
	hMTWT
	hMSWT
)

func (h heuristicName) toDispatch() dispatch.Heuristic {
	switch h {
	case hMTST:
		return dispatch.MTST
	case hMTWT:
		return dispatch.MTWT
	case hMSWT:
		return dispatch.MSWT
	default:
		return dispatch.MTCT
	}
}
