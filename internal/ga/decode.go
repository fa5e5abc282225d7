package ga

import (
	"math/rand"

	"dispatchsim/internal/network"
	"dispatchsim/internal/simkernel"
)

// layout maps a network's crusher and shovel nodes onto genome string
// indices, matching spec §4.9's genome shape: a simple network has one
// string decoded at its single crusher; a complex network has one string
// per crusher plus one per shovel.
type layout struct {
	crusherString []int // per crusher index, index into Genome.Strings; -1 if none
	shovelString  []int // per shovel index, index into Genome.Strings; -1 if none
	numStrings    int
}

// buildLayout lays genome strings out over net's nodes. Simple networks
// (exactly one crusher, spec §3) get a single string at that crusher and no
// shovel strings, since each simple-network shovel has exactly one route
// back to the crusher and needs no choice. Complex networks get one string
// per crusher and one per shovel.
func buildLayout(net *network.Network) layout {
	l := layout{
		crusherString: make([]int, len(net.Crushers)),
		shovelString:  make([]int, len(net.Shovels)),
	}
	for i := range l.shovelString {
		l.shovelString[i] = -1
	}
	idx := 0
	for c := range net.Crushers {
		l.crusherString[c] = idx
		idx++
	}
	if !net.Simple {
		for s := range net.Shovels {
			l.shovelString[s] = idx
			idx++
		}
	}
	l.numStrings = idx
	return l
}

// lengthThresholds returns, per string in layout order, the length
// threshold beyond which spec §4.9's fitness penalty applies: NT for
// crusher-cycle strings, shovelLenThreshold for shovel-cycle strings.
func (l layout) lengthThresholds(net *network.Network, shovelLenThreshold int) []int {
	out := make([]int, l.numStrings)
	for _, idx := range l.crusherString {
		out[idx] = net.NumTrucks
	}
	for _, idx := range l.shovelString {
		if idx >= 0 {
			out[idx] = shovelLenThreshold
		}
	}
	return out
}

// newGenome builds a random genome sized to net's layout: length net.NumTrucks
// for crusher strings (a full truck-count cycle is a natural starting scale)
// and a short default for shovel strings.
func newGenome(net *network.Network, l layout, rng *rand.Rand, initialShovelStringLen int) *Genome {
	g := &Genome{Strings: make([]GeneString, l.numStrings)}
	for c, idx := range l.crusherString {
		routes := net.RoutesFromCrusher(c)
		alphabet := len(routes)
		if alphabet == 0 {
			alphabet = 1
		}
		g.Strings[idx] = randomGeneString(rng, net.NumTrucks, alphabet, false)
	}
	for s, idx := range l.shovelString {
		if idx < 0 {
			continue
		}
		routes := net.RoutesIntoShovel(s)
		alphabet := len(routes)
		if alphabet == 0 {
			alphabet = 1
		}
		g.Strings[idx] = randomGeneString(rng, initialShovelStringLen, alphabet, false)
	}
	return g
}

// genomeRouting decodes a Genome into a simkernel.Routing: each dispatch
// callback consumes the next gene from its node's string round-robin (spec
// §4.9 "decoded schedules are consumed round-robin as dispatch answers"),
// mapping the gene into the current candidate-route list by remainder so a
// genome remains valid across mutation-driven length changes.
type genomeRouting struct {
	net    *network.Network
	genome *Genome
	layout layout
	cursor []int
}

func newGenomeRouting(net *network.Network, genome *Genome, l layout) *genomeRouting {
	return &genomeRouting{net: net, genome: genome, layout: l, cursor: make([]int, l.numStrings)}
}

func (r *genomeRouting) pick(stringIdx int, routes []int) simkernel.RouteChoice {
	if len(routes) == 0 {
		return simkernel.Park()
	}
	s := r.genome.Strings[stringIdx]
	if len(s.Genes) == 0 {
		return simkernel.Route(routes[0])
	}
	gene := s.Genes[r.cursor[stringIdx]%len(s.Genes)]
	r.cursor[stringIdx]++
	return simkernel.Route(routes[gene%len(routes)])
}

func (r *genomeRouting) NextFromCrusher(truck, crusher int) simkernel.RouteChoice {
	idx := r.layout.crusherString[crusher]
	return r.pick(idx, r.net.RoutesFromCrusher(crusher))
}

func (r *genomeRouting) NextFromShovel(truck, shovel int) simkernel.RouteChoice {
	idx := r.layout.shovelString[shovel]
	if idx < 0 {
		// Simple network: the return route is the same route used inbound,
		// reversed by the kernel's Loaded flag, so any route touching this
		// shovel is correct — there is exactly one.
		routes := r.net.RoutesIntoShovel(shovel)
		if len(routes) == 0 {
			return simkernel.Park()
		}
		return simkernel.Route(routes[0])
	}
	return r.pick(idx, r.net.RoutesIntoShovel(shovel))
}
