package dispatch

import (
	"log/slog"
	"math"
	"math/rand"

	"dispatchsim/internal/distribution"
	"dispatchsim/internal/network"
	"dispatchsim/internal/restart"
	"dispatchsim/internal/simkernel"
	"dispatchsim/internal/telemetry"
)

// Heuristic selects which scalar the greedy controller minimizes (spec
// §4.8).
type Heuristic int

const (
	MTCT Heuristic = iota // cycle time of the requesting truck
	MTST                  // dispatch -> start of filling
	MTWT                  // waiting time between dispatch and filling
	MSWT                  // idle time of the target shovel preceding the fill
)

func (h Heuristic) String() string {
	switch h {
	case MTCT:
		return "MTCT"
	case MTST:
		return "MTST"
	case MTWT:
		return "MTWT"
	case MSWT:
		return "MSWT"
	default:
		return "UNKNOWN"
	}
}

// Greedy implements the four forward-simulation heuristics: for each
// candidate route, fork the live kernel N times under a routing that forces
// the requesting truck onto that candidate and otherwise defers to
// Underlying, average the chosen scalar, and pick the candidate minimizing
// it (spec §4.8).
type Greedy struct {
	Net        *network.Network
	Underlying simkernel.Routing
	Heuristic  Heuristic
	Samples    int
	Horizon    float64

	kernel *simkernel.Kernel
	rng    *rand.Rand
	logger *slog.Logger
}

// NewGreedy constructs a Greedy controller with Samples set to 8 forward
// samples and Horizon to a 200-time-unit window; callers may overwrite both
// fields. A Samples value of zero or less runs a single sample.
func NewGreedy(net *network.Network, underlying simkernel.Routing, h Heuristic, logger *slog.Logger) *Greedy {
	return &Greedy{
		Net: net, Underlying: underlying, Heuristic: h,
		Samples: 8, Horizon: 200,
		rng:    rand.New(rand.NewSource(1)),
		logger: telemetry.Logger(logger),
	}
}

func (g *Greedy) SetKernel(k *simkernel.Kernel) { g.kernel = k }

func (g *Greedy) NextFromCrusher(truck, crusher int) simkernel.RouteChoice {
	candidates := g.Net.RoutesFromCrusher(crusher)
	return g.choose(truck, candidates)
}

func (g *Greedy) NextFromShovel(truck, shovel int) simkernel.RouteChoice {
	candidates := g.Net.RoutesIntoShovel(shovel)
	return g.choose(truck, candidates)
}

func (g *Greedy) choose(truck int, candidates []int) simkernel.RouteChoice {
	if len(candidates) == 0 {
		return simkernel.Park()
	}
	if g.kernel == nil || len(candidates) == 1 {
		return simkernel.Route(candidates[0])
	}

	cp := restart.Capture(g.kernel)
	best, bestScore := candidates[0], math.Inf(1)
	for _, route := range candidates {
		score := g.averageScore(cp, truck, route)
		if score < bestScore {
			best, bestScore = route, score
		}
	}
	return simkernel.Route(best)
}

func (g *Greedy) averageScore(cp restart.Checkpoint, truck, route int) float64 {
	var total float64
	n := g.Samples
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		seed := g.rng.Int63()
		sampler := distribution.SymmetricUniform{Rand: rand.New(rand.NewSource(seed))}
		total += g.runOneSample(cp, sampler, truck, route)
	}
	return total / float64(n)
}

func (g *Greedy) runOneSample(cp restart.Checkpoint, sampler distribution.Sampler, truck, route int) float64 {
	tr := &tracker{truck: truck, net: g.Net}
	routing := &forcedRoute{underlying: g.Underlying, truck: truck, route: route, tracker: tr}
	fork := restart.ReReady(cp, sampler, routing)
	fork.Observer = tr.observe
	tr.dispatchTime = fork.Now()
	horizonEnd := fork.Now() + g.Horizon
	fork.Simulate(horizonEnd)
	return tr.score(g.Heuristic, horizonEnd)
}

// forcedRoute forces truck's very next decision onto route, then defers to
// underlying for every subsequent decision (including truck's own future
// ones), so the forward simulation continues under realistic dispatch
// behavior after the candidate is applied.
type forcedRoute struct {
	underlying simkernel.Routing
	truck      int
	route      int
	forced     bool
	tracker    *tracker
}

func (f *forcedRoute) NextFromCrusher(truck, crusher int) simkernel.RouteChoice {
	if !f.forced && truck == f.truck {
		f.forced = true
		return simkernel.Route(f.route)
	}
	return f.underlying.NextFromCrusher(truck, crusher)
}

func (f *forcedRoute) NextFromShovel(truck, shovel int) simkernel.RouteChoice {
	if !f.forced && truck == f.truck {
		f.forced = true
		return simkernel.Route(f.route)
	}
	return f.underlying.NextFromShovel(truck, shovel)
}

// tracker watches one forward-simulation fork for the events each heuristic
// needs: the evaluated truck's own state changes, and per-shovel departure
// times (for MSWT's shovel-idle measurement).
type tracker struct {
	truck int
	net   *network.Network

	dispatchTime     float64
	fillStart        float64
	haveFillStart    bool
	waitAtShovelFrom float64
	haveWait         bool
	nextDispatch     float64
	haveNextDispatch bool
	targetShovel     int

	lastDeparture map[int]float64
}

func (t *tracker) observe(sc simkernel.StateChange) {
	if t.lastDeparture == nil {
		t.lastDeparture = map[int]float64{}
	}
	tr := sc.Transition
	if tr.To == simkernel.LeavingShovel {
		// identify which shovel via NewRoute's shovel, if in range
		if sc.NewRoute >= 0 && sc.NewRoute < len(t.net.Routes) {
			t.lastDeparture[t.net.Routes[sc.NewRoute].Shovel] = tr.Time
		}
	}
	if tr.Truck != t.truck {
		return
	}
	switch tr.To {
	case simkernel.WaitingAtShovel:
		t.waitAtShovelFrom = tr.Time
		t.haveWait = true
	case simkernel.Filling:
		if !t.haveFillStart {
			t.fillStart = tr.Time
			t.haveFillStart = true
			if sc.NewRoute >= 0 && sc.NewRoute < len(t.net.Routes) {
				t.targetShovel = t.net.Routes[sc.NewRoute].Shovel
			}
		}
	case simkernel.Waiting:
		if !t.haveNextDispatch && tr.Time > t.dispatchTime {
			t.nextDispatch = tr.Time
			t.haveNextDispatch = true
		}
	}
}

func (t *tracker) score(h Heuristic, horizonEnd float64) float64 {
	switch h {
	case MTCT:
		if t.haveNextDispatch {
			return t.nextDispatch - t.dispatchTime
		}
		return horizonEnd - t.dispatchTime
	case MTST:
		if t.haveFillStart {
			return t.fillStart - t.dispatchTime
		}
		return horizonEnd - t.dispatchTime
	case MTWT:
		if t.haveFillStart && t.haveWait {
			return t.fillStart - t.waitAtShovelFrom
		}
		return 0
	case MSWT:
		if !t.haveFillStart {
			return 0
		}
		last, ok := t.lastDeparture[t.targetShovel]
		if !ok {
			return 0
		}
		idle := t.fillStart - last
		if idle < 0 {
			return 0
		}
		return idle
	default:
		return 0
	}
}
