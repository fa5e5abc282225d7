// Package lp builds the maximum-throughput linear (or, in the restrict
// variant, mixed-integer) program described in spec §4.6 and hands it to an
// external MILP solver through a narrow file-based contract: this package
// only owns constructing the model and interpreting the solver's output, not
// the solver itself (spec §1's explicit "external collaborator" boundary).
package lp

import (
	"fmt"
	"sort"

	"dispatchsim/internal/network"
)

// Variant selects which optional constraint set augments the base model.
type Variant int

const (
	// VariantBase is the plain continuous flow model.
	VariantBase Variant = iota
	// VariantRestrict adds a binary permitted-direction variable per
	// one-lane road with Big-M coupling, forcing single-direction flow.
	VariantRestrict
	// VariantScale scales one-lane road travel time contributions to the
	// truck-inventory constraint by an approximate congestion factor.
	VariantScale
)

// largeThroughputWeight lexicographically prioritizes maximizing crusher
// throughput over minimizing truck count in the objective (spec §4.6).
const largeThroughputWeight = 1e6

// bigM bounds a road's directional flow for the restrict variant's coupling
// constraints; any value larger than the largest physically achievable flow
// on a single road works.
const bigM = 1e4

// Term is one coefficient*variable product in a linear expression.
type Term struct {
	Var  string
	Coef float64
}

// Expr is a linear expression: a sum of Terms.
type Expr []Term

func (e Expr) plus(v string, coef float64) Expr {
	if coef == 0 {
		return e
	}
	return append(e, Term{Var: v, Coef: coef})
}

// Op is a constraint's relational operator.
type Op string

const (
	LE Op = "<="
	GE Op = ">="
	EQ Op = "="
)

// Constraint is one named row of the model.
type Constraint struct {
	Name string
	Expr Expr
	Op   Op
	RHS  float64
}

// Bound restricts one variable's feasible range. Upper applies only when
// HasUpper is set; otherwise the variable is unbounded above.
type Bound struct {
	Lower, Upper float64
	HasUpper     bool
}

// Model is the solver-agnostic description of the LP/MILP: variables in
// declaration order, the objective, every constraint, variable bounds, and
// the subset of variables that are binary (restrict variant only).
type Model struct {
	Name        string
	Maximize    bool
	Objective   Expr
	Constraints []Constraint
	Bounds      map[string]Bound
	Binaries    map[string]bool
	varOrder    []string
}

func (m *Model) declare(name string, b Bound) {
	if _, ok := m.Bounds[name]; ok {
		return
	}
	m.varOrder = append(m.varOrder, name)
	m.Bounds[name] = b
}

// Vars returns every declared variable name in declaration order.
func (m *Model) Vars() []string {
	out := make([]string, len(m.varOrder))
	copy(out, m.varOrder)
	return out
}

func crusherVar(c int) string        { return fmt.Sprintf("C_%d", c) }
func shovelVar(s int) string         { return fmt.Sprintf("S_%d", s) }
func roadFlowVar(r, d int) string    { return fmt.Sprintf("Rd_%d_%d", r, d) }
func routeFlowVar(k, f int) string   { return fmt.Sprintf("Rt_%d_%d", k, f) }
func directionVar(r int) string      { return fmt.Sprintf("d_%d", r) }
const truckCountVar = "T"

// Build constructs the model for net under variant. The route set, road set,
// and per-service means are read directly from net; nothing else is
// required (spec §4.6 Inputs).
func Build(net *network.Network, variant Variant) *Model {
	m := &Model{
		Name:     "dispatchsim",
		Maximize: true,
		Bounds:   map[string]Bound{},
		Binaries: map[string]bool{},
	}

	for c, cr := range net.Crushers {
		upper := 0.0
		hasUpper := cr.EmptyMean > 0
		if hasUpper {
			upper = 1 / cr.EmptyMean
		}
		m.declare(crusherVar(c), Bound{Upper: upper, HasUpper: hasUpper})
		m.Objective = m.Objective.plus(crusherVar(c), largeThroughputWeight)
	}
	for s, sh := range net.Shovels {
		upper := 0.0
		hasUpper := sh.FillMean > 0
		if hasUpper {
			upper = 1 / sh.FillMean
		}
		m.declare(shovelVar(s), Bound{Upper: upper, HasUpper: hasUpper})
	}
	for r := range net.Roads {
		m.declare(roadFlowVar(r, 0), Bound{})
		m.declare(roadFlowVar(r, 1), Bound{})
	}
	for _, rt := range net.Routes {
		m.declare(routeFlowVar(rt.Index, 0), Bound{})
		m.declare(routeFlowVar(rt.Index, 1), Bound{})
	}
	m.declare(truckCountVar, Bound{})

	buildServiceConstraints(m, net)
	buildRoadFlowConstraints(m, net)
	buildInventoryConstraint(m, net, variant)
	m.Constraints = append(m.Constraints, Constraint{
		Name: "truck_cap", Expr: Expr{{Var: truckCountVar, Coef: 1}}, Op: LE, RHS: float64(net.NumTrucks),
	})

	if variant == VariantRestrict {
		buildRestrictConstraints(m, net)
	}

	return m
}

// buildServiceConstraints implements "at each crusher and each shovel,
// throughput equals the sum of incoming and the sum of outgoing road flows
// on the corresponding sides (one equation per direction per service)".
func buildServiceConstraints(m *Model, net *network.Network) {
	for c := range net.Crushers {
		node := network.NodeRef{Kind: network.NodeCrusher, Index: c}
		away, toward := incidentFlows(net, node)
		m.Constraints = append(m.Constraints,
			Constraint{Name: fmt.Sprintf("crusher_%d_out", c), Expr: away.plus(crusherVar(c), -1), Op: EQ, RHS: 0},
			Constraint{Name: fmt.Sprintf("crusher_%d_in", c), Expr: toward.plus(crusherVar(c), -1), Op: EQ, RHS: 0},
		)
	}
	for s := range net.Shovels {
		node := network.NodeRef{Kind: network.NodeShovel, Index: s}
		away, toward := incidentFlows(net, node)
		m.Constraints = append(m.Constraints,
			Constraint{Name: fmt.Sprintf("shovel_%d_in", s), Expr: toward.plus(shovelVar(s), -1), Op: EQ, RHS: 0},
			Constraint{Name: fmt.Sprintf("shovel_%d_out", s), Expr: away.plus(shovelVar(s), -1), Op: EQ, RHS: 0},
		)
	}
}

// incidentFlows returns two expressions: the sum of road flows on the
// direction leading away from node, and the sum on the direction leading
// toward it.
func incidentFlows(net *network.Network, node network.NodeRef) (away, toward Expr) {
	for ri, r := range net.Roads {
		d, ok := r.DirectionFrom(node)
		if !ok {
			continue
		}
		away = away.plus(roadFlowVar(ri, d), 1)
		toward = toward.plus(roadFlowVar(ri, 1-d), 1)
	}
	return away, toward
}

// buildRoadFlowConstraints implements "for each road and direction, road
// flow equals the sum of route flows that traverse that road in that
// direction", using RouteHops for both the loaded and empty legs of every
// route so the same machinery serves simple and complex networks.
func buildRoadFlowConstraints(m *Model, net *network.Network) {
	contrib := map[string]Expr{}
	for r := range net.Roads {
		for d := 0; d < 2; d++ {
			contrib[roadFlowVar(r, d)] = nil
		}
	}
	for _, rt := range net.Routes {
		for _, h := range network.RouteHops(rt, true) {
			v := roadFlowVar(h.Road, h.Direction)
			contrib[v] = contrib[v].plus(routeFlowVar(rt.Index, 0), 1)
		}
		for _, h := range network.RouteHops(rt, false) {
			v := roadFlowVar(h.Road, h.Direction)
			contrib[v] = contrib[v].plus(routeFlowVar(rt.Index, 1), 1)
		}
	}

	keys := make([]string, 0, len(contrib))
	for k := range contrib {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, v := range keys {
		expr := contrib[v].plus(v, -1)
		m.Constraints = append(m.Constraints, Constraint{
			Name: "roadflow_" + v, Expr: expr, Op: EQ, RHS: 0,
		})
	}
}

// buildInventoryConstraint implements the truck-inventory equation: T equals
// trucks occupied emptying, filling, and traveling loaded or empty across
// every route. rt_time(k,0) is the loaded (crusher->shovel) leg, already
// including full_slowdown via network.MeanRouteTime; rt_time(k,1) is the
// unscaled empty return leg. The scale variant additionally inflates
// one-lane-road travel time contributions by an approximate congestion
// factor (see scaledRouteTime).
func buildInventoryConstraint(m *Model, net *network.Network, variant Variant) {
	expr := Expr{{Var: truckCountVar, Coef: -1}}
	for c, cr := range net.Crushers {
		expr = expr.plus(crusherVar(c), cr.EmptyMean)
	}
	for s, sh := range net.Shovels {
		expr = expr.plus(shovelVar(s), sh.FillMean)
	}
	for _, rt := range net.Routes {
		loadedTime := routeTime(net, rt, true, variant)
		emptyTime := routeTime(net, rt, false, variant)
		expr = expr.plus(routeFlowVar(rt.Index, 0), loadedTime)
		expr = expr.plus(routeFlowVar(rt.Index, 1), emptyTime)
	}
	m.Constraints = append(m.Constraints, Constraint{Name: "inventory", Expr: expr, Op: EQ, RHS: 0})
}

// routeTime sums a route's hop travel times, applying full_slowdown on the
// loaded leg and, for the scale variant, an additional per-one-lane-road
// congestion multiplier.
func routeTime(net *network.Network, rt network.Route, loaded bool, variant Variant) float64 {
	if variant != VariantScale {
		return net.MeanRouteTime(rt, loaded)
	}
	var total float64
	for _, ri := range rt.Roads {
		r := net.Roads[ri]
		m := r.TravelMean
		if r.Kind == network.OneLane {
			m *= congestionScale(net, r)
		}
		total += m
	}
	if loaded {
		total *= net.FullSlowdown
	}
	return total
}

// congestionScale approximates one-lane-road congestion from the fill-rate
// demand of shovels reachable through it (spec §4.6 scale variant).
func congestionScale(net *network.Network, r network.Road) float64 {
	seen := map[int]bool{}
	var saturation float64
	for _, rt := range net.Routes {
		usesRoad := false
		for _, ri := range rt.Roads {
			if ri == r.Index {
				usesRoad = true
				break
			}
		}
		if !usesRoad || seen[rt.Shovel] {
			continue
		}
		seen[rt.Shovel] = true
		if sh := net.Shovels[rt.Shovel]; sh.FillMean > 0 {
			saturation += 1 / sh.FillMean
		}
	}
	if r.TravelMean <= 0 {
		return 1
	}
	threshold := 0.5 / r.TravelMean
	if saturation > threshold {
		return 2
	}
	return 1 + 0.25*saturation/threshold
}

// buildRestrictConstraints adds the restrict variant's binary
// chosen-direction variable and Big-M coupling per one-lane road.
//
// The source LP builder's numVars array for this constraint carries
// numRoutes+1 named slots but only populates numRoutes of them (spec §9
// Open Question); this implementation has no equivalent fixed-size array to
// preserve, since Expr is a plain slice sized exactly to its terms.
func buildRestrictConstraints(m *Model, net *network.Network) {
	for ri, r := range net.Roads {
		if r.Kind != network.OneLane {
			continue
		}
		dv := directionVar(ri)
		m.declare(dv, Bound{Upper: 1, HasUpper: true})
		m.Binaries[dv] = true

		m.Constraints = append(m.Constraints,
			Constraint{
				Name: fmt.Sprintf("restrict_%d_fwd", ri),
				Expr: Expr{{Var: roadFlowVar(ri, 0), Coef: 1}, {Var: dv, Coef: -bigM}},
				Op:   LE, RHS: 0,
			},
			Constraint{
				Name: fmt.Sprintf("restrict_%d_rev", ri),
				Expr: Expr{{Var: roadFlowVar(ri, 1), Coef: 1}, {Var: dv, Coef: bigM}},
				Op:   LE, RHS: bigM,
			},
		)
	}
}
