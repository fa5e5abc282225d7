package network

// EnumerateRoutes performs a depth-first search from every crusher over the
// undirected road graph, recording the traversal direction on each road,
// and terminates a path the moment it reaches any shovel. Paths that reach
// a crusher (the start or any other one) are pruned, and no node already on
// the current path is revisited.
func EnumerateRoutes(crushers []Crusher, shovels []Shovel, roads []Road) []Route {
	adjacency := buildAdjacency(roads)

	var routes []Route
	for c := range crushers {
		start := NodeRef{Kind: NodeCrusher, Index: c}
		visited := map[NodeRef]bool{start: true}
		dfs(start, c, adjacency, visited, nil, nil, &routes)
	}
	for i := range routes {
		routes[i].Index = i
	}
	return routes
}

type hop struct {
	road      int
	direction int
	to        NodeRef
}

func buildAdjacency(roads []Road) map[NodeRef][]hop {
	adj := make(map[NodeRef][]hop)
	for _, r := range roads {
		adj[r.A] = append(adj[r.A], hop{road: r.Index, direction: 0, to: r.B})
		adj[r.B] = append(adj[r.B], hop{road: r.Index, direction: 1, to: r.A})
	}
	return adj
}

func dfs(
	at NodeRef,
	crusher int,
	adjacency map[NodeRef][]hop,
	visited map[NodeRef]bool,
	pathRoads []int,
	pathDirections []int,
	out *[]Route,
) {
	for _, h := range adjacency[at] {
		if visited[h.to] || h.to.Kind == NodeCrusher {
			continue
		}
		nextRoads := append(append([]int{}, pathRoads...), h.road)
		nextDirections := append(append([]int{}, pathDirections...), h.direction)

		if h.to.Kind == NodeShovel {
			*out = append(*out, Route{
				Crusher:    crusher,
				Shovel:     h.to.Index,
				Roads:      nextRoads,
				Directions: nextDirections,
			})
			continue
		}

		visited[h.to] = true
		dfs(h.to, crusher, adjacency, visited, nextRoads, nextDirections, out)
		delete(visited, h.to)
	}
}

// SimpleRoutes builds the trivial one-road-per-shovel route set used by the
// simple network form: crusher 0 connects directly to every shovel.
func SimpleRoutes(roads []Road) []Route {
	routes := make([]Route, len(roads))
	for i, r := range roads {
		dir, _ := r.DirectionFrom(NodeRef{Kind: NodeCrusher, Index: 0})
		routes[i] = Route{
			Index:      i,
			Crusher:    0,
			Shovel:     r.B.Index,
			Roads:      []int{r.Index},
			Directions: []int{dir},
		}
	}
	return routes
}
