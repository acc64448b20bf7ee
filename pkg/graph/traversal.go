package graph

// RelatedNodes expands breadth-first from the given node, following both
// outgoing and incoming edges layer by layer, up to depth hops (depth below
// 1 is treated as 1). When a type filter is given, only edges of those types
// are followed. Nodes and edges reached via multiple paths appear exactly
// once; the start node is always first in the returned nodes. An unknown
// start id yields empty lists, not an error.
func (s *Store) RelatedNodes(nodeID string, types []RelationType, depth int) ([]*Node, []*Edge) {
	if depth < 1 {
		depth = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	start, ok := s.nodes.Get(nodeID)
	if !ok {
		return []*Node{}, []*Edge{}
	}

	var typeSet map[RelationType]struct{}
	if len(types) > 0 {
		typeSet = make(map[RelationType]struct{}, len(types))
		for _, t := range types {
			typeSet[t] = struct{}{}
		}
	}

	visitedNodes := map[string]struct{}{nodeID: {}}
	visitedEdges := map[string]struct{}{}
	nodes := []*Node{start.Clone()}
	edges := []*Edge{}

	frontier := []string{nodeID}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		next := []string{}
		for _, current := range frontier {
			for _, edgeID := range s.edgesTouchingLocked(current) {
				e, ok := s.edges.Get(edgeID)
				if !ok {
					continue
				}
				if typeSet != nil {
					if _, follow := typeSet[e.Type]; !follow {
						continue
					}
				}
				if _, dup := visitedEdges[edgeID]; !dup {
					visitedEdges[edgeID] = struct{}{}
					edges = append(edges, e.Clone())
				}

				neighbor := e.Source
				if e.Source == current {
					neighbor = e.Target
				}
				if _, seen := visitedNodes[neighbor]; seen {
					continue
				}
				n, ok := s.nodes.Get(neighbor)
				if !ok {
					continue
				}
				visitedNodes[neighbor] = struct{}{}
				nodes = append(nodes, n.Clone())
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return nodes, edges
}

// edgesTouchingLocked returns the ids of every edge incident to the node,
// outgoing first, each id once even for self-loops.
func (s *Store) edgesTouchingLocked(nodeID string) []string {
	out := s.outgoing[nodeID]
	in := s.incoming[nodeID]
	ids := make([]string, 0, len(out)+len(in))
	seen := make(map[string]struct{}, len(out)+len(in))
	for _, lists := range [][]string{out, in} {
		for _, id := range lists {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}
