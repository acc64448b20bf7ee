package graph

// Stats summarizes the graph composition, optionally scoped to a set of
// communities.
type Stats struct {
	TotalNodes       int            `json:"total_nodes"`
	TotalEdges       int            `json:"total_edges"`
	NodesByType      map[string]int `json:"nodes_by_type"`
	NodesByCommunity map[string]int `json:"nodes_by_community"`
	Filter           []string       `json:"communities_filter,omitempty"`
}

// GetStats counts nodes (total, per type, per community) over the nodes
// belonging to any of the given communities; an empty filter covers the
// whole graph. The edge count follows the same scope: with a filter it
// covers only edges whose endpoints are both in the filtered node set, so
// node and edge counts always describe the same subgraph.
func (s *Store) GetStats(communities []string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		NodesByType:      make(map[string]int),
		NodesByCommunity: make(map[string]int),
		Filter:           append([]string(nil), communities...),
	}

	included := make(map[string]struct{})
	s.nodes.Scan(func(id string, n *Node) bool {
		if !n.InCommunity(communities) {
			return true
		}
		included[id] = struct{}{}
		stats.TotalNodes++
		stats.NodesByType[string(n.Type)]++
		for _, c := range n.Communities {
			stats.NodesByCommunity[c]++
		}
		return true
	})

	if len(communities) == 0 {
		stats.TotalEdges = s.edges.Len()
		return stats
	}
	s.edges.Scan(func(_ string, e *Edge) bool {
		if _, ok := included[e.Source]; !ok {
			return true
		}
		if _, ok := included[e.Target]; !ok {
			return true
		}
		stats.TotalEdges++
		return true
	})
	return stats
}
