package graph

import "testing"

func TestGetStatsGlobal(t *testing.T) {
	st := newTestStore(t, false)
	mustAdd(t, st, []*Node{
		{Type: NodeActor, Name: "A", Communities: []string{"C1"}},
		{Type: NodeActor, Name: "B", Communities: []string{"C1", "C2"}},
		{Type: NodeInitiative, Name: "P"},
	}, []*Edge{
		{Source: "A", Target: "B", Type: RelRelatesTo},
		{Source: "B", Target: "P", Type: RelImplements},
	})

	stats := st.GetStats(nil)
	if stats.TotalNodes != 3 || stats.TotalEdges != 2 {
		t.Errorf("Got %d nodes / %d edges, want 3 / 2", stats.TotalNodes, stats.TotalEdges)
	}
	if stats.NodesByType["actor"] != 2 || stats.NodesByType["initiative"] != 1 {
		t.Errorf("Per-type counts wrong: %v", stats.NodesByType)
	}
	if stats.NodesByCommunity["C1"] != 2 || stats.NodesByCommunity["C2"] != 1 {
		t.Errorf("Per-community counts wrong: %v", stats.NodesByCommunity)
	}
}

func TestGetStatsCommunityFilter(t *testing.T) {
	st := newTestStore(t, false)
	mustAdd(t, st, []*Node{
		{Type: NodeActor, Name: "A", Communities: []string{"C1"}},
		{Type: NodeActor, Name: "B", Communities: []string{"C1"}},
		{Type: NodeActor, Name: "C"},
	}, nil)

	stats := st.GetStats([]string{"C1"})
	if stats.TotalNodes != 2 {
		t.Errorf("Filtered total_nodes = %d, want 2", stats.TotalNodes)
	}
	if stats.NodesByType["actor"] != 2 {
		t.Errorf("Filtered per-type counts wrong: %v", stats.NodesByType)
	}
}

func TestGetStatsEdgeCountFollowsFilter(t *testing.T) {
	st := newTestStore(t, false)
	mustAdd(t, st, []*Node{
		{Type: NodeActor, Name: "A", Communities: []string{"C1"}},
		{Type: NodeActor, Name: "B", Communities: []string{"C1"}},
		{Type: NodeActor, Name: "C"},
	}, []*Edge{
		{Source: "A", Target: "B", Type: RelRelatesTo}, // inside the filter
		{Source: "B", Target: "C", Type: RelRelatesTo}, // crosses out of it
	})

	unfiltered := st.GetStats(nil)
	if unfiltered.TotalEdges != 2 {
		t.Errorf("Global edge count = %d, want 2", unfiltered.TotalEdges)
	}

	filtered := st.GetStats([]string{"C1"})
	if filtered.TotalEdges != 1 {
		t.Errorf("Filtered edge count = %d, want only the edge inside C1", filtered.TotalEdges)
	}
}
