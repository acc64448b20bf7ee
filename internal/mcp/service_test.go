package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jakobengdahl/CommunityOverview-sub001/internal/api"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/graph"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := graph.Open(graph.Options{
		Path: filepath.Join(t.TempDir(), "graph.json"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(api.NewService(store))
}

func TestToolRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// 1. add_nodes with a name-addressed edge
	_, added, err := svc.AddNodes(ctx, nil, AddArgs{
		Nodes: []NodeSpec{
			{Type: "actor", Name: "Riksarkivet", Communities: []string{"digisam"}},
			{Type: "initiative", Name: "Digital archive"},
		},
		Edges: []EdgeSpec{
			{Source: "Digital archive", Target: "Riksarkivet", Type: "BELONGS_TO"},
		},
	})
	if err != nil {
		t.Fatalf("AddNodes failed: %v", err)
	}
	if !added.Success || len(added.NodeIDs) != 2 || len(added.EdgeIDs) != 1 {
		t.Fatalf("Got %+v, want 2 nodes and 1 edge", added)
	}

	// 2. search finds the actor
	_, found, err := svc.SearchNodes(ctx, nil, SearchArgs{Query: "riksarkivet"})
	if err != nil {
		t.Fatal(err)
	}
	if found.Total != 1 {
		t.Fatalf("Search got %d, want 1", found.Total)
	}
	actorID := found.Nodes[0].ID

	// 3. get_node and get_related_nodes agree with the add
	_, node, err := svc.GetNode(ctx, nil, GetNodeArgs{NodeID: actorID})
	if err != nil {
		t.Fatal(err)
	}
	if node.Name != "Riksarkivet" {
		t.Errorf("Got %q, want Riksarkivet", node.Name)
	}

	_, related, err := svc.GetRelatedNodes(ctx, nil, RelatedArgs{NodeID: actorID})
	if err != nil {
		t.Fatal(err)
	}
	if len(related.Nodes) != 2 || len(related.Edges) != 1 {
		t.Errorf("Related got %d nodes / %d edges, want 2 / 1", len(related.Nodes), len(related.Edges))
	}

	// 4. stats reflect the graph
	_, stats, err := svc.GetStats(ctx, nil, StatsArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalNodes != 2 || stats.TotalEdges != 1 {
		t.Errorf("Stats got %d/%d, want 2/1", stats.TotalNodes, stats.TotalEdges)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, added, err := svc.AddNodes(ctx, nil, AddArgs{
		Nodes: []NodeSpec{{Type: "actor", Name: "Temp"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.DeleteNodes(ctx, nil, DeleteArgs{NodeIDs: added.NodeIDs}); err == nil {
		t.Fatal("Unconfirmed delete must fail")
	}

	_, deleted, err := svc.DeleteNodes(ctx, nil, DeleteArgs{NodeIDs: added.NodeIDs, Confirmed: true})
	if err != nil {
		t.Fatalf("Confirmed delete failed: %v", err)
	}
	if len(deleted.DeletedNodes) != 1 {
		t.Errorf("Got %+v, want 1 deleted node", deleted)
	}
}

func TestSimilarToolReportsReason(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.AddNodes(ctx, nil, AddArgs{
		Nodes: []NodeSpec{{Type: "actor", Name: "Skatteverket"}},
	}); err != nil {
		t.Fatal(err)
	}

	_, res, err := svc.FindSimilarNodes(ctx, nil, SimilarArgs{Name: "Skatteverkat"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 {
		t.Fatalf("Got %d matches, want 1", res.Total)
	}
	if res.Matches[0].MatchReason == "" {
		t.Error("Match reason must explain the score")
	}
}
