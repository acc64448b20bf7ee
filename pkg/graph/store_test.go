package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/embeddings"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/vector"
)

// newTestStore opens a store in a temp dir, with a deterministic in-process
// embedder when withVectors is set.
func newTestStore(t *testing.T, withVectors bool) *Store {
	t.Helper()
	dir := t.TempDir()

	var vx *vector.Index
	if withVectors {
		var err error
		vx, err = vector.Open(vector.Options{
			Path: filepath.Join(dir, "vectors.json"),
			Embedder: func() (embeddings.Embedder, error) {
				return embeddings.NewStatic(256), nil
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	st, err := Open(Options{Path: filepath.Join(dir, "graph.json"), Vectors: vx})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func mustAdd(t *testing.T, st *Store, nodes []*Node, edges []*Edge) ([]string, []string) {
	t.Helper()
	nodeIDs, edgeIDs, err := st.AddNodes(context.Background(), nodes, edges)
	if err != nil {
		t.Fatalf("AddNodes failed: %v", err)
	}
	return nodeIDs, edgeIDs
}

func TestBasicAddAndSearch(t *testing.T) {
	st := newTestStore(t, false)

	// 1. Add an actor node
	mustAdd(t, st, []*Node{{Type: NodeActor, Name: "Skatteverket"}}, nil)

	// 2. Lowercase partial query must match case-insensitively
	results := st.SearchNodes("skatte", nil, nil, 10)
	if len(results) != 1 {
		t.Fatalf("SearchNodes returned %d nodes, want 1", len(results))
	}
	if results[0].Name != "Skatteverket" {
		t.Errorf("Got %q, want Skatteverket", results[0].Name)
	}

	// 3. A non-matching query returns nothing
	if got := st.SearchNodes("bolagsverket", nil, nil, 10); len(got) != 0 {
		t.Errorf("Got %d results for unrelated query, want 0", len(got))
	}
}

func TestSearchFiltersAndLimit(t *testing.T) {
	st := newTestStore(t, false)
	mustAdd(t, st, []*Node{
		{Type: NodeActor, Name: "Skatteverket", Communities: []string{"gov"}},
		{Type: NodeInitiative, Name: "Digital Wallet", Communities: []string{"gov", "tech"}},
		{Type: NodeInitiative, Name: "Digital Identity", Communities: []string{"tech"}},
	}, nil)

	// Type filter applies before text matching
	if got := st.SearchNodes("digital", []NodeType{NodeActor}, nil, 10); len(got) != 0 {
		t.Errorf("Type filter: got %d results, want 0", len(got))
	}
	if got := st.SearchNodes("digital", []NodeType{NodeInitiative}, nil, 10); len(got) != 2 {
		t.Errorf("Type filter: got %d results, want 2", len(got))
	}

	// Community filter: node matches when it belongs to ANY given community
	if got := st.SearchNodes("", nil, []string{"gov"}, 10); len(got) != 2 {
		t.Errorf("Community filter: got %d results, want 2", len(got))
	}

	// Empty query lists everything passing the filters
	if got := st.SearchNodes("", nil, nil, 10); len(got) != 3 {
		t.Errorf("Empty query: got %d results, want 3", len(got))
	}

	// Scanning stops at the limit
	if got := st.SearchNodes("", nil, nil, 2); len(got) != 2 {
		t.Errorf("Limit: got %d results, want 2", len(got))
	}
}

func TestGetNode(t *testing.T) {
	st := newTestStore(t, false)
	nodeIDs, _ := mustAdd(t, st, []*Node{{Type: NodeTheme, Name: "Interoperability"}}, nil)

	n, err := st.GetNode(nodeIDs[0])
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if n.Name != "Interoperability" || n.Type != NodeTheme {
		t.Errorf("Got %+v, want the Interoperability theme", n)
	}
	if n.CreatedAt.IsZero() || n.UpdatedAt.IsZero() {
		t.Error("Timestamps should be filled on add")
	}

	if _, err := st.GetNode("missing"); err == nil {
		t.Error("GetNode on unknown id should fail")
	}
}

func TestRoundTripReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")

	// 1. Build a graph and let every mutation persist
	st, err := Open(Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	nodeIDs, edgeIDs := mustAdd(t, st, []*Node{
		{Type: NodeActor, Name: "Skatteverket", Description: "Swedish tax agency", Summary: "Tax", Communities: []string{"gov"}, Tags: []string{"public"}},
		{Type: NodeInitiative, Name: "E-services", Metadata: map[string]any{"phase": "pilot"}},
	}, []*Edge{
		{Source: "E-services", Target: "Skatteverket", Type: RelBelongsTo},
	})
	orig, err := st.GetNode(nodeIDs[0])
	if err != nil {
		t.Fatal(err)
	}
	st.Close()

	// 2. Reload into a fresh store
	st2, err := Open(Options{Path: path})
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	defer st2.Close()

	if st2.NodeCount() != 2 || st2.EdgeCount() != 1 {
		t.Fatalf("Reloaded %d nodes / %d edges, want 2 / 1", st2.NodeCount(), st2.EdgeCount())
	}

	// 3. Field values and timestamps survive to the second
	reloaded, err := st2.GetNode(nodeIDs[0])
	if err != nil {
		t.Fatalf("Node missing after reload: %v", err)
	}
	if reloaded.Name != orig.Name || reloaded.Description != orig.Description || reloaded.Summary != orig.Summary {
		t.Errorf("Text fields changed across reload: %+v vs %+v", reloaded, orig)
	}
	if !reloaded.CreatedAt.Equal(orig.CreatedAt) || !reloaded.UpdatedAt.Equal(orig.UpdatedAt) {
		t.Errorf("Timestamps changed across reload: %v/%v vs %v/%v",
			reloaded.CreatedAt, reloaded.UpdatedAt, orig.CreatedAt, orig.UpdatedAt)
	}
	if len(reloaded.Communities) != 1 || reloaded.Communities[0] != "gov" {
		t.Errorf("Communities changed across reload: %v", reloaded.Communities)
	}

	// 4. The edge still points at resolved ids
	edges := st2.EdgesForNode(nodeIDs[0])
	if len(edges) != 1 || edges[0].ID != edgeIDs[0] {
		t.Fatalf("Edge set changed across reload: %v", edges)
	}
}

func TestLoadMissingFileCreatesEmptyGraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "graph.json")

	st, err := Open(Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	st.Close()

	// The file exists after construction
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Backing file not created: %v", err)
	}

	// Loading it again changes nothing
	st2, err := Open(Options{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	defer st2.Close()
	if st2.NodeCount() != 0 || st2.EdgeCount() != 0 {
		t.Errorf("Empty graph reloaded as %d nodes / %d edges", st2.NodeCount(), st2.EdgeCount())
	}
}

func TestLoadCorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(Options{Path: path}); err == nil {
		t.Fatal("Open should fail on a corrupt file, not mask it as empty")
	}
}

func TestLoadRejectsDanglingEdge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	blob := `{
  "nodes": [{"id": "n1", "type": "actor", "name": "A", "created_at": "2026-01-01T00:00:00Z", "updated_at": "2026-01-01T00:00:00Z"}],
  "edges": [{"id": "e1", "source": "n1", "target": "ghost", "type": "RELATES_TO", "created_at": "2026-01-01T00:00:00Z"}],
  "metadata": {"version": "1.0", "last_updated": "2026-01-01T00:00:00Z"}
}`
	if err := os.WriteFile(path, []byte(blob), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(Options{Path: path}); err == nil {
		t.Fatal("Open should reject an edge referencing a missing node")
	}
}

func TestEdgesBetweenAndForNode(t *testing.T) {
	st := newTestStore(t, false)
	nodeIDs, _ := mustAdd(t, st, []*Node{
		{Type: NodeActor, Name: "A"},
		{Type: NodeActor, Name: "B"},
		{Type: NodeActor, Name: "C"},
	}, []*Edge{
		{Source: "A", Target: "B", Type: RelRelatesTo},
		{Source: "B", Target: "C", Type: RelRelatesTo},
	})

	between := st.EdgesBetween([]string{nodeIDs[0], nodeIDs[1]})
	if len(between) != 1 {
		t.Fatalf("EdgesBetween(A,B) returned %d edges, want 1", len(between))
	}
	if between[0].Source != nodeIDs[0] || between[0].Target != nodeIDs[1] {
		t.Errorf("Wrong edge between A and B: %+v", between[0])
	}

	forB := st.EdgesForNode(nodeIDs[1])
	if len(forB) != 2 {
		t.Errorf("EdgesForNode(B) returned %d edges, want 2", len(forB))
	}
	if got := st.EdgesForNode("missing"); len(got) != 0 {
		t.Errorf("EdgesForNode(unknown) returned %d edges, want 0", len(got))
	}
}

func TestMultigraphAllowsParallelEdges(t *testing.T) {
	st := newTestStore(t, false)
	nodeIDs, edgeIDs := mustAdd(t, st, []*Node{
		{Type: NodeInitiative, Name: "Proj"},
		{Type: NodeResource, Name: "Report"},
	}, []*Edge{
		{Source: "Proj", Target: "Report", Type: RelProduces},
		{Source: "Proj", Target: "Report", Type: RelRelatesTo},
	})

	if len(edgeIDs) != 2 {
		t.Fatalf("Got %d edges, want 2 parallel edges", len(edgeIDs))
	}
	between := st.EdgesBetween(nodeIDs)
	if len(between) != 2 {
		t.Errorf("EdgesBetween returned %d edges, want both parallel edges", len(between))
	}
}
