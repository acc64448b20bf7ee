package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

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
	return NewService(store)
}

func TestAddAndSearchRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// 1. Add a batch through the wire shapes, with a name-addressed edge
	// and a mixed-case type tag
	res, err := svc.Add(ctx, AddRequest{
		Nodes: []NodeInput{
			{Type: "Actor", Name: "Skatteverket", Description: "Swedish tax agency", Communities: []string{"digisam"}},
			{Type: "initiative", Name: "E-invoicing rollout"},
		},
		Edges: []EdgeInput{
			{Source: "E-invoicing rollout", Target: "Skatteverket", Type: "BELONGS_TO"},
		},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !res.Success || len(res.NodeIDs) != 2 || len(res.EdgeIDs) != 1 {
		t.Fatalf("Got %+v, want success with 2 nodes and 1 edge", res)
	}

	// 2. Search finds the actor by substring
	found, err := svc.Search(SearchRequest{Query: "skatte"})
	if err != nil {
		t.Fatal(err)
	}
	if found.Total != 1 || found.Nodes[0].Name != "Skatteverket" {
		t.Errorf("Got %+v, want exactly Skatteverket", found)
	}
	if found.Nodes[0].Type != graph.NodeActor {
		t.Errorf("Type tag parsed to %q, want actor", found.Nodes[0].Type)
	}
}

func TestSearchRejectsUnknownTypeTag(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Search(SearchRequest{Types: []string{"spaceship"}})
	var verr *graph.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Got %v, want a validation error", err)
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	nodes := make([]NodeInput, 12)
	for i := range nodes {
		nodes[i] = NodeInput{Type: "actor", Name: fmt.Sprintf("Agency %02d", i)}
	}
	if _, err := svc.Add(ctx, AddRequest{Nodes: nodes}); err != nil {
		t.Fatal(err)
	}

	// An empty query matches everything; the default limit caps it
	found, err := svc.Search(SearchRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if found.Total != DefaultSearchLimit {
		t.Errorf("Got %d results, want the default limit %d", found.Total, DefaultSearchLimit)
	}
}

func TestRelatedDepthDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddRequest{
		Nodes: []NodeInput{
			{ID: "a", Type: "actor", Name: "A"},
			{ID: "b", Type: "actor", Name: "B"},
			{ID: "c", Type: "actor", Name: "C"},
		},
		Edges: []EdgeInput{
			{Source: "a", Target: "b", Type: "RELATES_TO"},
			{Source: "b", Target: "c", Type: "RELATES_TO"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	// Depth 0 falls back to one hop: c stays out of reach
	related, err := svc.Related("a", nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(related.Nodes) != 2 || len(related.Edges) != 1 {
		t.Errorf("Got %d nodes / %d edges, want 2 / 1", len(related.Nodes), len(related.Edges))
	}

	// Bad relation tag is a validation error
	if _, err := svc.Related("a", []string{"KNOWS"}, 1); err == nil {
		t.Error("Unknown relation tag should fail")
	}
}

func TestEdgeQueries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddRequest{
		Nodes: []NodeInput{
			{ID: "a", Type: "actor", Name: "A"},
			{ID: "b", Type: "actor", Name: "B"},
			{ID: "c", Type: "actor", Name: "C"},
		},
		Edges: []EdgeInput{
			{Source: "a", Target: "b", Type: "RELATES_TO"},
			{Source: "b", Target: "c", Type: "RELATES_TO"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	between := svc.EdgesBetween([]string{"a", "b"})
	if between.Total != 1 {
		t.Errorf("EdgesBetween got %d, want 1", between.Total)
	}
	forB := svc.EdgesFor("b")
	if forB.Total != 2 {
		t.Errorf("EdgesFor got %d, want 2", forB.Total)
	}
}

func TestUpdateEnvelope(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Add(ctx, AddRequest{
		Nodes: []NodeInput{{Type: "actor", Name: "Old Name"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, res.NodeIDs[0], map[string]any{"name": "New Name"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.Success || updated.Node.Name != "New Name" {
		t.Errorf("Got %+v, want success with the new name", updated)
	}
}

func TestDeleteEnvelope(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddRequest{
		Nodes: []NodeInput{
			{ID: "a", Type: "actor", Name: "A"},
			{ID: "b", Type: "actor", Name: "B"},
		},
		Edges: []EdgeInput{{Source: "a", Target: "b", Type: "RELATES_TO"}},
	}); err != nil {
		t.Fatal(err)
	}

	// Unconfirmed delete is refused before anything happens
	if _, err := svc.Delete(DeleteRequest{NodeIDs: []string{"a"}}); err == nil {
		t.Fatal("Unconfirmed delete must fail")
	}

	del, err := svc.Delete(DeleteRequest{NodeIDs: []string{"a"}, Confirmed: true})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !del.Success || len(del.DeletedNodes) != 1 || len(del.DeletedEdges) != 1 {
		t.Errorf("Got %+v, want 1 node and 1 cascaded edge", del)
	}
}

func TestSimilarDefaults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddRequest{
		Nodes: []NodeInput{
			{Type: "actor", Name: "Alpha"},
			{Type: "actor", Name: "Alphx"},
		},
	}); err != nil {
		t.Fatal(err)
	}

	// Zero threshold means the 0.8 default, which admits the one-letter variant
	res, err := svc.Similar(ctx, SimilarRequest{Name: "Alpha"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 {
		t.Errorf("Default threshold got %d matches, want 2", res.Total)
	}

	// An explicit stricter threshold cuts it
	strict, err := svc.Similar(ctx, SimilarRequest{Name: "Alpha", Threshold: 0.9})
	if err != nil {
		t.Fatal(err)
	}
	if strict.Total != 1 || strict.Matches[0].Node.Name != "Alpha" {
		t.Errorf("Threshold 0.9 got %+v, want only the exact name", strict.Matches)
	}

	// Batch keys every probe, including misses
	batch, err := svc.SimilarBatch(ctx, SimilarBatchRequest{Names: []string{"Alpha", "Zulu"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Results) != 2 {
		t.Fatalf("Batch keyed %d names, want 2", len(batch.Results))
	}
	if zulu, ok := batch.Results["Zulu"]; !ok || len(zulu) != 0 {
		t.Errorf("Zulu should map to an empty list, got %v (present=%v)", zulu, ok)
	}
}

func TestStatsScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, AddRequest{
		Nodes: []NodeInput{
			{Type: "actor", Name: "A", Communities: []string{"one"}},
			{Type: "actor", Name: "B", Communities: []string{"two"}},
		},
	}); err != nil {
		t.Fatal(err)
	}

	all := svc.Stats(nil)
	if all.TotalNodes != 2 {
		t.Errorf("Global stats got %d nodes, want 2", all.TotalNodes)
	}
	one := svc.Stats([]string{"one"})
	if one.TotalNodes != 1 {
		t.Errorf("Scoped stats got %d nodes, want 1", one.TotalNodes)
	}
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get: %w", graph.ErrNodeNotFound), http.StatusNotFound},
		{&graph.ValidationError{Field: "type", Message: "bad"}, http.StatusBadRequest},
		{&graph.ConflictError{Kind: "node", ID: "x"}, http.StatusConflict},
		{&graph.IntegrityError{Endpoint: "source", Value: "x"}, http.StatusBadRequest},
		{&graph.PolicyError{Message: "no"}, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := ErrorStatus(c.err); got != c.want {
			t.Errorf("ErrorStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestErrorBody(t *testing.T) {
	body := ErrorBody(errors.New("boom"))
	if body["success"] != false || body["error"] != "boom" {
		t.Errorf("Got %v, want success=false error=boom", body)
	}
}
