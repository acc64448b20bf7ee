package graph

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/embeddings"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/vector"
)

func TestReindexRebuildsDiscardedVectors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	open := func(dim int) *Store {
		t.Helper()
		vx, err := vector.Open(vector.Options{
			Path: filepath.Join(dir, "vectors.json"),
			Embedder: func() (embeddings.Embedder, error) {
				return embeddings.NewStatic(dim), nil
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		st, err := Open(Options{Path: filepath.Join(dir, "graph.json"), Vectors: vx})
		if err != nil {
			t.Fatal(err)
		}
		return st
	}

	st := open(256)
	mustAdd(t, st, []*Node{
		{Type: NodeActor, Name: "Skatteverket"},
		{Type: NodeActor, Name: "Bolagsverket"},
	}, nil)

	// Reopening with another model discards every stored vector.
	st = open(64)
	hits, err := st.FindSimilar(ctx, "Skatteverket", "", 0.99, 10)
	if err != nil {
		t.Fatal(err)
	}
	// Lexical matching still works, so the exact name survives the wipe.
	if len(hits) != 1 {
		t.Fatalf("Got %d matches after model change, want the lexical one", len(hits))
	}

	count, err := st.Reindex(ctx)
	if err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Reindexed %d nodes, want 2", count)
	}
}

func TestReindexNeedsVectorIndex(t *testing.T) {
	st := newTestStore(t, false)
	if _, err := st.Reindex(context.Background()); !errors.Is(err, ErrNoVectorIndex) {
		t.Fatalf("Got %v, want ErrNoVectorIndex", err)
	}
}

func TestReindexEmptyStoreIsNoop(t *testing.T) {
	st := newTestStore(t, true)
	count, err := st.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Got %d, want 0", count)
	}
}
