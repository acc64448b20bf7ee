package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/vector"
)

// Reindex regenerates the embedding of every node in one batch. It is the
// recovery path after an embedding model change, which discards all stored
// vectors on open. The store write lock is held for the whole run, embedding
// round-trips included, so other operations block until it finishes.
//
// Returns the number of nodes embedded.
func (s *Store) Reindex(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vectors == nil {
		return 0, fmt.Errorf("graph: %w", ErrNoVectorIndex)
	}

	items := make([]vector.Item, 0, s.nodes.Len())
	s.nodes.Scan(func(id string, n *Node) bool {
		items = append(items, vector.Item{ID: id, Text: n.EmbeddingText()})
		return true
	})
	if len(items) == 0 {
		return 0, nil
	}

	if err := s.vectors.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("graph: reindexing %d nodes: %w", len(items), err)
	}
	slog.Info("Graph reindexed", "nodes", len(items))
	return len(items), nil
}
