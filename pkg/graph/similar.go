package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// semanticFloor is the lowest threshold the semantic pass ever uses. The
// semantic threshold follows the lexical one at a 0.2 discount so vector
// recall is not cut off by a strict name threshold, but never drops below
// this floor.
const semanticFloor = 0.4

// FindSimilar ranks existing nodes by similarity to the given name,
// blending two independent signals:
//
//  1. Lexical: normalized edit-distance similarity between the query and
//     each node's name, case-insensitive. Included at >= threshold.
//  2. Semantic: vector search over the query text at the lowered threshold
//     max(0.4, threshold-0.2), skipped when no vector index is attached.
//
// A node matched by both signals appears once, with its lexical score.
// Results are sorted by score descending and truncated to limit. Each match
// names the method and percentage that produced it, so a caller screening
// for duplicates can tell a near-exact name from a merely related concept.
func (s *Store) FindSimilar(ctx context.Context, name string, nodeType NodeType, threshold float64, limit int) ([]SimilarNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make(map[string]struct{})
	results := []SimilarNode{}

	// Lexical pass over every node name.
	s.nodes.Scan(func(id string, n *Node) bool {
		if nodeType != "" && n.Type != nodeType {
			return true
		}
		sim := lexicalSimilarity(name, n.Name)
		if sim >= threshold {
			matched[id] = struct{}{}
			results = append(results, SimilarNode{
				Node:        n.Clone(),
				Score:       sim,
				MatchReason: fmt.Sprintf("Name similarity: %.0f%% match", sim*100),
			})
		}
		return true
	})

	// Semantic pass, deduplicated against the lexical matches.
	if s.vectors != nil {
		semThreshold := threshold - 0.2
		if semThreshold < semanticFloor {
			semThreshold = semanticFloor
		}
		hits, err := s.vectors.Search(ctx, name, limit, semThreshold)
		if err != nil {
			return nil, fmt.Errorf("graph: semantic search for %q: %w", name, err)
		}
		for _, hit := range hits {
			if _, dup := matched[hit.ID]; dup {
				continue
			}
			n, ok := s.nodes.Get(hit.ID)
			if !ok {
				// Stale vector entry, the node is gone.
				continue
			}
			if nodeType != "" && n.Type != nodeType {
				continue
			}
			matched[hit.ID] = struct{}{}
			results = append(results, SimilarNode{
				Node:        n.Clone(),
				Score:       hit.Score,
				MatchReason: fmt.Sprintf("Semantic similarity: %.0f%% match", hit.Score*100),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FindSimilarBatch runs FindSimilar independently for every name and maps
// each input name to its result list. Names with zero matches map to an
// empty list, so callers can distinguish "searched, found nothing" from
// "not searched".
func (s *Store) FindSimilarBatch(ctx context.Context, names []string, nodeType NodeType, threshold float64, limit int) (map[string][]SimilarNode, error) {
	results := make(map[string][]SimilarNode, len(names))
	for _, name := range names {
		matches, err := s.FindSimilar(ctx, name, nodeType, threshold, limit)
		if err != nil {
			return nil, err
		}
		results[name] = matches
	}
	return results, nil
}

// lexicalSimilarity is normalized edit-distance similarity in [0,1]:
// 1 - distance/max(len(a),len(b)) over lowercased runes, and 1.0 when both
// strings are empty.
func lexicalSimilarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}
