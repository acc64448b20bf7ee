package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/vector"
)

// MaxDeleteBatch is the largest number of node ids a single DeleteNodes call
// accepts. Larger cleanups go through an out-of-band maintenance path.
const MaxDeleteBatch = 10

// AddNodes commits a batch of nodes and edges as one all-or-nothing
// operation and persists the graph before returning.
//
// Nodes are validated and staged first: a missing id is generated, missing
// timestamps are filled, and an id colliding with an existing or staged node
// aborts the batch. Edge endpoints may be node ids or node names; names
// resolve against a map built over all nodes, old and staged, so a client
// can link nodes it created in the same call without knowing their generated
// ids. An endpoint resolving to nothing, or an edge id collision, aborts the
// batch with nothing committed.
//
// When a vector index is attached, embeddings for exactly the staged nodes
// are generated in one batch call before anything is committed, so an
// embedding failure also leaves the store untouched. The call blocks other
// store operations for its duration, including the embedding round-trip.
//
// Returns the added node ids and edge ids in input order.
func (s *Store) AddNodes(ctx context.Context, nodes []*Node, edges []*Edge) ([]string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stage nodes.
	staged := make([]*Node, 0, len(nodes))
	stagedIDs := make(map[string]struct{}, len(nodes))
	for _, input := range nodes {
		n := input.Clone()
		if err := n.Validate(); err != nil {
			return nil, nil, err
		}
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if _, exists := s.nodes.Get(n.ID); exists {
			return nil, nil, &ConflictError{Kind: "node", ID: n.ID}
		}
		if _, dup := stagedIDs[n.ID]; dup {
			return nil, nil, &ConflictError{Kind: "node", ID: n.ID}
		}
		ts := now()
		if n.CreatedAt.IsZero() {
			n.CreatedAt = ts
		}
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = ts
		}
		stagedIDs[n.ID] = struct{}{}
		staged = append(staged, n)
	}

	// Name -> id over all nodes, old and staged. Staged entries shadow
	// existing ones with the same name; within the batch, later wins.
	nameToID := make(map[string]string, s.nodes.Len()+len(staged))
	s.nodes.Scan(func(id string, n *Node) bool {
		nameToID[n.Name] = id
		return true
	})
	for _, n := range staged {
		nameToID[n.Name] = n.ID
	}

	// Stage edges.
	stagedEdges := make([]*Edge, 0, len(edges))
	stagedEdgeIDs := make(map[string]struct{}, len(edges))
	for _, input := range edges {
		e := input.Clone()
		if err := e.Validate(); err != nil {
			return nil, nil, err
		}

		src, err := s.resolveEndpointLocked("source", e.Source, stagedIDs, nameToID)
		if err != nil {
			return nil, nil, err
		}
		dst, err := s.resolveEndpointLocked("target", e.Target, stagedIDs, nameToID)
		if err != nil {
			return nil, nil, err
		}
		e.Source, e.Target = src, dst

		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if _, exists := s.edges.Get(e.ID); exists {
			return nil, nil, &ConflictError{Kind: "edge", ID: e.ID}
		}
		if _, dup := stagedEdgeIDs[e.ID]; dup {
			return nil, nil, &ConflictError{Kind: "edge", ID: e.ID}
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now()
		}
		stagedEdgeIDs[e.ID] = struct{}{}
		stagedEdges = append(stagedEdges, e)
	}

	// Embed the new nodes before committing anything.
	if s.vectors != nil && len(staged) > 0 {
		items := make([]vector.Item, len(staged))
		for i, n := range staged {
			items[i] = vector.Item{ID: n.ID, Text: n.EmbeddingText()}
		}
		if err := s.vectors.Upsert(ctx, items); err != nil {
			return nil, nil, fmt.Errorf("graph: embedding %d new nodes: %w", len(staged), err)
		}
	}

	// Commit.
	nodeIDs := make([]string, len(staged))
	for i, n := range staged {
		s.nodes.Set(n.ID, n)
		nodeIDs[i] = n.ID
	}
	edgeIDs := make([]string, len(stagedEdges))
	for i, e := range stagedEdges {
		s.attachEdgeLocked(e)
		edgeIDs[i] = e.ID
	}

	if err := s.saveLocked(); err != nil {
		// Committed in memory; disk catches up on the next successful save.
		return nil, nil, fmt.Errorf("graph: batch committed in memory but save failed: %w", err)
	}
	return nodeIDs, edgeIDs, nil
}

// resolveEndpointLocked maps an edge endpoint value to a node id: a known
// node id (existing or staged) is used as-is, otherwise the value is looked
// up as a node name.
func (s *Store) resolveEndpointLocked(endpoint, value string, stagedIDs map[string]struct{}, nameToID map[string]string) (string, error) {
	if _, ok := s.nodes.Get(value); ok {
		return value, nil
	}
	if _, ok := stagedIDs[value]; ok {
		return value, nil
	}
	if id, ok := nameToID[value]; ok {
		return id, nil
	}
	return "", &IntegrityError{Endpoint: endpoint, Value: value}
}

// UpdateNode applies an allow-listed set of field changes to a node and
// persists the graph. Changeable fields: name, description, summary,
// communities, metadata. Unknown or disallowed keys are silently ignored;
// a key with a value of the wrong type is a validation error. updated_at is
// always bumped. If any text field changed, the node's embedding is
// regenerated synchronously before the change is committed, so a failing
// embedder leaves the store untouched.
//
// Returns the updated node, or ErrNodeNotFound.
func (s *Store) UpdateNode(ctx context.Context, id string, updates map[string]any) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.nodes.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	updated := current.Clone()
	for key, value := range updates {
		switch key {
		case "name":
			str, err := stringValue(key, value)
			if err != nil {
				return nil, err
			}
			updated.Name = str
		case "description":
			str, err := stringValue(key, value)
			if err != nil {
				return nil, err
			}
			updated.Description = str
		case "summary":
			str, err := stringValue(key, value)
			if err != nil {
				return nil, err
			}
			updated.Summary = str
		case "communities":
			list, err := stringListValue(key, value)
			if err != nil {
				return nil, err
			}
			updated.Communities = list
		case "metadata":
			m, ok := value.(map[string]any)
			if !ok && value != nil {
				return nil, &ValidationError{Field: key, Message: "metadata must be an object"}
			}
			updated.Metadata = m
		}
	}
	updated.UpdatedAt = now()

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	textChanged := updated.Name != current.Name ||
		updated.Description != current.Description ||
		updated.Summary != current.Summary
	if textChanged && s.vectors != nil {
		item := vector.Item{ID: updated.ID, Text: updated.EmbeddingText()}
		if err := s.vectors.Upsert(ctx, []vector.Item{item}); err != nil {
			return nil, fmt.Errorf("graph: re-embedding node %s: %w", id, err)
		}
	}

	s.nodes.Set(id, updated)
	if err := s.saveLocked(); err != nil {
		return nil, fmt.Errorf("graph: update committed in memory but save failed: %w", err)
	}
	return updated.Clone(), nil
}

func stringValue(field string, value any) (string, error) {
	str, ok := value.(string)
	if !ok {
		return "", &ValidationError{Field: field, Message: field + " must be a string"}
	}
	return str, nil
}

func stringListValue(field string, value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		list := make([]string, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, &ValidationError{Field: field, Message: field + " must be a list of strings"}
			}
			list[i] = str
		}
		return list, nil
	case nil:
		return nil, nil
	default:
		return nil, &ValidationError{Field: field, Message: field + " must be a list of strings"}
	}
}

// DeleteNodes removes up to MaxDeleteBatch nodes, every edge touching them
// and their vector entries, then persists once. The confirmed flag is a
// deliberate two-step gate: callers, LLM-driven ones especially, must pass
// it explicitly. Ids not present in the store are silently skipped.
//
// Returns the ids of the nodes actually deleted (input order) and of the
// edges removed by the cascade (id order).
func (s *Store) DeleteNodes(nodeIDs []string, confirmed bool) ([]string, []string, error) {
	if len(nodeIDs) > MaxDeleteBatch {
		return nil, nil, &PolicyError{Message: fmt.Sprintf(
			"refusing to delete %d nodes: at most %d per call; use the bulk maintenance path for larger cleanups",
			len(nodeIDs), MaxDeleteBatch)}
	}
	if !confirmed {
		return nil, nil, &PolicyError{Message: "deletion not confirmed: set confirmed=true to delete nodes"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := make([]string, 0, len(nodeIDs))
	seen := make(map[string]struct{}, len(nodeIDs))
	cascade := make(map[string]*Edge)
	for _, id := range nodeIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := s.nodes.Get(id); !ok {
			continue
		}
		for _, edgeID := range append(append([]string{}, s.outgoing[id]...), s.incoming[id]...) {
			if e, ok := s.edges.Get(edgeID); ok {
				cascade[edgeID] = e
			}
		}
		deleted = append(deleted, id)
	}

	if len(deleted) == 0 {
		return []string{}, []string{}, nil
	}

	edgeIDs := make([]string, 0, len(cascade))
	for edgeID, e := range cascade {
		s.detachEdgeLocked(e)
		edgeIDs = append(edgeIDs, edgeID)
	}
	sort.Strings(edgeIDs)
	for _, id := range deleted {
		s.nodes.Delete(id)
	}

	if s.vectors != nil {
		if err := s.vectors.Remove(deleted); err != nil {
			return nil, nil, fmt.Errorf("graph: nodes deleted in memory but vector store update failed: %w", err)
		}
	}

	if err := s.saveLocked(); err != nil {
		return nil, nil, fmt.Errorf("graph: delete committed in memory but save failed: %w", err)
	}
	return deleted, edgeIDs, nil
}
