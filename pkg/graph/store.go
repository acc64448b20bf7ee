package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/btree"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/vector"
)

// Options configures a graph Store.
type Options struct {
	// Path is the JSON file backing the graph.
	// Created (with parent directories) on first open.
	Path string

	// Vectors is the semantic index kept consistent with the node set.
	// May be nil: similarity search then runs in lexical-only mode and
	// embeddings are neither generated nor required.
	Vectors *vector.Index
}

// DefaultOptions returns a configuration storing the graph under dataDir
// with semantic search disabled.
func DefaultOptions(dataDir string) Options {
	return Options{Path: filepath.Join(dataDir, "graph.json")}
}

// Store is the canonical, durable owner of all nodes and edges.
//
// Node and edge registries are ordered maps keyed by id, so every scan
// (search, stats, persistence) walks entities in a deterministic order.
// The adjacency lists index edge ids by endpoint for traversal. Operations
// perform read-modify-write sequences, so a single RWMutex serializes
// writers; every mutating operation persists the full graph before
// returning.
type Store struct {
	mu      sync.RWMutex
	path    string
	vectors *vector.Index

	nodes btree.Map[string, *Node]
	edges btree.Map[string, *Edge]

	outgoing map[string][]string // node id -> ids of edges leaving it
	incoming map[string][]string // node id -> ids of edges entering it
}

// Open loads the graph at opts.Path, creating an empty persisted graph if
// the file does not exist. A file that exists but cannot be parsed or
// validated is a fatal error, never masked as an empty graph.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("graph: Options.Path is required")
	}

	s := &Store{
		path:     opts.Path,
		vectors:  opts.Vectors,
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	slog.Info("Graph store opened", "path", s.path, "nodes", s.nodes.Len(), "edges", s.edges.Len())
	return s, nil
}

// Close releases the store. State is already durable after every mutation,
// so there is nothing to flush.
func (s *Store) Close() error {
	return nil
}

// NodeCount returns the number of nodes in the store.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes.Len()
}

// EdgeCount returns the number of edges in the store.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edges.Len()
}

// GetNode returns a copy of the node with the given id, or ErrNodeNotFound.
func (s *Store) GetNode(id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n.Clone(), nil
}

// SearchNodes returns nodes matching a case-insensitive substring query over
// name, description and summary. Type and community filters are applied
// before text matching; a node passes the community filter when it belongs
// to any of the given communities. An empty query matches every node that
// passes the filters, which is the supported way to list by filter.
// Scanning stops once limit matches are found (limit <= 0 means no limit).
func (s *Store) SearchNodes(query string, types []NodeType, communities []string, limit int) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var typeSet map[NodeType]struct{}
	if len(types) > 0 {
		typeSet = make(map[NodeType]struct{}, len(types))
		for _, t := range types {
			typeSet[t] = struct{}{}
		}
	}
	needle := strings.ToLower(query)

	results := []*Node{}
	s.nodes.Scan(func(_ string, n *Node) bool {
		if typeSet != nil {
			if _, ok := typeSet[n.Type]; !ok {
				return true
			}
		}
		if !n.InCommunity(communities) {
			return true
		}
		if needle != "" {
			haystack := strings.ToLower(n.Name + " " + n.Description + " " + n.Summary)
			if !strings.Contains(haystack, needle) {
				return true
			}
		}
		results = append(results, n.Clone())
		return limit <= 0 || len(results) < limit
	})
	return results
}

// EdgesBetween returns every edge whose source and target are both in the
// given id set.
func (s *Store) EdgesBetween(nodeIDs []string) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idSet := make(map[string]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		idSet[id] = struct{}{}
	}

	results := []*Edge{}
	s.edges.Scan(func(_ string, e *Edge) bool {
		if _, ok := idSet[e.Source]; !ok {
			return true
		}
		if _, ok := idSet[e.Target]; !ok {
			return true
		}
		results = append(results, e.Clone())
		return true
	})
	return results
}

// EdgesForNode returns every edge where the node is source or target,
// in edge id order. Unknown ids yield an empty list.
func (s *Store) EdgesForNode(nodeID string) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edgesForNodeLocked(nodeID)
}

func (s *Store) edgesForNodeLocked(nodeID string) []*Edge {
	seen := make(map[string]struct{})
	ids := []string{}
	for _, edgeID := range s.outgoing[nodeID] {
		if _, dup := seen[edgeID]; !dup {
			seen[edgeID] = struct{}{}
			ids = append(ids, edgeID)
		}
	}
	for _, edgeID := range s.incoming[nodeID] {
		if _, dup := seen[edgeID]; !dup {
			seen[edgeID] = struct{}{}
			ids = append(ids, edgeID)
		}
	}
	sort.Strings(ids)

	results := make([]*Edge, 0, len(ids))
	for _, edgeID := range ids {
		if e, ok := s.edges.Get(edgeID); ok {
			results = append(results, e.Clone())
		}
	}
	return results
}

// attachEdgeLocked inserts an edge into the registry and adjacency lists.
func (s *Store) attachEdgeLocked(e *Edge) {
	s.edges.Set(e.ID, e)
	s.outgoing[e.Source] = append(s.outgoing[e.Source], e.ID)
	s.incoming[e.Target] = append(s.incoming[e.Target], e.ID)
}

// detachEdgeLocked removes an edge from the registry and adjacency lists.
func (s *Store) detachEdgeLocked(e *Edge) {
	s.edges.Delete(e.ID)
	s.outgoing[e.Source] = removeID(s.outgoing[e.Source], e.ID)
	if len(s.outgoing[e.Source]) == 0 {
		delete(s.outgoing, e.Source)
	}
	s.incoming[e.Target] = removeID(s.incoming[e.Target], e.ID)
	if len(s.incoming[e.Target]) == 0 {
		delete(s.incoming, e.Target)
	}
}

func removeID(ids []string, id string) []string {
	kept := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			kept = append(kept, candidate)
		}
	}
	return kept
}
