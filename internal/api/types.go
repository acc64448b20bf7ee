package api

import (
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/graph"
)

// Request and result shapes shared by every protocol adapter (REST, MCP,
// assistant tool dispatch). Types are string tags here; parsing them into
// the entity enums happens inside the service, never in an adapter.

// NodeInput is the wire form of a node before type tags are parsed.
type NodeInput struct {
	ID          string         `json:"id,omitempty"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Communities []string       `json:"communities,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// EdgeInput is the wire form of an edge. Source and Target accept either a
// node id or a node name; names are resolved during the add.
type EdgeInput struct {
	ID       string         `json:"id,omitempty"`
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchRequest filters nodes by substring, type tags and communities.
// A zero Limit means the default of 10.
type SearchRequest struct {
	Query       string   `json:"query"`
	Types       []string `json:"types,omitempty"`
	Communities []string `json:"communities,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// SearchResult lists the matching nodes.
type SearchResult struct {
	Nodes []*graph.Node `json:"nodes"`
	Total int           `json:"total"`
}

// RelatedResult is the neighborhood reachable from a start node.
type RelatedResult struct {
	Nodes []*graph.Node `json:"nodes"`
	Edges []*graph.Edge `json:"edges"`
}

// EdgesBetweenRequest names the node set whose mutual edges are wanted.
type EdgesBetweenRequest struct {
	NodeIDs []string `json:"node_ids"`
}

// EdgesResult lists edges for the edge queries.
type EdgesResult struct {
	Edges []*graph.Edge `json:"edges"`
	Total int           `json:"total"`
}

// AddRequest is one atomic batch of nodes and edges.
type AddRequest struct {
	Nodes []NodeInput `json:"nodes"`
	Edges []EdgeInput `json:"edges,omitempty"`
}

// AddResult reports the ids assigned to a committed batch.
type AddResult struct {
	Success bool     `json:"success"`
	NodeIDs []string `json:"node_ids"`
	EdgeIDs []string `json:"edge_ids"`
}

// UpdateResult carries the node state after a partial update.
type UpdateResult struct {
	Success bool        `json:"success"`
	Node    *graph.Node `json:"node"`
}

// DeleteRequest names the nodes to remove. Confirmed must be set
// explicitly; an unconfirmed delete never mutates anything.
type DeleteRequest struct {
	NodeIDs   []string `json:"node_ids"`
	Confirmed bool     `json:"confirmed"`
}

// DeleteResult reports exactly what was removed, including edges
// deleted by cascade.
type DeleteResult struct {
	Success      bool     `json:"success"`
	DeletedNodes []string `json:"deleted_nodes"`
	DeletedEdges []string `json:"deleted_edges"`
}

// SimilarRequest is a duplicate-screening probe for one candidate name.
// Threshold 0 means the default of 0.8, Limit 0 the default of 10.
type SimilarRequest struct {
	Name      string  `json:"name"`
	Type      string  `json:"type,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

// SimilarResult lists scored matches for one probe.
type SimilarResult struct {
	Matches []graph.SimilarNode `json:"matches"`
	Total   int                 `json:"total"`
}

// SimilarBatchRequest screens several candidate names in one call.
type SimilarBatchRequest struct {
	Names     []string `json:"names"`
	Type      string   `json:"type,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// SimilarBatchResult maps every input name to its matches. A name with
// no matches maps to an empty list, never a missing key.
type SimilarBatchResult struct {
	Results map[string][]graph.SimilarNode `json:"results"`
}
