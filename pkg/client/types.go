package client

import (
	"encoding/json"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/graph"
)

// Request and response shapes mirroring the server's wire contract.
// Entity types come from pkg/graph; only the envelopes are client-local.

// NodeInput describes a node to create. Type is a tag like "actor" or
// "community"; the server validates it.
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

// EdgeInput describes an edge to create. Source and Target accept either
// a node id or a node name, including names from the same batch.
type EdgeInput struct {
	ID       string         `json:"id,omitempty"`
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchRequest filters nodes by substring, type tags and communities.
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

// DeleteResult reports exactly what was removed.
type DeleteResult struct {
	Success      bool     `json:"success"`
	DeletedNodes []string `json:"deleted_nodes"`
	DeletedEdges []string `json:"deleted_edges"`
}

// SimilarRequest is a duplicate-screening probe for one candidate name.
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

// SimilarBatchResult maps every input name to its matches.
type SimilarBatchResult struct {
	Results map[string][]graph.SimilarNode `json:"results"`
}

// ExtractResult is the text extracted from an uploaded document.
type ExtractResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Chars    int    `json:"chars"`
}

// ToolCall documents one tool invocation the assistant made.
type ToolCall struct {
	Tool   string          `json:"tool"`
	Args   json.RawMessage `json:"args,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ChatReply is the assistant's answer to one message.
type ChatReply struct {
	Success   bool       `json:"success"`
	Answer    string     `json:"answer"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}
