package mcp

// --- Tool Arguments ---
//
// Results reuse the internal/api envelopes so MCP callers see exactly the
// same shapes as the REST API.

type SearchArgs struct {
	Query       string   `json:"query,omitempty" jsonschema:"Substring to match against node names, descriptions and summaries (case-insensitive). Empty matches everything"`
	Types       []string `json:"types,omitempty" jsonschema:"Restrict to these node types (e.g. ['actor','initiative'])"`
	Communities []string `json:"communities,omitempty" jsonschema:"Restrict to nodes belonging to any of these communities"`
	Limit       int      `json:"limit,omitempty" jsonschema:"Max number of results (default 10)"`
}

type GetNodeArgs struct {
	NodeID string `json:"node_id" jsonschema:"The id of the node to fetch,required"`
}

type RelatedArgs struct {
	NodeID string   `json:"node_id" jsonschema:"The id of the start node,required"`
	Types  []string `json:"types,omitempty" jsonschema:"Only follow these relationship types (e.g. ['BELONGS_TO'])"`
	Depth  int      `json:"depth,omitempty" jsonschema:"How many hops to walk (default 1)"`
}

type SimilarArgs struct {
	Name      string  `json:"name" jsonschema:"Candidate node name to screen for duplicates,required"`
	Type      string  `json:"type,omitempty" jsonschema:"Restrict matches to one node type"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"Name-similarity threshold 0.0-1.0 (default 0.8)"`
	Limit     int     `json:"limit,omitempty" jsonschema:"Max number of matches (default 10)"`
}

type SimilarBatchArgs struct {
	Names     []string `json:"names" jsonschema:"Candidate node names to screen in one call,required"`
	Type      string   `json:"type,omitempty" jsonschema:"Restrict matches to one node type"`
	Threshold float64  `json:"threshold,omitempty" jsonschema:"Name-similarity threshold 0.0-1.0 (default 0.8)"`
	Limit     int      `json:"limit,omitempty" jsonschema:"Max matches per name (default 10)"`
}

// NodeSpec describes one node to create.
type NodeSpec struct {
	ID          string         `json:"id,omitempty" jsonschema:"Optional explicit id; generated when omitted"`
	Type        string         `json:"type" jsonschema:"Node type: actor, community, initiative, capability, resource, legislation, theme or visualization_view,required"`
	Name        string         `json:"name" jsonschema:"Display name (max 200 chars),required"`
	Description string         `json:"description,omitempty" jsonschema:"Longer free-text description (max 2000 chars)"`
	Summary     string         `json:"summary,omitempty" jsonschema:"One-line summary (max 100 chars)"`
	Communities []string       `json:"communities,omitempty" jsonschema:"Communities this node belongs to"`
	Tags        []string       `json:"tags,omitempty" jsonschema:"Free-form tags"`
	Metadata    map[string]any `json:"metadata,omitempty" jsonschema:"Arbitrary extra fields"`
}

// EdgeSpec describes one relationship to create. Source and target accept
// a node id or a node name, including names of nodes in the same batch.
type EdgeSpec struct {
	ID       string         `json:"id,omitempty" jsonschema:"Optional explicit id; generated when omitted"`
	Source   string         `json:"source" jsonschema:"Source node id or name,required"`
	Target   string         `json:"target" jsonschema:"Target node id or name,required"`
	Type     string         `json:"type" jsonschema:"Relationship type: BELONGS_TO, IMPLEMENTS, PRODUCES, GOVERNED_BY, RELATES_TO or PART_OF,required"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"Arbitrary extra fields"`
}

type AddArgs struct {
	Nodes []NodeSpec `json:"nodes" jsonschema:"Nodes to create,required"`
	Edges []EdgeSpec `json:"edges,omitempty" jsonschema:"Relationships to create in the same atomic batch"`
}

type UpdateArgs struct {
	NodeID  string         `json:"node_id" jsonschema:"The id of the node to update,required"`
	Updates map[string]any `json:"updates" jsonschema:"Fields to change: name, description, summary, communities, metadata. Other keys are ignored,required"`
}

type DeleteArgs struct {
	NodeIDs   []string `json:"node_ids" jsonschema:"Ids of the nodes to delete (at most 10 per call),required"`
	Confirmed bool     `json:"confirmed,omitempty" jsonschema:"Must be explicitly true. Deletion cascades to connected edges and is irreversible; ask the user before setting it."`
}

type StatsArgs struct {
	Communities []string `json:"communities,omitempty" jsonschema:"Scope the counts to these communities"`
}
