// Package graph implements the typed property graph at the heart of the
// service: the canonical node and edge registries, their JSON durability
// model, text search, multi-hop traversal, hybrid similarity search and the
// guarded mutation operations consumed by every protocol adapter.
//
// All state lives in a Store opened from a backing file:
//
//	st, err := graph.Open(graph.Options{Path: "./data/graph.json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
// The Store owns its entities. Adapters interact through the operation
// methods and never mutate returned values in place.
package graph

import (
	"fmt"
	"strings"
	"time"
)

// NodeType enumerates the kinds of entities the graph tracks.
type NodeType string

const (
	NodeActor             NodeType = "actor"
	NodeCommunity         NodeType = "community"
	NodeInitiative        NodeType = "initiative"
	NodeCapability        NodeType = "capability"
	NodeResource          NodeType = "resource"
	NodeLegislation       NodeType = "legislation"
	NodeTheme             NodeType = "theme"
	NodeVisualizationView NodeType = "visualization_view"
)

// nodeTypes is the members of the enumeration in canonical order.
var nodeTypes = []NodeType{
	NodeActor, NodeCommunity, NodeInitiative, NodeCapability,
	NodeResource, NodeLegislation, NodeTheme, NodeVisualizationView,
}

// NodeTypes returns the valid node type tags in canonical order.
func NodeTypes() []string {
	tags := make([]string, len(nodeTypes))
	for i, t := range nodeTypes {
		tags[i] = string(t)
	}
	return tags
}

// ParseNodeType maps a string tag to its NodeType, case-insensitively.
func ParseNodeType(tag string) (NodeType, error) {
	t := NodeType(strings.ToLower(strings.TrimSpace(tag)))
	for _, known := range nodeTypes {
		if t == known {
			return known, nil
		}
	}
	return "", &ValidationError{
		Field:   "type",
		Message: fmt.Sprintf("unknown node type %q (valid: %s)", tag, strings.Join(NodeTypes(), ", ")),
	}
}

// RelationType enumerates the kinds of directed relationships between nodes.
type RelationType string

const (
	RelBelongsTo  RelationType = "BELONGS_TO"
	RelImplements RelationType = "IMPLEMENTS"
	RelProduces   RelationType = "PRODUCES"
	RelGovernedBy RelationType = "GOVERNED_BY"
	RelRelatesTo  RelationType = "RELATES_TO"
	RelPartOf     RelationType = "PART_OF"
)

var relationTypes = []RelationType{
	RelBelongsTo, RelImplements, RelProduces, RelGovernedBy, RelRelatesTo, RelPartOf,
}

// RelationTypes returns the valid relationship type tags in canonical order.
func RelationTypes() []string {
	tags := make([]string, len(relationTypes))
	for i, t := range relationTypes {
		tags[i] = string(t)
	}
	return tags
}

// ParseRelationType maps a string tag to its RelationType, case-insensitively.
func ParseRelationType(tag string) (RelationType, error) {
	t := RelationType(strings.ToUpper(strings.TrimSpace(tag)))
	for _, known := range relationTypes {
		if t == known {
			return known, nil
		}
	}
	return "", &ValidationError{
		Field:   "type",
		Message: fmt.Sprintf("unknown relationship type %q (valid: %s)", tag, strings.Join(RelationTypes(), ", ")),
	}
}

// Field length bounds enforced at the entity boundary.
const (
	NameMaxLen        = 200
	DescriptionMaxLen = 2000
	SummaryMaxLen     = 100
)

// Node is a typed entity in the graph.
type Node struct {
	ID          string         `json:"id"`
	Type        NodeType       `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Communities []string       `json:"communities,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Validate checks the node against the entity rules. The id and timestamps
// are filled at commit time and are not validated here.
func (n *Node) Validate() error {
	if _, err := ParseNodeType(string(n.Type)); err != nil {
		return err
	}
	if n.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(n.Name) > NameMaxLen {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("name exceeds %d characters", NameMaxLen)}
	}
	if len(n.Description) > DescriptionMaxLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("description exceeds %d characters", DescriptionMaxLen)}
	}
	if len(n.Summary) > SummaryMaxLen {
		return &ValidationError{Field: "summary", Message: fmt.Sprintf("summary exceeds %d characters", SummaryMaxLen)}
	}
	return nil
}

// EmbeddingText is the text representation fed to the embedding capability:
// name, description and summary joined into one passage. Embeddings are
// regenerated whenever any of the three fields change.
func (n *Node) EmbeddingText() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{n.Name, n.Description, n.Summary} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ". ")
}

// InCommunity reports whether the node belongs to any of the given
// communities. An empty filter matches every node.
func (n *Node) InCommunity(communities []string) bool {
	if len(communities) == 0 {
		return true
	}
	for _, want := range communities {
		for _, have := range n.Communities {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Clone returns a copy safe to hand to callers. Slices and the top-level
// metadata map are copied; nested metadata values are shared.
func (n *Node) Clone() *Node {
	c := *n
	c.Communities = append([]string(nil), n.Communities...)
	c.Tags = append([]string(nil), n.Tags...)
	if n.Metadata != nil {
		c.Metadata = make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Edge is a directed, typed relationship between two nodes. Multiple edges
// between the same ordered pair are allowed. Edges are immutable once
// committed, except through delete.
type Edge struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Target    string         `json:"target"`
	Type      RelationType   `json:"type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks the edge against the entity rules. Endpoint resolution
// against the store happens at commit time, not here.
func (e *Edge) Validate() error {
	if _, err := ParseRelationType(string(e.Type)); err != nil {
		return err
	}
	if e.Source == "" {
		return &ValidationError{Field: "source", Message: "source is required"}
	}
	if e.Target == "" {
		return &ValidationError{Field: "target", Message: "target is required"}
	}
	return nil
}

// Clone returns a copy safe to hand to callers.
func (e *Edge) Clone() *Edge {
	c := *e
	if e.Metadata != nil {
		c.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// SimilarNode pairs an existing node with the score and method that matched
// it during similarity search. Derived, never stored.
type SimilarNode struct {
	Node        *Node   `json:"node"`
	Score       float64 `json:"similarity_score"`
	MatchReason string  `json:"match_reason"`
}

// now returns the wall clock in UTC truncated to whole seconds, so
// timestamps survive a JSON round-trip bit-identically.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
