// Package api is the single façade every protocol adapter goes through.
// It parses wire-level string tags into the graph's typed enums, applies
// the shared operation defaults, and keeps the Prometheus graph gauges in
// step with mutations. Adapters never touch the store directly.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/graph"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/metrics"
)

// Operation defaults, applied when a request leaves the field zero.
const (
	DefaultSearchLimit      = 10
	DefaultSimilarLimit     = 10
	DefaultSimilarThreshold = 0.8
	DefaultDepth            = 1
)

// Service wraps the graph store behind the protocol-agnostic operation
// surface. All adapters share one instance.
type Service struct {
	store *graph.Store
}

// NewService builds the façade and primes the graph gauges from the
// current store contents.
func NewService(store *graph.Store) *Service {
	s := &Service{store: store}
	s.refreshGauges()
	return s
}

// Search finds nodes by case-insensitive substring over name, description
// and summary, optionally filtered by type tags and communities.
func (s *Service) Search(req SearchRequest) (SearchResult, error) {
	types, err := parseNodeTypes(req.Types)
	if err != nil {
		return SearchResult{}, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	nodes := s.store.SearchNodes(req.Query, types, req.Communities, limit)
	return SearchResult{Nodes: nodes, Total: len(nodes)}, nil
}

// Get returns one node by id.
func (s *Service) Get(id string) (*graph.Node, error) {
	return s.store.GetNode(id)
}

// Related walks the neighborhood of a node up to depth hops, optionally
// restricted to the given relation type tags.
func (s *Service) Related(id string, typeTags []string, depth int) (RelatedResult, error) {
	types, err := parseRelationTypes(typeTags)
	if err != nil {
		return RelatedResult{}, err
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	nodes, edges := s.store.RelatedNodes(id, types, depth)
	return RelatedResult{Nodes: nodes, Edges: edges}, nil
}

// EdgesBetween lists edges whose endpoints are both in the given id set.
func (s *Service) EdgesBetween(nodeIDs []string) EdgesResult {
	edges := s.store.EdgesBetween(nodeIDs)
	return EdgesResult{Edges: edges, Total: len(edges)}
}

// EdgesFor lists every edge touching the given node.
func (s *Service) EdgesFor(nodeID string) EdgesResult {
	edges := s.store.EdgesForNode(nodeID)
	return EdgesResult{Edges: edges, Total: len(edges)}
}

// Add commits a batch of nodes and edges atomically. Edge endpoints may
// name nodes instead of carrying ids, including nodes from the same batch.
func (s *Service) Add(ctx context.Context, req AddRequest) (AddResult, error) {
	nodes := make([]*graph.Node, 0, len(req.Nodes))
	for _, in := range req.Nodes {
		n, err := toNode(in)
		if err != nil {
			return AddResult{}, err
		}
		nodes = append(nodes, n)
	}
	edges := make([]*graph.Edge, 0, len(req.Edges))
	for _, in := range req.Edges {
		e, err := toEdge(in)
		if err != nil {
			return AddResult{}, err
		}
		edges = append(edges, e)
	}

	nodeIDs, edgeIDs, err := s.store.AddNodes(ctx, nodes, edges)
	if err != nil {
		return AddResult{}, err
	}
	s.refreshGauges()
	return AddResult{Success: true, NodeIDs: nodeIDs, EdgeIDs: edgeIDs}, nil
}

// Update applies a partial update to one node and returns its new state.
func (s *Service) Update(ctx context.Context, id string, updates map[string]any) (UpdateResult, error) {
	node, err := s.store.UpdateNode(ctx, id, updates)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Success: true, Node: node}, nil
}

// Delete removes the named nodes and their edges, subject to the
// confirmation flag and the per-call cap.
func (s *Service) Delete(req DeleteRequest) (DeleteResult, error) {
	deletedNodes, deletedEdges, err := s.store.DeleteNodes(req.NodeIDs, req.Confirmed)
	if err != nil {
		return DeleteResult{}, err
	}
	s.refreshGauges()
	return DeleteResult{
		Success:      true,
		DeletedNodes: deletedNodes,
		DeletedEdges: deletedEdges,
	}, nil
}

// Similar screens one candidate name against existing nodes.
func (s *Service) Similar(ctx context.Context, req SimilarRequest) (SimilarResult, error) {
	nodeType, err := parseOptionalNodeType(req.Type)
	if err != nil {
		return SimilarResult{}, err
	}
	threshold, limit := similarDefaults(req.Threshold, req.Limit)
	matches, err := s.store.FindSimilar(ctx, req.Name, nodeType, threshold, limit)
	if err != nil {
		return SimilarResult{}, err
	}
	return SimilarResult{Matches: matches, Total: len(matches)}, nil
}

// SimilarBatch screens several candidate names in one call.
func (s *Service) SimilarBatch(ctx context.Context, req SimilarBatchRequest) (SimilarBatchResult, error) {
	nodeType, err := parseOptionalNodeType(req.Type)
	if err != nil {
		return SimilarBatchResult{}, err
	}
	threshold, limit := similarDefaults(req.Threshold, req.Limit)
	results, err := s.store.FindSimilarBatch(ctx, req.Names, nodeType, threshold, limit)
	if err != nil {
		return SimilarBatchResult{}, err
	}
	return SimilarBatchResult{Results: results}, nil
}

// Stats summarizes the graph, optionally scoped to communities.
func (s *Service) Stats(communities []string) graph.Stats {
	return s.store.GetStats(communities)
}

// Reindex regenerates every node embedding. It blocks until done, so
// callers usually run it from a background task.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	return s.store.Reindex(ctx)
}

// refreshGauges re-derives the graph gauges from the store.
func (s *Service) refreshGauges() {
	st := s.store.GetStats(nil)
	metrics.GraphNodes.Reset()
	for tag, count := range st.NodesByType {
		metrics.GraphNodes.WithLabelValues(tag).Set(float64(count))
	}
	metrics.GraphEdges.Set(float64(st.TotalEdges))
}

func similarDefaults(threshold float64, limit int) (float64, int) {
	if threshold <= 0 {
		threshold = DefaultSimilarThreshold
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	return threshold, limit
}

func parseNodeTypes(tags []string) ([]graph.NodeType, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	out := make([]graph.NodeType, 0, len(tags))
	for _, tag := range tags {
		nt, err := graph.ParseNodeType(tag)
		if err != nil {
			return nil, err
		}
		out = append(out, nt)
	}
	return out, nil
}

func parseRelationTypes(tags []string) ([]graph.RelationType, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	out := make([]graph.RelationType, 0, len(tags))
	for _, tag := range tags {
		rt, err := graph.ParseRelationType(tag)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

func parseOptionalNodeType(tag string) (graph.NodeType, error) {
	if tag == "" {
		return "", nil
	}
	return graph.ParseNodeType(tag)
}

func toNode(in NodeInput) (*graph.Node, error) {
	nt, err := graph.ParseNodeType(in.Type)
	if err != nil {
		return nil, err
	}
	return &graph.Node{
		ID:          in.ID,
		Type:        nt,
		Name:        in.Name,
		Description: in.Description,
		Summary:     in.Summary,
		Communities: in.Communities,
		Tags:        in.Tags,
		Metadata:    in.Metadata,
	}, nil
}

func toEdge(in EdgeInput) (*graph.Edge, error) {
	rt, err := graph.ParseRelationType(in.Type)
	if err != nil {
		return nil, err
	}
	return &graph.Edge{
		ID:       in.ID,
		Source:   in.Source,
		Target:   in.Target,
		Type:     rt,
		Metadata: in.Metadata,
	}, nil
}

// ErrorStatus maps a service error onto the HTTP status code the REST
// adapter should answer with. Unrecognized errors are internal faults.
func ErrorStatus(err error) int {
	var (
		validation *graph.ValidationError
		conflict   *graph.ConflictError
		integrity  *graph.IntegrityError
		policy     *graph.PolicyError
	)
	switch {
	case errors.Is(err, graph.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, graph.ErrNoVectorIndex):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &integrity):
		return http.StatusBadRequest
	case errors.As(err, &policy):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the uniform failure shape shared by every adapter.
func ErrorBody(err error) map[string]any {
	return map[string]any{
		"success": false,
		"error":   err.Error(),
	}
}
