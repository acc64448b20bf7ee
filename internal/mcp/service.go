package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jakobengdahl/CommunityOverview-sub001/internal/api"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/graph"
)

// Service adapts the shared operation surface to MCP tool handlers. Every
// handler is a thin translation: typed args in, api façade call, api result
// envelope out. No graph logic lives here.
type Service struct {
	api *api.Service
}

func NewService(svc *api.Service) *Service {
	return &Service{api: svc}
}

// --- Tool Handlers ---

func (s *Service) SearchNodes(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, api.SearchResult, error) {
	res, err := s.api.Search(api.SearchRequest{
		Query:       args.Query,
		Types:       args.Types,
		Communities: args.Communities,
		Limit:       args.Limit,
	})
	if err != nil {
		return nil, api.SearchResult{}, err
	}
	return nil, res, nil
}

func (s *Service) GetNode(ctx context.Context, req *mcp.CallToolRequest, args GetNodeArgs) (*mcp.CallToolResult, *graph.Node, error) {
	node, err := s.api.Get(args.NodeID)
	if err != nil {
		return nil, nil, err
	}
	return nil, node, nil
}

func (s *Service) GetRelatedNodes(ctx context.Context, req *mcp.CallToolRequest, args RelatedArgs) (*mcp.CallToolResult, api.RelatedResult, error) {
	res, err := s.api.Related(args.NodeID, args.Types, args.Depth)
	if err != nil {
		return nil, api.RelatedResult{}, err
	}
	return nil, res, nil
}

func (s *Service) FindSimilarNodes(ctx context.Context, req *mcp.CallToolRequest, args SimilarArgs) (*mcp.CallToolResult, api.SimilarResult, error) {
	res, err := s.api.Similar(ctx, api.SimilarRequest{
		Name:      args.Name,
		Type:      args.Type,
		Threshold: args.Threshold,
		Limit:     args.Limit,
	})
	if err != nil {
		return nil, api.SimilarResult{}, err
	}
	return nil, res, nil
}

func (s *Service) FindSimilarNodesBatch(ctx context.Context, req *mcp.CallToolRequest, args SimilarBatchArgs) (*mcp.CallToolResult, api.SimilarBatchResult, error) {
	res, err := s.api.SimilarBatch(ctx, api.SimilarBatchRequest{
		Names:     args.Names,
		Type:      args.Type,
		Threshold: args.Threshold,
		Limit:     args.Limit,
	})
	if err != nil {
		return nil, api.SimilarBatchResult{}, err
	}
	return nil, res, nil
}

func (s *Service) AddNodes(ctx context.Context, req *mcp.CallToolRequest, args AddArgs) (*mcp.CallToolResult, api.AddResult, error) {
	add := api.AddRequest{
		Nodes: make([]api.NodeInput, 0, len(args.Nodes)),
		Edges: make([]api.EdgeInput, 0, len(args.Edges)),
	}
	for _, n := range args.Nodes {
		add.Nodes = append(add.Nodes, api.NodeInput{
			ID:          n.ID,
			Type:        n.Type,
			Name:        n.Name,
			Description: n.Description,
			Summary:     n.Summary,
			Communities: n.Communities,
			Tags:        n.Tags,
			Metadata:    n.Metadata,
		})
	}
	for _, e := range args.Edges {
		add.Edges = append(add.Edges, api.EdgeInput{
			ID:       e.ID,
			Source:   e.Source,
			Target:   e.Target,
			Type:     e.Type,
			Metadata: e.Metadata,
		})
	}

	res, err := s.api.Add(ctx, add)
	if err != nil {
		return nil, api.AddResult{}, err
	}
	return nil, res, nil
}

func (s *Service) UpdateNode(ctx context.Context, req *mcp.CallToolRequest, args UpdateArgs) (*mcp.CallToolResult, api.UpdateResult, error) {
	res, err := s.api.Update(ctx, args.NodeID, args.Updates)
	if err != nil {
		return nil, api.UpdateResult{}, err
	}
	return nil, res, nil
}

func (s *Service) DeleteNodes(ctx context.Context, req *mcp.CallToolRequest, args DeleteArgs) (*mcp.CallToolResult, api.DeleteResult, error) {
	res, err := s.api.Delete(api.DeleteRequest{
		NodeIDs:   args.NodeIDs,
		Confirmed: args.Confirmed,
	})
	if err != nil {
		return nil, api.DeleteResult{}, err
	}
	return nil, res, nil
}

func (s *Service) GetStats(ctx context.Context, req *mcp.CallToolRequest, args StatsArgs) (*mcp.CallToolResult, graph.Stats, error) {
	return nil, s.api.Stats(args.Communities), nil
}
