// Package mcp exposes the graph operation surface as MCP tools, so agent
// runtimes (Claude Desktop, IDE integrations) can read and maintain the
// graph directly. Both transports share one server: stdio for local agent
// processes and streamable HTTP mounted under the REST server.
package mcp

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jakobengdahl/CommunityOverview-sub001/internal/api"
)

const serverVersion = "0.5.0"

func NewMCPServer(svc *api.Service) *mcp.Server {
	service := NewService(svc)

	// Create Server instance
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "CommunityOverview Graph",
		Version: serverVersion,
	}, nil)

	// Register Tools using the Generic AddTool which inspects structs!

	mcp.AddTool(s, &mcp.Tool{
		Name:        "search_nodes",
		Description: "Search graph nodes by text (case-insensitive substring over name, description and summary), optionally filtered by node types and communities.",
	}, service.SearchNodes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_node",
		Description: "Fetch one node by its id, with all fields and metadata.",
	}, service.GetNode)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_related_nodes",
		Description: "Walk the neighborhood of a node up to N hops and return the reachable nodes plus the connecting edges.",
	}, service.GetRelatedNodes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "find_similar_nodes",
		Description: "Screen a candidate name against existing nodes before creating it. Combines name similarity with semantic similarity and reports why each match scored.",
	}, service.FindSimilarNodes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "find_similar_nodes_batch",
		Description: "Screen several candidate names for duplicates in one call. Every input name gets a result list, empty when nothing matches.",
	}, service.FindSimilarNodesBatch)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "add_nodes",
		Description: "Create nodes and relationships in one atomic batch. Edge endpoints may reference nodes by name, including nodes created in the same batch. Any invalid entry aborts the whole batch.",
	}, service.AddNodes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "update_node",
		Description: "Change fields of an existing node (name, description, summary, communities, metadata). Type and id cannot be changed.",
	}, service.UpdateNode)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "delete_nodes",
		Description: "Delete up to 10 nodes and their connected edges. Requires confirmed=true; always confirm with the user first, this cannot be undone.",
	}, service.DeleteNodes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_stats",
		Description: "Summarize the graph: node and edge totals, nodes per type and per community, optionally scoped to given communities.",
	}, service.GetStats)

	return s
}

// HTTPHandler wraps the server in the streamable HTTP transport so it can
// be mounted under the REST server.
func HTTPHandler(s *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)
}

// RunStdio serves MCP over stdin/stdout until the client disconnects.
func RunStdio(ctx context.Context, s *mcp.Server) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}
