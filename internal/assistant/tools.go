package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/jakobengdahl/CommunityOverview-sub001/internal/mcp"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/llm"
)

// tool pairs an OpenAI-style function declaration with its executor.
// The arg structs (and therefore the schemas) are the same ones the MCP
// adapter registers, so both LLM surfaces speak an identical contract.
type tool struct {
	def llm.ToolDef
	run func(ctx context.Context, raw json.RawMessage) (any, error)
}

// newTool derives the parameter schema for T and wraps the executor with
// argument decoding.
func newTool[T any](name, description string, run func(ctx context.Context, args T) (any, error)) (tool, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return tool{}, fmt.Errorf("assistant: schema for %s: %w", name, err)
	}
	params, err := json.Marshal(schema)
	if err != nil {
		return tool{}, fmt.Errorf("assistant: marshal schema for %s: %w", name, err)
	}
	return tool{
		def: llm.ToolDef{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        name,
				Description: description,
				Parameters:  params,
			},
		},
		run: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args T
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &args); err != nil {
					return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
				}
			}
			return run(ctx, args)
		},
	}, nil
}

// buildTools registers the full operation surface against the shared MCP
// service, one executor per graph operation.
func buildTools(svc *mcp.Service) ([]tool, error) {
	var tools []tool
	add := func(t tool, err error) error {
		if err != nil {
			return err
		}
		tools = append(tools, t)
		return nil
	}

	if err := add(newTool("search_nodes",
		"Search graph nodes by text, optionally filtered by node types and communities.",
		func(ctx context.Context, args mcp.SearchArgs) (any, error) {
			_, res, err := svc.SearchNodes(ctx, nil, args)
			return res, err
		})); err != nil {
		return nil, err
	}

	if err := add(newTool("get_node",
		"Fetch one node by its id, with all fields and metadata.",
		func(ctx context.Context, args mcp.GetNodeArgs) (any, error) {
			_, res, err := svc.GetNode(ctx, nil, args)
			return res, err
		})); err != nil {
		return nil, err
	}

	if err := add(newTool("get_related_nodes",
		"Walk the neighborhood of a node up to N hops and return reachable nodes plus connecting edges.",
		func(ctx context.Context, args mcp.RelatedArgs) (any, error) {
			_, res, err := svc.GetRelatedNodes(ctx, nil, args)
			return res, err
		})); err != nil {
		return nil, err
	}

	if err := add(newTool("find_similar_nodes",
		"Screen a candidate name against existing nodes before creating it, to avoid duplicates.",
		func(ctx context.Context, args mcp.SimilarArgs) (any, error) {
			_, res, err := svc.FindSimilarNodes(ctx, nil, args)
			return res, err
		})); err != nil {
		return nil, err
	}

	if err := add(newTool("find_similar_nodes_batch",
		"Screen several candidate names for duplicates in one call.",
		func(ctx context.Context, args mcp.SimilarBatchArgs) (any, error) {
			_, res, err := svc.FindSimilarNodesBatch(ctx, nil, args)
			return res, err
		})); err != nil {
		return nil, err
	}

	if err := add(newTool("add_nodes",
		"Create nodes and relationships in one atomic batch. Edge endpoints may reference nodes by name, including nodes created in the same batch.",
		func(ctx context.Context, args mcp.AddArgs) (any, error) {
			_, res, err := svc.AddNodes(ctx, nil, args)
			return res, err
		})); err != nil {
		return nil, err
	}

	if err := add(newTool("update_node",
		"Change fields of an existing node: name, description, summary, communities, metadata.",
		func(ctx context.Context, args mcp.UpdateArgs) (any, error) {
			_, res, err := svc.UpdateNode(ctx, nil, args)
			return res, err
		})); err != nil {
		return nil, err
	}

	if err := add(newTool("delete_nodes",
		"Delete up to 10 nodes and their connected edges. Requires confirmed=true; only set it after the user explicitly confirmed.",
		func(ctx context.Context, args mcp.DeleteArgs) (any, error) {
			_, res, err := svc.DeleteNodes(ctx, nil, args)
			return res, err
		})); err != nil {
		return nil, err
	}

	if err := add(newTool("get_stats",
		"Summarize the graph: node and edge totals, per type and per community.",
		func(ctx context.Context, args mcp.StatsArgs) (any, error) {
			_, res, err := svc.GetStats(ctx, nil, args)
			return res, err
		})); err != nil {
		return nil, err
	}

	return tools, nil
}
