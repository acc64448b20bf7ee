// Package assistant turns free-form chat into graph operations. An LLM
// with function calling drives the same operation surface the MCP adapter
// exposes: the model decides which tools to call, the orchestrator executes
// them and feeds the results back, until the model produces a plain answer.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jakobengdahl/CommunityOverview-sub001/internal/api"
	"github.com/jakobengdahl/CommunityOverview-sub001/internal/mcp"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/graph"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/llm"
)

// maxToolRounds bounds the dispatch loop so a confused model cannot spin
// forever against the graph.
const maxToolRounds = 8

// Orchestrator runs the chat loop between one LLM and the graph tools.
type Orchestrator struct {
	llm    llm.Client
	tools  []tool
	byName map[string]tool
	defs   []llm.ToolDef
}

// New wires the orchestrator against the shared service façade.
func New(client llm.Client, svc *api.Service) (*Orchestrator, error) {
	tools, err := buildTools(mcp.NewService(svc))
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		llm:    client,
		tools:  tools,
		byName: make(map[string]tool, len(tools)),
		defs:   make([]llm.ToolDef, 0, len(tools)),
	}
	for _, t := range tools {
		o.byName[t.def.Function.Name] = t
		o.defs = append(o.defs, t.def)
	}
	return o, nil
}

// ToolDefs lists the function declarations offered to the model.
func (o *Orchestrator) ToolDefs() []llm.ToolDef {
	return o.defs
}

// CallRecord documents one tool invocation made on the user's behalf.
type CallRecord struct {
	Tool   string          `json:"tool"`
	Args   json.RawMessage `json:"args,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Answer string       `json:"answer"`
	Calls  []CallRecord `json:"tool_calls,omitempty"`
}

// Chat answers one user message, running as many tool rounds as the model
// requests up to the cap. Tool failures are fed back to the model as the
// uniform error shape instead of aborting, so it can correct itself.
func (o *Orchestrator) Chat(ctx context.Context, message string) (Reply, error) {
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt()},
		{Role: "user", Content: message},
	}

	var records []CallRecord
	for round := 0; round < maxToolRounds; round++ {
		reply, err := o.llm.ChatWithTools(ctx, messages, o.defs)
		if err != nil {
			return Reply{}, fmt.Errorf("assistant: llm call failed: %w", err)
		}

		if len(reply.ToolCalls) == 0 {
			return Reply{Answer: reply.Content, Calls: records}, nil
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			record, payload := o.execute(ctx, call)
			records = append(records, record)
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    payload,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}

	return Reply{}, fmt.Errorf("assistant: no final answer after %d tool rounds", maxToolRounds)
}

// execute runs one tool call and returns both the audit record and the
// JSON payload handed back to the model.
func (o *Orchestrator) execute(ctx context.Context, call llm.ToolCall) (CallRecord, string) {
	name := call.Function.Name
	record := CallRecord{Tool: name}

	raw := json.RawMessage(call.Function.Arguments)
	if json.Valid(raw) {
		record.Args = raw
	}

	t, ok := o.byName[name]
	if !ok {
		err := fmt.Errorf("unknown tool %q", name)
		slog.Warn("assistant requested unknown tool", "tool", name)
		record.Error = err.Error()
		return record, errorPayload(err)
	}

	slog.Info("assistant tool call", "tool", name)
	result, err := t.run(ctx, raw)
	if err != nil {
		slog.Warn("assistant tool call failed", "tool", name, "error", err)
		record.Error = err.Error()
		return record, errorPayload(err)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		record.Error = err.Error()
		return record, errorPayload(err)
	}
	record.Result = payload
	return record, string(payload)
}

func errorPayload(err error) string {
	body, _ := json.Marshal(api.ErrorBody(err))
	return string(body)
}

// systemPrompt describes the graph domain and the working rules. It lists
// the valid tags straight from the entity model so prompt and code cannot
// drift apart.
func systemPrompt() string {
	return fmt.Sprintf(`You are the assistant for a knowledge graph describing collaboration communities in the Swedish public sector: which actors participate, what initiatives they run, which capabilities and resources those produce, and what legislation governs them.

Node types: %s.
Relationship types: %s.

Working rules:
- Ground every answer in tool results. Search before you claim something is missing.
- Before creating nodes, screen the names with find_similar_nodes to avoid duplicates; prefer linking to an existing node over creating a near-duplicate.
- Create related nodes and their edges in a single add_nodes batch; edges may reference batch nodes by name.
- Never set confirmed=true on delete_nodes unless the user has explicitly confirmed the deletion in this conversation.
- Answer concisely and mention the ids of nodes you created or changed.`,
		strings.Join(graph.NodeTypes(), ", "), strings.Join(graph.RelationTypes(), ", "))
}
