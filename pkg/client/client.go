// Package client provides a Go client for the Community Overview API.
//
// It offers a type-safe way to perform all graph operations: substring
// search, node retrieval and traversal, atomic add batches, partial
// updates, confirmation-gated deletes, duplicate screening, statistics,
// document text extraction, assistant chat and background reindexing.
//
// The client handles HTTP communication, JSON serialization, bearer
// authentication and standardized error handling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/graph"
)

// APIError represents an error returned by the API (status >= 400).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to one Community Overview server.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New creates a client for the server at baseURL, e.g.
// "http://localhost:8080". The token may be empty for open servers.
func New(baseURL, authToken string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// jsonRequest executes one API request. It handles JSON serialization,
// the auth header, HTTP transport and error mapping.
func (c *Client) jsonRequest(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

// do sends a prepared request and maps failure statuses onto APIError.
func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return respBody, nil
}

// decodeInto wraps unmarshalling with a uniform error message.
func decodeInto(operation string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid JSON response for %s: %w", operation, err)
	}
	return nil
}

// --- Graph Methods ---

// Search finds nodes by case-insensitive substring over name, description
// and summary.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	respBody, err := c.jsonRequest(ctx, http.MethodPost, "/api/nodes/search", req)
	if err != nil {
		return nil, err
	}
	var result SearchResult
	if err := decodeInto("Search", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetNode retrieves a single node by id.
func (c *Client) GetNode(ctx context.Context, id string) (*graph.Node, error) {
	respBody, err := c.jsonRequest(ctx, http.MethodGet, "/api/nodes/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var node graph.Node
	if err := decodeInto("GetNode", respBody, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// Related walks the neighborhood of a node up to depth hops, optionally
// restricted to the given relationship type tags.
func (c *Client) Related(ctx context.Context, id string, types []string, depth int) (*RelatedResult, error) {
	query := url.Values{}
	if len(types) > 0 {
		query.Set("types", strings.Join(types, ","))
	}
	if depth > 0 {
		query.Set("depth", strconv.Itoa(depth))
	}
	endpoint := "/api/nodes/" + url.PathEscape(id) + "/related"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	respBody, err := c.jsonRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var result RelatedResult
	if err := decodeInto("Related", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// NodeEdges lists every edge touching the given node.
func (c *Client) NodeEdges(ctx context.Context, id string) (*EdgesResult, error) {
	respBody, err := c.jsonRequest(ctx, http.MethodGet, "/api/nodes/"+url.PathEscape(id)+"/edges", nil)
	if err != nil {
		return nil, err
	}
	var result EdgesResult
	if err := decodeInto("NodeEdges", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EdgesBetween lists edges whose endpoints are both in the given id set.
func (c *Client) EdgesBetween(ctx context.Context, nodeIDs []string) (*EdgesResult, error) {
	payload := map[string]any{"node_ids": nodeIDs}
	respBody, err := c.jsonRequest(ctx, http.MethodPost, "/api/edges/between", payload)
	if err != nil {
		return nil, err
	}
	var result EdgesResult
	if err := decodeInto("EdgesBetween", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddNodes commits a batch of nodes and edges atomically. Edge endpoints
// may name nodes from the same batch instead of carrying ids.
func (c *Client) AddNodes(ctx context.Context, req AddRequest) (*AddResult, error) {
	respBody, err := c.jsonRequest(ctx, http.MethodPost, "/api/nodes", req)
	if err != nil {
		return nil, err
	}
	var result AddResult
	if err := decodeInto("AddNodes", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateNode applies a partial update to one node and returns its new state.
func (c *Client) UpdateNode(ctx context.Context, id string, updates map[string]any) (*UpdateResult, error) {
	respBody, err := c.jsonRequest(ctx, http.MethodPatch, "/api/nodes/"+url.PathEscape(id), updates)
	if err != nil {
		return nil, err
	}
	var result UpdateResult
	if err := decodeInto("UpdateNode", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteNodes removes up to 10 nodes and their edges. The server refuses
// the call unless confirmed is true.
func (c *Client) DeleteNodes(ctx context.Context, nodeIDs []string, confirmed bool) (*DeleteResult, error) {
	payload := map[string]any{"node_ids": nodeIDs, "confirmed": confirmed}
	respBody, err := c.jsonRequest(ctx, http.MethodPost, "/api/nodes/delete", payload)
	if err != nil {
		return nil, err
	}
	var result DeleteResult
	if err := decodeInto("DeleteNodes", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindSimilar screens one candidate name against existing nodes before
// creating it.
func (c *Client) FindSimilar(ctx context.Context, req SimilarRequest) (*SimilarResult, error) {
	respBody, err := c.jsonRequest(ctx, http.MethodPost, "/api/similar", req)
	if err != nil {
		return nil, err
	}
	var result SimilarResult
	if err := decodeInto("FindSimilar", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FindSimilarBatch screens several candidate names in one call.
func (c *Client) FindSimilarBatch(ctx context.Context, req SimilarBatchRequest) (*SimilarBatchResult, error) {
	respBody, err := c.jsonRequest(ctx, http.MethodPost, "/api/similar/batch", req)
	if err != nil {
		return nil, err
	}
	var result SimilarBatchResult
	if err := decodeInto("FindSimilarBatch", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats summarizes the graph, optionally scoped to communities.
func (c *Client) Stats(ctx context.Context, communities []string) (*graph.Stats, error) {
	endpoint := "/api/stats"
	if len(communities) > 0 {
		endpoint += "?communities=" + url.QueryEscape(strings.Join(communities, ","))
	}
	respBody, err := c.jsonRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var stats graph.Stats
	if err := decodeInto("Stats", respBody, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Document Methods ---

// ExtractDocument uploads a document and returns its extracted plain text.
// The filename extension selects the extractor (pdf, docx, or plain text).
func (c *Client) ExtractDocument(ctx context.Context, filename string, content io.Reader) (*ExtractResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read document content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents/extract", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var result ExtractResult
	if err := decodeInto("ExtractDocument", respBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Assistant Methods ---

// Chat sends one message to the graph assistant and returns its answer
// together with the tool calls it made.
func (c *Client) Chat(ctx context.Context, message string) (*ChatReply, error) {
	payload := map[string]string{"message": message}
	respBody, err := c.jsonRequest(ctx, http.MethodPost, "/api/assistant/chat", payload)
	if err != nil {
		return nil, err
	}
	var reply ChatReply
	if err := decodeInto("Chat", respBody, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// --- Administration Methods ---

// Task represents a long-running operation on the server.
type Task struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress string `json:"progress,omitempty"`
	Error    string `json:"error,omitempty"`

	client *Client // Reference to the client for polling.
}

// Reindex starts a background re-embedding of every node and returns the
// Task to poll.
func (c *Client) Reindex(ctx context.Context) (*Task, error) {
	respBody, err := c.jsonRequest(ctx, http.MethodPost, "/api/admin/reindex", nil)
	if err != nil {
		return nil, err
	}
	var kicked struct {
		TaskID string `json:"task_id"`
	}
	if err := decodeInto("Reindex", respBody, &kicked); err != nil {
		return nil, err
	}
	return &Task{ID: kicked.TaskID, Status: "started", client: c}, nil
}

// GetTask retrieves the current state of a long-running task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	respBody, err := c.jsonRequest(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, err
	}
	var task Task
	if err := decodeInto("GetTask", respBody, &task); err != nil {
		return nil, err
	}
	task.client = c
	return &task, nil
}

// Refresh updates the task's state by querying the server.
func (t *Task) Refresh(ctx context.Context) error {
	if t.client == nil {
		return fmt.Errorf("client is not associated with the task")
	}
	updated, err := t.client.GetTask(ctx, t.ID)
	if err != nil {
		return err
	}
	t.Status = updated.Status
	t.Progress = updated.Progress
	t.Error = updated.Error
	return nil
}

// Wait blocks until the task completes, polling at the given interval.
func (t *Task) Wait(ctx context.Context, interval, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("timeout exceeded while waiting for task %s", t.ID)
		case <-ticker.C:
			if err := t.Refresh(ctx); err != nil {
				return err
			}
			switch t.Status {
			case "completed":
				return nil
			case "failed":
				return fmt.Errorf("task %s failed: %s", t.ID, t.Error)
			case "running", "started":
				// Continue waiting.
			default:
				return fmt.Errorf("unknown task status: %s", t.Status)
			}
		}
	}
}

// Healthz checks server liveness.
func (c *Client) Healthz(ctx context.Context) error {
	_, err := c.jsonRequest(ctx, http.MethodGet, "/healthz", nil)
	return err
}
