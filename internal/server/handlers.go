package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jakobengdahl/CommunityOverview-sub001/internal/api"
	"github.com/jakobengdahl/CommunityOverview-sub001/internal/assistant"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/extract"
)

// maxUploadBytes caps document uploads on /api/documents/extract.
const maxUploadBytes = 32 << 20

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Knowledge graph endpoints ---

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req api.SearchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.api.Search(req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, result)
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	node, err := s.api.Get(r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, node)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	depth := 0
	if raw := query.Get("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeHTTPError(w, http.StatusBadRequest, "depth must be an integer")
			return
		}
		depth = parsed
	}

	result, err := s.api.Related(r.PathValue("id"), splitCSV(query.Get("types")), depth)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, result)
}

func (s *Server) handleNodeEdges(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPResponse(w, http.StatusOK, s.api.EdgesFor(r.PathValue("id")))
}

func (s *Server) handleEdgesBetween(w http.ResponseWriter, r *http.Request) {
	var req api.EdgesBetweenRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, s.api.EdgesBetween(req.NodeIDs))
}

func (s *Server) handleAddNodes(w http.ResponseWriter, r *http.Request) {
	var req api.AddRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.api.Add(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, result)
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if !s.decodeBody(w, r, &updates) {
		return
	}

	result, err := s.api.Update(r.Context(), r.PathValue("id"), updates)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, result)
}

func (s *Server) handleDeleteNodes(w http.ResponseWriter, r *http.Request) {
	var req api.DeleteRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.api.Delete(req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, result)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req api.SimilarRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.api.Similar(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, result)
}

func (s *Server) handleSimilarBatch(w http.ResponseWriter, r *http.Request) {
	var req api.SimilarBatchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.api.SimilarBatch(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	communities := splitCSV(r.URL.Query().Get("communities"))
	s.writeHTTPResponse(w, http.StatusOK, s.api.Stats(communities))
}

// --- Document extraction ---

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "Invalid multipart upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "Could not read upload: "+err.Error())
		return
	}

	text, err := extract.Text(header.Filename, data)
	if err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": header.Filename,
		"text":     text,
		"chars":    len(text),
	})
}

// --- Assistant endpoints ---

func (s *Server) handleAssistantChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		s.writeHTTPError(w, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "Field 'message' is required")
		return
	}

	reply, err := s.assistant.Chat(r.Context(), req.Message)
	if err != nil {
		s.writeHTTPError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, struct {
		Success bool `json:"success"`
		assistant.Reply
	}{true, reply})
}

func (s *Server) handleAssistantTools(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		s.writeHTTPError(w, http.StatusServiceUnavailable, "Assistant is not configured")
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"tools":   s.assistant.ToolDefs(),
	})
}

// --- Maintenance endpoints ---

// handleReindex kicks off a background re-embedding of all nodes and
// answers immediately with the task id to poll.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	task := s.tasks.NewTask()

	go func() {
		task.SetStatus(TaskStatusRunning)
		task.SetProgress("re-embedding all nodes")

		// Runs on a background context so it outlives the request
		// that triggered it.
		count, err := s.api.Reindex(context.Background())
		if err != nil {
			slog.Error("Reindex failed", "task", task.ID, "error", err)
			task.SetError(err)
			return
		}
		task.SetProgress(fmt.Sprintf("re-embedded %d nodes", count))
		task.SetStatus(TaskStatusCompleted)
	}()

	s.writeHTTPResponse(w, http.StatusAccepted, map[string]any{
		"success": true,
		"task_id": task.ID,
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, found := s.tasks.GetTask(r.PathValue("id"))
	if !found {
		s.writeHTTPError(w, http.StatusNotFound, "Task not found")
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, task.Snapshot())
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	s.writeHTTPError(w, http.StatusNotFound, "Unknown API endpoint")
}

// --- Helpers ---

// decodeBody parses the JSON request body into dst. On failure it writes
// the 400 response itself and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, statusCode int, message string) {
	s.writeHTTPResponse(w, statusCode, map[string]any{
		"success": false,
		"error":   message,
	})
}

// writeServiceError maps a facade error onto its HTTP status and the
// uniform error envelope shared by every adapter.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	s.writeHTTPResponse(w, api.ErrorStatus(err), api.ErrorBody(err))
}

// splitCSV parses a comma-separated query parameter, dropping empties.
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
