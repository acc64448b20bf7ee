package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Define global variables for metrics.
// We use 'promauto' which automatically registers metrics without complex initialization.

var (
	// 1. HTTP Requests Total (Counter)
	// Counts how many requests arrive, labeled by method, path, and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communityoverview_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"}, // Labels
	)

	// 2. HTTP Request Duration (Histogram)
	// Measures server response time.
	// Critical for spotting slow embedding or LLM round trips.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "communityoverview_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
			// Custom buckets covering from microseconds (in-memory lookup) to seconds (LLM generation)
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// 3. Graph Nodes (Gauge)
	// Tracks the number of stored nodes per type.
	GraphNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "communityoverview_graph_nodes",
			Help: "Number of stored graph nodes by type",
		},
		[]string{"type"},
	)

	// 4. Graph Edges (Gauge)
	// Tracks the total number of stored edges.
	GraphEdges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "communityoverview_graph_edges",
			Help: "Total number of stored graph edges",
		},
	)

	// 5. Embedding Requests (Counter)
	// Counts round trips to the embedding backend, labeled by outcome.
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "communityoverview_embedding_requests_total",
			Help: "Total number of embedding backend requests",
		},
		[]string{"status"}, // "ok" or "error"
	)
)
