// Command communityoverview runs the collaboration knowledge graph server:
// REST API, MCP transport, assistant chat and the embedded browser UI on
// one listener, or an MCP stdio session with -mcp-stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jakobengdahl/CommunityOverview-sub001/internal/api"
	"github.com/jakobengdahl/CommunityOverview-sub001/internal/assistant"
	"github.com/jakobengdahl/CommunityOverview-sub001/internal/mcp"
	"github.com/jakobengdahl/CommunityOverview-sub001/internal/server"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/embeddings"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/graph"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/llm"
	"github.com/jakobengdahl/CommunityOverview-sub001/pkg/vector"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	listen := flag.String("listen", "", "HTTP bind address (overrides the configuration)")
	dataDir := flag.String("data-dir", "", "Data directory for graph and vector files (overrides the configuration)")
	mcpStdio := flag.Bool("mcp-stdio", false, "Serve MCP over stdio instead of starting the HTTP server")
	flag.Parse()

	// Logs go to stderr so stdio MCP sessions keep stdout clean.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	config, err := server.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Configuration error", "error", err)
		os.Exit(1)
	}
	if *listen != "" {
		config.Listen = *listen
	}
	if *dataDir != "" {
		config.DataDir = *dataDir
	}

	// Semantic index, only when an embedding provider is configured.
	var vx *vector.Index
	if config.Embeddings.Enabled() {
		vx, err = vector.Open(vector.Options{
			Path:      filepath.Join(config.DataDir, "vectors.json"),
			Embedder:  embedderOpener(config.Embeddings),
			Precision: vector.Precision(config.Embeddings.Precision),
		})
		if err != nil {
			slog.Error("Could not open the vector index", "error", err)
			os.Exit(1)
		}
		slog.Info("Semantic similarity enabled", "provider", config.Embeddings.Type, "model", config.Embeddings.Model)
	} else {
		slog.Info("No embedding provider configured, similarity runs lexical-only")
	}

	store, err := graph.Open(graph.Options{
		Path:    filepath.Join(config.DataDir, "graph.json"),
		Vectors: vx,
	})
	if err != nil {
		slog.Error("Could not open the graph store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := api.NewService(store)
	mcpServer := mcp.NewMCPServer(svc)

	if *mcpStdio {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := mcp.RunStdio(ctx, mcpServer); err != nil {
			slog.Error("MCP stdio session failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// The assistant is enabled exactly when an LLM endpoint is configured.
	var orch *assistant.Orchestrator
	if config.LLM.BaseURL != "" {
		orch, err = assistant.New(llm.NewClient(config.LLM), svc)
		if err != nil {
			slog.Error("Could not build the assistant", "error", err)
			os.Exit(1)
		}
		slog.Info("Assistant enabled", "model", config.LLM.Model)
	}

	srv, err := server.NewServer(server.Options{
		Listen:    config.Listen,
		AuthToken: config.AuthToken,
		API:       svc,
		Assistant: orch,
		MCP:       mcp.HTTPHandler(mcpServer),
	})
	if err != nil {
		slog.Error("Could not create the server", "error", err)
		os.Exit(1)
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(); err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-shutdownChan
	srv.Shutdown()
}

// embedderOpener defers provider construction to first use, so a server
// can start while the embedding backend is still coming up.
func embedderOpener(cfg server.EmbeddingsConfig) vector.EmbedderOpener {
	return func() (embeddings.Embedder, error) {
		switch cfg.Type {
		case "ollama":
			return embeddings.NewOllamaEmbedder(cfg.URL, cfg.Model, cfg.TimeoutDuration()), nil
		case "openai":
			return embeddings.NewOpenAIEmbedder(cfg.URL, cfg.Model, cfg.APIKey, cfg.TimeoutDuration()), nil
		default:
			return nil, fmt.Errorf("unknown embeddings type %q", cfg.Type)
		}
	}
}
