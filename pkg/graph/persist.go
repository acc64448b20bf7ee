package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const fileVersion = "1.0"

// graphFile is the durable JSON shape of the whole graph. Nodes and edges
// are written in id order, so saving the same graph twice produces the same
// bytes (modulo the last_updated stamp).
type graphFile struct {
	Nodes    []*Node      `json:"nodes"`
	Edges    []*Edge      `json:"edges"`
	Metadata fileMetadata `json:"metadata"`
}

type fileMetadata struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"last_updated"`
}

// load reads the backing file into memory, verifying every record. A missing
// file initializes an empty graph and persists it immediately, so the file
// always exists after Open. Any parse or validation failure is fatal.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("graph: reading %s: %w", s.path, err)
	}

	var f graphFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("graph: parsing %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range f.Nodes {
		if n.ID == "" {
			return fmt.Errorf("graph: %s: node %q has no id", s.path, n.Name)
		}
		if err := n.Validate(); err != nil {
			return fmt.Errorf("graph: %s: node %s: %w", s.path, n.ID, err)
		}
		if _, dup := s.nodes.Get(n.ID); dup {
			return fmt.Errorf("graph: %s: duplicate node id %s", s.path, n.ID)
		}
		s.nodes.Set(n.ID, n)
	}

	for _, e := range f.Edges {
		if e.ID == "" {
			return fmt.Errorf("graph: %s: edge %s->%s has no id", s.path, e.Source, e.Target)
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("graph: %s: edge %s: %w", s.path, e.ID, err)
		}
		if _, dup := s.edges.Get(e.ID); dup {
			return fmt.Errorf("graph: %s: duplicate edge id %s", s.path, e.ID)
		}
		if _, ok := s.nodes.Get(e.Source); !ok {
			return fmt.Errorf("graph: %s: edge %s references missing source %s", s.path, e.ID, e.Source)
		}
		if _, ok := s.nodes.Get(e.Target); !ok {
			return fmt.Errorf("graph: %s: edge %s references missing target %s", s.path, e.ID, e.Target)
		}
		s.attachEdgeLocked(e)
	}

	return nil
}

// saveLocked writes the full graph to disk via a temp file and rename, so a
// crash mid-save leaves the previous file intact. Callers hold the write
// lock (or have exclusive access during Open).
func (s *Store) saveLocked() error {
	f := graphFile{
		Nodes: make([]*Node, 0, s.nodes.Len()),
		Edges: make([]*Edge, 0, s.edges.Len()),
		Metadata: fileMetadata{
			Version:     fileVersion,
			LastUpdated: now(),
		},
	}
	s.nodes.Scan(func(_ string, n *Node) bool {
		f.Nodes = append(f.Nodes, n)
		return true
	})
	s.edges.Scan(func(_ string, e *Edge) bool {
		f.Edges = append(f.Edges, e)
		return true
	})

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("graph: encoding: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("graph: creating %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("graph: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("graph: replacing %s: %w", s.path, err)
	}
	return nil
}
